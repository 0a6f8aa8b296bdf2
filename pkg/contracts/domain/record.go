package domain

import (
	"maps"
	"time"
)

// ColumnKind classifies how a column's values are parsed, compared and reduced.
type ColumnKind int

const (
	KindInteger ColumnKind = iota
	KindCategorical
	KindNumeric
	KindDate
)

// Column identifies one field of the sales record schema.
type Column string

const (
	ColYear                Column = "Year"
	ColMonth               Column = "Month"
	ColRegion              Column = "Region"
	ColModel               Column = "Model"
	ColEstimatedDeliveries Column = "Estimated_Deliveries"
	ColProductionUnits     Column = "Production_Units"
	ColAvgPriceUSD         Column = "Avg_Price_USD"
	ColBatteryCapacityKWh  Column = "Battery_Capacity_kWh"
	ColRangeKM             Column = "Range_km"
	ColChargingStations    Column = "Charging_Stations"
	ColDate                Column = "Date"
)

// AllColumns lists every known column in canonical file order.
var AllColumns = []Column{
	ColYear,
	ColMonth,
	ColRegion,
	ColModel,
	ColEstimatedDeliveries,
	ColProductionUnits,
	ColAvgPriceUSD,
	ColBatteryCapacityKWh,
	ColRangeKM,
	ColChargingStations,
	ColDate,
}

// NumericColumns lists the measure columns in canonical order.
var NumericColumns = []Column{
	ColEstimatedDeliveries,
	ColProductionUnits,
	ColAvgPriceUSD,
	ColBatteryCapacityKWh,
	ColRangeKM,
	ColChargingStations,
}

// Kind returns the column's value kind.
func (c Column) Kind() ColumnKind {
	switch c {
	case ColYear, ColMonth:
		return KindInteger
	case ColRegion, ColModel:
		return KindCategorical
	case ColDate:
		return KindDate
	default:
		return KindNumeric
	}
}

// Known reports whether c is part of the record schema.
func (c Column) Known() bool {
	for _, k := range AllColumns {
		if k == c {
			return true
		}
	}
	return false
}

// Record is one row of the regional EV sales dataset.
// Every field may be absent in the source file.
type Record struct {
	Year                Optional[int]       `json:"year"`
	Month               Optional[int]       `json:"month"`
	Region              Optional[string]    `json:"region"`
	Model               Optional[string]    `json:"model"`
	EstimatedDeliveries Optional[float64]   `json:"estimated_deliveries"`
	ProductionUnits     Optional[float64]   `json:"production_units"`
	AvgPriceUSD         Optional[float64]   `json:"avg_price_usd"`
	BatteryCapacityKWh  Optional[float64]   `json:"battery_capacity_kwh"`
	RangeKM             Optional[float64]   `json:"range_km"`
	ChargingStations    Optional[float64]   `json:"charging_stations"`
	Date                Optional[time.Time] `json:"date"`

	// Extra carries columns the schema does not know, keyed by header name.
	Extra map[string]string `json:"extra,omitempty"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r.Extra != nil {
		r.Extra = maps.Clone(r.Extra)
	}
	return r
}

// Integer returns the value of an integer column.
func (r Record) Integer(c Column) Optional[int] {
	switch c {
	case ColYear:
		return r.Year
	case ColMonth:
		return r.Month
	}
	return None[int]()
}

// Categorical returns the value of a categorical column.
func (r Record) Categorical(c Column) Optional[string] {
	switch c {
	case ColRegion:
		return r.Region
	case ColModel:
		return r.Model
	}
	return None[string]()
}

// Numeric returns the value of a measure column as float64.
// Integer columns are widened so they can take part in numeric summaries.
func (r Record) Numeric(c Column) Optional[float64] {
	switch c {
	case ColEstimatedDeliveries:
		return r.EstimatedDeliveries
	case ColProductionUnits:
		return r.ProductionUnits
	case ColAvgPriceUSD:
		return r.AvgPriceUSD
	case ColBatteryCapacityKWh:
		return r.BatteryCapacityKWh
	case ColRangeKM:
		return r.RangeKM
	case ColChargingStations:
		return r.ChargingStations
	case ColYear, ColMonth:
		if v, ok := r.Integer(c).Get(); ok {
			return Some(float64(v))
		}
	}
	return None[float64]()
}

// Present reports whether the record holds a value for c.
func (r Record) Present(c Column) bool {
	switch c.Kind() {
	case KindInteger:
		return r.Integer(c).Valid
	case KindCategorical:
		return r.Categorical(c).Valid
	case KindDate:
		return r.Date.Valid
	default:
		return r.Numeric(c).Valid
	}
}

// Without returns a copy of the record with c cleared.
func (r Record) Without(c Column) Record {
	out := r.Clone()
	switch c {
	case ColYear:
		out.Year = None[int]()
	case ColMonth:
		out.Month = None[int]()
	case ColRegion:
		out.Region = None[string]()
	case ColModel:
		out.Model = None[string]()
	case ColEstimatedDeliveries:
		out.EstimatedDeliveries = None[float64]()
	case ColProductionUnits:
		out.ProductionUnits = None[float64]()
	case ColAvgPriceUSD:
		out.AvgPriceUSD = None[float64]()
	case ColBatteryCapacityKWh:
		out.BatteryCapacityKWh = None[float64]()
	case ColRangeKM:
		out.RangeKM = None[float64]()
	case ColChargingStations:
		out.ChargingStations = None[float64]()
	case ColDate:
		out.Date = None[time.Time]()
	}
	return out
}
