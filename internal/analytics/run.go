package analytics

import (
	"fmt"

	"evsales/internal/dataset"
	apperrors "evsales/internal/errors"
)

// Kind names one of the time-series analyses.
type Kind string

const (
	KindMonthlyDeliveries      Kind = "monthly-deliveries"
	KindProductionVsDeliveries Kind = "production-vs-deliveries"
	KindAveragePrice           Kind = "average-price"
	KindModelShare             Kind = "model-share"
	KindBatteryRange           Kind = "battery-range"
	KindInfraVsSales           Kind = "infra-vs-sales"
)

// Kinds lists every analysis in presentation order.
var Kinds = []Kind{
	KindMonthlyDeliveries,
	KindProductionVsDeliveries,
	KindAveragePrice,
	KindModelShare,
	KindBatteryRange,
	KindInfraVsSales,
}

// ParseKind resolves an analysis name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", apperrors.NewValueError(fmt.Sprintf("unknown analysis %q", s), nil).
		WithContext("kind", s)
}

// Run dispatches to the analysis named by kind.
func Run(kind Kind, t *dataset.Table) (any, error) {
	switch kind {
	case KindMonthlyDeliveries:
		return MonthlyDeliveries(t)
	case KindProductionVsDeliveries:
		return ProductionVsDeliveries(t)
	case KindAveragePrice:
		return AveragePrice(t)
	case KindModelShare:
		return ModelShare(t)
	case KindBatteryRange:
		return BatteryAndRange(t)
	case KindInfraVsSales:
		return InfraVsSales(t)
	}
	return nil, apperrors.NewValueError(fmt.Sprintf("unknown analysis %q", kind), nil)
}
