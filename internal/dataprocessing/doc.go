// Package dataprocessing holds the row-level transformations that sit between
// loading and analysis.
//
// # Components
//
// 1. Partitioner: splits a table into one table per region, keys in
// lexicographic order, optionally dropping the key column
// 2. Date synthesis: derives Date as the first day of (Year, Month) in UTC
// and sorts chronologically
//
// # Usage
//
//	parts, err := dataprocessing.SplitByRegion(table, dataprocessing.DefaultSplitOptions())
//	if err != nil {
//	    return err
//	}
//	for region, t := range parts.All() {
//	    fmt.Println(region, t.Len())
//	}
//
// Both operations return new tables; the input is never modified.
package dataprocessing
