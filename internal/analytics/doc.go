// Package analytics groups sales tables by month and reduces them into the
// series behind each time-series view: monthly deliveries, production against
// deliveries, average price, model share, battery against range, and charging
// infrastructure against sales.
//
// Every analysis synthesizes and sorts the Date key first, so results are
// always in chronological order with one entry per distinct month. Summary
// values (bounds, means, correlation, the last five entries) are computed
// alongside the data so callers can print them without drawing anything.
//
// Undefined arithmetic never propagates: a ratio over zero production, a share
// over a zero total and a correlation over a constant series all yield 0.
package analytics
