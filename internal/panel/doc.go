// Package panel defines the security-month observation model shared by the
// universe filter, the lag engine, and the index calculator.
//
// A panel is a flat slice of Observation values, one row per (entity, period).
// Missing numeric fields are represented explicitly with the Float type rather
// than NaN sentinels, so every aggregation downstream can distinguish "absent"
// from "zero".
package panel
