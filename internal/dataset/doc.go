// Package dataset loads the raw inputs from the data directory: the monthly
// security file (CSV, one row per security-month with returns, price, shares
// outstanding and category codes) and the reference index series (CSV or an
// Excel workbook). It is the boundary where provider quirks are absorbed
// (period normalization, delisting-return merging, missing-value markers), so
// the core packages receive a clean, typed panel.
package dataset
