// Package utils provides internal formatting helpers for the preprocessor reports.
// This package is not intended to be imported by external code.
//
// It contains:
//   - Byte size formatting
//   - Thousands-separated counts
//   - Elapsed time formatting
package utils
