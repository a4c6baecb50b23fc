// Package helpers provides general test helper functions and utilities.
//
// # Available Helpers
//
//   - ObservableLogger: a logger.Logger backed by zap's observer core
//   - Clock: a settable clock for engine and tracker options
//   - MustParseTime, TimePtr, DaysAgo: time fixtures
package helpers
