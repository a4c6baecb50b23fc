// Package mocks provides testify mock implementations of the interfaces used
// throughout steward.
//
// # Available Mocks
//
//   - MockTracker: Mock for tracker.Tracker
//   - MockLogger: Mock for logger.Logger
//
// # Best Practices
//
// 1. Always use the factory functions (e.g., NewMockTracker) to create mocks
// 2. Use WithDefaultBehavior() for the pure helpers (ContentsMatch, PriorityName)
// 3. Use mock.MatchedBy to assert on IssueBuilder contents
//
// # Example
//
//	mt := mocks.NewMockTracker().WithDefaultBehavior()
//	mt.On("Update", mock.Anything, mock.Anything, mock.MatchedBy(func(b tracker.IssueBuilder) bool {
//	    return b.Status != nil && *b.Status == "Done"
//	})).Return(&tracker.Issue{Key: "SEC-1", Status: "Done"}, nil)
package mocks
