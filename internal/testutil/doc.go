// Package testutil provides common test utilities, mocks, and builders for testing steward components.
//
// This package is organized into the following sub-packages:
//
//   - mocks: testify mocks for the tracker facade and the logger
//   - builders: fluent builders for issues, configurations and findings
//   - helpers: observable logger and clock helpers
//
// # Example
//
//	cfg := builders.NewConfigBuilder().WithAutoResolve(config.Policy{Transition: true}).Build()
//	issue := builders.NewIssueBuilder("SEC-1").WithStatus("Open").WithLabels("app", "sast").Build()
//
//	mt := mocks.NewMockTracker().WithDefaultBehavior()
//	mt.On("Search", mock.Anything, mock.Anything).Return([]*tracker.Issue{issue}, nil)
package testutil
