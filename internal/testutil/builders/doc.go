// Package builders provides test data builders using the builder pattern for creating test fixtures.
//
// # Available Builders
//
//   - IssueBuilder: Creates tracker.Issue instances
//   - ConfigBuilder: Creates config.Config instances that pass Validate
//   - DataBuilder: Creates finding.Data instances with findings
//
// # Best Practices
//
// 1. Builders should provide sensible defaults for all fields
// 2. Use method chaining for a fluent API
// 3. The Build() method should return a fresh copy
package builders
