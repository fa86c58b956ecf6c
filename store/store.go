// Package store provides an in-memory DynamoDB backend and the attribute names
// of the default single-table layout.
//
// MemoryClient implements the table and batch-write calls used for test
// fixtures, so table setup and seeding can run without LocalStack or AWS:
//   - CreateTable / DeleteTable / DescribeTable with DynamoDB's error types
//   - BatchWriteItem with the 25-request limit and key validation
//   - GetItem / Scan for inspecting what was written
package store
