// Package dynamodb implements a durable-ref backend over Amazon DynamoDB,
// registered under the inner-URI scheme "dynamodb".
//
// Each inner URI maps to one item, keyed by a single partition key
// attribute ("key"), carrying a "data" attribute (binary) and a
// "version" attribute (number). AtomicSwap is native: PutItem with a
// ConditionExpression on the version attribute stands in for the core's
// generic CAS loop (package atomic), which this backend never needs.
package dynamodb
