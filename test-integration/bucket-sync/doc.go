// Package integration provides integration tests for the ToolHive bucket synchronizer.
// These tests run the complete application against real stores and observe the
// result of reconciliation cycles through the ops API and the bucket store.
package integration
