// Package main provides the steward CLI for reviewing and applying access
// changes to a ClickHouse server.
//
// The CLI supports:
//   - catalog: print the privilege hierarchy
//   - effective: show the effective grants of a user or role
//   - plan / apply: diff a desired-state file against the server and execute it
//   - audit: list, summarize and purge the audit log
//   - export / import: move access entities between servers
//   - serve: run the HTTP API
//
// Usage:
//
//	steward [flags] <command>
package main

func main() {
	Execute()
}
