// Resq parses, queues and executes RapidResQ emergency commands.
//
// Usage:
//
//	# Parse a command and show its diagnostics
//	resq parse ALERT fire at Lahore priority HIGH contact 1122
//
//	# Parse and execute, printing JSON
//	resq parse --execute --format json "QUERY hospital near Karachi"
//
//	# Run the built-in self-test commands
//	resq examples
//
//	# Check the coordinator under concurrent load
//	resq bench --workers 50 --trials 100
//
//	# Serve the HTTP API
//	resq serve --config resq.yaml
package main

import "os"

func main() {
	os.Exit(Execute())
}
