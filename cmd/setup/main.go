// cmd/setup/main.go
//
// This is the entry point for the setup CLI. It applies the registered schema
// setup tasks to a database in dependency order.
//
//	setup run [targets...]   apply tasks (all of them, or targets plus their prerequisites)
//	setup plan [targets...]  print the execution order without touching a database
//	setup tasks              list registered tasks
//	setup status             show the last saved run report

package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
