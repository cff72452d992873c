// Package main is the entry point for the lootcond CLI application.
//
// This file bootstraps the application by invoking the command execution
// logic defined in the cmd package.
package main

import "github.com/loot/condition-interpreter/cmd"

// main initializes and runs the lootcond CLI application, delegating all
// command parsing and execution to the cmd package.
func main() {
	cmd.Execute()
}
