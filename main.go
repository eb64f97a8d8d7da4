// The main package for the creatorscout executable.
package main

import (
	"github.com/influenceops/creatorscout/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
