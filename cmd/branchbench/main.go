// Command branchbench benchmarks branch creation, inserts, reads and updates
// on branchable SQL stores.
package main

import "github.com/ElaineAng/db-fork/cmd/branchbench/cmd"

func main() {
	cmd.Execute()
}
