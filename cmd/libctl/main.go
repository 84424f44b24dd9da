// Command libctl is the operator CLI. It works directly on the database
// file, so it can seed data, create librarian accounts and run the overdue
// sweep without a running server.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	a := &app{}
	defer a.close()

	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
