// main is the entry point of the cohort CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/cohort/cmd"
)

func main() {
	code := 0
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		code = 1
	}
	cmd.Shutdown()
	os.Exit(code)
}
