// Command reflect is a journal that grows a garden: every check-in waters the
// current plant, and plants that bloom are kept in the garden history.
package main

import (
	"fmt"
	"os"
)

// Version is the current CLI version string.
var Version = "v0.3"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "reflect:", err)
		os.Exit(1)
	}
}
