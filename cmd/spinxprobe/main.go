// Command spinxprobe runs contention workloads against the spinx primitives
// and exits non-zero when a promised property does not hold.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
