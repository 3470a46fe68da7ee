// Command forecast runs weekly sales predictions from the terminal using
// the same artifacts and feature assembly as the web service.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
