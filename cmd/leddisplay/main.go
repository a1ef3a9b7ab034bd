// leddisplay shows radar speed events on a two-digit large seven-segment
// display.
//
// Each event published on the speed topic is flashed twice and then held
// for three seconds. SIGINT or SIGTERM blanks the display and exits.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
