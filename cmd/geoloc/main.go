// geoloc assigns Swiss administrative locations to open-data metadata
// records by scanning their titles and descriptions against a gazetteer.
package main

import (
	"os"

	"github.com/loopercamera/4M/cmd/geoloc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
