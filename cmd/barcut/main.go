// BarCut - 1D cutting stock optimizer.
//
// barcut serve runs the HTTP API and the background optimization workers.
// The other commands run the optimizer locally on request files:
//
//	barcut optimize request.yaml --formats pdf,xlsx
//	barcut compare request.json
//	barcut import parts.csv --stock "Steel tube 40x40x2 6m" --save request.json
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
