// Package utils defines the command line flags for the epochsim harness.
package utils

import (
	"github.com/urfave/cli"
)

var (
	// DemoConfigFlag determines whether to run the epoch transition using
	// demo parameters (shorter epochs, fewer shards and committees).
	DemoConfigFlag = cli.BoolFlag{
		Name:  "demo-config",
		Usage: "Run using demo parameters (i.e. shorter epochs, fewer shards and committees)",
	}
	// ValidatorCountFlag sets the size of the synthetic validator registry
	// the harness builds before running epoch transitions.
	ValidatorCountFlag = cli.Uint64Flag{
		Name:  "validator-count",
		Usage: "Number of validators in the synthetic beacon state",
		Value: 256,
	}
	// NumEpochsFlag sets how many consecutive epoch transitions to run.
	NumEpochsFlag = cli.Uint64Flag{
		Name:  "num-epochs",
		Usage: "Number of epoch transitions to run",
		Value: 1,
	}
)
