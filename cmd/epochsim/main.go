// Package main runs epochsim, a command line harness that builds a
// synthetic beacon state and drives it through one or more epoch
// transitions, logging the resulting justification, finalization and
// crosslink state after each one.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethprotocol/beacon-epoch/beacon-chain/core/state"
	"github.com/ethprotocol/beacon-epoch/beacon-chain/utils"
	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/cmd"
	"github.com/ethprotocol/beacon-epoch/shared/params"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var log = logrus.WithField("prefix", "epochsim")

var appFlags = []cli.Flag{
	cmd.VerbosityFlag,
	cmd.DisableMonitoringFlag,
	cmd.MonitoringPortFlag,
	utils.DemoConfigFlag,
	utils.ValidatorCountFlag,
	utils.NumEpochsFlag,
}

func main() {
	app := cli.NewApp()
	app.Name = "epochsim"
	app.Usage = "simulate epoch transitions over a synthetic beacon state"
	app.Flags = appFlags
	app.Action = runSim

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func runSim(c *cli.Context) error {
	verbosity := c.String(cmd.VerbosityFlag.Name)
	level, err := logrus.ParseLevel(verbosity)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	if c.Bool(utils.DemoConfigFlag.Name) {
		params.UseDemoBeaconConfig()
	}

	validatorCount := c.Uint64(utils.ValidatorCountFlag.Name)
	numEpochs := c.Uint64(utils.NumEpochsFlag.Name)

	beaconState := genesisState(validatorCount)
	ctx := context.Background()

	cfg := params.BeaconConfig()
	for i := uint64(0); i < numEpochs; i++ {
		beaconState.Slot = (beaconState.Slot/cfg.SlotsPerEpoch+1)*cfg.SlotsPerEpoch - 1
		beaconState, err = state.ProcessEpoch(ctx, beaconState)
		if err != nil {
			return fmt.Errorf("could not process epoch: %v", err)
		}
		stateRoot, err := state.HashTreeRoot(beaconState)
		if err != nil {
			return fmt.Errorf("could not compute state root: %v", err)
		}
		log.WithField("epoch", i).
			WithField("slot", beaconState.Slot).
			WithField("justifiedEpoch", beaconState.JustifiedEpoch).
			WithField("finalizedEpoch", beaconState.FinalizedEpoch).
			WithField("stateRoot", fmt.Sprintf("%#x", stateRoot)).
			Info("Completed epoch transition")
	}
	return nil
}

// genesisState builds a minimal, internally consistent beacon state with
// validatorCount validators, all active since genesis, for the simulator
// to run epoch transitions against.
func genesisState(validatorCount uint64) *pb.BeaconState {
	cfg := params.BeaconConfig()

	registry := make([]*pb.Validator, validatorCount)
	balances := make([]uint64, validatorCount)
	for i := uint64(0); i < validatorCount; i++ {
		registry[i] = &pb.Validator{
			Pubkey:           []byte(fmt.Sprintf("validator-%d", i)),
			ActivationEpoch:  cfg.GenesisEpoch,
			ExitEpoch:        cfg.FarFutureEpoch,
			WithdrawableEpoch: cfg.FarFutureEpoch,
			PenalizedEpoch:   cfg.FarFutureEpoch,
		}
		balances[i] = cfg.MaxDepositAmount
	}

	crosslinks := make([]*pb.Crosslink, cfg.ShardCount)
	for i := range crosslinks {
		crosslinks[i] = &pb.Crosslink{Epoch: cfg.GenesisEpoch}
	}

	latestBlockRoots := make([][]byte, cfg.LatestBlockRootsLength)
	for i := range latestBlockRoots {
		latestBlockRoots[i] = make([]byte, 32)
	}
	randaoMixes := make([][]byte, cfg.LatestRandaoMixesLength)
	for i := range randaoMixes {
		randaoMixes[i] = make([]byte, 32)
	}
	indexRoots := make([][]byte, cfg.LatestActiveIndexRootsLength)
	for i := range indexRoots {
		indexRoots[i] = make([]byte, 32)
	}
	slashedBalances := make([]uint64, cfg.LatestSlashedExitLength)

	return &pb.BeaconState{
		Slot:        cfg.GenesisSlot,
		GenesisTime: 0,
		Fork: &pb.Fork{
			PreviousVersion: 0,
			CurrentVersion:  0,
			Epoch:           cfg.GenesisEpoch,
		},

		ValidatorRegistry:            registry,
		ValidatorBalances:            balances,
		ValidatorRegistryUpdateEpoch: cfg.GenesisEpoch,

		LatestRandaoMixes:           randaoMixes,
		PreviousShufflingEpoch:      cfg.GenesisEpoch,
		CurrentShufflingEpoch:       cfg.GenesisEpoch,
		PreviousShufflingStartShard: 0,
		CurrentShufflingStartShard:  0,
		PreviousShufflingSeedHash32: make([]byte, 32),
		CurrentShufflingSeedHash32:  make([]byte, 32),

		PreviousJustifiedEpoch: cfg.GenesisEpoch,
		JustifiedEpoch:         cfg.GenesisEpoch,
		JustificationBitfield:  0,
		FinalizedEpoch:         cfg.GenesisEpoch,

		LatestCrosslinks:        crosslinks,
		LatestBlockRootHash32S:  latestBlockRoots,
		LatestIndexRootHash32S:  indexRoots,
		LatestSlashedBalances:   slashedBalances,
		LatestAttestations:      nil,

		LatestEth1Data: &pb.Eth1Data{},
		Eth1DataVotes:  nil,
	}
}
