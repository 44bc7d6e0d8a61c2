package helpers

import (
	"testing"

	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/params"
)

func TestEpochCommitteeCount(t *testing.T) {
	params.OverrideBeaconConfig(&params.BeaconChainConfig{
		ShardCount:          8,
		TargetCommitteeSize: 4,
		SlotsPerEpoch:       8,
		FarFutureEpoch:      params.BeaconConfig().FarFutureEpoch,
	})
	defer params.UseMainnetConfig()

	tests := []struct {
		activeValidatorCount uint64
		committeeCount       uint64
	}{
		{activeValidatorCount: 0, committeeCount: 8},   // clamped to the minimum of 1 committee per slot
		{activeValidatorCount: 1000, committeeCount: 8}, // clamped to the maximum, ShardCount/SlotsPerEpoch == 1 per slot
	}
	for _, tt := range tests {
		if got := EpochCommitteeCount(tt.activeValidatorCount); got != tt.committeeCount {
			t.Errorf("EpochCommitteeCount(%d) = %d, wanted %d", tt.activeValidatorCount, got, tt.committeeCount)
		}
	}
}

func newTestState(validatorCount uint64) *pb.BeaconState {
	cfg := params.BeaconConfig()
	registry := make([]*pb.Validator, validatorCount)
	for i := range registry {
		registry[i] = &pb.Validator{ActivationEpoch: 0, ExitEpoch: cfg.FarFutureEpoch}
	}
	randaoMixes := make([][]byte, cfg.LatestRandaoMixesLength)
	for i := range randaoMixes {
		randaoMixes[i] = make([]byte, 32)
	}
	indexRoots := make([][]byte, cfg.LatestActiveIndexRootsLength)
	for i := range indexRoots {
		indexRoots[i] = make([]byte, 32)
	}
	return &pb.BeaconState{
		Slot:                        cfg.SlotsPerEpoch,
		ValidatorRegistry:           registry,
		LatestRandaoMixes:           randaoMixes,
		LatestIndexRootHash32S:      indexRoots,
		CurrentShufflingSeedHash32:  make([]byte, 32),
		PreviousShufflingSeedHash32: make([]byte, 32),
	}
}

func TestCrosslinkCommitteesAtSlot_CoversEveryActiveValidatorOnce(t *testing.T) {
	params.OverrideBeaconConfig(&params.BeaconChainConfig{
		ShardCount:                   8,
		TargetCommitteeSize:          2,
		SlotsPerEpoch:                8,
		MinSeedLookahead:             1,
		ActivationExitDelay:          4,
		LatestRandaoMixesLength:      64,
		LatestActiveIndexRootsLength: 64,
		FarFutureEpoch:               params.BeaconConfig().FarFutureEpoch,
	})
	defer params.UseMainnetConfig()

	state := newTestState(16)
	seen := make(map[uint64]bool)
	cfg := params.BeaconConfig()
	for slot := cfg.SlotsPerEpoch; slot < 2*cfg.SlotsPerEpoch; slot++ {
		committees, err := CrosslinkCommitteesAtSlot(state, slot)
		if err != nil {
			t.Fatalf("CrosslinkCommitteesAtSlot(%d) returned error: %v", slot, err)
		}
		for _, c := range committees {
			for _, idx := range c.Committee {
				if seen[idx] {
					t.Errorf("validator %d appears in more than one crosslink committee", idx)
				}
				seen[idx] = true
			}
		}
	}
	if len(seen) != 16 {
		t.Errorf("crosslink committees across the epoch covered %d distinct validators, wanted 16", len(seen))
	}
}

func TestBeaconProposerIndex(t *testing.T) {
	params.OverrideBeaconConfig(&params.BeaconChainConfig{
		ShardCount:                   8,
		TargetCommitteeSize:          2,
		SlotsPerEpoch:                8,
		MinSeedLookahead:             1,
		ActivationExitDelay:          4,
		LatestRandaoMixesLength:      64,
		LatestActiveIndexRootsLength: 64,
		FarFutureEpoch:               params.BeaconConfig().FarFutureEpoch,
	})
	defer params.UseMainnetConfig()

	state := newTestState(16)
	index, err := BeaconProposerIndex(state, state.Slot)
	if err != nil {
		t.Fatalf("BeaconProposerIndex returned error: %v", err)
	}
	if index >= 16 {
		t.Errorf("BeaconProposerIndex returned out-of-range index %d", index)
	}
}
