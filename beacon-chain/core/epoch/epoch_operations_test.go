package epoch

import (
	"testing"

	"github.com/ethprotocol/beacon-epoch/beacon-chain/core/helpers"
	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/params"
)

func setupOperationsTestConfig() {
	params.OverrideBeaconConfig(&params.BeaconChainConfig{
		ShardCount:                   8,
		TargetCommitteeSize:          2,
		SlotsPerEpoch:                8,
		MinSeedLookahead:             1,
		ActivationExitDelay:          4,
		LatestRandaoMixesLength:      64,
		LatestActiveIndexRootsLength: 64,
		MaxDepositAmount:             params.BeaconConfig().MaxDepositAmount,
		FarFutureEpoch:               params.BeaconConfig().FarFutureEpoch,
	})
}

func fullBitfield(n int) []byte {
	field := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		field[i/8] |= 1 << uint(i%8)
	}
	return field
}

func TestCurrentAttestations_FiltersByEpoch(t *testing.T) {
	setupOperationsTestConfig()
	defer params.UseMainnetConfig()

	cfg := params.BeaconConfig()
	state := &pb.BeaconState{Slot: 2 * cfg.SlotsPerEpoch}
	state.LatestAttestations = []*pb.PendingAttestation{
		{Data: &pb.AttestationData{Slot: 2 * cfg.SlotsPerEpoch}},
		{Data: &pb.AttestationData{Slot: cfg.SlotsPerEpoch}},
	}

	got := CurrentAttestations(state)
	if len(got) != 1 {
		t.Fatalf("CurrentAttestations returned %d attestations, wanted 1", len(got))
	}
	if got[0].Data.Slot != 2*cfg.SlotsPerEpoch {
		t.Errorf("CurrentAttestations returned an attestation from the wrong epoch")
	}
}

func TestPrevAttestations_FiltersByEpoch(t *testing.T) {
	setupOperationsTestConfig()
	defer params.UseMainnetConfig()

	cfg := params.BeaconConfig()
	state := &pb.BeaconState{Slot: 2 * cfg.SlotsPerEpoch}
	state.LatestAttestations = []*pb.PendingAttestation{
		{Data: &pb.AttestationData{Slot: 2 * cfg.SlotsPerEpoch}},
		{Data: &pb.AttestationData{Slot: cfg.SlotsPerEpoch}},
	}

	got := PrevAttestations(state)
	if len(got) != 1 {
		t.Fatalf("PrevAttestations returned %d attestations, wanted 1", len(got))
	}
	if got[0].Data.Slot != cfg.SlotsPerEpoch {
		t.Errorf("PrevAttestations returned an attestation from the wrong epoch")
	}
}

func TestInclusionSlotAndDistance(t *testing.T) {
	setupOperationsTestConfig()
	defer params.UseMainnetConfig()

	cfg := params.BeaconConfig()
	registry := make([]*pb.Validator, 16)
	for i := range registry {
		registry[i] = &pb.Validator{ExitEpoch: cfg.FarFutureEpoch}
	}
	state := &pb.BeaconState{
		Slot:                        cfg.SlotsPerEpoch,
		ValidatorRegistry:           registry,
		CurrentShufflingSeedHash32:  make([]byte, 32),
		PreviousShufflingSeedHash32: make([]byte, 32),
		LatestRandaoMixes:           make([][]byte, cfg.LatestRandaoMixesLength),
		LatestIndexRootHash32S:      make([][]byte, cfg.LatestActiveIndexRootsLength),
	}
	for i := range state.LatestRandaoMixes {
		state.LatestRandaoMixes[i] = make([]byte, 32)
	}
	for i := range state.LatestIndexRootHash32S {
		state.LatestIndexRootHash32S[i] = make([]byte, 32)
	}

	committees, err := helpers.CrosslinkCommitteesAtSlot(state, 0)
	if err != nil {
		t.Fatalf("CrosslinkCommitteesAtSlot returned error: %v", err)
	}
	committee := committees[0]

	attestation := &pb.PendingAttestation{
		Data: &pb.AttestationData{
			Slot:  0,
			Shard: committee.Shard,
		},
		AggregationBitfield: fullBitfield(len(committee.Committee)),
		InclusionSlot:       5,
	}
	state.LatestAttestations = []*pb.PendingAttestation{attestation}

	target := committee.Committee[0]
	slot, err := InclusionSlot(state, target)
	if err != nil {
		t.Fatalf("InclusionSlot returned error: %v", err)
	}
	if slot != 5 {
		t.Errorf("InclusionSlot = %d, wanted 5", slot)
	}

	distance, err := InclusionDistance(state, target)
	if err != nil {
		t.Fatalf("InclusionDistance returned error: %v", err)
	}
	if distance != 5 {
		t.Errorf("InclusionDistance = %d, wanted 5", distance)
	}

	if _, err := InclusionSlot(state, target+uint64(len(registry))); err == nil {
		t.Error("InclusionSlot did not return an error for a validator index outside the registry")
	}
}

func TestSinceFinality(t *testing.T) {
	setupOperationsTestConfig()
	defer params.UseMainnetConfig()

	cfg := params.BeaconConfig()
	state := &pb.BeaconState{Slot: 5 * cfg.SlotsPerEpoch, FinalizedEpoch: 2}
	if got := SinceFinality(state); got != 3 {
		t.Errorf("SinceFinality() = %d, wanted 3", got)
	}
}

func TestWinningRoot_PicksHighestAttestingBalance(t *testing.T) {
	setupOperationsTestConfig()
	defer params.UseMainnetConfig()

	cfg := params.BeaconConfig()
	registry := make([]*pb.Validator, 16)
	balances := make([]uint64, 16)
	for i := range registry {
		registry[i] = &pb.Validator{ExitEpoch: cfg.FarFutureEpoch}
		balances[i] = cfg.MaxDepositAmount
	}
	state := &pb.BeaconState{
		Slot:                        cfg.SlotsPerEpoch,
		ValidatorRegistry:           registry,
		ValidatorBalances:           balances,
		CurrentShufflingSeedHash32:  make([]byte, 32),
		PreviousShufflingSeedHash32: make([]byte, 32),
		LatestRandaoMixes:           make([][]byte, cfg.LatestRandaoMixesLength),
		LatestIndexRootHash32S:      make([][]byte, cfg.LatestActiveIndexRootsLength),
	}
	for i := range state.LatestRandaoMixes {
		state.LatestRandaoMixes[i] = make([]byte, 32)
	}
	for i := range state.LatestIndexRootHash32S {
		state.LatestIndexRootHash32S[i] = make([]byte, 32)
	}

	committees, err := helpers.CrosslinkCommitteesAtSlot(state, 0)
	if err != nil {
		t.Fatalf("CrosslinkCommitteesAtSlot returned error: %v", err)
	}
	committee := committees[0]
	if len(committee.Committee) < 2 {
		t.Fatalf("test committee too small to exercise a two-way vote split: %d", len(committee.Committee))
	}

	weakRoot := []byte{0x01}
	strongRoot := []byte{0x02}

	weakBitfield := make([]byte, (len(committee.Committee)+7)/8)
	weakBitfield[0] = 1 // only the first committee member votes for weakRoot

	attestations := []*pb.PendingAttestation{
		{
			Data:                &pb.AttestationData{Shard: committee.Shard, ShardBlockRootHash32: weakRoot},
			AggregationBitfield: weakBitfield,
		},
		{
			Data:                &pb.AttestationData{Shard: committee.Shard, ShardBlockRootHash32: strongRoot},
			AggregationBitfield: fullBitfield(len(committee.Committee)),
		},
	}

	root, err := winningRoot(state, committee.Shard, attestations, nil)
	if err != nil {
		t.Fatalf("winningRoot returned error: %v", err)
	}
	if string(root) != string(strongRoot) {
		t.Errorf("winningRoot = %#x, wanted the higher-balance root %#x", root, strongRoot)
	}
}
