package validators

import (
	"testing"

	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/params"
)

func TestIsActiveValidator(t *testing.T) {
	tests := []struct {
		activationEpoch uint64
		exitEpoch       uint64
		epoch           uint64
		active          bool
	}{
		{activationEpoch: 0, exitEpoch: 10, epoch: 5, active: true},
		{activationEpoch: 5, exitEpoch: 10, epoch: 5, active: true},
		{activationEpoch: 0, exitEpoch: 10, epoch: 10, active: false},
		{activationEpoch: 10, exitEpoch: 20, epoch: 5, active: false},
	}
	for _, tt := range tests {
		v := &pb.Validator{ActivationEpoch: tt.activationEpoch, ExitEpoch: tt.exitEpoch}
		if IsActiveValidator(v, tt.epoch) != tt.active {
			t.Errorf("IsActiveValidator(%v, %d) = %v, wanted: %v", v, tt.epoch, IsActiveValidator(v, tt.epoch), tt.active)
		}
	}
}

func TestActiveValidatorIndices(t *testing.T) {
	registry := []*pb.Validator{
		{ActivationEpoch: 0, ExitEpoch: 10},
		{ActivationEpoch: 5, ExitEpoch: 10},
		{ActivationEpoch: 10, ExitEpoch: 20},
	}
	indices := ActiveValidatorIndices(registry, 5)
	want := []uint64{0, 1}
	if len(indices) != len(want) {
		t.Fatalf("ActiveValidatorIndices returned %d indices, wanted %d", len(indices), len(want))
	}
	for i, idx := range indices {
		if idx != want[i] {
			t.Errorf("ActiveValidatorIndices()[%d] = %d, wanted %d", i, idx, want[i])
		}
	}
}

func TestEffectiveBalance(t *testing.T) {
	state := &pb.BeaconState{
		ValidatorBalances: []uint64{
			params.BeaconConfig().MaxDepositAmount - 1,
			params.BeaconConfig().MaxDepositAmount + 1,
		},
	}
	if EffectiveBalance(state, 0) != params.BeaconConfig().MaxDepositAmount-1 {
		t.Errorf("EffectiveBalance(0) = %d, wanted %d", EffectiveBalance(state, 0), params.BeaconConfig().MaxDepositAmount-1)
	}
	if EffectiveBalance(state, 1) != params.BeaconConfig().MaxDepositAmount {
		t.Errorf("EffectiveBalance(1) = %d, wanted %d", EffectiveBalance(state, 1), params.BeaconConfig().MaxDepositAmount)
	}
}

func TestExitValidator(t *testing.T) {
	state := &pb.BeaconState{
		Slot: params.BeaconConfig().GenesisSlot,
		ValidatorRegistry: []*pb.Validator{
			{ExitEpoch: params.BeaconConfig().FarFutureEpoch},
		},
	}
	state = ExitValidator(state, 0)
	if state.ValidatorRegistry[0].ExitEpoch == params.BeaconConfig().FarFutureEpoch {
		t.Error("ExitValidator did not set an exit epoch")
	}

	exitEpochBefore := state.ValidatorRegistry[0].ExitEpoch
	state = ExitValidator(state, 0)
	if state.ValidatorRegistry[0].ExitEpoch != exitEpochBefore {
		t.Error("ExitValidator mutated the exit epoch of an already-exiting validator")
	}
}
