package helpers

import (
	"testing"

	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/params"
)

func TestSlotToEpoch(t *testing.T) {
	tests := []struct {
		slot  uint64
		epoch uint64
	}{
		{slot: 0, epoch: 0},
		{slot: 50, epoch: 0},
		{slot: 64, epoch: 1},
		{slot: 128, epoch: 2},
		{slot: 200, epoch: 3},
	}
	for _, tt := range tests {
		if tt.epoch != SlotToEpoch(tt.slot) {
			t.Errorf("SlotToEpoch(%d) = %d, wanted: %d", tt.slot, SlotToEpoch(tt.slot), tt.epoch)
		}
	}
}

func TestCurrentEpoch(t *testing.T) {
	tests := []struct {
		slot  uint64
		epoch uint64
	}{
		{slot: 0, epoch: 0},
		{slot: 64, epoch: 1},
		{slot: 200, epoch: 3},
	}
	for _, tt := range tests {
		state := &pb.BeaconState{Slot: tt.slot}
		if tt.epoch != CurrentEpoch(state) {
			t.Errorf("CurrentEpoch(%d) = %d, wanted: %d", state.Slot, CurrentEpoch(state), tt.epoch)
		}
	}
}

func TestPrevEpoch(t *testing.T) {
	genesisSlot := params.BeaconConfig().GenesisSlot
	tests := []struct {
		slot  uint64
		epoch uint64
	}{
		{slot: genesisSlot, epoch: genesisSlot / params.BeaconConfig().SlotsPerEpoch},
		{slot: genesisSlot + 64, epoch: (genesisSlot+64)/params.BeaconConfig().SlotsPerEpoch - 1},
		{slot: genesisSlot + 200, epoch: (genesisSlot+200)/params.BeaconConfig().SlotsPerEpoch - 1},
	}
	for _, tt := range tests {
		state := &pb.BeaconState{Slot: tt.slot}
		if tt.epoch != PrevEpoch(state) {
			t.Errorf("PrevEpoch(%d) = %d, wanted: %d", state.Slot, PrevEpoch(state), tt.epoch)
		}
	}
}

func TestNextEpoch(t *testing.T) {
	tests := []struct {
		slot  uint64
		epoch uint64
	}{
		{slot: 0, epoch: 1},
		{slot: 64, epoch: 2},
		{slot: 200, epoch: 4},
	}
	for _, tt := range tests {
		state := &pb.BeaconState{Slot: tt.slot}
		if tt.epoch != NextEpoch(state) {
			t.Errorf("NextEpoch(%d) = %d, wanted: %d", state.Slot, NextEpoch(state), tt.epoch)
		}
	}
}

func TestStartSlot(t *testing.T) {
	tests := []struct {
		epoch     uint64
		startSlot uint64
	}{
		{epoch: 0, startSlot: 0},
		{epoch: 1, startSlot: 64},
		{epoch: 10, startSlot: 640},
	}
	for _, tt := range tests {
		if tt.startSlot != StartSlot(tt.epoch) {
			t.Errorf("StartSlot(%d) = %d, wanted: %d", tt.epoch, StartSlot(tt.epoch), tt.startSlot)
		}
	}
}

func TestIsEpochStartAndEnd(t *testing.T) {
	slotsPerEpoch := params.BeaconConfig().SlotsPerEpoch
	if !IsEpochStart(0) {
		t.Error("IsEpochStart(0) = false, wanted true")
	}
	if IsEpochStart(1) {
		t.Error("IsEpochStart(1) = true, wanted false")
	}
	if !IsEpochEnd(slotsPerEpoch - 1) {
		t.Errorf("IsEpochEnd(%d) = false, wanted true", slotsPerEpoch-1)
	}
	if IsEpochEnd(0) {
		t.Error("IsEpochEnd(0) = true, wanted false")
	}
}
