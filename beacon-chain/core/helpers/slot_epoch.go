// Package helpers contains the slot/epoch arithmetic, committee,
// proposer, randao and seed helpers the epoch-transition core consumes as
// external collaborators (spec.md section 6).
package helpers

import (
	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/params"
)

// SlotToEpoch returns the epoch number of the input slot.
//
// Spec pseudocode definition:
//  def slot_to_epoch(slot: Slot) -> Epoch:
//    return slot // SLOTS_PER_EPOCH
func SlotToEpoch(slot uint64) uint64 {
	return slot / params.BeaconConfig().SlotsPerEpoch
}

// CurrentEpoch returns the current epoch number calculated from the slot
// number stored in the beacon state.
func CurrentEpoch(state *pb.BeaconState) uint64 {
	return SlotToEpoch(state.Slot)
}

// PrevEpoch returns the previous epoch number calculated from the slot
// number stored in the beacon state, clamped at the genesis epoch.
func PrevEpoch(state *pb.BeaconState) uint64 {
	current := CurrentEpoch(state)
	genesis := params.BeaconConfig().GenesisSlot / params.BeaconConfig().SlotsPerEpoch
	if current > genesis {
		return current - 1
	}
	return current
}

// NextEpoch returns the next epoch number calculated from the slot number
// stored in the beacon state.
func NextEpoch(state *pb.BeaconState) uint64 {
	return CurrentEpoch(state) + 1
}

// StartSlot returns the first slot number of the given epoch.
//
// Spec pseudocode definition:
//  def get_epoch_start_slot(epoch: Epoch) -> Slot:
//    return epoch * SLOTS_PER_EPOCH
func StartSlot(epoch uint64) uint64 {
	return epoch * params.BeaconConfig().SlotsPerEpoch
}

// IsEpochStart returns true if the given slot number is an epoch's first slot.
func IsEpochStart(slot uint64) bool {
	return slot%params.BeaconConfig().SlotsPerEpoch == 0
}

// IsEpochEnd returns true if the given slot number is an epoch's last slot.
func IsEpochEnd(slot uint64) bool {
	return IsEpochStart(slot + 1)
}
