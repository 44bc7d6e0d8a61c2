package helpers

import (
	"fmt"

	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/params"
)

// BlockRoot returns the block root recorded at the given slot from the
// state's ring buffer of the last LATEST_BLOCK_ROOTS_LENGTH roots.
//
// Spec pseudocode definition:
//  def get_block_root(state: BeaconState, slot: Slot) -> Bytes32:
//    assert state.slot <= slot + LATEST_BLOCK_ROOTS_LENGTH
//    assert slot < state.slot
//    return state.latest_block_roots[slot % LATEST_BLOCK_ROOTS_LENGTH]
func BlockRoot(state *pb.BeaconState, slot uint64) ([32]byte, error) {
	length := params.BeaconConfig().LatestBlockRootsLength
	if state.Slot > slot+length {
		return [32]byte{}, fmt.Errorf("slot %d out of bounds for block root lookup at state slot %d", slot, state.Slot)
	}
	if slot >= state.Slot {
		return [32]byte{}, fmt.Errorf("slot %d must be strictly less than state slot %d", slot, state.Slot)
	}
	var root [32]byte
	copy(root[:], state.LatestBlockRootHash32S[slot%length])
	return root, nil
}

// EpochStartShard returns the shard assigned to the first crosslink
// committee of the given epoch. The epoch transition in this repository
// does not call it; ProcessCurrSlotShardSeed advances the start shard
// from the committee count instead.
func EpochStartShard(state *pb.BeaconState, epoch uint64) (uint64, error) {
	committees, err := crosslinkCommitteesAtEpoch(state, epoch)
	if err != nil {
		return 0, err
	}
	if len(committees) == 0 {
		return 0, fmt.Errorf("no committees available for epoch %d", epoch)
	}
	return committees[0].Shard, nil
}
