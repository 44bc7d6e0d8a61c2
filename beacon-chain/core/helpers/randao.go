package helpers

import (
	"fmt"

	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/hashutil"
	"github.com/ethprotocol/beacon-epoch/shared/params"
)

// RandaoMix returns the randao mix at the given epoch, read from the
// state's ring buffer of the last LATEST_RANDAO_MIXES_LENGTH mixes.
//
// Spec pseudocode definition:
//  def get_randao_mix(state: BeaconState, epoch: Epoch) -> Bytes32:
//    return state.latest_randao_mixes[epoch % LATEST_RANDAO_MIXES_LENGTH]
func RandaoMix(state *pb.BeaconState, epoch uint64) [32]byte {
	length := params.BeaconConfig().LatestRandaoMixesLength
	var mix [32]byte
	copy(mix[:], state.LatestRandaoMixes[epoch%length])
	return mix
}

// GenerateSeed computes the randomness seed for the given epoch by mixing
// the randao mix from MIN_SEED_LOOKAHEAD epochs prior with the epoch's
// active index root.
//
// Spec pseudocode definition:
//  def generate_seed(state: BeaconState, epoch: Epoch) -> Bytes32:
//    return hash(
//        get_randao_mix(state, epoch - MIN_SEED_LOOKAHEAD) +
//        get_active_index_root(state, epoch) +
//        int_to_bytes8(epoch)  # little-endian
//    )
func GenerateSeed(state *pb.BeaconState, epoch uint64) ([32]byte, error) {
	cfg := params.BeaconConfig()
	if epoch < cfg.MinSeedLookahead {
		return [32]byte{}, fmt.Errorf("epoch %d too low to subtract min seed lookahead", epoch)
	}
	mix := RandaoMix(state, epoch-cfg.MinSeedLookahead)
	root, err := ActiveIndexRoot(state, epoch)
	if err != nil {
		return [32]byte{}, err
	}

	buf := make([]byte, 0, 32+32+8)
	buf = append(buf, mix[:]...)
	buf = append(buf, root[:]...)
	buf = append(buf, epochToBytes(epoch)...)
	return hashutil.Hash(buf), nil
}

// ActiveIndexRoot returns the active-validator-index merkle root recorded
// for the given epoch in the state's ring buffer.
//
// Spec pseudocode definition:
//  def get_active_index_root(state: BeaconState, epoch: Epoch) -> Bytes32:
//    return state.latest_index_roots[epoch % LATEST_ACTIVE_INDEX_ROOTS_LENGTH]
func ActiveIndexRoot(state *pb.BeaconState, epoch uint64) ([32]byte, error) {
	length := params.BeaconConfig().LatestActiveIndexRootsLength
	idx := epoch % length
	if idx >= uint64(len(state.LatestIndexRootHash32S)) {
		return [32]byte{}, fmt.Errorf("epoch %d out of active index root bounds", epoch)
	}
	var root [32]byte
	copy(root[:], state.LatestIndexRootHash32S[idx])
	return root, nil
}

func epochToBytes(epoch uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(epoch >> (8 * uint(i)))
	}
	return b
}
