package state

import (
	"fmt"

	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/prysmaticlabs/go-ssz"
)

// HashTreeRoot returns the SSZ hash tree root of the beacon state, the
// value a block would carry as its state root after this epoch
// transition completes.
func HashTreeRoot(state *pb.BeaconState) ([32]byte, error) {
	root, err := ssz.HashTreeRoot(state)
	if err != nil {
		return [32]byte{}, fmt.Errorf("could not compute state hash tree root: %v", err)
	}
	return root, nil
}
