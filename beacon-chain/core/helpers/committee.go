package helpers

import (
	"fmt"

	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/beacon-chain/core/validators"
	"github.com/ethprotocol/beacon-epoch/shared/hashutil"
	"github.com/ethprotocol/beacon-epoch/shared/mathutil"
	"github.com/ethprotocol/beacon-epoch/shared/params"
)

// CrosslinkCommittee pairs a shard with the validator indices assigned to
// attest to it for a given slot.
type CrosslinkCommittee struct {
	Committee []uint64
	Shard     uint64
}

// EpochCommitteeCount returns the number of crosslink committees for an
// epoch given the number of active validators, clamped to
// [1, SHARD_COUNT // SLOTS_PER_EPOCH] committees per slot.
//
// Spec pseudocode definition:
//  def get_epoch_committee_count(active_validator_count: int) -> int:
//    return max(1, min(
//        SHARD_COUNT // SLOTS_PER_EPOCH,
//        active_validator_count // SLOTS_PER_EPOCH // TARGET_COMMITTEE_SIZE,
//    )) * SLOTS_PER_EPOCH
func EpochCommitteeCount(activeValidatorCount uint64) uint64 {
	cfg := params.BeaconConfig()
	minCommitteesPerSlot := uint64(1)
	maxCommitteesPerSlot := cfg.ShardCount / cfg.SlotsPerEpoch
	committeesPerSlot := activeValidatorCount / cfg.SlotsPerEpoch / cfg.TargetCommitteeSize
	if committeesPerSlot > maxCommitteesPerSlot {
		committeesPerSlot = maxCommitteesPerSlot
	}
	if committeesPerSlot < minCommitteesPerSlot {
		committeesPerSlot = minCommitteesPerSlot
	}
	return committeesPerSlot * cfg.SlotsPerEpoch
}

// CurrentEpochCommitteeCount returns the total number of crosslink
// committees across the current epoch. Note this is already the
// epoch-wide total (not a per-slot figure) per spec.md section 4.8's
// "for i in range(current_epoch_committee_count)" usage; callers must not
// multiply by SLOTS_PER_EPOCH again.
func CurrentEpochCommitteeCount(state *pb.BeaconState) uint64 {
	activeIndices := validators.ActiveValidatorIndices(state.ValidatorRegistry, CurrentEpoch(state))
	return EpochCommitteeCount(uint64(len(activeIndices)))
}

// PrevEpochCommitteeCount mirrors CurrentEpochCommitteeCount for the
// previous epoch's active set.
func PrevEpochCommitteeCount(state *pb.BeaconState) uint64 {
	activeIndices := validators.ActiveValidatorIndices(state.ValidatorRegistry, PrevEpoch(state))
	return EpochCommitteeCount(uint64(len(activeIndices)))
}

// shuffleIndices is the deterministic, non-production stand-in for the
// real shuffling algorithm spec.md section 6 names as an external
// collaborator. It partitions indices pseudo-randomly using the supplied
// seed so that committee membership varies across epochs without pulling
// in a production shuffle implementation, which is explicitly out of
// scope (spec.md section 1).
func shuffleIndices(indices []uint64, seed [32]byte) []uint64 {
	shuffled := make([]uint64, len(indices))
	copy(shuffled, indices)
	n := len(shuffled)
	if n < 2 {
		return shuffled
	}
	for i := n - 1; i > 0; i-- {
		source := append([]byte{}, seed[:]...)
		source = append(source, byte(i), byte(i>>8), byte(i>>16), byte(i>>24))
		h := hashutil.Hash(source)
		j := int(mathutil.MulDiv(uint64(h[0])|uint64(h[1])<<8|uint64(h[2])<<16|uint64(h[3])<<24, uint64(i+1), 1<<32))
		if j > i {
			j = i
		}
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// crosslinkCommitteesAtEpoch partitions the active validator set for the
// requested epoch into CurrentEpochCommitteeCount (or PrevEpochCommitteeCount)
// committees, one per (slot, shard) pair, shuffled by the epoch's seed.
func crosslinkCommitteesAtEpoch(state *pb.BeaconState, epoch uint64) ([]CrosslinkCommittee, error) {
	cfg := params.BeaconConfig()
	current := CurrentEpoch(state)
	var activeIndices []uint64
	var committeesPerEpoch uint64
	var startShard uint64
	var seed [32]byte
	var err error

	switch epoch {
	case current:
		activeIndices = validators.ActiveValidatorIndices(state.ValidatorRegistry, current)
		committeesPerEpoch = EpochCommitteeCount(uint64(len(activeIndices)))
		startShard = state.CurrentShufflingStartShard
		seed, err = GenerateSeed(state, epoch)
	case PrevEpoch(state):
		activeIndices = validators.ActiveValidatorIndices(state.ValidatorRegistry, epoch)
		committeesPerEpoch = EpochCommitteeCount(uint64(len(activeIndices)))
		startShard = state.PreviousShufflingStartShard
		seed, err = RandaoMix(state, epoch), error(nil)
	default:
		return nil, fmt.Errorf("epoch %d out of bounds for crosslink committee computation", epoch)
	}
	if err != nil {
		return nil, err
	}

	shuffled := shuffleIndices(activeIndices, seed)
	committeesPerSlot := committeesPerEpoch / cfg.SlotsPerEpoch
	if committeesPerSlot == 0 {
		committeesPerSlot = 1
	}

	committees := make([]CrosslinkCommittee, 0, committeesPerEpoch)
	if len(shuffled) == 0 {
		return committees, nil
	}
	chunk := len(shuffled) / int(committeesPerEpoch)
	if chunk == 0 {
		chunk = 1
	}
	for i := uint64(0); i < committeesPerEpoch; i++ {
		lo := int(i) * chunk
		hi := lo + chunk
		if i == committeesPerEpoch-1 || hi > len(shuffled) {
			hi = len(shuffled)
		}
		if lo >= len(shuffled) {
			lo, hi = len(shuffled), len(shuffled)
		}
		committees = append(committees, CrosslinkCommittee{
			Committee: shuffled[lo:hi],
			Shard:     (startShard + i) % cfg.ShardCount,
		})
	}
	return committees, nil
}

// CrosslinkCommitteesAtSlot returns the crosslink committees assigned to
// attest during the given slot.
//
// Spec pseudocode definition:
//  def get_crosslink_committees_at_slot(state: BeaconState, slot: Slot) -> List[Tuple[List[ValidatorIndex], Shard]]:
//    epoch = slot_to_epoch(slot)
//    ...
func CrosslinkCommitteesAtSlot(state *pb.BeaconState, slot uint64) ([]CrosslinkCommittee, error) {
	cfg := params.BeaconConfig()
	epoch := SlotToEpoch(slot)
	all, err := crosslinkCommitteesAtEpoch(state, epoch)
	if err != nil {
		return nil, err
	}
	committeesPerSlot := uint64(len(all)) / cfg.SlotsPerEpoch
	if committeesPerSlot == 0 {
		committeesPerSlot = 1
	}
	offset := slot % cfg.SlotsPerEpoch
	lo := offset * committeesPerSlot
	hi := lo + committeesPerSlot
	if lo >= uint64(len(all)) {
		return []CrosslinkCommittee{}, nil
	}
	if hi > uint64(len(all)) {
		hi = uint64(len(all))
	}
	return all[lo:hi], nil
}

// AttestationParticipants returns the validator indices within the
// attestation's assigned committee that the aggregation bitfield marks as
// participating.
//
// Spec pseudocode definition:
//  def get_attestation_participants(state, attestation_data, bitfield) -> List[ValidatorIndex]:
//    crosslink_committees = get_crosslink_committees_at_slot(state, attestation_data.slot)
//    crosslink_committee = [committee for committee, shard in crosslink_committees if shard == attestation_data.shard][0]
//    ...
func AttestationParticipants(state *pb.BeaconState, data *pb.AttestationData, bitfield []byte) ([]uint64, error) {
	committees, err := CrosslinkCommitteesAtSlot(state, data.Slot)
	if err != nil {
		return nil, err
	}
	var committee []uint64
	found := false
	for _, c := range committees {
		if c.Shard == data.Shard {
			committee = c.Committee
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("no committee found for shard %d at slot %d", data.Shard, data.Slot)
	}

	participants := make([]uint64, 0, len(committee))
	for i, idx := range committee {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if byteIdx >= len(bitfield) {
			continue
		}
		if bitfield[byteIdx]&(1<<bitIdx) != 0 {
			participants = append(participants, idx)
		}
	}
	return participants, nil
}

// BeaconProposerIndex returns the index of the beacon proposer for the
// given slot: the member of the slot's first crosslink committee at
// position slot modulo the committee size.
//
// Spec pseudocode definition:
//  def get_beacon_proposer_index(state: BeaconState, slot: Slot) -> ValidatorIndex:
//    first_committee = get_crosslink_committees_at_slot(state, slot)[0][0]
//    return first_committee[slot % len(first_committee)]
func BeaconProposerIndex(state *pb.BeaconState, slot uint64) (uint64, error) {
	committees, err := CrosslinkCommitteesAtSlot(state, slot)
	if err != nil {
		return 0, err
	}
	if len(committees) == 0 || len(committees[0].Committee) == 0 {
		return 0, fmt.Errorf("no committee available to select proposer for slot %d", slot)
	}
	first := committees[0].Committee
	return first[slot%uint64(len(first))], nil
}
