package epoch

import (
	"context"
	"fmt"

	"github.com/ethprotocol/beacon-epoch/beacon-chain/core/helpers"
	"github.com/ethprotocol/beacon-epoch/beacon-chain/core/validators"
	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	b "github.com/ethprotocol/beacon-epoch/shared/bytesutil"
	"github.com/ethprotocol/beacon-epoch/shared/hashutil"
	"github.com/ethprotocol/beacon-epoch/shared/mathutil"
	"github.com/ethprotocol/beacon-epoch/shared/params"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "core/epoch")

// CanProcessEpoch checks the eligibility to process an epoch. The epoch
// transition runs at the end of the last slot of every epoch.
//
// Spec pseudocode definition:
//    If (state.slot + 1) % SLOTS_PER_EPOCH == 0:
func CanProcessEpoch(state *pb.BeaconState) bool {
	return (state.Slot+1)%params.BeaconConfig().SlotsPerEpoch == 0
}

// CanProcessEth1Data checks the eligibility to process the eth1 data vote
// tally. Eth1 data rolls over every EPOCHS_PER_ETH1_VOTING_PERIOD.
//
// Spec pseudocode definition:
//    If next_epoch % EPOCHS_PER_ETH1_VOTING_PERIOD == 0
func CanProcessEth1Data(state *pb.BeaconState) bool {
	return helpers.NextEpoch(state)%params.BeaconConfig().EpochsPerEth1VotingPeriod == 0
}

// CanProcessValidatorRegistry checks the eligibility to process the
// validator registry and shuffling seed rotation.
//
// Spec pseudocode definition:
//    If the following are satisfied:
//		* state.finalized_epoch > state.validator_registry_update_epoch
//		* state.latest_crosslinks[shard].epoch > state.validator_registry_update_epoch
// 			for every shard number shard in [(state.current_shuffling_start_shard + i) %
//	 			SHARD_COUNT for i in range(get_current_epoch_committee_count(state))]
//	 			(that is, for every shard in the current committees)
func CanProcessValidatorRegistry(ctx context.Context, state *pb.BeaconState) bool {
	_, span := trace.StartSpan(ctx, "beacon-chain.epoch.CanProcessValidatorRegistry")
	defer span.End()

	if state.FinalizedEpoch <= state.ValidatorRegistryUpdateEpoch {
		return false
	}
	// CurrentEpochCommitteeCount already returns the epoch-wide committee
	// total (see its doc comment); the shard range below covers it
	// directly without multiplying by SLOTS_PER_EPOCH again.
	shardsProcessed := helpers.CurrentEpochCommitteeCount(state)
	startShard := state.CurrentShufflingStartShard
	for i := startShard; i < startShard+shardsProcessed; i++ {
		if state.LatestCrosslinks[i%params.BeaconConfig().ShardCount].Epoch <= state.ValidatorRegistryUpdateEpoch {
			return false
		}
	}
	return true
}

// ProcessEth1Data processes eth1 block deposit-root votes by checking
// their vote count. With a supermajority of votes (more than half the
// votes cast during the voting period), it marks the voted Eth1 data as
// the canonical latest data and resets the vote tally.
//
// Official spec definition:
//     if eth1_data_vote.vote_count * 2 > EPOCHS_PER_ETH1_VOTING_PERIOD * SLOTS_PER_EPOCH for
//       some eth1_data_vote in state.eth1_data_votes.
//       (ie. more than half the votes in this voting period were for that value)
//       Set state.latest_eth1_data = eth1_data_vote.eth1_data.
//		 Set state.eth1_data_votes = [].
func ProcessEth1Data(ctx context.Context, state *pb.BeaconState) *pb.BeaconState {
	_, span := trace.StartSpan(ctx, "beacon-chain.epoch.ProcessEth1Data")
	defer span.End()

	for _, vote := range state.Eth1DataVotes {
		if vote.VoteCount*2 > params.BeaconConfig().SlotsPerEpoch*params.BeaconConfig().EpochsPerEth1VotingPeriod {
			state.LatestEth1Data = vote.Eth1Data
		}
	}
	state.Eth1DataVotes = make([]*pb.Eth1DataVote, 0)
	return state
}

// ProcessJustification processes justification and finalization by
// comparing epoch boundary attesting balances against total balances.
//   First, update the justification bitfield:
//     Let new_justified_epoch = state.justified_epoch.
//     Set state.justification_bitfield = state.justification_bitfield << 1.
//     Set state.justification_bitfield |= 2 and new_justified_epoch = previous_epoch if
//       3 * previous_epoch_boundary_attesting_balance >= 2 * previous_total_balance.
//     Set state.justification_bitfield |= 1 and new_justified_epoch = current_epoch if
//       3 * current_epoch_boundary_attesting_balance >= 2 * current_total_balance.
//   Next, update last finalized epoch if possible:
//     Set state.finalized_epoch = state.previous_justified_epoch if (state.justification_bitfield >> 1) % 8
//       == 0b111 and state.previous_justified_epoch == previous_epoch - 2.
//     Set state.finalized_epoch = state.previous_justified_epoch if (state.justification_bitfield >> 1) % 4
//       == 0b11 and state.previous_justified_epoch == previous_epoch - 1.
//     Set state.finalized_epoch = state.justified_epoch if (state.justification_bitfield >> 0) % 8
//       == 0b111 and state.justified_epoch == previous_epoch - 1.
//     Set state.finalized_epoch = state.justified_epoch if (state.justification_bitfield >> 0) % 4
//       == 0b11 and state.justified_epoch == previous_epoch.
//   Finally, update the following:
//     Set state.previous_justified_epoch = state.justified_epoch.
//     Set state.justified_epoch = new_justified_epoch
func ProcessJustification(
	ctx context.Context,
	state *pb.BeaconState,
	thisEpochBoundaryAttestingBalance uint64,
	prevEpochBoundaryAttestingBalance uint64,
	prevTotalBalance uint64,
	totalBalance uint64) *pb.BeaconState {

	_, span := trace.StartSpan(ctx, "beacon-chain.epoch.ProcessJustification")
	defer span.End()

	newJustifiedEpoch := state.JustifiedEpoch
	prevEpoch := helpers.PrevEpoch(state)
	currentEpoch := helpers.CurrentEpoch(state)
	// Shift all the bits over one to make room for the new epoch's bit.
	state.JustificationBitfield = state.JustificationBitfield << 1

	log.Infof("Previous epoch boundary attesting balance: %d / %d", prevEpochBoundaryAttestingBalance, prevTotalBalance)
	if 3*prevEpochBoundaryAttestingBalance >= 2*prevTotalBalance {
		state.JustificationBitfield |= 2
		newJustifiedEpoch = prevEpoch
		log.Infof("Previous epoch %d was justified", newJustifiedEpoch)
	}
	log.Infof("Current epoch boundary attesting balance: %d / %d", thisEpochBoundaryAttestingBalance, totalBalance)
	if 3*thisEpochBoundaryAttestingBalance >= 2*totalBalance {
		state.JustificationBitfield |= 1
		newJustifiedEpoch = currentEpoch
		log.Infof("Current epoch %d was justified", newJustifiedEpoch)
	}

	// Rule 1: the previous epoch and the two epochs before it are all
	// justified (bits 1-3 are 111; the current epoch's bit is not
	// consulted), and the source epoch is two epochs before the previous
	// epoch.
	if state.PreviousJustifiedEpoch == prevEpoch-2 && (state.JustificationBitfield>>1)%8 == 7 {
		state.FinalizedEpoch = state.PreviousJustifiedEpoch
		log.Infof("New finalized epoch: %d", state.FinalizedEpoch)
	}
	// Rule 2: the source and target of the last two epochs are justified
	// (11), and the source epoch is exactly one epoch behind.
	if state.PreviousJustifiedEpoch == prevEpoch-1 && (state.JustificationBitfield>>1)%4 == 3 {
		state.FinalizedEpoch = state.PreviousJustifiedEpoch
		log.Infof("New finalized epoch: %d", state.FinalizedEpoch)
	}
	// Rule 3: the source one epoch back, target current epoch are
	// justified (111), and the source epoch is exactly one epoch behind.
	if state.JustifiedEpoch == prevEpoch-1 && (state.JustificationBitfield>>0)%8 == 7 {
		state.FinalizedEpoch = state.JustifiedEpoch
		log.Infof("New finalized epoch: %d", state.FinalizedEpoch)
	}
	// Rule 4: the source and target of the current and previous epoch are
	// justified (11), and the source epoch is the previous epoch.
	if state.JustifiedEpoch == prevEpoch && (state.JustificationBitfield>>0)%4 == 3 {
		state.FinalizedEpoch = state.JustifiedEpoch
		log.Infof("New finalized epoch: %d", state.FinalizedEpoch)
	}

	state.PreviousJustifiedEpoch = state.JustifiedEpoch
	state.JustifiedEpoch = newJustifiedEpoch
	return state
}

// ProcessCrosslinks goes through every crosslink committee in the
// previous and current epochs and, where the attesting balance clears a
// two-thirds supermajority of the committee's total balance, updates the
// shard's crosslink to the winning root.
//
// Spec pseudocode definition:
//	For every slot in range(get_epoch_start_slot(previous_epoch), get_epoch_start_slot(next_epoch)),
// 	let `crosslink_committees_at_slot = get_crosslink_committees_at_slot(state, slot)`.
// 		For every `(crosslink_committee, shard)` in `crosslink_committees_at_slot`, compute:
// 			Set state.latest_crosslinks[shard] = Crosslink(
// 			epoch=current_epoch, crosslink_data_root=winning_root(crosslink_committee))
// 			if 3 * total_attesting_balance(crosslink_committee) >= 2 * total_balance(crosslink_committee)
func ProcessCrosslinks(
	ctx context.Context,
	state *pb.BeaconState,
	thisEpochAttestations []*pb.PendingAttestation,
	prevEpochAttestations []*pb.PendingAttestation) (*pb.BeaconState, error) {

	_, span := trace.StartSpan(ctx, "beacon-chain.epoch.ProcessCrosslinks")
	defer span.End()

	prevEpoch := helpers.PrevEpoch(state)
	currentEpoch := helpers.CurrentEpoch(state)
	nextEpoch := helpers.NextEpoch(state)
	startSlot := helpers.StartSlot(prevEpoch)
	endSlot := helpers.StartSlot(nextEpoch)

	for slot := startSlot; slot < endSlot; slot++ {
		crosslinkCommittees, err := helpers.CrosslinkCommitteesAtSlot(state, slot)
		if err != nil {
			return nil, fmt.Errorf("could not get committees for slot %d: %v", slot, err)
		}
		for _, committee := range crosslinkCommittees {
			shard := committee.Shard
			attestingBalance, err := TotalAttestingBalance(state, shard, thisEpochAttestations, prevEpochAttestations)
			if err != nil {
				return nil, fmt.Errorf("could not get attesting balance for shard %d: %v", shard, err)
			}
			totalBalance := TotalBalance(state, committee.Committee)
			if totalBalance > 0 && attestingBalance*3 >= totalBalance*2 {
				root, err := winningRoot(state, shard, thisEpochAttestations, prevEpochAttestations)
				if err != nil {
					return nil, fmt.Errorf("could not get winning root: %v", err)
				}
				state.LatestCrosslinks[shard] = &pb.Crosslink{
					Epoch:                   currentEpoch,
					CrosslinkDataRootHash32: root,
				}
			}
		}
	}
	return state, nil
}

// ProcessEjections iterates through every active validator and ejects
// those whose balance has dropped below EJECTION_BALANCE.
//
// Spec pseudocode definition:
//	def process_ejections(state: BeaconState) -> None:
//    for index in get_active_validator_indices(state.validator_registry, current_epoch(state)):
//        if state.validator_balances[index] < EJECTION_BALANCE:
//            exit_validator(state, index)
func ProcessEjections(ctx context.Context, state *pb.BeaconState) *pb.BeaconState {
	_, span := trace.StartSpan(ctx, "beacon-chain.epoch.ProcessEjections")
	defer span.End()

	activeValidatorIndices := validators.ActiveValidatorIndices(state.ValidatorRegistry, helpers.CurrentEpoch(state))
	for _, index := range activeValidatorIndices {
		if state.ValidatorBalances[index] < params.BeaconConfig().EjectionBalance {
			log.Infof("Validator at index %d ejected", index)
			state = validators.ExitValidator(state, index)
		}
	}
	return state
}

// ProcessPrevSlotShardSeed rotates the current shuffling epoch, start
// shard and seed into the previous shuffling slots, ahead of the current
// slots being recomputed for the next epoch.
//
// Spec pseudocode definition:
//	Set state.previous_shuffling_epoch = state.current_shuffling_epoch
//	Set state.previous_shuffling_start_shard = state.current_shuffling_start_shard
//  Set state.previous_shuffling_seed = state.current_shuffling_seed.
func ProcessPrevSlotShardSeed(state *pb.BeaconState) *pb.BeaconState {
	state.PreviousShufflingEpoch = state.CurrentShufflingEpoch
	state.PreviousShufflingStartShard = state.CurrentShufflingStartShard
	state.PreviousShufflingSeedHash32 = state.CurrentShufflingSeedHash32
	return state
}

// ProcessCurrSlotShardSeed advances the current shuffling start shard and
// regenerates the current shuffling seed for the upcoming epoch.
//   Set state.current_shuffling_start_shard = (state.current_shuffling_start_shard +
//     get_current_epoch_committee_count(state)) % SHARD_COUNT
//   Set state.current_shuffling_epoch = next_epoch
//   Set state.current_shuffling_seed = generate_seed(state, state.current_shuffling_epoch)
func ProcessCurrSlotShardSeed(state *pb.BeaconState) (*pb.BeaconState, error) {
	state.CurrentShufflingStartShard = (state.CurrentShufflingStartShard +
		helpers.CurrentEpochCommitteeCount(state)) % params.BeaconConfig().ShardCount
	state.CurrentShufflingEpoch = helpers.NextEpoch(state)
	seed, err := helpers.GenerateSeed(state, state.CurrentShufflingEpoch)
	if err != nil {
		return nil, fmt.Errorf("could not update current shuffling seed: %v", err)
	}
	state.CurrentShufflingSeedHash32 = seed[:]
	return state, nil
}

// ProcessPartialValidatorRegistry rotates the shuffling seed without a
// full registry update, when enough epochs have elapsed since the last
// change that a reshuffle is due but the registry queue itself has not
// moved. Only called when a full validator registry update did not
// happen this epoch.
//
// Spec pseudocode definition:
//	Let epochs_since_last_registry_update = current_epoch -
//		state.validator_registry_update_epoch
//	If epochs_since_last_registry_update > 1 and
//		is_power_of_two(epochs_since_last_registry_update):
// 			set state.current_shuffling_epoch = next_epoch
// 			set state.current_shuffling_seed = generate_seed(
// 				state, state.current_shuffling_epoch)
func ProcessPartialValidatorRegistry(ctx context.Context, state *pb.BeaconState) (*pb.BeaconState, error) {
	_, span := trace.StartSpan(ctx, "beacon-chain.epoch.ProcessPartialValidatorRegistry")
	defer span.End()

	epochsSinceLastRegistryChange := helpers.CurrentEpoch(state) - state.ValidatorRegistryUpdateEpoch
	if epochsSinceLastRegistryChange > 1 && mathutil.IsPowerOf2(epochsSinceLastRegistryChange) {
		state.CurrentShufflingEpoch = helpers.NextEpoch(state)
		seed, err := helpers.GenerateSeed(state, state.CurrentShufflingEpoch)
		if err != nil {
			return nil, fmt.Errorf("could not generate seed: %v", err)
		}
		state.CurrentShufflingSeedHash32 = seed[:]
	}
	return state, nil
}

// CleanupAttestations removes any attestation whose slot belongs to an
// epoch before the current one. The current epoch's attestations are kept;
// they are the previous epoch's attestations at the next transition.
//
// Spec pseudocode definition:
// 		Remove any attestation in state.latest_attestations such
// 		that slot_to_epoch(att.data.slot) < slot_to_epoch(state.slot)
func CleanupAttestations(ctx context.Context, state *pb.BeaconState) *pb.BeaconState {
	_, span := trace.StartSpan(ctx, "beacon-chain.epoch.CleanupAttestations")
	defer span.End()

	currEpoch := helpers.CurrentEpoch(state)
	var latestAttestations []*pb.PendingAttestation
	for _, attestation := range state.LatestAttestations {
		if helpers.SlotToEpoch(attestation.Data.Slot) >= currEpoch {
			latestAttestations = append(latestAttestations, attestation)
		}
	}
	state.LatestAttestations = latestAttestations
	return state
}

// UpdateLatestActiveIndexRoots updates the ring buffer of active-index
// roots with the hash of the set of validators that will be active
// ACTIVATION_EXIT_DELAY epochs after the next epoch. The indices are
// encoded as 8-byte little-endian values, concatenated, and hashed once
// with hashutil.Hash (a flat hash, not an SSZ tree hash).
//
// Spec pseudocode definition:
// Set state.latest_index_roots[(next_epoch + ACTIVATION_EXIT_DELAY) %
// 	LATEST_ACTIVE_INDEX_ROOTS_LENGTH] =
// 	hash(concat(int_to_bytes8(i) for i in get_active_validator_indices(state,
// 	next_epoch + ACTIVATION_EXIT_DELAY)))
func UpdateLatestActiveIndexRoots(ctx context.Context, state *pb.BeaconState) (*pb.BeaconState, error) {
	_, span := trace.StartSpan(ctx, "beacon-chain.epoch.UpdateLatestActiveIndexRoots")
	defer span.End()

	nextEpoch := helpers.NextEpoch(state) + params.BeaconConfig().ActivationExitDelay
	validatorIndices := validators.ActiveValidatorIndices(state.ValidatorRegistry, nextEpoch)

	indicesBytes := make([]byte, 0, len(validatorIndices)*8)
	for _, val := range validatorIndices {
		indicesBytes = append(indicesBytes, b.ToBytes8(val)...)
	}
	indexRoot := hashutil.Hash(indicesBytes)
	state.LatestIndexRootHash32S[nextEpoch%params.BeaconConfig().LatestActiveIndexRootsLength] = indexRoot[:]
	return state, nil
}

// UpdateLatestSlashedBalances carries the current epoch's slashed-balance
// tally forward into the next epoch's ring buffer slot, so a slashing
// recorded this epoch keeps depressing the total until it ages out.
//
// Spec pseudocode definition:
// Set state.latest_slashed_balances[(next_epoch) % LATEST_SLASHED_EXIT_LENGTH] =
// 	state.latest_slashed_balances[current_epoch % LATEST_SLASHED_EXIT_LENGTH].
func UpdateLatestSlashedBalances(ctx context.Context, state *pb.BeaconState) *pb.BeaconState {
	_, span := trace.StartSpan(ctx, "beacon-chain.epoch.UpdateLatestSlashedBalances")
	defer span.End()

	currentEpoch := helpers.CurrentEpoch(state) % params.BeaconConfig().LatestSlashedExitLength
	nextEpoch := helpers.NextEpoch(state) % params.BeaconConfig().LatestSlashedExitLength
	state.LatestSlashedBalances[nextEpoch] = state.LatestSlashedBalances[currentEpoch]
	return state
}

// UpdateLatestRandaoMixes carries the current epoch's randao mix forward
// into the next epoch's ring buffer slot.
//
// Spec pseudocode definition:
// Set state.latest_randao_mixes[next_epoch % LATEST_RANDAO_MIXES_LENGTH] =
// 	get_randao_mix(state, current_epoch).
func UpdateLatestRandaoMixes(ctx context.Context, state *pb.BeaconState) *pb.BeaconState {
	_, span := trace.StartSpan(ctx, "beacon-chain.epoch.UpdateLatestRandaoMixes")
	defer span.End()

	nextEpoch := helpers.NextEpoch(state) % params.BeaconConfig().LatestRandaoMixesLength
	mix := helpers.RandaoMix(state, helpers.CurrentEpoch(state))
	state.LatestRandaoMixes[nextEpoch] = mix[:]
	return state
}
