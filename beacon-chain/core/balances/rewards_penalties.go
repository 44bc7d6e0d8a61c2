// Package balances implements the validator reward and penalty engine
// applied once per epoch transition: base rewards scaled by FFG source,
// target and head agreement, inclusion-distance rewards for timely
// attesting and proposing, the inactivity leak for validators still
// active during a prolonged non-finality period, and the crosslink
// participation reward/penalty.
package balances

import (
	"context"
	"fmt"

	"github.com/ethprotocol/beacon-epoch/beacon-chain/core/epoch"
	"github.com/ethprotocol/beacon-epoch/beacon-chain/core/helpers"
	"github.com/ethprotocol/beacon-epoch/beacon-chain/core/validators"
	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/mathutil"
	"github.com/ethprotocol/beacon-epoch/shared/params"
	"github.com/ethprotocol/beacon-epoch/shared/sliceutil"
	"go.opencensus.io/trace"
)

// BaseReward returns the base reward quantity for a validator, scaled
// inversely by the square root of the total active balance so that
// per-validator rewards shrink as the validator set grows.
//
// Spec pseudocode definition:
//  def base_reward(state: BeaconState, index: ValidatorIndex) -> Gwei:
//    if total_balance == 0:
//        return 0
//    adjusted_quotient = integer_squareroot(total_balance) // BASE_REWARD_QUOTIENT
//    return get_effective_balance(state, index) // adjusted_quotient // 5
func BaseReward(state *pb.BeaconState, index uint64, totalBalance uint64) uint64 {
	if totalBalance == 0 {
		return 0
	}
	adjustedQuotient := mathutil.IntegerSquareRoot(totalBalance) / params.BeaconConfig().BaseRewardQuotient
	if adjustedQuotient == 0 {
		return 0
	}
	return validators.EffectiveBalance(state, index) / adjustedQuotient / 5
}

// InactivityPenalty returns the additional penalty applied on top of the
// missing base reward for a validator that failed to vote correctly
// during a period that has gone an unusually long time without
// finalizing.
//
// Spec pseudocode definition:
//  def inactivity_penalty(state, index, epochs_since_finality) -> Gwei:
//    base_reward(state, index) + get_effective_balance(state, index) *
//    epochs_since_finality // INACTIVITY_PENALTY_QUOTIENT // 2
func InactivityPenalty(state *pb.BeaconState, index uint64, totalBalance uint64, epochsSinceFinality uint64) uint64 {
	baseReward := BaseReward(state, index, totalBalance)
	effectiveBalance := validators.EffectiveBalance(state, index)
	return baseReward + mathutil.MulDiv(effectiveBalance, epochsSinceFinality, params.BeaconConfig().InactivityPenaltyQuotient)/2
}

// saturatingSub subtracts b from a without underflowing below zero, since
// balances are recorded as unsigned 64-bit Gwei counters throughout.
func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

// ExpectedFFGSource applies rewards to every active validator who
// correctly voted for the expected FFG source in the previous epoch, and
// penalizes active validators who did not.
//
// Spec pseudocode definition:
//  Any validator index in previous_epoch_attester_indices gains
//  base_reward(state, index) * previous_epoch_attesting_balance // previous_total_balance.
//  Any active validator v not in previous_epoch_attester_indices loses
//  base_reward(state, index).
func ExpectedFFGSource(
	state *pb.BeaconState,
	prevEpochActiveValidatorIndices []uint64,
	attesterIndices []uint64,
	attestingBalance uint64,
	totalBalance uint64) *pb.BeaconState {

	nonAttesters := sliceutil.NotUint64(attesterIndices, prevEpochActiveValidatorIndices)

	for _, index := range prevEpochActiveValidatorIndices {
		baseReward := BaseReward(state, index, totalBalance)
		if sliceutil.IsInUint64(index, nonAttesters) {
			state.ValidatorBalances[index] = saturatingSub(state.ValidatorBalances[index], baseReward)
		} else {
			state.ValidatorBalances[index] += mathutil.MulDiv(baseReward, attestingBalance, totalBalance)
		}
	}
	return state
}

// ExpectedFFGTarget applies rewards to every active validator who
// correctly voted for the epoch boundary root, and penalizes active
// validators who did not.
//
// Spec pseudocode definition:
//  Any validator index in previous_epoch_boundary_attester_indices gains
//  base_reward(state, index) * previous_epoch_boundary_attesting_balance // previous_total_balance.
//  Any active validator index not in previous_epoch_boundary_attester_indices loses
//  base_reward(state, index).
func ExpectedFFGTarget(
	state *pb.BeaconState,
	prevEpochActiveValidatorIndices []uint64,
	boundaryAttesterIndices []uint64,
	boundaryAttestingBalance uint64,
	totalBalance uint64) *pb.BeaconState {

	nonBoundaryAttesters := sliceutil.NotUint64(boundaryAttesterIndices, prevEpochActiveValidatorIndices)

	for _, index := range prevEpochActiveValidatorIndices {
		baseReward := BaseReward(state, index, totalBalance)
		if sliceutil.IsInUint64(index, nonBoundaryAttesters) {
			state.ValidatorBalances[index] = saturatingSub(state.ValidatorBalances[index], baseReward)
		} else {
			state.ValidatorBalances[index] += mathutil.MulDiv(baseReward, boundaryAttestingBalance, totalBalance)
		}
	}
	return state
}

// ExpectedBeaconChainHead applies rewards to every active validator who
// attested to the canonical beacon block root for their slot, and
// penalizes active validators who did not.
//
// Spec pseudocode definition:
//  Any validator index in previous_epoch_head_attester_indices gains
//  base_reward(state, index) * previous_epoch_head_attesting_balance // previous_total_balance).
//  Any active validator index not in previous_epoch_head_attester_indices loses
//  base_reward(state, index).
func ExpectedBeaconChainHead(
	state *pb.BeaconState,
	prevEpochActiveValidatorIndices []uint64,
	headAttesterIndices []uint64,
	headAttestingBalance uint64,
	totalBalance uint64) *pb.BeaconState {

	nonHeadAttesters := sliceutil.NotUint64(headAttesterIndices, prevEpochActiveValidatorIndices)

	for _, index := range prevEpochActiveValidatorIndices {
		baseReward := BaseReward(state, index, totalBalance)
		if sliceutil.IsInUint64(index, nonHeadAttesters) {
			state.ValidatorBalances[index] = saturatingSub(state.ValidatorBalances[index], baseReward)
		} else {
			state.ValidatorBalances[index] += mathutil.MulDiv(baseReward, headAttestingBalance, totalBalance)
		}
	}
	return state
}

// InclusionDistance rewards validators who got their previous-epoch
// attestation included quickly, scaling the base reward by the
// reciprocal of the inclusion distance.
//
// Spec pseudocode definition:
//  Any validator index in previous_epoch_attester_indices gains
//  base_reward(state, index) * MIN_ATTESTATION_INCLUSION_DELAY //
//  inclusion_distance(state, index)
func InclusionDistance(state *pb.BeaconState, attesterIndices []uint64, totalBalance uint64) (*pb.BeaconState, error) {
	for _, index := range attesterIndices {
		baseReward := BaseReward(state, index, totalBalance)
		distance, err := epoch.InclusionDistance(state, index)
		if err != nil {
			return nil, fmt.Errorf("could not get inclusion distance: %v", err)
		}
		if distance == 0 {
			continue
		}
		state.ValidatorBalances[index] += mathutil.MulDiv(baseReward, params.BeaconConfig().MinAttestationInclusionDelay, distance)
	}
	return state, nil
}

// InactivityFFGSource penalizes active validators who did not vote for
// the expected FFG source during a prolonged non-finality period, and
// leaves everyone else unaffected. It supersedes ExpectedFFGSource when
// epochs_since_finality exceeds 4.
//
// Spec pseudocode definition:
//  Any active validator index not in previous_epoch_attester_indices,
//  loses inactivity_penalty(state, index, epochs_since_finality).
func InactivityFFGSource(state *pb.BeaconState, prevEpochActiveValidatorIndices []uint64, attesterIndices []uint64, totalBalance uint64, epochsSinceFinality uint64) *pb.BeaconState {
	nonAttesters := sliceutil.NotUint64(attesterIndices, prevEpochActiveValidatorIndices)
	for _, index := range nonAttesters {
		state.ValidatorBalances[index] = saturatingSub(
			state.ValidatorBalances[index],
			InactivityPenalty(state, index, totalBalance, epochsSinceFinality))
	}
	return state
}

// InactivityFFGTarget penalizes active validators who did not vote for
// the expected epoch boundary root during a prolonged non-finality
// period.
//
// Spec pseudocode definition:
//  Any active validator index not in previous_epoch_boundary_attester_indices,
//  loses inactivity_penalty(state, index, epochs_since_finality).
func InactivityFFGTarget(state *pb.BeaconState, prevEpochActiveValidatorIndices []uint64, boundaryAttesterIndices []uint64, totalBalance uint64, epochsSinceFinality uint64) *pb.BeaconState {
	nonBoundaryAttesters := sliceutil.NotUint64(boundaryAttesterIndices, prevEpochActiveValidatorIndices)
	for _, index := range nonBoundaryAttesters {
		state.ValidatorBalances[index] = saturatingSub(
			state.ValidatorBalances[index],
			InactivityPenalty(state, index, totalBalance, epochsSinceFinality))
	}
	return state
}

// InactivityChainHead penalizes active validators who did not attest to
// the canonical beacon chain head during a prolonged non-finality
// period, at the plain base reward rate (no inactivity-leak scaling).
//
// Spec pseudocode definition:
//  Any active validator index not in previous_epoch_head_attester_indices,
//  loses base_reward(state, index).
func InactivityChainHead(state *pb.BeaconState, prevEpochActiveValidatorIndices []uint64, headAttesterIndices []uint64, totalBalance uint64) *pb.BeaconState {
	nonHeadAttesters := sliceutil.NotUint64(headAttesterIndices, prevEpochActiveValidatorIndices)
	for _, index := range nonHeadAttesters {
		state.ValidatorBalances[index] = saturatingSub(
			state.ValidatorBalances[index],
			BaseReward(state, index, totalBalance))
	}
	return state
}

// InactivityExitedPenalties deducts twice the inactivity penalty plus the
// base reward from every previous-epoch active validator whose penalized
// epoch is at or before the current epoch, on top of whatever
// InactivityFFGSource already deducted for them. The exit epoch is not
// consulted.
//
// Spec pseudocode definition:
//  Any index in prev_epoch_active_validator_indices with
//  validator.penalized_epoch <= current_epoch, loses
//  2 * inactivity_penalty(state, index, epochs_since_finality) +
//  base_reward(state, index).
func InactivityExitedPenalties(state *pb.BeaconState, prevEpochActiveValidatorIndices []uint64, totalBalance uint64, epochsSinceFinality uint64) *pb.BeaconState {
	currentEpoch := helpers.CurrentEpoch(state)
	for _, index := range prevEpochActiveValidatorIndices {
		validator := state.ValidatorRegistry[index]
		if validator.PenalizedEpoch <= currentEpoch {
			penalty := 2*InactivityPenalty(state, index, totalBalance, epochsSinceFinality) +
				BaseReward(state, index, totalBalance)
			state.ValidatorBalances[index] = saturatingSub(state.ValidatorBalances[index], penalty)
		}
	}
	return state
}

// InactivityInclusionDistance penalizes validators for slow attestation
// inclusion even during the inactivity leak, in place of the positive
// InclusionDistance reward.
//
// Spec pseudocode definition:
//  Any validator index in previous_epoch_attester_indices loses
//  base_reward(state, index) - base_reward(state, index) *
//  MIN_ATTESTATION_INCLUSION_DELAY // inclusion_distance(state, index)
func InactivityInclusionDistance(state *pb.BeaconState, attesterIndices []uint64, totalBalance uint64) (*pb.BeaconState, error) {
	for _, index := range attesterIndices {
		baseReward := BaseReward(state, index, totalBalance)
		distance, err := epoch.InclusionDistance(state, index)
		if err != nil {
			return nil, fmt.Errorf("could not get inclusion distance: %v", err)
		}
		if distance == 0 {
			continue
		}
		reward := mathutil.MulDiv(baseReward, params.BeaconConfig().MinAttestationInclusionDelay, distance)
		state.ValidatorBalances[index] = saturatingSub(state.ValidatorBalances[index], saturatingSub(baseReward, reward))
	}
	return state, nil
}

// AttestationInclusion rewards the proposer of the block that first
// included each previous-epoch attester's attestation.
//
// Spec pseudocode definition:
//  Any validator index in previous_epoch_attester_indices gains
//  base_reward(state, index) // INCLUDER_REWARD_QUOTIENT for the proposer
//  at inclusion_slot(state, index).
func AttestationInclusion(state *pb.BeaconState, totalBalance uint64, attesterIndices []uint64) (*pb.BeaconState, error) {
	for _, index := range attesterIndices {
		slot, err := epoch.InclusionSlot(state, index)
		if err != nil {
			return nil, fmt.Errorf("could not get inclusion slot: %v", err)
		}
		proposerIndex, err := helpers.BeaconProposerIndex(state, slot)
		if err != nil {
			return nil, fmt.Errorf("could not get proposer index: %v", err)
		}
		baseReward := BaseReward(state, index, totalBalance)
		state.ValidatorBalances[proposerIndex] += baseReward / params.BeaconConfig().IncluderRewardQuotient
	}
	return state, nil
}

// Crosslinks rewards every committee member who attested to the winning
// crosslink root at each slot of the previous epoch, and penalizes
// members who did not.
//
// Spec pseudocode definition:
//  For every slot in range(get_epoch_start_slot(previous_epoch), get_epoch_start_slot(current_epoch)):
//    For each crosslink_committee at that slot, let total_attesting_balance
//    be the balance of those who attested the winning crosslink root and
//    total_balance be the committee's total balance.
//    Any validator in crosslink_committee that attested gains
//    base_reward(state, index) * total_attesting_balance // total_balance.
//    Any validator in crosslink_committee that did not attest loses
//    base_reward(state, index).
func Crosslinks(
	ctx context.Context,
	state *pb.BeaconState,
	thisEpochAttestations []*pb.PendingAttestation,
	prevEpochAttestations []*pb.PendingAttestation) (*pb.BeaconState, error) {

	_, span := trace.StartSpan(ctx, "beacon-chain.balances.Crosslinks")
	defer span.End()

	prevEpoch := helpers.PrevEpoch(state)
	currentEpoch := helpers.CurrentEpoch(state)
	startSlot := helpers.StartSlot(prevEpoch)
	endSlot := helpers.StartSlot(currentEpoch)
	prevTotalBalance := epoch.TotalBalance(state, validators.ActiveValidatorIndices(state.ValidatorRegistry, prevEpoch))

	for slot := startSlot; slot < endSlot; slot++ {
		committees, err := helpers.CrosslinkCommitteesAtSlot(state, slot)
		if err != nil {
			return nil, fmt.Errorf("could not get committees for slot %d: %v", slot, err)
		}
		for _, committee := range committees {
			shard := committee.Shard
			attestingIndices, err := epoch.AttestingValidators(state, shard, thisEpochAttestations, prevEpochAttestations)
			if err != nil {
				return nil, fmt.Errorf("could not get attesting validators for shard %d: %v", shard, err)
			}
			totalAttestingBalance, err := epoch.TotalAttestingBalance(state, shard, thisEpochAttestations, prevEpochAttestations)
			if err != nil {
				return nil, fmt.Errorf("could not get total attesting balance for shard %d: %v", shard, err)
			}
			totalBalance := epoch.TotalBalance(state, committee.Committee)
			nonAttesters := sliceutil.NotUint64(attestingIndices, committee.Committee)

			for _, index := range committee.Committee {
				baseReward := BaseReward(state, index, prevTotalBalance)
				if sliceutil.IsInUint64(index, nonAttesters) {
					state.ValidatorBalances[index] = saturatingSub(state.ValidatorBalances[index], baseReward)
				} else if totalBalance > 0 {
					state.ValidatorBalances[index] += mathutil.MulDiv(baseReward, totalAttestingBalance, totalBalance)
				}
			}
		}
	}
	return state, nil
}
