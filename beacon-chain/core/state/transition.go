// Package state wires together the epoch, helpers, validators and
// balances packages into the single per-epoch state transition function:
// given a beacon state whose slot sits at an epoch boundary, ProcessEpoch
// returns the state advanced through justification, finalization,
// crosslinks, rewards/penalties, and registry/seed rotation.
package state

import (
	"context"
	"fmt"

	bal "github.com/ethprotocol/beacon-epoch/beacon-chain/core/balances"
	e "github.com/ethprotocol/beacon-epoch/beacon-chain/core/epoch"
	"github.com/ethprotocol/beacon-epoch/beacon-chain/core/helpers"
	v "github.com/ethprotocol/beacon-epoch/beacon-chain/core/validators"
	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/sliceutil"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "core/state")

// ProcessEpoch describes the per-epoch operations performed on the
// beacon state: processing candidate eth1 data, updating justification
// and finalization, updating crosslinks, applying attester and crosslink
// reward/penalties, rotating the validator registry and shuffling seed,
// and the final epoch bookkeeping.
//
// Spec pseudocode definition:
// 	 process_eth1_data(state)
// 	 update_justification(state)
// 	 update_crosslinks(state)
// 	 process_rewards_and_penalties(state)
// 	 process_ejections(state)
// 	 update_registry_and_shuffling_data(state)
// 	 process_slashings(state)
// 	 process_exit_queue(state)
// 	 final_book_keeping(state)
func ProcessEpoch(ctx context.Context, state *pb.BeaconState) (*pb.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "beacon-chain.state.ProcessEpoch")
	defer span.End()

	if !e.CanProcessEpoch(state) {
		return nil, fmt.Errorf("state slot %d is not eligible for epoch processing", state.Slot)
	}

	currentEpoch := helpers.CurrentEpoch(state)
	prevEpoch := helpers.PrevEpoch(state)
	currentEpochActiveValidatorIndices := v.ActiveValidatorIndices(state.ValidatorRegistry, currentEpoch)
	currentTotalBalance := e.TotalBalance(state, currentEpochActiveValidatorIndices)
	prevEpochActiveValidatorIndices := v.ActiveValidatorIndices(state.ValidatorRegistry, prevEpoch)
	prevTotalBalance := e.TotalBalance(state, prevEpochActiveValidatorIndices)

	currentAttestations := e.CurrentAttestations(state)
	currentBoundaryAttestations, err := e.CurrentBoundaryAttestations(state, currentAttestations)
	if err != nil {
		return nil, fmt.Errorf("could not get current boundary attestations: %v", err)
	}
	currentBoundaryAttesterIndices, err := attesterIndices(state, currentBoundaryAttestations)
	if err != nil {
		return nil, fmt.Errorf("could not get current boundary attester indices: %v", err)
	}
	currentBoundaryAttestingBalance := e.TotalBalance(state, currentBoundaryAttesterIndices)

	prevEpochAttestations := e.PrevAttestations(state)
	prevAttesterIndices, err := attesterIndices(state, prevEpochAttestations)
	if err != nil {
		return nil, fmt.Errorf("could not get prev epoch attester indices: %v", err)
	}

	prevEpochJustifiedAttestations := e.PrevJustifiedAttestations(state, currentAttestations, prevEpochAttestations)
	prevEpochJustifiedAttesterIndices, err := attesterIndices(state, prevEpochJustifiedAttestations)
	if err != nil {
		return nil, fmt.Errorf("could not get prev epoch justified attester indices: %v", err)
	}
	prevEpochJustifiedAttestingBalance := e.TotalBalance(state, prevEpochJustifiedAttesterIndices)

	prevEpochBoundaryAttestations, err := e.PrevBoundaryAttestations(state, prevEpochJustifiedAttestations)
	if err != nil {
		return nil, fmt.Errorf("could not get prev boundary attestations: %v", err)
	}
	prevEpochBoundaryAttesterIndices, err := attesterIndices(state, prevEpochBoundaryAttestations)
	if err != nil {
		return nil, fmt.Errorf("could not get prev boundary attester indices: %v", err)
	}
	prevEpochBoundaryAttestingBalance := e.TotalBalance(state, prevEpochBoundaryAttesterIndices)

	prevEpochHeadAttestations, err := e.PrevHeadAttestations(state, prevEpochAttestations)
	if err != nil {
		return nil, fmt.Errorf("could not get prev head attestations: %v", err)
	}
	prevEpochHeadAttesterIndices, err := attesterIndices(state, prevEpochHeadAttestations)
	if err != nil {
		return nil, fmt.Errorf("could not get prev head attester indices: %v", err)
	}
	prevEpochHeadAttestingBalance := e.TotalBalance(state, prevEpochHeadAttesterIndices)

	if e.CanProcessEth1Data(state) {
		state = e.ProcessEth1Data(ctx, state)
	}

	state = e.ProcessJustification(
		ctx,
		state,
		currentBoundaryAttestingBalance,
		prevEpochBoundaryAttestingBalance,
		prevTotalBalance,
		currentTotalBalance)

	state, err = e.ProcessCrosslinks(ctx, state, currentAttestations, prevEpochAttestations)
	if err != nil {
		return nil, fmt.Errorf("could not process crosslink records: %v", err)
	}

	epochsSinceFinality := e.SinceFinality(state)
	switch {
	case epochsSinceFinality <= 4:
		state = bal.ExpectedFFGSource(state, prevEpochActiveValidatorIndices, prevEpochJustifiedAttesterIndices, prevEpochJustifiedAttestingBalance, prevTotalBalance)
		state = bal.ExpectedFFGTarget(state, prevEpochActiveValidatorIndices, prevEpochBoundaryAttesterIndices, prevEpochBoundaryAttestingBalance, prevTotalBalance)
		state = bal.ExpectedBeaconChainHead(state, prevEpochActiveValidatorIndices, prevEpochHeadAttesterIndices, prevEpochHeadAttestingBalance, prevTotalBalance)
		state, err = bal.InclusionDistance(state, prevAttesterIndices, prevTotalBalance)
		if err != nil {
			return nil, fmt.Errorf("could not calculate inclusion distance rewards: %v", err)
		}
	default:
		state = bal.InactivityFFGSource(state, prevEpochActiveValidatorIndices, prevEpochJustifiedAttesterIndices, prevTotalBalance, epochsSinceFinality)
		state = bal.InactivityFFGTarget(state, prevEpochActiveValidatorIndices, prevEpochBoundaryAttesterIndices, prevTotalBalance, epochsSinceFinality)
		state = bal.InactivityChainHead(state, prevEpochActiveValidatorIndices, prevEpochHeadAttesterIndices, prevTotalBalance)
		state = bal.InactivityExitedPenalties(state, prevEpochActiveValidatorIndices, prevTotalBalance, epochsSinceFinality)
		state, err = bal.InactivityInclusionDistance(state, prevAttesterIndices, prevTotalBalance)
		if err != nil {
			return nil, fmt.Errorf("could not calculate inclusion distance penalties: %v", err)
		}
	}

	state, err = bal.AttestationInclusion(state, prevTotalBalance, prevAttesterIndices)
	if err != nil {
		return nil, fmt.Errorf("could not process attestation inclusion rewards: %v", err)
	}

	state, err = bal.Crosslinks(ctx, state, currentAttestations, prevEpochAttestations)
	if err != nil {
		return nil, fmt.Errorf("could not process crosslink rewards and penalties: %v", err)
	}

	state = e.ProcessEjections(ctx, state)

	state = e.ProcessPrevSlotShardSeed(state)
	state = v.ProcessPenaltiesAndExits(state)
	if e.CanProcessValidatorRegistry(ctx, state) {
		state, err = v.UpdateValidatorRegistry(state)
		if err != nil {
			return nil, fmt.Errorf("could not update validator registry: %v", err)
		}
		state, err = e.ProcessCurrSlotShardSeed(state)
		if err != nil {
			return nil, fmt.Errorf("could not process current slot shard seed: %v", err)
		}
		state.ValidatorRegistryUpdateEpoch = currentEpoch
	} else {
		state, err = e.ProcessPartialValidatorRegistry(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("could not process partial validator registry: %v", err)
		}
	}

	state, err = e.UpdateLatestActiveIndexRoots(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("could not update latest active index roots: %v", err)
	}
	state = e.UpdateLatestSlashedBalances(ctx, state)
	state = e.UpdateLatestRandaoMixes(ctx, state)
	state = e.CleanupAttestations(ctx, state)

	reportEpochTransitionMetrics(state)
	stateRoot, err := HashTreeRoot(state)
	if err != nil {
		return nil, fmt.Errorf("could not compute post-transition state root: %v", err)
	}
	log.WithField("slot", state.Slot).WithField("justifiedEpoch", state.JustifiedEpoch).
		WithField("finalizedEpoch", state.FinalizedEpoch).WithField("stateRoot", fmt.Sprintf("%#x", stateRoot)).
		Info("Processed epoch transition")
	return state, nil
}

// attesterIndices expands a set of pending attestations into the
// de-duplicated union of validator indices that participated in any of
// them.
//
// Spec pseudocode definition:
//  Let this_epoch_attester_indices be the union of the validator index sets
//  given by [get_attestation_participants(state, a.data, a.aggregation_bitfield)
//  for a in this_epoch_attestations]
func attesterIndices(state *pb.BeaconState, attestations []*pb.PendingAttestation) ([]uint64, error) {
	var indices []uint64
	for _, attestation := range attestations {
		participants, err := helpers.AttestationParticipants(state, attestation.Data, attestation.AggregationBitfield)
		if err != nil {
			return nil, fmt.Errorf("could not get attestation participants: %v", err)
		}
		indices = sliceutil.UnionUint64(indices, participants)
	}
	return indices, nil
}
