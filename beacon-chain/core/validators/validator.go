// Package validators contains the validator-registry-facing helpers the
// epoch-transition core treats as external collaborators: active-index
// computation, effective balance, attester-index expansion, and the exit
// mechanics invoked by the supplemented ejection pass (SPEC_FULL.md
// section 3). Full activation/exit/withdrawal bookkeeping beyond what the
// epoch core needs is out of scope (spec.md section 1).
package validators

import (
	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/params"
)

// IsActiveValidator returns true if the validator is active at the given
// epoch.
//
// Spec pseudocode definition:
//  def is_active_validator(validator: Validator, epoch: Epoch) -> bool:
//    return validator.activation_epoch <= epoch < validator.exit_epoch
func IsActiveValidator(validator *pb.Validator, epoch uint64) bool {
	return validator.ActivationEpoch <= epoch && epoch < validator.ExitEpoch
}

// ActiveValidatorIndices returns the sorted ascending indices of validators
// active at the given epoch.
//
// Spec pseudocode definition:
//  def get_active_validator_indices(validators: List[Validator], epoch: Epoch) -> List[ValidatorIndex]:
//    return [i for i, v in enumerate(validators) if is_active_validator(v, epoch)]
func ActiveValidatorIndices(registry []*pb.Validator, epoch uint64) []uint64 {
	indices := make([]uint64, 0, len(registry))
	for i, v := range registry {
		if IsActiveValidator(v, epoch) {
			indices = append(indices, uint64(i))
		}
	}
	return indices
}

// EffectiveBalance returns min(balance, MAX_DEPOSIT_AMOUNT) for validator i.
//
// Spec pseudocode definition:
//  def get_effective_balance(state: BeaconState, index: ValidatorIndex) -> Gwei:
//    return min(state.validator_balances[index], MAX_DEPOSIT_AMOUNT)
func EffectiveBalance(state *pb.BeaconState, index uint64) uint64 {
	if state.ValidatorBalances[index] > params.BeaconConfig().MaxDepositAmount {
		return params.BeaconConfig().MaxDepositAmount
	}
	return state.ValidatorBalances[index]
}

// TotalEffectiveBalance sums EffectiveBalance over the given indices.
//
// Spec pseudocode definition:
//  def get_total_balance(state: BeaconState, indices) -> Gwei:
//    return sum([get_effective_balance(state, i) for i in indices])
func TotalEffectiveBalance(state *pb.BeaconState, indices []uint64) uint64 {
	var total uint64
	for _, i := range indices {
		total += EffectiveBalance(state, i)
	}
	return total
}

// DelayedActivationExitEpoch returns the epoch at which an activation or
// exit triggered at the given epoch takes effect.
func DelayedActivationExitEpoch(epoch uint64) uint64 {
	return epoch + params.BeaconConfig().ActivationExitDelay
}

// ExitValidator takes a validator out of the active set, scheduling its
// exit epoch. It is the external registry-maintenance collaborator the
// supplemented ejection pass calls into (SPEC_FULL.md section 3); full
// withdrawal/penalty bookkeeping beyond scheduling the exit epoch is left
// to the upstream `update_validator_registry` collaborator spec.md section
// 6 names.
func ExitValidator(state *pb.BeaconState, idx uint64) *pb.BeaconState {
	validator := state.ValidatorRegistry[idx]
	if validator.ExitEpoch != params.BeaconConfig().FarFutureEpoch {
		// Already exited or exiting.
		return state
	}
	currentEpoch := state.Slot / params.BeaconConfig().SlotsPerEpoch
	validator.ExitEpoch = DelayedActivationExitEpoch(currentEpoch)
	return state
}

// ProcessPenaltiesAndExits is the external `update_validator_registry`-
// adjacent collaborator responsible for applying any exit/penalty
// side-effects queued elsewhere in block processing. The epoch core never
// constructs or removes validators itself (spec.md section 3's lifecycle
// note); this is a deliberately minimal pass-through left for a full
// registry-maintenance implementation to extend.
func ProcessPenaltiesAndExits(state *pb.BeaconState) *pb.BeaconState {
	return state
}

// UpdateValidatorRegistry is the external collaborator spec.md section 6
// names as `update_validator_registry`: activation/exit mechanics driven by
// balances and queue depth. Out of scope for the epoch-transition core
// itself (spec.md section 1); kept here as the seam the registry-rotation
// stage (spec.md section 4.8) calls into.
func UpdateValidatorRegistry(state *pb.BeaconState) (*pb.BeaconState, error) {
	return state, nil
}
