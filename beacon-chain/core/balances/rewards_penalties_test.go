package balances

import (
	"testing"

	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
	"github.com/ethprotocol/beacon-epoch/shared/params"
)

func TestBaseReward_ZeroTotalBalanceReturnsZero(t *testing.T) {
	state := &pb.BeaconState{ValidatorBalances: []uint64{params.BeaconConfig().MaxDepositAmount}}
	if got := BaseReward(state, 0, 0); got != 0 {
		t.Errorf("BaseReward with zero total balance = %d, wanted 0", got)
	}
}

func TestBaseReward_ScalesWithEffectiveBalance(t *testing.T) {
	state := &pb.BeaconState{
		ValidatorBalances: []uint64{
			params.BeaconConfig().MaxDepositAmount,
			params.BeaconConfig().MaxDepositAmount / 2,
		},
	}
	totalBalance := params.BeaconConfig().MaxDepositAmount * 100

	full := BaseReward(state, 0, totalBalance)
	half := BaseReward(state, 1, totalBalance)
	if full <= half {
		t.Errorf("BaseReward(full balance) = %d, wanted more than BaseReward(half balance) = %d", full, half)
	}
}

func TestInactivityPenalty_GrowsWithEpochsSinceFinality(t *testing.T) {
	state := &pb.BeaconState{ValidatorBalances: []uint64{params.BeaconConfig().MaxDepositAmount}}
	totalBalance := params.BeaconConfig().MaxDepositAmount * 100

	short := InactivityPenalty(state, 0, totalBalance, 1)
	long := InactivityPenalty(state, 0, totalBalance, 100)
	if long <= short {
		t.Errorf("InactivityPenalty(100 epochs) = %d, wanted more than InactivityPenalty(1 epoch) = %d", long, short)
	}
}

func TestSaturatingSub_NeverUnderflows(t *testing.T) {
	if got := saturatingSub(5, 10); got != 0 {
		t.Errorf("saturatingSub(5, 10) = %d, wanted 0", got)
	}
	if got := saturatingSub(10, 5); got != 5 {
		t.Errorf("saturatingSub(10, 5) = %d, wanted 5", got)
	}
}

func TestExpectedFFGSource_RewardsAttestersPenalizesOthers(t *testing.T) {
	cfg := params.BeaconConfig()
	state := &pb.BeaconState{
		ValidatorRegistry: []*pb.Validator{
			{ExitEpoch: cfg.FarFutureEpoch},
			{ExitEpoch: cfg.FarFutureEpoch},
		},
		ValidatorBalances: []uint64{cfg.MaxDepositAmount, cfg.MaxDepositAmount},
	}
	totalBalance := cfg.MaxDepositAmount * 2
	attestingBalance := cfg.MaxDepositAmount

	state = ExpectedFFGSource(state, []uint64{0, 1}, []uint64{0}, attestingBalance, totalBalance)

	if state.ValidatorBalances[0] <= cfg.MaxDepositAmount {
		t.Errorf("attesting validator balance = %d, wanted an increase above %d", state.ValidatorBalances[0], cfg.MaxDepositAmount)
	}
	if state.ValidatorBalances[1] >= cfg.MaxDepositAmount {
		t.Errorf("non-attesting validator balance = %d, wanted a decrease below %d", state.ValidatorBalances[1], cfg.MaxDepositAmount)
	}
}

func TestInactivityExitedPenalties_OnlyPenalizesPenalizedValidators(t *testing.T) {
	cfg := params.BeaconConfig()
	state := &pb.BeaconState{
		Slot: cfg.SlotsPerEpoch,
		ValidatorRegistry: []*pb.Validator{
			{ExitEpoch: cfg.FarFutureEpoch, PenalizedEpoch: cfg.FarFutureEpoch},
			{ExitEpoch: cfg.FarFutureEpoch, PenalizedEpoch: 0},
		},
		ValidatorBalances: []uint64{cfg.MaxDepositAmount, cfg.MaxDepositAmount},
	}
	totalBalance := cfg.MaxDepositAmount * 2

	state = InactivityExitedPenalties(state, []uint64{0, 1}, totalBalance, 10)

	if state.ValidatorBalances[0] != cfg.MaxDepositAmount {
		t.Errorf("non-penalized validator balance changed: got %d, wanted %d", state.ValidatorBalances[0], cfg.MaxDepositAmount)
	}
	if state.ValidatorBalances[1] >= cfg.MaxDepositAmount {
		t.Errorf("penalized validator balance was not reduced: got %d", state.ValidatorBalances[1])
	}
}
