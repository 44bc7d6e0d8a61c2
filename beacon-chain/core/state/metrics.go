package state

import (
	"encoding/hex"
	"math/bits"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ethprotocol/beacon-epoch/beacon-chain/core/helpers"
	pb "github.com/ethprotocol/beacon-epoch/proto/beacon/p2p/v1"
)

var (
	validatorBalancesGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "state_validator_balances",
		Help: "Balances of validators, updated on epoch transition",
	}, []string{
		"validator",
	})
	lastSlotGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "state_last_slot",
		Help: "Last slot number of the processed state",
	})
	lastJustifiedEpochGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "state_last_justified_epoch",
		Help: "Last justified epoch of the processed state",
	})
	lastPrevJustifiedEpochGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "state_last_prev_justified_epoch",
		Help: "Last prev justified epoch of the processed state",
	})
	lastFinalizedEpochGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "state_last_finalized_epoch",
		Help: "Last finalized epoch of the processed state",
	})
	justificationBitfieldPopcountGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "state_justification_bitfield_popcount",
		Help: "Number of justified epoch bits set in the justification bitfield",
	})
	crosslinksUpdatedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "state_crosslinks_updated",
		Help: "Number of shards whose crosslink was updated this epoch transition",
	})
)

func reportEpochTransitionMetrics(state *pb.BeaconState) {
	for i, balance := range state.ValidatorBalances {
		validatorBalancesGauge.WithLabelValues(
			"0x" + hex.EncodeToString(state.ValidatorRegistry[i].Pubkey),
		).Set(float64(balance))
	}
	lastSlotGauge.Set(float64(state.Slot))
	lastJustifiedEpochGauge.Set(float64(state.JustifiedEpoch))
	lastPrevJustifiedEpochGauge.Set(float64(state.PreviousJustifiedEpoch))
	lastFinalizedEpochGauge.Set(float64(state.FinalizedEpoch))
	justificationBitfieldPopcountGauge.Set(float64(bits.OnesCount64(state.JustificationBitfield)))

	var updated int
	currentEpoch := helpers.CurrentEpoch(state)
	for _, crosslink := range state.LatestCrosslinks {
		if crosslink.Epoch == currentEpoch {
			updated++
		}
	}
	crosslinksUpdatedGauge.Set(float64(updated))
}
