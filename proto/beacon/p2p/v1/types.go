// Package v1 holds the wire types consumed by the beacon-chain state
// transition. The fields here are shaped the way protoc would generate
// them from the beacon-chain SSZ schema; they are hand-written in this
// tree since the toolchain that would regenerate them from .proto sources
// is not part of this repository.
package v1

import "github.com/gogo/protobuf/proto"

// Compile-time assertions that every wire type below satisfies
// proto.Message, the same check the generated .pb.go files in this
// family of checkouts leave behind as "var _ = proto.Marshal".
var (
	_ proto.Message = (*Fork)(nil)
	_ proto.Message = (*Eth1Data)(nil)
	_ proto.Message = (*Eth1DataVote)(nil)
	_ proto.Message = (*Crosslink)(nil)
	_ proto.Message = (*Validator)(nil)
	_ proto.Message = (*AttestationData)(nil)
	_ proto.Message = (*Attestation)(nil)
	_ proto.Message = (*PendingAttestation)(nil)
	_ proto.Message = (*BeaconBlockBody)(nil)
	_ proto.Message = (*BeaconBlock)(nil)
	_ proto.Message = (*BeaconState)(nil)
)

// Fork tracks a beacon chain fork version boundary.
type Fork struct {
	PreviousVersion uint64
	CurrentVersion  uint64
	Epoch           uint64
}

func (f *Fork) Reset()         { *f = Fork{} }
func (f *Fork) String() string { return "Fork" }
func (*Fork) ProtoMessage()    {}

// Eth1Data is a vote on the state of the eth1 deposit contract.
type Eth1Data struct {
	DepositRootHash32 []byte
	BlockHash32       []byte
}

func (e *Eth1Data) Reset()         { *e = Eth1Data{} }
func (e *Eth1Data) String() string { return "Eth1Data" }
func (*Eth1Data) ProtoMessage()    {}

// Eth1DataVote tallies votes for a particular Eth1Data value.
type Eth1DataVote struct {
	Eth1Data  *Eth1Data
	VoteCount uint64
}

func (e *Eth1DataVote) Reset()         { *e = Eth1DataVote{} }
func (e *Eth1DataVote) String() string { return "Eth1DataVote" }
func (*Eth1DataVote) ProtoMessage()    {}

// Crosslink records the shard-block-root agreed on for a shard at an epoch.
type Crosslink struct {
	Epoch                   uint64
	CrosslinkDataRootHash32 []byte
}

func (c *Crosslink) Reset()         { *c = Crosslink{} }
func (c *Crosslink) String() string { return "Crosslink" }
func (*Crosslink) ProtoMessage()    {}

// Validator is a single entry of the beacon chain's validator registry.
type Validator struct {
	Pubkey                     []byte
	WithdrawalCredentialsHash32 []byte
	ActivationEpoch            uint64
	ExitEpoch                  uint64
	WithdrawableEpoch          uint64
	PenalizedEpoch             uint64
	StatusFlags                uint64
}

func (v *Validator) Reset()         { *v = Validator{} }
func (v *Validator) String() string { return "Validator" }
func (*Validator) ProtoMessage()    {}

// AttestationData is the payload signed (in aggregate) by a committee
// attesting to the state of the chain at a given slot.
type AttestationData struct {
	Slot                     uint64
	Shard                    uint64
	BeaconBlockRootHash32    []byte
	EpochBoundaryRootHash32  []byte
	ShardBlockRootHash32     []byte
	LatestCrosslink          *Crosslink
	JustifiedEpoch           uint64
	JustifiedBlockRootHash32 []byte
}

func (a *AttestationData) Reset()         { *a = AttestationData{} }
func (a *AttestationData) String() string { return "AttestationData" }
func (*AttestationData) ProtoMessage()    {}

// Attestation is the signed, aggregated attestation as carried in a block body.
type Attestation struct {
	AggregationBitfield []byte
	CustodyBitfield     []byte
	Data                *AttestationData
	AggregateSignature  []byte
}

func (a *Attestation) Reset()         { *a = Attestation{} }
func (a *Attestation) String() string { return "Attestation" }
func (*Attestation) ProtoMessage()    {}

// PendingAttestation is an attestation that has been included in a block but
// not yet consumed by an epoch transition.
type PendingAttestation struct {
	Data                *AttestationData
	AggregationBitfield []byte
	CustodyBitfield     []byte
	InclusionSlot       uint64
}

func (p *PendingAttestation) Reset()         { *p = PendingAttestation{} }
func (p *PendingAttestation) String() string { return "PendingAttestation" }
func (*PendingAttestation) ProtoMessage()    {}

// BeaconBlockBody carries the operations a proposer bundles into a block.
type BeaconBlockBody struct {
	Attestations []*Attestation
}

func (b *BeaconBlockBody) Reset()         { *b = BeaconBlockBody{} }
func (b *BeaconBlockBody) String() string { return "BeaconBlockBody" }
func (*BeaconBlockBody) ProtoMessage()    {}

// BeaconBlock is a beacon chain block. Only the fields the epoch-adjacent
// plumbing in this repository touches are modeled.
type BeaconBlock struct {
	Slot       uint64
	ParentRootHash32 []byte
	Body       *BeaconBlockBody
}

func (b *BeaconBlock) Reset()         { *b = BeaconBlock{} }
func (b *BeaconBlock) String() string { return "BeaconBlock" }
func (*BeaconBlock) ProtoMessage()    {}

// BeaconState is the full consensus-critical state of the beacon chain.
// Field set and naming mirror the Phase 0 BeaconState: this repository's
// epoch-transition core reads and writes exactly these fields.
type BeaconState struct {
	// Misc.
	Slot        uint64
	GenesisTime uint64
	Fork        *Fork

	// Validator registry.
	ValidatorRegistry          []*Validator
	ValidatorBalances          []uint64
	ValidatorRegistryUpdateEpoch uint64

	// Randomness and committees.
	LatestRandaoMixes           [][]byte
	PreviousShufflingEpoch      uint64
	CurrentShufflingEpoch       uint64
	PreviousShufflingStartShard uint64
	CurrentShufflingStartShard  uint64
	PreviousShufflingSeedHash32 []byte
	CurrentShufflingSeedHash32  []byte

	// Finality.
	PreviousJustifiedEpoch  uint64
	JustifiedEpoch          uint64
	JustificationBitfield   uint64
	FinalizedEpoch          uint64

	// Recent state.
	LatestCrosslinks        []*Crosslink
	LatestBlockRootHash32S  [][]byte
	BatchedBlockRootHash32S [][]byte
	LatestIndexRootHash32S  [][]byte
	LatestSlashedBalances   []uint64
	LatestAttestations      []*PendingAttestation

	// Eth1.
	LatestEth1Data *Eth1Data
	Eth1DataVotes  []*Eth1DataVote
}

func (s *BeaconState) Reset()         { *s = BeaconState{} }
func (s *BeaconState) String() string { return "BeaconState" }
func (*BeaconState) ProtoMessage()    {}
