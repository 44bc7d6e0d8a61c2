package state

import "testing"

func TestHashTreeRoot_DeterministicForEqualStates(t *testing.T) {
	state1 := genesisTestState(4)
	state2 := genesisTestState(4)

	root1, err := HashTreeRoot(state1)
	if err != nil {
		t.Fatalf("HashTreeRoot returned error: %v", err)
	}
	root2, err := HashTreeRoot(state2)
	if err != nil {
		t.Fatalf("HashTreeRoot returned error: %v", err)
	}
	if root1 != root2 {
		t.Errorf("HashTreeRoot of two structurally identical states differed: %#x != %#x", root1, root2)
	}
}

func TestHashTreeRoot_DiffersAfterMutation(t *testing.T) {
	original := genesisTestState(4)
	mutated := genesisTestState(4)
	mutated.Slot++

	rootOriginal, err := HashTreeRoot(original)
	if err != nil {
		t.Fatalf("HashTreeRoot returned error: %v", err)
	}
	rootMutated, err := HashTreeRoot(mutated)
	if err != nil {
		t.Fatalf("HashTreeRoot returned error: %v", err)
	}
	if rootOriginal == rootMutated {
		t.Error("HashTreeRoot did not change after mutating the slot")
	}
}
