package bytesutil

import (
	"bytes"
	"testing"
)

func TestLowerThan(t *testing.T) {
	tests := []struct {
		a    []byte
		b    []byte
		want bool
	}{
		{[]byte{1}, []byte{}, true},
		{[]byte{}, []byte{}, false},
		{[]byte{1}, []byte{2}, true},
		{[]byte{2}, []byte{1}, false},
		{[]byte{1}, []byte{1}, false},
	}
	for _, tt := range tests {
		if got := LowerThan(tt.a, tt.b); got != tt.want {
			t.Errorf("LowerThan(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestToBytes8_FromBytes8_RoundTrip(t *testing.T) {
	tests := []uint64{
		0,
		1,
		255,
		256,
		16777216,
		4294967295,
		9223372036854775807,
		18446744073709551615,
	}
	for _, v := range tests {
		encoded := ToBytes8(v)
		if len(encoded) != 8 {
			t.Fatalf("ToBytes8(%d) returned %d bytes, want 8", v, len(encoded))
		}
		decoded := FromBytes8(encoded)
		if decoded != v {
			t.Errorf("FromBytes8(ToBytes8(%d)) = %d, want %d", v, decoded, v)
		}
	}
}

func TestToBytes8_LittleEndian(t *testing.T) {
	got := ToBytes8(16777216)
	want := []byte{0, 0, 0, 1, 0, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("ToBytes8(16777216) = %v, want %v", got, want)
	}
}

func TestFromBytes8_PadsShortInput(t *testing.T) {
	if got := FromBytes8([]byte{1}); got != 1 {
		t.Errorf("FromBytes8([]byte{1}) = %d, want 1", got)
	}
}
