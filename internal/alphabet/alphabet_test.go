package alphabet

import "testing"

func TestNucMatches(t *testing.T) {
	tests := []struct {
		name string
		a, b byte
		want bool
	}{
		{"identical A", 'A', 'A', true},
		{"A vs C", 'A', 'C', false},
		{"N matches A", 'N', 'A', true},
		{"N matches N", 'N', 'N', true},
		{"R matches A", 'R', 'A', true},
		{"R matches C", 'R', 'C', false},
		{"gap matches gap", Gap, Gap, true},
		{"gap does not match N", Gap, 'N', false},
		{"gap does not match A", Gap, 'A', false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NucMatches(tt.a, tt.b); got != tt.want {
				t.Errorf("NucMatches(%c,%c) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestReverseComplement(t *testing.T) {
	got := string(ReverseComplement([]byte("ACGT")))
	if got != "ACGT" {
		t.Errorf("ReverseComplement(ACGT) = %s, want ACGT", got)
	}
	got = string(ReverseComplement([]byte("AATTCCGGN")))
	want := "NCCGGAATT"
	if got != want {
		t.Errorf("ReverseComplement = %s, want %s", got, want)
	}
}

func TestAaMatches(t *testing.T) {
	if !AaMatches('X', 'A') {
		t.Error("X should match A")
	}
	if AaMatches('D', 'E') {
		t.Error("D should not match E")
	}
	if !AaMatches('B', 'D') {
		t.Error("B should match D")
	}
	if !AaMatches(AaStop, AaStop) {
		t.Error("stop should match stop")
	}
	if AaMatches(AaStop, 'A') {
		t.Error("stop should not match A")
	}
}
