// Package band converts a chain of seed matches into a dense sequence of
// stripes bounding the banded DP aligner (spec §4.5).
package band

import "fmt"

// Stripe gives the permitted query interval [Begin, End) at one reference
// row.
type Stripe struct {
	Begin int
	End   int
}

// Width returns End - Begin.
func (s Stripe) Width() int { return s.End - s.Begin }

// Params configures stripe construction and the retry/widen loop.
type Params struct {
	AllowedMismatches int
	ExcessBandwidth   int
	TerminalBandwidth int
	MinimalBandwidth  int
	MaxBandArea       int
}

// DefaultParams mirrors typical Nextclade band defaults.
func DefaultParams() Params {
	return Params{
		AllowedMismatches: 6,
		ExcessBandwidth:   9,
		TerminalBandwidth: 50,
		MinimalBandwidth:  5,
		MaxBandArea:       500_000_000,
	}
}

// Widen doubles every widenable parameter (floor of 1), used by the
// aligner's retry loop when a traceback hits a stripe boundary (spec §4.6).
func (p Params) Widen() Params {
	widen := func(v int) int {
		if v < 1 {
			v = 1
		}
		return v * 2
	}
	p.TerminalBandwidth = widen(p.TerminalBandwidth)
	p.ExcessBandwidth = widen(p.ExcessBandwidth)
	p.MinimalBandwidth = widen(p.MinimalBandwidth)
	return p
}

// Area returns the total band area: the sum of stripe widths.
func Area(stripes []Stripe) int {
	total := 0
	for _, s := range stripes {
		total += s.Width()
	}
	return total
}

// AreaExceededError reports that a band exceeds MaxBandArea, differentiating
// the common "reference and query length ratio is wildly different" case
// from a generic overflow (spec §4.5).
type AreaExceededError struct {
	Area, Max, RefLen, QryLen int
}

func (e *AreaExceededError) Error() string {
	ratio := float64(e.RefLen+1) / float64(e.QryLen+1)
	if ratio > 3 || ratio < 1.0/3 {
		return fmt.Sprintf(
			"band area %d exceeds maximum %d: reference length %d and query length %d differ too much (ratio %.2f) — sequence likely does not belong to this pathogen's dataset",
			e.Area, e.Max, e.RefLen, e.QryLen, ratio)
	}
	return fmt.Sprintf("band area %d exceeds maximum %d", e.Area, e.Max)
}
