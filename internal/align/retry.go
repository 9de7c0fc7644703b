package align

import (
	"github.com/nextstrain-go/nextclade-go/internal/band"
	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
	"github.com/nextstrain-go/nextclade-go/internal/seedalign"
)

// AlignWithRetry builds stripes from chain and runs the banded nucleotide
// aligner, widening the band and re-aligning whenever the traceback touches
// a stripe boundary — up to maxAttempts times (spec §4.6). It returns
// ncerr.KindBandAreaExceeded if a widened band would exceed bandParams'
// MaxBandArea.
func AlignWithRetry(
	ref, qry []byte,
	chain []seedalign.SeedMatch,
	bandParams band.Params,
	alignParams Params,
	maxAttempts int,
) (Output, error) {
	refLen, qryLen := len(ref), len(qry)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		stripes := band.Build(chain, refLen, qryLen, bandParams)
		area := band.Area(stripes)
		if bandParams.MaxBandArea > 0 && area > bandParams.MaxBandArea {
			err := &band.AreaExceededError{Area: area, Max: bandParams.MaxBandArea, RefLen: refLen, QryLen: qryLen}
			return Output{}, ncerr.Wrap(ncerr.KindBandAreaExceeded, "nucleotide alignment band too large", err)
		}

		out := Align(ref, qry, stripes, alignParams, true)
		if !out.HitBoundary || attempt == maxAttempts-1 {
			return out, nil
		}
		bandParams = bandParams.Widen()
	}

	// Unreachable: loop always returns on its last iteration.
	stripes := band.Build(chain, refLen, qryLen, bandParams)
	return Align(ref, qry, stripes, alignParams, true), nil
}
