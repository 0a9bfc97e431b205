package engine

import (
	"fmt"
	"math"

	"github.com/amaurea/fitsslice/pkg/slice"
)

// Plan is the validated, ready-to-write outcome of combining a HeaderInfo
// and a Selection: the rewritten and pruned output header, the total
// output byte count, the computed sky-wrap period, and the pixel width.
type Plan struct {
	OutHeader  []byte
	OutSize    int64
	Wrapx      int64
	PixelBytes int64
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func cloneHeaderInfo(hi *HeaderInfo) *HeaderInfo {
	out := *hi
	out.Naxis = append([]int64(nil), hi.Naxis...)
	out.NaxisPos = append([]int(nil), hi.NaxisPos...)
	out.Crpix = append([]float64(nil), hi.Crpix...)
	out.CrpixPos = append([]int(nil), hi.CrpixPos...)
	out.Cdelt = append([]float64(nil), hi.Cdelt...)
	out.CdeltPos = append([]int(nil), hi.CdeltPos...)
	return &out
}

// BuildPlan validates sel against hi and computes the output header and
// size. rawHeader is the original 2880-byte header buffer that hi's
// value-field positions (and the rewrite/prune pass) operate on.
//
// Failure codes: ErrSelectorInvalid (selection out of bounds or too
// large — EVALS in the engine's result vocabulary).
func BuildPlan(rawHeader []byte, hi *HeaderInfo, sel *Selection) (*Plan, error) {
	wrapx := int64(0)
	if hi.Cdelt[0] != 0 {
		wrapx = int64(math.Round(math.Abs(360.0 / hi.Cdelt[0])))
	}

	if sel.FixOrder {
		for sel.I2[0] < sel.I1[0] {
			sel.I2[0] += wrapx
		}
	}

	if wrapx > 0 && sel.I2[0]-sel.I1[0] > wrapx {
		return nil, fmt.Errorf("%w: longitude span exceeds wrap period", slice.ErrSelectorInvalid)
	}
	for i := 0; i < sel.Naxes; i++ {
		if sel.I2[i] < sel.I1[i] {
			return nil, fmt.Errorf("%w: axis %d has i2 < i1", slice.ErrSelectorInvalid, i)
		}
		if i >= 2 && (sel.I1[i] < 0 || sel.I2[i] > hi.Naxis[i]) {
			return nil, fmt.Errorf("%w: pre-axis %d out of bounds", slice.ErrSelectorInvalid, i)
		}
	}

	pixelBytes := int64(absInt(hi.Bitpix)) / 8
	var count int64 = 1
	for i := 0; i < sel.Naxes; i++ {
		count *= sel.I2[i] - sel.I1[i]
	}
	outSize := count*pixelBytes + HeaderBlockSize

	oh := cloneHeaderInfo(hi)
	oh.Naxis[0] = sel.I2[0] - sel.I1[0]
	oh.Naxis[1] = sel.I2[1] - sel.I1[1]
	oh.Crpix[0] -= float64(sel.I1[0])
	oh.Crpix[1] -= float64(sel.I1[1])

	j := 2
	for i := 2; i < sel.Naxes; i++ {
		if sel.Mode[i] == Single {
			oh.Naxes--
			continue
		}
		oh.Naxis[j] = sel.I2[i] - sel.I1[i]
		j++
	}

	outHeader := make([]byte, HeaderBlockSize)
	copy(outHeader, rawHeader[:HeaderBlockSize])
	RewriteHeader(outHeader, oh)
	outHeader = PruneHeader(outHeader, oh.Naxes)

	return &Plan{
		OutHeader:  outHeader,
		OutSize:    outSize,
		Wrapx:      wrapx,
		PixelBytes: pixelBytes,
	}, nil
}
