package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/amaurea/fitsslice/pkg/slice"
	"github.com/amaurea/fitsslice/pkg/wcs"
)

// Mode tags a single axis's selection as a full range or a degenerate
// single index.
type Mode int

const (
	// Range selects an interval [I1, I2) along an axis.
	Range Mode = iota
	// Single selects one index; the axis is dropped from the output.
	Single
)

// Selection is the parsed, per-axis region of interest, using the same
// axis ordering as the rest of the engine: axis 0 = longitude (fastest
// varying), axis 1 = latitude, axis >= 2 = pre-axes.
type Selection struct {
	Naxes int
	I1    []int64
	I2    []int64
	Mode  []Mode

	// FixOrder is set when a box= selector's longitude corners may have
	// been reversed by the 360-degree ambiguity inherent to sky
	// coordinates; the planner adds wrap periods to I2[0] to correct it.
	FixOrder bool
}

func fullSelection(hi *HeaderInfo) *Selection {
	sel := &Selection{
		Naxes: hi.Naxes,
		I1:    make([]int64, hi.Naxes),
		I2:    make([]int64, hi.Naxes),
		Mode:  make([]Mode, hi.Naxes),
	}
	for i := 0; i < hi.Naxes; i++ {
		sel.I2[i] = hi.Naxis[i]
	}
	return sel
}

// ParseSelector turns a textual selector (pbox=... or box=...) into a
// Selection. An empty selector means "full array, all axes RANGE". header
// is the raw 2880-byte header buffer, needed only for box= selectors,
// which invoke the wcs collaborator to convert sky coordinates to pixel
// indices.
//
// Segments are read in FITS axis order (slowest-varying first) and
// reversed on commit to match the engine's internal axis order. If fewer
// segments are given than the header's NAXIS, trailing (higher) axes
// default to their full range — this tolerance is deliberate, not a bug.
func ParseSelector(selector string, hi *HeaderInfo, header []byte) (*Selection, error) {
	sel := fullSelection(hi)
	if selector == "" {
		return sel, nil
	}

	eq := strings.IndexByte(selector, '=')
	if eq < 0 {
		return nil, fmt.Errorf("%w: missing '=' in selector", slice.ErrSelectorInvalid)
	}
	name, rest := selector[:eq], selector[eq+1:]
	if name != "pbox" && name != "box" {
		return nil, fmt.Errorf("%w: unknown selector name %q", slice.ErrSelectorInvalid, name)
	}

	parts := strings.Split(rest, ",")
	n := len(parts)
	if n > len(hi.Naxis) {
		return nil, fmt.Errorf("%w: too many selector segments", slice.ErrSelectorInvalid)
	}
	if n > sel.Naxes {
		return nil, fmt.Errorf("%w: more selector segments than header axes", slice.ErrSelectorInvalid)
	}

	tmpI1 := make([]float64, n)
	tmpI2 := make([]float64, n)
	tmpMode := make([]Mode, n)
	for i, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: empty selector segment", slice.ErrSelectorInvalid)
		}
		if idx := strings.IndexByte(part, ':'); idx >= 0 {
			lo, err1 := strconv.ParseFloat(part[:idx], 64)
			hiVal, err2 := strconv.ParseFloat(part[idx+1:], 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("%w: malformed range segment %q", slice.ErrSelectorInvalid, part)
			}
			tmpI1[i], tmpI2[i], tmpMode[i] = lo, hiVal, Range
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed segment %q", slice.ErrSelectorInvalid, part)
		}
		if i >= n-2 {
			return nil, fmt.Errorf("%w: SINGLE mode not allowed on the innermost two axes", slice.ErrSelectorInvalid)
		}
		tmpI1[i], tmpMode[i] = v, Single
	}

	fixOrder := false
	if name == "box" {
		w, err := wcs.Parse(header)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", slice.ErrSelectorInvalid, err)
		}
		w.LngAxis, w.LatAxis = 0, 1

		lon := []float64{tmpI1[n-1], tmpI2[n-1]}
		lat := []float64{tmpI1[n-2], tmpI2[n-2]}
		px, py, err := w.WorldToPixel(lon, lat)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", slice.ErrSelectorInvalid, err)
		}
		tmpI1[n-1] = math.Floor(px[0] + 0.5)
		tmpI2[n-1] = math.Floor(px[1] + 0.5)
		tmpI1[n-2] = math.Floor(py[0] + 0.5)
		tmpI2[n-2] = math.Floor(py[1] + 0.5)
		fixOrder = true
	}

	for i := 0; i < n; i++ {
		axis := n - 1 - i
		sel.I1[axis] = int64(tmpI1[i])
		sel.I2[axis] = int64(tmpI2[i])
		sel.Mode[axis] = tmpMode[i]
	}
	for i := 0; i < sel.Naxes; i++ {
		if sel.Mode[i] == Single {
			sel.I2[i] = sel.I1[i] + 1
		}
	}
	sel.FixOrder = fixOrder
	return sel, nil
}
