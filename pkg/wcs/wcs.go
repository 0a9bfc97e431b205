// Package wcs is a minimal FITS World Coordinate System collaborator: it
// parses the projection keywords out of a primary header and converts
// sky coordinates (degrees) to fractional pixel coordinates.
//
// No general-purpose WCS library exists in this codebase's dependency
// corpus, so this package is hand-written, grounded on two sources: the
// axis-pinning shape of wcslib's wcspih/wcss2p API (longitude fixed to
// axis 0, latitude fixed to axis 1, sidestepping automatic axis
// detection), and the fixed-width 80-byte FITS card scanning idiom used
// elsewhere in this dependency corpus for reading WCS solutions out of
// plate-solver output files.
//
// Only the two projections reachable from a cylindrical-wrap slicing
// engine are supported: CAR (plate carrée, exact and linear) and TAN
// (gnomonic, a first-order implementation without CD-matrix cross terms).
package wcs

import (
	"fmt"
	"strconv"
	"strings"
)

// Projection identifies the supported sky projections.
type Projection int

const (
	// CAR is the plate carrée (cylindrical equidistant) projection: pixel
	// coordinates are a linear function of (lon, lat). This is the
	// projection the slicing engine's wrap-around logic assumes.
	CAR Projection = iota
	// TAN is the gnomonic (tangent-plane) projection.
	TAN
)

func (p Projection) String() string {
	switch p {
	case CAR:
		return "CAR"
	case TAN:
		return "TAN"
	default:
		return "UNKNOWN"
	}
}

// WCS is a parsed, minimal world-coordinate solution for the first two
// axes of a FITS primary header.
type WCS struct {
	Proj Projection

	// CRVAL, CRPIX, CDELT hold axis-0 (longitude) and axis-1 (latitude)
	// values, 1-based FITS pixel convention for CRPIX.
	CRVAL [2]float64
	CRPIX [2]float64
	CDELT [2]float64

	// CROTA is the rotation of axis 1 relative to axis 0, in degrees.
	CROTA float64

	// LngAxis and LatAxis are always 0 and 1: the engine pins these
	// explicitly rather than relying on CTYPE-based axis detection,
	// sidestepping wcslib's automatic axis-pairing step entirely.
	LngAxis, LatAxis int
}

const (
	headerBlockSize  = 2880
	cardSize         = 80
	cardsPerBlock    = headerBlockSize / cardSize
	keywordLen       = 8
	valueFieldOffset = 10
	valueFieldLen    = 20
)

// cardValue extracts and normalizes the value portion of an 80-byte FITS
// card: strips the trailing '/' comment, trims whitespace, and strips
// surrounding quotes from string values.
func cardValue(card []byte) string {
	field := string(card[valueFieldOffset : valueFieldOffset+valueFieldLen])
	if idx := strings.IndexByte(field, '/'); idx != -1 {
		field = field[:idx]
	}
	field = strings.TrimSpace(field)
	field = strings.Trim(field, "'")
	return strings.TrimSpace(field)
}

// Parse scans a 2880-byte FITS primary header and builds a WCS solution
// for axes 0 and 1 (CRVAL1/2, CRPIX1/2, CDELT1/2, CROTA2, CTYPE1/2).
func Parse(header []byte) (*WCS, error) {
	if len(header) < headerBlockSize {
		return nil, fmt.Errorf("wcs: header shorter than %d bytes", headerBlockSize)
	}
	w := &WCS{LngAxis: 0, LatAxis: 1}
	var ctype1, ctype2 string
	var haveCRVAL [2]bool
	var haveCRPIX [2]bool
	var haveCDELT [2]bool

	for row := 0; row < cardsPerBlock; row++ {
		card := header[row*cardSize : (row+1)*cardSize]
		keyword := strings.TrimRight(string(card[:keywordLen]), " ")
		switch keyword {
		case "CRVAL1", "CRVAL2":
			v, err := strconv.ParseFloat(cardValue(card), 64)
			if err != nil {
				continue
			}
			idx := int(keyword[5] - '1')
			w.CRVAL[idx] = v
			haveCRVAL[idx] = true
		case "CRPIX1", "CRPIX2":
			v, err := strconv.ParseFloat(cardValue(card), 64)
			if err != nil {
				continue
			}
			idx := int(keyword[5] - '1')
			w.CRPIX[idx] = v
			haveCRPIX[idx] = true
		case "CDELT1", "CDELT2":
			v, err := strconv.ParseFloat(cardValue(card), 64)
			if err != nil {
				continue
			}
			idx := int(keyword[5] - '1')
			w.CDELT[idx] = v
			haveCDELT[idx] = true
		case "CROTA2":
			if v, err := strconv.ParseFloat(cardValue(card), 64); err == nil {
				w.CROTA = v
			}
		case "CTYPE1":
			ctype1 = cardValue(card)
		case "CTYPE2":
			ctype2 = cardValue(card)
		}
	}

	if !haveCRVAL[0] || !haveCRVAL[1] || !haveCRPIX[0] || !haveCRPIX[1] || !haveCDELT[0] || !haveCDELT[1] {
		return nil, fmt.Errorf("wcs: missing CRVAL/CRPIX/CDELT for axes 1/2")
	}

	w.Proj = CAR
	if strings.HasSuffix(ctype1, "-TAN") || strings.HasSuffix(ctype2, "-TAN") {
		w.Proj = TAN
	}
	return w, nil
}
