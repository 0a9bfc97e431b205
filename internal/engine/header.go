package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amaurea/fitsslice/pkg/slice"
)

const (
	// HeaderBlockSize is the size in bytes of one FITS header block.
	HeaderBlockSize = 2880
	// CardSize is the size in bytes of one FITS header card.
	CardSize = 80
	// CardsPerBlock is the number of 80-byte cards in one header block.
	CardsPerBlock = HeaderBlockSize / CardSize
	// keywordLen is the width of the keyword field (columns 1-8).
	keywordLen = 8
	// valueFieldOffset is the byte offset of the value field within a card
	// (column 11, 0-based).
	valueFieldOffset = 10
	// valueFieldLen is the width of the value field (columns 11-30).
	valueFieldLen = 20
)

// HeaderInfo is a structured view over a 2880-byte FITS primary header. For
// every recognized keyword it records both the parsed value and the byte
// offset of that keyword's 20-character value field within the original
// buffer, so the same structure can later be rewritten in place without
// reparsing or reserializing the rest of the header.
type HeaderInfo struct {
	Bitpix    int
	BitpixPos int

	Naxes    int
	NaxesPos int

	Wcsaxes    int
	WcsaxesPos int
	HasWcsaxes bool

	Naxis    []int64
	NaxisPos []int

	Crpix    []float64
	CrpixPos []int

	Cdelt    []float64
	CdeltPos []int
}

func newHeaderInfo(naxisMax int) *HeaderInfo {
	hi := &HeaderInfo{
		BitpixPos:  -1,
		NaxesPos:   -1,
		WcsaxesPos: -1,
		Naxis:      make([]int64, naxisMax),
		NaxisPos:   make([]int, naxisMax),
		Crpix:      make([]float64, naxisMax),
		CrpixPos:   make([]int, naxisMax),
		Cdelt:      make([]float64, naxisMax),
		CdeltPos:   make([]int, naxisMax),
	}
	for i := range hi.NaxisPos {
		hi.NaxisPos[i] = -1
		hi.CrpixPos[i] = -1
		hi.CdeltPos[i] = -1
	}
	return hi
}

// axisIndex checks whether keyword is prefix followed by a 1-based decimal
// axis number, returning the 0-based index. It does not match the bare
// keyword equal to prefix (no trailing digits).
func axisIndex(keyword, prefix string) (int, bool) {
	if !strings.HasPrefix(keyword, prefix) {
		return 0, false
	}
	suffix := keyword[len(prefix):]
	if suffix == "" {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n - 1, true
}

// ParseHeader scans all 36 cards of a 2880-byte FITS primary header buffer
// and builds a HeaderInfo. naxisMax caps the number of per-axis keywords
// recognized.
//
// When WCSAXES is absent, the longitude and latitude axes (0 and 1) are
// still required to carry CRPIXn/CDELTn: the planner and writer depend on
// both regardless of whether the header advertises a WCS axis count.
func ParseHeader(buf []byte, naxisMax int) (*HeaderInfo, error) {
	if len(buf) < HeaderBlockSize {
		return nil, fmt.Errorf("%w: header buffer shorter than %d bytes", slice.ErrHeaderParse, HeaderBlockSize)
	}
	hi := newHeaderInfo(naxisMax)

	for row := 0; row < CardsPerBlock; row++ {
		card := buf[row*CardSize : (row+1)*CardSize]
		keyword := strings.TrimRight(string(card[:keywordLen]), " ")
		if keyword == "" {
			continue
		}
		valueStart := row*CardSize + valueFieldOffset
		field := string(card[valueFieldOffset : valueFieldOffset+valueFieldLen])

		switch {
		case keyword == "BITPIX":
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("%w: BITPIX: %v", slice.ErrHeaderParse, err)
			}
			hi.Bitpix, hi.BitpixPos = v, valueStart
		case keyword == "NAXIS":
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("%w: NAXIS: %v", slice.ErrHeaderParse, err)
			}
			if v > naxisMax {
				v = naxisMax
			}
			hi.Naxes, hi.NaxesPos = v, valueStart
		case keyword == "WCSAXES":
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("%w: WCSAXES: %v", slice.ErrHeaderParse, err)
			}
			if v > naxisMax {
				v = naxisMax
			}
			hi.Wcsaxes, hi.WcsaxesPos, hi.HasWcsaxes = v, valueStart, true
		case strings.HasPrefix(keyword, "NAXIS"):
			n, ok := axisIndex(keyword, "NAXIS")
			if !ok {
				continue
			}
			if n < 0 || n >= naxisMax {
				return nil, fmt.Errorf("%w: axis index out of range in %s", slice.ErrHeaderParse, keyword)
			}
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", slice.ErrHeaderParse, keyword, err)
			}
			hi.Naxis[n], hi.NaxisPos[n] = int64(v), valueStart
		case strings.HasPrefix(keyword, "CRPIX"):
			n, ok := axisIndex(keyword, "CRPIX")
			if !ok {
				continue
			}
			if n < 0 || n >= naxisMax {
				return nil, fmt.Errorf("%w: axis index out of range in %s", slice.ErrHeaderParse, keyword)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", slice.ErrHeaderParse, keyword, err)
			}
			hi.Crpix[n], hi.CrpixPos[n] = v, valueStart
		case strings.HasPrefix(keyword, "CDELT"):
			n, ok := axisIndex(keyword, "CDELT")
			if !ok {
				continue
			}
			if n < 0 || n >= naxisMax {
				return nil, fmt.Errorf("%w: axis index out of range in %s", slice.ErrHeaderParse, keyword)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", slice.ErrHeaderParse, keyword, err)
			}
			hi.Cdelt[n], hi.CdeltPos[n] = v, valueStart
		}
	}

	if hi.BitpixPos == -1 {
		return nil, fmt.Errorf("%w: missing BITPIX", slice.ErrHeaderParse)
	}
	if hi.NaxesPos == -1 {
		return nil, fmt.Errorf("%w: missing NAXIS", slice.ErrHeaderParse)
	}
	for i := 0; i < hi.Naxes; i++ {
		if hi.NaxisPos[i] == -1 {
			return nil, fmt.Errorf("%w: missing NAXIS%d", slice.ErrHeaderParse, i+1)
		}
	}
	wcsaxes := hi.Wcsaxes
	if !hi.HasWcsaxes {
		wcsaxes = 2
		if hi.Naxes < 2 {
			wcsaxes = hi.Naxes
		}
	}
	for i := 0; i < wcsaxes; i++ {
		if hi.CrpixPos[i] == -1 || hi.CdeltPos[i] == -1 {
			return nil, fmt.Errorf("%w: missing CRPIX%d/CDELT%d", slice.ErrHeaderParse, i+1, i+1)
		}
	}
	return hi, nil
}

// writeField formats s into the 20-byte value field at byte offset pos,
// right-justified and space-padded to valueFieldLen. It is the caller's
// responsibility to ensure s is no longer than valueFieldLen; longer values
// are right-truncated, mirroring the original C implementation's fixed
// snprintf buffer.
func writeField(buf []byte, pos int, s string) {
	if len(s) > valueFieldLen {
		s = s[:valueFieldLen]
	} else if len(s) < valueFieldLen {
		s = strings.Repeat(" ", valueFieldLen-len(s)) + s
	}
	copy(buf[pos:pos+valueFieldLen], s)
}

// RewriteHeader overwrites each recorded value field of buf with a freshly
// formatted representation of hi's current values. Integer fields use
// %20d, CRPIXn uses %20.8f, CDELTn uses %20.15f. All other bytes of buf are
// left untouched, preserving comments and unrecognized cards verbatim.
func RewriteHeader(buf []byte, hi *HeaderInfo) {
	writeField(buf, hi.BitpixPos, fmt.Sprintf("%20d", hi.Bitpix))
	writeField(buf, hi.NaxesPos, fmt.Sprintf("%20d", hi.Naxes))
	if hi.HasWcsaxes {
		writeField(buf, hi.WcsaxesPos, fmt.Sprintf("%20d", hi.Wcsaxes))
	}
	for i, pos := range hi.NaxisPos {
		if pos == -1 {
			continue
		}
		writeField(buf, pos, fmt.Sprintf("%20d", hi.Naxis[i]))
	}
	for i, pos := range hi.CrpixPos {
		if pos == -1 {
			continue
		}
		writeField(buf, pos, fmt.Sprintf("%20.8f", hi.Crpix[i]))
	}
	for i, pos := range hi.CdeltPos {
		if pos == -1 {
			continue
		}
		writeField(buf, pos, fmt.Sprintf("%20.15f", hi.Cdelt[i]))
	}
}

// PruneHeader copies src to a new 2880-byte header, dropping any NAXISn
// card with n greater than targetRank. Remaining cards compact upward;
// trailing cards are filled with ASCII space.
func PruneHeader(src []byte, targetRank int) []byte {
	out := make([]byte, HeaderBlockSize)
	for i := range out {
		out[i] = ' '
	}
	cardOut := 0
	for row := 0; row < CardsPerBlock; row++ {
		card := src[row*CardSize : (row+1)*CardSize]
		keyword := strings.TrimRight(string(card[:keywordLen]), " ")
		if n, ok := axisIndex(keyword, "NAXIS"); ok && n+1 > targetRank {
			continue
		}
		copy(out[cardOut*CardSize:(cardOut+1)*CardSize], card)
		cardOut++
	}
	return out
}
