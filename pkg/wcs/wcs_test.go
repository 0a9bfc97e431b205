package wcs

import (
	"math"
	"strings"
	"testing"
)

func card(keyword, value string) string {
	kw := keyword
	if len(kw) < 8 {
		kw += strings.Repeat(" ", 8-len(kw))
	}
	v := value
	if len(v) < 20 {
		v = strings.Repeat(" ", 20-len(v)) + v
	}
	line := kw + "= " + v
	return line + strings.Repeat(" ", 80-len(line))
}

func buildHeader(cards ...string) []byte {
	buf := make([]byte, headerBlockSize)
	for i := range buf {
		buf[i] = ' '
	}
	pos := 0
	for _, c := range cards {
		copy(buf[pos:pos+cardSize], c)
		pos += cardSize
	}
	return buf
}

func carHeader() []byte {
	return buildHeader(
		card("CRVAL1", "           120.50000"),
		card("CRVAL2", "            45.20000"),
		card("CRPIX1", "           512.00000"),
		card("CRPIX2", "           512.00000"),
		card("CDELT1", "    -0.000277777778"),
		card("CDELT2", "     0.000277777778"),
		card("CTYPE1", "'RA---CAR'          "),
		card("CTYPE2", "'DEC--CAR'          "),
	)
}

func TestParse_CAR(t *testing.T) {
	w, err := Parse(carHeader())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if w.Proj != CAR {
		t.Errorf("Proj = %v, want CAR", w.Proj)
	}
	if w.CRVAL[0] != 120.5 || w.CRVAL[1] != 45.2 {
		t.Errorf("CRVAL = %v, want [120.5 45.2]", w.CRVAL)
	}
}

func TestParse_MissingKeyword(t *testing.T) {
	buf := buildHeader(card("CRVAL1", "           120.50000"))
	if _, err := Parse(buf); err == nil {
		t.Error("expected error for header missing CRPIX/CDELT")
	}
}

func TestParse_TooShort(t *testing.T) {
	if _, err := Parse(make([]byte, 10)); err == nil {
		t.Error("expected error for undersized header buffer")
	}
}

func TestWorldToPixel_CAR_ReferencePointMapsToCRPIX(t *testing.T) {
	w, err := Parse(carHeader())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	px, py, err := w.WorldToPixel([]float64{120.5}, []float64{45.2})
	if err != nil {
		t.Fatalf("WorldToPixel: %v", err)
	}
	if math.Abs(px[0]-w.CRPIX[0]) > 1e-9 {
		t.Errorf("px = %v, want CRPIX[0] = %v", px[0], w.CRPIX[0])
	}
	if math.Abs(py[0]-w.CRPIX[1]) > 1e-9 {
		t.Errorf("py = %v, want CRPIX[1] = %v", py[0], w.CRPIX[1])
	}
}

func TestWorldToPixel_CAR_IsLinear(t *testing.T) {
	w, err := Parse(carHeader())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	px, py, err := w.WorldToPixel([]float64{121.5}, []float64{46.2})
	if err != nil {
		t.Fatalf("WorldToPixel: %v", err)
	}
	wantPx := w.CRPIX[0] + (121.5-w.CRVAL[0])/w.CDELT[0]
	wantPy := w.CRPIX[1] + (46.2-w.CRVAL[1])/w.CDELT[1]
	if math.Abs(px[0]-wantPx) > 1e-6 {
		t.Errorf("px = %v, want %v", px[0], wantPx)
	}
	if math.Abs(py[0]-wantPy) > 1e-6 {
		t.Errorf("py = %v, want %v", py[0], wantPy)
	}
}

func TestWorldToPixel_LengthMismatch(t *testing.T) {
	w, err := Parse(carHeader())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, _, err := w.WorldToPixel([]float64{1, 2}, []float64{1}); err == nil {
		t.Error("expected error for mismatched lon/lat lengths")
	}
}

func TestWorldToPixel_TAN_ReferencePointMapsToCRPIX(t *testing.T) {
	buf := carHeader()
	// Flip CTYPE to TAN in place by overwriting the relevant cards.
	copy(buf[6*cardSize:7*cardSize], card("CTYPE1", "'RA---TAN'          "))
	copy(buf[7*cardSize:8*cardSize], card("CTYPE2", "'DEC--TAN'          "))

	w, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if w.Proj != TAN {
		t.Fatalf("Proj = %v, want TAN", w.Proj)
	}
	px, py, err := w.WorldToPixel([]float64{120.5}, []float64{45.2})
	if err != nil {
		t.Fatalf("WorldToPixel: %v", err)
	}
	if math.Abs(px[0]-w.CRPIX[0]) > 1e-6 {
		t.Errorf("px = %v, want CRPIX[0] = %v", px[0], w.CRPIX[0])
	}
	if math.Abs(py[0]-w.CRPIX[1]) > 1e-6 {
		t.Errorf("py = %v, want CRPIX[1] = %v", py[0], w.CRPIX[1])
	}
}
