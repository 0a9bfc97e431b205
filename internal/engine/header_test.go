package engine

import (
	"fmt"
	"strings"
	"testing"
)

// card formats a single 80-byte FITS header card with the given keyword and
// already-formatted 20-byte value field.
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
	return line + strings.Repeat(" ", CardSize-len(line))
}

// buildHeader assembles a minimal 2880-byte primary header from the given
// cards, space-filling the remainder of the block and terminating with END.
func buildHeader(cards ...string) []byte {
	buf := make([]byte, HeaderBlockSize)
	for i := range buf {
		buf[i] = ' '
	}
	pos := 0
	for _, c := range cards {
		copy(buf[pos:pos+CardSize], c)
		pos += CardSize
	}
	end := "END" + strings.Repeat(" ", 5)
	copy(buf[pos:pos+CardSize], end+strings.Repeat(" ", CardSize-len(end)))
	return buf
}

func simpleHeaderCards(naxis1, naxis2, naxis3 int64) []string {
	cards := []string{
		card("BITPIX", fmt.Sprintf("%20d", 16)),
		card("NAXIS", fmt.Sprintf("%20d", 3)),
		card("NAXIS1", fmt.Sprintf("%20d", naxis1)),
		card("NAXIS2", fmt.Sprintf("%20d", naxis2)),
		card("NAXIS3", fmt.Sprintf("%20d", naxis3)),
		card("CRPIX1", fmt.Sprintf("%20.8f", 1.0)),
		card("CRPIX2", fmt.Sprintf("%20.8f", 1.0)),
		card("CDELT1", fmt.Sprintf("%20.15f", -0.1)),
		card("CDELT2", fmt.Sprintf("%20.15f", 0.1)),
		card("CRVAL1", fmt.Sprintf("%20.8f", 0.0)),
		card("CRVAL2", fmt.Sprintf("%20.8f", 0.0)),
		card("CTYPE1", "'RA---CAR'          "),
		card("CTYPE2", "'DEC--CAR'          "),
	}
	return cards
}

func TestParseHeader_Basic(t *testing.T) {
	buf := buildHeader(simpleHeaderCards(3600, 10, 4)...)

	hi, err := ParseHeader(buf, 10)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if hi.Bitpix != 16 {
		t.Errorf("Bitpix = %d, want 16", hi.Bitpix)
	}
	if hi.Naxes != 3 {
		t.Errorf("Naxes = %d, want 3", hi.Naxes)
	}
	wantNaxis := []int64{3600, 10, 4}
	for i, want := range wantNaxis {
		if hi.Naxis[i] != want {
			t.Errorf("Naxis[%d] = %d, want %d", i, hi.Naxis[i], want)
		}
	}
	if hi.HasWcsaxes {
		t.Error("HasWcsaxes = true, want false (WCSAXES card absent)")
	}
}

func TestParseHeader_MissingBitpix(t *testing.T) {
	cards := simpleHeaderCards(10, 10, 1)
	// drop BITPIX
	buf := buildHeader(cards[1:]...)
	if _, err := ParseHeader(buf, 10); err == nil {
		t.Error("expected error for missing BITPIX, got nil")
	}
}

func TestParseHeader_MissingCdeltOnWcsAxis(t *testing.T) {
	buf := buildHeader(
		card("BITPIX", fmt.Sprintf("%20d", 16)),
		card("NAXIS", fmt.Sprintf("%20d", 2)),
		card("NAXIS1", fmt.Sprintf("%20d", 10)),
		card("NAXIS2", fmt.Sprintf("%20d", 10)),
		card("CRPIX1", fmt.Sprintf("%20.8f", 1.0)),
		// CDELT1 intentionally missing
	)
	if _, err := ParseHeader(buf, 10); err == nil {
		t.Error("expected error for missing CDELT1, got nil")
	}
}

func TestParseHeader_TooShort(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 100), 10); err == nil {
		t.Error("expected error for undersized buffer, got nil")
	}
}

func TestRewriteHeader_RoundTrip(t *testing.T) {
	buf := buildHeader(simpleHeaderCards(3600, 10, 4)...)
	hi, err := ParseHeader(buf, 10)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}

	hi.Naxis[0] = 200
	hi.Crpix[0] = 51.5
	RewriteHeader(buf, hi)

	hi2, err := ParseHeader(buf, 10)
	if err != nil {
		t.Fatalf("ParseHeader after rewrite: %v", err)
	}
	if hi2.Naxis[0] != 200 {
		t.Errorf("Naxis[0] after rewrite = %d, want 200", hi2.Naxis[0])
	}
	if hi2.Crpix[0] != 51.5 {
		t.Errorf("Crpix[0] after rewrite = %v, want 51.5", hi2.Crpix[0])
	}
	if hi2.Naxis[1] != 10 || hi2.Naxis[2] != 4 {
		t.Error("rewrite disturbed fields it should not have touched")
	}
}

func TestPruneHeader_DropsHigherAxes(t *testing.T) {
	buf := buildHeader(simpleHeaderCards(3600, 10, 4)...)
	// PruneHeader removes NAXISn cards only; set NAXIS to the target rank
	// first, as BuildPlan does, so the pruned header is self-consistent.
	src, err := ParseHeader(buf, 10)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	src.Naxes = 2
	RewriteHeader(buf, src)
	pruned := PruneHeader(buf, 2)

	hi, err := ParseHeader(pruned, 10)
	if err != nil {
		t.Fatalf("ParseHeader on pruned header: %v", err)
	}
	if hi.NaxisPos[2] != -1 {
		t.Error("NAXIS3 card survived pruning to rank 2")
	}
	if hi.NaxisPos[0] == -1 || hi.NaxisPos[1] == -1 {
		t.Error("pruning to rank 2 should keep NAXIS1 and NAXIS2")
	}
}

func TestAxisIndex(t *testing.T) {
	cases := []struct {
		keyword, prefix string
		wantIdx         int
		wantOK          bool
	}{
		{"NAXIS1", "NAXIS", 0, true},
		{"NAXIS12", "NAXIS", 11, true},
		{"NAXIS", "NAXIS", 0, false},
		{"CRPIXA", "CRPIX", 0, false},
		{"BITPIX", "NAXIS", 0, false},
	}
	for _, c := range cases {
		idx, ok := axisIndex(c.keyword, c.prefix)
		if ok != c.wantOK || (ok && idx != c.wantIdx) {
			t.Errorf("axisIndex(%q, %q) = (%d, %v), want (%d, %v)", c.keyword, c.prefix, idx, ok, c.wantIdx, c.wantOK)
		}
	}
}
