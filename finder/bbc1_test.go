package finder

import (
	"testing"

	"github.com/ausocean/vbi/signal"
)

// packetForMagRow builds a draft packet with the given magazine/row MRAG
// and header text, filling every other byte (including the page/control
// bytes 2..9) with an arbitrary odd-parity value.
func packetForMagRow(t *testing.T, mag, row byte, text string) Packet {
	t.Helper()
	var p Packet
	p[mragMag0] = mragByte0(row)
	p[mragMag1] = mragByte1(mag, row)
	for n := 2; n < headerTextStart; n++ {
		p[n] = oddParityVariants('0')[0]
	}
	for i := 0; i < headerTextLen; i++ {
		p[headerTextStart+i] = oddParityVariants(text[i])[0]
	}
	for n := headerTextStart + headerTextLen; n < NDataBytes; n++ {
		p[n] = oddParityVariants(' ')[0]
	}
	return p
}

func TestBBC1FindMatches(t *testing.T) {
	f := NewBBC1()
	p := packetForMagRow(t, 1, 0, "BBC1")
	if !f.Find(p) {
		t.Fatal("expected BBC1 finder to match magazine 1 row 0 with BBC1 header")
	}
}

func TestBBC1FindRejectsWrongRow(t *testing.T) {
	f := NewBBC1()
	p := packetForMagRow(t, 1, 5, "BBC1")
	if f.Find(p) {
		t.Error("expected no match for row 5")
	}
}

func TestBBC1FindRejectsWrongMagazine(t *testing.T) {
	f := NewBBC1()
	p := packetForMagRow(t, 2, 0, "BBC1")
	if f.Find(p) {
		t.Error("expected no match for magazine 2")
	}
}

func TestBBC1FindRejectsWrongServiceID(t *testing.T) {
	f := NewBBC1()
	p := packetForMagRow(t, 1, 0, "ITV1")
	if f.Find(p) {
		t.Error("expected no match for a different service identifier")
	}
}

func TestBBC1FixupRegeneratesHeaderOnly(t *testing.T) {
	f := NewBBC1()
	p := packetForMagRow(t, 1, 0, "BBC1")
	p[NDataBytes-1] = 0x2a // a tail byte the header fields never touch
	if !f.Find(p) {
		t.Fatal("setup: expected match")
	}

	// Mutating the caller's copy after Find must not affect what Fixup
	// returns: Find stashed its own copy of the draft.
	p[NDataBytes-1] = 0x00
	fixed := f.Fixup()

	if fixed[mragMag0] != mragByte0(0) || fixed[mragMag1] != mragByte1(1, 0) {
		t.Error("Fixup did not regenerate the MRAG bytes")
	}
	for i, c := range bbc1ServiceID {
		if fixed[headerTextStart+i]&0x7f != c {
			t.Errorf("Fixup header byte %d = %#x, want ASCII %q", i, fixed[headerTextStart+i], c)
		}
	}
	if fixed[NDataBytes-1] != 0x2a {
		t.Error("Fixup should leave bytes outside the header exactly as the draft Find saw left them")
	}
}

func TestBBC1PossibleBytesNarrowsHeader(t *testing.T) {
	f := NewBBC1()
	a := f.PossibleBytes()
	if len(a[mragMag0]) != 1 || a[mragMag0][0] != mragByte0(0) {
		t.Error("expected a singleton MRAG byte 0 alphabet for magazine 1 row 0")
	}
	if len(a[mragMag1]) != 1 || a[mragMag1][0] != mragByte1(1, 0) {
		t.Error("expected a singleton MRAG byte 1 alphabet for magazine 1 row 0")
	}
	for i, c := range bbc1ServiceID {
		want := oddParityVariants(c)
		got := a[headerTextStart+i]
		if len(got) != 1 || got[0] != want[0] {
			t.Errorf("header byte %d alphabet = %v, want %v", i, got, want)
		}
	}
	if len(a[NDataBytes-1]) == 0 {
		t.Error("expected the tail alphabet to still be populated")
	}
}

func TestMragRoundTrip(t *testing.T) {
	for mag := byte(1); mag <= 8; mag++ {
		b0 := mragByte0(0)
		b1 := mragByte1(mag, 0)
		y1 := signal.Unhamm(b0)
		y2 := signal.Unhamm(b1)
		gotRow := y1 | (y2&0x1)<<4
		gotMag := (y2 >> 1) & 0x7
		if gotMag == 0 {
			gotMag = 8
		}
		if gotRow != 0 {
			t.Errorf("mag %d: row round-trip = %d, want 0", mag, gotRow)
		}
		if gotMag != mag {
			t.Errorf("mag round-trip = %d, want %d", gotMag, mag)
		}
	}
}
