package decode

import (
	"testing"

	"github.com/ausocean/vbi/config"
	"github.com/ausocean/vbi/finder"
	"github.com/ausocean/vbi/signal"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.New(config.CardBT8x8)
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("cfg.Validate: %v", err)
	}
	return cfg
}

// synthesizeLine builds a raw scanline that, once aligned, decodes to
// exactly data: it renders the expanded guess buffer d would itself build
// for data, onto a sample grid whose Clock Run-In begins at offset.
func synthesizeLine(cfg config.Config, offset float64, data [NDataBytes]byte) []float64 {
	d := NewDecoder(cfg)
	for n, b := range data {
		signal.SetByte(d.guess[:], n+3, b)
	}
	samples := make([]float64, cfg.LineLength)
	sampleX := make([]float64, cfg.LineLength)
	for i := range sampleX {
		sampleX[i] = float64(i) - offset
	}
	copy(samples, signal.InterpLinear(d.interpX[:], d.guess[:], sampleX, 0))
	return samples
}

func syntheticPacket(mrag0, mrag1 byte, text string) [NDataBytes]byte {
	var p [NDataBytes]byte
	p[0] = signal.Hamm(mrag0)
	p[1] = signal.Hamm(mrag1)
	for n := 2; n < NDataBytes; n++ {
		p[n] = oddParity('0')
	}
	for i := 0; i < len(text) && 10+i < NDataBytes; i++ {
		p[10+i] = oddParity(text[i])
	}
	return p
}

func oddParity(c byte) byte {
	c &= 0x7f
	ones := 0
	for i := 0; i < 7; i++ {
		if c&(1<<uint(i)) != 0 {
			ones++
		}
	}
	if ones%2 == 1 {
		return c
	}
	return c | 0x80
}

func TestDecodeCleanLine(t *testing.T) {
	cfg := testConfig(t)
	want := syntheticPacket(5, 6, "DECK")
	line := synthesizeLine(cfg, 103, want)

	d := NewDecoder(cfg)
	got, alignOK := d.Decode(line, nil)
	if !alignOK {
		t.Error("expected alignment to converge")
	}
	if got != want {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestAlignConvergesWithinBracket(t *testing.T) {
	cfg := testConfig(t)
	want := syntheticPacket(1, 1, "ALGN")

	for _, offset := range []float64{float64(cfg.LineStartMin) + 1, 100, float64(cfg.LineStartMax) - 1} {
		line := synthesizeLine(cfg, offset, want)
		d := NewDecoder(cfg)
		_, alignOK := d.Decode(line, nil)
		if !alignOK {
			t.Errorf("offset %v: expected alignment to converge", offset)
		}
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	cfg := testConfig(t)
	want := syntheticPacket(2, 3, "IDEM")
	line := synthesizeLine(cfg, 103, want)

	d := NewDecoder(cfg)
	got1, _ := d.Decode(line, nil)
	got2, _ := d.Decode(line, nil)
	if got1 != got2 {
		t.Errorf("decoding the same line twice gave different results: %#v vs %#v", got1, got2)
	}
}

func TestDeconvolveIdempotentOnConvergedState(t *testing.T) {
	cfg := testConfig(t)
	want := syntheticPacket(4, 7, "STBL")
	line := synthesizeLine(cfg, 103, want)

	d := NewDecoder(cfg)
	d.reset(line)
	d.alignOK = d.align()
	d.makeGuessMask()
	d.makePossibleBytes(seedAlphabet())
	d.computeTarget()
	d.resetBytes()

	first := d.deconvolve()
	iterationsAfterFirst := d.iterations

	// Calling deconvolve again without resetBytes, with unchanged
	// possibleBytes/target, must reach the same fixed point immediately.
	second := d.deconvolve()

	if first != second {
		t.Errorf("deconvolve not idempotent: %#v vs %#v", first, second)
	}
	if d.iterations != iterationsAfterFirst+1 {
		t.Errorf("expected exactly one additional sweep on the second call, got %d more", d.iterations-iterationsAfterFirst)
	}
}

func TestMakePossibleBytesFallsBackWhenMaskExcludesEverything(t *testing.T) {
	cfg := testConfig(t)
	d := NewDecoder(cfg)

	// A mask that's internally inconsistent (forces a bit both 0 and 1)
	// admits nothing from the seed alphabet at that position.
	d.mask0[5] = 0x00
	d.mask1[5] = 0xff
	d.makePossibleBytes(seedAlphabet())

	if len(d.possibleBytes[5]) == 0 {
		t.Error("expected makePossibleBytes to fall back to the unfiltered seed alphabet rather than leave a position with no candidates")
	}
}

func TestDecodeWithFinderDispatchesAndFixesUp(t *testing.T) {
	cfg := testConfig(t)
	want := syntheticPacket(0, 2, "BBC1")
	line := synthesizeLine(cfg, 103, want)

	d := NewDecoder(cfg)
	finders := finder.NewSet(finder.NewBBC1())
	got, _ := d.Decode(line, finders)

	for i, c := range []byte("BBC1") {
		if got[10+i]&0x7f != c {
			t.Errorf("header byte %d = %#x, want ASCII %q", i, got[10+i], c)
		}
	}
}

func TestStddev(t *testing.T) {
	v := []float64{1, 1, 1, 1}
	if got := stddev(v); got != 0 {
		t.Errorf("stddev of a constant vector = %v, want 0", got)
	}
}
