package signal

import (
	"math"
	"testing"
)

func TestSetByte(t *testing.T) {
	buf := make([]float64, 47*BitsPerByte)
	SetByte(buf, -1, 0x00)
	SetByte(buf, 0, 0x55)
	SetByte(buf, 1, 0x27)

	want := []byte{0x00, 0x55, 0x27}
	for n, b := range want {
		base := n * BitsPerByte
		for i := 0; i < BitsPerByte; i++ {
			bit := (b >> uint(i)) & 1
			want := 0.0
			if bit != 0 {
				want = 255
			}
			if buf[base+i] != want {
				t.Errorf("byte %d bit %d: got %v, want %v", n-1, i, buf[base+i], want)
			}
		}
	}
}

func TestNormalise(t *testing.T) {
	v := []float64{10, 20, 30, 40}
	out := Normalise(v)
	if out[0] != 0 || out[3] != 255 {
		t.Fatalf("got %v, want min=0 max=255", out)
	}
	mid := out[1]
	if mid <= 0 || mid >= 255 {
		t.Fatalf("midpoint %v not strictly between bounds", mid)
	}
}

func TestNormaliseConstant(t *testing.T) {
	v := []float64{5, 5, 5}
	out := Normalise(v)
	for _, x := range out {
		if x != 0 {
			t.Fatalf("constant input should normalise to all zero, got %v", out)
		}
	}
}

func TestInterpLinear(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{0, 10, 20, 30}
	query := []float64{-1, 0, 0.5, 1.5, 3, 4}
	out := InterpLinear(xs, ys, query, -1)
	want := []float64{-1, 0, 5, 15, 30, -1}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Errorf("index %d: got %v, want %v", i, out[i], want[i])
		}
	}
}

func TestGaussPreservesLength(t *testing.T) {
	v := make([]float64, 2048)
	for i := range v {
		v[i] = float64(i % 7)
	}
	out := Gauss(v, 5.5)
	if len(out) != len(v) {
		t.Fatalf("got length %d, want %d", len(out), len(v))
	}
}

func TestGaussSmoothsImpulse(t *testing.T) {
	v := make([]float64, 101)
	v[50] = 255
	out := Gauss(v, 5.5)
	if out[50] >= 255 {
		t.Fatalf("impulse peak should be attenuated by smoothing, got %v", out[50])
	}
	if out[45] <= 0 {
		t.Fatalf("smoothing should spread energy to neighbouring samples, got %v at offset -5", out[45])
	}
}

func TestHammBytesCount(t *testing.T) {
	if len(HammBytes) != 16 {
		t.Fatalf("got %d hamming codewords, want 16", len(HammBytes))
	}
	seen := map[byte]bool{}
	for _, b := range HammBytes {
		if seen[b] {
			t.Fatalf("duplicate hamming codeword %#x", b)
		}
		seen[b] = true
	}
}

func TestHammRoundTrip(t *testing.T) {
	for d := byte(0); d < 16; d++ {
		enc := Hamm(d)
		if got := Unhamm(enc); got != d {
			t.Errorf("Hamm(%d) = %#x, Unhamm -> %d, want %d", d, enc, got, d)
		}
	}
}

func TestParityBytesCount(t *testing.T) {
	if len(ParityBytes) != 128 {
		t.Fatalf("got %d odd-parity bytes, want 128", len(ParityBytes))
	}
	for _, b := range ParityBytes {
		ones := 0
		for i := 0; i < 8; i++ {
			if b&(1<<uint(i)) != 0 {
				ones++
			}
		}
		if ones%2 != 1 {
			t.Errorf("byte %#x has even parity", b)
		}
	}
}

func TestAllBytesCount(t *testing.T) {
	if len(AllBytes) != 256 {
		t.Fatalf("got %d, want 256", len(AllBytes))
	}
}
