package gen

import (
	"math/bits"
	"testing"

	"github.com/bemasher/rtlbch/bch"
	"github.com/bemasher/rtlbch/protocol"

	_ "github.com/bemasher/rtlbch/pocsag"
	_ "github.com/bemasher/rtlbch/raw"
)

func TestRandBits(t *testing.T) {
	for _, width := range []int{1, 5, 21, 51, 64} {
		for i := 0; i < 64; i++ {
			v, err := RandBits(width)
			if err != nil {
				t.Fatal(err)
			}
			if width < 64 && v>>uint(width) != 0 {
				t.Fatalf("Expected width %d Got: %X\n", width, v)
			}
		}
	}
}

func TestRandErrors(t *testing.T) {
	for w := 0; w <= 5; w++ {
		e, err := RandErrors(31, w)
		if err != nil {
			t.Fatal(err)
		}
		if bits.OnesCount64(e) != w || e>>31 != 0 {
			t.Fatalf("Expected weight %d below bit 31 Got: %031b\n", w, e)
		}
	}
}

// Samples with at most T errors always correct back to the transmitted word.
func TestNewRandSample(t *testing.T) {
	for _, name := range []string{"pocsag", "bch31-21", "bch31-21f", "bch15-5", "bch63-51"} {
		p, err := protocol.NewParser(name)
		if err != nil {
			t.Fatal(err)
		}
		cfg := p.Cfg()
		shift := uint(cfg.WordLength - cfg.Code.N)

		for i := 0; i < 256; i++ {
			s, err := NewRandSample(p, cfg.Code.T)
			if err != nil {
				t.Fatal(err)
			}

			if n := bits.OnesCount64(s.Word ^ s.Received); n != s.Errors {
				t.Fatalf("%s: Expected: %d errors Got: %d\n", name, s.Errors, n)
			}

			r, err := cfg.Code.Receive(s.Received >> shift)
			if err != nil {
				t.Fatal(err)
			}
			if r.Status == bch.Uncorrectable || r.Codeword != s.Word>>shift {
				t.Fatalf("%s: %s: %s\n", name, s, r)
			}
			if r.Message != s.Message {
				t.Fatalf("%s: Expected: %X Got: %X\n", name, s.Message, r.Message)
			}
		}
	}
}
