// Implements BCH error correction and detection.
package bch

import (
	"fmt"

	"github.com/bemasher/rtlbch/gf"
	"github.com/bemasher/rtlbch/poly"
	"github.com/pkg/errors"
)

var (
	ErrConfig        = errors.New("bch: invalid configuration")
	ErrWidth         = errors.New("bch: value exceeds declared width")
	ErrSyndrome      = errors.New("bch: codeword has non-zero syndrome")
	ErrUncorrectable = errors.New("bch: codeword uncorrectable")
)

// Variant selects how messages are laid out in codewords.
type Variant int

const (
	// Factor is the non-systematic encoding: codeword = message * generator.
	Factor Variant = iota
	// Prefix is the systematic encoding: the message occupies the top k bits
	// of the codeword, parity the low n-k bits.
	Prefix
)

func (v Variant) String() string {
	switch v {
	case Factor:
		return "Factor"
	case Prefix:
		return "Prefix"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// Config describes a binary BCH code.
type Config struct {
	Variant Variant

	// Generator polynomial of the code, degree N-K.
	Generator poly.Poly
	// Primitive polynomial of the field GF(2^m) containing the roots of
	// Generator. Zero skips verification of T against the generator's roots.
	Field poly.Poly

	N, K, T int
}

// BCH Error Correction
type BCH struct {
	Config

	r       int
	msgMask uint64
	cwMask  uint64

	// bitSyndromes[i] is x^i mod Generator.
	bitSyndromes []uint64
}

// NewBCH validates the configuration and returns a codec.
func NewBCH(cfg Config) (bch BCH, err error) {
	if cfg.Variant != Factor && cfg.Variant != Prefix {
		return bch, errors.Wrapf(ErrConfig, "unknown variant %s", cfg.Variant)
	}

	if cfg.K < 1 || cfg.N <= cfg.K || cfg.N > poly.MaxDegree+1 {
		return bch, errors.Wrapf(ErrConfig, "need 1 <= k < n <= %d, got n=%d k=%d", poly.MaxDegree+1, cfg.N, cfg.K)
	}

	if d := cfg.Generator.Degree(); d != cfg.N-cfg.K {
		return bch, errors.Wrapf(ErrConfig, "generator %s has degree %d, n-k is %d", cfg.Generator, d, cfg.N-cfg.K)
	}

	if cfg.Generator.Bit(0) != 1 {
		return bch, errors.Wrapf(ErrConfig, "generator %s is divisible by x", cfg.Generator)
	}

	if cfg.T < 0 || 2*cfg.T+1 > cfg.N {
		return bch, errors.Wrapf(ErrConfig, "error capacity %d out of range", cfg.T)
	}

	if cfg.Field != 0 {
		if err := verifyRoots(cfg); err != nil {
			return bch, err
		}
	}

	bch.Config = cfg
	bch.r = cfg.N - cfg.K
	bch.msgMask = 1<<uint(cfg.K) - 1
	bch.cwMask = 1<<uint(cfg.N) - 1

	bch.bitSyndromes = make([]uint64, cfg.N)
	for i := range bch.bitSyndromes {
		bch.bitSyndromes[i] = bch.Syndrome(1 << uint(i))
	}

	return bch, nil
}

// verifyRoots checks the BCH bound: if α^1..α^2t are roots of the generator
// the minimum distance is at least 2t+1.
func verifyRoots(cfg Config) error {
	field, err := gf.NewField(cfg.Field)
	if err != nil {
		return errors.Wrap(ErrConfig, err.Error())
	}

	if cfg.N > field.Order() {
		return errors.Wrapf(ErrConfig, "codeword length %d exceeds field order %d", cfg.N, field.Order())
	}

	for i := 1; i <= 2*cfg.T; i++ {
		if y := field.Eval(cfg.Generator, field.Exp(i)); y != 0 {
			return errors.Wrapf(ErrConfig, "α^%d is not a root of %s, cannot guarantee t=%d", i, cfg.Generator, cfg.T)
		}
	}

	return nil
}

// Designed returns the narrow-sense BCH configuration of length n able to
// correct t errors. The generator is the least common multiple of the
// minimal polynomials of α^1..α^2t.
func Designed(field poly.Poly, n, t int, variant Variant) (cfg Config, err error) {
	f, err := gf.NewField(field)
	if err != nil {
		return cfg, errors.Wrap(ErrConfig, err.Error())
	}

	g := poly.Poly(1)
	seen := make(map[poly.Poly]bool)
	for i := 1; i <= 2*t; i++ {
		mp := f.MinimalPoly(i)
		if seen[mp] {
			continue
		}
		seen[mp] = true

		if g.Degree()+mp.Degree() >= n {
			return cfg, errors.Wrapf(ErrConfig, "generator for t=%d leaves no message bits at n=%d", t, n)
		}
		g = g.Mul(mp)
	}

	cfg.Variant = variant
	cfg.Generator = g
	cfg.Field = field
	cfg.N = n
	cfg.K = n - g.Degree()
	cfg.T = t

	return cfg, nil
}

func (bch BCH) String() string {
	return fmt.Sprintf("{Variant:%s N:%d K:%d T:%d Generator:%X Field:%X}",
		bch.Variant, bch.N, bch.K, bch.T, uint64(bch.Generator), uint64(bch.Field),
	)
}

// Syndrome returns the remainder of the codeword divided by the generator.
// Zero iff the codeword is valid.
func (bch BCH) Syndrome(codeword uint64) uint64 {
	return uint64(poly.Poly(codeword).Rem(bch.Generator))
}

// Encode returns the codeword for the given k-bit message.
func (bch BCH) Encode(msg uint64) (uint64, error) {
	if msg&^bch.msgMask != 0 {
		return 0, errors.Wrapf(ErrWidth, "message %X wider than %d bits", msg, bch.K)
	}

	m := poly.Poly(msg)
	switch bch.Variant {
	case Factor:
		return uint64(m.Mul(bch.Generator)), nil
	default:
		shifted := m.Shl(bch.r)
		return uint64(shifted.Add(shifted.Rem(bch.Generator))), nil
	}
}

// Decode extracts the message from a valid codeword. Codewords that have not
// been corrected first are rejected when their syndrome is non-zero.
func (bch BCH) Decode(codeword uint64) (uint64, error) {
	if codeword&^bch.cwMask != 0 {
		return 0, errors.Wrapf(ErrWidth, "codeword %X wider than %d bits", codeword, bch.N)
	}

	quo, rem := poly.Poly(codeword).DivMod(bch.Generator)
	if rem != 0 {
		return 0, errors.Wrapf(ErrSyndrome, "codeword %X syndrome %X", codeword, uint64(rem))
	}

	if bch.Variant == Factor {
		return uint64(quo), nil
	}
	return codeword >> uint(bch.r), nil
}
