// Package poly implements arithmetic on polynomials over GF(2) packed into
// 64-bit words.
package poly

import (
	"math/bits"
	"strconv"

	"github.com/pkg/errors"
)

// MaxDegree is the largest degree a Poly can hold.
const MaxDegree = 63

var (
	ErrOverflow     = errors.New("poly: degree overflow")
	ErrDivideByZero = errors.New("poly: division by zero polynomial")
)

// A Poly is a polynomial over GF(2). Bit i holds the coefficient of x^i.
type Poly uint64

// Degree returns the index of the highest set bit, -1 for the zero polynomial.
func (p Poly) Degree() int {
	return bits.Len64(uint64(p)) - 1
}

func (p Poly) IsZero() bool {
	return p == 0
}

// Bit returns the coefficient of x^i.
func (p Poly) Bit(i int) uint {
	return uint(p>>uint(i)) & 1
}

// Weight returns the number of non-zero coefficients.
func (p Poly) Weight() int {
	return bits.OnesCount64(uint64(p))
}

// Add returns p + q. Addition and subtraction are both xor over GF(2).
func (p Poly) Add(q Poly) Poly {
	return p ^ q
}

// Sub returns p - q, identical to Add.
func (p Poly) Sub(q Poly) Poly {
	return p ^ q
}

func (p Poly) Equal(q Poly) bool {
	return p == q
}

// Shl returns p * x^n. Panics if the result would exceed MaxDegree.
func (p Poly) Shl(n int) Poly {
	if p == 0 {
		return 0
	}
	if n < 0 || p.Degree()+n > MaxDegree {
		panic(errors.Wrapf(ErrOverflow, "%s * x^%d", p, n))
	}
	return p << uint(n)
}

// Mul returns the carryless product p * q. Panics if the product's degree
// would exceed MaxDegree.
func (p Poly) Mul(q Poly) (prod Poly) {
	if p == 0 || q == 0 {
		return 0
	}
	if p.Degree()+q.Degree() > MaxDegree {
		panic(errors.Wrapf(ErrOverflow, "%s * %s", p, q))
	}

	for i := 0; q != 0; i, q = i+1, q>>1 {
		if q&1 != 0 {
			prod ^= p << uint(i)
		}
	}

	return prod
}

// DivMod performs long division of p by g returning quotient and remainder.
func (p Poly) DivMod(g Poly) (quo, rem Poly) {
	if g == 0 {
		panic(ErrDivideByZero)
	}

	dg := g.Degree()
	rem = p
	for d := rem.Degree(); d >= dg; d = rem.Degree() {
		quo |= 1 << uint(d-dg)
		rem ^= g << uint(d-dg)
	}

	return quo, rem
}

// Rem returns p mod g.
func (p Poly) Rem(g Poly) Poly {
	_, rem := p.DivMod(g)
	return rem
}

// String returns the coefficients as a binary string, highest degree first.
func (p Poly) String() string {
	return strconv.FormatUint(uint64(p), 2)
}

// ParseBits parses a string of '0' and '1' characters, most significant
// coefficient first.
func ParseBits(s string) (Poly, error) {
	if len(s) == 0 {
		return 0, errors.New("poly: empty bit string")
	}
	if len(s) > MaxDegree+1 {
		return 0, errors.Wrapf(ErrOverflow, "bit string of length %d", len(s))
	}

	var p Poly
	for idx := range s {
		p <<= 1
		switch s[idx] {
		case '1':
			p |= 1
		case '0':
		default:
			return 0, errors.Errorf("poly: invalid bit %q at %d", s[idx], idx)
		}
	}

	return p, nil
}
