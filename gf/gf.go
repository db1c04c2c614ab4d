// Copyright 2010 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gf implements arithmetic over binary extension fields GF(2^m), used
// to locate the roots of binary BCH generator polynomials.
package gf

import (
	"github.com/bemasher/rtlbch/poly"
	"github.com/pkg/errors"
)

// MaxDegree is the largest extension degree m supported, elements fit in a byte.
const MaxDegree = 8

var ErrPolynomial = errors.New("gf: invalid field polynomial")

// A Field represents an instance of GF(2^m) defined by a specific primitive
// polynomial. The generator α is the element x.
type Field struct {
	poly  poly.Poly
	order int    // number of non-zero elements, 2^m-1
	log   []byte // log[0] is unused
	exp   []byte
}

// NewField returns a new field corresponding to the primitive polynomial p.
func NewField(p poly.Poly) (*Field, error) {
	m := p.Degree()
	if m < 1 || m > MaxDegree {
		return nil, errors.Wrapf(ErrPolynomial, "degree %d of %s not in [1,%d]", m, p, MaxDegree)
	}

	if p&1 == 0 || reducible(p) {
		return nil, errors.Wrapf(ErrPolynomial, "%s is reducible", p)
	}

	size := 1 << uint(m)
	f := Field{p, size - 1, make([]byte, size), make([]byte, (size-1)<<1)}

	x := 1
	for i := 0; i < f.order; i++ {
		if x == 1 && i != 0 {
			return nil, errors.Wrapf(ErrPolynomial, "%s is not primitive, α has order %d", p, i)
		}
		f.exp[i] = byte(x)
		f.exp[i+f.order] = byte(x)
		f.log[x] = byte(i)

		x <<= 1
		if x&size != 0 {
			x ^= int(p)
		}
	}

	return &f, nil
}

// reducible reports whether p is reducible.
func reducible(p poly.Poly) bool {
	// Multiplying n-bit * n-bit produces (2n-1)-bit,
	// so if p is reducible, one of its factors must be
	// of np/2+1 bits or fewer.
	np := uint(p.Degree() + 1)
	for q := poly.Poly(2); q < 1<<(np/2+1) && q < p; q++ {
		if p.Rem(q) == 0 {
			return true
		}
	}
	return false
}

// Degree returns m, the extension degree of the field.
func (f *Field) Degree() int {
	return f.poly.Degree()
}

// Order returns the number of non-zero elements in the field.
func (f *Field) Order() int {
	return f.order
}

func (f *Field) Poly() poly.Poly {
	return f.poly
}

// Add returns the sum of x and y in the field.
func (f *Field) Add(x, y byte) byte {
	return x ^ y
}

// Exp returns the base-α exponential of e in the field.
// If e < 0, Exp returns 0.
func (f *Field) Exp(e int) byte {
	if e < 0 {
		return 0
	}
	return f.exp[e%f.order]
}

// Log returns the base-α logarithm of x in the field.
// If x == 0, Log returns -1.
func (f *Field) Log(x byte) int {
	if x == 0 {
		return -1
	}
	return int(f.log[x])
}

// Mul returns the product of x and y in the field.
func (f *Field) Mul(x, y byte) byte {
	if x == 0 || y == 0 {
		return 0
	}
	return f.exp[int(f.log[x])+int(f.log[y])]
}

// Eval evaluates the binary polynomial p at the field element x.
func (f *Field) Eval(p poly.Poly, x byte) (y byte) {
	for i := p.Degree(); i >= 0; i-- {
		y = f.Mul(y, x) ^ byte(p.Bit(i))
	}
	return y
}

// MinimalPoly returns the minimal polynomial of α^e over GF(2): the product
// of (x - α^c) over the cyclotomic coset of e.
func (f *Field) MinimalPoly(e int) poly.Poly {
	e %= f.order
	if e < 0 {
		e += f.order
	}

	// Coefficients are field elements while multiplying out, lowest degree first.
	coef := []byte{1}

	c := e
	for {
		root := f.exp[c]

		next := make([]byte, len(coef)+1)
		for i, v := range coef {
			next[i+1] ^= v
			next[i] ^= f.Mul(v, root)
		}
		coef = next

		c = c * 2 % f.order
		if c == e {
			break
		}
	}

	var p poly.Poly
	for i, v := range coef {
		// Conjugate roots always produce binary coefficients.
		if v > 1 {
			panic("gf: non-binary minimal polynomial")
		}
		p |= poly.Poly(v) << uint(i)
	}

	return p
}
