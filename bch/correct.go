package bch

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status reports the outcome of correcting a received codeword.
type Status int

const (
	// Valid codewords had a zero syndrome on arrival.
	Valid Status = iota
	// Corrected codewords had between 1 and T bit errors removed.
	Corrected
	// Uncorrectable codewords had more errors than the code guarantees to fix.
	Uncorrectable
)

var statusNames = map[Status]string{
	Valid:         "valid",
	Corrected:     "corrected",
	Uncorrectable: "uncorrectable",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStatus(string(text))
	return err
}

// ParseStatus returns the status with the given name.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, errors.Errorf("bch: unknown status %q", name)
}

// Correct searches for the lowest weight error pattern that turns received
// into a valid codeword, trying weights 1 through T. If no pattern is found
// received is returned unchanged along with ErrUncorrectable.
//
// The search costs O(n^t) syndrome evaluations, 496 for n=31, t=2, and grows
// quickly with t.
func (bch BCH) Correct(received uint64) (codeword uint64, errs int, err error) {
	if received&^bch.cwMask != 0 {
		return received, 0, errors.Wrapf(ErrWidth, "codeword %X wider than %d bits", received, bch.N)
	}

	syndrome := bch.Syndrome(received)
	if syndrome == 0 {
		return received, 0, nil
	}

	for w := 1; w <= bch.T; w++ {
		for p := NewPatterns(bch.N, w); p.Next(); {
			// Syndromes are linear: S(r^e) = S(r)^S(e).
			s := syndrome
			for _, i := range p.Positions() {
				s ^= bch.bitSyndromes[i]
			}

			if s == 0 {
				return received ^ p.Pattern(), w, nil
			}
		}
	}

	return received, 0, ErrUncorrectable
}

// Result is a received codeword after correction and decoding.
type Result struct {
	Received uint64
	Codeword uint64
	Message  uint64
	Errors   int
	Status   Status
}

func (r Result) String() string {
	return fmt.Sprintf("{Received:%X Codeword:%X Message:%X Errors:%d Status:%s}",
		r.Received, r.Codeword, r.Message, r.Errors, r.Status,
	)
}

// Receive corrects and decodes a received codeword. Only a received value
// wider than N bits produces an error, uncorrectable codewords are reported
// through the result's Status.
func (bch BCH) Receive(received uint64) (r Result, err error) {
	r.Received = received

	r.Codeword, r.Errors, err = bch.Correct(received)
	switch {
	case errors.Cause(err) == ErrUncorrectable:
		r.Status = Uncorrectable
		return r, nil
	case err != nil:
		return r, err
	}

	if r.Message, err = bch.Decode(r.Codeword); err != nil {
		return r, err
	}

	if r.Errors > 0 {
		r.Status = Corrected
	}

	return r, nil
}
