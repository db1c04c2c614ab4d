// Package gen produces random messages and noisy received words for testing
// decoders without a radio.
package gen

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/bemasher/rtlbch/protocol"
)

// A Sample is a word as transmitted and as received after noise.
type Sample struct {
	Message  uint64
	Word     uint64
	Received uint64

	// Bit errors added to the codeword portion of the word.
	Errors int
}

func (s Sample) String() string {
	return fmt.Sprintf("{Message:0x%X Word:0x%X Received:0x%X Errors:%d}", s.Message, s.Word, s.Received, s.Errors)
}

// RandBits returns a uniformly random value of the given width.
func RandBits(width int) (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}

	v := binary.BigEndian.Uint64(buf[:])
	if width < 64 {
		v &= 1<<uint(width) - 1
	}
	return v, nil
}

// RandErrors returns an error pattern of exactly w distinct bits below n.
func RandErrors(n, w int) (e uint64, err error) {
	if w > n {
		panic(fmt.Errorf("error weight exceeds width: %d > %d", w, n))
	}

	bound := big.NewInt(int64(n))
	for count := 0; count < w; {
		pos, err := rand.Int(rand.Reader, bound)
		if err != nil {
			return 0, err
		}

		bit := uint64(1) << uint(pos.Int64())
		if e&bit == 0 {
			e |= bit
			count++
		}
	}

	return e, nil
}

// NewRandSample encodes a random message with p and flips between 0 and
// maxErrors bits of the codeword. Framing bits outside the codeword are left
// untouched.
func NewRandSample(p protocol.Parser, maxErrors int) (s Sample, err error) {
	cfg := p.Cfg()

	if s.Message, err = RandBits(cfg.Code.K); err != nil {
		return s, err
	}
	if s.Word, err = p.Encode(s.Message); err != nil {
		return s, err
	}

	w, err := rand.Int(rand.Reader, big.NewInt(int64(maxErrors+1)))
	if err != nil {
		return s, err
	}
	s.Errors = int(w.Int64())

	e, err := RandErrors(cfg.Code.N, s.Errors)
	if err != nil {
		return s, err
	}

	// Codeword bits sit at the top of the word.
	s.Received = s.Word ^ e<<uint(cfg.WordLength-cfg.Code.N)

	return s, nil
}
