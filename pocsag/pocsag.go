// RTLBCH - A BCH decoder for paging-style digital modes.
// Copyright (C) 2015 Douglas Hall
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package pocsag decodes and encodes POCSAG paging words. Each 32-bit word is
// a BCH(31,21) codeword followed by an even parity bit.
package pocsag

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"strconv"
	"sync"

	"github.com/bemasher/rtlbch/bch"
	"github.com/bemasher/rtlbch/protocol"
	"github.com/pkg/errors"
)

const (
	FrameSyncWord = 0x7CD215D8
	IdleWord      = 0x7A89C197

	// Words per batch following each frame sync word, two per frame.
	BatchWords = 16

	FuncNumeric      = 0
	FuncTone1        = 1
	FuncTone2        = 2
	FuncAlphanumeric = 3
)

// Code is the BCH(31,21) code protecting every word.
var Code = bch.Config{
	Variant:   bch.Prefix,
	Generator: 0x769,
	Field:     0x25,
	N:         31,
	K:         21,
	T:         2,
}

func init() {
	protocol.RegisterParser("pocsag", func() (protocol.Parser, error) {
		return NewParser()
	})
}

// Kind classifies a word.
type Kind int

const (
	Unknown Kind = iota
	Sync
	Idle
	Address
	Message
)

func (k Kind) String() string {
	switch k {
	case Sync:
		return "sync"
	case Idle:
		return "idle"
	case Address:
		return "address"
	case Message:
		return "message"
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Parity returns the even parity bit for the upper 31 bits of word.
func Parity(word uint32) uint32 {
	return uint32(bits.OnesCount32(word>>1) & 1)
}

type Parser struct {
	code bch.BCH
	cfg  protocol.PacketConfig

	// Position of the next word within its batch, -1 until a sync word is seen.
	slot int
	page *Page
}

func NewParser() (*Parser, error) {
	code, err := bch.NewBCH(Code)
	if err != nil {
		return nil, err
	}

	return &Parser{
		code: code,
		cfg: protocol.PacketConfig{
			Protocol:   "pocsag",
			WordLength: 32,
			Code:       code,
		},
		slot: -1,
	}, nil
}

func (p *Parser) Cfg() protocol.PacketConfig {
	return p.cfg
}

// Encode returns the word carrying the 21-bit message: a flag bit followed by
// 20 data bits.
func (p *Parser) Encode(msg uint64) (uint64, error) {
	cw, err := p.code.Encode(msg)
	if err != nil {
		return 0, err
	}

	word := uint32(cw) << 1
	return uint64(word | Parity(word)), nil
}

// Parse corrects each word, emitting a Word for every address and message
// word and a Page once a page's message words are terminated by an idle or
// address word. Parse must not be called concurrently on one parser.
func (p *Parser) Parse(pkts []protocol.Data, msgCh chan protocol.Message, wg *sync.WaitGroup) {
	defer wg.Done()

	for _, pkt := range pkts {
		if pkt.Value > 0xFFFFFFFF {
			continue
		}

		w := p.word(pkt)

		switch w.Kind {
		case Sync:
			p.slot = 0
			continue
		case Idle:
			if pg := p.flush(); pg != nil {
				msgCh <- *pg
			}
		case Address:
			if pg := p.flush(); pg != nil {
				msgCh <- *pg
			}
			p.page = NewPage(w)
		case Message, Unknown:
			if p.page != nil {
				p.page.Append(w)
			}
		}

		if w.Kind != Idle {
			msgCh <- w
		}

		if p.slot >= 0 {
			p.slot = (p.slot + 1) % BatchWords
		}
	}
}

// Flush returns the page still waiting for its terminating word, if any.
func (p *Parser) Flush() []protocol.Message {
	if pg := p.flush(); pg != nil {
		return []protocol.Message{*pg}
	}
	return nil
}

func (p *Parser) flush() *Page {
	pg := p.page
	p.page = nil
	return pg
}

// word corrects and classifies a single received word.
func (p *Parser) word(pkt protocol.Data) (w Word) {
	received := uint32(pkt.Value)

	w.Idx = pkt.Idx
	w.Received = received

	r, err := p.code.Receive(uint64(received >> 1))
	if err != nil {
		// The 31-bit codeword always fits the code.
		panic(errors.Wrap(err, "pocsag"))
	}

	w.Errors = r.Errors
	w.State = r.Status
	w.Corrected = uint32(r.Codeword)<<1 | received&1
	w.ParityOK = Parity(w.Corrected) == w.Corrected&1

	if r.Status == bch.Uncorrectable {
		return w
	}

	switch w.Corrected | 1 {
	case FrameSyncWord | 1:
		w.Kind = Sync
		return w
	case IdleWord | 1:
		w.Kind = Idle
		return w
	}

	w.Data = uint32(r.Message) & 0xFFFFF
	if r.Message>>20 == 0 {
		w.Kind = Address
		w.Function = uint8(w.Data & 0x3)
		w.Address = w.Data >> 2 << 3
		if p.slot >= 0 {
			w.Address |= uint32(p.slot >> 1)
			w.Framed = true
		}
	} else {
		w.Kind = Message
	}

	return w
}

// A Word is a single received POCSAG word after correction.
type Word struct {
	Idx       int    `xml:",attr"`
	Kind      Kind   `xml:",attr"`
	Received  uint32 `xml:",attr"`
	Corrected uint32 `xml:",attr"`
	Errors    int    `xml:",attr"`
	ParityOK  bool   `xml:",attr"`

	// Address words only. Framed reports whether the low three address bits
	// were recovered from the word's frame position.
	Address  uint32 `xml:",attr"`
	Function uint8  `xml:",attr"`
	Framed   bool   `xml:",attr"`

	// The 20 data bits following the flag bit.
	Data uint32 `xml:",attr"`

	State bch.Status `xml:",attr"`
}

func (w Word) MsgType() string {
	return "POCSAG"
}

func (w Word) Status() bch.Status {
	return w.State
}

func (w Word) Checksum() []byte {
	checksum := make([]byte, 4)
	binary.BigEndian.PutUint32(checksum, w.Corrected)
	return checksum
}

func (w Word) String() string {
	switch w.Kind {
	case Address:
		return fmt.Sprintf("{Kind:%-7s Word:0x%08X Address:%7d Function:%d Errors:%d Parity:%t Status:%s}",
			w.Kind, w.Corrected, w.Address, w.Function, w.Errors, w.ParityOK, w.State,
		)
	case Message:
		return fmt.Sprintf("{Kind:%-7s Word:0x%08X Data:0x%05X Errors:%d Parity:%t Status:%s}",
			w.Kind, w.Corrected, w.Data, w.Errors, w.ParityOK, w.State,
		)
	}
	return fmt.Sprintf("{Kind:%-7s Word:0x%08X Status:%s}", w.Kind, w.Received, w.State)
}

func (w Word) Record() (r []string) {
	r = append(r, w.Kind.String())
	r = append(r, "0x"+strconv.FormatUint(uint64(w.Received), 16))
	r = append(r, "0x"+strconv.FormatUint(uint64(w.Corrected), 16))
	r = append(r, strconv.Itoa(w.Errors))
	r = append(r, strconv.FormatBool(w.ParityOK))
	r = append(r, strconv.FormatUint(uint64(w.Address), 10))
	r = append(r, strconv.FormatUint(uint64(w.Function), 10))
	r = append(r, "0x"+strconv.FormatUint(uint64(w.Data), 16))
	r = append(r, w.State.String())

	return r
}
