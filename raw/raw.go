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

// Package raw parses streams of bare BCH codewords, one codeword per word.
package raw

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"

	"github.com/bemasher/rtlbch/bch"
	"github.com/bemasher/rtlbch/protocol"
)

// Codes registered by this package.
var Codes = map[string]bch.Config{
	"bch31-21":  {Variant: bch.Prefix, Generator: 0x769, Field: 0x25, N: 31, K: 21, T: 2},
	"bch31-21f": {Variant: bch.Factor, Generator: 0x769, Field: 0x25, N: 31, K: 21, T: 2},
	"bch15-7":   {Variant: bch.Prefix, Generator: 0x1D1, Field: 0x13, N: 15, K: 7, T: 2},
	"bch15-5":   {Variant: bch.Prefix, Generator: 0x537, Field: 0x13, N: 15, K: 5, T: 3},
	"bch63-51":  {Variant: bch.Prefix, Generator: 0x1539, Field: 0x43, N: 63, K: 51, T: 2},
}

func init() {
	for name, cfg := range Codes {
		name, cfg := name, cfg
		protocol.RegisterParser(name, func() (protocol.Parser, error) {
			return NewParser(name, cfg)
		})
	}
}

type Parser struct {
	cfg protocol.PacketConfig
}

func NewParser(name string, cfg bch.Config) (*Parser, error) {
	code, err := bch.NewBCH(cfg)
	if err != nil {
		return nil, err
	}

	return &Parser{
		cfg: protocol.PacketConfig{
			Protocol:   name,
			WordLength: cfg.N,
			Code:       code,
		},
	}, nil
}

func (p Parser) Cfg() protocol.PacketConfig {
	return p.cfg
}

func (p Parser) Encode(msg uint64) (uint64, error) {
	return p.cfg.Code.Encode(msg)
}

func (p Parser) Parse(pkts []protocol.Data, msgCh chan protocol.Message, wg *sync.WaitGroup) {
	defer wg.Done()

	for _, pkt := range pkts {
		r, err := p.cfg.Code.Receive(pkt.Value)
		// Too wide for this code.
		if err != nil {
			continue
		}

		msgCh <- Codeword{
			Protocol: p.cfg.Protocol,
			Idx:      pkt.Idx,
			Result:   r,
		}
	}
}

// A Codeword is a received word after correction.
type Codeword struct {
	Protocol string `xml:",attr"`
	Idx      int    `xml:",attr"`
	bch.Result
}

func (cw Codeword) MsgType() string {
	return cw.Protocol
}

// Checksum returns the corrected codeword, big-endian.
func (cw Codeword) Checksum() []byte {
	checksum := make([]byte, 8)
	binary.BigEndian.PutUint64(checksum, cw.Codeword)
	return checksum
}

func (cw Codeword) Status() bch.Status {
	return cw.Result.Status
}

func (cw Codeword) String() string {
	return fmt.Sprintf("{Received:0x%X Codeword:0x%X Message:0x%X Errors:%d Status:%s}",
		cw.Received, cw.Codeword, cw.Message, cw.Errors, cw.Result.Status,
	)
}

func (cw Codeword) Record() (r []string) {
	r = append(r, "0x"+strconv.FormatUint(cw.Received, 16))
	r = append(r, "0x"+strconv.FormatUint(cw.Codeword, 16))
	r = append(r, "0x"+strconv.FormatUint(cw.Message, 16))
	r = append(r, strconv.Itoa(cw.Errors))
	r = append(r, cw.Result.Status.String())

	return r
}
