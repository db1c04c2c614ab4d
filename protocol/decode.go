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

package protocol

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Decoder dispatches blocks of received words to every registered parser.
type Decoder struct {
	wg *sync.WaitGroup

	parsers   []Parser
	protocols []string

	// Widest word any registered parser accepts.
	WordLength int
}

func NewDecoder() Decoder {
	return Decoder{
		wg: new(sync.WaitGroup),
	}
}

// Using a single decoder, register protocols to pass off received words to.
func (d *Decoder) RegisterProtocol(p Parser) {
	if l := p.Cfg().WordLength; l > d.WordLength {
		d.WordLength = l
	}

	d.parsers = append(d.parsers, p)
	d.protocols = append(d.protocols, p.Cfg().Protocol)
}

func (d Decoder) Log() {
	for _, p := range d.parsers {
		cfg := p.Cfg()
		log.WithFields(log.Fields{
			"protocol":   cfg.Protocol,
			"wordlength": cfg.WordLength,
		}).Info("Code: ", cfg.Code)
	}

	log.Info("Protocols: ", strings.Join(d.protocols, ","))
}

// Decode accepts a block of words and returns a channel of messages. The
// channel is closed once every parser has finished with the block.
func (d Decoder) Decode(block []Data) chan Message {
	msgCh := make(chan Message)

	// Words wider than a parser's word length are rejected by that parser.
	d.wg.Add(len(d.parsers))
	for _, p := range d.parsers {
		go p.Parse(block, msgCh, d.wg)
	}

	// Close the message channel when all of the parsers have finished.
	go func() {
		d.wg.Wait()
		close(msgCh)
	}()

	return msgCh
}

// Flush collects messages held back by parsers at the end of input.
func (d Decoder) Flush() (msgs []Message) {
	for _, p := range d.parsers {
		if f, ok := p.(Flusher); ok {
			msgs = append(msgs, f.Flush()...)
		}
	}
	return msgs
}
