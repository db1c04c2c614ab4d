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

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/bemasher/rtlbch/bch"
	"github.com/bemasher/rtlbch/gen"
	"github.com/bemasher/rtlbch/pocsag"
	"github.com/bemasher/rtlbch/poly"
	"github.com/bemasher/rtlbch/protocol"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "github.com/bemasher/rtlbch/raw"
)

var rcvr Receiver

type Receiver struct {
	d  protocol.Decoder
	fc protocol.FilterChain

	// Parsers in the order given by -msgtype.
	parsers []protocol.Parser

	stop chan struct{}
}

func (rcvr *Receiver) NewReceiver() {
	rcvr.d = protocol.NewDecoder()

	rcvr.stop = make(chan struct{}, 1)

	names := strings.Split(*msgType, ",")

	// If the msgtype "all" is given alone, use every registered code.
	if len(names) == 1 && names[0] == "all" {
		names = protocol.Parsers()
	}

	for _, name := range names {
		p, err := protocol.NewParser(strings.TrimSpace(name))
		if err != nil {
			log.Fatal(err)
		}

		rcvr.parsers = append(rcvr.parsers, p)
		rcvr.d.RegisterProtocol(p)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "unique":
			if *unique {
				rcvr.fc.Add(NewUniqueFilter())
			}
		case "filterstatus":
			rcvr.fc.Add(statusFilter)
		}
	})

	rcvr.d.Log()
}

func (rcvr *Receiver) Close() {
	rcvr.stop <- struct{}{}
}

// ParseWord parses a single input line as a received word or message.
func ParseWord(line string, bits bool) (uint64, error) {
	if bits {
		p, err := poly.ParseBits(line)
		return uint64(p), err
	}

	v, err := strconv.ParseUint(line, 0, 64)
	return v, errors.Wrapf(err, "parse %q", line)
}

// ReadBlocks reads words from r and sends them in blocks of at most size
// words. Blank lines and lines beginning with # are skipped. The block channel
// is closed at the end of input or when stop receives.
func ReadBlocks(r io.Reader, size int, bits bool, blockCh chan<- []protocol.Data, stop <-chan struct{}) {
	defer close(blockCh)

	scanner := bufio.NewScanner(r)

	var (
		idx   int
		block []protocol.Data
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		idx++

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		v, err := ParseWord(line, bits)
		if err != nil {
			log.WithField("line", idx).Warn(err)
			continue
		}

		block = append(block, protocol.Data{Idx: idx, Value: v})
		if len(block) < size {
			continue
		}

		select {
		case <-stop:
			return
		case blockCh <- block:
			block = nil
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error("Error reading input: ", err)
	}

	if len(block) > 0 {
		select {
		case <-stop:
		case blockCh <- block:
		}
	}
}

func (rcvr *Receiver) Run() {
	// Setup signal channel for interruption.
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)

	// Setup time limit channel
	tLimit := make(<-chan time.Time, 1)
	if *timeLimit != 0 {
		tLimit = time.After(*timeLimit)
	}

	start := time.Now()
	offset := 0

	blockCh := make(chan []protocol.Data)
	go ReadBlocks(inputFile, *blockSize, *bitsInput, blockCh, rcvr.stop)

	for {
		// Exit on interrupt or time limit, otherwise receive.
		select {
		case <-sigint:
			return
		case <-tLimit:
			log.Info("Time Limit Reached: ", time.Since(start))
			return
		case block, ok := <-blockCh:
			// End of input, emit whatever the parsers held back.
			if !ok {
				for _, msg := range rcvr.d.Flush() {
					if rcvr.emit(msg, offset) {
						return
					}
				}
				return
			}

			offset = block[0].Idx

			done := false
			for msg := range rcvr.d.Decode(block) {
				// Keep draining so every parser finishes the block.
				if done {
					continue
				}
				done = rcvr.emit(msg, offset)
			}

			if done {
				return
			}
		}
	}
}

// emit filters and encodes a message, reporting whether -single is satisfied.
func (rcvr *Receiver) emit(msg protocol.Message, offset int) bool {
	// If the filterchain rejects the message, skip it.
	if !rcvr.fc.Match(msg) {
		return false
	}

	var logMsg protocol.LogMessage
	logMsg.Time = time.Now()
	logMsg.Offset = offset
	logMsg.Type = msg.MsgType()
	logMsg.Message = msg

	if err := encoder.Encode(logMsg); err != nil {
		log.Fatal("Error encoding message: ", err)
	}

	return *single && msg.Status() != bch.Uncorrectable
}

// Encode reads messages and writes the word carrying each. With the pocsag
// code, lines of the form address:function:text are laid out as pages.
func (rcvr *Receiver) Encode(r io.Reader, w io.Writer) error {
	if len(rcvr.parsers) != 1 {
		return errors.Errorf("encoding requires exactly one msgtype, got %d", len(rcvr.parsers))
	}
	p := rcvr.parsers[0]

	if pp, ok := p.(*pocsag.Parser); ok {
		return encodePages(pp, r, w)
	}

	width := (p.Cfg().WordLength + 3) / 4

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		msg, err := ParseWord(line, *bitsInput)
		if err != nil {
			return err
		}

		word, err := p.Encode(msg)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "0x%0*X\n", width, word)
	}

	return scanner.Err()
}

func encodePages(p *pocsag.Parser, r io.Reader, w io.Writer) error {
	tx := p.NewTransmission()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, ":", 3)
		if len(fields) != 3 {
			return errors.Errorf("page %q: expected address:function:text", line)
		}

		address, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return errors.Wrapf(err, "page %q", line)
		}
		function, err := strconv.ParseUint(fields[1], 10, 2)
		if err != nil {
			return errors.Wrapf(err, "page %q", line)
		}

		if err := tx.Add(uint32(address), uint8(function), fields[2]); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	for _, word := range tx.Words() {
		fmt.Fprintf(w, "0x%08X\n", word)
	}

	return nil
}

// Generate writes count random received words for each registered code.
func (rcvr *Receiver) Generate(w io.Writer, count, maxErrors int) error {
	for _, p := range rcvr.parsers {
		width := (p.Cfg().WordLength + 3) / 4

		for i := 0; i < count; i++ {
			s, err := gen.NewRandSample(p, maxErrors)
			if err != nil {
				return err
			}

			log.WithField("protocol", p.Cfg().Protocol).Debug(s)
			fmt.Fprintf(w, "0x%0*X\n", width, s.Received)
		}
	}

	return nil
}

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
}

var (
	buildTag   = "dev"     // v#.#.#
	buildDate  = "unknown" // date -u '+%Y-%m-%d'
	commitHash = "unknown" // git rev-parse HEAD
)

func main() {
	RegisterFlags()
	EnvOverride()
	flag.Parse()

	if *version {
		fmt.Println("Build Tag: ", buildTag)
		fmt.Println("Build Date:", buildDate)
		fmt.Println("Commit:    ", commitHash)
		os.Exit(0)
	}

	HandleFlags()

	rcvr.NewReceiver()

	defer inputFile.Close()
	if c, ok := encoder.(io.Closer); ok {
		defer c.Close()
	}

	switch {
	case *genCount > 0:
		if err := rcvr.Generate(os.Stdout, *genCount, *genErrors); err != nil {
			log.Fatal("Error generating words: ", err)
		}
	case *mode == "encode":
		if err := rcvr.Encode(inputFile, os.Stdout); err != nil {
			log.Fatal("Error encoding messages: ", err)
		}
	case *mode == "decode":
		defer rcvr.Close()
		rcvr.Run()
	default:
		log.Fatalf("Unknown mode: %q", *mode)
	}
}
