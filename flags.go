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
	"encoding/json"
	"encoding/xml"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bemasher/rtlbch/bch"
	"github.com/bemasher/rtlbch/csv"
	"github.com/bemasher/rtlbch/protocol"
	"github.com/bemasher/rtlbch/store"
	log "github.com/sirupsen/logrus"
)

var inputFilename = flag.String("input", "", "file of received words, one per line, stdin if empty")
var inputFile io.ReadCloser

var msgType = flag.String("msgtype", "pocsag", "code to decode with, comma-separated list or \"all\": "+strings.Join(protocol.Parsers(), ", "))

var mode = flag.String("mode", "decode", "decode received words or encode messages: decode, encode")

var bitsInput = flag.Bool("bits", false, "input lines are strings of 0 and 1, most significant bit first")

var blockSize = flag.Int("blocksize", 64, "words handed to the decoders at once, 1 for interactive use")

var timeLimit = flag.Duration("duration", 0, "time to run for, 0 for infinite, ex. 1h5m10s")

var statusFilter StatusFilter

var unique = flag.Bool("unique", false, "suppress repeated messages with identical content")

var encoder Encoder
var format = flag.String("format", "plain", "decoded message output format: plain, csv, json, xml or sqlite")

var dbFilename = flag.String("dbfile", "rtlbch.db", "database file for sqlite output")

var single = flag.Bool("single", false, "one shot execution, exit after the first valid or corrected message")

var genCount = flag.Int("gen", 0, "emit this many random received words and exit")
var genErrors = flag.Int("errors", 0, "flip up to this many codeword bits in each generated word")

var logLevel = flag.String("loglevel", "info", "log level: debug, info, warn, error")

var version = flag.Bool("version", false, "display build date and commit hash")

func RegisterFlags() {
	statusFilter = make(StatusFilter)
	flag.Var(statusFilter, "filterstatus", "display only messages matching a status in a comma-separated list: valid, corrected, uncorrectable")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		flag.CommandLine.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  -%s=%s: %s\n", f.Name, f.Value, f.Usage)
		})
	}
}

func EnvOverride() {
	flag.VisitAll(func(f *flag.Flag) {
		envName := "RTLBCH_" + strings.ToUpper(f.Name)
		flagValue := os.Getenv(envName)
		if flagValue != "" {
			if err := flag.Set(f.Name, flagValue); err != nil {
				log.Warnf(
					"Environment variable %q failed to override flag %q with value %q: %q",
					envName, f.Name, flagValue, err,
				)
			} else {
				log.Infof("Environment variable %q overrides flag %q with %q", envName, f.Name, flagValue)
			}
		}
	})
}

func HandleFlags() {
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal("Error parsing log level: ", err)
	}
	log.SetLevel(level)

	if *blockSize < 1 {
		log.Fatal("Block size must be positive: ", *blockSize)
	}

	inputFile = os.Stdin
	if *inputFilename != "" {
		inputFile, err = os.Open(*inputFilename)
		if err != nil {
			log.Fatal("Error opening input file: ", err)
		}
	}

	*format = strings.ToLower(*format)
	switch *format {
	case "plain":
		encoder = PlainEncoder{*inputFilename != ""}
	case "csv":
		encoder = csv.NewEncoder(os.Stdout)
	case "json":
		encoder = json.NewEncoder(os.Stdout)
	case "xml":
		encoder = xml.NewEncoder(os.Stdout)
	case "sqlite":
		db, err := store.Open(*dbFilename, log.StandardLogger())
		if err != nil {
			log.Fatal("Error opening database: ", err)
		}
		log.Info("Database: ", *dbFilename)
		encoder = db
	default:
		log.Fatalf("Unknown format: %q", *format)
	}
}

// JSON, XML, CSV and the database all implement this interface so we can
// simplify log output formatting.
type Encoder interface {
	Encode(interface{}) error
}

// StatusFilter keeps messages whose status is in the set.
type StatusFilter map[bch.Status]bool

func (sf StatusFilter) String() string {
	var values []string
	for s := range sf {
		values = append(values, s.String())
	}
	sort.Strings(values)
	return strings.Join(values, ",")
}

func (sf StatusFilter) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		s, err := bch.ParseStatus(strings.TrimSpace(v))
		if err != nil {
			return err
		}

		sf[s] = true
	}

	return nil
}

func (sf StatusFilter) Filter(msg protocol.Message) bool {
	return sf[msg.Status()]
}

// UniqueFilter drops messages whose content was seen before.
type UniqueFilter map[protocol.Digest]bool

func NewUniqueFilter() UniqueFilter {
	return make(UniqueFilter)
}

func (uf UniqueFilter) Filter(msg protocol.Message) bool {
	digest := protocol.NewDigest(msg)
	if uf[digest] {
		return false
	}

	uf[digest] = true
	return true
}

type PlainEncoder struct {
	offset bool
}

func (pe PlainEncoder) Encode(msg interface{}) (err error) {
	if m, ok := msg.(protocol.LogMessage); ok && !pe.offset {
		_, err = fmt.Println(m.StringNoOffset())
	} else {
		_, err = fmt.Println(msg)
	}
	return
}
