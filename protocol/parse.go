package protocol

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bemasher/rtlbch/bch"
	"github.com/bemasher/rtlbch/csv"
	"github.com/pkg/errors"
)

const (
	TimeFormat = "2006-01-02T15:04:05.000"
)

var ErrUnknownParser = errors.New("protocol: unknown message type")

var (
	parserMutex sync.Mutex
	parsers     = make(map[string]NewParserFunc)
)

type NewParserFunc func() (Parser, error)

// Given a name and a parser, register a parser for use.
// Later used by underscore importing each parser package:
//
//	import _ "github.com/bemasher/rtlbch/pocsag"
func RegisterParser(name string, parserFn NewParserFunc) {
	parserMutex.Lock()
	defer parserMutex.Unlock()

	if parserFn == nil {
		panic("parser: new parser func is nil")
	}
	if _, dup := parsers[name]; dup {
		panic(fmt.Sprintf("parser: parser already registered (%s)", name))
	}
	parsers[name] = parserFn
}

// Given a name, lookup the parser and make a new one.
func NewParser(name string) (Parser, error) {
	parserMutex.Lock()
	defer parserMutex.Unlock()

	parserFn, exists := parsers[name]
	if !exists {
		return nil, errors.Wrapf(ErrUnknownParser, "%q", name)
	}

	p, err := parserFn()
	return p, errors.Wrapf(err, "parser %q", name)
}

// Parsers returns the registered parser names in sorted order.
func Parsers() (names []string) {
	parserMutex.Lock()
	defer parserMutex.Unlock()

	for name := range parsers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// A received word and its position in the input stream.
type Data struct {
	Idx   int
	Value uint64
}

// PacketConfig describes the words a parser consumes.
type PacketConfig struct {
	Protocol string

	// Bits per received word. Equal to the code's N unless the protocol adds
	// framing bits around each codeword.
	WordLength int

	Code bch.BCH
}

// A Parser converts received words to messages and messages to words.
type Parser interface {
	Parse([]Data, chan Message, *sync.WaitGroup)
	Encode(msg uint64) (word uint64, err error)
	Cfg() PacketConfig
}

// A Flusher emits messages a parser holds back waiting for more input.
type Flusher interface {
	Flush() []Message
}

type Message interface {
	csv.Recorder
	MsgType() string
	Status() bch.Status
	Checksum() []byte
}

// Uniquely identifies a message's content.
type Digest struct {
	MsgType  string
	Checksum string
}

func NewDigest(msg Message) Digest {
	return Digest{
		msg.MsgType(),
		string(msg.Checksum()),
	}
}

// A LogMessage associates a message with a point in time and an offset into
// the input stream.
type LogMessage struct {
	Time   time.Time `xml:",attr"`
	Offset int       `xml:",attr"`
	Type   string    `xml:",attr"`
	Message
}

func (msg LogMessage) String() string {
	return fmt.Sprintf("{Time:%s Offset:%d %s:%s}",
		msg.Time.Format(TimeFormat), msg.Offset, msg.MsgType(), msg.Message,
	)
}

func (msg LogMessage) StringNoOffset() string {
	return fmt.Sprintf("{Time:%s %s:%s}", msg.Time.Format(TimeFormat), msg.MsgType(), msg.Message)
}

func (msg LogMessage) Record() (r []string) {
	r = append(r, msg.Time.Format(time.RFC3339Nano))
	r = append(r, strconv.FormatInt(int64(msg.Offset), 10))
	r = append(r, msg.Type)
	r = append(r, msg.Message.Record()...)
	return r
}

// A FilterChain takes a list of filters and applies them iteratively to
// messages sent through the chain.
type FilterChain []MessageFilter

func (fc *FilterChain) Add(filter MessageFilter) {
	*fc = append(*fc, filter)
}

func (fc FilterChain) Match(msg Message) bool {
	if len(fc) == 0 {
		return true
	}

	for _, filter := range fc {
		if !filter.Filter(msg) {
			return false
		}
	}

	return true
}

type MessageFilter interface {
	Filter(Message) bool
}
