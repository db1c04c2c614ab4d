package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/bemasher/rtlbch/bch"
	"github.com/bemasher/rtlbch/pocsag"
	"github.com/bemasher/rtlbch/protocol"
	"github.com/bemasher/rtlbch/raw"
)

type collector []protocol.LogMessage

func (c *collector) Encode(v interface{}) error {
	*c = append(*c, v.(protocol.LogMessage))
	return nil
}

func newReceiver(t *testing.T, name string) *Receiver {
	*msgType = name

	r := new(Receiver)
	r.NewReceiver()
	return r
}

// decode runs the receive loop over input and returns everything encoded.
func decode(r *Receiver, input string) collector {
	var c collector
	encoder = &c
	inputFile = io.NopCloser(strings.NewReader(input))

	r.Run()
	r.Close()
	return c
}

func TestParseWord(t *testing.T) {
	for _, tc := range []struct {
		line string
		bits bool
		v    uint64
	}{
		{"0x7CD215D8", false, 0x7CD215D8},
		{"0b101", false, 5},
		{"42", false, 42},
		{"101", true, 5},
	} {
		v, err := ParseWord(tc.line, tc.bits)
		if err != nil {
			t.Fatal(err)
		}
		if v != tc.v {
			t.Fatalf("%q: Expected: %d Got: %d\n", tc.line, tc.v, v)
		}
	}

	for _, line := range []string{"0xZZ", "12a"} {
		if _, err := ParseWord(line, false); err == nil {
			t.Fatalf("%q: expected error\n", line)
		}
	}
	if _, err := ParseWord("102", true); err == nil {
		t.Fatal("expected error for non-binary digits")
	}
}

func TestReadBlocks(t *testing.T) {
	input := "# header\n1\n\n2\nbogus\n3\n4\n5\n"

	blockCh := make(chan []protocol.Data)
	go ReadBlocks(strings.NewReader(input), 2, false, blockCh, make(chan struct{}))

	var blocks [][]protocol.Data
	for block := range blockCh {
		blocks = append(blocks, block)
	}

	if len(blocks) != 3 || len(blocks[2]) != 1 {
		t.Fatalf("Expected: 3 blocks Got: %v\n", blocks)
	}

	// Line numbers count skipped lines.
	expected := []protocol.Data{
		{Idx: 2, Value: 1}, {Idx: 4, Value: 2}, {Idx: 6, Value: 3}, {Idx: 7, Value: 4}, {Idx: 8, Value: 5},
	}
	var got []protocol.Data
	for _, block := range blocks {
		got = append(got, block...)
	}
	for idx := range expected {
		if got[idx] != expected[idx] {
			t.Fatalf("Expected: %v Got: %v\n", expected, got)
		}
	}
}

func TestEncodeDecodePages(t *testing.T) {
	*blockSize = 4
	r := newReceiver(t, "pocsag")

	pages := "123456:3:HELLO WORLD\n1234567:0:0123-456\n"

	var words bytes.Buffer
	if err := r.Encode(strings.NewReader(pages), &words); err != nil {
		t.Fatal(err)
	}

	var got []pocsag.Page
	for _, msg := range decode(newReceiver(t, "pocsag"), words.String()) {
		if pg, ok := msg.Message.(pocsag.Page); ok {
			got = append(got, pg)
		}
	}

	if len(got) != 2 {
		t.Fatalf("Expected: 2 pages Got: %d\n", len(got))
	}
	if got[0].Address != 123456 || got[0].Text != "HELLO WORLD" {
		t.Fatalf("unexpected page: %s\n", got[0])
	}
	if got[1].Address != 1234567 || got[1].Text != "0123-456" {
		t.Fatalf("unexpected page: %s\n", got[1])
	}
}

func TestEncodeRejectsMultipleCodes(t *testing.T) {
	r := newReceiver(t, "bch31-21,bch15-7")
	if err := r.Encode(strings.NewReader("1\n"), io.Discard); err == nil {
		t.Fatal("expected error encoding with two codes")
	}
}

func TestGenerateDecode(t *testing.T) {
	*blockSize = 16
	r := newReceiver(t, "bch31-21")

	var words bytes.Buffer
	if err := r.Generate(&words, 128, 2); err != nil {
		t.Fatal(err)
	}

	msgs := decode(r, words.String())
	if len(msgs) != 128 {
		t.Fatalf("Expected: 128 Got: %d\n", len(msgs))
	}
	for _, msg := range msgs {
		if msg.Status() == bch.Uncorrectable {
			t.Fatalf("generated word not corrected: %s\n", msg)
		}
		if _, ok := msg.Message.(raw.Codeword); !ok {
			t.Fatalf("unexpected message type: %T\n", msg.Message)
		}
	}
}

func TestFilters(t *testing.T) {
	*blockSize = 1

	const cw = 0b10101011111011000111010100010
	input := strings.Join([]string{"0x157D8EA2", "0x157D8EA2", "0x157D8EA3", "0x157D8EA5"}, "\n")

	r := newReceiver(t, "bch31-21")
	r.fc.Add(NewUniqueFilter())
	if msgs := decode(r, input); len(msgs) != 2 {
		t.Fatalf("Expected: 2 unique Got: %d\n", len(msgs))
	}

	sf := make(StatusFilter)
	if err := sf.Set("corrected, uncorrectable"); err != nil {
		t.Fatal(err)
	}
	if sf.String() != "corrected,uncorrectable" {
		t.Fatalf("Expected: %q Got: %q\n", "corrected,uncorrectable", sf.String())
	}
	if err := sf.Set("fixed"); err == nil {
		t.Fatal("expected error for unknown status")
	}

	r = newReceiver(t, "bch31-21")
	r.fc.Add(sf)
	msgs := decode(r, input)
	if len(msgs) != 2 {
		t.Fatalf("Expected: 2 Got: %d\n", len(msgs))
	}
	if msgs[0].Status() != bch.Corrected || msgs[0].Message.(raw.Codeword).Codeword != cw {
		t.Fatalf("unexpected message: %s\n", msgs[0])
	}

	*single = true
	defer func() { *single = false }()

	r = newReceiver(t, "bch31-21")
	if msgs := decode(r, input); len(msgs) != 1 {
		t.Fatalf("Expected: 1 Got: %d\n", len(msgs))
	}
}
