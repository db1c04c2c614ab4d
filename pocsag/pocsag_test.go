package pocsag

import (
	"sync"
	"testing"

	"github.com/bemasher/rtlbch/bch"
	"github.com/bemasher/rtlbch/protocol"
	"github.com/pkg/errors"
)

func newParser(t testing.TB) *Parser {
	p, err := NewParser()
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// parse runs words through a parser and collects every message it emits,
// including the page held back at the end of input.
func parse(p *Parser, words []uint32) (msgs []protocol.Message) {
	pkts := make([]protocol.Data, len(words))
	for idx, word := range words {
		pkts[idx] = protocol.Data{Idx: idx, Value: uint64(word)}
	}

	msgCh := make(chan protocol.Message)
	wg := new(sync.WaitGroup)
	wg.Add(1)
	go func() {
		p.Parse(pkts, msgCh, wg)
		close(msgCh)
	}()

	for msg := range msgCh {
		msgs = append(msgs, msg)
	}

	return append(msgs, p.Flush()...)
}

func pages(msgs []protocol.Message) (pgs []Page) {
	for _, msg := range msgs {
		if pg, ok := msg.(Page); ok {
			pgs = append(pgs, pg)
		}
	}
	return pgs
}

func TestSpecialWords(t *testing.T) {
	p := newParser(t)

	for _, word := range []uint32{FrameSyncWord, IdleWord} {
		if s := p.code.Syndrome(uint64(word >> 1)); s != 0 {
			t.Fatalf("0x%08X: Expected: 0 Got: %b\n", word, s)
		}
		if Parity(word) != word&1 {
			t.Fatalf("0x%08X: parity mismatch\n", word)
		}
	}
}

func TestEncodeAddress(t *testing.T) {
	p := newParser(t)

	for _, tc := range []struct {
		address  uint32
		function uint8
		word     uint32
	}{
		{123456, FuncAlphanumeric, 0x0789182E},
		{123456, FuncNumeric, 0x0789058B},
	} {
		word, err := p.EncodeAddress(tc.address, tc.function)
		if err != nil {
			t.Fatal(err)
		}
		if word != tc.word {
			t.Fatalf("Expected: 0x%08X Got: 0x%08X\n", tc.word, word)
		}
	}

	if _, err := p.EncodeAddress(1<<21, FuncNumeric); errors.Cause(err) != ErrAddress {
		t.Fatalf("Expected: %v Got: %v\n", ErrAddress, err)
	}
}

func TestWordCorrection(t *testing.T) {
	p := newParser(t)

	word, err := p.EncodeAddress(123456, FuncAlphanumeric)
	if err != nil {
		t.Fatal(err)
	}

	for _, e := range []uint32{0, 1 << 5, 1<<5 | 1<<30} {
		w := p.word(protocol.Data{Value: uint64(word ^ e)})

		if w.Kind != Address {
			t.Fatalf("Expected: %s Got: %s\n", Address, w.Kind)
		}
		if w.Corrected != word {
			t.Fatalf("Expected: 0x%08X Got: 0x%08X\n", word, w.Corrected)
		}
		if w.Address != 123456&^7 {
			t.Fatalf("Expected: %d Got: %d\n", 123456&^7, w.Address)
		}
		if w.Framed {
			t.Fatal("address framed without a sync word")
		}
		if w.Function != FuncAlphanumeric {
			t.Fatalf("Expected: %d Got: %d\n", FuncAlphanumeric, w.Function)
		}
	}

	// Three adjacent errors in the codeword exceed the code's capability.
	w := p.word(protocol.Data{Value: uint64(word ^ 0b1110)})
	if w.State != bch.Uncorrectable || w.Kind != Unknown {
		t.Fatalf("Expected: %s %s Got: %s %s\n", bch.Uncorrectable, Unknown, w.State, w.Kind)
	}
}

func TestTextCodecs(t *testing.T) {
	for _, text := range []string{"", "0", "0123456789", "555-0100", "[12]U"} {
		bits := EncodeNumeric(text)
		if len(bits)%dataBits != 0 {
			t.Fatalf("%q: %d bits not padded\n", text, len(bits))
		}
		if got := DecodeNumeric(bits); got != text {
			t.Fatalf("Expected: %q Got: %q\n", text, got)
		}
	}

	for _, text := range []string{"", "A", "HELLO WORLD", "Meet at 10:30, gate B!"} {
		bits := EncodeAlpha(text)
		if len(bits)%dataBits != 0 {
			t.Fatalf("%q: %d bits not padded\n", text, len(bits))
		}
		if got := DecodeAlpha(bits); got != text {
			t.Fatalf("Expected: %q Got: %q\n", text, got)
		}
	}
}

type page struct {
	address  uint32
	function uint8
	text     string
}

var transmission = []page{
	{123456, FuncAlphanumeric, "HELLO WORLD"},
	{1234567, FuncNumeric, "0123-456"},
	{2097151, FuncAlphanumeric, "Meet at 10:30, gate B!"},
	{8, FuncTone1, ""},
}

func transmit(t testing.TB, p *Parser) []uint32 {
	tx := p.NewTransmission()
	for _, pg := range transmission {
		if err := tx.Add(pg.address, pg.function, pg.text); err != nil {
			t.Fatal(err)
		}
	}

	words := tx.Words()
	if len(words)%(BatchWords+1) != 0 {
		t.Fatalf("%d words is not a whole number of batches\n", len(words))
	}

	return words
}

func checkPages(t *testing.T, pgs []Page, status bch.Status) {
	t.Helper()

	if len(pgs) != len(transmission) {
		t.Fatalf("Expected: %d pages Got: %d\n", len(transmission), len(pgs))
	}

	for idx, pg := range pgs {
		expected := transmission[idx]
		if pg.Address != expected.address || !pg.Framed {
			t.Fatalf("Expected: %d Got: %d framed: %t\n", expected.address, pg.Address, pg.Framed)
		}
		if pg.Function != expected.function {
			t.Fatalf("Expected: %d Got: %d\n", expected.function, pg.Function)
		}
		if pg.Text != expected.text {
			t.Fatalf("Expected: %q Got: %q\n", expected.text, pg.Text)
		}
		if pg.State != status {
			t.Fatalf("Expected: %s Got: %s\n", status, pg.State)
		}
	}
}

func TestTransmission(t *testing.T) {
	words := transmit(t, newParser(t))
	msgs := parse(newParser(t), words)

	checkPages(t, pages(msgs), bch.Valid)

	var addresses int
	for _, msg := range msgs {
		if w, ok := msg.(Word); ok && w.Kind == Address {
			addresses++
		}
	}
	if addresses != len(transmission) {
		t.Fatalf("Expected: %d Got: %d\n", len(transmission), addresses)
	}
}

func TestTransmissionErrors(t *testing.T) {
	words := transmit(t, newParser(t))

	// Two errors in every word, parity bit included.
	for idx := range words {
		words[idx] ^= 1<<(idx%31+1) | 1
	}

	msgs := parse(newParser(t), words)
	pgs := pages(msgs)
	checkPages(t, pgs, bch.Corrected)

	for _, pg := range pgs {
		if pg.Errors != pg.Words+1 {
			t.Fatalf("Expected: %d Got: %d\n", pg.Words+1, pg.Errors)
		}
	}

	for _, msg := range msgs {
		if w, ok := msg.(Word); ok && w.ParityOK {
			t.Fatalf("parity error not detected: %s\n", w)
		}
	}
}

func TestTransmissionUncorrectable(t *testing.T) {
	words := transmit(t, newParser(t))

	// First message word of the first page.
	words[2] ^= 0b1110

	pgs := pages(parse(newParser(t), words))
	if len(pgs) != len(transmission) {
		t.Fatalf("Expected: %d pages Got: %d\n", len(transmission), len(pgs))
	}
	if pgs[0].State != bch.Uncorrectable {
		t.Fatalf("Expected: %s Got: %s\n", bch.Uncorrectable, pgs[0].State)
	}
	if pgs[1].State != bch.Valid {
		t.Fatalf("Expected: %s Got: %s\n", bch.Valid, pgs[1].State)
	}
}

func TestFlushEmpty(t *testing.T) {
	p := newParser(t)
	if msgs := p.Flush(); msgs != nil {
		t.Fatalf("Expected: nil Got: %v\n", msgs)
	}

	msgs := parse(p, []uint32{FrameSyncWord, IdleWord, IdleWord})
	if len(msgs) != 0 {
		t.Fatalf("Expected: 0 messages Got: %d\n", len(msgs))
	}
}

func TestRegistered(t *testing.T) {
	p, err := protocol.NewParser("pocsag")
	if err != nil {
		t.Fatal(err)
	}

	if cfg := p.Cfg(); cfg.WordLength != 32 || cfg.Code.N != 31 {
		t.Fatalf("unexpected config: %+v\n", cfg)
	}
}
