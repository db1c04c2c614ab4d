package pocsag

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bemasher/rtlbch/bch"
	"github.com/pkg/errors"
)

// Bits of text carried by each message word.
const dataBits = 20

var ErrAddress = errors.New("pocsag: address exceeds 21 bits")

// A Page is an address word and the message words following it.
type Page struct {
	Idx      int    `xml:",attr"`
	Address  uint32 `xml:",attr"`
	Function uint8  `xml:",attr"`
	Framed   bool   `xml:",attr"`
	Words    int    `xml:",attr"`
	Errors   int    `xml:",attr"`
	Text     string

	// Worst status of any word in the page.
	State bch.Status `xml:",attr"`

	bits []byte
}

func NewPage(addr Word) *Page {
	return &Page{
		Idx:      addr.Idx,
		Address:  addr.Address,
		Function: addr.Function,
		Framed:   addr.Framed,
		Errors:   addr.Errors,
		State:    addr.State,
	}
}

// Append adds a message word's data bits to the page. Uncorrectable words
// contribute their raw bits and mark the page uncorrectable.
func (pg *Page) Append(w Word) {
	data := w.Data
	if w.State == bch.Uncorrectable {
		data = w.Received>>11&0xFFFFF
	}

	for i := dataBits - 1; i >= 0; i-- {
		pg.bits = append(pg.bits, byte(data>>uint(i)&1))
	}

	pg.Words++
	pg.Errors += w.Errors
	if w.State > pg.State {
		pg.State = w.State
	}

	if pg.Function == FuncNumeric {
		pg.Text = DecodeNumeric(pg.bits)
	} else {
		pg.Text = DecodeAlpha(pg.bits)
	}
}

func (pg Page) MsgType() string {
	return "POCSAG"
}

func (pg Page) Status() bch.Status {
	return pg.State
}

func (pg Page) Checksum() []byte {
	return []byte(strconv.FormatUint(uint64(pg.Address), 16) + ":" + pg.Text)
}

func (pg Page) String() string {
	return fmt.Sprintf("{Address:%7d Function:%d Words:%d Errors:%d Status:%s Text:%q}",
		pg.Address, pg.Function, pg.Words, pg.Errors, pg.State, pg.Text,
	)
}

func (pg Page) Record() (r []string) {
	r = append(r, "page")
	r = append(r, strconv.FormatUint(uint64(pg.Address), 10))
	r = append(r, strconv.FormatUint(uint64(pg.Function), 10))
	r = append(r, strconv.Itoa(pg.Words))
	r = append(r, strconv.Itoa(pg.Errors))
	r = append(r, pg.State.String())
	r = append(r, pg.Text)

	return r
}

var numericChars = [16]byte{
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 0, 'U', ' ', '-', ']', '[',
}

// DecodeNumeric decodes 4-bit BCD characters, each sent least significant
// bit first. Trailing space padding is removed.
func DecodeNumeric(bits []byte) string {
	var sb strings.Builder
	for i := 0; i+4 <= len(bits); i += 4 {
		var nibble byte
		for j := 0; j < 4; j++ {
			nibble |= bits[i+j] << uint(j)
		}
		if c := numericChars[nibble]; c != 0 {
			sb.WriteByte(c)
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// DecodeAlpha decodes 7-bit ASCII characters, each sent least significant
// bit first. Decoding stops at ETX or EOT, NUL padding is skipped.
func DecodeAlpha(bits []byte) string {
	var sb strings.Builder
	for i := 0; i+7 <= len(bits); i += 7 {
		var c byte
		for j := 0; j < 7; j++ {
			c |= bits[i+j] << uint(j)
		}

		switch {
		case c == 0x03 || c == 0x04:
			return sb.String()
		case c >= 0x20 && c <= 0x7E:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// EncodeNumeric returns the bits of a numeric text padded with spaces to a
// whole number of message words. Characters outside the numeric set are sent
// as spaces.
func EncodeNumeric(text string) (bits []byte) {
	nibble := func(c byte) (n byte) {
		for idx, v := range numericChars {
			if v == c && v != 0 {
				return byte(idx)
			}
		}
		return 0xC
	}

	for i := 0; i < len(text); i++ {
		n := nibble(text[i])
		for j := 0; j < 4; j++ {
			bits = append(bits, n>>uint(j)&1)
		}
	}

	for len(bits)%dataBits != 0 {
		bits = append(bits, 0, 0, 1, 1)
	}

	return bits
}

// EncodeAlpha returns the bits of an ASCII text terminated by ETX and padded
// with zeros to a whole number of message words.
func EncodeAlpha(text string) (bits []byte) {
	for _, c := range []byte(text + "\x03") {
		for j := 0; j < 7; j++ {
			bits = append(bits, c>>uint(j)&1)
		}
	}

	for len(bits)%dataBits != 0 {
		bits = append(bits, 0)
	}

	return bits
}

// EncodeAddress returns the address word for a 21-bit address. The low three
// address bits select the frame the word must be sent in.
func (p *Parser) EncodeAddress(address uint32, function uint8) (uint32, error) {
	if address>>21 != 0 {
		return 0, errors.Wrapf(ErrAddress, "%d", address)
	}

	word, err := p.Encode(uint64(address>>3<<2 | uint32(function&0x3)))
	return uint32(word), err
}

// EncodeMessage returns the message word carrying 20 data bits.
func (p *Parser) EncodeMessage(data uint32) (uint32, error) {
	word, err := p.Encode(1<<dataBits | uint64(data&0xFFFFF))
	return uint32(word), err
}

// EncodePage returns the address word followed by the message words of a page.
func (p *Parser) EncodePage(address uint32, function uint8, text string) (words []uint32, err error) {
	word, err := p.EncodeAddress(address, function)
	if err != nil {
		return nil, err
	}
	words = append(words, word)

	if text == "" {
		return words, nil
	}

	var bits []byte
	if function == FuncNumeric {
		bits = EncodeNumeric(text)
	} else {
		bits = EncodeAlpha(text)
	}

	for i := 0; i < len(bits); i += dataBits {
		var data uint32
		for _, b := range bits[i : i+dataBits] {
			data = data<<1 | uint32(b)
		}

		if word, err = p.EncodeMessage(data); err != nil {
			return nil, err
		}
		words = append(words, word)
	}

	return words, nil
}

// Transmission lays pages out in batches: a frame sync word followed by 16
// words. Each page's address word waits for the frame selected by its
// address, unused slots are filled with idle words.
type Transmission struct {
	p     *Parser
	words []uint32
	slot  int
}

func (p *Parser) NewTransmission() *Transmission {
	return &Transmission{p: p}
}

func (t *Transmission) put(word uint32) {
	if t.slot == 0 {
		t.words = append(t.words, FrameSyncWord)
	}
	t.words = append(t.words, word)
	t.slot = (t.slot + 1) % BatchWords
}

// Add appends a page to the transmission.
func (t *Transmission) Add(address uint32, function uint8, text string) error {
	words, err := t.p.EncodePage(address, function, text)
	if err != nil {
		return err
	}

	for frame := int(address & 0x7); t.slot>>1 != frame; {
		t.put(IdleWord)
	}

	for _, word := range words {
		t.put(word)
	}

	return nil
}

// Words returns the transmission padded with idle words to a whole batch.
func (t *Transmission) Words() []uint32 {
	words := append([]uint32(nil), t.words...)
	for slot := t.slot; slot != 0; slot = (slot + 1) % BatchWords {
		words = append(words, IdleWord)
	}
	return words
}
