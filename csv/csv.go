// Package csv writes messages as comma-separated records.
package csv

import (
	"encoding/csv"
	"io"

	"golang.org/x/xerrors"
)

// Produces a list of fields making up a record.
type Recorder interface {
	Record() []string
}

// An Encoder writes CSV records to an output stream.
type Encoder struct {
	w *csv.Writer
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: csv.NewWriter(w)}
}

// Encode writes a CSV record representing v to the stream followed by a
// newline character. Value given must implement the Recorder interface.
func (enc *Encoder) Encode(v interface{}) (err error) {
	defer func() {
		if rErr, _ := recover().(error); rErr != nil {
			err = xerrors.Errorf("recovered: %w", rErr)
		}
	}()

	if err = enc.w.Write(v.(Recorder).Record()); err != nil {
		return xerrors.Errorf("write record: %w", err)
	}
	enc.w.Flush()

	if err = enc.w.Error(); err != nil {
		return xerrors.Errorf("flush record: %w", err)
	}

	return nil
}
