package types

import (
	"bytes"
	"encoding/json"
	"io"

	errs "github.com/theapemachine/airflow-mcp/pkg/errors"
)

/*
Parse decodes a single JSON document. source names where the bytes came from
(a schema path or a URL) and ends up in the Malformed error together with the
line, column and byte offset reported by the decoder.
*/
func Parse(source string, data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any

	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return Value{}, malformed(source, data, errorOffset(err, dec), err)
	}

	if _, err := dec.Token(); err != io.EOF {
		offset := dec.InputOffset()

		if err == nil {
			err = &json.SyntaxError{Offset: offset}
		}

		return Value{}, malformed(source, data, offset, trailingData{err})
	}

	return FromAny(raw)
}

type trailingData struct{ cause error }

func (t trailingData) Error() string {
	return "invalid character after top-level value"
}

func (t trailingData) Unwrap() error { return t.cause }

func errorOffset(err error, dec *json.Decoder) int64 {
	switch e := err.(type) {
	case *json.SyntaxError:
		return e.Offset
	case *json.UnmarshalTypeError:
		return e.Offset
	}

	return dec.InputOffset()
}

func malformed(source string, data []byte, offset int64, cause error) error {
	line, column := position(data, offset)
	return errs.Malformed(source, offset, line, column, cause)
}

/*
position converts a byte offset into a 1-based line and column.
*/
func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}

	if offset < 0 {
		offset = 0
	}

	head := data[:offset]
	line := bytes.Count(head, []byte("\n")) + 1
	column := int(offset) - (bytes.LastIndexByte(head, '\n') + 1)

	if column < 1 {
		column = 1
	}

	return line, column
}
