package parser

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// ReadSource decodes a Latin-1 AWL source.
func ReadSource(r io.Reader) (string, error) {
	data, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(r))
	if err != nil {
		return "", errors.Wrap(err, "read AWL source")
	}
	return string(data), nil
}

// WriteSource encodes text as Latin-1 with CRLF line terminators.
func WriteSource(w io.Writer, text string) error {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", "\r\n")
	enc := charmap.ISO8859_1.NewEncoder().Writer(w)
	if _, err := io.WriteString(enc, text); err != nil {
		return errors.Wrap(err, "write AWL source")
	}
	return nil
}
