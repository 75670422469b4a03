package unit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON encodes units as a JSON array and writes it to w in a single
// call. Encoding happens into memory first, so a failed encode writes
// nothing. A nil slice is written as [].
func WriteJSON(w io.Writer, units []SourceUnit, pretty bool) error {
	if units == nil {
		units = []SourceUnit{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(units); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
