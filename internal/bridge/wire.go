package bridge

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ValidateWire reports whether data is a well-formed sequence of protobuf
// fields. It checks framing only: no schema is consulted.
func ValidateWire(data []byte) error {
	offset := 0
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("tag at offset %d: %w", offset, protowire.ParseError(n))
		}

		m := protowire.ConsumeFieldValue(num, typ, data[n:])
		if m < 0 {
			return fmt.Errorf("field %d at offset %d: %w", num, offset, protowire.ParseError(m))
		}

		data = data[n+m:]
		offset += n + m
	}
	return nil
}
