package bridge

import (
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestValidateWire(t *testing.T) {
	var valid []byte
	valid = protowire.AppendTag(valid, 1, protowire.VarintType)
	valid = protowire.AppendVarint(valid, 150)
	valid = protowire.AppendTag(valid, 2, protowire.BytesType)
	valid = protowire.AppendBytes(valid, []byte("frame"))
	valid = protowire.AppendTag(valid, 3, protowire.Fixed64Type)
	valid = protowire.AppendFixed64(valid, 42)

	var group []byte
	group = protowire.AppendTag(group, 4, protowire.StartGroupType)
	group = protowire.AppendTag(group, 1, protowire.VarintType)
	group = protowire.AppendVarint(group, 1)
	group = protowire.AppendTag(group, 4, protowire.EndGroupType)

	truncated := protowire.AppendTag(nil, 2, protowire.BytesType)
	truncated = protowire.AppendVarint(truncated, 10) // Claims 10 bytes
	truncated = append(truncated, 'a', 'b')

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"empty message", nil, false},
		{"scalar fields", valid, false},
		{"group", group, false},
		{"truncated bytes", truncated, true},
		{"field number zero", []byte{0x00, 0x01}, true},
		{"dangling varint", []byte{0x08, 0x96}, true},
		{"stray end group", protowire.AppendTag(nil, 1, protowire.EndGroupType), true},
		{"reserved wire type", []byte{0x0f}, true},
		{"json text", []byte(`{"width":640}`), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWire(tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWire() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
