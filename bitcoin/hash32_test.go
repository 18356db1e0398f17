package bitcoin

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func Test_Hash32_String_HardCode(t *testing.T) {
	tests := []struct {
		text string
		hash Hash32
	}{
		{
			text: "84e806b4c902d8ad7696ec89d2a6222872cfaa5fad7ef9d21f6279159a74e775"[:64],
			hash: Hash32{0x75, 0xe7, 0x74, 0x9a, 0x15, 0x79, 0x62, 0x1f, 0xd2, 0xf9, 0x7e, 0xad,
				0x5f, 0xaa, 0xcf, 0x72, 0x28, 0x22, 0xa6, 0xd2, 0x89, 0xec, 0x96, 0x76, 0xad, 0xd8,
				0x02, 0xc9, 0xb4, 0x06, 0xe8, 0x84},
		},
		{
			text: "0e88b0b19202b75599bad07b735acc93d5688c2b87859e70b67c7c171d0e1955"[:64],
			hash: Hash32{0x55, 0x19, 0x0e, 0x1d, 0x17, 0x7c, 0x7c, 0xb6, 0x70, 0x9e, 0x85, 0x87,
				0x2b, 0x8c, 0x68, 0xd5, 0x93, 0xcc, 0x5a, 0x73, 0x7b, 0xd0, 0xba, 0x99, 0x55, 0xb7,
				0x02, 0x92, 0xb1, 0xb0, 0x88, 0x0e},
		},
	}

	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			hash, err := NewHash32FromStr(test.text)
			if err != nil {
				t.Fatalf("Failed to convert from string : %s", err)
			}

			if !bytes.Equal(hash[:], test.hash[:]) {
				t.Errorf("Wrong bytes : \n  got  : %s  want : %s", spew.Sdump(hash), spew.Sdump(test.hash))
			}

			text := hash.String()
			if text != test.text {
				t.Errorf("Wrong text : \n  got  : %s\n  want : %s", text, test.text)
			}
		})
	}
}

func Test_Hash32_ReverseRoundTrip(t *testing.T) {
	raw := make([]byte, Hash32Size)
	for i := range raw {
		raw[i] = byte(i)
	}

	h, err := NewHash32(raw)
	if err != nil {
		t.Fatalf("NewHash32: %s", err)
	}

	reversed, err := NewHash32FromStr(h.String())
	if err != nil {
		t.Fatalf("NewHash32FromStr: %s", err)
	}

	if !h.Equal(reversed) {
		t.Errorf("round trip through String/FromStr changed value")
	}
}

func Test_Hash32_IsZero(t *testing.T) {
	var h Hash32
	if !h.IsZero() {
		t.Errorf("zero-value Hash32 should report IsZero")
	}

	h[0] = 1
	if h.IsZero() {
		t.Errorf("non-zero Hash32 should not report IsZero")
	}
}

func Test_Hash32_Value(t *testing.T) {
	h, err := NewHash32FromStr("0e88b0b19202b75599bad07b735acc93d5688c2b87859e70b67c7c171d0e1955"[:64])
	if err != nil {
		t.Fatalf("NewHash32FromStr: %s", err)
	}

	v, err := h.Value()
	if err != nil {
		t.Fatalf("Value: %s", err)
	}

	b, ok := v.([]byte)
	if !ok {
		t.Fatalf("Value did not return []byte")
	}

	if !bytes.Equal(b, h.Bytes()) {
		t.Errorf("Value should return the internal little-endian bytes unchanged")
	}
}
