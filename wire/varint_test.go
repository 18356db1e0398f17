package wire

import (
	"bytes"
	"math"
	"testing"
)

func Test_VarInt_RoundTrip(t *testing.T) {
	values := []uint64{
		0, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000, math.MaxUint64,
	}

	for _, v := range values {
		var buf bytes.Buffer
		if err := WriteVarInt(&buf, v); err != nil {
			t.Fatalf("WriteVarInt(%d): %s", v, err)
		}

		if buf.Len() != VarIntSerializeSize(v) {
			t.Errorf("value %d: wrote %d bytes, VarIntSerializeSize says %d", v, buf.Len(),
				VarIntSerializeSize(v))
		}

		got, err := ReadVarInt(&buf)
		if err != nil {
			t.Fatalf("ReadVarInt(%d): %s", v, err)
		}
		if got != v {
			t.Errorf("round trip mismatch: wrote %d, read %d", v, got)
		}
	}
}

func Test_VarInt_253_Boundary(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVarInt(&buf, 253); err != nil {
		t.Fatalf("WriteVarInt: %s", err)
	}

	want := []byte{0xfd, 0xfd, 0x00}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("wrong encoding for 253: got % x want % x", buf.Bytes(), want)
	}
}

func Test_VarInt_NonMinimalEncodingAccepted(t *testing.T) {
	// 0xfd discriminant followed by a value that would fit in one byte.
	// Archive files are not adversarial input, so this is accepted rather
	// than rejected the way the peer-to-peer wire protocol requires.
	buf := bytes.NewReader([]byte{0xfd, 0x01, 0x00})

	v, err := ReadVarInt(buf)
	if err != nil {
		t.Fatalf("ReadVarInt: %s", err)
	}
	if v != 1 {
		t.Errorf("got %d, want 1", v)
	}
}
