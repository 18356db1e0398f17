package ingest

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/bitcoinchain/blockimporter/wire"
)

func recordFor(t *testing.T, blockHex string) []byte {
	t.Helper()
	payload, err := hex.DecodeString(blockHex)
	if err != nil {
		t.Fatalf("decode fixture hex: %s", err)
	}
	var buf bytes.Buffer
	buf.Write([]byte{0xf9, 0xbe, 0xb4, 0xd9}) // magic, discarded by the reader
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(payload)))
	buf.Write(size[:])
	buf.Write(payload)
	return buf.Bytes()
}

func Test_FileReader_ReadsSequentialRecords(t *testing.T) {
	var file bytes.Buffer
	file.Write(recordFor(t, genesisBlockHex))
	file.Write(recordFor(t, genesisBlockHex))

	fr := NewFileReader(&file, "blk00000.dat")

	first, err := fr.Next()
	if err != nil {
		t.Fatalf("first Next: %s", err)
	}
	if len(first.Transactions) != 1 {
		t.Fatalf("wrong tx count in first record: %d", len(first.Transactions))
	}

	second, err := fr.Next()
	if err != nil {
		t.Fatalf("second Next: %s", err)
	}
	if len(second.Transactions) != 1 {
		t.Fatalf("wrong tx count in second record: %d", len(second.Transactions))
	}

	if _, err := fr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF at end of file, got %v", err)
	}
}

func Test_FileReader_TruncatedPayloadIsCorrupt(t *testing.T) {
	full := recordFor(t, genesisBlockHex)
	truncated := full[:len(full)-10]

	fr := NewFileReader(bytes.NewReader(truncated), "blk00000.dat")

	_, err := fr.Next()
	if err == nil {
		t.Fatal("expected an error for a truncated record")
	}
	if !errors.Is(err, wire.ErrCorruptFile) {
		t.Errorf("expected ErrCorruptFile, got %v", err)
	}
}

func Test_FileReader_ShortHeaderIsCorrupt(t *testing.T) {
	garbage := bytes.Repeat([]byte{0xAA}, wire.HeaderSize-1)
	var file bytes.Buffer
	file.Write([]byte{0xf9, 0xbe, 0xb4, 0xd9})
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(garbage)))
	file.Write(size[:])
	file.Write(garbage)

	fr := NewFileReader(&file, "blk00000.dat")
	_, err := fr.Next()
	if err == nil {
		t.Fatal("expected an error for a record too short to hold a header")
	}
	if !errors.Is(err, wire.ErrCorruptFile) {
		t.Errorf("expected ErrCorruptFile, got %v", err)
	}
}
