package bitcoin

import (
	"bytes"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

const (
	// Hash32Size is the length in bytes of a Hash32 value.
	Hash32Size = 32
)

// Hash32 is a 32 byte double-SHA256 style identifier (block hash, txid,
// merkle root) stored internally in little-endian (on-disk/consensus)
// byte order. Its String/JSON/text representations use the conventional
// reversed (big-endian, "human-quoted") byte order.
type Hash32 [Hash32Size]byte

// NewHash32 creates a Hash32 from raw little-endian bytes.
func NewHash32(b []byte) (*Hash32, error) {
	if len(b) != Hash32Size {
		return nil, errors.Wrapf(ErrWrongSize, "got %d, want %d", len(b), Hash32Size)
	}
	result := Hash32{}
	copy(result[:], b)
	return &result, nil
}

// NewHash32FromStr creates a Hash32 from a reversed (display order) hex string.
func NewHash32FromStr(s string) (*Hash32, error) {
	result := &Hash32{}
	if err := result.SetString(s); err != nil {
		return nil, err
	}
	return result, nil
}

// Bytes returns the internal little-endian byte representation.
func (h Hash32) Bytes() []byte {
	return h[:]
}

// Value implements database/sql/driver.Valuer, storing the hash as raw bytes.
func (h Hash32) Value() (driver.Value, error) {
	return h.Bytes(), nil
}

// ReverseBytes returns the bytes in reverse (display / big-endian) order.
func (h Hash32) ReverseBytes() []byte {
	b := make([]byte, Hash32Size)
	reverse32(b, h[:])
	return b
}

// Int interprets the hash, in display order, as an unsigned big integer.
// Used to compare a block hash against a difficulty target.
func (h Hash32) Int() *big.Int {
	value := &big.Int{}
	value.SetBytes(h.ReverseBytes())
	return value
}

// SetBytes sets the value of the hash from raw little-endian bytes.
func (h *Hash32) SetBytes(b []byte) error {
	if len(b) != Hash32Size {
		return errors.Wrapf(ErrWrongSize, "got %d, want %d", len(b), Hash32Size)
	}
	copy(h[:], b)
	return nil
}

// SetString sets the value of the hash from a reversed (display order) hex string.
func (h *Hash32) SetString(s string) error {
	if len(s) != 2*Hash32Size {
		return errors.Wrapf(ErrWrongSize, "hex: got %d, want %d", len(s), Hash32Size*2)
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrap(err, "hex decode")
	}

	reverse32(h[:], b)
	return nil
}

// String returns the reversed (display order) hex representation of the hash.
func (h Hash32) String() string {
	return hex.EncodeToString(h.ReverseBytes())
}

// Equal returns true if the parameter has the same value.
func (h *Hash32) Equal(o *Hash32) bool {
	if h == nil {
		return o == nil
	}
	if o == nil {
		return false
	}
	return bytes.Equal(h[:], o[:])
}

// Copy returns a copy of the hash.
func (h Hash32) Copy() Hash32 {
	var c Hash32
	copy(c[:], h[:])
	return c
}

// IsZero returns true if the hash is all zero bytes.
func (h Hash32) IsZero() bool {
	var zero Hash32
	return h.Equal(&zero)
}

// Serialize writes the raw little-endian hash into a writer.
func (h Hash32) Serialize(w io.Writer) error {
	_, err := w.Write(h[:])
	return err
}

// Deserialize reads a raw little-endian hash from a reader into h.
func (h *Hash32) Deserialize(r io.Reader) error {
	_, err := io.ReadFull(r, h[:])
	return err
}

// DeserializeHash32 reads a new hash from a reader.
func DeserializeHash32(r io.Reader) (*Hash32, error) {
	result := Hash32{}
	if _, err := io.ReadFull(r, result[:]); err != nil {
		return nil, err
	}
	return &result, nil
}

// MarshalJSON converts to json using the reversed display hex form.
func (h Hash32) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("\"%s\"", h)), nil
}

// UnmarshalJSON converts from json.
func (h *Hash32) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("hash32: json value must be a quoted hex string")
	}
	return h.SetString(string(data[1 : len(data)-1]))
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash32) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash32) UnmarshalText(text []byte) error {
	return h.SetString(string(text))
}

// MarshalBinaryFixedSize returns the fixed serialized size of a Hash32.
func (h Hash32) MarshalBinaryFixedSize() int {
	return Hash32Size
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h Hash32) MarshalBinary() ([]byte, error) {
	return h.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *Hash32) UnmarshalBinary(data []byte) error {
	return h.SetBytes(data)
}

// Scan implements database/sql.Scanner, reading a BYTEA column.
func (h *Hash32) Scan(data interface{}) error {
	b, ok := data.([]byte)
	if !ok {
		return errors.New("Hash32 db column not bytes")
	}
	return h.SetBytes(b)
}

func reverse32(dst, src []byte) {
	i := Hash32Size - 1
	for _, b := range src {
		dst[i] = b
		i--
	}
}
