// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/bitcoin"
)

const (
	// segWitMarker and segWitFlag are the two bytes that, immediately
	// following a transaction's version field, signal that the transaction
	// carries a witness structure rather than an input count.
	segWitMarker = 0x00
	segWitFlag   = 0x01

	// maxScriptLength is the sanity bound on a single script's length.
	// Real scripts are a small fraction of this; a larger value read from
	// the stream means the reader has lost alignment with the file.
	maxScriptLength = 1000000

	// maxCountField is the sanity bound applied to every varint-encoded
	// count (tx count, input count, output count, witness item count)
	// before it is used to size an allocation.
	maxCountField = 1000000
)

// OutPoint identifies the output being spent by a transaction input.
type OutPoint struct {
	Hash  bitcoin.Hash32
	Index uint32
}

// TxIn is a single transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	UnlockingScript  []byte
	Sequence         uint32
	Witness          [][]byte // nil unless the enclosing tx carries segwit data
}

// TxOut is a single transaction output.
type TxOut struct {
	Value         uint64
	LockingScript []byte
}

// Tx is a fully decoded transaction.
type Tx struct {
	Version    int32
	HasWitness bool
	TxIn       []*TxIn
	TxOut      []*TxOut
	LockTime   uint32

	// SerializedSize is the number of bytes this transaction occupied in
	// the source stream, including any segwit marker/flag/witness data.
	SerializedSize int
}

// ReadTx decodes a single transaction from r.
func ReadTx(r io.Reader) (*Tx, error) {
	counter := &countingReader{r: r}
	tx := &Tx{}

	if err := binary.Read(counter, endian, &tx.Version); err != nil {
		return nil, errors.Wrap(err, "read version")
	}

	countSize, count, err := ReadVarIntN(counter)
	if err != nil {
		return nil, errors.Wrap(err, "read input count")
	}
	_ = countSize

	if count == 0 {
		// count==0 with the next byte 0x01 is the segwit marker/flag pair;
		// re-read the real input count that follows the flag byte.
		var flag [1]byte
		if _, err := io.ReadFull(counter, flag[:]); err != nil {
			return nil, errors.Wrap(err, "read segwit flag")
		}
		if flag[0] != segWitFlag {
			return nil, errors.Wrap(ErrCorruptFile, "zero input count without segwit flag")
		}
		tx.HasWitness = true

		count, err = ReadVarInt(counter)
		if err != nil {
			return nil, errors.Wrap(err, "read input count after segwit flag")
		}
	}

	if count > maxCountField {
		return nil, errors.Wrapf(ErrInvalidScriptLength, "input count %d exceeds sanity bound", count)
	}

	tx.TxIn = make([]*TxIn, 0, count)
	for i := uint64(0); i < count; i++ {
		in, err := readTxIn(counter)
		if err != nil {
			return nil, errors.Wrapf(err, "read input %d", i)
		}
		tx.TxIn = append(tx.TxIn, in)
	}

	outCount, err := ReadVarInt(counter)
	if err != nil {
		return nil, errors.Wrap(err, "read output count")
	}
	if outCount > maxCountField {
		return nil, errors.Wrapf(ErrInvalidScriptLength, "output count %d exceeds sanity bound", outCount)
	}

	tx.TxOut = make([]*TxOut, 0, outCount)
	for i := uint64(0); i < outCount; i++ {
		out, err := readTxOut(counter)
		if err != nil {
			return nil, errors.Wrapf(err, "read output %d", i)
		}
		tx.TxOut = append(tx.TxOut, out)
	}

	if tx.HasWitness {
		for i, in := range tx.TxIn {
			witness, err := readWitness(counter)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformedWitness, "input %d: %s", i, err)
			}
			in.Witness = witness
		}
	}

	if err := binary.Read(counter, endian, &tx.LockTime); err != nil {
		return nil, errors.Wrap(err, "read lock time")
	}

	tx.SerializedSize = counter.n
	return tx, nil
}

func readTxIn(r io.Reader) (*TxIn, error) {
	in := &TxIn{}

	if err := in.PreviousOutPoint.Hash.Deserialize(r); err != nil {
		return nil, errors.Wrap(err, "read previous txid")
	}
	if err := binary.Read(r, endian, &in.PreviousOutPoint.Index); err != nil {
		return nil, errors.Wrap(err, "read previous output index")
	}

	script, err := readScript(r)
	if err != nil {
		return nil, errors.Wrap(err, "read unlocking script")
	}
	in.UnlockingScript = script

	if err := binary.Read(r, endian, &in.Sequence); err != nil {
		return nil, errors.Wrap(err, "read sequence")
	}

	return in, nil
}

func readTxOut(r io.Reader) (*TxOut, error) {
	out := &TxOut{}

	if err := binary.Read(r, endian, &out.Value); err != nil {
		return nil, errors.Wrap(err, "read value")
	}

	script, err := readScript(r)
	if err != nil {
		return nil, errors.Wrap(err, "read locking script")
	}
	out.LockingScript = script

	return out, nil
}

func readScript(r io.Reader) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, errors.Wrap(err, "read script length")
	}
	if count > maxScriptLength {
		return nil, errors.Wrapf(ErrInvalidScriptLength, "script length %d exceeds max %d", count,
			maxScriptLength)
	}

	script := make([]byte, count)
	if _, err := io.ReadFull(r, script); err != nil {
		return nil, errors.Wrap(err, "read script data")
	}
	return script, nil
}

func readWitness(r io.Reader) ([][]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, errors.Wrap(err, "read witness item count")
	}
	if count > maxCountField {
		return nil, fmt.Errorf("witness item count %d exceeds sanity bound", count)
	}

	items := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		length, err := ReadVarInt(r)
		if err != nil {
			return nil, errors.Wrapf(err, "read witness item %d length", i)
		}
		if length > maxScriptLength {
			return nil, fmt.Errorf("witness item %d length %d exceeds max %d", i, length, maxScriptLength)
		}

		item := make([]byte, length)
		if _, err := io.ReadFull(r, item); err != nil {
			return nil, errors.Wrapf(err, "read witness item %d", i)
		}
		items = append(items, item)
	}

	return items, nil
}

// SerializeCanonical writes the canonical (non-segwit) consensus encoding of
// the transaction: version, inputs, outputs and lock time, with no segwit
// marker/flag/witness data. This is the form double-SHA256 hashed to
// produce the transaction id, matching the original consensus
// specification rather than an abbreviated form that omits script length
// prefixes.
func (tx *Tx) SerializeCanonical(w io.Writer) error {
	if err := binary.Write(w, endian, tx.Version); err != nil {
		return err
	}

	if err := WriteVarInt(w, uint64(len(tx.TxIn))); err != nil {
		return err
	}
	for _, in := range tx.TxIn {
		if err := in.PreviousOutPoint.Hash.Serialize(w); err != nil {
			return err
		}
		if err := binary.Write(w, endian, in.PreviousOutPoint.Index); err != nil {
			return err
		}
		if err := WriteVarInt(w, uint64(len(in.UnlockingScript))); err != nil {
			return err
		}
		if _, err := w.Write(in.UnlockingScript); err != nil {
			return err
		}
		if err := binary.Write(w, endian, in.Sequence); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.TxOut))); err != nil {
		return err
	}
	for _, out := range tx.TxOut {
		if err := binary.Write(w, endian, out.Value); err != nil {
			return err
		}
		if err := WriteVarInt(w, uint64(len(out.LockingScript))); err != nil {
			return err
		}
		if _, err := w.Write(out.LockingScript); err != nil {
			return err
		}
	}

	return binary.Write(w, endian, tx.LockTime)
}

// CanonicalBytes returns the canonical consensus encoding used for txid
// hashing.
func (tx *Tx) CanonicalBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.SerializeCanonical(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// countingReader wraps an io.Reader and tracks the total number of bytes
// successfully read through it.
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}
