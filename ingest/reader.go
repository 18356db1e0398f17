package ingest

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/wire"
)

// magicSize and lengthSize are the two little-endian fields that frame
// every block record in an archive file: a network magic value and the
// payload's byte length, both discarded once read.
const (
	magicSize  = 4
	lengthSize = 4
)

// FileReader decodes the sequence of block records in a single archive
// file, handed to it already opened so the scanner and the reader can be
// tested independently of the filesystem.
type FileReader struct {
	r    *bufio.Reader
	path string
}

// OpenFile opens path and returns a FileReader positioned at its first
// record.
func OpenFile(path string) (*FileReader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open")
	}
	return &FileReader{r: bufio.NewReaderSize(f, 1<<20), path: path}, f, nil
}

// NewFileReader wraps an already-open reader, for tests and for any future
// non-filesystem source.
func NewFileReader(r io.Reader, path string) *FileReader {
	return &FileReader{r: bufio.NewReader(r), path: path}
}

// Next decodes the next block record. A clean io.EOF at a record boundary
// means the file is exhausted; any other error is wrapped in
// wire.ErrCorruptFile and the caller should stop reading this file.
func (fr *FileReader) Next() (*wire.Block, error) {
	var header [magicSize + lengthSize]byte
	if _, err := io.ReadFull(fr.r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrapf(wire.ErrCorruptFile, "%s: read record header: %s", fr.path, err)
	}

	size := binary.LittleEndian.Uint32(header[magicSize:])

	payload := make([]byte, size)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		return nil, errors.Wrapf(wire.ErrCorruptFile, "%s: read record payload: %s", fr.path, err)
	}

	block, err := wire.ReadBlock(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrapf(wire.ErrCorruptFile, "%s: %s", fr.path, err)
	}

	return block, nil
}
