package docstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Fingerprint computes the SHA-256 content hash of r. The hash is the
// document's duplicate-detection identity: identical bytes always produce the
// same hash regardless of filename or upload time. An empty stream is valid
// and hashes deterministically.
func Fingerprint(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, fmt.Errorf("hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// spooledUpload is an upload hashed into a temp file so the bytes can be
// re-read for blob storage after the duplicate check.
type spooledUpload struct {
	Hash string
	Size int64
	file *os.File
}

// spool copies r to a temp file while hashing it.
func spool(r io.Reader) (*spooledUpload, error) {
	tmp, err := os.CreateTemp("", "arkiv-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	hash, size, err := Fingerprint(io.TeeReader(r, tmp))
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}

	return &spooledUpload{Hash: hash, Size: size, file: tmp}, nil
}

// Reader rewinds the spool and returns a reader over the full upload.
func (s *spooledUpload) Reader() (io.Reader, error) {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind spool file: %w", err)
	}
	return s.file, nil
}

// Close removes the spool file.
func (s *spooledUpload) Close() error {
	name := s.file.Name()
	err := s.file.Close()
	os.Remove(name)
	return err
}
