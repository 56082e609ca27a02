package model

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"

	"loan-eligibility/encoder"
	"loan-eligibility/forest"
)

// FormatVersion is written into every encoded bundle.
const FormatVersion = 1

// storedBundle is the on-disk envelope. Payload is the gzip-compressed gob
// encoding of payload; Checksum is the SHA-256 of the uncompressed bytes.
type storedBundle struct {
	Version  int
	Metadata Metadata
	Checksum string
	Payload  []byte
}

type payload struct {
	Profile encoder.Profile
	Forest  *forest.Forest
}

// Encode writes b as a single checksummed blob. It does not validate b;
// Decode does.
func Encode(w io.Writer, b *Bundle) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload{Profile: b.Profile, Forest: b.Forest}); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	raw := buf.Bytes()
	hash := sha256.Sum256(raw)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	b.Metadata.Checksum = hex.EncodeToString(hash[:])
	b.Metadata.SizeBytes = int64(compressed.Len())

	sb := storedBundle{
		Version:  FormatVersion,
		Metadata: b.Metadata,
		Checksum: b.Metadata.Checksum,
		Payload:  compressed.Bytes(),
	}
	if err := gob.NewEncoder(w).Encode(sb); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Decode reads a bundle written by Encode, verifies its checksum and
// validates that every component is present.
func Decode(r io.Reader) (*Bundle, error) {
	var sb storedBundle
	if err := gob.NewDecoder(r).Decode(&sb); err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	if sb.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported model format version %d", sb.Version)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sb.Payload))
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }()

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed model: %w", err)
	}

	hash := sha256.Sum256(raw)
	if sum := hex.EncodeToString(hash[:]); sum != sb.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sb.Checksum, sum)
	}

	var p payload
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	b := &Bundle{Metadata: sb.Metadata, Profile: p.Profile, Forest: p.Forest}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadMetadata decodes only the envelope of an encoded bundle. The payload
// is neither decompressed nor verified.
func ReadMetadata(r io.Reader) (Metadata, error) {
	var sb storedBundle
	if err := gob.NewDecoder(r).Decode(&sb); err != nil {
		return Metadata{}, fmt.Errorf("read model: %w", err)
	}
	return sb.Metadata, nil
}

// Marshal and Unmarshal are Encode and Decode over byte slices, for stores
// that keep the bundle as a blob.
func Marshal(b *Bundle) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Unmarshal(data []byte) (*Bundle, error) {
	return Decode(bytes.NewReader(data))
}
