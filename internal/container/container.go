// Package container implements the KOLP backup file format: a fixed 49-byte
// header followed by the JSON-encoded snapshot.
//
//	offset size field
//	0      4    magic "KOLP"
//	4      1    format version
//	5      8    timestamp, little-endian int64, epoch milliseconds
//	13     32   checksum, ASCII hex (first 32 chars of SHA-256 of the payload)
//	45     4    payload length, little-endian uint32
//	49     N    UTF-8 JSON payload
//
// Decoding is all-or-nothing: any structural or integrity problem rejects
// the whole container.
package container

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/kolp/internal/models"
)

const (
	Magic          = "KOLP"
	CurrentVersion = byte(1)

	HeaderSize   = 49
	ChecksumSize = 32

	offVersion   = 4
	offTimestamp = 5
	offChecksum  = 13
	offLength    = 45
)

var (
	// Format errors.
	ErrTruncated          = errors.New("container truncated")
	ErrBadMagic           = errors.New("invalid file format")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrPayloadTooLarge    = errors.New("payload too large")

	// Integrity errors.
	ErrChecksumMismatch = errors.New("checksum verification failed")
)

// IsFormatError reports whether err means the bytes are not a readable
// container at all.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrTruncated) ||
		errors.Is(err, ErrBadMagic) ||
		errors.Is(err, ErrUnsupportedVersion) ||
		errors.Is(err, ErrMalformedPayload)
}

// Header is the parsed fixed-size prefix of a container.
type Header struct {
	Version       byte
	Timestamp     time.Time
	Checksum      string
	PayloadLength uint32
}

// Backup is the result of a successful decode.
type Backup struct {
	Version   byte            `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Checksum  string          `json:"checksum"`
	Data      models.Snapshot `json:"data"`
}

// Checksum returns the stored form of the payload digest: the first 32 hex
// characters of its SHA-256. The truncation is part of the format.
func Checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:ChecksumSize]
}

// Encode serializes s into a container stamped with the current time.
func Encode(s *models.Snapshot) ([]byte, error) {
	return EncodeAt(s, time.Now())
}

// EncodeAt serializes s into a container stamped with at.
func EncodeAt(s *models.Snapshot, at time.Time) ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("serialize snapshot: %w", err)
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, ErrPayloadTooLarge
	}

	buf := make([]byte, HeaderSize+len(payload))
	copy(buf, Magic)
	buf[offVersion] = CurrentVersion
	binary.LittleEndian.PutUint64(buf[offTimestamp:], uint64(at.UnixMilli()))
	copy(buf[offChecksum:offLength], Checksum(payload))
	binary.LittleEndian.PutUint32(buf[offLength:], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)

	return buf, nil
}

// ReadHeader parses and validates the fixed header without touching the
// payload.
func ReadHeader(b []byte) (Header, error) {
	if len(b) < len(Magic) {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrTruncated, len(b))
	}
	if string(b[:len(Magic)]) != Magic {
		return Header{}, ErrBadMagic
	}
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, HeaderSize, len(b))
	}

	h := Header{
		Version:       b[offVersion],
		Timestamp:     time.UnixMilli(int64(binary.LittleEndian.Uint64(b[offTimestamp:]))).UTC(),
		Checksum:      string(b[offChecksum:offLength]),
		PayloadLength: binary.LittleEndian.Uint32(b[offLength:]),
	}
	if h.Version != CurrentVersion {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return h, nil
}

// Decode validates b and returns the snapshot it carries. Bytes following
// the declared payload are ignored.
func Decode(b []byte) (*Backup, error) {
	h, err := ReadHeader(b)
	if err != nil {
		return nil, err
	}

	end := uint64(HeaderSize) + uint64(h.PayloadLength)
	if uint64(len(b)) < end {
		return nil, fmt.Errorf("%w: payload needs %d bytes, got %d", ErrTruncated, h.PayloadLength, len(b)-HeaderSize)
	}
	payload := b[HeaderSize:end]

	if Checksum(payload) != h.Checksum {
		return nil, ErrChecksumMismatch
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return &Backup{
		Version:   h.Version,
		Timestamp: h.Timestamp,
		Checksum:  h.Checksum,
		Data:      snapshot,
	}, nil
}
