package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// CurrentSchemaVersion is the first byte of every encoded session.
const CurrentSchemaVersion uint8 = 1

// encodedSize is version + address + two hashes + two int64 timestamps.
const encodedSize = 1 + 20 + 32 + 32 + 8 + 8

// ErrCorrupt is returned by Decode for records of the wrong length.
var ErrCorrupt = errors.New("session record corrupt")

// Encode serialises s into its Redis representation. The session ID is the key and is
// not part of the record.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}

	buf := bytes.NewBuffer(make([]byte, 0, encodedSize))
	buf.WriteByte(CurrentSchemaVersion)
	buf.Write(s.Address[:])
	buf.Write(s.IPHash[:])
	buf.Write(s.UserAgentHash[:])

	if err := binary.Write(buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != CurrentSchemaVersion {
		return nil, fmt.Errorf("unsupported session schema version %d", version)
	}
	if len(data) != encodedSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(data))
	}

	s := &Session{SchemaVersion: version}
	if _, err := io.ReadFull(reader, s.Address[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, s.IPHash[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, s.UserAgentHash[:]); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}

	return s, nil
}
