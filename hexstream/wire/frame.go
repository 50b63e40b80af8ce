// Package wire defines the frames exchanged on a hexstream session's control
// stream.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxFramePayload limits a single frame payload.
	MaxFramePayload = 1 << 20 // 1 MiB

	headerSize = 5
)

var (
	ErrFrameTooLarge = errors.New("wire: frame payload too large")
	ErrInvalidType   = errors.New("wire: invalid message type")
)

// Frame is the basic wire container.
// Format:
//
//	1 byte: type
//	4 bytes: payload length (big endian)
//	N bytes: payload
type Frame struct {
	Type    MessageType
	Payload []byte
}

// WriteFrame writes f with a single Write call.
func WriteFrame(w io.Writer, f Frame) error {
	if !f.Type.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidType, f.Type)
	}
	if len(f.Payload) > MaxFramePayload {
		return fmt.Errorf("%w: %d", ErrFrameTooLarge, len(f.Payload))
	}

	buf := make([]byte, headerSize+len(f.Payload))
	buf[0] = byte(f.Type)
	binary.BigEndian.PutUint32(buf[1:], uint32(len(f.Payload)))
	copy(buf[headerSize:], f.Payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads exactly one frame and nothing past it, so the stream can be
// handed to another reader afterwards.
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	mt := MessageType(hdr[0])
	if !mt.valid() {
		return Frame{}, fmt.Errorf("%w: %d", ErrInvalidType, hdr[0])
	}
	n := binary.BigEndian.Uint32(hdr[1:])
	if n > MaxFramePayload {
		return Frame{}, fmt.Errorf("%w: %d", ErrFrameTooLarge, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, err
	}
	return Frame{Type: mt, Payload: payload}, nil
}
