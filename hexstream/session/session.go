package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pierrec/lz4/v4"
	"go.uber.org/zap"

	"github.com/TheusHen/hexstream/hexstream"
	"github.com/TheusHen/hexstream/hexstream/exchange"
	"github.com/TheusHen/hexstream/hexstream/transport/quic"
	"github.com/TheusHen/hexstream/hexstream/wire"
)

var (
	ErrUnexpectedFrame = errors.New("session: unexpected frame")
	ErrEmptyPayload    = errors.New("session: DATA frame without flag byte")
	ErrClosed          = errors.New("session: closed")
	ErrMessageTooLarge = errors.New("session: message too large")
)

// MaxMessageSize bounds a single message before compression. Without
// compression the sealed form must also fit in one frame.
const MaxMessageSize = 16 << 20

const (
	flagCompressed = 1 << 0

	// closeGrace bounds how long Close waits for the peer to see the CLOSE
	// frame before tearing the connection down.
	closeGrace = time.Second
)

// Session is an established hexstream session over one QUIC connection.
// Send and Receive may be called from different goroutines.
type Session struct {
	conn      quic.Connection
	control   quic.Stream
	send      *hexstream.Cipher
	recv      *hexstream.Cipher
	initiator bool
	compress  bool
	log       *zap.Logger

	writeMu sync.Mutex
	readMu  sync.Mutex

	closeOnce  sync.Once
	closeErr   error
	mu         sync.Mutex
	closed     bool
	peerClosed bool
}

func newSession(conn quic.Connection, control quic.Stream, keys exchange.Keys, initiator bool, opts Options, log *zap.Logger) (*Session, error) {
	send, err := hexstream.New(keys.Send(initiator), hexstream.Config{Bits: keys.Bits, Clock: hexstream.NewMonotonicClock(opts.Clock)})
	if err != nil {
		return nil, err
	}
	recv, err := hexstream.New(keys.Recv(initiator), hexstream.Config{Bits: keys.Bits, Clock: opts.Clock})
	if err != nil {
		return nil, err
	}
	return &Session{
		conn:      conn,
		control:   control,
		send:      send,
		recv:      recv,
		initiator: initiator,
		compress:  opts.Compression,
		log:       log,
	}, nil
}

func (s *Session) Connection() quic.Connection { return s.conn }

// Initiator reports whether this side dialed the connection.
func (s *Session) Initiator() bool { return s.initiator }

// SendCipher is the cipher this side seals outgoing data with.
func (s *Session) SendCipher() *hexstream.Cipher { return s.send }

// RecvCipher is the cipher this side opens the peer's data with.
func (s *Session) RecvCipher() *hexstream.Cipher { return s.recv }

// Send seals msg and writes it as one DATA frame.
func (s *Session) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if len(msg) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(msg))
	}

	var flags byte
	body := msg
	if s.compress && len(msg) > 0 {
		if packed, ok := compress(msg); ok {
			body = packed
			flags |= flagCompressed
		}
	}
	ct := s.send.SealBytes(body)
	payload := make([]byte, 0, 1+len(ct))
	payload = append(payload, flags)
	payload = append(payload, ct...)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	stop := deadline(ctx, s.control.SetWriteDeadline)
	defer stop()
	if err := wire.WriteFrame(s.control, wire.Frame{Type: wire.MessageTypeData, Payload: payload}); err != nil {
		return ctxErr(ctx, err)
	}
	s.log.Debug("sent", zap.Int("bytes", len(msg)), zap.Bool("compressed", flags&flagCompressed != 0))
	return nil
}

// Receive blocks for the next message. It returns io.EOF once the peer has
// closed the session. If ctx ends while a frame is half read the control
// stream is out of sync and the session should be closed.
func (s *Session) Receive(ctx context.Context) ([]byte, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	stop := deadline(ctx, s.control.SetReadDeadline)
	f, err := wire.ReadFrame(s.control)
	stop()
	if err != nil {
		return nil, ctxErr(ctx, err)
	}

	switch f.Type {
	case wire.MessageTypeData:
	case wire.MessageTypeClose:
		s.mu.Lock()
		s.peerClosed = true
		s.mu.Unlock()
		s.log.Debug("peer closed session")
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedFrame, f.Type)
	}

	if len(f.Payload) == 0 {
		return nil, ErrEmptyPayload
	}
	flags := f.Payload[0]
	body, err := s.recv.OpenBytes(string(f.Payload[1:]))
	if err != nil {
		return nil, err
	}
	if flags&flagCompressed != 0 {
		return decompress(body)
	}
	return body, nil
}

// OpenStream opens an application data stream alongside the control stream.
func (s *Session) OpenStream(ctx context.Context) (quic.Stream, error) {
	return s.conn.OpenStreamSync(ctx)
}

// AcceptStream accepts a data stream opened by the peer.
func (s *Session) AcceptStream(ctx context.Context) (quic.Stream, error) {
	return s.conn.AcceptStream(ctx)
}

// Close sends CLOSE, gives the peer a moment to read it and then closes the
// connection. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		peerClosed := s.peerClosed
		s.mu.Unlock()

		s.writeMu.Lock()
		err := wire.WriteFrame(s.control, wire.Frame{Type: wire.MessageTypeClose})
		s.writeMu.Unlock()
		_ = s.control.Close()

		if err == nil && !peerClosed {
			select {
			case <-s.conn.Context().Done():
			case <-time.After(closeGrace):
			}
		}
		s.log.Debug("session closed")
		s.closeErr = s.conn.CloseWithError(codeOK, "closed")
	})
	return s.closeErr
}

// CloseWithError tears the connection down without the CLOSE exchange.
func (s *Session) CloseWithError(code quic.ApplicationErrorCode, msg string) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.conn.CloseWithError(code, msg)
}

// deadline maps ctx onto a stream deadline for the duration of one call.
// set is SetReadDeadline, SetWriteDeadline or SetDeadline.
func deadline(ctx context.Context, set func(time.Time) error) (stop func()) {
	if d, ok := ctx.Deadline(); ok {
		_ = set(d)
	}
	var (
		mu   sync.Mutex
		done bool
	)
	cancel := context.AfterFunc(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		if !done {
			_ = set(time.Now())
		}
	})
	return func() {
		cancel()
		mu.Lock()
		done = true
		_ = set(time.Time{})
		mu.Unlock()
	}
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// compress returns the lz4 block form of msg prefixed with its length, or
// false when that would not be smaller.
func compress(msg []byte) ([]byte, bool) {
	buf := make([]byte, 4+lz4.CompressBlockBound(len(msg)))
	binary.BigEndian.PutUint32(buf, uint32(len(msg)))
	var c lz4.Compressor
	n, err := c.CompressBlock(msg, buf[4:])
	if err != nil || n == 0 || 4+n >= len(msg) {
		return nil, false
	}
	return buf[:4+n], true
}

func decompress(body []byte) ([]byte, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("session: compressed body too short")
	}
	size := int(binary.BigEndian.Uint32(body))
	if size > MaxMessageSize {
		return nil, fmt.Errorf("session: compressed body claims %d bytes", size)
	}
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(body[4:], out)
	if err != nil {
		return nil, fmt.Errorf("session: decompress: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("session: decompressed %d bytes, want %d", n, size)
	}
	return out, nil
}
