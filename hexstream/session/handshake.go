package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/TheusHen/hexstream/hexstream"
	"github.com/TheusHen/hexstream/hexstream/exchange"
	"github.com/TheusHen/hexstream/hexstream/transport/quic"
	"github.com/TheusHen/hexstream/hexstream/wire"
)

var (
	ErrHandshakeExpectedHello = errors.New("session: handshake expected HELLO")
	ErrHandshakeExpectedProof = errors.New("session: handshake expected PROOF")
	ErrBitsMismatch           = errors.New("session: peers disagree on key size")
	ErrKeyMismatch            = errors.New("session: peer proved a different key")
)

// Application error codes used when a handshake is aborted.
const (
	codeOK          = 0
	codeHandshake   = 1
	codeKeyMismatch = 2
)

// HandshakeClient runs the initiator side. The client opens the control
// stream and speaks first:
//
//	C -> S  HELLO {pub_c, challenge_c}
//	S -> C  HELLO {pub_s, challenge_s, proof = seal_s(challenge_c)}
//	C -> S  PROOF {seal_c(challenge_s)}
func HandshakeClient(ctx context.Context, conn quic.Connection, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	log := opts.Logger.Named("session").With(zap.String("role", "client"), zap.Stringer("remote", conn.RemoteAddr()))

	s, err := handshakeClient(ctx, conn, opts, log)
	if err != nil {
		log.Debug("handshake failed", zap.Error(err))
		_ = conn.CloseWithError(abortCode(err), err.Error())
		return nil, err
	}
	log.Info("session established", zap.Int("bits", opts.Bits))
	return s, nil
}

func handshakeClient(ctx context.Context, conn quic.Connection, opts Options, log *zap.Logger) (*Session, error) {
	if !hexstream.ValidBits(opts.Bits) {
		return nil, fmt.Errorf("%w: got %d", hexstream.ErrInvalidKeyLength, opts.Bits)
	}
	control, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	stopDeadline := deadline(ctx, control.SetDeadline)
	defer stopDeadline()

	kp, err := exchange.Generate()
	if err != nil {
		return nil, err
	}
	local, err := wire.NewHello(opts.Bits, kp.Public)
	if err != nil {
		return nil, err
	}
	if err := writeJSON(control, wire.MessageTypeHello, local, wire.EncodeHello); err != nil {
		return nil, err
	}

	remote, err := readHello(control)
	if err != nil {
		return nil, err
	}
	if remote.Bits != opts.Bits {
		return nil, fmt.Errorf("%w: local %d, remote %d", ErrBitsMismatch, opts.Bits, remote.Bits)
	}

	keys, err := agree(kp, remote.Key(), kp.Public, remote.Key(), opts)
	if err != nil {
		return nil, err
	}
	s, err := newSession(conn, control, keys, true, opts, log)
	if err != nil {
		return nil, err
	}
	if err := s.checkProof(remote.Proof, local.Challenge); err != nil {
		return nil, err
	}
	proof := wire.Proof{Sealed: s.send.SealBytes(remote.Challenge)}
	if err := writeJSON(control, wire.MessageTypeProof, proof, wire.EncodeProof); err != nil {
		return nil, err
	}
	return s, nil
}

// HandshakeServer runs the responder side on a connection accepted from a
// listener.
func HandshakeServer(ctx context.Context, conn quic.Connection, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	log := opts.Logger.Named("session").With(zap.String("role", "server"), zap.Stringer("remote", conn.RemoteAddr()))

	s, err := handshakeServer(ctx, conn, opts, log)
	if err != nil {
		log.Debug("handshake failed", zap.Error(err))
		_ = conn.CloseWithError(abortCode(err), err.Error())
		return nil, err
	}
	log.Info("session established", zap.Int("bits", opts.Bits))
	return s, nil
}

func handshakeServer(ctx context.Context, conn quic.Connection, opts Options, log *zap.Logger) (*Session, error) {
	if !hexstream.ValidBits(opts.Bits) {
		return nil, fmt.Errorf("%w: got %d", hexstream.ErrInvalidKeyLength, opts.Bits)
	}
	control, err := conn.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	stopDeadline := deadline(ctx, control.SetDeadline)
	defer stopDeadline()

	remote, err := readHello(control)
	if err != nil {
		return nil, err
	}
	if remote.Bits != opts.Bits {
		return nil, fmt.Errorf("%w: local %d, remote %d", ErrBitsMismatch, opts.Bits, remote.Bits)
	}

	kp, err := exchange.Generate()
	if err != nil {
		return nil, err
	}
	keys, err := agree(kp, remote.Key(), remote.Key(), kp.Public, opts)
	if err != nil {
		return nil, err
	}
	s, err := newSession(conn, control, keys, false, opts, log)
	if err != nil {
		return nil, err
	}

	local, err := wire.NewHello(opts.Bits, kp.Public)
	if err != nil {
		return nil, err
	}
	local.Proof = s.send.SealBytes(remote.Challenge)
	if err := writeJSON(control, wire.MessageTypeHello, local, wire.EncodeHello); err != nil {
		return nil, err
	}

	f, err := wire.ReadFrame(control)
	if err != nil {
		return nil, err
	}
	if f.Type != wire.MessageTypeProof {
		return nil, fmt.Errorf("%w: got %v", ErrHandshakeExpectedProof, f.Type)
	}
	proof, err := wire.DecodeProof(f.Payload)
	if err != nil {
		return nil, err
	}
	if err := s.checkProof(proof.Sealed, local.Challenge); err != nil {
		return nil, err
	}
	return s, nil
}

func agree(kp exchange.KeyPair, peer, initiatorPub, responderPub [32]byte, opts Options) (exchange.Keys, error) {
	shared, err := exchange.SharedSecret(kp.Private, peer)
	if err != nil {
		return exchange.Keys{}, err
	}
	return exchange.DeriveKeys(shared, opts.Passphrase, initiatorPub, responderPub, opts.Bits)
}

func readHello(control quic.Stream) (wire.Hello, error) {
	f, err := wire.ReadFrame(control)
	if err != nil {
		return wire.Hello{}, err
	}
	if f.Type != wire.MessageTypeHello {
		return wire.Hello{}, fmt.Errorf("%w: got %v", ErrHandshakeExpectedHello, f.Type)
	}
	return wire.DecodeHello(f.Payload)
}

func writeJSON[T any](control quic.Stream, t wire.MessageType, v T, encode func(T) ([]byte, error)) error {
	payload, err := encode(v)
	if err != nil {
		return err
	}
	return wire.WriteFrame(control, wire.Frame{Type: t, Payload: payload})
}

// checkProof opens a sealed challenge with the receive cipher and compares it
// with what this side sent.
func (s *Session) checkProof(sealed string, challenge []byte) error {
	got, err := s.recv.OpenBytes(sealed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyMismatch, err)
	}
	if subtle.ConstantTimeCompare(got, challenge) != 1 {
		return ErrKeyMismatch
	}
	return nil
}

func abortCode(err error) quic.ApplicationErrorCode {
	if errors.Is(err, ErrKeyMismatch) {
		return codeKeyMismatch
	}
	return codeHandshake
}
