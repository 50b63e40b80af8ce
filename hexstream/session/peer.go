package session

import (
	"context"
	"errors"

	"github.com/TheusHen/hexstream/hexstream/transport/quic"
)

var ErrNotListening = errors.New("session: peer is not listening")

// Peer combines the QUIC transport with the session handshake.
type Peer struct {
	opts     Options
	listener *quic.Listener
}

func NewPeer(opts Options) *Peer {
	return &Peer{opts: opts.withDefaults()}
}

func (p *Peer) Listen(addr string) error {
	ln, err := quic.Listen(addr, p.opts.transport())
	if err != nil {
		return err
	}
	p.listener = ln
	return nil
}

func (p *Peer) Close() error {
	if p.listener == nil {
		return nil
	}
	return p.listener.Close()
}

func (p *Peer) ListenAddr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// Accept waits for the next connection and runs the responder handshake.
func (p *Peer) Accept(ctx context.Context) (*Session, error) {
	if p.listener == nil {
		return nil, ErrNotListening
	}
	conn, err := p.listener.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return HandshakeServer(ctx, conn, p.opts)
}

func (p *Peer) Dial(ctx context.Context, addr string) (*Session, error) {
	conn, err := quic.Dial(ctx, addr, p.opts.transport())
	if err != nil {
		return nil, err
	}
	return HandshakeClient(ctx, conn, p.opts)
}
