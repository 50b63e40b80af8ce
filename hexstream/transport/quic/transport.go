// Package quic carries hexstream sessions over QUIC.
package quic

import (
	"context"
	"net"
	"time"

	q "github.com/quic-go/quic-go"
	"go.uber.org/zap"
)

// Connection and Stream are the quic-go types sessions are built on.
type (
	Connection           = q.Connection
	Stream               = q.Stream
	ApplicationErrorCode = q.ApplicationErrorCode
)

// Options tunes the QUIC connection.
type Options struct {
	IdleTimeout time.Duration // zero uses the quic-go default
	KeepAlive   time.Duration // zero disables keep-alives
	Logger      *zap.Logger
}

func (o Options) quicConfig() *q.Config {
	return &q.Config{
		MaxIdleTimeout:  o.IdleTimeout,
		KeepAlivePeriod: o.KeepAlive,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

type Listener struct {
	inner *q.Listener
	log   *zap.Logger
}

func Listen(addr string, opts Options) (*Listener, error) {
	tlsConf, err := NewServerTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := q.ListenAddr(addr, tlsConf, opts.quicConfig())
	if err != nil {
		return nil, err
	}
	log := opts.logger().Named("quic")
	log.Debug("listening", zap.Stringer("addr", ln.Addr()))
	return &Listener{inner: ln, log: log}, nil
}

func (l *Listener) Accept(ctx context.Context) (Connection, error) {
	conn, err := l.inner.Accept(ctx)
	if err != nil {
		return nil, err
	}
	l.log.Debug("accepted", zap.Stringer("remote", conn.RemoteAddr()))
	return conn, nil
}

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

func (l *Listener) Close() error { return l.inner.Close() }

func Dial(ctx context.Context, addr string, opts Options) (Connection, error) {
	tlsConf, err := NewClientTLSConfig()
	if err != nil {
		return nil, err
	}
	conn, err := q.DialAddr(ctx, addr, tlsConf, opts.quicConfig())
	if err != nil {
		return nil, err
	}
	opts.logger().Named("quic").Debug("dialed", zap.String("addr", addr))
	return conn, nil
}
