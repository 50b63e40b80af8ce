// Package session runs hexstream-encrypted message sessions over QUIC.
//
// Two peers agree on per-direction keys with an ephemeral X25519 exchange
// salted by a shared passphrase, prove they hold the same keys, then swap
// hexstream ciphertexts in DATA frames on a control stream.
package session

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/TheusHen/hexstream/hexstream/transport/quic"
)

// Options configures both ends of a session.
type Options struct {
	Passphrase  string // pre-shared secret mixed into key agreement
	Bits        int    // 128, 192 or 256
	Compression bool   // lz4-compress messages before sealing when it helps
	IdleTimeout time.Duration
	Logger      *zap.Logger
	Clock       clock.Clock // nonce source for the sending cipher
}

// DefaultOptions returns 256-bit sessions with compression on.
func DefaultOptions() Options {
	return Options{
		Bits:        256,
		Compression: true,
		IdleTimeout: 30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	if o.Bits == 0 {
		o.Bits = 256
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}

func (o Options) transport() quic.Options {
	return quic.Options{
		IdleTimeout: o.IdleTimeout,
		KeepAlive:   o.IdleTimeout / 2,
		Logger:      o.Logger,
	}
}
