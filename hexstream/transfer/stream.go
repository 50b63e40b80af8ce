package transfer

import (
	"context"

	"github.com/TheusHen/hexstream/hexstream/transport/quic"
)

// StreamOpener opens outgoing data streams, e.g. a session.Session.
type StreamOpener interface {
	OpenStream(ctx context.Context) (quic.Stream, error)
}

// StreamAcceptor accepts incoming data streams.
type StreamAcceptor interface {
	AcceptStream(ctx context.Context) (quic.Stream, error)
}

// SendBundle writes b on a fresh stream and closes its write side.
func SendBundle(ctx context.Context, o StreamOpener, b *Bundle) error {
	st, err := o.OpenStream(ctx)
	if err != nil {
		return err
	}
	if d, ok := ctx.Deadline(); ok {
		_ = st.SetWriteDeadline(d)
	}
	if err := WriteBundle(st, b); err != nil {
		st.CancelWrite(0)
		return err
	}
	return st.Close()
}

// ReceiveBundle accepts the next stream and reads one bundle from it.
func ReceiveBundle(ctx context.Context, a StreamAcceptor) (*Bundle, error) {
	st, err := a.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	defer st.CancelRead(0)
	if d, ok := ctx.Deadline(); ok {
		_ = st.SetReadDeadline(d)
	}
	return ReadBundle(st)
}
