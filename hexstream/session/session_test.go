package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/TheusHen/hexstream/hexstream"
)

type pair struct {
	client, server *Session
}

func connect(t *testing.T, ctx context.Context, serverOpts, clientOpts Options) (pair, error, error) {
	t.Helper()

	server := NewPeer(serverOpts)
	if err := server.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	type result struct {
		s   *Session
		err error
	}
	accepted := make(chan result, 1)
	go func() {
		s, err := server.Accept(ctx)
		accepted <- result{s, err}
	}()

	client := NewPeer(clientOpts)
	cs, cerr := client.Dial(ctx, server.ListenAddr())
	r := <-accepted
	return pair{client: cs, server: r.s}, cerr, r.err
}

func TestHandshakeAndMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, bits := range []int{128, 192, 256} {
		opts := Options{Passphrase: "shared", Bits: bits, Compression: true}
		p, cerr, serr := connect(t, ctx, opts, opts)
		if cerr != nil || serr != nil {
			t.Fatalf("%d bits: handshake client=%v server=%v", bits, cerr, serr)
		}
		if !p.client.Initiator() || p.server.Initiator() {
			t.Fatalf("%d bits: initiator flags wrong", bits)
		}

		msgs := [][]byte{
			[]byte("hello"),
			{},
			[]byte(strings.Repeat("compressible ", 500)),
			[]byte("Grüße"),
		}
		for _, m := range msgs {
			if err := p.client.Send(ctx, m); err != nil {
				t.Fatalf("%d bits: Send: %v", bits, err)
			}
			got, err := p.server.Receive(ctx)
			if err != nil {
				t.Fatalf("%d bits: Receive: %v", bits, err)
			}
			if !bytes.Equal(got, m) {
				t.Fatalf("%d bits: got %q, want %q", bits, got, m)
			}
		}

		if err := p.server.Send(ctx, []byte("reply")); err != nil {
			t.Fatalf("%d bits: server Send: %v", bits, err)
		}
		got, err := p.client.Receive(ctx)
		if err != nil || string(got) != "reply" {
			t.Fatalf("%d bits: client Receive: %q, %v", bits, got, err)
		}

		closed := make(chan error, 1)
		go func() { closed <- p.client.Close() }()
		if _, err := p.server.Receive(ctx); err != io.EOF {
			t.Fatalf("%d bits: expected io.EOF, got %v", bits, err)
		}
		p.server.Close()
		<-closed

		if err := p.client.Send(ctx, []byte("late")); !errors.Is(err, ErrClosed) {
			t.Fatalf("%d bits: expected ErrClosed, got %v", bits, err)
		}
	}
}

func TestHandshakeKeyMismatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, cerr, serr := connect(t, ctx,
		Options{Passphrase: "server", Bits: 256},
		Options{Passphrase: "client", Bits: 256})
	if !errors.Is(cerr, ErrKeyMismatch) {
		t.Fatalf("client: expected ErrKeyMismatch, got %v", cerr)
	}
	if serr == nil {
		t.Fatalf("server: expected handshake failure")
	}
}

func TestHandshakeBitsMismatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, cerr, serr := connect(t, ctx, Options{Bits: 128}, Options{Bits: 256})
	if !errors.Is(serr, ErrBitsMismatch) {
		t.Fatalf("server: expected ErrBitsMismatch, got %v", serr)
	}
	if cerr == nil {
		t.Fatalf("client: expected handshake failure")
	}
}

func TestHandshakeInvalidBits(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := NewPeer(Options{Bits: 256})
	if err := server.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer server.Close()

	_, err := NewPeer(Options{Bits: 100}).Dial(ctx, server.ListenAddr())
	if !errors.Is(err, hexstream.ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}

func TestAcceptWithoutListen(t *testing.T) {
	if _, err := NewPeer(DefaultOptions()).Accept(context.Background()); !errors.Is(err, ErrNotListening) {
		t.Fatalf("expected ErrNotListening, got %v", err)
	}
}

func TestDataStreamWithSessionCiphers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := Options{Passphrase: "bulk", Bits: 192}
	p, cerr, serr := connect(t, ctx, opts, opts)
	if cerr != nil || serr != nil {
		t.Fatalf("handshake client=%v server=%v", cerr, serr)
	}
	defer p.client.CloseWithError(0, "")

	ct := p.client.SendCipher().Seal("over a data stream")
	st, err := p.client.OpenStream(ctx)
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	if _, err := st.Write([]byte(ct)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	st.Close()

	in, err := p.server.AcceptStream(ctx)
	if err != nil {
		t.Fatalf("AcceptStream: %v", err)
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	pt, err := p.server.RecvCipher().Open(string(raw))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if pt != "over a data stream" {
		t.Fatalf("Open: got %q", pt)
	}
}

func TestReceiveHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := Options{Bits: 128}
	p, cerr, serr := connect(t, ctx, opts, opts)
	if cerr != nil || serr != nil {
		t.Fatalf("handshake client=%v server=%v", cerr, serr)
	}
	defer p.client.CloseWithError(0, "")

	short, stop := context.WithTimeout(ctx, 50*time.Millisecond)
	defer stop()
	if _, err := p.server.Receive(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}

	// The stream stays usable after a timed-out read.
	if err := p.client.Send(ctx, []byte("after")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := p.server.Receive(ctx)
	if err != nil || string(got) != "after" {
		t.Fatalf("Receive: %q, %v", got, err)
	}
}

func TestCompressRoundTrip(t *testing.T) {
	msg := []byte(strings.Repeat("abcd", 1000))
	packed, ok := compress(msg)
	if !ok {
		t.Fatalf("expected repetitive input to compress")
	}
	out, err := decompress(packed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(out, msg) {
		t.Fatalf("decompress mismatch")
	}
	if _, ok := compress([]byte("xy")); ok {
		t.Fatalf("tiny input should not compress")
	}
	if _, err := decompress([]byte{0, 0}); err == nil {
		t.Fatalf("expected error for short body")
	}
}
