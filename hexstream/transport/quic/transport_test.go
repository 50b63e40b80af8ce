package quic

import (
	"context"
	"io"
	"testing"
	"time"
)

func TestDialAccept(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ln, err := Listen("127.0.0.1:0", Options{})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	done := make(chan error, 1)
	go func() {
		conn, err := ln.Accept(ctx)
		if err != nil {
			done <- err
			return
		}
		st, err := conn.AcceptStream(ctx)
		if err != nil {
			done <- err
			return
		}
		msg, err := io.ReadAll(st)
		if err == nil && string(msg) != "ping" {
			t.Errorf("server read %q", msg)
		}
		done <- err
	}()

	conn, err := Dial(ctx, ln.Addr().String(), Options{KeepAlive: time.Second})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.CloseWithError(0, "")

	if got := conn.ConnectionState().TLS.NegotiatedProtocol; got != ALPN {
		t.Fatalf("ALPN: got %q", got)
	}
	st, err := conn.OpenStreamSync(ctx)
	if err != nil {
		t.Fatalf("OpenStreamSync: %v", err)
	}
	if _, err := st.Write([]byte("ping")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	st.Close()

	if err := <-done; err != nil {
		t.Fatalf("server: %v", err)
	}
}
