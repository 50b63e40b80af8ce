package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/TheusHen/hexstream/hexstream/session"
)

func (e *env) serve(ctx context.Context, args []string) error {
	fs := newFlagSet("serve")
	listen := fs.String("listen", e.cfg.Session.Listen, "UDP address to listen on")
	if err := parse(fs, args); err != nil {
		return err
	}

	peer := session.NewPeer(e.cfg.SessionOptions(e.log))
	if err := peer.Listen(*listen); err != nil {
		return err
	}
	defer peer.Close()
	e.log.Info("listening", zap.String("addr", peer.ListenAddr()))

	for {
		sess, err := peer.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			e.log.Warn("accept failed", zap.Error(err))
			continue
		}
		go e.printMessages(ctx, sess)
	}
}

func (e *env) printMessages(ctx context.Context, sess *session.Session) {
	defer sess.Close()
	remote := sess.Connection().RemoteAddr().String()
	for {
		msg, err := sess.Receive(ctx)
		if errors.Is(err, io.EOF) {
			e.log.Info("session ended", zap.String("remote", remote))
			return
		}
		if err != nil {
			e.log.Warn("receive failed", zap.String("remote", remote), zap.Error(err))
			return
		}
		fmt.Fprintf(e.stdout, "%s: %s\n", remote, msg)
	}
}

func (e *env) send(ctx context.Context, args []string) error {
	fs := newFlagSet("send")
	addr := fs.String("addr", e.cfg.Session.Listen, "server address")
	if err := parse(fs, args); err != nil {
		return err
	}

	sess, err := session.NewPeer(e.cfg.SessionOptions(e.log)).Dial(ctx, *addr)
	if err != nil {
		return err
	}
	defer sess.Close()

	sc := bufio.NewScanner(e.stdin)
	sent := 0
	for sc.Scan() {
		if err := sess.Send(ctx, sc.Bytes()); err != nil {
			return err
		}
		sent++
	}
	if err := sc.Err(); err != nil {
		return err
	}
	e.log.Info("sent", zap.Int("messages", sent))
	return nil
}
