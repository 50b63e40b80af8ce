package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/TheusHen/hexstream/hexstream"
	"github.com/TheusHen/hexstream/hexstream/transfer"
)

// keyFlags registers the flags shared by every command that needs a key.
func (e *env) keyFlags(fs *flag.FlagSet) (key *string, bits *int) {
	key = fs.String("key", os.Getenv("HEXSTREAM_KEY"), "key string (or $HEXSTREAM_KEY)")
	bits = fs.Int("bits", e.cfg.Cipher.Bits, "key size: 128, 192 or 256")
	return key, bits
}

func (e *env) newCipher(key string, bits int) (*hexstream.Cipher, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: -key is required", errUsage)
	}
	cfg := e.cfg.CipherConfig()
	cfg.Bits = bits
	return hexstream.New(key, cfg)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

// input returns the joined arguments, or stdin without its trailing newline.
func (e *env) input(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(bufio.NewReader(e.stdin))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

func (e *env) encrypt(args []string) error {
	fs := newFlagSet("encrypt")
	key, bits := e.keyFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	c, err := e.newCipher(*key, *bits)
	if err != nil {
		return err
	}
	text, err := e.input(fs.Args())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.stdout, c.Seal(text))
	return err
}

func (e *env) decrypt(args []string) error {
	fs := newFlagSet("decrypt")
	key, bits := e.keyFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	c, err := e.newCipher(*key, *bits)
	if err != nil {
		return err
	}
	ct, err := e.input(fs.Args())
	if err != nil {
		return err
	}
	pt, err := c.Open(ct)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.stdout, pt)
	return err
}

func (e *env) seal(ctx context.Context, args []string) error {
	fs := newFlagSet("seal")
	key, bits := e.keyFlags(fs)
	in := fs.String("in", "", "file to seal")
	out := fs.String("out", "", "bundle file to write")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("%w: seal needs -in and -out", errUsage)
	}
	c, err := e.newCipher(*key, *bits)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	b, err := transfer.NewSealer(c, e.cfg.TransferConfig()).Seal(ctx, data)
	if err != nil {
		return err
	}

	if d, p := e.cfg.Transfer.ErasureData, e.cfg.Transfer.ErasureParity; d > 0 {
		shards, err := transfer.Protect(b, d, p)
		if err != nil {
			return err
		}
		for i, s := range shards {
			if err := os.WriteFile(shardPath(*out, i), s, 0o600); err != nil {
				return err
			}
		}
		e.log.Info("sealed into shards", zap.Stringer("bundle", b.ID), zap.Int("chunks", len(b.Chunks)), zap.Int("shards", len(shards)))
		return nil
	}

	f, err := os.OpenFile(*out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := transfer.WriteBundle(f, b); err != nil {
		f.Close()
		return err
	}
	e.log.Info("sealed", zap.Stringer("bundle", b.ID), zap.Int("chunks", len(b.Chunks)), zap.Int64("bytes", b.Size))
	return f.Close()
}

func (e *env) open(ctx context.Context, args []string) error {
	fs := newFlagSet("open")
	key, bits := e.keyFlags(fs)
	in := fs.String("in", "", "bundle file (or shard prefix when erasure is configured)")
	out := fs.String("out", "", "file to write")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("%w: open needs -in and -out", errUsage)
	}
	c, err := e.newCipher(*key, *bits)
	if err != nil {
		return err
	}

	b, err := e.loadBundle(*in)
	if err != nil {
		return err
	}
	data, err := transfer.NewSealer(c, e.cfg.TransferConfig()).Open(ctx, b)
	if err != nil {
		return err
	}
	e.log.Info("opened", zap.Stringer("bundle", b.ID), zap.Int64("bytes", b.Size))
	return os.WriteFile(*out, data, 0o600)
}

func (e *env) loadBundle(path string) (*transfer.Bundle, error) {
	d, p := e.cfg.Transfer.ErasureData, e.cfg.Transfer.ErasureParity
	if d == 0 {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return transfer.ReadBundle(bufio.NewReader(f))
	}

	shards := make([][]byte, d+p)
	missing := 0
	for i := range shards {
		s, err := os.ReadFile(shardPath(path, i))
		if errors.Is(err, os.ErrNotExist) {
			missing++
			continue
		}
		if err != nil {
			return nil, err
		}
		shards[i] = s
	}
	if missing > 0 {
		e.log.Warn("rebuilding missing shards", zap.Int("missing", missing))
	}
	return transfer.Recover(shards, d, p)
}

func shardPath(prefix string, i int) string {
	return fmt.Sprintf("%s.shard%d", prefix, i)
}
