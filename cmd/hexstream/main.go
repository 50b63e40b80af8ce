// Command hexstream encrypts text, seals files into bundles and runs
// encrypted message sessions over QUIC.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/TheusHen/hexstream/hexstream/config"
)

const usage = `usage: hexstream [-config file] <command> [flags] [args]

commands:
  encrypt  seal text from the argument or stdin
  decrypt  open a ciphertext from the argument or stdin
  seal     seal a file into a bundle
  open     open a bundle back into a file
  serve    accept sessions and print received messages
  send     dial a server and send stdin line by line
`

var errUsage = errors.New("invalid usage")

type env struct {
	cfg    *config.Config
	log    *zap.Logger
	stdin  io.Reader
	stdout io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "hexstream: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("hexstream", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", os.Getenv("HEXSTREAM_CONFIG"), "TOML config file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	e := &env{cfg: cfg, log: log, stdin: stdin, stdout: stdout}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "encrypt":
		return e.encrypt(rest)
	case "decrypt":
		return e.decrypt(rest)
	case "seal":
		return e.seal(ctx, rest)
	case "open":
		return e.open(ctx, rest)
	case "serve":
		return e.serve(ctx, rest)
	case "send":
		return e.send(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}
