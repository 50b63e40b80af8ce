// Package config loads the hexstream command's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/TheusHen/hexstream/hexstream"
	"github.com/TheusHen/hexstream/hexstream/session"
	"github.com/TheusHen/hexstream/hexstream/transfer"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Cipher   Cipher   `toml:"cipher"`
	Session  Session  `toml:"session"`
	Transfer Transfer `toml:"transfer"`
	Log      Log      `toml:"log"`
}

type Cipher struct {
	Bits int `toml:"bits"`
}

type Session struct {
	Listen      string   `toml:"listen"`
	Passphrase  string   `toml:"passphrase"`
	Compression bool     `toml:"compression"`
	IdleTimeout Duration `toml:"idle_timeout"`
}

type Transfer struct {
	ChunkSize     int    `toml:"chunk_size"`
	Compression   string `toml:"compression"`
	Workers       int    `toml:"workers"`
	ErasureData   int    `toml:"erasure_data"`
	ErasureParity int    `toml:"erasure_parity"`
}

type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Duration reads TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() *Config {
	so := session.DefaultOptions()
	tc := transfer.DefaultConfig()
	return &Config{
		Cipher: Cipher{Bits: 256},
		Session: Session{
			Listen:      "127.0.0.1:4242",
			Compression: so.Compression,
			IdleTimeout: Duration{so.IdleTimeout},
		},
		Transfer: Transfer{
			ChunkSize:   tc.ChunkSize,
			Compression: tc.Compression.String(),
			Workers:     tc.Workers,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalid, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !hexstream.ValidBits(c.Cipher.Bits) {
		return fmt.Errorf("%w: cipher.bits %d", ErrInvalid, c.Cipher.Bits)
	}
	if c.Session.IdleTimeout.Duration < 0 {
		return fmt.Errorf("%w: session.idle_timeout is negative", ErrInvalid)
	}
	if c.Transfer.ChunkSize <= 0 {
		return fmt.Errorf("%w: transfer.chunk_size %d", ErrInvalid, c.Transfer.ChunkSize)
	}
	if _, err := transfer.ParseCompressionLevel(c.Transfer.Compression); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Transfer.Workers < 0 {
		return fmt.Errorf("%w: transfer.workers %d", ErrInvalid, c.Transfer.Workers)
	}
	if (c.Transfer.ErasureData == 0) != (c.Transfer.ErasureParity == 0) || c.Transfer.ErasureData < 0 || c.Transfer.ErasureParity < 0 {
		return fmt.Errorf("%w: erasure_data and erasure_parity must both be set or both be zero", ErrInvalid)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

func (c *Config) CipherConfig() hexstream.Config {
	cfg := hexstream.DefaultConfig()
	cfg.Bits = c.Cipher.Bits
	return cfg
}

func (c *Config) TransferConfig() transfer.Config {
	level, _ := transfer.ParseCompressionLevel(c.Transfer.Compression)
	return transfer.Config{
		ChunkSize:   c.Transfer.ChunkSize,
		Compression: level,
		Workers:     c.Transfer.Workers,
	}
}

// SessionOptions builds session options, logging through log.
func (c *Config) SessionOptions(log *zap.Logger) session.Options {
	return session.Options{
		Passphrase:  c.Session.Passphrase,
		Bits:        c.Cipher.Bits,
		Compression: c.Session.Compression,
		IdleTimeout: c.Session.IdleTimeout.Duration,
		Logger:      log,
	}
}

// Logger builds the zap logger described by the [log] section.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
