package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Slot persists named string arrays. Each Save replaces the whole array under key.
type Slot interface {
	// Load returns the array stored under key. found is false if key was never written.
	Load(ctx context.Context, key string) (values []string, found bool, err error)
	Save(ctx context.Context, key string, values []string) error
}

// Backend is a Slot with lifecycle hooks used by the service wiring and health checks.
type Backend interface {
	Slot
	HealthCheck(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string // memory | file | redis | postgres
	FilePath    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	RedisPrefix string
	DatabaseURL string
	PGPool      PGPoolConfig
}

type PGPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// Open builds the backend named in opts.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(opts.Backend) {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		b, err := NewFile(opts.FilePath, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "redis":
		b, err := NewRedis(ctx, opts.RedisAddr, opts.RedisDB, opts.RedisPass, opts.RedisPrefix, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "postgres", "pg":
		b, err := NewPostgres(ctx, opts.DatabaseURL, opts.PGPool, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
