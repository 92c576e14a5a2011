// Package store persists global script variables keyed by server and name
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("praxis.store")

// Store is the key-value collaborator behind global variables. Upsert is
// last-writer-wins; Update is an atomic read-modify-write of one key.
type Store interface {
	Get(ctx context.Context, serverID, name string) (string, bool, error)
	Upsert(ctx context.Context, serverID, name, value string) error
	Update(ctx context.Context, serverID, name string, fn UpdateFunc) (string, error)
	List(ctx context.Context, serverID string) (map[string]string, error)
	Delete(ctx context.Context, serverID, name string) error
	Close() error
}

// UpdateFunc computes a new value from the current one; ok is false when
// the key does not exist yet
type UpdateFunc func(old string, ok bool) (string, error)

// Compactor is implemented by stores that can reclaim space
type Compactor interface {
	Compact(ctx context.Context) error
}

// Stats describes the contents of a store
type Stats struct {
	Backend   string
	Keys      int
	FileBytes int64
}

// StatsProvider is implemented by stores that report statistics
type StatsProvider interface {
	Stats(ctx context.Context) (Stats, error)
}

// Backend names accepted by Open
const (
	BackendMemory = "memory"
	BackendSolo   = "solo"
	BackendSQLite = "sqlite"
)

// Options selects and configures a backend
type Options struct {
	Backend   string
	Path      string
	Retention time.Duration
}

// Open creates the store described by opts
func Open(opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSolo:
		return OpenSolo(opts.Path, opts.Retention)
	case BackendSQLite, "sql":
		return OpenSQL(opts.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend '%s'", opts.Backend)
	}
}

func validateKey(serverID, name string) error {
	if name == "" {
		return fmt.Errorf("variable name is required")
	}
	if strings.ContainsAny(serverID, ":\n") {
		return fmt.Errorf("invalid server id '%s'", serverID)
	}
	return nil
}
