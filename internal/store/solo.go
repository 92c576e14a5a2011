package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	solodb "github.com/phillarmonic/SoloDB"
)

// DefaultRetention is how long a global variable survives without being written
const DefaultRetention = 5 * 365 * 24 * time.Hour

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// record is the CBOR payload stored per variable
type record struct {
	Value     string `cbor:"1,keyasint"`
	UpdatedAt int64  `cbor:"2,keyasint"`
}

// Solo stores global variables in a SoloDB file. Each variable is a blob
// under var:<server>:<name>; idx:<server> holds the sorted list of names.
type Solo struct {
	mu        sync.Mutex
	db        *solodb.DB
	retention time.Duration
}

// DefaultSoloPath returns ~/.praxis/globals.solo
func DefaultSoloPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".praxis", "globals.solo"), nil
}

// OpenSolo opens (or creates) a SoloDB-backed store at path
func OpenSolo(path string, retention time.Duration) (*Solo, error) {
	if path == "" {
		p, err := DefaultSoloPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := solodb.Open(solodb.Options{
		Path:       path,
		Durability: solodb.SyncBatch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	log.Debugf("opened solo store at %s", path)
	return &Solo{db: db, retention: retention}, nil
}

func variableKey(serverID, name string) string {
	return "var:" + serverID + ":" + name
}

func indexKey(serverID string) string {
	return "idx:" + serverID
}

func (s *Solo) Get(_ context.Context, serverID, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(serverID, name)
}

func (s *Solo) Upsert(_ context.Context, serverID, name, value string) error {
	if err := validateKey(serverID, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(serverID, name, value)
}

func (s *Solo) Update(_ context.Context, serverID, name string, fn UpdateFunc) (string, error) {
	if err := validateKey(serverID, name); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok, err := s.get(serverID, name)
	if err != nil {
		return "", err
	}
	value, err := fn(old, ok)
	if err != nil {
		return old, err
	}
	if err := s.put(serverID, name, value); err != nil {
		return old, err
	}
	return value, nil
}

func (s *Solo) List(_ context.Context, serverID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.index(serverID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(names))
	for _, name := range names {
		v, ok, err := s.get(serverID, name)
		if err != nil {
			return nil, err
		}
		if ok {
			out[name] = v
		}
	}
	return out, nil
}

func (s *Solo) Delete(_ context.Context, serverID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Delete(variableKey(serverID, name)); err != nil && err != solodb.ErrNotFound {
		return fmt.Errorf("store delete error: %w", err)
	}

	names, err := s.index(serverID)
	if err != nil {
		return err
	}
	if i, found := slices.BinarySearch(names, name); found {
		return s.writeIndex(serverID, slices.Delete(names, i, i+1))
	}
	return nil
}

// Compact reclaims space held by overwritten and deleted records
func (s *Solo) Compact(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Compact()
}

func (s *Solo) Stats(_ context.Context) (Stats, error) {
	dbStats := s.db.Stats()
	return Stats{
		Backend:   BackendSolo,
		Keys:      dbStats.Keys,
		FileBytes: dbStats.FileBytes,
	}, nil
}

func (s *Solo) Close() error {
	return s.db.Close()
}

func (s *Solo) get(serverID, name string) (string, bool, error) {
	data, ok, err := s.readBlob(variableKey(serverID, name))
	if err != nil || !ok {
		return "", false, err
	}

	var rec record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return "", false, fmt.Errorf("store: decode %s: %w", name, err)
	}
	return rec.Value, true, nil
}

func (s *Solo) put(serverID, name, value string) error {
	data, err := cborEncMode.Marshal(record{Value: value, UpdatedAt: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", name, err)
	}
	if err := s.writeBlob(variableKey(serverID, name), data); err != nil {
		return err
	}

	names, err := s.index(serverID)
	if err != nil {
		return err
	}
	if i, found := slices.BinarySearch(names, name); !found {
		return s.writeIndex(serverID, slices.Insert(names, i, name))
	}
	return nil
}

func (s *Solo) index(serverID string) ([]string, error) {
	data, ok, err := s.readBlob(indexKey(serverID))
	if err != nil || !ok {
		return nil, err
	}
	var names []string
	if err := cbor.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("store: decode index: %w", err)
	}
	return names, nil
}

func (s *Solo) writeIndex(serverID string, names []string) error {
	data, err := cborEncMode.Marshal(names)
	if err != nil {
		return fmt.Errorf("store: encode index: %w", err)
	}
	return s.writeBlob(indexKey(serverID), data)
}

func (s *Solo) readBlob(key string) ([]byte, bool, error) {
	rc, _, _, err := s.db.GetBlob(key)
	if err == solodb.ErrNotFound || err == solodb.ErrExpired {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store read error: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("store read error: %w", err)
	}
	return data, true, nil
}

func (s *Solo) writeBlob(key string, data []byte) error {
	expiry := time.Now().Add(s.retention)
	if err := s.db.SetBlob(key, bytes.NewReader(data), int64(len(data)), expiry); err != nil {
		return fmt.Errorf("store write error: %w", err)
	}
	return nil
}
