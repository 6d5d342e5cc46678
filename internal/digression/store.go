package digression

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned when a store has no configuration for a scope.
var ErrNotFound = errors.New("digression config not found")

// Store is a persistence backend for per-scope detection configs. The
// production deployment backs this with the tenant settings database; the
// file store below serves single-node and test setups.
type Store interface {
	Load(ctx context.Context, tenantID int64, language string) (Config, error)
	Save(ctx context.Context, tenantID int64, language string, cfg Config) error
}

// scopeKey renders the store key for a tenant/language pair.
func scopeKey(tenantID int64, language string) string {
	return fmt.Sprintf("%d:%s", tenantID, language)
}

// defaultScope is the file-store key consulted when a scope has no entry.
const defaultScope = "default"

// FileStore persists configs to a JSON file mapping "tenant:language" keys
// (plus an optional "default" entry) to Config values.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// FileStoreConfig configures a FileStore instance.
type FileStoreConfig struct {
	Path string
}

const configPathEnv = "DIALOGCORE_DIGRESSION_CONFIG_PATH"

// NewFileStore constructs a FileStore pointing at the provided path. When
// the path is empty it falls back to configs/digression.json or the
// optional override provided via DIALOGCORE_DIGRESSION_CONFIG_PATH.
func NewFileStore(cfg FileStoreConfig) *FileStore {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(configPathEnv))
	}
	if path == "" {
		path = filepath.Join("configs", "digression.json")
	}
	return &FileStore{path: path}
}

// Load reads the configuration for the given scope from disk.
func (s *FileStore) Load(_ context.Context, tenantID int64, language string) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scopes, err := s.read()
	if err != nil {
		return Config{}, err
	}

	if cfg, ok := scopes[scopeKey(tenantID, language)]; ok {
		return cfg, nil
	}
	if cfg, ok := scopes[defaultScope]; ok {
		return cfg, nil
	}
	return Config{}, ErrNotFound
}

// Save writes the configuration for the given scope to disk atomically.
func (s *FileStore) Save(_ context.Context, tenantID int64, language string, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scopes, err := s.read()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if scopes == nil {
		scopes = map[string]Config{}
	}
	scopes[scopeKey(tenantID, language)] = cfg

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create digression config dir: %w", err)
	}

	encoded, err := json.MarshalIndent(scopes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode digression config file: %w", err)
	}
	encoded = append(encoded, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o600); err != nil {
		return fmt.Errorf("write digression config tmp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace digression config file: %w", err)
	}
	return nil
}

// Path exposes the location of the backing file (primarily for observability).
func (s *FileStore) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *FileStore) read() (map[string]Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read digression config file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}

	var scopes map[string]Config
	if err := json.Unmarshal(data, &scopes); err != nil {
		return nil, fmt.Errorf("parse digression config file: %w", err)
	}
	return scopes, nil
}
