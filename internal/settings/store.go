// Package settings persists named snapshots of the simulation configuration.
//
// All snapshots live in one catalog, serialised as a single JSON object under
// CatalogKey and rewritten in full on every change. Every operation reads the
// catalog from storage first, so several processes can share one store. A
// write the storage rejects leaves the stored catalog as it was.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/san-kum/rdlab/internal/kv"
	"github.com/san-kum/rdlab/internal/logger"
	"github.com/san-kum/rdlab/internal/params"
)

const CatalogKey = "rd-playground-settings"

type Store struct {
	mu  sync.Mutex
	kv  kv.Store
	log *logger.Logger
}

func New(store kv.Store, log *logger.Logger) *Store {
	return &Store{kv: store, log: log}
}

type SaveOption func(*saveOptions)

type saveOptions struct {
	actions *Actions
}

// WithActions stores recording actions with the snapshot.
func WithActions(a Actions) SaveOption {
	return func(o *saveOptions) { o.actions = &a }
}

// Save stores a copy of configuration under name, with every excluded field
// nulled in the copy.
func (s *Store) Save(name string, configuration params.Group, exclusions []Exclusion, opts ...SaveOption) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	var o saveOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.load()
	if err != nil {
		return err
	}
	raw, err := encodeEntry(configuration, exclusions, o.actions)
	if err != nil {
		return fmt.Errorf("settings: encode %q: %w", name, err)
	}

	catalog[name] = raw
	if err := s.persist(catalog); err != nil {
		if errors.Is(err, kv.ErrQuotaExceeded) {
			s.log.Warn().Str("name", name).Int("size", len(raw)).Msg("snapshot rejected by storage quota")
			return &StorageQuotaError{Name: name, Size: len(raw), Cause: err}
		}
		return err
	}
	s.log.Info().Str("name", name).Int("size", len(raw)).Msg("settings saved")
	return nil
}

// Load returns the stored snapshot. Excluded fields come back as Null; it is
// up to the caller to re-derive them.
func (s *Store) Load(name string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.load()
	if err != nil {
		return nil, err
	}
	raw, ok := catalog[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return decodeEntry(name, raw)
}

// Delete removes name. Deleting a missing name is not an error.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.load()
	if err != nil {
		return err
	}
	delete(catalog, name)
	if err := s.persist(catalog); err != nil {
		return err
	}
	s.log.Info().Str("name", name).Msg("settings deleted")
	return nil
}

// List returns the stored names, sorted for display.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) load() (map[string]json.RawMessage, error) {
	data, ok, err := s.kv.Get(CatalogKey)
	if err != nil {
		return nil, fmt.Errorf("settings: read catalog: %w", err)
	}
	catalog := map[string]json.RawMessage{}
	if ok && data != "" {
		if err := json.Unmarshal([]byte(data), &catalog); err != nil {
			s.log.Error().Err(err).Msg("error reading settings")
			return nil, fmt.Errorf("%w: %v", ErrCorruptCatalog, err)
		}
	}
	return catalog, nil
}

func (s *Store) persist(catalog map[string]json.RawMessage) error {
	data, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("settings: encode catalog: %w", err)
	}
	return s.kv.Set(CatalogKey, string(data))
}
