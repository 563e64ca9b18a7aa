// Package config provides typed access to the persisted settings and loads
// the bootstrap file that locates the database and remote services.
//
// Settings are read through to storage on every call. Components that need a
// consistent view for one scan call Load once and work from the snapshot.
package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Backend is the raw key/value storage behind Store.
// Implemented by *store.Store.
type Backend interface {
	Setting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string) error
	PutSettings(ctx context.Context, values map[string]string) error
	SeedSettings(ctx context.Context, defaults map[string]string) error
	AllSettings(ctx context.Context) (map[string]string, error)
}

// Store is the typed settings store.
type Store struct {
	backend Backend
}

// New creates a settings store over backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Init seeds defaults for every key that has no stored value.
func (s *Store) Init(ctx context.Context) error {
	if err := s.backend.SeedSettings(ctx, Defaults()); err != nil {
		return fmt.Errorf("init settings: %w", err)
	}
	return nil
}

// Get returns the stored value of key, falling back to its default.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	spec, ok := keys[key]
	if !ok {
		return "", &ValidationError{Key: key, Reason: "unknown setting"}
	}
	value, found, err := s.backend.Setting(ctx, key)
	if err != nil {
		return "", err
	}
	if !found {
		return spec.fallback, nil
	}
	return value, nil
}

// Int returns an integer-typed setting.
func (s *Store) Int(ctx context.Context, key string) (int, error) {
	value, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &ValidationError{Key: key, Value: value, Reason: "not a number"}
	}
	return n, nil
}

// Bool returns a bool-typed setting.
func (s *Store) Bool(ctx context.Context, key string) (bool, error) {
	value, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// Update validates and writes a single setting.
// Integer keys must be numeric; bool keys accept 0, 1, true and false.
func (s *Store) Update(ctx context.Context, key, value string) error {
	normalized, err := normalize(key, value)
	if err != nil {
		return err
	}
	return s.backend.PutSetting(ctx, key, normalized)
}

// UpdateMany validates every pair before writing any of them.
func (s *Store) UpdateMany(ctx context.Context, values map[string]string) error {
	normalized := make(map[string]string, len(values))
	for k, v := range values {
		n, err := normalize(k, v)
		if err != nil {
			return err
		}
		normalized[k] = n
	}
	return s.backend.PutSettings(ctx, normalized)
}

// RevertTimeout returns how long a non-default transaction state may stay
// current before it reverts to Consume.
func (s *Store) RevertTimeout(ctx context.Context) (time.Duration, error) {
	minutes, err := s.Int(ctx, KeyRevertTime)
	if err != nil {
		return 0, err
	}
	return time.Duration(minutes) * time.Minute, nil
}

// SaveLastScanned records the most recent scan for display.
func (s *Store) SaveLastScanned(ctx context.Context, barcode, productName string) error {
	return s.backend.PutSettings(ctx, map[string]string{
		KeyLastBarcode: barcode,
		KeyLastProduct: productName,
	})
}

// GrocyCredentials returns the stored catalog API URL and key.
func (s *Store) GrocyCredentials(ctx context.Context) (string, string, error) {
	url, err := s.Get(ctx, KeyGrocyAPIURL)
	if err != nil {
		return "", "", err
	}
	key, err := s.Get(ctx, KeyGrocyAPIKey)
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}

// All returns every recognized setting with defaults filled in.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	stored, err := s.backend.AllSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := Defaults()
	for k, v := range stored {
		if IsKnownKey(k) {
			out[k] = v
		}
	}
	return out, nil
}

// Load reads a typed snapshot of all settings.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	all, err := s.All(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return fromMap(all)
}

func normalize(key, value string) (string, error) {
	spec, ok := keys[key]
	if !ok {
		return "", &ValidationError{Key: key, Value: value, Reason: "unknown setting"}
	}
	switch spec.kind {
	case kindInt:
		trimmed := strings.TrimSpace(value)
		if _, err := strconv.Atoi(trimmed); err != nil {
			return "", &ValidationError{Key: key, Value: value, Reason: "not a number"}
		}
		return trimmed, nil
	case kindBool:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true":
			return "1", nil
		case "0", "false", "":
			return "0", nil
		}
		return "", &ValidationError{Key: key, Value: value, Reason: "not a boolean"}
	}
	return value, nil
}
