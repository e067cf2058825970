// Package config provides the externally-sourced configuration surface used
// by middlewares and services: a small get/set consumer interface, a few
// stock providers, and a TTL cache decorator for slow backends.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"

	uno "github.com/uno-serverless/uno-go"
)

// Provider is the config consumer interface. Get fails with a
// configurationError when a required key is absent.
type Provider interface {
	Get(ctx context.Context, key string, required bool) (string, error)
	Set(key, value string)
}

func missing(key string, required bool) (string, error) {
	if required {
		return "", uno.ConfigurationError(fmt.Sprintf("missing required config key: %q", key))
	}
	return "", nil
}

// Static is an in-memory provider, mostly useful for tests and defaults.
type Static struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStatic creates a static provider seeded with values.
func NewStatic(values map[string]string) *Static {
	if values == nil {
		values = make(map[string]string)
	}
	return &Static{values: values}
}

func (s *Static) Get(_ context.Context, key string, required bool) (string, error) {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return missing(key, required)
	}
	return v, nil
}

func (s *Static) Set(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

func (s *Static) lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Env reads keys from the process environment, uppercased with an optional
// prefix and dots mapped to underscores.
type Env struct {
	Prefix string

	overrides Static
}

// NewEnv creates an environment-backed provider.
func NewEnv(prefix string) *Env {
	return &Env{Prefix: prefix, overrides: Static{values: map[string]string{}}}
}

func (e *Env) Get(ctx context.Context, key string, required bool) (string, error) {
	if v, ok := e.overrides.lookup(key); ok {
		return v, nil
	}
	v := os.Getenv(e.envKey(key))
	if v == "" {
		return missing(key, required)
	}
	return v, nil
}

func (e *Env) Set(key, value string) {
	e.overrides.Set(key, value)
}

func (e *Env) envKey(key string) string {
	k := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if e.Prefix == "" {
		return k
	}
	return strings.ToUpper(e.Prefix) + "_" + k
}

// File loads a JSON or YAML document once and serves its top-level keys.
// Extension decides the format, yaml/yml parse as YAML, everything else as
// JSON.
type File struct {
	static *Static
	once   sync.Once
	path   string
	err    error
}

// NewFile creates a file-backed provider. The file is read lazily on first
// Get.
func NewFile(path string) *File {
	return &File{path: path, static: NewStatic(nil)}
}

func (f *File) Get(ctx context.Context, key string, required bool) (string, error) {
	f.once.Do(f.load)
	if f.err != nil {
		return "", uno.ConfigurationError(f.err.Error())
	}
	return f.static.Get(ctx, key, required)
}

func (f *File) Set(key, value string) {
	f.once.Do(f.load)
	f.static.Set(key, value)
}

func (f *File) load() {
	b, err := os.ReadFile(f.path)
	if err != nil {
		f.err = fmt.Errorf("failed to read config file %s: %w", f.path, err)
		return
	}

	var out map[string]any
	if ext := filepath.Ext(f.path); ext == ".yaml" || ext == ".yml" {
		var y map[any]any
		if err := yaml.Unmarshal(b, &y); err != nil {
			f.err = fmt.Errorf("failed to read yaml config: %w", err)
			return
		}
		out = make(map[string]any, len(y))
		for k, v := range y {
			out[fmt.Sprint(k)] = v
		}
	} else {
		if err := json.Unmarshal(b, &out); err != nil {
			f.err = fmt.Errorf("failed to read json config: %w", err)
			return
		}
	}

	for k, v := range out {
		f.static.Set(k, fmt.Sprint(v))
	}
}

var (
	providersMu sync.Mutex
	providers   = map[string]Provider{}
)

const envProviderType = "UNO_CONFIG_PROVIDER"

// RegisterProvider registers a provider under a type name for selection at
// runtime. Similar to registering a driver with database/sql.
func RegisterProvider(providerType string, p Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	if _, ok := providers[providerType]; ok {
		panic(fmt.Sprintf("config provider type already exists: %q", providerType))
	}
	providers[providerType] = p
}

// FromEnv returns the provider selected by the UNO_CONFIG_PROVIDER env var,
// defaulting to a plain environment provider.
func FromEnv() Provider {
	pt := os.Getenv(envProviderType)
	if pt == "" {
		return NewEnv("")
	}
	providersMu.Lock()
	defer providersMu.Unlock()
	p := providers[pt]
	if p == nil {
		panic(fmt.Sprintf("unmatched config provider type: %q", pt))
	}
	return p
}
