// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Configuration keys understood by the core.
const (
	// KeyStrategy selects the synthesis strategy: StrategySpecialized
	// (default) or StrategyGeneric.
	KeyStrategy = "strategy"
	// KeyPipeline names the table holding pipeline settings.
	KeyPipeline = "pipeline"
	// KeyPoolSize is the idle pool bound inside the pipeline table.
	KeyPoolSize = "pool_size"
)

// Synthesis strategies.
const (
	StrategySpecialized = "specialized"
	StrategyGeneric     = "generic"
)

// Config is the key/value configuration a Factory receives.
type Config map[string]any

// Merge returns c overlaid with over. Later keys win; when both sides hold
// a map under the same key, the two maps are merged one level deep.
// Neither input is modified.
func (c Config) Merge(over Config) Config {
	out := make(Config, len(c)+len(over))
	maps.Copy(out, c)
	for k, v := range over {
		if inner, ok := asMap(v); ok {
			if prev, ok := asMap(out[k]); ok {
				merged := make(map[string]any, len(prev)+len(inner))
				maps.Copy(merged, prev)
				maps.Copy(merged, inner)
				out[k] = merged
				continue
			}
		}
		out[k] = v
	}
	return out
}

// Clone returns a copy of c. Nested tables are copied one level deep,
// the depth Merge combines them at.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		if inner, ok := asMap(v); ok {
			v = maps.Clone(inner)
		}
		out[k] = v
	}
	return out
}

// GetString returns the string stored under key.
func (c Config) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Strategy returns the configured synthesis strategy.
func (c Config) Strategy() string {
	if s, ok := c.GetString(KeyStrategy); ok && s == StrategyGeneric {
		return StrategyGeneric
	}
	return StrategySpecialized
}

// PoolSize returns pipeline.pool_size when set to a positive integer.
func (c Config) PoolSize() (int, bool) {
	section, ok := asMap(c[KeyPipeline])
	if !ok {
		return 0, false
	}
	switch n := section[KeyPoolSize].(type) {
	case int:
		return n, n > 0
	case int64:
		return int(n), n > 0
	case uint64:
		return int(n), n > 0
	case float64:
		return int(n), n > 0
	}
	return 0, false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Config:
		return m, true
	}
	return nil, false
}

// DecodeTOML reads a configuration document in TOML.
func DecodeTOML(r io.Reader) (Config, error) {
	cfg := Config{}
	if _, err := toml.NewDecoder(r).Decode((*map[string]any)(&cfg)); err != nil {
		return nil, fmt.Errorf("suspend: config parse failed: %w", err)
	}
	return cfg, nil
}

// DecodeYAML reads a configuration document in YAML.
func DecodeYAML(r io.Reader) (Config, error) {
	cfg := Config{}
	if err := yaml.NewDecoder(r).Decode((*map[string]any)(&cfg)); err != nil && err != io.EOF {
		return nil, fmt.Errorf("suspend: config parse failed: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a TOML (.toml) or YAML (.yaml, .yml) file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("suspend: config load failed (%s): %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return DecodeTOML(bytes.NewReader(data))
	case ".yaml", ".yml":
		return DecodeYAML(bytes.NewReader(data))
	}
	return nil, fmt.Errorf("suspend: config load failed (%s): unknown format", path)
}
