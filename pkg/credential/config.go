package credential

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gobeyondidentity/scopedkv/pkg/access"
)

// fileConfig is the on-disk YAML shape of a manager configuration.
// Levels are spelled with their canonical names (admin, read_write,
// write_only, read_only).
type fileConfig struct {
	BasePaths    []string   `yaml:"base_paths"`
	Rules        []fileRule `yaml:"rules"`
	DefaultLevel string     `yaml:"default_level"`
	Unmatched    string     `yaml:"unmatched"`
	Escalation   string     `yaml:"escalation_policy"`
}

type fileRule struct {
	Prefix string `yaml:"prefix"`
	Level  string `yaml:"level"`
}

// LoadConfig reads a YAML manager configuration from path. Omitted fields
// keep their DefaultConfig values. The result still goes through
// NewManager's eager validation.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML manager configuration.
func ParseConfig(data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, access.ErrBadConfig(fmt.Sprintf("invalid YAML: %v", err))
	}

	cfg := DefaultConfig()
	cfg.Resolver.BasePaths = fc.BasePaths

	if fc.DefaultLevel != "" {
		level, err := access.ParseLevel(fc.DefaultLevel)
		if err != nil {
			return Config{}, err
		}
		cfg.Resolver.DefaultLevel = level
	}
	if fc.Unmatched != "" {
		cfg.Resolver.Unmatched = access.UnmatchedPolicy(fc.Unmatched)
	}
	if fc.Escalation != "" {
		cfg.Escalation = EscalationPolicy(fc.Escalation)
	}

	for _, r := range fc.Rules {
		level, err := access.ParseLevel(r.Level)
		if err != nil {
			return Config{}, access.ErrBadConfig(fmt.Sprintf("rule %q: %v", r.Prefix, err))
		}
		cfg.Resolver.Rules = append(cfg.Resolver.Rules, access.Rule{Prefix: r.Prefix, Level: level})
	}

	return cfg, nil
}
