// Package config loads the todosync configuration file and environment
// overrides. The result is an immutable snapshot passed explicitly to
// the components that need it; nothing reads configuration as ambient
// global state after startup.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/fernhill/todosync/internal/types"
)

// DefaultListenAddr is the webhook server's default bind address.
const DefaultListenAddr = ":8787"

// DefaultLedgerPath is the SQLite ledger location relative to the
// working directory when the config does not set one.
const DefaultLedgerPath = "todosync.db"

// ConfigurationError reports a missing credential or endpoint. Fatal for
// the whole operation; nothing is attempted against the external API.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// Config is the loaded configuration snapshot.
type Config struct {
	APIToken   string
	LedgerPath string
	ListenAddr string
	Settings   types.SyncSettings
}

// Load reads the YAML config at path (optional; pass "" to rely on
// defaults and environment) and applies environment overrides. The API
// token may come from TODOSYNC_API_TOKEN instead of the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("ledger_path", DefaultLedgerPath)

	v.SetEnvPrefix("TODOSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("config file %s: %v", path, err)}
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	rules, err := parseRules(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIToken:   v.GetString("api_token"),
		LedgerPath: v.GetString("ledger_path"),
		ListenAddr: v.GetString("listen_addr"),
		Settings: types.SyncSettings{
			DefaultProjectID:   v.GetString("default_project_id"),
			DefaultDescription: v.GetString("default_description"),
			DryRun:             v.GetBool("dry_run"),
			Rules:              rules,
		},
	}
	return cfg, nil
}

// parseRules reads the ordered section_rules list. Declaration order is
// preserved; the router resolves overlapping rules first-declared-wins.
func parseRules(v *viper.Viper) ([]types.SectionRule, error) {
	raw := v.Get("section_rules")
	if raw == nil {
		return nil, nil
	}

	rawSlice, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("section_rules must be a list, got %T", raw)
	}

	var rules []types.SectionRule
	for i, item := range rawSlice {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("section_rules[%d]: expected map, got %T", i, item)
		}

		rule := types.SectionRule{SourceSectionID: types.SectionAny}
		if src, ok := m["source_section_id"].(string); ok && strings.TrimSpace(src) != "" {
			rule.SourceSectionID = strings.TrimSpace(src)
		}
		label, ok := m["label"].(string)
		if !ok || strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("section_rules[%d]: missing 'label' field", i)
		}
		rule.Label = strings.TrimSpace(label)
		dest, ok := m["dest_section_id"].(string)
		if !ok || strings.TrimSpace(dest) == "" {
			return nil, fmt.Errorf("section_rules[%d]: missing 'dest_section_id' field", i)
		}
		rule.DestSectionID = strings.TrimSpace(dest)

		rules = append(rules, rule)
	}
	return rules, nil
}

// RequireAPIToken validates the credential needed for live sync.
func (c *Config) RequireAPIToken() error {
	if c.APIToken == "" {
		return &ConfigurationError{Reason: "api_token not set (config file or TODOSYNC_API_TOKEN)"}
	}
	return nil
}

// LintRules reports duplicate (source, label) pairs in declaration
// order. Duplicates are not fatal (first-declared-wins at runtime) but
// usually indicate a rule the author believes is load-bearing and isn't.
func LintRules(rules []types.SectionRule) []string {
	seen := make(map[string]int)
	var warnings []string
	for i, r := range rules {
		key := r.SourceSectionID + "\x00" + r.Label
		if prev, dup := seen[key]; dup {
			warnings = append(warnings, fmt.Sprintf(
				"rule %d (%s, %q -> %s) is shadowed by rule %d with the same source and label",
				i+1, r.SourceSectionID, r.Label, r.DestSectionID, prev+1))
			continue
		}
		seen[key] = i
	}
	return warnings
}
