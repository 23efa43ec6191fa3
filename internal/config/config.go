// Package config loads and holds document-masking engine configuration.
// Settings are layered: defaults → docmask.yaml (optional) → environment
// variables (env vars win), following the same precedence the teacher
// proxy used for its own config, now backed by viper instead of a
// hand-rolled JSON+env merge.
//
// The four env vars spec §6 names directly (DOCMASK_ENTITY_POLICY,
// DOCMASK_USE_DEFAULT_TEMPLATES, DOC_MASKING_ENV_KEY, DOC_MASKING_DOC_KEY)
// are read via os.Getenv by the helpers at the end of this file (called
// from cmd/docmask) rather than through viper: they are per-invocation
// inputs, not persistent settings,
// and spec §6 fixes their exact names rather than letting a prefix/env-key
// replacer reshape them.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the engine's persistent configuration: everything that is
// not a per-document policy or key.
type Config struct {
	LogLevel         string `mapstructure:"logLevel"`
	LedgerPath       string `mapstructure:"ledgerPath"`       // optional bbolt pseudonym ledger; empty disables it
	LedgerCapacity   int    `mapstructure:"ledgerCapacity"`   // in-memory S3-FIFO entries kept before eviction
	PseudonymizeAlgo string `mapstructure:"pseudonymizeAlgo"` // "sha256" or "sha1"
	MetricsEnabled   bool   `mapstructure:"metricsEnabled"`
}

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns config with defaults overridden by docmask.yaml (if found
// in one of opts.ConfigPaths or the working directory) and then by
// environment variables prefixed with opts.EnvPrefix (default "DOCMASK").
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "docmask"
	}
	if configFile := locateConfigFile(name, opts.ConfigPaths); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
		v.AddConfigPath(".")
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "DOCMASK"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("ledgerPath", "")
	v.SetDefault("ledgerCapacity", 50_000)
	v.SetDefault("pseudonymizeAlgo", "sha256")
	v.SetDefault("metricsEnabled", true)
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		for _, ext := range []string{".yaml", ".yml", ".json"} {
			candidate := filepath.Join(dir, name+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// DefaultTemplatesEnabled parses the DOCMASK_USE_DEFAULT_TEMPLATES env var
// per spec §6: "1|true|yes" enables default pseudonym templates.
func DefaultTemplatesEnabled() bool {
	v := os.Getenv("DOCMASK_USE_DEFAULT_TEMPLATES")
	switch v {
	case "1", "true", "yes", "TRUE", "YES", "True", "Yes":
		return true
	default:
		return false
	}
}

// EntityPolicyJSON returns the raw DOCMASK_ENTITY_POLICY env var value.
func EntityPolicyJSON() string {
	return os.Getenv("DOCMASK_ENTITY_POLICY")
}

// PseudonymizerKeys returns the raw env/doc keys spec §6 names. Either may
// be empty.
func PseudonymizerKeys() (envKey, docKey []byte) {
	return []byte(os.Getenv("DOC_MASKING_ENV_KEY")), []byte(os.Getenv("DOC_MASKING_DOC_KEY"))
}
