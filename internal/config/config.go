package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Name     string `toml:"name"`
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	System   string `toml:"system"`
}

// Label returns the producer name used to attribute opinions.
func (c LLMConfig) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Model
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	MaxUploadMB    int64    `toml:"max_upload_mb"`
	RequestTimeout Duration `toml:"request_timeout"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type LabelsConfig struct {
	Crops    []string `toml:"crops"`
	Diseases []string `toml:"diseases"`
}

type ConsensusConfig struct {
	MaxHintLength   int  `toml:"max_hint_length"`
	RejectMalformed bool `toml:"reject_malformed"`
}

type EnrichmentConfig struct {
	Enabled bool `toml:"enabled"`
}

// Prompts overrides the built-in templates; empty fields keep the defaults.
type Prompts struct {
	Describe     string `toml:"describe"`
	Identify     string `toml:"identify"`
	TextIdentify string `toml:"text_identify"`
	Verify       string `toml:"verify"`
	Advise       string `toml:"advise"`
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
	Describer  LLMConfig        `toml:"describer"`
	Fast       LLMConfig        `toml:"fast"`
	Accurate   LLMConfig        `toml:"accurate"`
	Text       []LLMConfig      `toml:"text"`
	Labels     LabelsConfig     `toml:"labels"`
	Consensus  ConsensusConfig  `toml:"consensus"`
	Enrichment EnrichmentConfig `toml:"enrichment"`
	Prompts    Prompts          `toml:"prompts"`
}

// Duration decodes TOML strings such as "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Load reads a TOML file on top of Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	cfg.fillDefaults()

	return &cfg, nil
}

// fillDefaults copies Default() into every section the file left empty. The
// text producer list is taken as written: an empty list is valid.
func (c *Config) fillDefaults() {
	d := Default()

	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = d.Server.MaxUploadMB
	}
	if c.Server.RequestTimeout.Duration == 0 {
		c.Server.RequestTimeout = d.Server.RequestTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Describer.Provider == "" {
		c.Describer = d.Describer
	}
	if c.Fast.Provider == "" {
		c.Fast = d.Fast
	}
	if c.Accurate.Provider == "" {
		c.Accurate = d.Accurate
	}
	if len(c.Labels.Crops) == 0 {
		c.Labels.Crops = d.Labels.Crops
	}
	if len(c.Labels.Diseases) == 0 {
		c.Labels.Diseases = d.Labels.Diseases
	}
	if c.Consensus.MaxHintLength == 0 {
		c.Consensus.MaxHintLength = d.Consensus.MaxHintLength
	}
}

// LoadOrDefault loads path when it exists and falls back to Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// keyEnv maps a provider to the environment variable holding its API key.
var keyEnv = map[string]string{
	"gemini":     "GEMINI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"claude":     "ANTHROPIC_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
}

// ApplyEnv fills in API keys from the environment for roles that do not set
// one and applies PORT / LOG_LEVEL overrides.
func (c *Config) ApplyEnv() {
	for _, role := range c.roles() {
		if role.APIKey != "" {
			continue
		}
		if name, ok := keyEnv[strings.ToLower(role.Provider)]; ok {
			role.APIKey = os.Getenv(name)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) roles() []*LLMConfig {
	out := []*LLMConfig{&c.Describer, &c.Fast, &c.Accurate}
	for i := range c.Text {
		out = append(out, &c.Text[i])
	}
	return out
}

// Validate checks the fields the workflow cannot run without.
func (c *Config) Validate() error {
	var errs []error

	for name, role := range map[string]LLMConfig{"describer": c.Describer, "fast": c.Fast, "accurate": c.Accurate} {
		if role.Provider == "" || role.Model == "" {
			errs = append(errs, fmt.Errorf("%s: provider and model are required", name))
		}
	}
	seen := map[string]bool{}
	for i, role := range c.Text {
		if role.Provider == "" || role.Model == "" {
			errs = append(errs, fmt.Errorf("text[%d]: provider and model are required", i))
		}
		if seen[role.Label()] {
			errs = append(errs, fmt.Errorf("text[%d]: duplicate producer name %q", i, role.Label()))
		}
		seen[role.Label()] = true
	}
	if len(c.Labels.Crops) == 0 || len(c.Labels.Diseases) == 0 {
		errs = append(errs, errors.New("labels: crops and diseases must not be empty"))
	}
	if c.Consensus.MaxHintLength <= 0 {
		errs = append(errs, errors.New("consensus: max_hint_length must be positive"))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("server: max_upload_mb must be positive"))
	}

	return errors.Join(errs...)
}
