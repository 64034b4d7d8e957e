// Package config provides configuration management for the leads reformatter.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrNoDefaultProfile  = errors.New("profiles.default is required")
	ErrUnknownProfile    = errors.New("unknown profile")
	ErrCachePathRequired = errors.New("cache.path is required for file and sqlite backends")
	ErrRedisAddrRequired = errors.New("cache.redis_addr is required for the redis backend")
	ErrInvalidPattern    = errors.New("invalid column pattern")
	ErrMissingAPIKey     = errors.New("lookup api key is not set")
	ErrInvalidAreaCode   = errors.New("area codes must be exactly 3 digits")
	ErrInvalidSpamPrefix = errors.New("spam prefixes must be exactly 3 digits")
)

// DefaultProfile is the rule set used when no profile is named.
const DefaultProfile = "default"

// ExtensionMode decides whether numbers carrying an extension are usable.
type ExtensionMode string

// Extension modes.
const (
	ExtensionsReject   ExtensionMode = "reject"
	ExtensionsPreserve ExtensionMode = "preserve"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

var validate = validator.New()

var areaCodePattern = regexp.MustCompile(`^\d{3}$`)

// Config represents the complete reformatter configuration.
type Config struct {
	Profiles map[string]Profile `yaml:"profiles" validate:"required,dive"`
	Logging  LoggingConfig      `yaml:"logging"`
	Input    InputConfig        `yaml:"input"`
	Lookup   LookupConfig       `yaml:"lookup"`
	Cache    CacheConfig        `yaml:"cache"`
	Output   OutputConfig       `yaml:"output"`
	Metrics  MetricsConfig      `yaml:"metrics"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// InputConfig describes how input columns are discovered.
type InputConfig struct {
	Patterns SchemaPatterns `yaml:"patterns"`
}

// SchemaPatterns holds the regular expressions that map input columns to logical roles.
type SchemaPatterns struct {
	FirstName        string `yaml:"first_name" validate:"required"`
	LastName         string `yaml:"last_name"`
	FullName         string `yaml:"full_name"`
	CompanyName      string `yaml:"company_name" validate:"required"`
	ProfileURL       string `yaml:"profile_url" validate:"required"`
	PrimaryEmail     string `yaml:"primary_email" validate:"required"`
	ExtraEmail       string `yaml:"extra_email"`
	Phone            string `yaml:"phone" validate:"required"`
	PhoneExclude     string `yaml:"phone_exclude"`
	ConfidenceSuffix string `yaml:"confidence_suffix"`
	State            string `yaml:"state" validate:"required"`
	City             string `yaml:"city"`
	Country          string `yaml:"country" validate:"required"`
}

// Profile is one pipeline rule set. The historical pipeline variants differ only here.
// Nil fields are unset and inherit; an explicit empty list or zero disables the rule.
type Profile struct {
	Extensions        ExtensionMode `yaml:"extensions" validate:"omitempty,oneof=reject preserve"`
	SpamPrefixes      []string      `yaml:"spam_prefixes"`
	ExcludedCities    []string      `yaml:"excluded_cities"`
	ExcludedAreaCodes []string      `yaml:"excluded_area_codes"`
	DomesticCountries []string      `yaml:"domestic_countries"`
	MinConfidence     *int          `yaml:"min_confidence" validate:"omitempty,min=0,max=100"`
	MaxPhoneSlots     *int          `yaml:"max_phone_slots" validate:"omitempty,min=0,max=9"`
}

// ConfidenceFloor returns the minimum accepted confidence score.
func (p Profile) ConfidenceFloor() int {
	if p.MinConfidence == nil {
		return 0
	}

	return *p.MinConfidence
}

// SlotLimit returns how many phone slots are kept. Zero keeps all of them.
func (p Profile) SlotLimit() int {
	if p.MaxPhoneSlots == nil {
		return 0
	}

	return *p.MaxPhoneSlots
}

// inherit fills every unset field of p from base.
func (p Profile) inherit(base Profile) Profile {
	if p.Extensions == "" {
		p.Extensions = base.Extensions
	}

	if p.SpamPrefixes == nil {
		p.SpamPrefixes = base.SpamPrefixes
	}

	if p.ExcludedCities == nil {
		p.ExcludedCities = base.ExcludedCities
	}

	if p.ExcludedAreaCodes == nil {
		p.ExcludedAreaCodes = base.ExcludedAreaCodes
	}

	if p.DomesticCountries == nil {
		p.DomesticCountries = base.DomesticCountries
	}

	if p.MinConfidence == nil {
		p.MinConfidence = base.MinConfidence
	}

	if p.MaxPhoneSlots == nil {
		p.MaxPhoneSlots = base.MaxPhoneSlots
	}

	return p
}

// IntPtr returns a pointer to v, for filling optional profile fields.
func IntPtr(v int) *int {
	return &v
}

// LookupConfig configures the external phone validation service.
type LookupConfig struct {
	BaseURL            string `yaml:"base_url" validate:"required,url"`
	APIKeyEnv          string `yaml:"api_key_env" validate:"required"`
	TimeoutSec         int    `yaml:"timeout_sec" validate:"min=1"`
	Concurrency        int    `yaml:"concurrency" validate:"min=1,max=32"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// CacheConfig selects where lookup results persist between runs.
type CacheConfig struct {
	Backend   string `yaml:"backend" validate:"oneof=memory file sqlite redis"`
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	RedisKey  string `yaml:"redis_key"`
	RedisDB   int    `yaml:"redis_db" validate:"min=0"`
}

// OutputConfig defines where the workbook is written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

// MetricsConfig enables the node-exporter textfile dump.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
}

// Default returns a complete configuration matching the production lead exports.
func Default() *Config {
	return &Config{
		Profiles: map[string]Profile{
			DefaultProfile:        defaultProfile(ExtensionsReject),
			"preserve-extensions": defaultProfile(ExtensionsPreserve),
		},
		Logging: LoggingConfig{Level: "info"},
		Input: InputConfig{
			Patterns: SchemaPatterns{
				FirstName:        `^First Name$`,
				LastName:         `^Last Name$`,
				FullName:         `^Contact Full Name$`,
				CompanyName:      `^Company Name$`,
				ProfileURL:       `^(LinkedIn )?Contact( LI)? Profile URL`,
				PrimaryEmail:     `^(Primary )?Email( Address)?$`,
				ExtraEmail:       `^Email \d+`,
				Phone:            `[Pp]hone`,
				PhoneExclude:     `Company|AI`,
				ConfidenceSuffix: " Total AI",
				State:            `State$`,
				City:             `City`,
				Country:          `Country`,
			},
		},
		Lookup: LookupConfig{
			BaseURL:            "https://api.phonevalidator.com/api/v3/phonesearch",
			APIKeyEnv:          "APIKEY",
			TimeoutSec:         30,
			Concurrency:        4,
			InsecureSkipVerify: true,
		},
		Cache: CacheConfig{
			Backend:  BackendFile,
			Path:     "phone_requests.json",
			RedisKey: "leads:phone_requests",
		},
		Output: OutputConfig{
			Dir:    ".",
			Prefix: "cleaned_",
		},
	}
}

func defaultProfile(ext ExtensionMode) Profile {
	return Profile{
		Extensions:        ext,
		SpamPrefixes:      []string{"800", "844", "888"},
		ExcludedCities:    []string{"Richmond", "Charlottesville", "Henrico"},
		ExcludedAreaCodes: []string{"804", "757", "540"},
		DomesticCountries: []string{"US", "USA", "United States"},
		MinConfidence:     IntPtr(20),
		MaxPhoneSlots:     IntPtr(3),
	}
}

// LoadConfig loads configuration from a YAML file layered over Default.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.inheritProfileDefaults(Default().Profiles)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// inheritProfileDefaults fills unset profile fields. A profile decoded from YAML
// replaces the built-in one of the same name, so it first inherits from that
// built-in, then from the default profile.
func (c *Config) inheritProfileDefaults(builtin map[string]Profile) {
	if p, ok := c.Profiles[DefaultProfile]; ok {
		c.Profiles[DefaultProfile] = p.inherit(builtin[DefaultProfile])
	}

	base, ok := c.Profiles[DefaultProfile]
	if !ok {
		return
	}

	for name, p := range c.Profiles {
		if name == DefaultProfile {
			continue
		}

		if b, ok := builtin[name]; ok {
			p = p.inherit(b)
		}

		c.Profiles[name] = p.inherit(base)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if _, ok := c.Profiles[DefaultProfile]; !ok {
		return ErrNoDefaultProfile
	}

	for name, p := range c.Profiles {
		for _, code := range p.ExcludedAreaCodes {
			if !areaCodePattern.MatchString(code) {
				return fmt.Errorf("%w: profiles.%s: %q", ErrInvalidAreaCode, name, code)
			}
		}

		for _, prefix := range p.SpamPrefixes {
			if !areaCodePattern.MatchString(prefix) {
				return fmt.Errorf("%w: profiles.%s: %q", ErrInvalidSpamPrefix, name, prefix)
			}
		}
	}

	switch c.Cache.Backend {
	case BackendFile, BackendSQLite:
		if c.Cache.Path == "" {
			return ErrCachePathRequired
		}
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return ErrRedisAddrRequired
		}
	}

	p := c.Input.Patterns
	patterns := map[string]string{
		"first_name":    p.FirstName,
		"last_name":     p.LastName,
		"full_name":     p.FullName,
		"company_name":  p.CompanyName,
		"profile_url":   p.ProfileURL,
		"primary_email": p.PrimaryEmail,
		"extra_email":   p.ExtraEmail,
		"phone":         p.Phone,
		"phone_exclude": p.PhoneExclude,
		"state":         p.State,
		"city":          p.City,
		"country":       p.Country,
	}

	for name, pattern := range patterns {
		if pattern == "" {
			continue
		}

		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: input.patterns.%s: %w", ErrInvalidPattern, name, err)
		}
	}

	return nil
}

// Profile returns the named rule set. An empty name selects the default.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}

	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}

	return p, nil
}

// APIKey resolves the lookup key from the configured environment variable.
func (l *LookupConfig) APIKey() (string, error) {
	key := os.Getenv(l.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingAPIKey, l.APIKeyEnv)
	}

	return key, nil
}

// GetTimeout returns the per-lookup timeout.
func (l *LookupConfig) GetTimeout() time.Duration {
	return time.Duration(l.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Profiles: %d, Cache: %s, Lookup: %s}",
		len(c.Profiles),
		c.Cache.Backend,
		c.Lookup.BaseURL,
	)
}
