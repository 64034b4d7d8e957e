package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

const validConfigYAML = `
logging:
  level: "debug"
profiles:
  seamless:
    min_confidence: 30
    excluded_cities: ["Norfolk"]
lookup:
  timeout_sec: 5
  concurrency: 2
cache:
  backend: "sqlite"
  path: "./phone_requests.db"
metrics:
  textfile_path: "/tmp/leads.prom"
`

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
}

func TestLoadConfig_Valid(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level 'debug', got '%s'", cfg.Logging.Level)
	}

	if cfg.Cache.Backend != BackendSQLite {
		t.Errorf("Expected sqlite backend, got '%s'", cfg.Cache.Backend)
	}

	if got := cfg.Lookup.GetTimeout(); got != 5*time.Second {
		t.Errorf("GetTimeout = %v, want 5s", got)
	}

	// Fields not in the file keep their defaults.
	if cfg.Lookup.BaseURL == "" {
		t.Error("Expected default lookup base URL to survive")
	}

	if len(cfg.Profiles) != 3 {
		t.Errorf("Expected 3 profiles, got %d", len(cfg.Profiles))
	}
}

func TestLoadConfig_ProfileInheritsDefaults(t *testing.T) {
	cfg, err := LoadConfig(createTempConfigFile(t, validConfigYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	p, err := cfg.Profile("seamless")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}

	if p.ConfidenceFloor() != 30 {
		t.Errorf("ConfidenceFloor = %d, want 30", p.ConfidenceFloor())
	}

	if len(p.ExcludedCities) != 1 || p.ExcludedCities[0] != "Norfolk" {
		t.Errorf("ExcludedCities = %v", p.ExcludedCities)
	}

	if p.Extensions != ExtensionsReject {
		t.Errorf("Extensions = %s, want inherited reject", p.Extensions)
	}

	if len(p.ExcludedAreaCodes) != 3 || p.SlotLimit() != 3 {
		t.Errorf("area codes / slots not inherited: %v / %d", p.ExcludedAreaCodes, p.SlotLimit())
	}
}

func TestParse_PartialDefaultProfileKeepsBuiltins(t *testing.T) {
	cfg, err := Parse([]byte("profiles:\n  default:\n    min_confidence: 30\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	p, err := cfg.Profile(DefaultProfile)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}

	if p.ConfidenceFloor() != 30 {
		t.Errorf("ConfidenceFloor = %d, want 30", p.ConfidenceFloor())
	}

	if p.Extensions != ExtensionsReject {
		t.Errorf("Extensions = %q, want reject", p.Extensions)
	}

	if p.SlotLimit() != 3 {
		t.Errorf("SlotLimit = %d, want 3", p.SlotLimit())
	}

	if len(p.SpamPrefixes) != 3 || len(p.DomesticCountries) != 3 {
		t.Errorf("built-in lists lost: spam=%v countries=%v", p.SpamPrefixes, p.DomesticCountries)
	}

	// Other profiles inherit the overridden default.
	preserve, err := cfg.Profile("preserve-extensions")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}

	if preserve.Extensions != ExtensionsPreserve {
		t.Errorf("preserve-extensions Extensions = %q", preserve.Extensions)
	}
}

func TestParse_ExplicitZeroAndEmpty(t *testing.T) {
	yamlBody := `
profiles:
  default:
    min_confidence: 0
    max_phone_slots: 0
    spam_prefixes: []
  preserve-extensions:
    excluded_cities: ["Norfolk"]
`

	cfg, err := Parse([]byte(yamlBody))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	p := cfg.Profiles[DefaultProfile]
	if p.MinConfidence == nil || p.ConfidenceFloor() != 0 {
		t.Errorf("MinConfidence = %v, want explicit 0", p.MinConfidence)
	}

	if p.MaxPhoneSlots == nil || p.SlotLimit() != 0 {
		t.Errorf("MaxPhoneSlots = %v, want explicit 0", p.MaxPhoneSlots)
	}

	if p.SpamPrefixes == nil || len(p.SpamPrefixes) != 0 {
		t.Errorf("SpamPrefixes = %#v, want empty", p.SpamPrefixes)
	}

	if len(p.ExcludedAreaCodes) != 3 {
		t.Errorf("ExcludedAreaCodes = %v, want built-in", p.ExcludedAreaCodes)
	}

	preserve := cfg.Profiles["preserve-extensions"]
	if preserve.Extensions != ExtensionsPreserve {
		t.Errorf("preserve-extensions lost its built-in mode: %q", preserve.Extensions)
	}

	if preserve.ConfidenceFloor() != 20 {
		t.Errorf("preserve-extensions ConfidenceFloor = %d, want built-in 20", preserve.ConfidenceFloor())
	}

	if len(preserve.ExcludedCities) != 1 {
		t.Errorf("ExcludedCities = %v", preserve.ExcludedCities)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "logging: [unclosed")

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad extension mode",
			mutate:  func(c *Config) { p := c.Profiles[DefaultProfile]; p.Extensions = "keep"; c.Profiles[DefaultProfile] = p },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "confidence above 100",
			mutate:  func(c *Config) { p := c.Profiles[DefaultProfile]; p.MinConfidence = IntPtr(101); c.Profiles[DefaultProfile] = p },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "missing default profile",
			mutate:  func(c *Config) { delete(c.Profiles, DefaultProfile) },
			wantErr: ErrNoDefaultProfile,
		},
		{
			name:    "area code not three digits",
			mutate:  func(c *Config) { p := c.Profiles[DefaultProfile]; p.ExcludedAreaCodes = []string{"(804)"}; c.Profiles[DefaultProfile] = p },
			wantErr: ErrInvalidAreaCode,
		},
		{
			name:    "spam prefix not three digits",
			mutate:  func(c *Config) { p := c.Profiles[DefaultProfile]; p.SpamPrefixes = []string{"8"}; c.Profiles[DefaultProfile] = p },
			wantErr: ErrInvalidSpamPrefix,
		},
		{
			name:    "file backend without path",
			mutate:  func(c *Config) { c.Cache.Path = "" },
			wantErr: ErrCachePathRequired,
		},
		{
			name:    "redis backend without addr",
			mutate:  func(c *Config) { c.Cache.Backend = BackendRedis },
			wantErr: ErrRedisAddrRequired,
		},
		{
			name:    "bad regex",
			mutate:  func(c *Config) { c.Input.Patterns.State = "State(" },
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Lookup.Concurrency = 0 },
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfile_Unknown(t *testing.T) {
	if _, err := Default().Profile("nope"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Profile(nope) = %v, want ErrUnknownProfile", err)
	}

	p, err := Default().Profile("")
	if err != nil || p.Extensions != ExtensionsReject {
		t.Errorf("Profile(\"\") = %+v, %v", p, err)
	}
}

func TestLookupConfig_APIKey(t *testing.T) {
	l := Default().Lookup
	l.APIKeyEnv = "LEADS_TEST_APIKEY"

	t.Setenv("LEADS_TEST_APIKEY", "")

	if _, err := l.APIKey(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("APIKey() = %v, want ErrMissingAPIKey", err)
	}

	t.Setenv("LEADS_TEST_APIKEY", "secret")

	key, err := l.APIKey()
	if err != nil || key != "secret" {
		t.Errorf("APIKey() = %q, %v", key, err)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	cfg := Default()
	cfg.Logging.Level = "warn"

	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Logging.Level != "warn" {
		t.Errorf("Level = %s, want warn", loaded.Logging.Level)
	}
}
