package config

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFernetKey is 32 zero bytes, base64 encoded. Valid shape, test-only.
const testFernetKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

// setRequiredEnv fills the credentials that have no defaults so Load can
// reach validation of the field under test.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VAULTBOT_BOT_TOKEN", "123456:testtoken")
	t.Setenv("VAULTBOT_FERNET_KEY", testFernetKey)
	t.Setenv("VAULTBOT_OWNER_ID", "42")
	t.Setenv("VAULTBOT_WEBHOOK_BASE", "https://bot.example.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultAppConfig.Addr, cfg.Addr)
	assert.Equal(t, DefaultAppConfig.DataDir, cfg.DataDir)
	assert.Equal(t, DefaultAppConfig.InboxSize, cfg.InboxSize)
	assert.Equal(t, DefaultAppConfig.StoreTimeout, cfg.StoreTimeout)
	assert.Equal(t, int64(42), cfg.OwnerID)
}

func TestLoadMissingCredentials(t *testing.T) {
	_, err := Load()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VAULTBOT_ADDR", "127.0.0.1:9000")
	t.Setenv("VAULTBOT_DATA_DIR", "/var/lib/vaultbot")
	t.Setenv("VAULTBOT_INBOX_SIZE", "8")
	t.Setenv("VAULTBOT_STORE_TIMEOUT", "250ms")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "/var/lib/vaultbot", cfg.DataDir)
	assert.Equal(t, 8, cfg.InboxSize)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
}

func TestValidPaths(t *testing.T) {
	setRequiredEnv(t)
	valid := []string{
		"data",
		"/var/lib/vaultbot",
		"./data",
		"relative/path/to/data",
		"nested/dir/structure",
	}
	for _, p := range valid {
		t.Setenv("VAULTBOT_DATA_DIR", p)
		cfg, err := Load()
		if err != nil {
			t.Errorf("expected valid path %q, got error: %v", p, err)
			continue
		}
		if cfg.DataDir != p {
			t.Errorf("expected DataDir %q, got %q", p, cfg.DataDir)
		}
	}
}

func TestInvalidPaths(t *testing.T) {
	setRequiredEnv(t)
	invalid := []string{
		".",
		"/",
		"//",
		"../data",
		"data/..",
		"data/../../../etc",
	}
	for _, p := range invalid {
		t.Setenv("VAULTBOT_DATA_DIR", p)
		if _, err := Load(); err == nil {
			t.Errorf("expected error for invalid path %q, got nil", p)
		}
	}
}

func TestValidIPPort(t *testing.T) {
	type sample struct {
		Addr string `validate:"ip_port"`
	}

	v := validator.New()
	require.NoError(t, v.RegisterValidation("ip_port", validIPPort))

	tests := []struct {
		name  string
		addr  string
		valid bool
	}{
		{name: "empty", addr: "", valid: false},
		{name: "missing_port", addr: "127.0.0.1", valid: false},
		{name: "missing_port_after_colon", addr: "127.0.0.1:", valid: false},
		{name: "just_colon_port", addr: ":8080", valid: true},
		{name: "loopback_ipv4", addr: "127.0.0.1:8080", valid: true},
		{name: "ipv6_loopback", addr: "[::1]:8080", valid: true},
		{name: "hostname_not_ip", addr: "localhost:8080", valid: false},
		{name: "non_numeric_port", addr: "127.0.0.1:http", valid: false},
		{name: "port_zero", addr: "127.0.0.1:0", valid: false},
		{name: "port_max_valid", addr: "127.0.0.1:65535", valid: true},
		{name: "port_overflow", addr: "127.0.0.1:65536", valid: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(&sample{Addr: tc.addr})
			if tc.valid && err != nil {
				t.Fatalf("expected valid, got error: %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestBadFernetKey(t *testing.T) {
	setRequiredEnv(t)
	for _, key := range []string{"not-a-key", "AAAA", "====", "c2hvcnQ="} {
		t.Setenv("VAULTBOT_FERNET_KEY", key)
		if _, err := Load(); err == nil {
			t.Errorf("expected error for fernet key %q, got nil", key)
		}
	}
}

func TestBadOwnerID(t *testing.T) {
	setRequiredEnv(t)
	for _, id := range []string{"0", "-1"} {
		t.Setenv("VAULTBOT_OWNER_ID", id)
		if _, err := Load(); err == nil {
			t.Errorf("expected error for owner id %q, got nil", id)
		}
	}
}

func TestBadWebhookBase(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VAULTBOT_WEBHOOK_BASE", "not a url")
	if _, err := Load(); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestWebhookURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "https://bot.example.com", want: "https://bot.example.com/webhook"},
		{base: "https://bot.example.com/", want: "https://bot.example.com/webhook"},
	}
	for _, tc := range tests {
		c := &Config{WebhookBase: tc.base}
		assert.Equal(t, tc.want, c.WebhookURL())
	}
}

func TestDataDirPaths(t *testing.T) {
	c := &Config{DataDir: "/var/lib/vaultbot"}
	assert.Equal(t, "/var/lib/vaultbot/vault.json", c.SnapshotPath())
	assert.Equal(t, "/var/lib/vaultbot/audit.db", c.AuditDBPath())
}

func TestLoadDefaultError(t *testing.T) {
	// swap out the defaultLoader to return an error
	orig := defaultLoader
	t.Cleanup(func() { defaultLoader = orig })
	defaultLoader = func(k *koanf.Koanf) error {
		assert.NotNil(t, k)
		return assert.AnError
	}
	_, err := Load()
	if !errors.Is(err, assert.AnError) {
		t.Fatalf("expected assert.AnError, got: %v", err)
	}
}

func TestLoadEnvError(t *testing.T) {
	// swap out the envLoader to return an error
	orig := envLoader
	t.Cleanup(func() { envLoader = orig })
	envLoader = func(k *koanf.Koanf) error {
		assert.NotNil(t, k)
		return assert.AnError
	}
	_, err := Load()
	if !errors.Is(err, assert.AnError) {
		t.Fatalf("expected assert.AnError, got: %v", err)
	}
}

func TestRegisterValidationFails(t *testing.T) {
	orig := registerValidators
	t.Cleanup(func() { registerValidators = orig })
	registerValidators = func(v *validator.Validate) error {
		assert.NotNil(t, v)
		return assert.AnError
	}
	_, err := Load()
	if !errors.Is(err, assert.AnError) {
		t.Fatalf("expected assert.AnError, got: %v", err)
	}
}
