// Package config provides layered configuration loading for the vaultbot
// service. It merges struct defaults with VAULTBOT_* environment variables,
// then validates the result. No other package reads the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces all environment variables read by Load.
const envPrefix = "VAULTBOT_"

// Config holds the merged runtime configuration for the vaultbot service.
// Precedence (lowest to highest): defaults, environment.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required,ip_port"`
	// DataDir holds the snapshot file and the audit database.
	DataDir string `koanf:"data_dir" validate:"required,sane_path"`
	// BotToken is the Telegram bot credential. Never logged.
	BotToken string `koanf:"bot_token" validate:"required"`
	// FernetKey is the base64 key for at-rest encryption. Never logged.
	FernetKey string `koanf:"fernet_key" validate:"required,fernet_key"`
	// OwnerID is the single Telegram user id allowed to run commands.
	OwnerID int64 `koanf:"owner_id" validate:"required,gt=0"`
	// WebhookBase is the externally reachable URL the bot registers with
	// Telegram; "/webhook" is appended.
	WebhookBase string `koanf:"webhook_base" validate:"required,http_url"`
	// InboxSize bounds the processor's inbox channel.
	InboxSize int `koanf:"inbox_size" validate:"gt=0"`
	// StoreTimeout bounds each snapshot file operation so a stuck
	// filesystem cannot wedge the processor.
	StoreTimeout time.Duration `koanf:"store_timeout" validate:"gt=0"`
}

// DefaultAppConfig provides sane defaults for everything that has one.
// Credentials and identity have no default and must come from the environment.
var DefaultAppConfig = Config{
	Addr:         ":8080",
	DataDir:      "./data",
	InboxSize:    64,
	StoreTimeout: 5 * time.Second,
}

// Loader hooks are package vars so tests can inject failures.
var (
	defaultLoader = func(k *koanf.Koanf) error {
		return k.Load(structs.Provider(DefaultAppConfig, "koanf"), nil)
	}
	envLoader = func(k *koanf.Koanf) error {
		return k.Load(env.Provider(".", env.Opt{
			Prefix: envPrefix,
			TransformFunc: func(key, value string) (string, any) {
				return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
			},
		}), nil)
	}
	registerValidators = func(v *validator.Validate) error {
		if err := v.RegisterValidation("ip_port", validIPPort); err != nil {
			return err
		}
		if err := v.RegisterValidation("sane_path", validDataDir); err != nil {
			return err
		}
		return v.RegisterValidation("fernet_key", validFernetKey)
	}
)

// Load builds the effective configuration: defaults, then environment,
// then validation. It returns the first problem encountered.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	v := validator.New()
	if err := registerValidators(v); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	if err := v.Struct(&cfg); err != nil {
		return nil, describeValidation(err)
	}
	return &cfg, nil
}

// SnapshotPath is the vault snapshot file inside DataDir.
func (c *Config) SnapshotPath() string { return filepath.Join(c.DataDir, "vault.json") }

// AuditDBPath is the sqlite audit database inside DataDir.
func (c *Config) AuditDBPath() string { return filepath.Join(c.DataDir, "audit.db") }

// WebhookURL is the full callback URL registered with Telegram.
func (c *Config) WebhookURL() string {
	return strings.TrimRight(c.WebhookBase, "/") + "/webhook"
}

// describeValidation converts validator errors into operator-readable text
// naming the offending field without echoing credential values.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s fails %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(parts, "; "))
}

// validIPPort accepts host:port where host is empty or a literal IP and port
// is 1-65535. Hostnames are rejected; the listener should bind addresses.
func validIPPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host != "" {
		if ip := net.ParseIP(host); ip == nil {
			return false
		}
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// validDataDir rejects the filesystem root, bare dots, and any traversal
// segment; everything else (relative or absolute) is allowed.
func validDataDir(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	if p == "" || p == "." || p == "/" || p == "//" {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}

// validFernetKey requires the value to decode as a Fernet key, catching
// truncated or mis-pasted keys at startup instead of on first decrypt.
func validFernetKey(fl validator.FieldLevel) bool {
	_, err := fernet.DecodeKey(fl.Field().String())
	return err == nil
}
