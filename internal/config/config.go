package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	TranslatorKey      string `envconfig:"TRANSLATOR_KEY" default:""`
	TranslatorEndpoint string `envconfig:"TRANSLATOR_ENDPOINT" default:""`

	StorageEndpoint    string        `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	StorageAccountName string        `envconfig:"STORAGE_ACCOUNT_NAME" default:""`
	StorageAccountKey  string        `envconfig:"STORAGE_ACCOUNT_KEY" default:""`
	StorageUseSSL      bool          `envconfig:"STORAGE_USE_SSL" default:"false"`
	SourceBucket       string        `envconfig:"SOURCE_BUCKET" default:"documents"`
	TranslatedBucket   string        `envconfig:"TRANSLATED_BUCKET" default:"translated"`
	SASTTL             time.Duration `envconfig:"SAS_TTL" default:"1h"`

	OneDriveClientID      string        `envconfig:"ONEDRIVE_CLIENT_ID" default:""`
	OneDriveClientSecret  string        `envconfig:"ONEDRIVE_CLIENT_SECRET" default:""`
	OneDriveTenantID      string        `envconfig:"ONEDRIVE_TENANT_ID" default:""`
	OneDriveFolder        string        `envconfig:"ONEDRIVE_FOLDER" default:"Translated Documents"`
	OneDriveUploadEnabled bool          `envconfig:"ONEDRIVE_UPLOAD_ENABLED" default:"false"`
	MirrorDeadline        time.Duration `envconfig:"MIRROR_DEADLINE" default:"90s"`
}

// requiredVars are the settings the service cannot operate without.
// They are deliberately not tagged required:"true": the process must
// still boot so the health endpoint can report what is missing.
var requiredVars = []string{
	"TRANSLATOR_KEY",
	"TRANSLATOR_ENDPOINT",
	"STORAGE_ACCOUNT_NAME",
	"STORAGE_ACCOUNT_KEY",
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.SourceBucket) == "" {
		return fmt.Errorf("SOURCE_BUCKET is required")
	}
	if strings.TrimSpace(c.TranslatedBucket) == "" {
		return fmt.Errorf("TRANSLATED_BUCKET is required")
	}
	if c.SASTTL < time.Minute {
		return fmt.Errorf("SAS_TTL must be >= 1m")
	}
	if c.MirrorDeadline < time.Second {
		return fmt.Errorf("MIRROR_DEADLINE must be >= 1s")
	}
	return nil
}

// MissingRequired returns the sorted names of required settings that are unset.
func (c *Config) MissingRequired() []string {
	values := map[string]string{
		"TRANSLATOR_KEY":       c.TranslatorKey,
		"TRANSLATOR_ENDPOINT":  c.TranslatorEndpoint,
		"STORAGE_ACCOUNT_NAME": c.StorageAccountName,
		"STORAGE_ACCOUNT_KEY":  c.StorageAccountKey,
	}

	missing := make([]string, 0, len(requiredVars))
	for _, name := range requiredVars {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// DriveConfigured reports whether the drive mirror credentials are all present.
func (c *Config) DriveConfigured() bool {
	return strings.TrimSpace(c.OneDriveClientID) != "" &&
		strings.TrimSpace(c.OneDriveClientSecret) != "" &&
		strings.TrimSpace(c.OneDriveTenantID) != ""
}

// DriveEnabled reports whether the drive mirror is configured and switched on.
func (c *Config) DriveEnabled() bool {
	return c.DriveConfigured() && c.OneDriveUploadEnabled
}
