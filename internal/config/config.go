package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"lzpending/internal/constants"
	apperrors "lzpending/internal/errors"
	"lzpending/internal/models"
	"lzpending/internal/validation"
	pkgconstants "lzpending/pkg/constants"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingOwner = models.ConfigError{Message: "missing owner address (set OWNER_ADDRESS)"}
)

// envBindings maps config keys to the environment variables that set them,
// in priority order.
var envBindings = map[string][]string{
	"owner_address":          {"OWNER_ADDRESS", "OWNER"},
	"log_level":              {"LOG_LEVEL"},
	"server.port":            {"PORT"},
	"scan.api_base_url":      {"LZ_API_BASE", "LZ_SCAN_API_BASE"},
	"scan.tx_page_base_url":  {"LZ_TX_PAGE_BASE", "LZ_SCAN_TX_PAGE"},
	"scan.http_timeout_sec":  {"LZ_HTTP_TIMEOUT_SEC"},
	"cache.enabled":          {"CACHE_ENABLED"},
	"cache.ttl_minutes":      {"CACHE_TTL_MINUTES"},
	"database.path":          {"DB_PATH"},
	"watcher.enabled":        {"WATCHER_ENABLED"},
	"watcher.interval_sec":   {"WATCHER_INTERVAL_SEC"},
	"watcher.retention_days": {"WATCHER_RETENTION_DAYS"},
	"tracing.enabled":        {"TRACING_ENABLED"},
	"tracing.otlp_endpoint":  {"OTEL_EXPORTER_OTLP_ENDPOINT"},
}

// Override adjusts settings after all sources are read. Overrides win over
// every other source.
type Override func(v *viper.Viper)

// WithOwner forces the owner address, when non-empty.
func WithOwner(owner string) Override {
	return func(v *viper.Viper) {
		if strings.TrimSpace(owner) != "" {
			v.Set("owner_address", owner)
		}
	}
}

// LoadConfig reads .env (if present), the optional JSON config file at path,
// and the environment, in increasing order of precedence.
func LoadConfig(path string, overrides ...Override) (*models.Config, error) {
	return load(path, true, overrides)
}

// LoadConfigWithoutOwner is LoadConfig for commands that never scan. Every
// other setting is still validated.
func LoadConfigWithoutOwner(path string, overrides ...Override) (*models.Config, error) {
	return load(path, false, overrides)
}

func load(path string, requireOwner bool, overrides []Override) (*models.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		if err := validation.ValidateFilePath(path); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	for _, override := range overrides {
		override(v)
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validate(&cfg, requireOwner); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("owner_address", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("server.port", constants.DefaultServerPort)
	v.SetDefault("server.read_timeout_sec", constants.DefaultServerReadTimeoutSec)
	v.SetDefault("server.write_timeout_sec", constants.DefaultServerWriteTimeoutSec)
	v.SetDefault("scan.api_base_url", pkgconstants.DefaultScanAPIBaseURL)
	v.SetDefault("scan.tx_page_base_url", pkgconstants.DefaultScanTxPageBaseURL)
	v.SetDefault("scan.http_timeout_sec", pkgconstants.DefaultHTTPTimeoutSec)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_minutes", constants.DefaultCacheTTLMinutes)
	v.SetDefault("database.path", constants.DefaultDatabasePath)
	v.SetDefault("watcher.enabled", false)
	v.SetDefault("watcher.interval_sec", constants.DefaultWatcherIntervalSec)
	v.SetDefault("watcher.retention_days", constants.DefaultWatcherRetentionDays)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.use_stdout", false)
	v.SetDefault("tracing.otlp_endpoint", constants.DefaultOTLPEndpoint)
	v.SetDefault("tracing.sample_rate", constants.DefaultTracingSampleRate)
	v.SetDefault("tracing.environment", "development")
}

func validate(c *models.Config, requireOwner bool) error {
	hasOwner := strings.TrimSpace(c.OwnerAddress) != ""
	if requireOwner && !hasOwner {
		return ErrMissingOwner
	}

	var err error
	if hasOwner {
		err = validator.New().Struct(c)
	} else {
		err = validator.New().StructExcept(c, "OwnerAddress")
	}
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperrors.NewConfigError(fe.Namespace(), fmt.Sprintf("failed %q validation", fe.Tag()))
		}
		return err
	}

	if hasOwner {
		owner, err := validation.NormalizeOwner(c.OwnerAddress)
		if err != nil {
			return apperrors.NewConfigError("owner_address", err.Error())
		}
		c.OwnerAddress = owner
	}

	c.Scan.APIBaseURL = strings.TrimSuffix(c.Scan.APIBaseURL, "/")
	c.Scan.TxPageBaseURL = strings.TrimSuffix(c.Scan.TxPageBaseURL, "/")

	if c.Watcher.Enabled {
		if err := validation.ValidateFilePath(c.Database.Path); err != nil {
			return apperrors.NewConfigError("database.path", err.Error())
		}
	}
	return nil
}
