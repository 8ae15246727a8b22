package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config file, applies environment overrides and validates the result.
// A missing file is not an error: defaults plus environment are enough to boot.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnv(&cfg, os.LookupEnv)
	normalize(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:      defaultPort,
		Env:       defaultEnv,
		PublicURL: defaultPublicURL,
		Database: DatabaseRuntimeConfig{
			Driver:   defaultDBDriver,
			Host:     defaultDBHost,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			SSLMode:  defaultDBSSLMode,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
		},
		Admin: AdminConfig{
			SessionTTLHours: defaultSessionTTLHours,
		},
		Survey: SurveyConfig{
			AllowedCity:        defaultAllowedCity,
			CatchAllSection:    defaultCatchAll,
			QuestionCacheTTL:   defaultQuestionTTL,
			CEPLookupURL:       defaultCEPLookupURL,
			CEPCacheTTLMinutes: 24 * 60,
		},
		Storage: StorageConfig{
			Driver:      defaultStorageDriver,
			MaxUploadMB: defaultMaxUploadMB,
			S3:          S3Options{Region: defaultS3Region},
		},
		Instagram: InstagramConfig{
			GraphURL:     defaultGraphURL,
			GraphVersion: defaultGraphVersion,
		},
		Renderer: RendererConfig{
			Width:              defaultPostWidth,
			Height:             defaultPostHeight,
			LoadTimeoutSeconds: defaultLoadTimeoutSec,
			SettleMillis:       defaultSettleMillis,
		},
	}
}

func normalize(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.PublicURL = strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/")
	if cfg.PublicURL == "" {
		cfg.PublicURL = defaultPublicURL
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.Admin.Email = strings.ToLower(strings.TrimSpace(cfg.Admin.Email))
	cfg.Admin.PasswordHash = strings.TrimSpace(cfg.Admin.PasswordHash)
	if cfg.Admin.SessionTTLHours <= 0 {
		cfg.Admin.SessionTTLHours = defaultSessionTTLHours
	}

	cfg.Survey.AllowedCity = strings.TrimSpace(cfg.Survey.AllowedCity)
	if cfg.Survey.AllowedCity == "" {
		cfg.Survey.AllowedCity = defaultAllowedCity
	}
	cfg.Survey.CatchAllSection = strings.TrimSpace(cfg.Survey.CatchAllSection)
	if cfg.Survey.CatchAllSection == "" {
		cfg.Survey.CatchAllSection = defaultCatchAll
	}
	if cfg.Survey.QuestionCacheTTL < 0 {
		cfg.Survey.QuestionCacheTTL = 0
	}
	cfg.Survey.CEPLookupURL = strings.TrimRight(strings.TrimSpace(cfg.Survey.CEPLookupURL), "/")
	if cfg.Survey.CEPLookupURL == "" {
		cfg.Survey.CEPLookupURL = defaultCEPLookupURL
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = defaultStorageDriver
	}
	if cfg.Storage.MaxUploadMB <= 0 {
		cfg.Storage.MaxUploadMB = defaultMaxUploadMB
	}
	cfg.Storage.S3.Endpoint = strings.TrimSpace(cfg.Storage.S3.Endpoint)
	cfg.Storage.S3.Bucket = strings.TrimSpace(cfg.Storage.S3.Bucket)
	cfg.Storage.S3.Region = strings.TrimSpace(cfg.Storage.S3.Region)
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = defaultS3Region
	}
	cfg.Storage.S3.PublicURL = strings.TrimRight(strings.TrimSpace(cfg.Storage.S3.PublicURL), "/")

	cfg.Instagram.GraphURL = strings.TrimRight(strings.TrimSpace(cfg.Instagram.GraphURL), "/")
	if cfg.Instagram.GraphURL == "" {
		cfg.Instagram.GraphURL = defaultGraphURL
	}
	if strings.TrimSpace(cfg.Instagram.GraphVersion) == "" {
		cfg.Instagram.GraphVersion = defaultGraphVersion
	}

	if cfg.Renderer.LoadTimeoutSeconds <= 0 {
		cfg.Renderer.LoadTimeoutSeconds = defaultLoadTimeoutSec
	}
	if cfg.Renderer.SettleMillis < 0 {
		cfg.Renderer.SettleMillis = 0
	}
	cfg.Mail.NotifyTo = normalizeOrigins(cfg.Mail.NotifyTo)
}

func validate(cfg *AppConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	switch cfg.Database.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("invalid database.driver %q, expected postgres or mysql", cfg.Database.Driver)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", cfg.Database.Port)
	}
	if cfg.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", cfg.Redis.DB)
	}
	switch cfg.Storage.Driver {
	case StorageLocal:
	case StorageS3:
		if cfg.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required when storage.driver is s3")
		}
	default:
		return fmt.Errorf("invalid storage.driver %q, expected local or s3", cfg.Storage.Driver)
	}
	if cfg.Renderer.Width <= 0 || cfg.Renderer.Height <= 0 {
		return fmt.Errorf("invalid renderer size %dx%d", cfg.Renderer.Width, cfg.Renderer.Height)
	}
	return nil
}

func normalizeDatabaseConfig(cfg DatabaseRuntimeConfig) DatabaseRuntimeConfig {
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	if cfg.Driver == "" {
		cfg.Driver = defaultDBDriver
	}
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.SSLMode = strings.TrimSpace(cfg.SSLMode)
	if cfg.Host == "" {
		cfg.Host = defaultDBHost
	}
	if cfg.Port == 0 {
		if cfg.Driver == DriverMySQL {
			cfg.Port = defaultMySQLPort
		} else {
			cfg.Port = defaultPostgresPort
		}
	}
	if cfg.User == "" {
		cfg.User = defaultDBUser
	}
	if cfg.Name == "" {
		cfg.Name = defaultDBName
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = defaultDBSSLMode
	}
	if cfg.Params != nil {
		cfg.Params = copyStringMap(cfg.Params)
	}
	return cfg
}

func normalizeRedisConfig(cfg RedisRuntimeConfig) RedisRuntimeConfig {
	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.Host == "" {
		cfg.Host = defaultRedisHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultRedisPort
	}
	if cfg.URL != "" {
		cfg.Enable = true
	}
	return cfg
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}

func copyStringMap(input map[string]string) map[string]string {
	out := make(map[string]string, len(input))
	for k, v := range input {
		out[k] = v
	}
	return out
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

func (c *AppConfig) StaticDir() string {
	if c == nil {
		return ResolveRuntimePath("", "static")
	}
	return ResolveRuntimePath(c.Paths.Static, "static")
}

// QuestionCacheTTL is how long the public question list may be served from memory.
func (c *AppConfig) QuestionCacheTTL() time.Duration {
	return time.Duration(c.Survey.QuestionCacheTTL) * time.Second
}

// SessionTTL is the lifetime of admin session tokens.
func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.Admin.SessionTTLHours) * time.Hour
}

// MaxUploadBytes caps a single uploaded file.
func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.Storage.MaxUploadMB) << 20
}
