package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set win over the file; a missing file is ignored.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv overlays environment variables on top of the YAML values.
func applyEnv(cfg *AppConfig, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	num("PORT", &cfg.Port)
	str("APP_ENV", &cfg.Env)
	str("PUBLIC_URL", &cfg.PublicURL)
	str("JWT_SECRET", &cfg.JWTSecret)

	str("DATABASE_DRIVER", &cfg.Database.Driver)
	str("DATABASE_URL", &cfg.Database.URL)
	str("REDIS_URL", &cfg.Redis.URL)

	str("ADMIN_EMAIL", &cfg.Admin.Email)
	str("ADMIN_PASSWORD_HASH", &cfg.Admin.PasswordHash)

	str("ALLOWED_CITY", &cfg.Survey.AllowedCity)

	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("S3_ENDPOINT", &cfg.Storage.S3.Endpoint)
	str("S3_BUCKET", &cfg.Storage.S3.Bucket)
	str("S3_REGION", &cfg.Storage.S3.Region)
	str("S3_ACCESS_KEY_ID", &cfg.Storage.S3.AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &cfg.Storage.S3.SecretAccessKey)
	str("S3_PUBLIC_URL", &cfg.Storage.S3.PublicURL)

	str("INSTAGRAM_USER_ID", &cfg.Instagram.UserID)
	str("INSTAGRAM_ACCESS_TOKEN", &cfg.Instagram.AccessToken)

	str("CHROME_PATH", &cfg.Renderer.ChromePath)

	str("RESEND_API_KEY", &cfg.Mail.ResendKey)
	str("MAIL_FROM", &cfg.Mail.From)
	if v, ok := lookup("NOTIFY_EMAIL"); ok && strings.TrimSpace(v) != "" {
		cfg.Mail.NotifyTo = strings.Split(v, ",")
	}
	if cfg.Mail.ResendKey != "" && cfg.Mail.From != "" {
		cfg.Mail.Enable = true
	}
}
