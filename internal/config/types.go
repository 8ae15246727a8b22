package config

// AppConfig holds runtime startup configuration loaded from YAML and the environment.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	PublicURL      string                `yaml:"public_url"`
	DSN            string                `yaml:"-"`
	RedisURL       string                `yaml:"-"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	Timezone       string                `yaml:"timezone"`
	Admin          AdminConfig           `yaml:"admin"`
	Survey         SurveyConfig          `yaml:"survey"`
	Storage        StorageConfig         `yaml:"storage"`
	Instagram      InstagramConfig       `yaml:"instagram"`
	Renderer       RendererConfig        `yaml:"renderer"`
	Mail           MailConfig            `yaml:"mail"`
}

type DatabaseRuntimeConfig struct {
	Driver   string            `yaml:"driver"` // postgres | mysql
	DSN      string            `yaml:"dsn"`
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Name     string            `yaml:"name"`
	SSLMode  string            `yaml:"sslmode"`
	Params   map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	Enable   bool   `yaml:"enable"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type RuntimePathsConfig struct {
	Logs   string `yaml:"logs"`
	Static string `yaml:"static"`
}

// AdminConfig identifies the single administrator allowed into the CMS.
type AdminConfig struct {
	Email           string `yaml:"email"`
	PasswordHash    string `yaml:"password_hash"`
	SessionTTLHours int    `yaml:"session_ttl_hours"`
}

type SurveyConfig struct {
	AllowedCity        string `yaml:"allowed_city"`
	CatchAllSection    string `yaml:"catch_all_section"`
	QuestionCacheTTL   int    `yaml:"question_cache_ttl_seconds"`
	CEPLookupURL       string `yaml:"cep_lookup_url"`
	CEPCacheTTLMinutes int    `yaml:"cep_cache_ttl_minutes"`
}

type StorageConfig struct {
	Driver      string    `yaml:"driver"` // local | s3
	MaxUploadMB int       `yaml:"max_upload_mb"`
	S3          S3Options `yaml:"s3"`
}

type S3Options struct {
	Endpoint        string `yaml:"endpoint"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicURL       string `yaml:"public_url"`
	PathStyleAccess bool   `yaml:"path_style_access"`
}

type InstagramConfig struct {
	UserID       string `yaml:"user_id"`
	AccessToken  string `yaml:"access_token"`
	GraphURL     string `yaml:"graph_url"`
	GraphVersion string `yaml:"graph_version"`
}

type RendererConfig struct {
	ChromePath         string `yaml:"chrome_path"`
	Width              int    `yaml:"width"`
	Height             int    `yaml:"height"`
	LoadTimeoutSeconds int    `yaml:"load_timeout_seconds"`
	SettleMillis       int    `yaml:"settle_millis"`
}

type MailConfig struct {
	Enable    bool     `yaml:"enable"`
	From      string   `yaml:"from"`
	ReplyTo   string   `yaml:"reply_to"`
	ResendKey string   `yaml:"resend_key"`
	NotifyTo  []string `yaml:"notify_to"`
}
