package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	// DefaultEnvFile is loaded before the YAML file when present.
	DefaultEnvFile = ".env"

	defaultPort            = 3000
	defaultEnv             = "development"
	defaultPublicURL       = "http://localhost:3000"
	defaultDBDriver        = DriverPostgres
	defaultDBHost          = "127.0.0.1"
	defaultPostgresPort    = 5432
	defaultMySQLPort       = 3306
	defaultDBUser          = "postgres"
	defaultDBPassword      = "postgres"
	defaultDBName          = "mapa_cultural"
	defaultDBSSLMode       = "disable"
	defaultRedisHost       = "localhost"
	defaultRedisPort       = 6379
	defaultAllowedCity     = "São Roque"
	defaultCatchAll        = "Outros"
	defaultQuestionTTL     = 60
	defaultCEPLookupURL    = "https://viacep.com.br/ws"
	defaultStorageDriver   = StorageLocal
	defaultMaxUploadMB     = 5
	defaultGraphURL        = "https://graph.facebook.com"
	defaultGraphVersion    = "v21.0"
	defaultPostWidth       = 1080
	defaultPostHeight      = 1350
	defaultLoadTimeoutSec  = 30
	defaultSettleMillis    = 500
	defaultS3Region        = "us-east-1"
	defaultSessionTTLHours = 24 * 7
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	StorageLocal = "local"
	StorageS3    = "s3"
)
