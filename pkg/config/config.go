package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PROOFROOM"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv  = "PROOFROOM_APP_ENV"
	EnvAppPort = "PROOFROOM_APP_PORT"
	EnvDBDSN   = "PROOFROOM_DB_DSN"
	EnvDBHost  = "PROOFROOM_DB_HOST"
	EnvDBUser  = "PROOFROOM_DB_USER"
	EnvDBName  = "PROOFROOM_DB_NAME"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	FeatureFlags FeatureFlagsConfig
	Uploads      UploadsConfig
	MediaStore   MediaStoreConfig
	Analyzer     AnalyzerConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.MediaStore.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PROOFROOM_APP_ENV" required:"true"`
	Port         string `envconfig:"PROOFROOM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROOFROOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROOFROOM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PROOFROOM_DB_DSN"`
	Driver string `envconfig:"PROOFROOM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROOFROOM_DB_HOST"`
	LegacyPort     int    `envconfig:"PROOFROOM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROOFROOM_DB_USER"`
	LegacyPassword string `envconfig:"PROOFROOM_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROOFROOM_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROOFROOM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROOFROOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROOFROOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROOFROOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROOFROOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("database config incomplete: set %s or %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	db.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(db.LegacyUser),
		url.QueryEscape(db.LegacyPassword),
		db.LegacyHost,
		db.LegacyPort,
		db.LegacyName,
		db.LegacySSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PROOFROOM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PROOFROOM_REDIS_ADDR"`
	Password     string        `envconfig:"PROOFROOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROOFROOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROOFROOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROOFROOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROOFROOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROOFROOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROOFROOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type AuthConfig struct {
	JWTSecret string `envconfig:"PROOFROOM_JWT_SECRET" required:"true"`
	JWTIssuer string `envconfig:"PROOFROOM_JWT_ISSUER" default:"proofroom"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PROOFROOM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PROOFROOM_AUTO_MIGRATE" default:"false"`
}

type UploadsConfig struct {
	AdminMaxUploadMB    int           `envconfig:"PROOFROOM_ADMIN_MAX_UPLOAD_MB" default:"10"`
	CustomerMaxUploadMB int           `envconfig:"PROOFROOM_CUSTOMER_MAX_UPLOAD_MB" default:"25"`
	MaxProofsPerOrder   int           `envconfig:"PROOFROOM_MAX_PROOFS_PER_ORDER" default:"25"`
	MaxUploadAttempts   int           `envconfig:"PROOFROOM_MAX_UPLOAD_ATTEMPTS" default:"3"`
	RetryBaseDelay      time.Duration `envconfig:"PROOFROOM_UPLOAD_RETRY_BASE_DELAY" default:"500ms"`
}

// AdminMaxUploadBytes returns the admin proof-upload ceiling in bytes.
func (u UploadsConfig) AdminMaxUploadBytes() int64 {
	return int64(u.AdminMaxUploadMB) * 1024 * 1024
}

// CustomerMaxUploadBytes returns the customer revision-upload ceiling in bytes.
func (u UploadsConfig) CustomerMaxUploadBytes() int64 {
	return int64(u.CustomerMaxUploadMB) * 1024 * 1024
}

type MediaStoreConfig struct {
	BaseURL      string        `envconfig:"PROOFROOM_MEDIA_STORE_BASE_URL" default:"https://api.cloudinary.com/v1_1"`
	CloudName    string        `envconfig:"PROOFROOM_MEDIA_STORE_CLOUD_NAME" required:"true"`
	UploadPreset string        `envconfig:"PROOFROOM_MEDIA_STORE_UPLOAD_PRESET" required:"true"`
	APIKey       string        `envconfig:"PROOFROOM_MEDIA_STORE_API_KEY"`
	APISecret    string        `envconfig:"PROOFROOM_MEDIA_STORE_API_SECRET"`
	Timeout      time.Duration `envconfig:"PROOFROOM_MEDIA_STORE_TIMEOUT" default:"2m"`
}

func (m MediaStoreConfig) validate() error {
	if strings.TrimSpace(m.CloudName) == "" {
		return fmt.Errorf("media store cloud name is required")
	}
	if strings.TrimSpace(m.UploadPreset) == "" {
		return fmt.Errorf("media store upload preset is required")
	}
	return nil
}

type AnalyzerConfig struct {
	// ContourMarkers are layer or spot-color names treated as cutter guides.
	ContourMarkers []string `envconfig:"PROOFROOM_ANALYZER_CONTOUR_MARKERS" default:"CutContour,Cut Contour,cutcontour,Thru-cut"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PROOFROOM_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PROOFROOM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ProofEventsTopic        string `envconfig:"PROOFROOM_PUBSUB_PROOF_EVENTS_TOPIC" default:"proof-events"`
	CleanupSubscription     string `envconfig:"PROOFROOM_PUBSUB_CLEANUP_SUBSCRIPTION" default:"proof-cleanup"`
	CleanupMaxOutstanding   int    `envconfig:"PROOFROOM_PUBSUB_CLEANUP_MAX_OUTSTANDING" default:"10"`
	EnsureSubscriptionExist bool   `envconfig:"PROOFROOM_PUBSUB_ENSURE_SUBSCRIPTIONS" default:"true"`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"PROOFROOM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"PROOFROOM_OUTBOX_PUBLISH_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"PROOFROOM_OUTBOX_MAX_ATTEMPTS" default:"10"`
}
