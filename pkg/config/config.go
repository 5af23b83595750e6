package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/angelmondragon/memberclub-backend/pkg/enums"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Cart         CartConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MEMBERCLUB_APP_ENV" required:"true"`
	Port         string `envconfig:"MEMBERCLUB_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MEMBERCLUB_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"MEMBERCLUB_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"MEMBERCLUB_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"MEMBERCLUB_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MEMBERCLUB_DB_DSN"`
	Driver string `envconfig:"MEMBERCLUB_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MEMBERCLUB_DB_HOST"`
	Port     int    `envconfig:"MEMBERCLUB_DB_PORT" default:"5432"`
	User     string `envconfig:"MEMBERCLUB_DB_USER"`
	Password string `envconfig:"MEMBERCLUB_DB_PASSWORD"`
	Name     string `envconfig:"MEMBERCLUB_DB_NAME"`
	SSLMode  string `envconfig:"MEMBERCLUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEMBERCLUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEMBERCLUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEMBERCLUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEMBERCLUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// Applied with SET LOCAL inside every transaction on Postgres.
	LockTimeout      time.Duration `envconfig:"MEMBERCLUB_DB_LOCK_TIMEOUT" default:"5s"`
	StatementTimeout time.Duration `envconfig:"MEMBERCLUB_DB_STATEMENT_TIMEOUT" default:"15s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEMBERCLUB_REDIS_URL"`
	Address      string        `envconfig:"MEMBERCLUB_REDIS_ADDR"`
	Password     string        `envconfig:"MEMBERCLUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEMBERCLUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEMBERCLUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEMBERCLUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEMBERCLUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEMBERCLUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEMBERCLUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"MEMBERCLUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MEMBERCLUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MEMBERCLUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MEMBERCLUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MEMBERCLUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MEMBERCLUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MEMBERCLUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MEMBERCLUB_ARGON_KEY_LEN" default:"32"`
}

type CartConfig struct {
	// RestorePolicy decides how much stock a removed cart entry gives back.
	RestorePolicy enums.RestorePolicy `envconfig:"MEMBERCLUB_CART_RESTORE_POLICY" default:"quantity"`
	// CashbackValidity is how long credited cashback stays spendable. Zero disables expiry.
	CashbackValidity time.Duration `envconfig:"MEMBERCLUB_CASHBACK_VALIDITY" default:"8760h"`
	// MutationLimit caps cart writes per member per MutationWindow. Zero disables the limit.
	MutationLimit  int           `envconfig:"MEMBERCLUB_CART_MUTATION_LIMIT" default:"60"`
	MutationWindow time.Duration `envconfig:"MEMBERCLUB_CART_MUTATION_WINDOW" default:"1m"`
}

func (c CartConfig) validate() error {
	if !c.RestorePolicy.IsValid() {
		return fmt.Errorf("invalid %s %q", EnvCartRestorePolicy, c.RestorePolicy)
	}
	if c.CashbackValidity < 0 {
		return fmt.Errorf("%s cannot be negative", EnvCashbackValidity)
	}
	if c.MutationLimit < 0 {
		return fmt.Errorf("%s cannot be negative", EnvCartMutationLimit)
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEMBERCLUB_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MEMBERCLUB_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"MEMBERCLUB_PUBSUB_DOMAIN_TOPIC" default:"memberclub-domain-events"`
	DomainSubscription string `envconfig:"MEMBERCLUB_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MEMBERCLUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MEMBERCLUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MEMBERCLUB_OUTBOX_MAX_ATTEMPTS" default:"10"`

	// MetricsAddr exposes /metrics from the relay when set, e.g. ":9091".
	MetricsAddr string `envconfig:"MEMBERCLUB_OUTBOX_METRICS_ADDR"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"MEMBERCLUB_CRON_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"MEMBERCLUB_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	MetricsAddr         string        `envconfig:"MEMBERCLUB_CRON_METRICS_ADDR"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if required[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
