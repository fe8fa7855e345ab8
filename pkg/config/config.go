package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Ledger       LedgerConfig
	Outbox       OutboxConfig
	Broker       BrokerConfig
	Topics       TopicsConfig
	Kafka        KafkaConfig
	GCP          GCPConfig
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
	if _, err := time.LoadLocation(cfg.Ledger.BusinessTimezone); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvLedgerTimezone, err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CASHVAULT_APP_ENV" required:"true"`
	Port         string `envconfig:"CASHVAULT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CASHVAULT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CASHVAULT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CASHVAULT_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"CASHVAULT_CORS_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"CASHVAULT_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CASHVAULT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CASHVAULT_DB_DSN"`
	Driver string `envconfig:"CASHVAULT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CASHVAULT_DB_HOST"`
	LegacyPort     int    `envconfig:"CASHVAULT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CASHVAULT_DB_USER"`
	LegacyPassword string `envconfig:"CASHVAULT_DB_PASSWORD"`
	LegacyName     string `envconfig:"CASHVAULT_DB_NAME"`
	LegacySSLMode  string `envconfig:"CASHVAULT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CASHVAULT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CASHVAULT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CASHVAULT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CASHVAULT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CASHVAULT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CASHVAULT_REDIS_ADDR"`
	Password     string        `envconfig:"CASHVAULT_REDIS_PASSWORD"`
	DB           int           `envconfig:"CASHVAULT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CASHVAULT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CASHVAULT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CASHVAULT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CASHVAULT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CASHVAULT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CASHVAULT_AUTO_MIGRATE" default:"false"`
}

// LedgerConfig holds the vault of record and the default movement reasons.
type LedgerConfig struct {
	VaultID           int64  `envconfig:"CASHVAULT_LEDGER_VAULT_ID" default:"1"`
	BusinessTimezone  string `envconfig:"CASHVAULT_LEDGER_TIMEZONE" default:"UTC"`
	ReceiveReason     string `envconfig:"CASHVAULT_LEDGER_RECEIVE_REASON" default:"vault receive"`
	WithdrawReason    string `envconfig:"CASHVAULT_LEDGER_WITHDRAW_REASON" default:"vault withdraw"`
	LoadingReason     string `envconfig:"CASHVAULT_LEDGER_LOADING_REASON" default:"atm loading"`
	AdjustmentReason  string `envconfig:"CASHVAULT_LEDGER_ADJUSTMENT_REASON" default:"atm loading adjustment"`
	RestorationReason string `envconfig:"CASHVAULT_LEDGER_RESTORATION_REASON" default:"atm loading restoration"`
}

// Location returns the business-day timezone, falling back to UTC.
func (l LedgerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(l.BusinessTimezone)
	if err != nil || l.BusinessTimezone == "" {
		return time.UTC
	}
	return loc
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CASHVAULT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CASHVAULT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CASHVAULT_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"CASHVAULT_OUTBOX_RETENTION_DAYS" default:"7"`
}

// Retention returns the published-row retention window.
func (o OutboxConfig) Retention() time.Duration {
	if o.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(o.RetentionDays) * 24 * time.Hour
}

type BrokerConfig struct {
	Kind                    string        `envconfig:"CASHVAULT_BROKER_KIND" default:"kafka"`
	BreakerMaxRequests      uint32        `envconfig:"CASHVAULT_BROKER_BREAKER_MAX_REQUESTS" default:"1"`
	BreakerInterval         time.Duration `envconfig:"CASHVAULT_BROKER_BREAKER_INTERVAL" default:"60s"`
	BreakerTimeout          time.Duration `envconfig:"CASHVAULT_BROKER_BREAKER_TIMEOUT" default:"30s"`
	BreakerFailureThreshold uint32        `envconfig:"CASHVAULT_BROKER_BREAKER_FAILURES" default:"5"`
}

type TopicsConfig struct {
	Vault          string `envconfig:"CASHVAULT_TOPIC_VAULT" default:"cv-vault-events"`
	ATMLoading     string `envconfig:"CASHVAULT_TOPIC_ATM_LOADING" default:"cv-atm-loading-events"`
	Reconciliation string `envconfig:"CASHVAULT_TOPIC_RECONCILIATION" default:"cv-reconciliation-events"`
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"CASHVAULT_KAFKA_BROKERS"`
	ClientID     string        `envconfig:"CASHVAULT_KAFKA_CLIENT_ID" default:"cashvault"`
	WriteTimeout time.Duration `envconfig:"CASHVAULT_KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"CASHVAULT_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"CASHVAULT_GCP_CREDENTIALS_JSON"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CASHVAULT_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"CASHVAULT_CRON_LOCK_TTL" default:"14m"`
}

// ValidateBroker checks the settings required by the selected broker kind.
func (c *Config) ValidateBroker() error {
	switch strings.ToLower(strings.TrimSpace(c.Broker.Kind)) {
	case BrokerKindKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("%s is required when %s=%s", EnvKafkaBrokers, EnvBrokerKind, BrokerKindKafka)
		}
	case BrokerKindPubSub:
		if c.GCP.ProjectID == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvGCPProjectID, EnvBrokerKind, BrokerKindPubSub)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvBrokerKind, c.Broker.Kind)
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
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
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
