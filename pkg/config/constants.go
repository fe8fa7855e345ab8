package config

const (
	EnvPrefix = "CASHVAULT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:cashvault.db?cache=shared"

	BrokerKindKafka  = "kafka"
	BrokerKindPubSub = "pubsub"
)

const (
	EnvAppEnv         = "CASHVAULT_APP_ENV"
	EnvPort           = "CASHVAULT_APP_PORT"
	EnvDBDSN          = "CASHVAULT_DB_DSN"
	EnvDBDriver       = "CASHVAULT_DB_DRIVER"
	EnvDBHost         = "CASHVAULT_DB_HOST"
	EnvDBUser         = "CASHVAULT_DB_USER"
	EnvDBName         = "CASHVAULT_DB_NAME"
	EnvRedisURL       = "CASHVAULT_REDIS_URL"
	EnvLedgerVaultID  = "CASHVAULT_LEDGER_VAULT_ID"
	EnvLedgerTimezone = "CASHVAULT_LEDGER_TIMEZONE"
	EnvBrokerKind     = "CASHVAULT_BROKER_KIND"
	EnvKafkaBrokers   = "CASHVAULT_KAFKA_BROKERS"
	EnvGCPProjectID   = "CASHVAULT_GCP_PROJECT_ID"
	EnvCronInterval   = "CASHVAULT_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
