package config

const (
	EnvPrefix = "MEMBERCLUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv            = "MEMBERCLUB_APP_ENV"
	EnvPort              = "MEMBERCLUB_APP_PORT"
	EnvDBDSN             = "MEMBERCLUB_DB_DSN"
	EnvDBHost            = "MEMBERCLUB_DB_HOST"
	EnvDBPort            = "MEMBERCLUB_DB_PORT"
	EnvDBUser            = "MEMBERCLUB_DB_USER"
	EnvDBPassword        = "MEMBERCLUB_DB_PASSWORD"
	EnvDBName            = "MEMBERCLUB_DB_NAME"
	EnvDBLockTimeout     = "MEMBERCLUB_DB_LOCK_TIMEOUT"
	EnvRedisURL          = "MEMBERCLUB_REDIS_URL"
	EnvJWTSecret         = "MEMBERCLUB_JWT_SECRET"
	EnvJWTIssuer         = "MEMBERCLUB_JWT_ISSUER"
	EnvJWTExpMins        = "MEMBERCLUB_JWT_EXPIRATION_MINUTES"
	EnvCartRestorePolicy = "MEMBERCLUB_CART_RESTORE_POLICY"
	EnvCashbackValidity  = "MEMBERCLUB_CASHBACK_VALIDITY"
	EnvCartMutationLimit = "MEMBERCLUB_CART_MUTATION_LIMIT"
	EnvGCPProjectID      = "MEMBERCLUB_GCP_PROJECT_ID"
	EnvPubSubDomainTopic = "MEMBERCLUB_PUBSUB_DOMAIN_TOPIC"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
