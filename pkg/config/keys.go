package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	SMTPTLSOpportunistic = "opportunistic"
	SMTPTLSMandatory     = "mandatory"
	SMTPTLSNone          = "none"
)

const (
	EnvAppEnv      = "STOREFRONT_APP_ENV"
	EnvPort        = "STOREFRONT_APP_PORT"
	EnvFrontendURL = "STOREFRONT_FRONTEND_URL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvResetTokenTTL = "STOREFRONT_RESET_TOKEN_TTL"

	EnvSMTPHost      = "STOREFRONT_SMTP_HOST"
	EnvSMTPPort      = "STOREFRONT_SMTP_PORT"
	EnvSMTPFrom      = "STOREFRONT_SMTP_FROM"
	EnvSMTPTLSPolicy = "STOREFRONT_SMTP_TLS_POLICY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
