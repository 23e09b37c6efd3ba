package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "SHOPLANE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "SHOPLANE_APP_ENV"
	EnvPort                   = "SHOPLANE_APP_PORT"
	EnvDBDSN                  = "SHOPLANE_DB_DSN"
	EnvDBHost                 = "SHOPLANE_DB_HOST"
	EnvDBUser                 = "SHOPLANE_DB_USER"
	EnvDBName                 = "SHOPLANE_DB_NAME"
	EnvRedisURL               = "SHOPLANE_REDIS_URL"
	EnvJWTSecret              = "SHOPLANE_JWT_SECRET"
	EnvJWTIssuer              = "SHOPLANE_JWT_ISSUER"
	EnvJWTExpMins             = "SHOPLANE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SHOPLANE_REFRESH_TOKEN_TTL_MINUTES"
	EnvUploadsDir             = "SHOPLANE_UPLOADS_DIR"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
