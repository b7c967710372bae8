package config

const (
	EnvPrefix = "COURIERDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "COURIERDESK_DB_DSN"
	EnvDBHost = "COURIERDESK_DB_HOST"
	EnvDBUser = "COURIERDESK_DB_USER"
	EnvDBName = "COURIERDESK_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
