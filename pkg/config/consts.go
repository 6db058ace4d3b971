package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "telaprint"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "TELAPRINT_DB_DSN"
	EnvDBHost = "TELAPRINT_DB_HOST"
	EnvDBUser = "TELAPRINT_DB_USER"
	EnvDBName = "TELAPRINT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
