package config

type Config interface {
	EnvConfig
	CorsConfig
	MicrosoftConfig
	ClickUpConfig
	WorkbookConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetSessionKey() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type MicrosoftConfig interface {
	GetMicrosoftClientID() string
	GetMicrosoftClientSecret() string
	GetMicrosoftRedirectURI() string
	GetMicrosoftScopes() string
	GetMicrosoftAuthURL() string
	GetMicrosoftTokenURL() string
	GetMicrosoftIssuer() string
	GetGraphBaseURL() string
}

type ClickUpConfig interface {
	GetClickUpToken() string
	GetClickUpBaseURL() string
}

type WorkbookConfig interface {
	GetWorkbookFileName() string
	GetWorkbookSheetName() string
	GetWorkbookTableName() string
}

type mainConfig struct {
	EnvVars
	Cors
	Microsoft
	ClickUp
	Workbook
}

func New() Config {
	return mainConfig{}
}
