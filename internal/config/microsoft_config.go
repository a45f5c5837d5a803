package config

type Microsoft struct{}

var _ MicrosoftConfig = Microsoft{}

const (
	// Personal-account (consumers) endpoints of the Microsoft identity platform.
	defaultAuthURL  = "https://login.microsoftonline.com/consumers/oauth2/v2.0/authorize"
	defaultTokenURL = "https://login.microsoftonline.com/consumers/oauth2/v2.0/token"
	defaultIssuer   = "https://login.microsoftonline.com/consumers/v2.0"

	defaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

	defaultScopes = "https://graph.microsoft.com/user.read https://graph.microsoft.com/mail.read offline_access Files.Read Files.ReadWrite profile openid"
)

func (Microsoft) GetMicrosoftClientID() string {
	return GetEnv("MICROSOFT_CLIENT_ID", "")
}

func (Microsoft) GetMicrosoftClientSecret() string {
	return GetEnv("MICROSOFT_CLIENT_SECRET", "")
}

func (Microsoft) GetMicrosoftRedirectURI() string {
	return GetEnv("MICROSOFT_REDIRECT_URI", "")
}

func (Microsoft) GetMicrosoftScopes() string {
	return GetEnv("MICROSOFT_PERMISSIONS", defaultScopes)
}

func (Microsoft) GetMicrosoftAuthURL() string {
	return GetEnv("MICROSOFT_AUTH_URL", defaultAuthURL)
}

func (Microsoft) GetMicrosoftTokenURL() string {
	return GetEnv("MICROSOFT_TOKEN_URL", defaultTokenURL)
}

func (Microsoft) GetMicrosoftIssuer() string {
	return GetEnv("MICROSOFT_ISSUER", defaultIssuer)
}

func (Microsoft) GetGraphBaseURL() string {
	return GetEnv("MICROSOFT_BASE_API", defaultGraphBaseURL)
}
