package config

type ClickUp struct{}

var _ ClickUpConfig = ClickUp{}

func (ClickUp) GetClickUpToken() string {
	return GetEnv("CLICKUP_API_TOKEN", "")
}

func (ClickUp) GetClickUpBaseURL() string {
	return GetEnv("CLICKUP_BASE_API", "https://api.clickup.com/api/v2")
}
