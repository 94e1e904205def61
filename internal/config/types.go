package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName           string
	Port             string
	Slack            SlackConfig
	Turso            TursoConfig
	Vacations        VacationsConfig
	Timezone         string
	GamesFile        string
	GenerateSchedule string
	LogLevel         string
	ProjectID        string

	loc *time.Location
}

type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
	AdminGroupID  string
	// BotUserID is looked up with auth.test when left empty.
	BotUserID       string
	MentionInThread bool
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

type VacationsConfig struct {
	APIURL  string
	Academy string
}
