package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	DefaultTimezone         = "Europe/Paris"
	DefaultAcademy          = "Nantes"
	DefaultGenerateSchedule = "0 6 1 * *"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	cfg := Config{
		DBName: getEnv("DB_NAME"),
		Port:   getEnv("PORT"),
		Slack: SlackConfig{
			Token:           getEnv("SLACK_BOT_TOKEN"),
			ChannelID:       getEnv("SLACK_CHANNEL_ID"),
			SigningSecret:   getEnv("SLACK_SIGNING_SECRET"),
			AdminGroupID:    os.Getenv("SLACK_ADMIN_GROUP_ID"),
			BotUserID:       os.Getenv("SLACK_BOT_USER_ID"),
			MentionInThread: getBool("MENTION_IN_THREAD", false),
		},
		Turso: TursoConfig{
			PrimaryURL: os.Getenv("TURSO_PRIMARY_URL"),
			AuthToken:  os.Getenv("TURSO_AUTH_TOKEN"),
		},
		Vacations: VacationsConfig{
			APIURL:  os.Getenv("VACATION_API_URL"),
			Academy: getOrDefault("VACATION_ACADEMY", DefaultAcademy),
		},
		Timezone:         getOrDefault("TZ", DefaultTimezone),
		GamesFile:        os.Getenv("GAMES_FILE"),
		GenerateSchedule: getOrDefault("GENERATE_SCHEDULE", DefaultGenerateSchedule),
		LogLevel:         getOrDefault("LOG_LEVEL", "info"),
		ProjectID:        os.Getenv("GCP_PROJECT"),
	}
	cfg.loc = loadLocation(cfg.Timezone)
	return cfg
}

// Location is the club's timezone. An unknown zone falls back to UTC.
func (c Config) Location() *time.Location {
	if c.loc != nil {
		return c.loc
	}
	return loadLocation(c.Timezone)
}

func loadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Error("Unknown timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

func getOrDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn("Invalid boolean, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return b
}
