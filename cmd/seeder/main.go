package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/munitorum/internal/club"
	"github.com/mauv0809/munitorum/internal/database"
	"github.com/mauv0809/munitorum/internal/dates"
	"github.com/mauv0809/munitorum/internal/events"
	"github.com/mauv0809/munitorum/internal/games"
	"github.com/mauv0809/munitorum/internal/matches"
	"github.com/mauv0809/munitorum/internal/slotdays"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"DB_NAME":           "munitorum.db",
		"TZ":                "Europe/Paris",
		"SEED_TABLES":       "3",
		"SEED_DAYS":         "ven",
		"TURSO_PRIMARY_URL": "",
		"TURSO_AUTH_TOKEN":  "",
	}
	for key := range config {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			config[key] = value
		}
	}
	return config
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()
	ctx := context.Background()

	loc, err := time.LoadLocation(cfg["TZ"])
	if err != nil {
		log.Fatalf("Unknown timezone %s: %s", cfg["TZ"], err)
	}
	tables, err := strconv.Atoi(cfg["SEED_TABLES"])
	if err != nil || tables < 0 {
		log.Fatalf("Invalid SEED_TABLES %q", cfg["SEED_TABLES"])
	}

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer teardown()
	log.Info("Successfully connected to the database.")

	// Create dummy players to use in matches
	players := club.New(db)
	dummyPlayers := []string{"U_SEED_A", "U_SEED_B", "U_SEED_C", "U_SEED_D", "U_SEED_E", "U_SEED_F"}
	for i, id := range dummyPlayers {
		if _, err := players.UpsertPlayer(ctx, id, "Seeder Player "+string(rune('A'+i))); err != nil {
			log.Fatalf("Failed to insert dummy player %s: %s", id, err)
		}
	}
	log.Info("Ensured dummy players exist.", "count", len(dummyPlayers))

	days := slotdays.ParseInput(cfg["SEED_DAYS"])
	if len(days) == 0 {
		log.Fatalf("SEED_DAYS %q names no weekday", cfg["SEED_DAYS"])
	}
	policy := slotdays.New(db)
	if err := policy.Set(ctx, days); err != nil {
		log.Fatalf("Failed to store slot days: %s", err)
	}

	eventStore := events.New(db, loc)
	matchStore := matches.New(db, loc)
	catalog := games.Default().Active()
	startTime := time.Now()

	var slots, booked int
	for _, day := range dates.MonthDays(time.Now().In(loc)) {
		if !slotdays.IsSlotDay(day, days) {
			continue
		}
		slot, err := eventStore.Upsert(ctx, day, tables, false)
		if err != nil {
			log.Fatalf("Failed to seed slot %s: %s", dates.Key(day), err)
		}
		slots++

		// One match per table, each player at most once.
		order := rand.Perm(len(dummyPlayers))
		for t := 0; t < tables && 2*t+1 < len(order); t++ {
			m := &matches.Match{
				SlotID:   slot.ID,
				SlotDate: slot.Date,
				Player1:  dummyPlayers[order[2*t]],
				Player2:  dummyPlayers[order[2*t+1]],
				GameCode: catalog[rand.Intn(len(catalog))].Code,
			}
			err := matchStore.CreateIfNoConflict(ctx, m)
			if errors.Is(err, matches.ErrDuplicateParticipant) {
				continue
			}
			if err != nil {
				log.Fatalf("Failed to seed match on %s: %s", dates.Key(day), err)
			}
			booked++
		}
	}

	log.Info("Successfully seeded the month.", "slots", slots, "matches", booked, "duration", time.Since(startTime))
}
