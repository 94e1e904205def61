// Package games is the catalog of activities a match can be booked for.
package games

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/textnorm"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrUnknownGame is returned when an input matches no active game.
var ErrUnknownGame = errors.New("games: unknown game")

// Game is one bookable activity.
type Game struct {
	Code    string   `toml:"code"`
	Label   string   `toml:"label"`
	Aliases []string `toml:"aliases"`
	Active  bool     `toml:"active"`
}

type catalogFile struct {
	Games []Game `toml:"game"`
}

// Catalog resolves free text to a game. The lookup tables are built once.
type Catalog struct {
	games  []Game
	exact  map[string]Game
	folded map[string]Game
}

// DefaultGames is used when no catalog file is configured.
var DefaultGames = []Game{
	{Code: "W40K", Label: "40k", Aliases: []string{"w40k", "wh40k", "warhammer 40k", "warhammer 40000"}, Active: true},
	{Code: "AOS", Label: "AoS", Aliases: []string{"age of sigmar"}, Active: true},
	{Code: "KILLTEAM", Label: "Kill Team", Aliases: []string{"killteam", "kt"}, Active: true},
	{Code: "AUTRE", Label: "Autre", Aliases: []string{"other"}, Active: true},
}

// NewCatalog indexes games. Inactive games are kept for display of old
// matches but never resolved from input. When two games claim the same key
// the first one wins, and codes beat labels which beat aliases.
func NewCatalog(games []Game) *Catalog {
	c := &Catalog{
		games:  append([]Game(nil), games...),
		exact:  make(map[string]Game),
		folded: make(map[string]Game),
	}

	add := func(m map[string]Game, key string, g Game) {
		if key == "" {
			return
		}
		if _, taken := m[key]; taken {
			return
		}
		m[key] = g
	}

	active := c.Active()
	for _, g := range active {
		add(c.exact, g.Code, g)
	}
	for _, g := range active {
		add(c.exact, g.Label, g)
	}
	for _, g := range active {
		add(c.folded, textnorm.Fold(g.Code), g)
	}
	for _, g := range active {
		add(c.folded, textnorm.Fold(g.Label), g)
	}
	for _, g := range active {
		for _, alias := range g.Aliases {
			add(c.folded, textnorm.Fold(alias), g)
		}
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return NewCatalog(DefaultGames)
}

// LoadFile reads a catalog from a TOML file made of [[game]] tables.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game catalog: %w", err)
	}
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse game catalog %s: %w", path, err)
	}
	if len(file.Games) == 0 {
		return nil, fmt.Errorf("game catalog %s declares no game", path)
	}
	log.Info("Loaded game catalog", "path", path, "games", len(file.Games))
	return NewCatalog(file.Games), nil
}

// Resolve finds the active game matching input, first by exact code or label,
// then ignoring case and accents on codes, labels and aliases.
func (c *Catalog) Resolve(input string) (Game, error) {
	if g, ok := c.exact[input]; ok {
		return g, nil
	}
	if g, ok := c.folded[textnorm.Fold(input)]; ok {
		return g, nil
	}
	return Game{}, fmt.Errorf("%q: %w", input, ErrUnknownGame)
}

// Lookup returns a game by code, active or not.
func (c *Catalog) Lookup(code string) (Game, bool) {
	for _, g := range c.games {
		if g.Code == code {
			return g, true
		}
	}
	return Game{}, false
}

// Label returns the display label of code, or code itself for unknown games.
func (c *Catalog) Label(code string) string {
	if g, ok := c.Lookup(code); ok {
		return g.Label
	}
	return code
}

// Active lists active games sorted by label using French collation.
func (c *Catalog) Active() []Game {
	var active []Game
	for _, g := range c.games {
		if g.Active {
			active = append(active, g)
		}
	}
	col := collate.New(language.French, collate.IgnoreCase)
	sort.SliceStable(active, func(i, j int) bool {
		return col.CompareString(active[i].Label, active[j].Label) < 0
	})
	return active
}
