// Package catalog provides read-only access to the offline card database and
// the named deck lists stored beside it. The game core only ever holds
// catalog references; display content lives here and is never mutated by
// gameplay.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// CardInfo is the catalog record for one card.
type CardInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Set        string `json:"set"`
	Type       string `json:"type"`
	Image      string `json:"image"`
	ManaCost   string `json:"mana_cost"`
	OracleText string `json:"oracle_text"`
	Power      string `json:"power"`
	Toughness  string `json:"toughness"`
}

// Catalog is an in-memory card database loaded from a JSON file keyed by
// normalized card id.
type Catalog struct {
	cards  map[string]CardInfo
	logger *zap.Logger
}

// Load reads the card database file. A missing file yields an empty catalog
// rather than an error: the server runs fine with unresolvable cards, they
// just render by id.
func Load(path string, logger *zap.Logger) (*Catalog, error) {
	c := &Catalog{
		cards:  make(map[string]CardInfo),
		logger: logger,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("card database not found, running with empty catalog",
				zap.String("path", path),
			)
			return c, nil
		}
		return nil, fmt.Errorf("failed to read card database: %w", err)
	}
	if err := json.Unmarshal(data, &c.cards); err != nil {
		return nil, fmt.Errorf("failed to parse card database: %w", err)
	}
	for id, info := range c.cards {
		if info.ID == "" {
			info.ID = id
			c.cards[id] = info
		}
	}
	logger.Info("card database loaded",
		zap.String("path", path),
		zap.Int("cards", len(c.cards)),
	)
	return c, nil
}

// Lookup returns the catalog record for a card id.
func (c *Catalog) Lookup(cardID string) (CardInfo, bool) {
	info, ok := c.cards[cardID]
	return info, ok
}

// FindByName returns the catalog id for a display name, case-insensitively.
func (c *Catalog) FindByName(name string) (string, bool) {
	target := strings.ToLower(name)
	for id, info := range c.cards {
		if strings.ToLower(info.Name) == target {
			return id, true
		}
	}
	return "", false
}

// Size returns the number of catalog entries.
func (c *Catalog) Size() int {
	return len(c.cards)
}

var (
	strippedChars = regexp.MustCompile(`[',]`)
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]`)
	underscoreRun = regexp.MustCompile(`_+`)
)

// NormalizeID turns a display name into its canonical catalog id, e.g.
// "Lightning Bolt" -> "lightning_bolt".
func NormalizeID(name string) string {
	normalized := strippedChars.ReplaceAllString(strings.ToLower(name), "")
	normalized = nonAlnum.ReplaceAllString(normalized, "_")
	normalized = underscoreRun.ReplaceAllString(normalized, "_")
	return strings.Trim(normalized, "_")
}

// NameFromID reconstructs a readable name from a catalog id, used when the
// database has no record for it.
func NameFromID(cardID string) string {
	parts := strings.Split(cardID, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
