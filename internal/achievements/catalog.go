// Package achievements holds the achievement catalog and the pure rule evaluator.
package achievements

import (
	_ "embed" // default catalog
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aimd54/questforge/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Achievement categories.
const (
	CategoryProgression = "progression"
	CategoryConsistency = "consistency"
	CategoryMastery     = "mastery"
	CategorySocial      = "social"
	CategorySpecial     = "special"
)

// Tiers in ascending rank.
var Tiers = []string{"bronze", "silver", "gold", "platinum", "legendary"}

var categories = map[string]bool{
	CategoryProgression: true,
	CategoryConsistency: true,
	CategoryMastery:     true,
	CategorySocial:      true,
	CategorySpecial:     true,
}

// Criterion is one threshold an achievement requires.
type Criterion struct {
	Metric   string  `yaml:"metric" json:"metric"`
	Operator string  `yaml:"operator" json:"operator"`
	Value    float64 `yaml:"value" json:"value"`
}

// StatBonus is granted alongside an achievement's XP reward.
type StatBonus struct {
	Type   string `yaml:"type" json:"type"`
	Amount int    `yaml:"amount" json:"amount"`
}

// Achievement is a catalog entry.
type Achievement struct {
	Key          string      `yaml:"key" json:"key"`
	Title        string      `yaml:"title" json:"title"`
	Description  string      `yaml:"description" json:"description"`
	Icon         string      `yaml:"icon" json:"icon"`
	Category     string      `yaml:"category" json:"category"`
	Tier         string      `yaml:"tier" json:"tier"`
	XPReward     int         `yaml:"xp_reward" json:"xp_reward"`
	StatBonus    *StatBonus  `yaml:"stat_bonus,omitempty" json:"stat_bonus,omitempty"`
	IsHidden     bool        `yaml:"is_hidden" json:"is_hidden"`
	DisplayOrder int         `yaml:"display_order" json:"display_order"`
	Criteria     []Criterion `yaml:"criteria" json:"criteria,omitempty"`
}

// Masked returns the public view of a hidden, still-locked achievement.
func (a Achievement) Masked() Achievement {
	return Achievement{
		Key:          a.Key,
		Title:        "???",
		Description:  "A hidden achievement. Keep questing to discover it.",
		Icon:         "❓",
		Category:     a.Category,
		Tier:         a.Tier,
		IsHidden:     true,
		DisplayOrder: a.DisplayOrder,
	}
}

// TierRank returns the position of tier in Tiers, or -1.
func TierRank(tier string) int {
	for i, t := range Tiers {
		if t == tier {
			return i
		}
	}
	return -1
}

// Catalog is an immutable, ordered set of achievements.
type Catalog struct {
	Version      int           `yaml:"version"`
	Achievements []Achievement `yaml:"achievements"`

	byKey map[string]int
}

// LoadCatalog reads the catalog at path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read achievement catalog: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded achievement catalog is invalid: %v", err))
	}
	return c
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse achievement catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid achievement catalog: %w", err)
	}

	sort.SliceStable(c.Achievements, func(i, j int) bool {
		return c.Achievements[i].DisplayOrder < c.Achievements[j].DisplayOrder
	})
	c.byKey = make(map[string]int, len(c.Achievements))
	for i, a := range c.Achievements {
		c.byKey[a.Key] = i
	}

	return &c, nil
}

func (c *Catalog) validate() error {
	if c.Version < 1 {
		return fmt.Errorf("version must be at least 1")
	}

	seen := make(map[string]bool, len(c.Achievements))
	for _, a := range c.Achievements {
		if a.Key == "" {
			return fmt.Errorf("achievement with empty key")
		}
		if seen[a.Key] {
			return fmt.Errorf("duplicate achievement key %q", a.Key)
		}
		seen[a.Key] = true

		if !categories[a.Category] {
			return fmt.Errorf("achievement %q: unknown category %q", a.Key, a.Category)
		}
		if TierRank(a.Tier) < 0 {
			return fmt.Errorf("achievement %q: unknown tier %q", a.Key, a.Tier)
		}
		if a.XPReward < 0 {
			return fmt.Errorf("achievement %q: negative xp_reward", a.Key)
		}
		if a.StatBonus != nil && (!models.IsValidStat(a.StatBonus.Type) || a.StatBonus.Amount <= 0) {
			return fmt.Errorf("achievement %q: invalid stat_bonus", a.Key)
		}
		if len(a.Criteria) == 0 {
			return fmt.Errorf("achievement %q: no criteria", a.Key)
		}
		for _, cr := range a.Criteria {
			if !IsKnownMetric(cr.Metric) {
				return fmt.Errorf("achievement %q: unknown metric %q", a.Key, cr.Metric)
			}
		}
	}
	return nil
}

// All returns every achievement in display order.
func (c *Catalog) All() []Achievement {
	out := make([]Achievement, len(c.Achievements))
	copy(out, c.Achievements)
	return out
}

// Get returns the achievement for key.
func (c *Catalog) Get(key string) (Achievement, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Achievement{}, false
	}
	return c.Achievements[i], true
}

// Len returns the number of achievements.
func (c *Catalog) Len() int {
	return len(c.Achievements)
}
