// Package config loads simulator scenarios from YAML.
//
// A scenario places chests, connects players and runs scripted commands at
// given ticks:
//
//	tick_rate: 50ms
//	ticks: 400
//	save: world.dat
//	chests:
//	  - pos: [0, 64, 0]
//	    type: crystal
//	    facing: south
//	    items:
//	      - {slot: 0, item: "minecraft:diamond", count: 3}
//	players:
//	  - {name: alice, pos: [1, 64, 1]}
//	actions:
//	  - {at: 20, run: "open alice 0 64 0"}
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-mclib/chests/pkg/chest"
	"github.com/go-mclib/chests/pkg/direction"
	"github.com/go-mclib/chests/pkg/item"
)

type Config struct {
	TickRate time.Duration `yaml:"tick_rate"`

	// Ticks stops the simulation after that many ticks; 0 runs until interrupted.
	Ticks int64  `yaml:"ticks"`
	Save  string `yaml:"save"`
	Load  string `yaml:"load"`

	Chests  []Chest           `yaml:"chests"`
	Players []Player          `yaml:"players"`
	Loot    map[string][]Loot `yaml:"loot"`
	Actions []Action          `yaml:"actions"`
}

type Chest struct {
	Pos       [3]int `yaml:"pos"`
	Type      string `yaml:"type"`
	Facing    string `yaml:"facing"`
	Name      string `yaml:"name"`
	LootTable string `yaml:"loot_table"`
	LootSeed  int64  `yaml:"loot_seed"`
	Items     []Item `yaml:"items"`
}

type Item struct {
	Slot  int    `yaml:"slot"`
	Item  string `yaml:"item"`
	Count int    `yaml:"count"`
}

type Player struct {
	Name      string     `yaml:"name"`
	Pos       [3]float64 `yaml:"pos"`
	Spectator bool       `yaml:"spectator"`
}

type Loot struct {
	Item string `yaml:"item"`
	Min  int    `yaml:"min"`
	Max  int    `yaml:"max"`
}

// Action runs a console command once the server reaches tick At.
type Action struct {
	At  int64  `yaml:"at"`
	Run string `yaml:"run"`
}

// Default returns an empty scenario at the vanilla tick rate.
func Default() Config {
	return Config{
		TickRate: 50 * time.Millisecond,
	}
}

// Parse decodes a scenario on top of Default and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the scenario at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate must be positive, got %v", c.TickRate))
	}
	if c.Ticks < 0 {
		errs = append(errs, fmt.Errorf("ticks must not be negative, got %d", c.Ticks))
	}

	for i, ch := range c.Chests {
		t, ok := chest.ParseType(ch.Type)
		if !ok {
			errs = append(errs, fmt.Errorf("chests[%d]: unknown type %q", i, ch.Type))
			continue
		}
		if ch.Facing != "" {
			if _, ok := direction.Parse(ch.Facing); !ok {
				errs = append(errs, fmt.Errorf("chests[%d]: unknown facing %q", i, ch.Facing))
			}
		}
		for j, it := range ch.Items {
			if it.Slot < 0 || it.Slot >= t.Capacity() {
				errs = append(errs, fmt.Errorf("chests[%d].items[%d]: slot %d outside [0, %d)", i, j, it.Slot, t.Capacity()))
			}
			if item.ID(it.Item) < 0 {
				errs = append(errs, fmt.Errorf("chests[%d].items[%d]: unknown item %q", i, j, it.Item))
			}
		}
	}

	names := make(map[string]bool, len(c.Players))
	for i, p := range c.Players {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("players[%d]: missing name", i))
		}
		if names[p.Name] {
			errs = append(errs, fmt.Errorf("players[%d]: duplicate name %q", i, p.Name))
		}
		names[p.Name] = true
	}

	for name, entries := range c.Loot {
		for i, e := range entries {
			if item.ID(e.Item) < 0 {
				errs = append(errs, fmt.Errorf("loot %s[%d]: unknown item %q", name, i, e.Item))
			}
			if e.Min < 0 || e.Max < e.Min {
				errs = append(errs, fmt.Errorf("loot %s[%d]: bad range [%d, %d]", name, i, e.Min, e.Max))
			}
		}
	}

	for i, a := range c.Actions {
		if a.At < 0 {
			errs = append(errs, fmt.Errorf("actions[%d]: negative tick %d", i, a.At))
		}
		if a.Run == "" {
			errs = append(errs, fmt.Errorf("actions[%d]: empty command", i))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
