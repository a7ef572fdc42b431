package data

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Provider is the read-only static game data seen by the world. Every
// lookup reports absence instead of failing.
type Provider interface {
	Object(lot int32) (ObjectRow, bool)
	Components(lot int32) []ComponentRow
	Destructible(id int32) (DestructibleRow, bool)
	Faction(faction int32) (FactionRow, bool)
	LootMatrix(index int32) []LootMatrixRow
	LootTable(index int32) []LootTableRow
	CurrencyTable(index int32) []CurrencyRow
	Skill(skillID uint32) (SkillRow, bool)
	ObjectSkills(lot int32) []ObjectSkillRow
	BehaviorTemplate(behaviorID uint32) (BehaviorTemplateRow, bool)
	BehaviorParameters(behaviorID uint32) []BehaviorParameterRow
	Script(id int32) (ScriptRow, bool)
	CombatAI(id int32) (CombatAIRow, bool)
	Zone(zoneID uint16) (ZoneRow, bool)
}

// GameData is the raw row set, one yaml file per field.
type GameData struct {
	Objects            []ObjectRow            `yaml:"objects"`
	Components         []ComponentRow         `yaml:"components"`
	Destructibles      []DestructibleRow      `yaml:"destructibles"`
	Factions           []FactionRow           `yaml:"factions"`
	LootMatrices       []LootMatrixRow        `yaml:"loot_matrices"`
	LootTables         []LootTableRow         `yaml:"loot_tables"`
	CurrencyTables     []CurrencyRow          `yaml:"currency_tables"`
	Skills             []SkillRow             `yaml:"skills"`
	ObjectSkills       []ObjectSkillRow       `yaml:"object_skills"`
	BehaviorTemplates  []BehaviorTemplateRow  `yaml:"behavior_templates"`
	BehaviorParameters []BehaviorParameterRow `yaml:"behavior_parameters"`
	Scripts            []ScriptRow            `yaml:"scripts"`
	CombatAI           []CombatAIRow          `yaml:"combat_ai"`
	Zones              []ZoneRow              `yaml:"zones"`
}

// Tables indexes GameData for lookups.
type Tables struct {
	objects       map[int32]ObjectRow
	components    map[int32][]ComponentRow
	destructibles map[int32]DestructibleRow
	factions      map[int32]FactionRow
	lootMatrices  map[int32][]LootMatrixRow
	lootTables    map[int32][]LootTableRow
	currency      map[int32][]CurrencyRow
	skills        map[uint32]SkillRow
	objectSkills  map[int32][]ObjectSkillRow
	templates     map[uint32]BehaviorTemplateRow
	parameters    map[uint32][]BehaviorParameterRow
	scripts       map[int32]ScriptRow
	combatAI      map[int32]CombatAIRow
	zones         map[uint16]ZoneRow
}

var _ Provider = (*Tables)(nil)

// tableFiles lists the yaml file loaded into each GameData field.
var tableFiles = []struct {
	name string
	load func(gd *GameData, raw []byte) error
}{
	{"objects.yaml", func(gd *GameData, raw []byte) error { return decode(raw, "objects", &gd.Objects) }},
	{"components.yaml", func(gd *GameData, raw []byte) error { return decode(raw, "components", &gd.Components) }},
	{"destructibles.yaml", func(gd *GameData, raw []byte) error { return decode(raw, "destructibles", &gd.Destructibles) }},
	{"factions.yaml", func(gd *GameData, raw []byte) error { return decode(raw, "factions", &gd.Factions) }},
	{"loot.yaml", func(gd *GameData, raw []byte) error {
		var f struct {
			Matrices []LootMatrixRow `yaml:"loot_matrices"`
			Tables   []LootTableRow  `yaml:"loot_tables"`
			Currency []CurrencyRow   `yaml:"currency_tables"`
		}
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return err
		}
		gd.LootMatrices, gd.LootTables, gd.CurrencyTables = f.Matrices, f.Tables, f.Currency
		return nil
	}},
	{"skills.yaml", func(gd *GameData, raw []byte) error {
		var f struct {
			Skills       []SkillRow       `yaml:"skills"`
			ObjectSkills []ObjectSkillRow `yaml:"object_skills"`
		}
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return err
		}
		gd.Skills, gd.ObjectSkills = f.Skills, f.ObjectSkills
		return nil
	}},
	{"behaviors.yaml", func(gd *GameData, raw []byte) error {
		var f struct {
			Templates  []BehaviorTemplateRow  `yaml:"behavior_templates"`
			Parameters []BehaviorParameterRow `yaml:"behavior_parameters"`
		}
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return err
		}
		gd.BehaviorTemplates, gd.BehaviorParameters = f.Templates, f.Parameters
		return nil
	}},
	{"scripts.yaml", func(gd *GameData, raw []byte) error { return decode(raw, "scripts", &gd.Scripts) }},
	{"combat_ai.yaml", func(gd *GameData, raw []byte) error { return decode(raw, "combat_ai", &gd.CombatAI) }},
	{"zones.yaml", func(gd *GameData, raw []byte) error { return decode(raw, "zones", &gd.Zones) }},
}

func decode[T any](raw []byte, key string, out *[]T) error {
	var f map[string][]T
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}
	*out = f[key]
	return nil
}

// LoadTables reads every table file present in dir. Missing files leave
// their table empty.
func LoadTables(dir string) (*Tables, error) {
	gd := &GameData{}
	for _, tf := range tableFiles {
		path := filepath.Join(dir, tf.name)
		raw, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", tf.name, err)
		}
		if err := tf.load(gd, raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", tf.name, err)
		}
	}
	return NewTables(gd), nil
}

// ParseGameData decodes a single yaml document holding every table.
func ParseGameData(raw []byte) (*GameData, error) {
	gd := &GameData{}
	if err := yaml.Unmarshal(raw, gd); err != nil {
		return nil, fmt.Errorf("parse game data: %w", err)
	}
	return gd, nil
}

func NewTables(gd *GameData) *Tables {
	t := &Tables{
		objects:       make(map[int32]ObjectRow, len(gd.Objects)),
		components:    make(map[int32][]ComponentRow),
		destructibles: make(map[int32]DestructibleRow, len(gd.Destructibles)),
		factions:      make(map[int32]FactionRow, len(gd.Factions)),
		lootMatrices:  make(map[int32][]LootMatrixRow),
		lootTables:    make(map[int32][]LootTableRow),
		currency:      make(map[int32][]CurrencyRow),
		skills:        make(map[uint32]SkillRow, len(gd.Skills)),
		objectSkills:  make(map[int32][]ObjectSkillRow),
		templates:     make(map[uint32]BehaviorTemplateRow, len(gd.BehaviorTemplates)),
		parameters:    make(map[uint32][]BehaviorParameterRow),
		scripts:       make(map[int32]ScriptRow, len(gd.Scripts)),
		combatAI:      make(map[int32]CombatAIRow, len(gd.CombatAI)),
		zones:         make(map[uint16]ZoneRow, len(gd.Zones)),
	}
	for _, r := range gd.Objects {
		t.objects[r.Lot] = r
	}
	for _, r := range gd.Components {
		t.components[r.Lot] = append(t.components[r.Lot], r)
	}
	for _, r := range gd.Destructibles {
		t.destructibles[r.ID] = r
	}
	for _, r := range gd.Factions {
		t.factions[r.Faction] = r
	}
	for _, r := range gd.LootMatrices {
		t.lootMatrices[r.Index] = append(t.lootMatrices[r.Index], r)
	}
	for _, r := range gd.LootTables {
		t.lootTables[r.Index] = append(t.lootTables[r.Index], r)
	}
	for _, r := range gd.CurrencyTables {
		t.currency[r.Index] = append(t.currency[r.Index], r)
	}
	for _, rows := range t.currency {
		sort.Slice(rows, func(i, j int) bool { return rows[i].NpcMinLevel < rows[j].NpcMinLevel })
	}
	for _, r := range gd.Skills {
		t.skills[r.SkillID] = r
	}
	for _, r := range gd.ObjectSkills {
		t.objectSkills[r.Lot] = append(t.objectSkills[r.Lot], r)
	}
	for _, r := range gd.BehaviorTemplates {
		t.templates[r.BehaviorID] = r
	}
	for _, r := range gd.BehaviorParameters {
		t.parameters[r.BehaviorID] = append(t.parameters[r.BehaviorID], r)
	}
	for _, r := range gd.Scripts {
		t.scripts[r.ID] = r
	}
	for _, r := range gd.CombatAI {
		t.combatAI[r.ID] = r
	}
	for _, r := range gd.Zones {
		t.zones[r.ZoneID] = r
	}
	return t
}

func (t *Tables) Object(lot int32) (ObjectRow, bool) {
	r, ok := t.objects[lot]
	return r, ok
}

func (t *Tables) Components(lot int32) []ComponentRow { return t.components[lot] }

func (t *Tables) Destructible(id int32) (DestructibleRow, bool) {
	r, ok := t.destructibles[id]
	return r, ok
}

func (t *Tables) Faction(faction int32) (FactionRow, bool) {
	r, ok := t.factions[faction]
	return r, ok
}

func (t *Tables) LootMatrix(index int32) []LootMatrixRow { return t.lootMatrices[index] }

func (t *Tables) LootTable(index int32) []LootTableRow { return t.lootTables[index] }

// CurrencyTable returns the rows of a currency table ordered by minimum level.
func (t *Tables) CurrencyTable(index int32) []CurrencyRow { return t.currency[index] }

func (t *Tables) Skill(skillID uint32) (SkillRow, bool) {
	r, ok := t.skills[skillID]
	return r, ok
}

func (t *Tables) ObjectSkills(lot int32) []ObjectSkillRow { return t.objectSkills[lot] }

func (t *Tables) BehaviorTemplate(behaviorID uint32) (BehaviorTemplateRow, bool) {
	r, ok := t.templates[behaviorID]
	return r, ok
}

func (t *Tables) BehaviorParameters(behaviorID uint32) []BehaviorParameterRow {
	return t.parameters[behaviorID]
}

func (t *Tables) Script(id int32) (ScriptRow, bool) {
	r, ok := t.scripts[id]
	return r, ok
}

func (t *Tables) CombatAI(id int32) (CombatAIRow, bool) {
	r, ok := t.combatAI[id]
	return r, ok
}

func (t *Tables) Zone(zoneID uint16) (ZoneRow, bool) {
	r, ok := t.zones[zoneID]
	return r, ok
}

// Counts reports row totals per table for the startup summary.
func (t *Tables) Counts() map[string]int {
	n := 0
	for _, rows := range t.components {
		n += len(rows)
	}
	return map[string]int{
		"objects":    len(t.objects),
		"components": n,
		"skills":     len(t.skills),
		"behaviors":  len(t.templates),
		"zones":      len(t.zones),
	}
}
