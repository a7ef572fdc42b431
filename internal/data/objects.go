package data

// ObjectRow is the static description of an object template (LOT).
type ObjectRow struct {
	Lot         int32  `yaml:"lot"`
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	DisplayName string `yaml:"display_name,omitempty"`
}

// ComponentRow binds a component kind, and the row id in that kind's own
// table, to an object template.
type ComponentRow struct {
	Lot           int32 `yaml:"lot"`
	ComponentType int32 `yaml:"component_type"`
	ComponentID   int32 `yaml:"component_id"`
}

// ScriptRow names the server and client scripts of a script component.
type ScriptRow struct {
	ID           int32  `yaml:"id"`
	ServerScript string `yaml:"server_script"`
	ClientScript string `yaml:"client_script,omitempty"`
}

// CombatAIRow configures a base combat AI component.
type CombatAIRow struct {
	ID                int32   `yaml:"id"`
	AggroRadius       float32 `yaml:"aggro_radius"`
	TetherRadius      float32 `yaml:"tether_radius"`
	CombatRoundLength float32 `yaml:"combat_round_length"` // seconds
	SpawnTimer        float32 `yaml:"spawn_timer"`
}

// ZoneRow describes a playable zone.
type ZoneRow struct {
	ZoneID        uint16  `yaml:"zone_id"`
	Name          string  `yaml:"name"`
	Level         string  `yaml:"level"` // level file, relative to the level dir
	GhostDistance float32 `yaml:"ghost_distance"`
}
