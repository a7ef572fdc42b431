package data

// LootMatrixRow is one roll of a loot matrix. Percent is in [0,1].
type LootMatrixRow struct {
	Index          int32   `yaml:"index"`
	LootTableIndex int32   `yaml:"loot_table_index"`
	Percent        float32 `yaml:"percent"`
	MinToDrop      int32   `yaml:"min_to_drop"`
	MaxToDrop      int32   `yaml:"max_to_drop"`
}

// LootTableRow is one candidate item of a loot table.
type LootTableRow struct {
	Index       int32 `yaml:"index"`
	Lot         int32 `yaml:"lot"`
	MissionDrop bool  `yaml:"mission_drop"`
}

// CurrencyRow is a currency drop range for smashables at or above NpcMinLevel.
type CurrencyRow struct {
	Index       int32 `yaml:"index"`
	NpcMinLevel int32 `yaml:"npc_min_level"`
	MinValue    int32 `yaml:"min_value"`
	MaxValue    int32 `yaml:"max_value"`
}
