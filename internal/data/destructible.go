package data

// DestructibleRow holds the base stats and loot references of a
// destructible component.
type DestructibleRow struct {
	ID              int32 `yaml:"id"`
	Life            int32 `yaml:"life"`
	Armor           int32 `yaml:"armor"`
	Imagination     int32 `yaml:"imagination"`
	Faction         int32 `yaml:"faction"`
	Level           int32 `yaml:"level"`
	IsSmashable     bool  `yaml:"is_smashable"`
	LootMatrixIndex int32 `yaml:"loot_matrix_index"`
	CurrencyIndex   int32 `yaml:"currency_index"`
}

// FactionRow lists the enemy and friend factions of a faction.
type FactionRow struct {
	Faction int32   `yaml:"faction"`
	Enemies []int32 `yaml:"enemies"`
	Friends []int32 `yaml:"friends"`
}
