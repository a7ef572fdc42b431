package data

// SkillRow is a castable skill and the root of its behavior tree.
type SkillRow struct {
	SkillID         uint32  `yaml:"skill_id"`
	BehaviorID      uint32  `yaml:"behavior_id"`
	ImaginationCost int32   `yaml:"imagination_cost"`
	Cooldown        float32 `yaml:"cooldown"` // seconds
	MinRange        float32 `yaml:"min_range"`
	MaxRange        float32 `yaml:"max_range"`
}

// ObjectSkillRow grants a skill to an object template.
type ObjectSkillRow struct {
	Lot            int32  `yaml:"lot"`
	SkillID        uint32 `yaml:"skill_id"`
	AICombatWeight int32  `yaml:"ai_combat_weight"`
}

// BehaviorTemplateRow maps a behavior id to its node kind.
type BehaviorTemplateRow struct {
	BehaviorID uint32 `yaml:"behavior_id"`
	TemplateID uint32 `yaml:"template_id"`
	EffectID   int32  `yaml:"effect_id"`
}

// BehaviorParameterRow is one named numeric parameter of a behavior.
type BehaviorParameterRow struct {
	BehaviorID uint32  `yaml:"behavior_id"`
	Parameter  string  `yaml:"parameter"`
	Value      float32 `yaml:"value"`
}
