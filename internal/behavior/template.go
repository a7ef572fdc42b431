package behavior

import "strconv"

// TemplateID is the kind of a behavior node, as stored in the behavior
// template table.
type TemplateID uint32

const (
	TemplateEmpty             TemplateID = 0
	TemplateBasicAttack       TemplateID = 1
	TemplateTacArc            TemplateID = 2
	TemplateAnd               TemplateID = 3
	TemplateProjectileAttack  TemplateID = 4
	TemplateHeal              TemplateID = 5
	TemplateMovementSwitch    TemplateID = 6
	TemplateAreaOfEffect      TemplateID = 7
	TemplatePlayEffect        TemplateID = 8
	TemplateImagination       TemplateID = 13
	TemplateTargetCaster      TemplateID = 14
	TemplateStun              TemplateID = 15
	TemplateDuration          TemplateID = 16
	TemplateKnockback         TemplateID = 17
	TemplateAttackDelay       TemplateID = 18
	TemplateRepairArmor       TemplateID = 22
	TemplateSwitch            TemplateID = 29
	TemplateSkillCastFailed   TemplateID = 34
	TemplateChangeIdleFlags   TemplateID = 36
	TemplateApplyBuff         TemplateID = 37
	TemplateChain             TemplateID = 38
	TemplateChangeOrientation TemplateID = 39
	TemplateForceMovement     TemplateID = 40
	TemplateInterrupt         TemplateID = 41
	TemplateAlterCooldown     TemplateID = 42
	TemplateChargeUp          TemplateID = 43
	TemplateSwitchMultiple    TemplateID = 44
	TemplateStart             TemplateID = 45
	TemplateEnd               TemplateID = 46
	TemplateAirMovement       TemplateID = 56
	TemplateClearTarget       TemplateID = 62
)

var templateNames = map[TemplateID]string{
	TemplateEmpty:             "Empty",
	TemplateBasicAttack:       "BasicAttack",
	TemplateTacArc:            "TacArc",
	TemplateAnd:               "And",
	TemplateProjectileAttack:  "ProjectileAttack",
	TemplateHeal:              "Heal",
	TemplateMovementSwitch:    "MovementSwitch",
	TemplateAreaOfEffect:      "AreaOfEffect",
	TemplatePlayEffect:        "PlayEffect",
	TemplateImagination:       "Imagination",
	TemplateTargetCaster:      "TargetCaster",
	TemplateStun:              "Stun",
	TemplateDuration:          "Duration",
	TemplateKnockback:         "Knockback",
	TemplateAttackDelay:       "AttackDelay",
	TemplateRepairArmor:       "RepairArmor",
	TemplateSwitch:            "Switch",
	TemplateSkillCastFailed:   "SkillCastFailed",
	TemplateChangeIdleFlags:   "ChangeIdleFlags",
	TemplateApplyBuff:         "ApplyBuff",
	TemplateChain:             "Chain",
	TemplateChangeOrientation: "ChangeOrientation",
	TemplateForceMovement:     "ForceMovement",
	TemplateInterrupt:         "Interrupt",
	TemplateAlterCooldown:     "AlterCooldown",
	TemplateChargeUp:          "ChargeUp",
	TemplateSwitchMultiple:    "SwitchMultiple",
	TemplateStart:             "Start",
	TemplateEnd:               "End",
	TemplateAirMovement:       "AirMovement",
	TemplateClearTarget:       "ClearTarget",
}

func (t TemplateID) String() string {
	if n, ok := templateNames[t]; ok {
		return n
	}
	return "Template(" + strconv.FormatUint(uint64(t), 10) + ")"
}

// templates maps every implemented template to its node constructor.
var templates map[TemplateID]func() Node

func init() {
	templates = map[TemplateID]func() Node{
		TemplateEmpty:             func() Node { return &empty{} },
		TemplateBasicAttack:       func() Node { return &basicAttack{} },
		TemplateTacArc:            func() Node { return &tacArc{} },
		TemplateAnd:               func() Node { return &and{} },
		TemplateProjectileAttack:  func() Node { return &projectileAttack{} },
		TemplateHeal:              func() Node { return &heal{} },
		TemplateMovementSwitch:    func() Node { return &movementSwitch{} },
		TemplateAreaOfEffect:      func() Node { return &areaOfEffect{} },
		TemplatePlayEffect:        func() Node { return &playEffect{} },
		TemplateImagination:       func() Node { return &imagination{} },
		TemplateTargetCaster:      func() Node { return &targetCaster{} },
		TemplateStun:              func() Node { return &stun{} },
		TemplateDuration:          func() Node { return &duration{} },
		TemplateKnockback:         func() Node { return &knockback{} },
		TemplateAttackDelay:       func() Node { return &attackDelay{} },
		TemplateRepairArmor:       func() Node { return &repairArmor{} },
		TemplateSwitch:            func() Node { return &switchNode{} },
		TemplateSkillCastFailed:   func() Node { return &skillCastFailed{} },
		TemplateChangeIdleFlags:   func() Node { return &changeIdleFlags{} },
		TemplateApplyBuff:         func() Node { return &applyBuff{} },
		TemplateChain:             func() Node { return &chain{} },
		TemplateChangeOrientation: func() Node { return &changeOrientation{} },
		TemplateForceMovement:     func() Node { return &forceMovement{} },
		TemplateInterrupt:         func() Node { return &interrupt{} },
		TemplateAlterCooldown:     func() Node { return &alterCooldown{} },
		TemplateChargeUp:          func() Node { return &chargeUp{} },
		TemplateSwitchMultiple:    func() Node { return &switchMultiple{} },
		TemplateStart:             func() Node { return &start{} },
		TemplateEnd:               func() Node { return &end{} },
		TemplateAirMovement:       func() Node { return &airMovement{} },
		TemplateClearTarget:       func() Node { return &clearTarget{} },
	}
}
