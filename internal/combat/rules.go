package combat

import "TextRPG/internal/shared/config"

// Rules 是战斗结算的全局参数。
type Rules struct {
	MinDamage        int
	DefenseReduction float64
	Abilities        *Registry
}

func DefaultRules() Rules {
	return Rules{MinDamage: 1, DefenseReduction: 0.5, Abilities: Builtin()}
}

func RulesFromConfig(cfg config.CombatConfig, reg *Registry) Rules {
	if reg == nil {
		reg = Builtin()
	}
	return Rules{
		MinDamage:        max(0, cfg.MinDamage),
		DefenseReduction: cfg.DefenseReductionFactor,
		Abilities:        reg,
	}
}
