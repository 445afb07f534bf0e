package battle

import (
	"TextRPG/internal/combat"
	"TextRPG/internal/property"
	"TextRPG/internal/shared/utils"
)

// Decision 是非玩家角色的一手选择；Wait 为 true 时跳过回合。
type Decision struct {
	Ability string
	Target  utils.ID
	Wait    bool
}

// Policy 为怪物选择动作。策略本身可替换，默认实现只做最简单的选择。
type Policy interface {
	Decide(self combat.Combatant, allies, enemies []combat.Combatant, rules combat.Rules) Decision
}

// DefaultPolicy 攻击第一个存活的敌人；能量不够时休息，休息也不可用时跳过。
type DefaultPolicy struct{}

func (DefaultPolicy) Decide(self combat.Combatant, _, enemies []combat.Combatant, rules combat.Rules) Decision {
	var target *combat.Combatant
	for i := range enemies {
		if enemies[i].Alive {
			target = &enemies[i]
			break
		}
	}
	if target == nil {
		return Decision{Wait: true}
	}
	energy := self.Snapshot.Value(property.Energy)
	if atk, ok := rules.Abilities.Get(combat.AbilityBasicAttack); ok && energy >= atk.Cost {
		return Decision{Ability: combat.AbilityBasicAttack, Target: target.ID}
	}
	if self.Knows(combat.AbilityRest) && self.Cooldowns[combat.AbilityRest] == 0 {
		return Decision{Ability: combat.AbilityRest, Target: self.ID}
	}
	return Decision{Wait: true}
}
