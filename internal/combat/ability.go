package combat

import (
	"fmt"
	"math"
	"slices"

	"TextRPG/internal/event"
	"TextRPG/internal/property"
)

const (
	AbilityBasicAttack  = "basic_attack"
	AbilityMagicMissile = "magic_missile"
	AbilityBasicHeal    = "basic_heal"
	AbilityRest         = "rest"
	AbilityRevive       = "revive"
)

// innate 是所有角色都会的技能。
var innate = []string{AbilityBasicAttack}

// TargetRule 约束技能可选的目标。
type TargetRule uint8

const (
	TargetEnemy TargetRule = iota + 1
	TargetSelf
	TargetAlly
	TargetDeadAlly
)

func (t TargetRule) String() string {
	switch t {
	case TargetEnemy:
		return "enemy"
	case TargetSelf:
		return "self"
	case TargetAlly:
		return "ally"
	case TargetDeadAlly:
		return "dead_ally"
	default:
		return fmt.Sprintf("target(%d)", uint8(t))
	}
}

type Ability struct {
	ID          string
	Name        string
	Description string
	Cost        int
	Cooldown    int
	Target      TargetRule
	Effect      Effect
}

// Effect 是技能效果的封闭集合：Damage / Heal / RestoreEnergy / Revive。
type Effect interface {
	resolve(actor, target property.Snapshot, rules Rules) (event.Kind, int, event.DamageType)
}

// Damage 计算 floor(Base + Factor·value(Scale))；FromAttack 时以攻击力为基数。
// 不忽略防御时减去 floor(defense·DefenseReduction)，结果不低于 MinDamage。
type Damage struct {
	FromAttack    bool
	Base          int
	Scale         string
	Factor        float64
	Type          event.DamageType
	IgnoreDefense bool
}

func (d Damage) resolve(actor, target property.Snapshot, rules Rules) (event.Kind, int, event.DamageType) {
	raw := d.Base
	if d.FromAttack {
		raw += actor.Value(property.AttackPower)
	}
	if d.Scale != "" {
		raw += int(math.Floor(d.Factor * float64(actor.Value(d.Scale))))
	}
	if !d.IgnoreDefense && d.Type != event.DamageTrue {
		raw -= int(math.Floor(float64(target.Value(property.Defense)) * rules.DefenseReduction))
	}
	return event.KindDamageTaken, max(rules.MinDamage, raw), d.Type
}

// Heal 计算 floor(Base + Factor·value(Scale))。
type Heal struct {
	Base   int
	Scale  string
	Factor float64
}

func (h Heal) resolve(actor, _ property.Snapshot, _ Rules) (event.Kind, int, event.DamageType) {
	amount := h.Base
	if h.Scale != "" {
		amount += int(math.Floor(h.Factor * float64(actor.Value(h.Scale))))
	}
	return event.KindHealed, max(0, amount), ""
}

// RestoreEnergy 按最大能量的百分比回复，至少 Min 点。
type RestoreEnergy struct {
	Percent float64
	Min     int
}

func (r RestoreEnergy) resolve(_, target property.Snapshot, _ Rules) (event.Kind, int, event.DamageType) {
	amount := int(math.Floor(float64(target.Value(property.MaxEnergy)) * r.Percent))
	return event.KindEnergyRestored, max(r.Min, amount), ""
}

// Revive 按目标最大生命的百分比复活，至少 1 点。
type Revive struct {
	Percent float64
}

func (r Revive) resolve(_, target property.Snapshot, _ Rules) (event.Kind, int, event.DamageType) {
	amount := int(math.Floor(float64(target.Value(property.MaxHealth)) * r.Percent))
	return event.KindRevived, max(1, amount), ""
}

// Registry 是技能表，按注册顺序保存。
type Registry struct {
	abilities map[string]Ability
	order     []string
}

func NewRegistry(abilities ...Ability) (*Registry, error) {
	r := &Registry{abilities: make(map[string]Ability, len(abilities))}
	for _, a := range abilities {
		if a.ID == "" || a.Effect == nil {
			return nil, fmt.Errorf("ability %q: id and effect are required", a.ID)
		}
		if _, dup := r.abilities[a.ID]; dup {
			return nil, fmt.Errorf("ability %q registered twice", a.ID)
		}
		r.abilities[a.ID] = a
		r.order = append(r.order, a.ID)
	}
	return r, nil
}

func (r *Registry) Get(id string) (Ability, bool) {
	if r == nil {
		return Ability{}, false
	}
	a, ok := r.abilities[id]
	return a, ok
}

func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.order)
}

// Builtin 返回内置技能表。
func Builtin() *Registry {
	r, err := NewRegistry(
		Ability{
			ID: AbilityBasicAttack, Name: "攻击", Description: "普通攻击，受目标防御减免",
			Cost: 5, Target: TargetEnemy,
			Effect: Damage{FromAttack: true, Type: event.DamagePhysical},
		},
		Ability{
			ID: AbilityMagicMissile, Name: "火焰飞弹", Description: "火属性魔法伤害，无视防御",
			Cost: 5, Cooldown: 1, Target: TargetEnemy,
			Effect: Damage{Base: 10, Scale: property.Intelligence, Factor: 0.5, Type: event.DamageFire, IgnoreDefense: true},
		},
		Ability{
			ID: AbilityBasicHeal, Name: "治疗", Description: "治疗自己或队友",
			Cost: 10, Cooldown: 2, Target: TargetAlly,
			Effect: Heal{Base: 15, Scale: property.Intelligence, Factor: 0.5},
		},
		Ability{
			ID: AbilityRest, Name: "休息", Description: "休息，回复 30% 最大能量",
			Cost: 0, Cooldown: 2, Target: TargetSelf,
			Effect: RestoreEnergy{Percent: 0.3, Min: 1},
		},
		Ability{
			ID: AbilityRevive, Name: "复活", Description: "复活倒下的队友，回复 25% 最大生命",
			Cost: 20, Cooldown: 3, Target: TargetDeadAlly,
			Effect: Revive{Percent: 0.25},
		},
	)
	if err != nil {
		panic(err)
	}
	return r
}
