package combat

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"TextRPG/internal/character"
	"TextRPG/internal/event"
	"TextRPG/internal/property"
	"TextRPG/internal/shared/utils"
)

// Combatant 是结算时看到的角色只读视图。
type Combatant struct {
	ID        utils.ID
	Name      string
	Side      character.Variant
	Alive     bool
	Snapshot  property.Snapshot
	Abilities []string
	Cooldowns map[string]int
}

// Observe 在结算前为角色拍一张快照。
func Observe(c *character.Character, cd *Cooldowns) Combatant {
	return Combatant{
		ID:        c.ID(),
		Name:      c.Name(),
		Side:      c.Variant(),
		Alive:     c.Alive(),
		Snapshot:  c.Snapshot(),
		Abilities: c.Abilities(),
		Cooldowns: cd.For(c.ID()),
	}
}

func (c Combatant) Knows(ability string) bool {
	return slices.Contains(innate, ability) || slices.Contains(c.Abilities, ability)
}

// Request 是一次技能使用请求；At 作为事件时间戳，保持 Resolve 无副作用。
type Request struct {
	Ability string
	At      time.Time
}

// Outcome 要么是拒绝，要么是一组意图中的修改事件。
type Outcome struct {
	Refusal Refusal
	Events  []event.CombatEvent
}

func (o Outcome) Refused() bool { return o.Refusal.Refused() }

func refused(r Reason, detail string) Outcome {
	return Outcome{Refusal: Refuse(r, detail)}
}

// Resolve 只读两份快照，先完成全部校验，再计算意图事件：
// ability_used、energy_spent（消耗大于 0 时）、效果事件。
func Resolve(actor, target Combatant, req Request, rules Rules) Outcome {
	if !actor.Alive {
		return refused(ReasonActorDead, actor.Name)
	}
	ab, ok := rules.Abilities.Get(req.Ability)
	if !ok {
		return refused(ReasonUnknownAbility, req.Ability)
	}
	if !actor.Knows(ab.ID) {
		return refused(ReasonAbilityNotKnown, ab.ID)
	}
	if left := actor.Cooldowns[ab.ID]; left > 0 {
		return refused(ReasonOnCooldown, fmt.Sprintf("%s 还需 %d 回合", ab.ID, left))
	}
	if o, bad := checkTarget(ab.Target, actor, target); bad {
		return o
	}
	if have := actor.Snapshot.Value(property.Energy); have < ab.Cost {
		return refused(ReasonInsufficientEnergy, fmt.Sprintf("需要 %d，当前 %d", ab.Cost, have))
	}

	kind, amount, dt := ab.Effect.resolve(actor.Snapshot, target.Snapshot, rules)
	events := make([]event.CombatEvent, 0, 3)
	events = append(events, event.NewCombatEvent(event.KindAbilityUsed, actor.ID, target.ID, 0, req.At, event.WithAbility(ab.ID)))
	if ab.Cost > 0 {
		events = append(events, event.NewCombatEvent(event.KindEnergySpent, actor.ID, actor.ID, ab.Cost, req.At, event.WithAbility(ab.ID)))
	}
	opts := []event.CombatOption{event.WithAbility(ab.ID)}
	if dt != "" {
		opts = append(opts, event.WithDamageType(dt))
	}
	events = append(events, event.NewCombatEvent(kind, actor.ID, target.ID, amount, req.At, opts...))
	return Outcome{Events: events}
}

func checkTarget(rule TargetRule, actor, target Combatant) (Outcome, bool) {
	switch rule {
	case TargetEnemy:
		if target.Side == actor.Side {
			return refused(ReasonInvalidTarget, "需要敌方目标"), true
		}
		if !target.Alive {
			return refused(ReasonTargetDead, target.Name), true
		}
	case TargetSelf:
		if target.ID != actor.ID {
			return refused(ReasonInvalidTarget, "只能对自己使用"), true
		}
	case TargetAlly:
		if target.Side != actor.Side {
			return refused(ReasonInvalidTarget, "需要友方目标"), true
		}
		if !target.Alive {
			return refused(ReasonTargetDead, target.Name), true
		}
	case TargetDeadAlly:
		if target.Side != actor.Side || target.ID == actor.ID {
			return refused(ReasonInvalidTarget, "需要倒下的队友"), true
		}
		if target.Alive {
			return refused(ReasonTargetAlive, target.Name), true
		}
	default:
		return refused(ReasonInvalidTarget, rule.String()), true
	}
	return Outcome{}, false
}

// Regenerate 计算回合末的被动回复：只对存活角色、只补到上限。
func Regenerate(c Combatant, health, energy int, at time.Time) []event.CombatEvent {
	if !c.Alive {
		return nil
	}
	var out []event.CombatEvent
	if n := missing(c.Snapshot, property.Health, health); n > 0 {
		out = append(out, event.NewCombatEvent(event.KindHealed, c.ID, c.ID, n, at))
	}
	if n := missing(c.Snapshot, property.Energy, energy); n > 0 {
		out = append(out, event.NewCombatEvent(event.KindEnergyRestored, c.ID, c.ID, n, at))
	}
	return out
}

func missing(s property.Snapshot, name string, amount int) int {
	if amount <= 0 {
		return 0
	}
	_, hi, ok := s.Bounds(name)
	if !ok {
		return 0
	}
	return min(amount, hi-s.Value(name))
}

// Cooldowns 记录每个角色每个技能剩余的冷却回合数。
type Cooldowns struct {
	remaining map[utils.ID]map[string]int
}

func NewCooldowns() *Cooldowns {
	return &Cooldowns{remaining: make(map[utils.ID]map[string]int)}
}

func (c *Cooldowns) Start(id utils.ID, ability string, rounds int) {
	if rounds <= 0 {
		return
	}
	m := c.remaining[id]
	if m == nil {
		m = make(map[string]int)
		c.remaining[id] = m
	}
	m[ability] = rounds
}

func (c *Cooldowns) Remaining(id utils.ID, ability string) int {
	return c.remaining[id][ability]
}

// For 返回角色冷却表的拷贝。
func (c *Cooldowns) For(id utils.ID) map[string]int {
	if c == nil {
		return nil
	}
	return maps.Clone(c.remaining[id])
}

// Record 按已提交事件中的 ability_used 启动冷却。
func (c *Cooldowns) Record(events []event.Event, reg *Registry) {
	for _, e := range events {
		ce, ok := e.(event.CombatEvent)
		if !ok || ce.Kind() != event.KindAbilityUsed {
			continue
		}
		if ab, ok := reg.Get(ce.Ability()); ok {
			c.Start(ce.Source(), ab.ID, ab.Cooldown)
		}
	}
}

// Tick 在回合末调用，所有冷却减 1。
func (c *Cooldowns) Tick() {
	for id, m := range c.remaining {
		for ab, n := range m {
			if n <= 1 {
				delete(m, ab)
				continue
			}
			m[ab] = n - 1
		}
		if len(m) == 0 {
			delete(c.remaining, id)
		}
	}
}

// Clear 在战斗结束时调用。
func (c *Cooldowns) Clear() {
	clear(c.remaining)
}
