package event

import (
	"time"

	"TextRPG/internal/shared/utils"
)

// Kind 是事件类型，订阅按它路由。
type Kind string

const (
	KindDamageTaken      Kind = "damage_taken"
	KindHealed           Kind = "healed"
	KindEnergySpent      Kind = "energy_spent"
	KindEnergyRestored   Kind = "energy_restored"
	KindExperienceGained Kind = "experience_gained"
	KindRevived          Kind = "revived"
	KindDied             Kind = "died"
	KindLevelUp          Kind = "level_up"
	KindPropertyChanged  Kind = "property_changed"
	KindAbilityUsed      Kind = "ability_used"
	KindTurnSkipped      Kind = "turn_skipped"
	KindBattleStarted    Kind = "battle_started"
	KindRoundStarted     Kind = "round_started"
	KindRoundEnded       Kind = "round_ended"
	KindBattleEnded      Kind = "battle_ended"
)

// Event 是总线上流动的值。所有实现都是不可变值类型。
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// DamageType 是伤害属性。
type DamageType string

const (
	DamagePhysical  DamageType = "physical"
	DamageFire      DamageType = "fire"
	DamageIce       DamageType = "ice"
	DamageLightning DamageType = "lightning"
	DamagePoison    DamageType = "poison"
	DamageHoly      DamageType = "holy"
	DamageDark      DamageType = "dark"
	DamageTrue      DamageType = "true"
)

// CombatEvent 描述一次意图中的或已提交的战斗数值变化，创建后不可修改。
type CombatEvent struct {
	kind       Kind
	source     utils.ID
	target     utils.ID
	amount     int
	at         time.Time
	ability    string
	damageType DamageType
}

type CombatOption func(*CombatEvent)

func WithAbility(id string) CombatOption {
	return func(e *CombatEvent) { e.ability = id }
}

func WithDamageType(t DamageType) CombatOption {
	return func(e *CombatEvent) { e.damageType = t }
}

func NewCombatEvent(kind Kind, source, target utils.ID, amount int, at time.Time, opts ...CombatOption) CombatEvent {
	e := CombatEvent{kind: kind, source: source, target: target, amount: amount, at: at}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (e CombatEvent) Kind() Kind             { return e.kind }
func (e CombatEvent) Source() utils.ID       { return e.source }
func (e CombatEvent) Target() utils.ID       { return e.target }
func (e CombatEvent) Amount() int            { return e.amount }
func (e CombatEvent) Timestamp() time.Time   { return e.at }
func (e CombatEvent) Ability() string        { return e.ability }
func (e CombatEvent) DamageType() DamageType { return e.damageType }

// PropertyChanged 是容器批次提交后某个属性的值或边界变化。
type PropertyChanged struct {
	Character utils.ID
	Name      string
	Old       int
	New       int
	Min       int
	Max       int
	At        time.Time
}

func (PropertyChanged) Kind() Kind             { return KindPropertyChanged }
func (e PropertyChanged) Timestamp() time.Time { return e.At }

// LevelUp 在等级 +1 的批次提交后发出。
type LevelUp struct {
	Character utils.ID
	Level     int
	At        time.Time
}

func (LevelUp) Kind() Kind             { return KindLevelUp }
func (e LevelUp) Timestamp() time.Time { return e.At }

// Outcome 是战斗结果。
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
)

// BattleEvent 是战斗流程事件：开始、回合开始/结束、跳过回合、结束。
type BattleEvent struct {
	kind    Kind
	battle  utils.ID
	round   int
	actor   utils.ID
	outcome Outcome
	at      time.Time
}

func NewBattleEvent(kind Kind, battle utils.ID, round int, at time.Time) BattleEvent {
	return BattleEvent{kind: kind, battle: battle, round: round, at: at}
}

// WithActor 返回带行动者的拷贝（turn_skipped）。
func (e BattleEvent) WithActor(id utils.ID) BattleEvent {
	e.actor = id
	return e
}

// WithOutcome 返回带结果的拷贝（battle_ended）。
func (e BattleEvent) WithOutcome(o Outcome) BattleEvent {
	e.outcome = o
	return e
}

func (e BattleEvent) Kind() Kind           { return e.kind }
func (e BattleEvent) Battle() utils.ID     { return e.battle }
func (e BattleEvent) Round() int           { return e.round }
func (e BattleEvent) Actor() utils.ID      { return e.actor }
func (e BattleEvent) Outcome() Outcome     { return e.outcome }
func (e BattleEvent) Timestamp() time.Time { return e.at }
