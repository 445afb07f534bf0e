package character

import (
	"slices"
	"time"

	"TextRPG/internal/event"
	"TextRPG/internal/property"
	"TextRPG/internal/shared/utils"
)

// Variant 区分玩家与怪物，只是数据标签。
type Variant string

const (
	VariantPlayer  Variant = "player"
	VariantMonster Variant = "monster"
)

// State 是角色状态机：Alive → Dead，只有复活能回到 Alive。
type State uint8

const (
	StateAlive State = iota
	StateDead
)

func (s State) String() string {
	if s == StateDead {
		return "dead"
	}
	return "alive"
}

// Character 独占自己的属性容器；所有修改都经由容器批次完成。
type Character struct {
	id        utils.ID
	name      string
	class     string
	variant   Variant
	props     *property.Container
	state     State
	abilities []string
	reward    int
}

func (c *Character) ID() utils.ID          { return c.id }
func (c *Character) Name() string          { return c.name }
func (c *Character) Class() string         { return c.class }
func (c *Character) Variant() Variant      { return c.variant }
func (c *Character) IsPlayer() bool        { return c.variant == VariantPlayer }
func (c *Character) State() State          { return c.state }
func (c *Character) Alive() bool           { return c.state == StateAlive }
func (c *Character) ExperienceReward() int { return c.reward }
func (c *Character) Abilities() []string   { return slices.Clone(c.abilities) }

func (c *Character) Knows(ability string) bool {
	return slices.Contains(c.abilities, ability)
}

func (c *Character) Value(name string) int { return c.props.Value(name) }

func (c *Character) Snapshot() property.Snapshot { return c.props.Snapshot() }

func (c *Character) CombatPower() int { return c.props.CombatPower() }

// Validate 检查一批 delta 能否提交，不做修改。
func (c *Character) Validate(deltas ...property.Delta) error {
	return c.props.Validate(deltas...)
}

// Apply 提交一个批次并返回派生事件：属性变化、死亡、升级。
// 已死亡角色的非复活修改是空操作。
func (c *Character) Apply(at time.Time, source utils.ID, deltas ...property.Delta) ([]event.Event, error) {
	if c.state == StateDead || len(deltas) == 0 {
		return nil, nil
	}
	changes, err := c.props.Apply(deltas...)
	if err != nil {
		return nil, err
	}
	events := c.changeEvents(changes, at)

	if !c.props.Alive() {
		c.state = StateDead
		events = append(events, event.NewCombatEvent(event.KindDied, source, c.id, 0, at))
		return events, nil
	}

	ups, err := c.levelUps(at)
	if err != nil {
		return events, err
	}
	return append(events, ups...), nil
}

// Revive 是离开 Dead 的唯一途径；生命至少恢复到下限 +1。存活角色调用是空操作。
func (c *Character) Revive(at time.Time, amount int) ([]event.Event, error) {
	if c.state == StateAlive {
		return nil, nil
	}
	hp, ok := c.props.Lookup(property.Health)
	if !ok {
		c.state = StateAlive
		return nil, nil
	}
	delta := max(amount, hp.Min()+1-hp.Get())
	changes, err := c.props.Apply(property.Delta{Name: property.Health, Amount: delta})
	if err != nil {
		return nil, err
	}
	if c.props.Alive() {
		c.state = StateAlive
	}
	return c.changeEvents(changes, at), nil
}

// levelUps 在经验达到阈值时逐级升级，每级一个批次；升级不回复当前生命与能量。
func (c *Character) levelUps(at time.Time) ([]event.Event, error) {
	var events []event.Event
	for {
		lvl, ok := c.props.Lookup(property.Level)
		if !ok || !c.props.Has(property.Experience) || !c.props.Has(property.ExperienceToNext) {
			return events, nil
		}
		next := c.props.Value(property.ExperienceToNext)
		if lvl.Get() >= lvl.Max() || next <= 0 || c.props.Value(property.Experience) < next {
			return events, nil
		}
		changes, err := c.props.Apply(
			property.Delta{Name: property.Experience, Amount: -next},
			property.Delta{Name: property.Level, Amount: 1},
		)
		if err != nil {
			return events, err
		}
		events = append(events, c.changeEvents(changes, at)...)
		events = append(events, event.LevelUp{Character: c.id, Level: c.props.Value(property.Level), At: at})
	}
}

func (c *Character) changeEvents(changes []property.Change, at time.Time) []event.Event {
	out := make([]event.Event, 0, len(changes))
	for _, ch := range changes {
		out = append(out, event.PropertyChanged{
			Character: c.id,
			Name:      ch.Name,
			Old:       ch.Old,
			New:       ch.New,
			Min:       ch.Min,
			Max:       ch.Max,
			At:        at,
		})
	}
	return out
}
