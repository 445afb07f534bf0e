package combat

import (
	"time"

	"TextRPG/internal/character"
	"TextRPG/internal/event"
	"TextRPG/internal/property"
	"TextRPG/internal/shared/utils"
)

// Roster 按 ID 查找参与提交的角色。
type Roster interface {
	Lookup(id utils.ID) (*character.Character, bool)
}

type batch struct {
	char   *character.Character
	source utils.ID
	deltas []property.Delta
	revive int
	// reviving 为 true 时先复活，再提交 deltas
	reviving bool
	wasDead  bool
}

// Commit 把意图事件经由各角色的属性容器提交：
// 1) 按目标角色归并为批次，全部校验通过后才开始修改
// 2) 每个角色一个批次，一次重算
// 3) 返回已提交的意图事件 + 派生事件（属性变化、死亡、升级）
//
// Commit 不发布事件；调用方在所有提交成功后再发布。
func Commit(roster Roster, events []event.CombatEvent, at time.Time) ([]event.Event, error) {
	batches, index, err := plan(roster, events)
	if err != nil {
		return nil, err
	}
	for _, b := range batches {
		if err := b.char.Validate(b.deltas...); err != nil {
			return nil, ErrApplyFailed.WithData("character_id", int64(b.char.ID())).WithCause(err)
		}
	}

	out := make([]event.Event, 0, len(events))
	for _, e := range events {
		b := batches[index[e.Target()]]
		if b.wasDead && !b.reviving && e.Kind() != event.KindAbilityUsed {
			// 对已死亡角色的非复活修改是空操作，不产生事件。
			continue
		}
		out = append(out, e)
	}

	var derived []event.Event
	for _, b := range batches {
		if b.reviving {
			evs, err := b.char.Revive(at, b.revive)
			if err != nil {
				return nil, ErrApplyFailed.WithData("character_id", int64(b.char.ID())).WithCause(err)
			}
			derived = append(derived, evs...)
		}
		evs, err := b.char.Apply(at, b.source, b.deltas...)
		if err != nil {
			return nil, ErrApplyFailed.WithData("character_id", int64(b.char.ID())).WithCause(err)
		}
		derived = append(derived, evs...)
	}
	return append(out, derived...), nil
}

func plan(roster Roster, events []event.CombatEvent) ([]*batch, map[utils.ID]int, error) {
	var batches []*batch
	index := make(map[utils.ID]int)
	for _, e := range events {
		i, ok := index[e.Target()]
		if !ok {
			c, found := roster.Lookup(e.Target())
			if !found {
				return nil, nil, ErrCharacterUnknown.WithData("character_id", int64(e.Target()))
			}
			i = len(batches)
			index[e.Target()] = i
			batches = append(batches, &batch{char: c, source: e.Source(), wasDead: !c.Alive()})
		}
		b := batches[i]
		if e.Kind() == event.KindRevived {
			b.reviving = true
			b.revive += e.Amount()
			continue
		}
		if d, ok := deltaFor(e); ok {
			b.deltas = append(b.deltas, d)
		}
	}
	return batches, index, nil
}

func deltaFor(e event.CombatEvent) (property.Delta, bool) {
	switch e.Kind() {
	case event.KindDamageTaken:
		return property.Delta{Name: property.Health, Amount: -e.Amount()}, true
	case event.KindHealed:
		return property.Delta{Name: property.Health, Amount: e.Amount()}, true
	case event.KindEnergySpent:
		return property.Delta{Name: property.Energy, Amount: -e.Amount()}, true
	case event.KindEnergyRestored:
		return property.Delta{Name: property.Energy, Amount: e.Amount()}, true
	case event.KindExperienceGained:
		return property.Delta{Name: property.Experience, Amount: e.Amount()}, true
	default:
		return property.Delta{}, false
	}
}
