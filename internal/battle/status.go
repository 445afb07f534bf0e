package battle

import (
	"TextRPG/internal/character"
	"TextRPG/internal/event"
	"TextRPG/internal/property"
	"TextRPG/internal/shared/utils"
)

// Status 是战斗的只读视图，可以安全地跨 goroutine 传递。
type Status struct {
	BattleID     utils.ID
	Round        int
	Current      utils.ID
	Over         bool
	Outcome      event.Outcome
	Participants []ParticipantStatus
}

type ParticipantStatus struct {
	ID               utils.ID
	Name             string
	Class            string
	Variant          character.Variant
	State            character.State
	Level            int
	Experience       int
	ExperienceToNext int
	Health           int
	MaxHealth        int
	Energy           int
	MaxEnergy        int
	AttackPower      int
	Defense          int
	CombatPower      int
	Abilities        []string
	Cooldowns        map[string]int
}

func (s Status) Players() []ParticipantStatus {
	return s.filter(character.VariantPlayer)
}

func (s Status) Monsters() []ParticipantStatus {
	return s.filter(character.VariantMonster)
}

func (s Status) filter(v character.Variant) []ParticipantStatus {
	var out []ParticipantStatus
	for _, p := range s.Participants {
		if p.Variant == v {
			out = append(out, p)
		}
	}
	return out
}

func (b *Battle) Status() Status {
	st := Status{
		BattleID: b.id,
		Round:    b.round,
		Over:     b.over,
		Outcome:  b.outcome,
	}
	if cur, ok := b.Current(); ok {
		st.Current = cur.ID()
	}
	for _, c := range b.participants {
		snap := c.Snapshot()
		st.Participants = append(st.Participants, ParticipantStatus{
			ID:               c.ID(),
			Name:             c.Name(),
			Class:            c.Class(),
			Variant:          c.Variant(),
			State:            c.State(),
			Level:            snap.Value(property.Level),
			Experience:       snap.Value(property.Experience),
			ExperienceToNext: snap.Value(property.ExperienceToNext),
			Health:           snap.Value(property.Health),
			MaxHealth:        snap.Value(property.MaxHealth),
			Energy:           snap.Value(property.Energy),
			MaxEnergy:        snap.Value(property.MaxEnergy),
			AttackPower:      snap.Value(property.AttackPower),
			Defense:          snap.Value(property.Defense),
			CombatPower:      c.CombatPower(),
			Abilities:        c.Abilities(),
			Cooldowns:        b.cooldowns.For(c.ID()),
		})
	}
	return st
}
