// Package audit 把总线上的每个事件落成一条结构化日志，用于复盘一场战斗。
package audit

import (
	"context"

	"TextRPG/internal/event"
	"TextRPG/modules/kit/logx"

	"go.uber.org/zap"
)

// Recorder 订阅全部事件并记录。
type Recorder struct {
	log logx.Logger
	sub event.Subscription
	bus *event.Bus
}

// Attach 在 bus 上注册审计订阅者。l 为 nil 时不注册。
func Attach(bus *event.Bus, l logx.Logger) *Recorder {
	if bus == nil || l == nil {
		return nil
	}
	r := &Recorder{log: l, bus: bus}
	r.sub = bus.SubscribeAll(r.handle)
	return r
}

// Detach 退订。
func (r *Recorder) Detach() {
	if r == nil || r.bus == nil {
		return
	}
	r.bus.Unsubscribe(r.sub)
	r.bus = nil
}

func (r *Recorder) handle(ctx context.Context, e event.Event) error {
	fields := append([]zap.Field{
		zap.String("log_type", "event"),
		zap.String("kind", string(e.Kind())),
		zap.Time("at", e.Timestamp()),
	}, Fields(e)...)
	l := r.log.WithContext(ctx)
	switch e.Kind() {
	case event.KindDied, event.KindLevelUp, event.KindBattleStarted, event.KindBattleEnded:
		l.Info("event", fields...)
	default:
		l.Debug("event", fields...)
	}
	return nil
}

// Fields 把事件载荷展开为 zap 字段。
func Fields(e event.Event) []zap.Field {
	switch v := e.(type) {
	case event.CombatEvent:
		fs := []zap.Field{
			zap.Int64("source", int64(v.Source())),
			zap.Int64("target", int64(v.Target())),
			zap.Int("amount", v.Amount()),
		}
		if v.Ability() != "" {
			fs = append(fs, zap.String("ability", v.Ability()))
		}
		if v.DamageType() != "" {
			fs = append(fs, zap.String("damage_type", string(v.DamageType())))
		}
		return fs
	case event.PropertyChanged:
		return []zap.Field{
			zap.Int64("character", int64(v.Character)),
			zap.String("property", v.Name),
			zap.Int("old", v.Old),
			zap.Int("new", v.New),
		}
	case event.LevelUp:
		return []zap.Field{
			zap.Int64("character", int64(v.Character)),
			zap.Int("level", v.Level),
		}
	case event.BattleEvent:
		fs := []zap.Field{zap.Int64("battle", int64(v.Battle())), zap.Int("round", v.Round())}
		if v.Actor() != 0 {
			fs = append(fs, zap.Int64("actor", int64(v.Actor())))
		}
		if v.Outcome() != event.OutcomeNone {
			fs = append(fs, zap.String("outcome", string(v.Outcome())))
		}
		return fs
	default:
		return nil
	}
}
