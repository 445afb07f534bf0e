package event

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"TextRPG/modules/kit/logx"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func damage(amount int) CombatEvent {
	return NewCombatEvent(KindDamageTaken, 1, 2, amount, time.Unix(0, 0), WithDamageType(DamagePhysical))
}

func TestPublish_按订阅顺序同步投递(t *testing.T) {
	bus := NewBus(nil)
	var got []string
	bus.Subscribe(KindDamageTaken, func(_ context.Context, e Event) error {
		got = append(got, "first")
		return nil
	})
	bus.Subscribe(KindHealed, func(_ context.Context, e Event) error {
		got = append(got, "healed")
		return nil
	})
	bus.SubscribeAll(func(_ context.Context, e Event) error {
		got = append(got, "all:"+string(e.Kind()))
		return nil
	})

	bus.Publish(context.Background(), damage(3))

	want := []string{"first", "all:damage_taken"}
	if !slices.Equal(got, want) {
		t.Fatalf("期望 %v, got=%v", want, got)
	}
}

func TestPublish_订阅者报错或panic不影响后续订阅者(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bus := NewBus(logx.NewZapLogger(zap.New(core)))

	called := 0
	bus.Subscribe(KindDamageTaken, func(context.Context, Event) error { return errors.New("widget broken") })
	bus.Subscribe(KindDamageTaken, func(context.Context, Event) error { panic("boom") })
	bus.Subscribe(KindDamageTaken, func(context.Context, Event) error {
		called++
		return nil
	})

	bus.Publish(context.Background(), damage(1), damage(2))

	if called != 2 {
		t.Fatalf("期望第三个订阅者收到 2 个事件, got=%d", called)
	}
	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 4 {
		t.Fatalf("期望记录 4 条错误日志, got=%d", n)
	}
}

func TestUnsubscribe_退订后不再收到事件(t *testing.T) {
	bus := NewBus(nil)
	called := 0
	sub := bus.Subscribe(KindDamageTaken, func(context.Context, Event) error {
		called++
		return nil
	})
	if !bus.Unsubscribe(sub) {
		t.Fatalf("期望退订成功")
	}
	if bus.Unsubscribe(sub) {
		t.Fatalf("期望重复退订返回 false")
	}
	bus.Publish(context.Background(), damage(1))
	if called != 0 {
		t.Fatalf("期望退订后不再调用, got=%d", called)
	}
}

func TestCombatEvent_取值(t *testing.T) {
	at := time.Unix(10, 0)
	e := NewCombatEvent(KindDamageTaken, 7, 8, 12, at, WithAbility("magic_missile"), WithDamageType(DamageFire))
	if e.Source() != 7 || e.Target() != 8 || e.Amount() != 12 || !e.Timestamp().Equal(at) {
		t.Fatalf("期望字段一致, got=%+v", e)
	}
	if e.Ability() != "magic_missile" || e.DamageType() != DamageFire {
		t.Fatalf("期望 ability/damage_type, got=%s/%s", e.Ability(), e.DamageType())
	}
}

func TestBattleEvent_拷贝修改不影响原值(t *testing.T) {
	base := NewBattleEvent(KindBattleEnded, 1, 3, time.Unix(0, 0))
	won := base.WithOutcome(OutcomeVictory)
	if base.Outcome() != OutcomeNone || won.Outcome() != OutcomeVictory {
		t.Fatalf("期望 WithOutcome 返回拷贝, base=%s won=%s", base.Outcome(), won.Outcome())
	}
}
