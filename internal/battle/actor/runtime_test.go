package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"TextRPG/internal/battle"
	"TextRPG/internal/character"
	"TextRPG/internal/combat"
	"TextRPG/internal/event"
	"TextRPG/internal/property"
	"TextRPG/internal/shared/gamedata"
	"TextRPG/internal/shared/transport"
	"TextRPG/internal/shared/utils"
	"TextRPG/modules/kit/errx"
)

func newChar(t *testing.T, id utils.ID, variant string, stats map[string]int) *character.Character {
	t.Helper()
	c, err := character.New(&gamedata.Template{
		ID: "tpl", Name: "c" + id.String(), Variant: variant, Level: 1, MaxLevel: 3, BaseStats: stats,
	}, character.Options{ID: id, Formulas: character.DefaultFormulas()})
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	return c
}

func newBattle(t *testing.T) (*battle.Battle, *character.Character, *character.Character) {
	t.Helper()
	h := newChar(t, 1, gamedata.VariantPlayer, map[string]int{"strength": 10, "agility": 10})
	g := newChar(t, 2, gamedata.VariantMonster, map[string]int{"strength": 4, "agility": 5})
	b, err := battle.New(battle.Options{ID: 5, Rules: combat.DefaultRules()}, h, g)
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	return b, h, g
}

func TestRuntime_命令串行执行并自动推进怪物回合(t *testing.T) {
	b, h, g := newBattle(t)
	rt := NewRuntime(b, nil, time.Second)
	defer rt.Shutdown()
	ctx := context.Background()

	if _, err := rt.Start(ctx); err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	resp, err := rt.Handle(ctx, Request{Command: CommandAttack, Actor: h.ID(), Target: g.ID()})
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if resp.Result.Refused() {
		t.Fatalf("期望攻击成功, got=%s", resp.Result.Refusal.Message())
	}
	if len(resp.Monsters) != 1 {
		t.Fatalf("期望怪物行动一次, got=%d", len(resp.Monsters))
	}
	if resp.Status.Current != h.ID() || resp.Status.Round != 2 {
		t.Fatalf("期望第 2 回合轮到英雄, got=%+v", resp.Status)
	}
	var damaged bool
	for _, e := range resp.AllEvents() {
		if e.Kind() == event.KindDamageTaken {
			damaged = true
		}
	}
	if !damaged {
		t.Fatalf("期望响应包含 damage_taken")
	}

	st, err := rt.Status(ctx)
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if got := st.Monsters()[0].Health; got != g.Value(property.Health) {
		t.Fatalf("期望状态与角色一致, got=%d", got)
	}
}

func TestHandle_空请求参数错误(t *testing.T) {
	b, _, _ := newBattle(t)
	rt := NewRuntime(b, nil, time.Second)
	defer rt.Shutdown()

	_, err := rt.Handle(context.Background(), Request{})
	if CodeFromError(err) != transport.InvalidParam {
		t.Fatalf("期望 InvalidParam, got=%v", err)
	}
}

func TestBattleActor_过期请求不执行(t *testing.T) {
	b, h, g := newBattle(t)
	b.Start(context.Background())
	deadline := time.Unix(1700000000, 0)
	a := newBattleActor(b, nil, func() time.Time { return deadline.Add(time.Second) })
	before := g.Value(property.Health)

	resp := a.handle(&envelope{
		ctx:      context.Background(),
		kind:     msgAction,
		req:      Request{Command: CommandAttack, Actor: h.ID(), Target: g.ID()},
		deadline: deadline,
	})
	if resp.Result.Refusal.Reason != combat.ReasonExpired {
		t.Fatalf("期望 EXPIRED, got=%s", resp.Result.Refusal.ReasonCode())
	}
	if g.Value(property.Health) != before || len(resp.AllEvents()) != 0 {
		t.Fatalf("期望过期请求无任何修改与事件")
	}
}

func TestCodeFromError_映射(t *testing.T) {
	if CodeFromError(nil) != transport.OK {
		t.Fatalf("期望 nil → OK")
	}
	if CodeFromError(errors.New("x")) != transport.SystemError {
		t.Fatalf("期望普通错误 → SystemError")
	}
	wrapped := &RuntimeError{Code: transport.InvalidParam, Message: "bad"}
	if CodeFromError(wrapped) != transport.InvalidParam {
		t.Fatalf("期望 RuntimeError 透传 code")
	}
}

func TestRuntime_未初始化返回不可用(t *testing.T) {
	rt := &Runtime{}
	_, err := rt.Status(context.Background())
	if !errors.Is(err, errx.ErrUnavailable) {
		t.Fatalf("期望 ErrUnavailable, got=%v", err)
	}
	if CodeFromError(err) != transport.SystemError {
		t.Fatalf("期望 SystemError, got=%v", CodeFromError(err))
	}
}

func TestRuntime_停止后请求返回不可用或超时(t *testing.T) {
	b, _, _ := newBattle(t)
	rt := NewRuntime(b, nil, 50*time.Millisecond)
	rt.root.Stop(rt.battle)
	time.Sleep(20 * time.Millisecond)

	_, err := rt.Status(context.Background())
	if !errors.Is(err, errx.ErrUnavailable) && !errors.Is(err, errx.ErrTimeout) {
		t.Fatalf("期望 ErrUnavailable 或 ErrTimeout, got=%v", err)
	}
	rt.Shutdown()
}
