package battle

import (
	"context"
	"slices"
	"testing"
	"time"

	"TextRPG/internal/character"
	"TextRPG/internal/combat"
	"TextRPG/internal/event"
	"TextRPG/internal/property"
	"TextRPG/internal/shared/gamedata"
	"TextRPG/internal/shared/utils"
)

var t0 = time.Unix(1700000000, 0)

type recorder struct {
	events []event.Event
}

func (r *recorder) handle(_ context.Context, e event.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) count(kind event.Kind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind() == kind {
			n++
		}
	}
	return n
}

func newChar(t *testing.T, id utils.ID, variant string, stats map[string]int, reward int, abilities ...string) *character.Character {
	t.Helper()
	tpl := &gamedata.Template{
		ID:               "tpl",
		Name:             "c" + id.String(),
		Variant:          variant,
		Level:            1,
		MaxLevel:         5,
		BaseStats:        stats,
		Abilities:        abilities,
		ExperienceReward: reward,
	}
	c, err := character.New(tpl, character.Options{ID: id, Formulas: character.DefaultFormulas()})
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	return c
}

func hero(t *testing.T) *character.Character {
	return newChar(t, 1, gamedata.VariantPlayer, map[string]int{"strength": 10, "agility": 10, "intelligence": 2}, 0,
		combat.AbilityMagicMissile, combat.AbilityRest)
}

func goblin(t *testing.T) *character.Character {
	return newChar(t, 2, gamedata.VariantMonster, map[string]int{"strength": 4, "agility": 5}, 150)
}

func newBattle(t *testing.T, regen Regen, cs ...*character.Character) (*Battle, *recorder) {
	t.Helper()
	rec := &recorder{}
	bus := event.NewBus(nil)
	bus.SubscribeAll(rec.handle)
	b, err := New(Options{ID: 77, Rules: combat.DefaultRules(), Regen: regen, Bus: bus, Clock: func() time.Time { return t0 }}, cs...)
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	return b, rec
}

func TestNew_至少一名玩家和一只怪物(t *testing.T) {
	if _, err := New(Options{}, hero(t)); err == nil {
		t.Fatalf("期望缺少怪物时返回错误")
	}
	h := hero(t)
	if _, err := New(Options{}, h, h, goblin(t)); err == nil {
		t.Fatalf("期望重复 ID 返回错误")
	}
}

func TestStart_按敏捷排序且同速玩家先手(t *testing.T) {
	g := goblin(t)
	slow := newChar(t, 3, gamedata.VariantPlayer, map[string]int{"agility": 5}, 0)
	b, rec := newBattle(t, Regen{}, g, slow, hero(t))

	b.Start(context.Background())
	if want := []utils.ID{1, 3, 2}; !slices.Equal(b.Order(), want) {
		t.Fatalf("期望行动顺序 %v, got=%v", want, b.Order())
	}
	if rec.count(event.KindBattleStarted) != 1 || rec.count(event.KindRoundStarted) != 1 {
		t.Fatalf("期望 battle_started 与 round_started 各一次, got=%d/%d",
			rec.count(event.KindBattleStarted), rec.count(event.KindRoundStarted))
	}
	if events, err := b.Start(context.Background()); events != nil || err != nil {
		t.Fatalf("期望重复 Start 是空操作, got=%v/%v", events, err)
	}
}

func TestUseAbility_不是自己的回合被拒绝(t *testing.T) {
	b, _ := newBattle(t, Regen{}, hero(t), goblin(t))
	b.Start(context.Background())

	res, err := b.Attack(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if res.Refusal.Reason != combat.ReasonNotYourTurn {
		t.Fatalf("期望 NOT_YOUR_TURN, got=%s", res.Refusal.ReasonCode())
	}
}

func TestUseAbility_能量不足零修改零发布(t *testing.T) {
	h, g := hero(t), goblin(t)
	if _, err := h.Apply(t0, h.ID(), property.Delta{Name: property.Energy, Amount: -1000}); err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	b, rec := newBattle(t, Regen{}, h, g)
	b.Start(context.Background())
	rec.events = nil
	hBefore, gBefore := h.Snapshot(), g.Snapshot()

	res, err := b.Attack(context.Background(), h.ID(), g.ID())
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if res.Refusal.Reason != combat.ReasonInsufficientEnergy {
		t.Fatalf("期望 INSUFFICIENT_ENERGY, got=%s", res.Refusal.ReasonCode())
	}
	if len(rec.events) != 0 || len(res.Events) != 0 {
		t.Fatalf("期望无发布事件, got=%d", len(rec.events))
	}
	for _, name := range []string{property.Health, property.Energy} {
		if h.Value(name) != hBefore.Value(name) || g.Value(name) != gBefore.Value(name) {
			t.Fatalf("期望 %s 未变化", name)
		}
	}
	if cur, _ := b.Current(); cur.ID() != h.ID() {
		t.Fatalf("期望拒绝后仍是英雄的回合")
	}
}

func TestBattle_击杀怪物发放经验并胜利(t *testing.T) {
	h, g := hero(t), goblin(t)
	b, rec := newBattle(t, Regen{}, h, g)
	ctx := context.Background()
	b.Start(ctx)

	for i := 0; i < 10 && !b.Over(); i++ {
		res, err := b.Attack(ctx, h.ID(), g.ID())
		if err != nil {
			t.Fatalf("期望 err=nil, got=%v", err)
		}
		if res.Refused() {
			t.Fatalf("期望攻击未被拒绝, got=%s", res.Refusal.Message())
		}
		if _, err := b.MonsterTurns(ctx); err != nil {
			t.Fatalf("期望 err=nil, got=%v", err)
		}
	}

	if !b.Over() || b.Outcome() != event.OutcomeVictory {
		t.Fatalf("期望胜利, over=%v outcome=%s", b.Over(), b.Outcome())
	}
	if g.Alive() || rec.count(event.KindDied) != 1 {
		t.Fatalf("期望哥布林死亡且只有一个 died 事件, got=%d", rec.count(event.KindDied))
	}
	if rec.count(event.KindExperienceGained) != 1 || rec.count(event.KindLevelUp) != 1 {
		t.Fatalf("期望获得经验并升级, got=%d/%d", rec.count(event.KindExperienceGained), rec.count(event.KindLevelUp))
	}
	if h.Value(property.Level) != 2 || h.Value(property.Experience) != 50 {
		t.Fatalf("期望 level=2 experience=50, got=%d/%d", h.Value(property.Level), h.Value(property.Experience))
	}
	if rec.count(event.KindBattleEnded) != 1 {
		t.Fatalf("期望 battle_ended 一次")
	}

	res, _ := b.Attack(ctx, h.ID(), g.ID())
	if res.Refusal.Reason != combat.ReasonBattleOver {
		t.Fatalf("期望 BATTLE_OVER, got=%s", res.Refusal.ReasonCode())
	}
}

func TestBattle_胜利时经验在存活玩家间平分余数给前者(t *testing.T) {
	h := hero(t)
	mate := newChar(t, 3, gamedata.VariantPlayer, map[string]int{"strength": 10, "agility": 9}, 0)
	g := goblin(t)
	imp := newChar(t, 4, gamedata.VariantMonster, map[string]int{"strength": 1, "agility": 1}, 1)
	b, rec := newBattle(t, Regen{}, h, mate, g, imp)
	ctx := context.Background()
	b.Start(ctx)

	for i := 0; i < 40 && !b.Over(); i++ {
		cur, ok := b.Current()
		if !ok {
			t.Fatalf("期望存在当前角色")
		}
		if !cur.IsPlayer() {
			if _, err := b.MonsterTurns(ctx); err != nil {
				t.Fatalf("期望 err=nil, got=%v", err)
			}
			continue
		}
		target := g
		if !g.Alive() {
			target = imp
		}
		if g.Alive() && rec.count(event.KindExperienceGained) != 0 {
			t.Fatalf("期望战斗结束前不发放经验")
		}
		if _, err := b.Attack(ctx, cur.ID(), target.ID()); err != nil {
			t.Fatalf("期望 err=nil, got=%v", err)
		}
	}

	if b.Outcome() != event.OutcomeVictory {
		t.Fatalf("期望胜利, got=%s", b.Outcome())
	}
	if !h.Alive() || !mate.Alive() {
		t.Fatalf("期望两名玩家都存活")
	}
	// 总计 151：先手玩家 76，另一名 75。
	if rec.count(event.KindExperienceGained) != 2 {
		t.Fatalf("期望两条经验事件, got=%d", rec.count(event.KindExperienceGained))
	}
	if got := h.Value(property.Experience); h.Value(property.Level) != 1 || got != 76 {
		t.Fatalf("期望英雄 level=1 experience=76, got=%d/%d", h.Value(property.Level), got)
	}
	if got := mate.Value(property.Experience); mate.Value(property.Level) != 1 || got != 75 {
		t.Fatalf("期望队友 level=1 experience=75, got=%d/%d", mate.Value(property.Level), got)
	}
}

func TestBattle_回合结束回复并递减冷却(t *testing.T) {
	h, g := hero(t), goblin(t)
	b, rec := newBattle(t, Regen{EnergyPerRound: 3}, h, g)
	ctx := context.Background()
	b.Start(ctx)

	if res, err := b.UseAbility(ctx, h.ID(), combat.AbilityMagicMissile, g.ID()); err != nil || res.Refused() {
		t.Fatalf("期望施法成功, err=%v refusal=%s", err, res.Refusal.Message())
	}
	if b.CooldownsOf(h.ID())[combat.AbilityMagicMissile] != 1 {
		t.Fatalf("期望魔法飞弹冷却 1 回合")
	}
	energyAfterCast := h.Value(property.Energy)

	if _, err := b.Wait(ctx, g.ID()); err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if b.Round() != 2 || rec.count(event.KindRoundEnded) != 1 || rec.count(event.KindTurnSkipped) != 1 {
		t.Fatalf("期望进入第 2 回合, round=%d ended=%d", b.Round(), rec.count(event.KindRoundEnded))
	}
	if got := h.Value(property.Energy); got != energyAfterCast+3 {
		t.Fatalf("期望回合末回复 3 能量, got=%d want=%d", got, energyAfterCast+3)
	}
	if len(b.CooldownsOf(h.ID())) != 0 {
		t.Fatalf("期望冷却已结束, got=%v", b.CooldownsOf(h.ID()))
	}
	if cur, _ := b.Current(); cur.ID() != h.ID() {
		t.Fatalf("期望新回合由英雄先手")
	}
}

func TestMonsterTurns_默认策略攻击玩家(t *testing.T) {
	h, g := hero(t), goblin(t)
	b, _ := newBattle(t, Regen{}, h, g)
	ctx := context.Background()
	b.Start(ctx)
	if _, err := b.Wait(ctx, h.ID()); err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}

	results, err := b.MonsterTurns(ctx)
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if len(results) != 1 || results[0].Refused() {
		t.Fatalf("期望怪物行动一次, got=%+v", results)
	}
	if h.Value(property.Health) >= h.Value(property.MaxHealth) {
		t.Fatalf("期望英雄受到伤害")
	}
	if cur, _ := b.Current(); cur.ID() != h.ID() {
		t.Fatalf("期望怪物行动后轮到英雄")
	}
}
