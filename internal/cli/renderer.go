package cli

import (
	"context"
	"fmt"

	"TextRPG/internal/battle"
	"TextRPG/internal/combat"
	"TextRPG/internal/event"
	"TextRPG/internal/shared/utils"
)

var damageTypeText = map[event.DamageType]string{
	event.DamagePhysical:  "物理",
	event.DamageFire:      "火焰",
	event.DamageIce:       "冰霜",
	event.DamageLightning: "雷电",
	event.DamagePoison:    "毒素",
	event.DamageHoly:      "神圣",
	event.DamageDark:      "暗影",
	event.DamageTrue:      "真实",
}

// Renderer 把总线事件渲染成文本行。
type Renderer struct {
	con       *Console
	names     map[utils.ID]string
	abilities *combat.Registry
	bus       *event.Bus
	sub       event.Subscription
}

// AttachRenderer 订阅全部事件并输出到 con。
func AttachRenderer(bus *event.Bus, con *Console, st battle.Status, abilities *combat.Registry) *Renderer {
	r := &Renderer{con: con, names: Names(st), abilities: abilities, bus: bus}
	r.sub = bus.SubscribeAll(r.handle)
	return r
}

func (r *Renderer) Detach() {
	if r == nil || r.bus == nil {
		return
	}
	r.bus.Unsubscribe(r.sub)
	r.bus = nil
}

// Names 返回参战者 id → 名字。
func Names(st battle.Status) map[utils.ID]string {
	names := make(map[utils.ID]string, len(st.Participants))
	for _, p := range st.Participants {
		names[p.ID] = p.Name
	}
	return names
}

func (r *Renderer) handle(_ context.Context, e event.Event) error {
	if line := r.Render(e); line != "" {
		r.con.Println(line)
	}
	return nil
}

// Render 返回事件的文本；不需要展示的事件返回空串。
func (r *Renderer) Render(e event.Event) string {
	switch v := e.(type) {
	case event.CombatEvent:
		return r.combat(v)
	case event.LevelUp:
		return fmt.Sprintf("★ %s 升到了 %d 级！", r.name(v.Character), v.Level)
	case event.BattleEvent:
		return r.flow(v)
	default:
		return ""
	}
}

func (r *Renderer) combat(e event.CombatEvent) string {
	src, dst := r.name(e.Source()), r.name(e.Target())
	switch e.Kind() {
	case event.KindAbilityUsed:
		return fmt.Sprintf("%s 使用了 %s", src, r.abilityName(e.Ability()))
	case event.KindDamageTaken:
		return fmt.Sprintf("%s 受到 %d 点%s伤害", dst, e.Amount(), damageTypeText[e.DamageType()])
	case event.KindHealed:
		return fmt.Sprintf("%s 回复了 %d 点生命", dst, e.Amount())
	case event.KindEnergyRestored:
		return fmt.Sprintf("%s 回复了 %d 点能量", dst, e.Amount())
	case event.KindExperienceGained:
		return fmt.Sprintf("%s 获得 %d 点经验", dst, e.Amount())
	case event.KindRevived:
		return fmt.Sprintf("%s 被复活了", dst)
	case event.KindDied:
		return fmt.Sprintf("✝ %s 倒下了", dst)
	default:
		// energy_spent 在状态里可见
		return ""
	}
}

func (r *Renderer) flow(e event.BattleEvent) string {
	switch e.Kind() {
	case event.KindBattleStarted:
		return "══ 战斗开始 ══"
	case event.KindRoundStarted:
		return fmt.Sprintf("── 第 %d 回合 ──", e.Round())
	case event.KindTurnSkipped:
		return fmt.Sprintf("%s 按兵不动", r.name(e.Actor()))
	case event.KindBattleEnded:
		switch e.Outcome() {
		case event.OutcomeVictory:
			return "══ 胜利！══"
		case event.OutcomeDefeat:
			return "══ 战败…… ══"
		}
		return "══ 战斗结束 ══"
	default:
		return ""
	}
}

func (r *Renderer) name(id utils.ID) string {
	if n, ok := r.names[id]; ok {
		return n
	}
	return "#" + id.String()
}

func (r *Renderer) abilityName(id string) string {
	if r.abilities != nil {
		if a, ok := r.abilities.Get(id); ok {
			return a.Name
		}
	}
	return id
}
