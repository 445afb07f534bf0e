package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"TextRPG/internal/battle"
	"TextRPG/internal/battle/actor"
	"TextRPG/internal/character"
	"TextRPG/internal/combat"
	"TextRPG/internal/shared/transport"
	"TextRPG/internal/shared/utils"
	"TextRPG/modules/kit/logx"
)

// Runtime 是命令层依赖的战斗运行时能力。
type Runtime interface {
	Handle(ctx context.Context, req actor.Request) (*actor.Response, error)
	Status(ctx context.Context) (battle.Status, error)
}

// Game 把文本命令翻译成战斗动作。事件输出由 Renderer 负责，Game 只输出命令回复。
type Game struct {
	rt        Runtime
	player    utils.ID
	abilities *combat.Registry
	router    *Router
	con       *Console
}

func NewGame(rt Runtime, player utils.ID, abilities *combat.Registry, con *Console, l logx.Logger) *Game {
	if abilities == nil {
		abilities = combat.Builtin()
	}
	if con == nil {
		con = NewConsole(nil)
	}
	g := &Game{
		rt:        rt,
		player:    player,
		abilities: abilities,
		router:    NewRouter(l),
		con:       con,
	}
	g.router.Handle("attack", g.attack, "a")
	g.router.Handle("use", g.use, "u")
	g.router.Handle("wait", g.wait, "w")
	g.router.Handle("status", g.status, "s")
	g.router.Handle("help", g.help, "h", "?")
	g.router.Handle("quit", g.quit, "q", "exit")
	return g
}

// Exit 说明命令循环为何结束。
type Exit int

const (
	ExitEOF Exit = iota
	ExitQuit
	ExitBattleOver
)

// Run 逐行读取命令直到 quit、战斗结束或输入耗尽。
func (g *Game) Run(ctx context.Context, in io.Reader) error {
	_, err := g.Play(ctx, bufio.NewScanner(in))
	return err
}

// Play 同 Run，但复用调用方的 Scanner，多场战斗可以共用一个输入流。
func (g *Game) Play(ctx context.Context, sc *bufio.Scanner) (Exit, error) {
	g.con.Println("输入 help 查看可用命令")
	g.print(g.Exec(ctx, "status"))
	g.con.Printf("> ")
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return ExitEOF, err
		}
		reply := g.Exec(ctx, sc.Text())
		g.print(reply)
		switch {
		case reply == nil:
		case reply.Quit:
			return ExitQuit, nil
		case reply.Over:
			return ExitBattleOver, nil
		}
		g.con.Printf("> ")
	}
	return ExitEOF, sc.Err()
}

// Exec 执行一行命令。
func (g *Game) Exec(ctx context.Context, line string) *Reply {
	return g.router.Dispatch(ctx, line)
}

func (g *Game) print(reply *Reply) {
	if reply == nil {
		return
	}
	if reply.Msg != "" {
		g.con.Println(reply.Msg)
	}
	g.con.Println(reply.Lines...)
}

func (g *Game) attack(ctx context.Context, cmd *Command, reply *Reply) {
	st, ok := g.snapshot(ctx, reply)
	if !ok {
		return
	}
	var arg string
	if len(cmd.Args) > 0 {
		arg = cmd.Args[0]
	}
	target, ok := pick(st.Monsters(), arg, firstAlive)
	if !ok {
		invalid(reply, "请指定目标编号，例如 attack 1")
		return
	}
	g.execute(ctx, actor.Request{Command: actor.CommandAttack, Actor: g.player, Target: target}, reply)
}

func (g *Game) use(ctx context.Context, cmd *Command, reply *Reply) {
	if len(cmd.Args) == 0 {
		invalid(reply, "用法：use <技能> [目标编号]")
		return
	}
	st, ok := g.snapshot(ctx, reply)
	if !ok {
		return
	}
	abilityID := cmd.Args[0]
	var arg string
	if len(cmd.Args) > 1 {
		arg = cmd.Args[1]
	}
	target := g.player
	if a, known := g.abilities.Get(abilityID); known {
		switch a.Target {
		case combat.TargetEnemy:
			target, ok = pick(st.Monsters(), arg, firstAlive)
		case combat.TargetAlly:
			target, ok = pick(st.Players(), arg, g.self)
		case combat.TargetDeadAlly:
			target, ok = pick(st.Players(), arg, firstDead)
		}
		if !ok {
			invalid(reply, "目标编号无效")
			return
		}
	}
	g.execute(ctx, actor.Request{Command: actor.CommandUseAbility, Actor: g.player, Ability: abilityID, Target: target}, reply)
}

func (g *Game) wait(ctx context.Context, _ *Command, reply *Reply) {
	g.execute(ctx, actor.Request{Command: actor.CommandWait, Actor: g.player}, reply)
}

func (g *Game) status(ctx context.Context, _ *Command, reply *Reply) {
	st, ok := g.snapshot(ctx, reply)
	if !ok {
		return
	}
	reply.Lines = g.statusLines(st)
	reply.Code = transport.OK
}

func (g *Game) help(_ context.Context, _ *Command, reply *Reply) {
	reply.Lines = []string{
		"attack [n]          攻击第 n 个怪物（a）",
		"use <技能> [n]      使用技能，敌方技能的 n 是怪物编号，友方技能的 n 是队友编号（u）",
		"wait                跳过本回合（w）",
		"status              查看战斗状态（s）",
		"help                显示本帮助（h）",
		"quit                退出游戏（q）",
	}
	reply.Lines = append(reply.Lines, "技能：")
	for _, id := range g.abilities.IDs() {
		a, _ := g.abilities.Get(id)
		reply.Lines = append(reply.Lines, fmt.Sprintf("  %-14s %s  消耗 %d 能量，冷却 %d 回合。%s", id, a.Name, a.Cost, a.Cooldown, a.Description))
	}
	reply.Code = transport.OK
}

func (g *Game) quit(_ context.Context, _ *Command, reply *Reply) {
	reply.Msg = "再见"
	reply.Quit = true
	reply.Code = transport.OK
}

func (g *Game) execute(ctx context.Context, req actor.Request, reply *Reply) {
	resp, err := g.rt.Handle(ctx, req)
	if err != nil {
		reply.Code = actor.CodeFromError(err)
		reply.Msg = "系统错误：" + err.Error()
	}
	if resp == nil {
		return
	}
	if err == nil {
		if resp.Result.Refused() {
			reply.Code = transport.Refused
			reply.Msg = "动作被拒绝：" + resp.Result.Refusal.Message()
		} else {
			reply.Code = transport.OK
		}
	}
	reply.Over = resp.Status.Over
}

func (g *Game) snapshot(ctx context.Context, reply *Reply) (battle.Status, bool) {
	st, err := g.rt.Status(ctx)
	if err != nil {
		reply.Code = actor.CodeFromError(err)
		reply.Msg = "系统错误：" + err.Error()
		return battle.Status{}, false
	}
	return st, true
}

func (g *Game) statusLines(st battle.Status) []string {
	lines := []string{fmt.Sprintf("第 %d 回合", st.Round)}
	lines = append(lines, "我方：")
	for i, p := range st.Players() {
		lines = append(lines, g.participantLine(i+1, p, st.Current))
	}
	lines = append(lines, "敌方：")
	for i, p := range st.Monsters() {
		lines = append(lines, g.participantLine(i+1, p, st.Current))
	}
	return lines
}

func (g *Game) participantLine(n int, p battle.ParticipantStatus, current utils.ID) string {
	var b strings.Builder
	marker := "  "
	if p.ID == current {
		marker = "▶ "
	}
	fmt.Fprintf(&b, "%s%d. %s Lv%d  生命 %d/%d  能量 %d/%d  攻击 %d  防御 %d  战力 %d",
		marker, n, p.Name, p.Level, p.Health, p.MaxHealth, p.Energy, p.MaxEnergy, p.AttackPower, p.Defense, p.CombatPower)
	if p.State == character.StateDead {
		b.WriteString("  [已倒下]")
	}
	if p.ID == g.player {
		fmt.Fprintf(&b, "  经验 %d/%d", p.Experience, p.ExperienceToNext)
		cds := make([]string, 0, len(p.Cooldowns))
		for _, id := range slices.Sorted(maps.Keys(p.Cooldowns)) {
			cds = append(cds, fmt.Sprintf("%s:%d", id, p.Cooldowns[id]))
		}
		if len(cds) > 0 {
			b.WriteString("  冷却 " + strings.Join(cds, " "))
		}
	}
	return b.String()
}

func invalid(reply *Reply, msg string) {
	reply.Code = transport.InvalidParam
	reply.Msg = msg
}

// pick 按 1 起始编号选目标；未给编号时用 fallback。
func pick(ps []battle.ParticipantStatus, arg string, fallback func([]battle.ParticipantStatus) (utils.ID, bool)) (utils.ID, bool) {
	if arg == "" {
		return fallback(ps)
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(ps) {
		return 0, false
	}
	return ps[n-1].ID, true
}

func firstAlive(ps []battle.ParticipantStatus) (utils.ID, bool) {
	for _, p := range ps {
		if p.State == character.StateAlive {
			return p.ID, true
		}
	}
	return 0, false
}

func firstDead(ps []battle.ParticipantStatus) (utils.ID, bool) {
	for _, p := range ps {
		if p.State == character.StateDead {
			return p.ID, true
		}
	}
	return 0, false
}

func (g *Game) self([]battle.ParticipantStatus) (utils.ID, bool) {
	return g.player, true
}
