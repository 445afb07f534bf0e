package battle

import (
	"cmp"
	"context"
	"slices"
	"time"

	"TextRPG/internal/character"
	"TextRPG/internal/combat"
	"TextRPG/internal/event"
	"TextRPG/internal/property"
	"TextRPG/internal/shared/utils"
	"TextRPG/modules/kit/errx"
	"TextRPG/modules/kit/logx"
	"TextRPG/modules/kit/tracex"

	"go.uber.org/zap"
)

// Regen 是每回合末的被动回复量。
type Regen struct {
	HealthPerRound int
	EnergyPerRound int
}

type Options struct {
	ID     utils.ID
	Rules  combat.Rules
	Regen  Regen
	Bus    *event.Bus
	Logger logx.Logger
	Clock  func() time.Time
	Policy Policy
}

// Result 是一个动词的结果：要么拒绝，要么本次动作提交并发布的全部事件。
type Result struct {
	Refusal combat.Refusal
	Events  []event.Event
}

func (r Result) Refused() bool { return r.Refusal.Refused() }

// Battle 是一场战斗的会话状态。只允许单个 goroutine 驱动（见 battle/actor）。
//
// 每个动词都按 校验 → 结算 → 提交 → 奖励 → 发布 → 推进 执行；
// 提交失败时不发布任何事件，错误返回给调用方。
type Battle struct {
	id        utils.ID
	rules     combat.Rules
	regen     Regen
	bus       *event.Bus
	log       logx.Logger
	now       func() time.Time
	policy    Policy
	cooldowns *combat.Cooldowns

	participants []*character.Character
	byID         map[utils.ID]*character.Character

	started bool
	over    bool
	outcome event.Outcome
	round   int
	order   []utils.ID
	cursor  int
}

func New(opts Options, participants ...*character.Character) (*Battle, error) {
	if opts.Rules.Abilities == nil {
		opts.Rules = combat.DefaultRules()
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus(opts.Logger)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Policy == nil {
		opts.Policy = DefaultPolicy{}
	}

	b := &Battle{
		id:        opts.ID,
		rules:     opts.Rules,
		regen:     opts.Regen,
		bus:       opts.Bus,
		log:       logx.OrNop(opts.Logger),
		now:       opts.Clock,
		policy:    opts.Policy,
		cooldowns: combat.NewCooldowns(),
		byID:      make(map[utils.ID]*character.Character, len(participants)),
	}
	players, monsters := 0, 0
	for _, c := range participants {
		if c == nil {
			return nil, errx.ErrReqParamERR.WithData("detail", "nil participant")
		}
		if _, dup := b.byID[c.ID()]; dup {
			return nil, errx.ErrReqParamERR.WithData("detail", "duplicate participant id").WithData("character_id", int64(c.ID()))
		}
		b.byID[c.ID()] = c
		if c.IsPlayer() {
			players++
		} else {
			monsters++
		}
	}
	if players == 0 || monsters == 0 {
		return nil, errx.ErrReqParamERR.WithData("detail", "battle needs at least one player and one monster")
	}
	// 玩家在前：速度相同时玩家先手。
	b.participants = slices.Clone(participants)
	slices.SortStableFunc(b.participants, func(x, y *character.Character) int {
		return cmp.Compare(sideRank(x), sideRank(y))
	})
	return b, nil
}

func sideRank(c *character.Character) int {
	if c.IsPlayer() {
		return 0
	}
	return 1
}

func (b *Battle) ID() utils.ID           { return b.id }
func (b *Battle) Round() int             { return b.round }
func (b *Battle) Over() bool             { return b.over }
func (b *Battle) Outcome() event.Outcome { return b.outcome }
func (b *Battle) Rules() combat.Rules    { return b.rules }
func (b *Battle) Bus() *event.Bus        { return b.bus }

func (b *Battle) Participants() []*character.Character {
	return slices.Clone(b.participants)
}

// Lookup 实现 combat.Roster。
func (b *Battle) Lookup(id utils.ID) (*character.Character, bool) {
	c, ok := b.byID[id]
	return c, ok
}

// Current 返回当前行动的角色。
func (b *Battle) Current() (*character.Character, bool) {
	if !b.started || b.over || b.cursor >= len(b.order) {
		return nil, false
	}
	return b.byID[b.order[b.cursor]], true
}

// Order 返回本回合的行动顺序。
func (b *Battle) Order() []utils.ID { return slices.Clone(b.order) }

func (b *Battle) CooldownsOf(id utils.ID) map[string]int { return b.cooldowns.For(id) }

// Start 发布 battle_started 与第一回合的 round_started。重复调用是空操作。
func (b *Battle) Start(ctx context.Context) ([]event.Event, error) {
	if b.started {
		return nil, nil
	}
	b.started = true
	ctx = b.context(ctx)
	started := event.NewBattleEvent(event.KindBattleStarted, b.id, 0, b.now())
	b.publish(ctx, started)
	b.log.WithContext(ctx).Info("battle started", zap.Int("participants", len(b.participants)))

	events := append([]event.Event{started}, b.beginRound(ctx)...)
	over, err := b.checkOver(ctx)
	return append(events, over...), err
}

func (b *Battle) Attack(ctx context.Context, actorID, targetID utils.ID) (Result, error) {
	return b.UseAbility(ctx, actorID, combat.AbilityBasicAttack, targetID)
}

func (b *Battle) UseAbility(ctx context.Context, actorID utils.ID, abilityID string, targetID utils.ID) (Result, error) {
	ctx = b.context(ctx)
	if r, refused := b.precheck(ctx, actorID, abilityID); refused {
		return r, nil
	}
	target, ok := b.byID[targetID]
	if !ok {
		return b.refuse(ctx, abilityID, combat.Refuse(combat.ReasonUnknownTarget, targetID.String())), nil
	}
	actor := b.byID[actorID]
	at := b.now()

	out := combat.Resolve(combat.Observe(actor, b.cooldowns), combat.Observe(target, b.cooldowns),
		combat.Request{Ability: abilityID, At: at}, b.rules)
	if out.Refused() {
		return b.refuse(ctx, abilityID, out.Refusal), nil
	}

	committed, err := combat.Commit(b, out.Events, at)
	if err != nil {
		return b.fail(ctx, abilityID, err)
	}
	b.cooldowns.Record(committed, b.rules.Abilities)
	b.publish(ctx, committed...)

	tail, err := b.advance(ctx)
	if err != nil {
		return Result{Events: committed}, err
	}
	return Result{Events: append(committed, tail...)}, nil
}

// Wait 跳过当前角色的回合。
func (b *Battle) Wait(ctx context.Context, actorID utils.ID) (Result, error) {
	ctx = b.context(ctx)
	if r, refused := b.precheck(ctx, actorID, "wait"); refused {
		return r, nil
	}
	skipped := event.NewBattleEvent(event.KindTurnSkipped, b.id, b.round, b.now()).WithActor(actorID)
	b.publish(ctx, skipped)

	tail, err := b.advance(ctx)
	return Result{Events: append([]event.Event{skipped}, tail...)}, err
}

// MonsterTurns 依次执行怪物的回合，直到轮到玩家或战斗结束。
func (b *Battle) MonsterTurns(ctx context.Context) ([]Result, error) {
	var results []Result
	for guard := 0; guard < 4*len(b.participants)+1; guard++ {
		cur, ok := b.Current()
		if !ok || cur.IsPlayer() {
			return results, nil
		}
		self := combat.Observe(cur, b.cooldowns)
		allies, enemies := b.sides(cur)
		d := b.policy.Decide(self, allies, enemies, b.rules)

		var (
			res Result
			err error
		)
		if d.Wait {
			res, err = b.Wait(ctx, cur.ID())
		} else {
			res, err = b.UseAbility(ctx, cur.ID(), d.Ability, d.Target)
			if err == nil && res.Refused() {
				res, err = b.Wait(ctx, cur.ID())
			}
		}
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (b *Battle) sides(self *character.Character) (allies, enemies []combat.Combatant) {
	for _, c := range b.participants {
		if c.ID() == self.ID() {
			continue
		}
		view := combat.Observe(c, b.cooldowns)
		if c.Variant() == self.Variant() {
			allies = append(allies, view)
		} else {
			enemies = append(enemies, view)
		}
	}
	return allies, enemies
}

func (b *Battle) precheck(ctx context.Context, actorID utils.ID, action string) (Result, bool) {
	if b.over {
		return b.refuse(ctx, action, combat.Refuse(combat.ReasonBattleOver, string(b.outcome))), true
	}
	if _, ok := b.byID[actorID]; !ok {
		return b.refuse(ctx, action, combat.Refuse(combat.ReasonUnknownTarget, actorID.String())), true
	}
	cur, ok := b.Current()
	if !ok {
		return b.refuse(ctx, action, combat.Refuse(combat.ReasonNotYourTurn, "战斗未开始")), true
	}
	if cur.ID() != actorID {
		return b.refuse(ctx, action, combat.Refuse(combat.ReasonNotYourTurn, cur.Name())), true
	}
	return Result{}, false
}

// rewards 在胜利时把已死亡怪物的经验总和平分给存活玩家，余数按参战顺序逐个多给 1 点。
func (b *Battle) rewards(at time.Time) ([]event.Event, error) {
	var (
		total   int
		source  utils.ID
		winners []*character.Character
	)
	for _, c := range b.participants {
		switch {
		case c.IsPlayer() && c.Alive():
			winners = append(winners, c)
		case !c.IsPlayer() && !c.Alive() && c.ExperienceReward() > 0:
			total += c.ExperienceReward()
			source = c.ID()
		}
	}
	if total == 0 || len(winners) == 0 {
		return nil, nil
	}
	share, rest := total/len(winners), total%len(winners)
	grants := make([]event.CombatEvent, 0, len(winners))
	for i, c := range winners {
		amount := share
		if i < rest {
			amount++
		}
		if amount > 0 {
			grants = append(grants, event.NewCombatEvent(event.KindExperienceGained, source, c.ID(), amount, at))
		}
	}
	if len(grants) == 0 {
		return nil, nil
	}
	return combat.Commit(b, grants, at)
}

// advance 结束当前角色的回合：先判定胜负，再移动到下一个存活角色，必要时结束本回合。
func (b *Battle) advance(ctx context.Context) ([]event.Event, error) {
	if events, err := b.checkOver(ctx); err != nil || b.over {
		return events, err
	}
	b.cursor++
	b.skipDead()
	if b.cursor < len(b.order) {
		return nil, nil
	}
	events, err := b.endRound(ctx)
	if err != nil {
		return events, err
	}
	if b.over {
		return events, nil
	}
	return append(events, b.beginRound(ctx)...), nil
}

func (b *Battle) skipDead() {
	for b.cursor < len(b.order) && !b.byID[b.order[b.cursor]].Alive() {
		b.cursor++
	}
}

// endRound 走与动作相同的 结算 → 提交 → 发布 路径做被动回复，然后冷却递减。
func (b *Battle) endRound(ctx context.Context) ([]event.Event, error) {
	at := b.now()
	var regen []event.CombatEvent
	for _, c := range b.participants {
		regen = append(regen, combat.Regenerate(combat.Observe(c, b.cooldowns), b.regen.HealthPerRound, b.regen.EnergyPerRound, at)...)
	}
	var events []event.Event
	if len(regen) > 0 {
		committed, err := combat.Commit(b, regen, at)
		if err != nil {
			logx.ReportSysErrorWithLoggerContext(ctx, b.log, logx.NewSysLog("round_regen", err))
			return nil, err
		}
		b.publish(ctx, committed...)
		events = committed
	}
	b.cooldowns.Tick()

	ended := event.NewBattleEvent(event.KindRoundEnded, b.id, b.round, at)
	b.publish(ctx, ended)
	events = append(events, ended)
	over, err := b.checkOver(ctx)
	return append(events, over...), err
}

// beginRound 按敏捷降序（稳定排序，玩家在前）计算存活角色的行动顺序。
func (b *Battle) beginRound(ctx context.Context) []event.Event {
	b.round++
	b.cursor = 0
	b.order = b.order[:0]
	alive := make([]*character.Character, 0, len(b.participants))
	for _, c := range b.participants {
		if c.Alive() {
			alive = append(alive, c)
		}
	}
	slices.SortStableFunc(alive, func(x, y *character.Character) int {
		return cmp.Compare(y.Value(property.Agility), x.Value(property.Agility))
	})
	for _, c := range alive {
		b.order = append(b.order, c.ID())
	}

	started := event.NewBattleEvent(event.KindRoundStarted, b.id, b.round, b.now())
	b.publish(tracex.WithTurn(ctx, b.round, 1), started)
	return []event.Event{started}
}

// checkOver 在一方全灭时结束战斗并清空冷却，胜利时先发放经验。
func (b *Battle) checkOver(ctx context.Context) ([]event.Event, error) {
	if b.over {
		return nil, nil
	}
	playersAlive, monstersAlive := false, false
	for _, c := range b.participants {
		if !c.Alive() {
			continue
		}
		if c.IsPlayer() {
			playersAlive = true
		} else {
			monstersAlive = true
		}
	}
	switch {
	case !monstersAlive:
		b.outcome = event.OutcomeVictory
	case !playersAlive:
		b.outcome = event.OutcomeDefeat
	default:
		return nil, nil
	}
	b.over = true
	b.cooldowns.Clear()
	at := b.now()
	var events []event.Event
	if b.outcome == event.OutcomeVictory {
		granted, err := b.rewards(at)
		if err != nil {
			logx.ReportSysErrorWithLoggerContext(ctx, b.log, logx.NewSysLog("battle_rewards", err))
			return nil, err
		}
		b.publish(ctx, granted...)
		events = granted
	}
	ended := event.NewBattleEvent(event.KindBattleEnded, b.id, b.round, at).WithOutcome(b.outcome)
	b.publish(ctx, ended)
	b.log.WithContext(ctx).Info("battle ended", zap.String("outcome", string(b.outcome)), zap.Int("round", b.round))
	return append(events, ended), nil
}

func (b *Battle) refuse(ctx context.Context, action string, r combat.Refusal) Result {
	logx.ReportRefusalWithLoggerContext(ctx, b.log, logx.NewRefusalLog(action, r.ReasonCode(), r.Message()))
	return Result{Refusal: r}
}

func (b *Battle) fail(ctx context.Context, action string, err error) (Result, error) {
	logx.ReportSysErrorWithLoggerContext(ctx, b.log, logx.NewSysLog(action, err))
	return Result{}, err
}

func (b *Battle) publish(ctx context.Context, events ...event.Event) {
	b.bus.Publish(ctx, events...)
}

func (b *Battle) context(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tracex.WithBattleID(ctx, int64(b.id))
	return tracex.WithTurn(ctx, b.round, b.cursor+1)
}
