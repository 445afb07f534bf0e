package actor

import (
	"context"
	"time"

	"TextRPG/internal/battle"
	"TextRPG/internal/combat"
	"TextRPG/modules/kit/logx"

	protoactor "github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// battleActor 独占一场战斗；protoactor 保证同一时刻只有一条消息在处理。
type battleActor struct {
	b   *battle.Battle
	log logx.Logger
	now func() time.Time
}

func newBattleActor(b *battle.Battle, l logx.Logger, now func() time.Time) *battleActor {
	return &battleActor{b: b, log: logx.OrNop(l), now: now}
}

func (a *battleActor) Receive(ctx protoactor.Context) {
	msg, ok := ctx.Message().(*envelope)
	if !ok {
		return
	}
	ctx.Respond(a.handle(msg))
}

func (a *battleActor) handle(msg *envelope) *Response {
	c := msg.ctx
	if c == nil {
		c = context.Background()
	}
	switch msg.kind {
	case msgStart:
		events, err := a.b.Start(c)
		resp := &Response{Events: events, Err: err}
		if err == nil && !a.b.Over() {
			monsters, err := a.b.MonsterTurns(c)
			resp.Monsters, resp.Err = monsters, err
		}
		resp.Status = a.b.Status()
		return resp
	case msgStatus:
		return &Response{Status: a.b.Status()}
	case msgAction:
		return a.act(c, msg)
	default:
		return &Response{Status: a.b.Status()}
	}
}

func (a *battleActor) act(c context.Context, msg *envelope) *Response {
	if !msg.deadline.IsZero() && a.now().After(msg.deadline) {
		r := combat.Refuse(combat.ReasonExpired, msg.req.Command.String())
		logx.ReportRefusalWithLoggerContext(c, a.log, logx.NewRefusalLog(msg.req.Command.String(), r.ReasonCode(), r.Message()),
			zap.Time("deadline", msg.deadline))
		return &Response{Result: battle.Result{Refusal: r}, Status: a.b.Status()}
	}

	var (
		res battle.Result
		err error
	)
	switch msg.req.Command {
	case CommandAttack:
		res, err = a.b.Attack(c, msg.req.Actor, msg.req.Target)
	case CommandUseAbility:
		res, err = a.b.UseAbility(c, msg.req.Actor, msg.req.Ability, msg.req.Target)
	case CommandWait:
		res, err = a.b.Wait(c, msg.req.Actor)
	default:
		res = battle.Result{Refusal: combat.Refuse(combat.ReasonUnknownAbility, msg.req.Command.String())}
	}
	resp := &Response{Result: res, Err: err}
	if err == nil && !res.Refused() && !a.b.Over() {
		resp.Monsters, resp.Err = a.b.MonsterTurns(c)
	}
	resp.Status = a.b.Status()
	return resp
}
