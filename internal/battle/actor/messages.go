package actor

import (
	"context"
	"time"

	"TextRPG/internal/battle"
	"TextRPG/internal/event"
	"TextRPG/internal/shared/utils"
)

// Command 是玩家可以发出的动作。
type Command uint8

const (
	CommandAttack Command = iota + 1
	CommandUseAbility
	CommandWait
)

func (c Command) String() string {
	switch c {
	case CommandAttack:
		return "attack"
	case CommandUseAbility:
		return "use"
	case CommandWait:
		return "wait"
	default:
		return "unknown"
	}
}

type Request struct {
	Command Command
	Actor   utils.ID
	Ability string
	Target  utils.ID
}

// Response 汇总一条消息的处理结果：玩家动作、随后的怪物回合与最新状态。
type Response struct {
	Events   []event.Event
	Result   battle.Result
	Monsters []battle.Result
	Status   battle.Status
	Err      error
}

type msgKind uint8

const (
	msgStart msgKind = iota + 1
	msgAction
	msgStatus
)

// envelope 是投递给 battle actor 的消息；ctx 只用于日志串联，不用于取消已开始的动作。
type envelope struct {
	ctx      context.Context
	kind     msgKind
	req      Request
	deadline time.Time
}
