package combat

// Reason 是动作被拒绝的原因，属于正常游戏流程，不是错误。
type Reason struct {
	Code    string
	Message string
}

func (r Reason) ReasonCode() string {
	return r.Code
}

func NewReason(c, m string) Reason {
	return Reason{
		Code:    c,
		Message: m,
	}
}

var (
	ReasonInsufficientEnergy = NewReason("INSUFFICIENT_ENERGY", "能量不足")
	ReasonActorDead          = NewReason("ACTOR_DEAD", "行动者已倒下")
	ReasonTargetDead         = NewReason("TARGET_DEAD", "目标已倒下")
	ReasonTargetAlive        = NewReason("TARGET_ALIVE", "目标仍然存活")
	ReasonUnknownAbility     = NewReason("UNKNOWN_ABILITY", "未知技能")
	ReasonAbilityNotKnown    = NewReason("ABILITY_NOT_KNOWN", "未掌握该技能")
	ReasonOnCooldown         = NewReason("ON_COOLDOWN", "技能冷却中")
	ReasonInvalidTarget      = NewReason("INVALID_TARGET", "目标不合法")
	ReasonUnknownTarget      = NewReason("UNKNOWN_TARGET", "目标不存在")
	ReasonNotYourTurn        = NewReason("NOT_YOUR_TURN", "还没轮到该角色行动")
	ReasonBattleOver         = NewReason("BATTLE_OVER", "战斗已结束")
	ReasonExpired            = NewReason("EXPIRED", "请求已过期，动作未执行")
)

// Refusal 是被拒绝动作的类型化结果；零值表示未拒绝。
type Refusal struct {
	Reason Reason
	Detail string
}

func Refuse(r Reason, detail string) Refusal {
	return Refusal{Reason: r, Detail: detail}
}

func (r Refusal) Refused() bool { return r.Reason.Code != "" }

func (r Refusal) ReasonCode() string { return r.Reason.Code }

func (r Refusal) Message() string {
	if r.Detail == "" {
		return r.Reason.Message
	}
	return r.Reason.Message + "：" + r.Detail
}
