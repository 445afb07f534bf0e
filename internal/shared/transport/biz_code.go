package transport

// BizCode 表示命令结果码的强类型封装，用于在日志上下文中减少误传风险。
type BizCode int

const (
	OK BizCode = iota
	// Refused 表示动作被规则拒绝（能量不足、目标已死亡等），属于正常游戏流程。
	Refused
	InvalidParam
	SystemError
)

func (c BizCode) String() string {
	switch c {
	case OK:
		return "ok"
	case Refused:
		return "refused"
	case InvalidParam:
		return "invalid_param"
	default:
		return "system_error"
	}
}
