package combat

import "TextRPG/modules/kit/errx"

type Code = errx.Code

const (
	CodeApplyFailed      Code = "COMBAT_APPLY_FAILED"
	CodeCharacterUnknown Code = "CHARACTER_UNKNOWN"
)

// 提交阶段的错误都是系统类：该回合失败，事件不发布。
var (
	ErrApplyFailed      = errx.NewSys(CodeApplyFailed, "战斗结果提交失败")
	ErrCharacterUnknown = errx.NewSys(CodeCharacterUnknown, "角色不存在")
)
