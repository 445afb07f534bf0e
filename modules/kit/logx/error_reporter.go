package logx

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RefusalLog 是动作被拒绝日志的强类型输入，避免参数顺序误传。
type RefusalLog struct {
	Action  string
	Reason  string
	Message string
}

// SysLog 是技术错误日志的强类型输入。
type SysLog struct {
	Action string
	Err    error
}

func NewRefusalLog(action, reason, message string) RefusalLog {
	return RefusalLog{Action: action, Reason: reason, Message: message}
}

func NewSysLog(action string, err error) SysLog {
	return SysLog{Action: action, Err: err}
}

// 命令结果码，对应 ReportCommandWithLoggerContext 的日志级别。
const (
	ResultOK      = "ok"
	ResultRefused = "refused"
	ResultFailed  = "failed"
)

// ReportCommandWithLoggerContext 记录一条命令日志：
// - ok: INFO
// - refused: WARN（预期内的游戏流程结果）
// - failed: ERROR
func ReportCommandWithLoggerContext(ctx context.Context, l Logger, action, result string, fields ...zap.Field) {
	if l == nil {
		return
	}
	base := []zap.Field{
		zap.String("log_type", "command"),
		zap.String("action", action),
		zap.String("result", result),
	}
	base = append(base, fields...)
	withCtx := l.WithContext(ctx)
	switch result {
	case ResultOK:
		withCtx.Info("command", base...)
	case ResultFailed:
		withCtx.Error("command", base...)
	default:
		withCtx.Warn("command", base...)
	}
}

// ReportRefusalWithLoggerContext 记录动作拒绝：INFO、err_type=refused、不带堆栈。
func ReportRefusalWithLoggerContext(ctx context.Context, l Logger, r RefusalLog, fields ...zap.Field) {
	if l == nil {
		return
	}
	action := r.Action
	if action == "" {
		action = "action_refused"
	}
	base := []zap.Field{
		zap.String("err_type", "refused"),
		zap.String("action", action),
	}
	if r.Reason != "" {
		base = append(base, zap.String("reason", r.Reason))
	}
	if r.Message != "" {
		base = append(base, zap.String("refusal_message", r.Message))
	}
	base = append(base, fields...)

	msg := action
	switch {
	case r.Reason != "" && r.Message != "":
		msg = fmt.Sprintf("%s, reason:%s, msg:%s", action, r.Reason, r.Message)
	case r.Reason != "":
		msg = fmt.Sprintf("%s, reason:%s", action, r.Reason)
	case r.Message != "":
		msg = fmt.Sprintf("%s, msg:%s", action, r.Message)
	}
	l.WithContext(ctx).Info(msg, base...)
}

// ReportSysErrorWithLoggerContext 记录技术错误日志：ERROR、err_type=sys，可附带栈信息。
func ReportSysErrorWithLoggerContext(ctx context.Context, l Logger, sys SysLog, fields ...zap.Field) {
	if sys.Err == nil || l == nil {
		return
	}
	action := sys.Action
	if action == "" {
		action = "sys_error"
	}

	meta := BuildErrorLog(sys.Err)
	base := []zap.Field{
		zap.String("err_type", "sys"),
		zap.String("action", action),
	}
	if meta.Code != "" {
		base = append(base, zap.String("error_code", meta.Code))
	}
	if len(meta.CauseChain) != 0 {
		base = append(base, zap.Strings("cause_chain", meta.CauseChain))
	}
	if len(meta.Data) != 0 {
		base = append(base, zap.Any("error_data", meta.Data))
	}
	if meta.Origin != "" {
		base = append(base, zap.String("origin_caller", meta.Origin))
	}
	if meta.Stack != "" {
		base = append(base, zap.String("stack_origin", meta.Stack))
	}
	base = append(base, fields...)

	finalMsg := fmt.Sprintf("%s, error:%s", action, meta.Error)
	if meta.Reason != "" {
		finalMsg = fmt.Sprintf("%s, reason:%s, error:%s", action, meta.Reason, meta.Error)
	} else if meta.Msg != "" {
		finalMsg = fmt.Sprintf("%s, error:%s, msg:%s", action, meta.Error, meta.Msg)
	}
	l.WithContext(ctx).Error(finalMsg, base...)
}
