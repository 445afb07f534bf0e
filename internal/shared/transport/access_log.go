package transport

import (
	"context"
	"time"

	"TextRPG/modules/kit/logx"
	"TextRPG/modules/kit/tracex"

	"go.uber.org/zap"
)

// CommandLog 是单条命令的日志上下文，由命令路由在入口创建、出口输出。
type CommandLog struct {
	BizCode     BizCode
	ErrorReason string
	startTime   time.Time
	action      string
}

type commandLogKey struct{}

// NewContextWithParent 创建带 CommandLog 的新 context，保留父 context 的取消/超时信号与已有的 battle_id。
func NewContextWithParent(parent context.Context, action string) context.Context {
	ctx := parent
	if ctx == nil {
		ctx = context.Background()
	}
	if action == "" {
		action = "unknown"
	}
	if traceID := tracex.NewTraceID(); traceID != "" {
		ctx = tracex.WithTraceID(ctx, traceID)
	}

	cl := &CommandLog{
		// 先置系统错误，避免 handler 漏设时出现“成功假象”。
		BizCode:   SystemError,
		startTime: time.Now(),
		action:    action,
	}
	return context.WithValue(ctx, commandLogKey{}, cl)
}

func FromContext(ctx context.Context) *CommandLog {
	if ctx == nil {
		return nil
	}
	cl, _ := ctx.Value(commandLogKey{}).(*CommandLog)
	return cl
}

func SetBizCode(ctx context.Context, code BizCode) {
	if cl := FromContext(ctx); cl != nil {
		cl.BizCode = code
	}
}

// SetErrorReason 记录失败/拒绝原因。
func SetErrorReason(ctx context.Context, reason string) {
	if reason == "" {
		return
	}
	if cl := FromContext(ctx); cl != nil {
		cl.ErrorReason = reason
	}
}

// WriteCommandLog 输出命令日志（建议在路由 defer 调用）。
func WriteCommandLog(ctx context.Context, log logx.Logger) {
	cl := FromContext(ctx)
	if cl == nil || log == nil {
		return
	}

	fields := []zap.Field{
		zap.Duration("latency", time.Since(cl.startTime)),
		zap.String("biz_code", cl.BizCode.String()),
	}
	if cl.BizCode != OK && cl.ErrorReason != "" {
		fields = append(fields, zap.String("error_reason", cl.ErrorReason))
	}
	logx.ReportCommandWithLoggerContext(ctx, log, cl.action, resultOf(cl.BizCode), fields...)
}

func resultOf(code BizCode) string {
	switch code {
	case OK:
		return logx.ResultOK
	case Refused, InvalidParam:
		return logx.ResultRefused
	default:
		return logx.ResultFailed
	}
}
