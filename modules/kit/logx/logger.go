package logx

import (
	"context"

	"go.uber.org/zap"
)

// Logger 是各组件共用的最小日志接口。
//
// 约束：
// - 日志是可选注入的能力：组件拿到 nil 时用 Nop()，不强制耦合
// - 只承载结构化字段 + ctx 透传（trace_id / battle_id / turn）
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	WithContext(ctx context.Context) Logger
}

type nopLogger struct{}

func (nopLogger) Info(string, ...zap.Field)            {}
func (nopLogger) Error(string, ...zap.Field)           {}
func (nopLogger) Debug(string, ...zap.Field)           {}
func (nopLogger) Warn(string, ...zap.Field)            {}
func (n nopLogger) WithContext(context.Context) Logger { return n }

// Nop 返回丢弃一切输出的 Logger。
func Nop() Logger { return nopLogger{} }

// OrNop 在 l 为 nil 时回退到 Nop。
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}
