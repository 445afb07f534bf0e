package tracex

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
)

type traceIDKey struct{}
type battleIDKey struct{}
type turnKey struct{}

// WithTraceID 给一次命令（一次动作请求）打上 trace_id，日志按它串联 validate → apply → publish。
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func TraceIDFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(traceIDKey{}).(string)
	return s, ok && s != ""
}

func WithBattleID(ctx context.Context, battleID int64) context.Context {
	return context.WithValue(ctx, battleIDKey{}, strconv.FormatInt(battleID, 10))
}

func BattleIDFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(battleIDKey{}).(string)
	return s, ok && s != ""
}

// WithTurn 记录 “第几回合-第几手”，例如 "3.2"。
func WithTurn(ctx context.Context, round, step int) context.Context {
	return context.WithValue(ctx, turnKey{}, strconv.Itoa(round)+"."+strconv.Itoa(step))
}

func TurnFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(turnKey{}).(string)
	return s, ok && s != ""
}

// NewTraceID 生成 16 字节随机 trace_id（hex）。
func NewTraceID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}
