package event

import (
	"context"
	"fmt"
	"sync"

	"TextRPG/modules/kit/logx"

	"go.uber.org/zap"
)

// Handler 处理一个事件；返回的错误只会被记录，不会影响其他订阅者。
type Handler func(ctx context.Context, e Event) error

// Subscription 是订阅句柄，用于退订。
type Subscription struct {
	id   uint64
	kind Kind
	all  bool
}

func (s Subscription) Kind() Kind { return s.kind }

type subscriber struct {
	sub     Subscription
	handler Handler
}

// Bus 是进程内同步发布/订阅中心。
//
// 约束：
// - 同步投递，同一事件按订阅顺序调用
// - 订阅者报错或 panic 被隔离并记录，不向发布者传播
// - 不持久化，不重放
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
	log    logx.Logger
}

func NewBus(l logx.Logger) *Bus {
	return &Bus{log: logx.OrNop(l)}
}

func (b *Bus) Subscribe(kind Kind, h Handler) Subscription {
	return b.add(Subscription{kind: kind}, h)
}

// SubscribeAll 订阅所有类型的事件。
func (b *Bus) SubscribeAll(h Handler) Subscription {
	return b.add(Subscription{all: true}, h)
}

func (b *Bus) add(sub Subscription, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub.id = b.nextID
	b.subs = append(b.subs, subscriber{sub: sub, handler: h})
	return sub
}

// Unsubscribe 移除订阅，返回是否找到。
func (b *Bus) Unsubscribe(sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.sub.id == sub.id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish 按顺序投递每个事件。投递期间新增的订阅从下一个 Publish 开始生效。
func (b *Bus) Publish(ctx context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, e := range events {
		if e == nil {
			continue
		}
		for _, s := range subs {
			if !s.sub.all && s.sub.kind != e.Kind() {
				continue
			}
			b.deliver(ctx, s, e)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, s subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithContext(ctx).Error("event handler panic",
				zap.String("event_kind", string(e.Kind())),
				zap.Uint64("subscription", s.sub.id),
				zap.String("panic", fmt.Sprint(r)),
				zap.Stack("stack"),
			)
		}
	}()
	if err := s.handler(ctx, e); err != nil {
		logx.ReportSysErrorWithLoggerContext(ctx, b.log, logx.NewSysLog("event_handler", err),
			zap.String("event_kind", string(e.Kind())),
			zap.Uint64("subscription", s.sub.id),
		)
	}
}
