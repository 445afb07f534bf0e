package actor

import (
	"context"
	"errors"
	"time"

	"TextRPG/internal/battle"
	"TextRPG/internal/event"
	"TextRPG/internal/shared/transport"
	"TextRPG/modules/kit/errx"
	"TextRPG/modules/kit/logx"

	protoactor "github.com/asynkron/protoactor-go/actor"
)

const defaultAskTimeout = 3 * time.Second

type RuntimeError struct {
	Code    transport.BizCode
	Message string
	Cause   error
}

func (e *RuntimeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RuntimeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Runtime 把一场战斗托管在单个 actor 中：所有命令进入同一个邮箱，逐条处理完再处理下一条，
// 因此属性容器不需要加锁。
type Runtime struct {
	system  *protoactor.ActorSystem
	root    *protoactor.RootContext
	battle  *protoactor.PID
	timeout time.Duration
	now     func() time.Time
}

func NewRuntime(b *battle.Battle, l logx.Logger, askTimeout time.Duration) *Runtime {
	if askTimeout <= 0 {
		askTimeout = defaultAskTimeout
	}
	system := protoactor.NewActorSystem()
	root := system.Root
	props := protoactor.PropsFromProducer(func() protoactor.Actor {
		return newBattleActor(b, l, time.Now)
	})
	pid := root.Spawn(props)

	return &Runtime{
		system:  system,
		root:    root,
		battle:  pid,
		timeout: askTimeout,
		now:     time.Now,
	}
}

func (r *Runtime) Shutdown() {
	if r == nil {
		return
	}
	if r.root != nil && r.battle != nil {
		r.root.Stop(r.battle)
	}
	if r.system != nil {
		r.system.Shutdown()
	}
}

// Start 开始战斗并返回开场事件。
func (r *Runtime) Start(ctx context.Context) (*Response, error) {
	return r.ask(ctx, &envelope{ctx: ctx, kind: msgStart})
}

// Status 读取战斗状态。
func (r *Runtime) Status(ctx context.Context) (battle.Status, error) {
	resp, err := r.ask(ctx, &envelope{ctx: ctx, kind: msgStatus})
	if err != nil {
		return battle.Status{}, err
	}
	return resp.Status, nil
}

// Handle 执行一条玩家命令，随后在同一条消息内跑完怪物回合。
// 请求携带截止时间：actor 取到消息时已过期则拒绝为 EXPIRED，不会执行；开始执行的动作一定完成。
func (r *Runtime) Handle(ctx context.Context, req Request) (*Response, error) {
	if req.Command == 0 {
		return nil, &RuntimeError{Code: transport.InvalidParam, Message: "battle request 不能为空"}
	}
	timeout := r.timeoutFromContext(ctx)
	deadline := r.now().Add(timeout)
	if d, ok := ctxDeadline(ctx); ok && d.Before(deadline) {
		deadline = d
	}
	return r.askWithTimeout(&envelope{ctx: ctx, kind: msgAction, req: req, deadline: deadline}, timeout)
}

func (r *Runtime) ask(ctx context.Context, msg *envelope) (*Response, error) {
	return r.askWithTimeout(msg, r.timeoutFromContext(ctx))
}

func (r *Runtime) askWithTimeout(msg *envelope, timeout time.Duration) (*Response, error) {
	res, err := r.request(r.battle, msg, timeout)
	if err != nil {
		return nil, err
	}
	resp, ok := res.(*Response)
	if !ok {
		return nil, &RuntimeError{Code: transport.SystemError, Message: "actor 返回类型非法"}
	}
	if resp.Err != nil {
		return resp, &RuntimeError{Code: transport.SystemError, Message: "战斗动作执行失败", Cause: resp.Err}
	}
	return resp, nil
}

func (r *Runtime) request(pid *protoactor.PID, msg any, timeout time.Duration) (any, error) {
	if r == nil || r.root == nil {
		return nil, &RuntimeError{Code: transport.SystemError, Message: "actor runtime 未初始化", Cause: errx.ErrUnavailable}
	}
	if pid == nil {
		return nil, &RuntimeError{Code: transport.SystemError, Message: "actor pid 为空", Cause: errx.ErrUnavailable}
	}
	future := r.root.RequestFuture(pid, msg, timeout)
	res, err := future.Result()
	if err != nil {
		cause := errx.ErrUnavailable.WithCause(err)
		if errors.Is(err, protoactor.ErrTimeout) {
			cause = errx.ErrTimeout.WithCause(err).WithData("timeout", timeout.String())
		}
		return nil, &RuntimeError{Code: transport.SystemError, Message: "actor 请求失败", Cause: cause}
	}
	return res, nil
}

func (r *Runtime) timeoutFromContext(ctx context.Context) time.Duration {
	if r == nil || r.timeout <= 0 {
		return defaultAskTimeout
	}
	deadline, ok := ctxDeadline(ctx)
	if !ok {
		return r.timeout
	}
	remain := time.Until(deadline)
	if remain <= 0 {
		return time.Millisecond
	}
	if remain < r.timeout {
		return remain
	}
	return r.timeout
}

func ctxDeadline(ctx context.Context) (time.Time, bool) {
	if ctx == nil {
		return time.Time{}, false
	}
	return ctx.Deadline()
}

// CodeFromError 把运行时错误映射为命令结果码。
func CodeFromError(err error) transport.BizCode {
	if err == nil {
		return transport.OK
	}
	var re *RuntimeError
	if errors.As(err, &re) && re != nil {
		return re.Code
	}
	return transport.SystemError
}

// AllEvents 展开响应中的全部事件，按发生顺序。
func (resp *Response) AllEvents() []event.Event {
	if resp == nil {
		return nil
	}
	out := append([]event.Event(nil), resp.Events...)
	out = append(out, resp.Result.Events...)
	for _, m := range resp.Monsters {
		out = append(out, m.Events...)
	}
	return out
}
