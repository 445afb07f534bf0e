package cli

import (
	"context"
	"strings"

	"TextRPG/internal/shared/transport"
	"TextRPG/modules/kit/logx"
)

// Command 是解析后的一行输入。
type Command struct {
	Name string
	Args []string
}

// Reply 是命令处理结果。Code 由 handler 设置，路由在出口据此写命令日志。
type Reply struct {
	Code  transport.BizCode
	Msg   string
	Lines []string
	Quit  bool
	// Over 表示这条命令之后战斗已结束。
	Over  bool
}

type HandlerFunc func(ctx context.Context, cmd *Command, reply *Reply)

type Router struct {
	handlers map[string]HandlerFunc
	aliases  map[string]string
	log      logx.Logger
}

func NewRouter(l logx.Logger) *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		aliases:  make(map[string]string),
		log:      logx.OrNop(l),
	}
}

// Handle 注册命令及其别名。
func (r *Router) Handle(name string, h HandlerFunc, aliases ...string) {
	r.handlers[name] = h
	for _, a := range aliases {
		r.aliases[a] = name
	}
}

// Dispatch 解析一行输入并调用对应 handler。空行返回 nil。
func (r *Router) Dispatch(parent context.Context, line string) *Reply {
	cmd, ok := parseLine(line)
	if !ok {
		return nil
	}
	ctx := transport.NewContextWithParent(parent, "CLI "+cmd.Name)
	// 先置系统错误，避免 handler 漏设时出现“成功假象”。
	reply := &Reply{Code: transport.SystemError}
	defer r.writeCommandLog(ctx, reply)

	h := r.findHandler(cmd.Name)
	if h == nil {
		reply.Code = transport.InvalidParam
		reply.Msg = "未知命令：" + cmd.Name + "，输入 help 查看可用命令"
		return reply
	}
	h(ctx, cmd, reply)
	return reply
}

func (r *Router) findHandler(name string) HandlerFunc {
	if h := r.handlers[name]; h != nil {
		return h
	}
	if target, ok := r.aliases[name]; ok {
		return r.handlers[target]
	}
	return nil
}

func parseLine(line string) (*Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false
	}
	return &Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

func (r *Router) writeCommandLog(ctx context.Context, reply *Reply) {
	transport.SetBizCode(ctx, reply.Code)
	if reply.Code != transport.OK {
		transport.SetErrorReason(ctx, reply.Msg)
	}
	transport.WriteCommandLog(ctx, r.log)
}
