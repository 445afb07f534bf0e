package cli

import (
	"fmt"
	"io"
	"sync"
)

// Console 串行化对输出的写入；渲染器在 actor goroutine 中写，命令回复在主 goroutine 中写。
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = io.Discard
	}
	return &Console{w: w}
}

func (c *Console) Println(lines ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range lines {
		_, _ = fmt.Fprintln(c.w, l)
	}
}

func (c *Console) Printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, format, a...)
}
