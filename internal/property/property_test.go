package property

import (
	"errors"
	"testing"
)

type mapCtx map[string]int

func (m mapCtx) Get(name string) (int, error) {
	v, ok := m[name]
	if !ok {
		return 0, missing(name)
	}
	return v, nil
}

func TestApplyDelta_钳制到边界(t *testing.T) {
	p, err := New(Def{Name: "hp", Kind: KindResource, Base: 10, Min: 0, Max: 10})
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	for _, d := range []int{-15, 3, 100, -1, -1000} {
		p.ApplyDelta(d)
		if p.Get() < p.Min() || p.Get() > p.Max() {
			t.Fatalf("期望 min≤current≤max, got=%d [%d,%d]", p.Get(), p.Min(), p.Max())
		}
	}
	if p.Get() != 0 {
		t.Fatalf("期望最终钳制到 0, got=%d", p.Get())
	}
}

func TestApplyDelta_值变化才标脏(t *testing.T) {
	p, _ := New(Def{Name: "hp", Kind: KindResource, Base: 10, Min: 0, Max: 10})
	if p.ApplyDelta(5) || p.Dirty() {
		t.Fatalf("期望已满时 +5 不变化也不标脏")
	}
	if !p.ApplyDelta(-1) || !p.Dirty() {
		t.Fatalf("期望 -1 后标脏")
	}
}

func TestSetBase_越界拒绝且不修改(t *testing.T) {
	p, _ := New(Def{Name: "level", Kind: KindBase, Base: 1, Min: 1, Max: 10})
	err := p.SetBase(11)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("期望 ErrOutOfRange, got=%v", err)
	}
	if p.Get() != 1 || p.Base() != 1 {
		t.Fatalf("期望值不变, got=%d/%d", p.Get(), p.Base())
	}
	if err := p.SetBase(4); err != nil || p.Get() != 4 {
		t.Fatalf("期望设置成功 current=4, got=%d err=%v", p.Get(), err)
	}
}

func TestSetBase_派生属性只读(t *testing.T) {
	p, _ := New(Def{Name: "atk", Kind: KindDerived, Max: Unbounded, Formula: NewLinear(0, map[string]float64{"str": 2})})
	if err := p.SetBase(3); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly, got=%v", err)
	}
}

func TestRecompute_幂等(t *testing.T) {
	p, _ := New(Def{Name: "atk", Kind: KindDerived, Max: Unbounded, Formula: NewLinear(1, map[string]float64{"str": 1.5})})
	ctx := mapCtx{"str": 7}
	if err := p.Recompute(ctx); err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	first := p.Get()
	if err := p.Recompute(ctx); err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if p.Get() != first || first != 11 {
		t.Fatalf("期望两次重算都是 11, got=%d/%d", first, p.Get())
	}
}

func TestRecompute_动态上限不抬高当前值(t *testing.T) {
	p, _ := New(Def{Name: "hp", Kind: KindResource, Base: 30, MaxFrom: "max_hp"})
	if err := p.Recompute(mapCtx{"max_hp": 50}); err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if p.Get() != 30 || p.Max() != 50 {
		t.Fatalf("期望 current=30 max=50, got=%d/%d", p.Get(), p.Max())
	}
	_ = p.Recompute(mapCtx{"max_hp": 20})
	if p.Get() != 20 || p.Max() != 20 {
		t.Fatalf("期望上限下降时钳制 current=20, got=%d/%d", p.Get(), p.Max())
	}
}

func TestRecompute_缺失依赖返回错误(t *testing.T) {
	p, _ := New(Def{Name: "xp_next", Kind: KindDerived, Max: Unbounded, Formula: Power{Of: "level", Base: 100, Exponent: 1.5}})
	if err := p.Recompute(mapCtx{}); !errors.Is(err, ErrMissing) {
		t.Fatalf("期望 ErrMissing, got=%v", err)
	}
}

func TestFormula_成长与经验阈值(t *testing.T) {
	g := Growth{Of: "level", Base: 10, Rate: 0.1}
	if v, _ := g.Eval(mapCtx{"level": 1}); v != 10 {
		t.Fatalf("期望 1 级成长值 10, got=%d", v)
	}
	if v, _ := g.Eval(mapCtx{"level": 6}); v != 15 {
		t.Fatalf("期望 6 级成长值 15, got=%d", v)
	}
	pw := Power{Of: "level", Base: 100, Exponent: 1.5}
	if v, _ := pw.Eval(mapCtx{"level": 2}); v != 282 {
		t.Fatalf("期望 2 级阈值 282, got=%d", v)
	}
}

func TestNew_非法定义(t *testing.T) {
	if _, err := New(Def{Name: "d", Kind: KindDerived}); err == nil {
		t.Fatalf("期望派生属性缺公式返回错误")
	}
	if _, err := New(Def{Name: "x", Kind: KindBase, Base: 5, Min: 0, Max: 3}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("期望基础值越界返回 ErrOutOfRange, got=%v", err)
	}
	if _, err := New(Def{Name: "x", Kind: KindBase, Min: 5, Max: 3}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("期望 min>max 返回 ErrOutOfRange, got=%v", err)
	}
	if _, err := New(Def{Name: "hp", Kind: KindResource, MaxFrom: "hp"}); !errors.Is(err, ErrCyclic) {
		t.Fatalf("期望上限引用自身返回 ErrCyclic, got=%v", err)
	}
}
