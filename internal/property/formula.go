package property

import (
	"math"
	"sort"
)

// Context 是公式可见的只读视图，不暴露任何修改入口。
type Context interface {
	Get(name string) (int, error)
}

// Formula 从同一容器内的其他属性计算派生值。
// 实现是封闭集合：Linear / Growth / Power。
type Formula interface {
	Deps() []string
	Eval(ctx Context) (int, error)
}

type Term struct {
	Name string
	Coef float64
}

// Linear 计算 floor(Constant + Σ Coef·value(Name))。
type Linear struct {
	Constant float64
	Terms    []Term
}

// NewLinear 把无序的系数表转成按名字排序的 Linear，保证依赖顺序稳定。
func NewLinear(constant float64, terms map[string]float64) Linear {
	names := make([]string, 0, len(terms))
	for n := range terms {
		names = append(names, n)
	}
	sort.Strings(names)
	out := Linear{Constant: constant, Terms: make([]Term, 0, len(names))}
	for _, n := range names {
		out.Terms = append(out.Terms, Term{Name: n, Coef: terms[n]})
	}
	return out
}

func (f Linear) Deps() []string {
	out := make([]string, 0, len(f.Terms))
	for _, t := range f.Terms {
		out = append(out, t.Name)
	}
	return out
}

func (f Linear) Eval(ctx Context) (int, error) {
	sum := f.Constant
	for _, t := range f.Terms {
		v, err := ctx.Get(t.Name)
		if err != nil {
			return 0, err
		}
		sum += t.Coef * float64(v)
	}
	return int(math.Floor(sum)), nil
}

// Growth 计算 round(Base + Base·Rate·(value(Of)-1))，用于按等级成长的属性。
type Growth struct {
	Of   string
	Base float64
	Rate float64
}

func (f Growth) Deps() []string { return []string{f.Of} }

func (f Growth) Eval(ctx Context) (int, error) {
	lvl, err := ctx.Get(f.Of)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f.Base + f.Base*f.Rate*float64(lvl-1))), nil
}

// Power 计算 int(Base·value(Of)^Exponent)，用于升级经验阈值。
type Power struct {
	Of       string
	Base     float64
	Exponent float64
}

func (f Power) Deps() []string { return []string{f.Of} }

func (f Power) Eval(ctx Context) (int, error) {
	v, err := ctx.Get(f.Of)
	if err != nil {
		return 0, err
	}
	return int(f.Base * math.Pow(float64(v), f.Exponent)), nil
}
