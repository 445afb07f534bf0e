package property

import (
	"fmt"
	"math"
)

// Kind 是属性的种类，决定哪些操作合法：
// - base：直接设置或增减（等级、经验）
// - derived：只能由公式重算（攻击力、最大生命）
// - resource：可增减，上限可以来自另一个属性（生命、能量）
type Kind uint8

const (
	KindBase Kind = iota + 1
	KindDerived
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindDerived:
		return "derived"
	case KindResource:
		return "resource"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "base":
		return KindBase, nil
	case "derived":
		return KindDerived, nil
	case "resource":
		return KindResource, nil
	default:
		return 0, fmt.Errorf("unknown property kind %q", s)
	}
}

// Unbounded 表示没有上限。
const Unbounded = math.MaxInt32

// 常用属性名。
const (
	Level            = "level"
	Experience       = "experience"
	ExperienceToNext = "experience_to_next"
	Strength         = "strength"
	Agility          = "agility"
	Intelligence     = "intelligence"
	Vitality         = "vitality"
	MaxHealth        = "max_health"
	Health           = "health"
	MaxEnergy        = "max_energy"
	Energy           = "energy"
	AttackPower      = "attack_power"
	Defense          = "defense"
)

// Def 声明一个属性。MaxFrom 非空时 Max 被忽略，上限在每次重算时从该属性读取。
type Def struct {
	Name      string
	Kind      Kind
	Base      int
	Min       int
	Max       int
	MaxFrom   string
	StartFull bool
	Formula   Formula
}

// Property 是单个有界数值属性，不变量：min ≤ current ≤ max。
type Property struct {
	name      string
	kind      Kind
	current   int
	base      int
	min       int
	max       int
	maxFrom   string
	startFull bool
	formula   Formula
	dirty     bool
}

func New(def Def) (*Property, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("property name is empty")
	}
	switch def.Kind {
	case KindDerived:
		if def.Formula == nil {
			return nil, ErrMissing.WithDataMap(map[string]any{"property": def.Name, "detail": "derived property without formula"})
		}
	case KindBase, KindResource:
		if def.Formula != nil {
			return nil, fmt.Errorf("property %q: formula on non-derived property", def.Name)
		}
	default:
		return nil, fmt.Errorf("property %q: unknown kind %d", def.Name, def.Kind)
	}
	if def.MaxFrom == def.Name && def.Name != "" {
		return nil, ErrCyclic.WithData("cycle", []string{def.Name})
	}

	hi := def.Max
	if def.MaxFrom != "" {
		hi = Unbounded
	}
	if def.Min > hi {
		return nil, outOfRange(def.Name, def.Min, def.Min, hi)
	}
	if def.Kind != KindDerived && (def.Base < def.Min || def.Base > hi) {
		return nil, outOfRange(def.Name, def.Base, def.Min, hi)
	}

	p := &Property{
		name:      def.Name,
		kind:      def.Kind,
		base:      def.Base,
		current:   def.Base,
		min:       def.Min,
		max:       hi,
		maxFrom:   def.MaxFrom,
		startFull: def.StartFull,
		formula:   def.Formula,
	}
	if p.kind == KindDerived {
		p.current = p.min
	}
	return p, nil
}

func (p *Property) Name() string    { return p.name }
func (p *Property) Kind() Kind      { return p.kind }
func (p *Property) Get() int        { return p.current }
func (p *Property) Base() int       { return p.base }
func (p *Property) Min() int        { return p.min }
func (p *Property) Max() int        { return p.max }
func (p *Property) MaxFrom() string { return p.maxFrom }
func (p *Property) Dirty() bool     { return p.dirty }

// Deps 返回该属性读取的其他属性：公式依赖加上动态上限来源。
func (p *Property) Deps() []string {
	var out []string
	if p.formula != nil {
		out = append(out, p.formula.Deps()...)
	}
	if p.maxFrom != "" {
		out = append(out, p.maxFrom)
	}
	return out
}

// SetBase 设置基础值并同步当前值；越界直接拒绝，不做钳制。
func (p *Property) SetBase(v int) error {
	if p.kind == KindDerived {
		return readOnly(p.name)
	}
	if v < p.min || v > p.max {
		return outOfRange(p.name, v, p.min, p.max)
	}
	p.base = v
	p.set(v)
	return nil
}

// ApplyDelta 把 current+d 钳制到 [min,max]，返回值是否变化。派生属性忽略 delta。
func (p *Property) ApplyDelta(d int) bool {
	if p.kind == KindDerived || d == 0 {
		return false
	}
	return p.set(clamp(p.current+d, p.min, p.max))
}

// Recompute 重新读取动态上限并按公式重算。非派生属性只做钳制，不会抬高当前值。
func (p *Property) Recompute(ctx Context) error {
	if p.maxFrom != "" {
		hi, err := ctx.Get(p.maxFrom)
		if err != nil {
			return err
		}
		p.max = max(hi, p.min)
	}
	if p.kind != KindDerived {
		p.set(clamp(p.current, p.min, p.max))
		return nil
	}
	v, err := p.formula.Eval(ctx)
	if err != nil {
		return err
	}
	p.set(clamp(v, p.min, p.max))
	return nil
}

func (p *Property) fill() {
	p.set(p.max)
}

func (p *Property) set(v int) bool {
	if v == p.current {
		return false
	}
	p.current = v
	p.dirty = true
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
