package property

import "slices"

// Delta 是一次批量修改中的单个增量。
type Delta struct {
	Name   string
	Amount int
}

// Change 描述一个属性在一次批量修改后的值或边界变化。
type Change struct {
	Name string
	Old  int
	New  int
	Min  int
	Max  int
}

// Container 拥有一个角色的全部属性，并按依赖拓扑序重算。
//
// 约束：
// - 构造期拒绝重复、缺失引用与依赖环
// - 每个批次内，受影响的派生属性按拓扑序各重算一次
// - 批次失败时整体回滚
type Container struct {
	props      map[string]*Property
	decl       []string
	order      []string
	dependents map[string][]string
	view       view
}

// view 是交给公式的只读上下文，避免公式通过类型断言拿到容器。
type view struct {
	c *Container
}

func (v view) Get(name string) (int, error) {
	return v.c.Get(name)
}

func NewContainer(defs ...Def) (*Container, error) {
	c := &Container{
		props:      make(map[string]*Property, len(defs)),
		decl:       make([]string, 0, len(defs)),
		dependents: make(map[string][]string, len(defs)),
	}
	c.view = view{c: c}

	for _, def := range defs {
		if _, dup := c.props[def.Name]; dup {
			return nil, ErrDuplicate.WithData("property", def.Name)
		}
		p, err := New(def)
		if err != nil {
			return nil, err
		}
		c.props[def.Name] = p
		c.decl = append(c.decl, def.Name)
	}

	indeg := make(map[string]int, len(c.decl))
	for _, name := range c.decl {
		for _, dep := range uniq(c.props[name].Deps()) {
			if _, ok := c.props[dep]; !ok {
				return nil, missing(dep).WithData("referenced_by", name)
			}
			c.dependents[dep] = append(c.dependents[dep], name)
			indeg[name]++
		}
	}

	order, rest := topoSort(c.decl, indeg, c.dependents)
	if len(rest) > 0 {
		return nil, ErrCyclic.WithData("cycle", cycleMembers(rest, c.dependents))
	}
	c.order = order

	for _, name := range c.order {
		p := c.props[name]
		if err := p.Recompute(c.view); err != nil {
			return nil, err
		}
		if p.startFull {
			p.fill()
		}
	}
	c.ClearDirty()
	return c, nil
}

// topoSort 是 Kahn 算法，同层按声明顺序出队；返回排序结果与无法出队的剩余节点。
func topoSort(decl []string, indeg map[string]int, dependents map[string][]string) ([]string, []string) {
	remaining := make(map[string]int, len(indeg))
	for k, v := range indeg {
		remaining[k] = v
	}
	done := make(map[string]bool, len(decl))
	order := make([]string, 0, len(decl))
	for len(order) < len(decl) {
		next := ""
		for _, name := range decl {
			if !done[name] && remaining[name] == 0 {
				next = name
				break
			}
		}
		if next == "" {
			break
		}
		done[next] = true
		order = append(order, next)
		for _, d := range dependents[next] {
			remaining[d]--
		}
	}
	var rest []string
	for _, name := range decl {
		if !done[name] {
			rest = append(rest, name)
		}
	}
	return order, rest
}

// cycleMembers 从剩余节点里剔除只挂在环下游、自身不在环上的节点。
func cycleMembers(rest []string, dependents map[string][]string) []string {
	in := make(map[string]bool, len(rest))
	for _, n := range rest {
		in[n] = true
	}
	for changed := true; changed; {
		changed = false
		for _, n := range rest {
			if !in[n] {
				continue
			}
			feeds := false
			for _, d := range dependents[n] {
				if in[d] {
					feeds = true
					break
				}
			}
			if !feeds {
				in[n] = false
				changed = true
			}
		}
	}
	out := make([]string, 0, len(rest))
	for _, n := range rest {
		if in[n] {
			out = append(out, n)
		}
	}
	return out
}

func (c *Container) Get(name string) (int, error) {
	p, ok := c.props[name]
	if !ok {
		return 0, missing(name)
	}
	return p.current, nil
}

// Value 返回当前值；属性不存在时返回 0。
func (c *Container) Value(name string) int {
	if p, ok := c.props[name]; ok {
		return p.current
	}
	return 0
}

func (c *Container) Has(name string) bool {
	_, ok := c.props[name]
	return ok
}

// Lookup 返回属性的只读拷贝。
func (c *Container) Lookup(name string) (Property, bool) {
	p, ok := c.props[name]
	if !ok {
		return Property{}, false
	}
	return *p, true
}

// Names 按声明顺序返回属性名。
func (c *Container) Names() []string { return slices.Clone(c.decl) }

// Order 按重算顺序返回属性名。
func (c *Container) Order() []string { return slices.Clone(c.order) }

// Validate 检查一批 delta 的目标都存在且可写，不做任何修改。
func (c *Container) Validate(deltas ...Delta) error {
	for _, d := range deltas {
		p, ok := c.props[d.Name]
		if !ok {
			return missing(d.Name)
		}
		if p.kind == KindDerived {
			return readOnly(d.Name)
		}
	}
	return nil
}

// Apply 是一次批量修改：先整体校验，再按序施加 delta，最后对所有受影响属性做一次拓扑序重算。
// 上限来源在本批次内被重算的资源属性，其 delta 推迟到重算之后施加，按新边界钳制。
func (c *Container) Apply(deltas ...Delta) ([]Change, error) {
	if len(deltas) == 0 {
		return nil, nil
	}
	if err := c.Validate(deltas...); err != nil {
		return nil, err
	}
	before := c.capture()
	roots := make(map[string]bool, len(deltas))
	for _, d := range deltas {
		roots[d.Name] = true
	}
	affected := c.dependentsOf(roots)

	var deferred []Delta
	for _, d := range deltas {
		p := c.props[d.Name]
		if p.maxFrom != "" && (roots[p.maxFrom] || affected[p.maxFrom]) {
			deferred = append(deferred, d)
			continue
		}
		p.ApplyDelta(d.Amount)
	}
	if err := c.recompute(affected); err != nil {
		c.restore(before)
		return nil, err
	}
	if len(deferred) > 0 {
		late := make(map[string]bool, len(deferred))
		for _, d := range deferred {
			c.props[d.Name].ApplyDelta(d.Amount)
			late[d.Name] = true
		}
		if err := c.recompute(c.dependentsOf(late)); err != nil {
			c.restore(before)
			return nil, err
		}
	}
	return c.diff(before), nil
}

func (c *Container) ApplyDelta(name string, d int) ([]Change, error) {
	return c.Apply(Delta{Name: name, Amount: d})
}

// SetBase 设置基础值；越界或派生属性返回错误且不产生任何修改。
func (c *Container) SetBase(name string, v int) ([]Change, error) {
	p, ok := c.props[name]
	if !ok {
		return nil, missing(name)
	}
	before := c.capture()
	if err := p.SetBase(v); err != nil {
		return nil, err
	}
	return c.settle(before, map[string]bool{name: true})
}

func (c *Container) settle(before map[string]Property, roots map[string]bool) ([]Change, error) {
	if err := c.recompute(c.dependentsOf(roots)); err != nil {
		c.restore(before)
		return nil, err
	}
	return c.diff(before), nil
}

// recompute 按拓扑序重算 affected 中的属性，每个只算一次。
func (c *Container) recompute(affected map[string]bool) error {
	for _, name := range c.order {
		if !affected[name] {
			continue
		}
		if err := c.props[name].Recompute(c.view); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) diff(before map[string]Property) []Change {
	var changes []Change
	for _, name := range c.order {
		old, p := before[name], c.props[name]
		if old.current == p.current && old.min == p.min && old.max == p.max {
			continue
		}
		changes = append(changes, Change{Name: name, Old: old.current, New: p.current, Min: p.min, Max: p.max})
	}
	return changes
}

// dependentsOf 返回 roots 的传递依赖者（不含 roots 本身，除非它们互相依赖）。
func (c *Container) dependentsOf(roots map[string]bool) map[string]bool {
	out := make(map[string]bool)
	stack := make([]string, 0, len(roots))
	for r := range roots {
		stack = append(stack, r)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range c.dependents[n] {
			if !out[d] {
				out[d] = true
				stack = append(stack, d)
			}
		}
	}
	return out
}

func (c *Container) capture() map[string]Property {
	out := make(map[string]Property, len(c.props))
	for name, p := range c.props {
		out[name] = *p
	}
	return out
}

func (c *Container) restore(before map[string]Property) {
	for name, p := range before {
		*c.props[name] = p
	}
}

// Alive 表示生命值高于下限；没有生命属性的容器视为存活。
func (c *Container) Alive() bool {
	p, ok := c.props[Health]
	if !ok {
		return true
	}
	return p.current > p.min
}

// CombatPower 是战力估算：攻击 + 防御 + 最大生命/10。
func (c *Container) CombatPower() int {
	return c.Value(AttackPower) + c.Value(Defense) + c.Value(MaxHealth)/10
}

func (c *Container) Dirty() bool {
	for _, p := range c.props {
		if p.dirty {
			return true
		}
	}
	return false
}

func (c *Container) DirtyNames() []string {
	var out []string
	for _, name := range c.decl {
		if c.props[name].dirty {
			out = append(out, name)
		}
	}
	return out
}

func (c *Container) ClearDirty() {
	for _, p := range c.props {
		p.dirty = false
	}
}

func (c *Container) Snapshot() Snapshot {
	s := Snapshot{
		entries: make(map[string]entry, len(c.props)),
		names:   slices.Clone(c.decl),
	}
	for name, p := range c.props {
		s.entries[name] = entry{value: p.current, min: p.min, max: p.max}
	}
	return s
}

func uniq(in []string) []string {
	if len(in) < 2 {
		return in
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
