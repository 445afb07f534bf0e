package property

import "slices"

type entry struct {
	value int
	min   int
	max   int
}

// Snapshot 是属性集在某一时刻的不可变拷贝，实现 Context，可在只读消费者之间自由共享。
type Snapshot struct {
	entries map[string]entry
	names   []string
}

func (s Snapshot) Get(name string) (int, error) {
	e, ok := s.entries[name]
	if !ok {
		return 0, missing(name)
	}
	return e.value, nil
}

// Value 返回快照中的值；不存在时返回 0。
func (s Snapshot) Value(name string) int {
	return s.entries[name].value
}

func (s Snapshot) Bounds(name string) (lo, hi int, ok bool) {
	e, ok := s.entries[name]
	return e.min, e.max, ok
}

func (s Snapshot) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

func (s Snapshot) Names() []string { return slices.Clone(s.names) }

// Alive 与 Container.Alive 语义一致。
func (s Snapshot) Alive() bool {
	e, ok := s.entries[Health]
	if !ok {
		return true
	}
	return e.value > e.min
}
