package encounter

import "slices"

// Status 是房间的进度状态。
type Status string

const (
	StatusUnvisited Status = "unvisited"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Spawn 是房间里的一只怪物。Level 为 0 时使用模板等级。
type Spawn struct {
	Class string
	Level int
}

type Room struct {
	Index    int
	Boss     bool
	Monsters []Spawn
	Status   Status
}

func (r Room) clone() Room {
	r.Monsters = slices.Clone(r.Monsters)
	return r
}

// Sequence 是依次挑战的房间。胜利后才能进入下一间，任意一间失败则整个序列失败。
type Sequence struct {
	rooms   []Room
	current int
}

func NewSequence(rooms ...Room) *Sequence {
	s := &Sequence{rooms: make([]Room, len(rooms)), current: -1}
	for i, r := range rooms {
		r = r.clone()
		r.Index = i
		r.Status = StatusUnvisited
		s.rooms[i] = r
	}
	return s
}

func (s *Sequence) Len() int { return len(s.rooms) }

// Rooms 返回所有房间的拷贝。
func (s *Sequence) Rooms() []Room {
	out := make([]Room, len(s.rooms))
	for i, r := range s.rooms {
		out[i] = r.clone()
	}
	return out
}

func (s *Sequence) Current() (Room, bool) {
	if s.current < 0 || s.current >= len(s.rooms) {
		return Room{}, false
	}
	return s.rooms[s.current].clone(), true
}

// Next 激活下一间房间。当前房间尚未结束、序列已失败或已走完时返回 false。
func (s *Sequence) Next() (Room, bool) {
	if s.Failed() {
		return Room{}, false
	}
	if cur, ok := s.Current(); ok && cur.Status == StatusActive {
		return Room{}, false
	}
	if s.current+1 >= len(s.rooms) {
		return Room{}, false
	}
	s.current++
	s.rooms[s.current].Status = StatusActive
	return s.rooms[s.current].clone(), true
}

// Complete 把当前激活的房间标记为通过。
func (s *Sequence) Complete() {
	s.settle(StatusCompleted)
}

// Fail 把当前激活的房间标记为失败。
func (s *Sequence) Fail() {
	s.settle(StatusFailed)
}

func (s *Sequence) settle(st Status) {
	if s.current < 0 || s.current >= len(s.rooms) || s.rooms[s.current].Status != StatusActive {
		return
	}
	s.rooms[s.current].Status = st
}

func (s *Sequence) Completed() int {
	n := 0
	for _, r := range s.rooms {
		if r.Status == StatusCompleted {
			n++
		}
	}
	return n
}

func (s *Sequence) Cleared() bool {
	return len(s.rooms) > 0 && s.Completed() == len(s.rooms)
}

func (s *Sequence) Failed() bool {
	return slices.ContainsFunc(s.rooms, func(r Room) bool { return r.Status == StatusFailed })
}
