package utils

import "strconv"

// ID 是角色、战斗等运行期实体的标识。
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IDGenerator 生成运行期唯一 ID。
type IDGenerator interface {
	NextID() ID
}

// Sequence 是单调递增的 ID 生成器，测试与离线场景使用。
type Sequence struct {
	next ID
}

func NewSequence(start ID) *Sequence {
	return &Sequence{next: start}
}

func (s *Sequence) NextID() ID {
	id := s.next
	s.next++
	return id
}
