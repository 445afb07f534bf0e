package utils

import "testing"

func TestSnowflake_节点越界返回错误(t *testing.T) {
	if _, err := NewSnowflake(-1); err == nil {
		t.Fatalf("期望 node=-1 返回错误")
	}
	if _, err := NewSnowflake(maxNodeID + 1); err == nil {
		t.Fatalf("期望 node 超上限返回错误")
	}
}

func TestSnowflake_单调递增且不重复(t *testing.T) {
	s, err := NewSnowflake(3)
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	seen := make(map[ID]struct{}, 5000)
	var last ID
	for i := 0; i < 5000; i++ {
		id := s.NextID()
		if id <= last {
			t.Fatalf("期望单调递增, last=%d id=%d", last, id)
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("期望不重复, id=%d", id)
		}
		seen[id] = struct{}{}
		last = id
	}
}

func TestSequence_从起点递增(t *testing.T) {
	s := NewSequence(10)
	if a, b := s.NextID(), s.NextID(); a != 10 || b != 11 {
		t.Fatalf("期望 10,11, got=%d,%d", a, b)
	}
}
