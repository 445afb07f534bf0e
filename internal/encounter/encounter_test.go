package encounter

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"TextRPG/internal/shared/gamedata"
)

func catalog(t *testing.T) *gamedata.Catalog {
	t.Helper()
	cat, err := gamedata.LoadDir(filepath.Join("..", "..", "data", "classes"))
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	return cat
}

func generator(t *testing.T, seed int64) *Generator {
	t.Helper()
	g, err := NewGenerator(catalog(t), NewRand(seed))
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	return g
}

func TestPartyOf_平均等级四舍五入到偶数(t *testing.T) {
	cases := []struct {
		levels []int
		want   Party
	}{
		{nil, Party{Min: 1, Max: 1, Avg: 1}},
		{[]int{1, 2}, Party{Min: 1, Max: 2, Avg: 2}},
		{[]int{2, 3}, Party{Min: 2, Max: 3, Avg: 2}},
		{[]int{1, 5, 3}, Party{Min: 1, Max: 5, Avg: 3}},
	}
	for _, tc := range cases {
		if got := PartyOf(tc.levels...); got != tc.want {
			t.Fatalf("期望 %v → %+v, got=%+v", tc.levels, tc.want, got)
		}
	}
}

func TestEnemyCount_按平均等级分段(t *testing.T) {
	g := generator(t, 7)
	bounds := map[int][2]int{1: {2, 2}, 3: {2, 3}, 5: {2, 4}, 8: {3, 4}, 12: {3, 5}}
	sawFive := false
	for avg, b := range bounds {
		for i := 0; i < 200; i++ {
			n := g.EnemyCount(avg)
			if n < b[0] || n > b[1] {
				t.Fatalf("期望 avg=%d 时数量在 [%d,%d], got=%d", avg, b[0], b[1], n)
			}
			if avg == 12 && n == 5 {
				sawFive = true
			}
		}
	}
	if !sawFive {
		t.Fatalf("期望 10 级以上大概率出现 5 只怪物")
	}
}

func TestLevels_钳制在队伍等级区间(t *testing.T) {
	g := generator(t, 11)
	for _, p := range []Party{{Min: 1, Max: 1, Avg: 1}, {Min: 4, Max: 5, Avg: 5}} {
		lo, hi := LevelRange(p)
		for _, l := range g.Levels(p, 300) {
			if l < lo || l > hi {
				t.Fatalf("期望等级在 [%d,%d], got=%d", lo, hi, l)
			}
		}
	}
	if lo, hi := LevelRange(Party{Min: 4, Max: 5, Avg: 5}); lo != 4 || hi != 7 {
		t.Fatalf("期望区间 [4,7], got=[%d,%d]", lo, hi)
	}
}

func TestSequence_一级队伍两间房且末间为首领(t *testing.T) {
	cat := catalog(t)
	g := generator(t, 3)
	seq := g.Sequence(PartyOf(1))

	rooms := seq.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("期望 2 间房, got=%d", len(rooms))
	}
	if rooms[0].Boss || len(rooms[0].Monsters) != 2 {
		t.Fatalf("期望首间为 2 只怪物的普通房, got=%+v", rooms[0])
	}
	for _, sp := range rooms[0].Monsters {
		tpl, ok := cat.Get(sp.Class)
		if !ok || tpl.IsPlayer() {
			t.Fatalf("期望怪物模板, got=%s", sp.Class)
		}
		if tpl.Level > sp.Level || sp.Level < 1 || sp.Level > 3 {
			t.Fatalf("期望 %s 的等级满足出场要求且在 [1,3], got=%d", sp.Class, sp.Level)
		}
	}
	boss := rooms[1]
	if !boss.Boss || len(boss.Monsters) != 1 {
		t.Fatalf("期望末间为单只首领, got=%+v", boss)
	}
	if sp := boss.Monsters[0]; sp.Class != "orc" || sp.Level < 3 || sp.Level > 4 {
		t.Fatalf("期望首领为 3~4 级兽人, got=%+v", sp)
	}
	for _, r := range rooms {
		if r.Status != StatusUnvisited {
			t.Fatalf("期望房间初始未访问, got=%s", r.Status)
		}
	}
}

func TestSequence_相同种子生成相同房间(t *testing.T) {
	p := PartyOf(4, 6)
	a := generator(t, 42).Sequence(p).Rooms()
	b := generator(t, 42).Sequence(p).Rooms()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("期望相同种子结果一致:\n%+v\n%+v", a, b)
	}
	if len(a) < 3 || len(a) > 4 {
		t.Fatalf("期望 5 级队伍 3~4 间房, got=%d", len(a))
	}
}

func TestSequence_胜利推进失败终止(t *testing.T) {
	seq := NewSequence(Room{Monsters: []Spawn{{Class: "goblin"}}}, Room{}, Room{Boss: true})

	first, ok := seq.Next()
	if !ok || first.Index != 0 || first.Status != StatusActive {
		t.Fatalf("期望激活第 1 间, got=%+v", first)
	}
	if _, ok := seq.Next(); ok {
		t.Fatalf("期望当前房间未结束时不能前进")
	}
	seq.Complete()
	second, ok := seq.Next()
	if !ok || second.Index != 1 || seq.Completed() != 1 {
		t.Fatalf("期望进入第 2 间, got=%+v completed=%d", second, seq.Completed())
	}
	seq.Fail()
	if !seq.Failed() || seq.Cleared() {
		t.Fatalf("期望序列失败")
	}
	if _, ok := seq.Next(); ok {
		t.Fatalf("期望失败后不能继续")
	}
	if rooms := seq.Rooms(); rooms[1].Status != StatusFailed || rooms[2].Status != StatusUnvisited {
		t.Fatalf("期望第 2 间失败、第 3 间未访问, got=%s/%s", rooms[1].Status, rooms[2].Status)
	}
}

func TestSequence_全部通过(t *testing.T) {
	seq := NewSequence(Room{}, Room{})
	for range 2 {
		if _, ok := seq.Next(); !ok {
			t.Fatalf("期望可以进入下一间")
		}
		seq.Complete()
	}
	if !seq.Cleared() || seq.Failed() {
		t.Fatalf("期望全部通过")
	}
	if _, ok := seq.Next(); ok {
		t.Fatalf("期望没有更多房间")
	}
}

func TestNewGenerator_没有怪物模板(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "player")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := `{"id":"warrior","name":"Warrior","variant":"player"}`
	if err := os.WriteFile(filepath.Join(dir, "warrior.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := gamedata.LoadDir(filepath.Dir(dir))
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if _, err := NewGenerator(cat, nil); !errors.Is(err, ErrNoMonsters) {
		t.Fatalf("期望 ErrNoMonsters, got=%v", err)
	}
}

func TestScaled_返回副本(t *testing.T) {
	tpl := &gamedata.Template{ID: "goblin", Level: 1, MaxLevel: 1}
	got := Scaled(tpl, 4)
	if got.Level != 4 || got.MaxLevel != 4 {
		t.Fatalf("期望 level=4 max_level=4, got=%d/%d", got.Level, got.MaxLevel)
	}
	if tpl.Level != 1 || tpl.MaxLevel != 1 {
		t.Fatalf("期望原模板不变")
	}
	if same := Scaled(tpl, 0); same.Level != 1 {
		t.Fatalf("期望 level=0 时保留模板等级")
	}
}
