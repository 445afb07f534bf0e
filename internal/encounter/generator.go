package encounter

import (
	"cmp"
	"math"
	"math/rand"
	"slices"

	"TextRPG/internal/shared/gamedata"
	"TextRPG/modules/kit/errx"
)

const CodeNoMonsters errx.Code = "ENCOUNTER_NO_MONSTERS"

// ErrNoMonsters 表示目录里没有怪物模板，无法生成遭遇。
var ErrNoMonsters = errx.NewFatal(CodeNoMonsters, "没有可用的怪物模板")

// Party 汇总队伍等级。Avg 为四舍五入到偶数的平均等级。
type Party struct {
	Min int
	Max int
	Avg int
}

func PartyOf(levels ...int) Party {
	if len(levels) == 0 {
		return Party{Min: 1, Max: 1, Avg: 1}
	}
	sum := 0
	for _, l := range levels {
		sum += l
	}
	return Party{
		Min: slices.Min(levels),
		Max: slices.Max(levels),
		Avg: int(math.RoundToEven(float64(sum) / float64(len(levels)))),
	}
}

// NewRand 用固定种子构造随机源；种子为 0 时取 1。
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}

// Generator 按队伍等级生成房间序列。模板等级即该怪物出现所需的最低等级。
type Generator struct {
	rng      *rand.Rand
	monsters []*gamedata.Template
}

func NewGenerator(cat *gamedata.Catalog, rng *rand.Rand) (*Generator, error) {
	g := &Generator{rng: rng}
	if g.rng == nil {
		g.rng = NewRand(1)
	}
	for _, id := range cat.IDs() {
		if tpl, ok := cat.Get(id); ok && !tpl.IsPlayer() {
			g.monsters = append(g.monsters, tpl)
		}
	}
	if len(g.monsters) == 0 {
		return nil, ErrNoMonsters
	}
	slices.SortStableFunc(g.monsters, func(a, b *gamedata.Template) int {
		return cmp.Compare(a.Level, b.Level)
	})
	return g, nil
}

// Sequence 生成一组房间：前面是普通战斗，最后一间是首领房。
func (g *Generator) Sequence(p Party) *Sequence {
	n := g.RoomCount(p.Avg)
	rooms := make([]Room, 0, n)
	for i := 0; i < n-1; i++ {
		rooms = append(rooms, Room{Monsters: g.Battle(p)})
	}
	rooms = append(rooms, Room{Boss: true, Monsters: []Spawn{g.boss(p)}})
	return NewSequence(rooms...)
}

// RoomCount 平均等级 ≤2 时 2 间，≤5 时 3~4 间，否则 4~6 间。
func (g *Generator) RoomCount(avg int) int {
	switch {
	case avg <= 2:
		return 2
	case avg <= 5:
		return g.between(3, 4)
	default:
		return g.between(4, 6)
	}
}

// Battle 生成一场普通战斗的怪物：数量按平均等级，等级围绕平均等级正态分布。
func (g *Generator) Battle(p Party) []Spawn {
	levels := g.Levels(p, g.EnemyCount(p.Avg))
	out := make([]Spawn, 0, len(levels))
	for _, l := range levels {
		out = append(out, Spawn{Class: g.pick(l), Level: l})
	}
	return out
}

// EnemyCount 按钳制到 [1,10] 的平均等级决定怪物数量。
func (g *Generator) EnemyCount(avg int) int {
	switch lvl := min(max(avg, 1), 10); {
	case lvl == 1:
		return 2
	case lvl <= 3:
		return g.between(2, 3)
	case lvl <= 6:
		return g.between(2, 4)
	case lvl <= 9:
		return g.between(3, 4)
	default:
		if g.rng.Float64() < 0.7 {
			return 5
		}
		return g.between(3, 4)
	}
}

// Levels 在 [Min, min(Max+2, Avg+3)] 内取 n 个等级。
func (g *Generator) Levels(p Party, n int) []int {
	lo, hi := LevelRange(p)
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		l := int(math.RoundToEven(g.rng.NormFloat64() + float64(p.Avg)))
		out = append(out, min(max(l, lo), hi))
	}
	return out
}

func LevelRange(p Party) (lo, hi int) {
	lo = max(p.Min, 1)
	return lo, max(lo, min(p.Max+2, p.Avg+3))
}

// pick 在模板等级不超过 level 的怪物里随机选一个，没有则取最低等级的模板。
func (g *Generator) pick(level int) string {
	n := 0
	for n < len(g.monsters) && g.monsters[n].Level <= level {
		n++
	}
	if n == 0 {
		return g.monsters[0].ID
	}
	return g.monsters[g.rng.Intn(n)].ID
}

// boss 取模板等级最高的怪物，等级比平均等级高 2~3。
func (g *Generator) boss(p Party) Spawn {
	tpl := g.monsters[len(g.monsters)-1]
	return Spawn{Class: tpl.ID, Level: max(tpl.Level, p.Avg+g.between(2, 3))}
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// Scaled 返回按等级调整过的模板副本，目录中的模板不受影响。
func Scaled(tpl *gamedata.Template, level int) *gamedata.Template {
	cp := *tpl
	if level > 0 {
		cp.Level = level
		cp.MaxLevel = max(cp.MaxLevel, level)
	}
	return &cp
}
