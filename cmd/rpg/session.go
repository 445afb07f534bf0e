package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"TextRPG/internal/audit"
	"TextRPG/internal/battle"
	"TextRPG/internal/battle/actor"
	"TextRPG/internal/character"
	"TextRPG/internal/cli"
	"TextRPG/internal/combat"
	"TextRPG/internal/encounter"
	"TextRPG/internal/event"
	"TextRPG/internal/property"
	"TextRPG/internal/shared/config"
	"TextRPG/internal/shared/gamedata"
	"TextRPG/internal/shared/utils"
	"TextRPG/modules/kit/errx"
	"TextRPG/modules/kit/logx"

	"go.uber.org/zap"
)

// session 是一局游戏：同一队玩家依次挑战房间序列，每间房是一场独立的战斗。
type session struct {
	cfg       *config.Config
	log       logx.Logger
	con       *cli.Console
	catalog   *gamedata.Catalog
	ids       *utils.Snowflake
	formulas  character.Formulas
	abilities *combat.Registry
	bus       *event.Bus
	audit     *audit.Recorder
	player    *character.Character
	players   []*character.Character
	rooms     *encounter.Sequence

	// 当前房间
	room     encounter.Room
	battle   *battle.Battle
	rt       *actor.Runtime
	game     *cli.Game
	renderer *cli.Renderer
}

func newSession(cfgPath string, cfg *config.Config, log logx.Logger, out io.Writer) (*session, error) {
	catalog, err := gamedata.LoadDir(classesDir(cfgPath, cfg.Game.ClassesDir))
	if err != nil {
		return nil, err
	}
	formulas := character.FormulasFromConfig(cfg.Character, cfg.Experience)
	if err := character.Verify(catalog, formulas); err != nil {
		return nil, err
	}
	ids, err := utils.NewSnowflake(cfg.Game.NodeID)
	if err != nil {
		return nil, errx.ErrConfig.WithData("node_id", cfg.Game.NodeID).WithCause(err)
	}

	player, err := spawn(catalog, cfg.Game.PlayerClass, gamedata.VariantPlayer, cfg.Game.PlayerName, 0, ids.NextID(), formulas)
	if err != nil {
		return nil, err
	}
	bus := event.NewBus(log)
	s := &session{
		cfg:       cfg,
		log:       logx.OrNop(log),
		con:       cli.NewConsole(out),
		catalog:   catalog,
		ids:       ids,
		formulas:  formulas,
		abilities: combat.Builtin(),
		bus:       bus,
		audit:     audit.Attach(bus, log),
		player:    player,
		players:   []*character.Character{player},
	}
	if s.rooms, err = s.plan(); err != nil {
		s.close()
		return nil, err
	}
	if err := s.enter(); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// plan 按配置生成房间序列；fixed 模式只有一间房，怪物取自配置。
func (s *session) plan() (*encounter.Sequence, error) {
	if s.cfg.Game.Encounter == config.EncounterFixed {
		spawns := make([]encounter.Spawn, 0, len(s.cfg.Game.Monsters))
		for _, id := range s.cfg.Game.Monsters {
			spawns = append(spawns, encounter.Spawn{Class: id})
		}
		return encounter.NewSequence(encounter.Room{Monsters: spawns}), nil
	}
	seed := s.cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen, err := encounter.NewGenerator(s.catalog, encounter.NewRand(seed))
	if err != nil {
		return nil, err
	}
	levels := make([]int, 0, len(s.players))
	for _, p := range s.players {
		levels = append(levels, p.Value(property.Level))
	}
	rooms := gen.Sequence(encounter.PartyOf(levels...))
	s.log.Info("rooms generated", zap.Int64("seed", seed), zap.Int("rooms", rooms.Len()))
	return rooms, nil
}

// enter 进入下一间房：生成怪物并为这场战斗建立运行时、渲染器与命令层。
func (s *session) enter() error {
	room, ok := s.rooms.Next()
	if !ok {
		return errx.ErrInternal.WithData("detail", "no room to enter")
	}
	participants := slices.Clone(s.players)
	seen := make(map[string]int, len(room.Monsters))
	for _, sp := range room.Monsters {
		seen[sp.Class]++
		var name string
		if n := seen[sp.Class]; n > 1 {
			if tpl, ok := s.catalog.Get(sp.Class); ok {
				name = fmt.Sprintf("%s %d", tpl.Name, n)
			}
		}
		m, err := spawn(s.catalog, sp.Class, gamedata.VariantMonster, name, sp.Level, s.ids.NextID(), s.formulas)
		if err != nil {
			return err
		}
		participants = append(participants, m)
	}

	b, err := battle.New(battle.Options{
		ID:    s.ids.NextID(),
		Rules: combat.RulesFromConfig(s.cfg.Combat, s.abilities),
		Regen: battle.Regen{
			HealthPerRound: s.cfg.Regen.HealthPerRound,
			EnergyPerRound: s.cfg.Regen.EnergyPerRound,
		},
		Bus:    s.bus,
		Logger: s.log,
	}, participants...)
	if err != nil {
		return err
	}
	s.room = room
	s.battle = b
	s.renderer = cli.AttachRenderer(s.bus, s.con, b.Status(), s.abilities)
	s.rt = actor.NewRuntime(b, s.log, s.cfg.Game.AskTimeout)
	s.game = cli.NewGame(s.rt, s.player.ID(), s.abilities, s.con, s.log)

	title := fmt.Sprintf("== 第 %d/%d 间房 ==", room.Index+1, s.rooms.Len())
	if room.Boss {
		title += " 首领"
	}
	s.con.Println(title)
	return nil
}

// leave 结算当前房间并拆掉这场战斗的组件。返回 false 表示冒险结束。
func (s *session) leave() bool {
	if s.battle.Outcome() == event.OutcomeVictory {
		s.rooms.Complete()
	} else {
		s.rooms.Fail()
	}
	s.teardown()
	s.log.Info("room settled", zap.Int("room", s.room.Index+1), zap.String("outcome", string(s.battle.Outcome())))

	switch {
	case s.rooms.Failed():
		s.con.Println(fmt.Sprintf("冒险失败，通过了 %d/%d 间房", s.rooms.Completed(), s.rooms.Len()))
		return false
	case s.rooms.Cleared():
		s.con.Println(fmt.Sprintf("全部 %d 间房已通关", s.rooms.Len()))
		return false
	}
	return true
}

// play 驱动整个房间序列，直到通关、失败、quit 或输入耗尽。
func (s *session) play(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		resp, err := s.rt.Start(ctx)
		if err != nil {
			return err
		}
		exit := cli.ExitBattleOver
		if !resp.Status.Over {
			if exit, err = s.game.Play(ctx, sc); err != nil {
				return err
			}
		}
		if exit != cli.ExitBattleOver || !s.leave() {
			return nil
		}
		if err := s.enter(); err != nil {
			return err
		}
	}
}

func (s *session) teardown() {
	if s.rt != nil {
		s.rt.Shutdown()
		s.rt = nil
	}
	if s.renderer != nil {
		s.renderer.Detach()
		s.renderer = nil
	}
}

func (s *session) close() {
	s.teardown()
	s.audit.Detach()
}

// spawn 按职业创建角色；level 大于 0 时按该等级生成。
func spawn(catalog *gamedata.Catalog, class, variant, name string, level int, id utils.ID, f character.Formulas) (*character.Character, error) {
	tpl, ok := catalog.Get(class)
	if !ok || tpl.Variant != variant {
		return nil, errx.ErrConfig.WithDataMap(map[string]any{"class": class, "variant": variant, "detail": "class not found"})
	}
	return character.New(encounter.Scaled(tpl, level), character.Options{ID: id, Name: name, Formulas: f})
}

// classesDir 把相对路径解析到项目根（配置文件所在目录的上一级）。
func classesDir(cfgPath, dir string) string {
	if dir == "" || filepath.IsAbs(dir) || cfgPath == "" {
		return dir
	}
	return filepath.Join(filepath.Dir(filepath.Dir(cfgPath)), dir)
}
