package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"TextRPG/internal/property"
	"TextRPG/internal/shared/config"
	"TextRPG/internal/shared/transport"
	"TextRPG/modules/kit/errx"
)

func writeClasses(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return dir
}

func roomsConfig(t *testing.T, classes string) (string, config.Config) {
	t.Helper()
	loader, err := config.Load("")
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	cfg := *loader.Config()
	cfg.Game.ClassesDir = classes
	cfg.Game.PlayerClass = "hero"
	cfg.Game.Encounter = config.EncounterRooms
	cfg.Game.Seed = 5
	return loader.Path(), cfg
}

const heroJSON = `{"id":"hero","name":"Hero","variant":"player","max_level":5,
	"base_stats":{"strength":100,"agility":50,"vitality":100},"abilities":["basic_attack"]}`

func TestPlay_房间序列逐间通关且经验累计(t *testing.T) {
	classes := writeClasses(t, map[string]string{
		"player/hero.json": heroJSON,
		"monster/rat.json": `{"id":"rat","name":"Rat","variant":"monster","base_stats":{"strength":1,"agility":1},
			"abilities":["basic_attack"],"experience_reward":10}`,
	})
	path, cfg := roomsConfig(t, classes)

	var out bytes.Buffer
	s, err := newSession(path, &cfg, nil, &out)
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	defer s.close()

	if s.rooms.Len() != 2 {
		t.Fatalf("期望一级队伍 2 间房, got=%d", s.rooms.Len())
	}
	if err := s.play(context.Background(), strings.NewReader(strings.Repeat("attack\n", 10))); err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if !s.rooms.Cleared() {
		t.Fatalf("期望全部通关, rooms=%+v", s.rooms.Rooms())
	}
	if got := s.player.Value(property.Experience); got != 30 {
		t.Fatalf("期望跨房间累计经验 30, got=%d", got)
	}
	text := out.String()
	for _, want := range []string{"第 1/2 间房", "第 2/2 间房 首领", "全部 2 间房已通关"} {
		if !strings.Contains(text, want) {
			t.Fatalf("期望输出包含 %q:\n%s", want, text)
		}
	}
}

func TestNewSession_模板依赖环在创建角色前失败(t *testing.T) {
	classes := writeClasses(t, map[string]string{
		"player/hero.json": heroJSON,
		"monster/wisp.json": `{"id":"wisp","name":"Wisp","variant":"monster","properties":[
			{"name":"focus","kind":"derived","formula":{"type":"linear","terms":{"calm":1}}},
			{"name":"calm","kind":"derived","formula":{"type":"linear","terms":{"focus":1}}}]}`,
	})
	path, cfg := roomsConfig(t, classes)

	s, err := newSession(path, &cfg, nil, nil)
	if !errors.Is(err, property.ErrCyclic) || s != nil {
		t.Fatalf("期望 ErrCyclic, got=%v", err)
	}
}

func TestNewSession_用仓库配置开局并执行命令(t *testing.T) {
	loader, err := config.Load("")
	if err != nil {
		t.Fatalf("期望找到 configs/conf.yml, got=%v", err)
	}
	cfg := *loader.Config()
	cfg.Game.Encounter = config.EncounterFixed
	cfg.Game.PlayerClass = "warrior"
	cfg.Game.Monsters = []string{"goblin", "goblin", "slime"}

	var out bytes.Buffer
	s, err := newSession(loader.Path(), &cfg, nil, &out)
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	defer s.close()

	if len(s.battle.Participants()) != 4 {
		t.Fatalf("期望 1 玩家 3 怪物, got=%d", len(s.battle.Participants()))
	}
	if _, err := s.rt.Start(context.Background()); err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if reply := s.game.Exec(context.Background(), "attack 1"); reply.Code != transport.OK {
		t.Fatalf("期望攻击成功, got=%s %s", reply.Code, reply.Msg)
	}
	reply := s.game.Exec(context.Background(), "status")
	text := out.String() + strings.Join(reply.Lines, "\n")
	for _, want := range []string{"战斗开始", "哥布林 2", "史莱姆", cfg.Game.PlayerName} {
		if !strings.Contains(text, want) {
			t.Fatalf("期望输出包含 %q:\n%s", want, text)
		}
	}
}

func TestSpawn_未知职业返回配置错误(t *testing.T) {
	loader, err := config.Load("")
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	cfg := *loader.Config()
	cfg.Game.Encounter = config.EncounterFixed
	cfg.Game.Monsters = []string{"dragon"}

	_, err = newSession(loader.Path(), &cfg, nil, nil)
	if !errors.Is(err, errx.ErrConfig) || !errx.IsFatal(err) {
		t.Fatalf("期望 CONFIG_ERROR, got=%v", err)
	}
}

func TestClassesDir_相对路径解析到项目根(t *testing.T) {
	if got := classesDir("/srv/rpg/configs/conf.yml", "data/classes"); got != "/srv/rpg/data/classes" {
		t.Fatalf("期望 /srv/rpg/data/classes, got=%s", got)
	}
	if got := classesDir("/srv/rpg/configs/conf.yml", "/opt/classes"); got != "/opt/classes" {
		t.Fatalf("期望绝对路径不变, got=%s", got)
	}
}
