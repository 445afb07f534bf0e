package config

import (
	"os"
	"path/filepath"
	"time"
)

const defaultConfigRelPath = "configs/conf.yml"

type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Game       GameConfig       `yaml:"game" mapstructure:"game"`
	Combat     CombatConfig     `yaml:"combat" mapstructure:"combat"`
	Character  CharacterConfig  `yaml:"character" mapstructure:"character"`
	Experience ExperienceConfig `yaml:"experience" mapstructure:"experience"`
	Regen      RegenConfig      `yaml:"regen" mapstructure:"regen"`
}

type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}

type GameConfig struct {
	// ClassesDir 下按 player/ monster/ 两个子目录存放职业模板。
	ClassesDir  string        `yaml:"classes_dir" mapstructure:"classes_dir"`
	PlayerClass string        `yaml:"player_class" mapstructure:"player_class"`
	PlayerName  string        `yaml:"player_name" mapstructure:"player_name"`
	Monsters    []string      `yaml:"monsters" mapstructure:"monsters"`
	AskTimeout  time.Duration `yaml:"ask_timeout" mapstructure:"ask_timeout"`
	NodeID      int64         `yaml:"node_id" mapstructure:"node_id"`
	// Encounter 为 rooms 时按队伍等级生成房间序列，为 fixed 时只打一场 Monsters 列出的战斗。
	Encounter   string        `yaml:"encounter" mapstructure:"encounter"`
	// Seed 为 0 时每局取当前时间。
	Seed        int64         `yaml:"seed" mapstructure:"seed"`
}

const (
	EncounterRooms = "rooms"
	EncounterFixed = "fixed"
)

type CombatConfig struct {
	MinDamage              int     `yaml:"min_damage" mapstructure:"min_damage"`
	DefenseReductionFactor float64 `yaml:"defense_reduction_factor" mapstructure:"defense_reduction_factor"`
}

// CharacterConfig 是派生属性公式的系数。
type CharacterConfig struct {
	BaseMaxHP             float64 `yaml:"base_max_hp" mapstructure:"base_max_hp"`
	HPPerVitality         float64 `yaml:"hp_per_vitality" mapstructure:"hp_per_vitality"`
	BaseMaxEnergy         float64 `yaml:"base_max_energy" mapstructure:"base_max_energy"`
	EnergyPerIntelligence float64 `yaml:"energy_per_intelligence" mapstructure:"energy_per_intelligence"`
	AttackPerStrength     float64 `yaml:"attack_per_strength" mapstructure:"attack_per_strength"`
	DefensePerAgility     float64 `yaml:"defense_per_agility" mapstructure:"defense_per_agility"`
}

type ExperienceConfig struct {
	BaseThreshold float64 `yaml:"base_threshold" mapstructure:"base_threshold"`
	Exponent      float64 `yaml:"exponent" mapstructure:"exponent"`
}

type RegenConfig struct {
	HealthPerRound int `yaml:"health_per_round" mapstructure:"health_per_round"`
	EnergyPerRound int `yaml:"energy_per_round" mapstructure:"energy_per_round"`
}

// Load 读取配置：
// 1) 传入 cfgName（相对/绝对路径）则优先使用；
// 2) 否则从当前目录开始向上查找 `configs/conf.yml`。
func Load(cfgName string) (*Loader, error) {
	path, err := resolvePath(cfgName)
	if err != nil {
		return nil, err
	}
	return load(path)
}

func resolvePath(cfgName string) (string, error) {
	curDir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if cfgName != "" {
		if filepath.IsAbs(cfgName) {
			return cfgName, nil
		}
		return filepath.Join(curDir, cfgName), nil
	}
	return findConfigUpward(curDir)
}

func findConfigUpward(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, defaultConfigRelPath)
		if fileExist(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", configError("config file not exist, searched configs/conf.yml from: "+startDir, nil)
		}
		dir = parent
	}
}
