package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"TextRPG/modules/kit/errx"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "RPG"

// Loader 持有 viper 实例与最近一次成功解析的配置。
// 并发读：变更回调运行在 fsnotify 的 goroutine 上，读写都走 mu。
type Loader struct {
	v    *viper.Viper
	path string

	mu  sync.RWMutex
	cur *Config
}

func load(configPath string) (*Loader, error) {
	if !fileExist(configPath) {
		return nil, configError("config file not exist, configPath="+configPath, nil)
	}
	if err := loadDotEnv(configPath); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, configError("read config failed", err)
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return &Loader{v: v, path: configPath, cur: cfg}, nil
}

// Config 返回当前配置的拷贝指针；调用方不要修改。
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur
}

func (l *Loader) Path() string { return l.path }

// Watch 监听配置文件变化，解析成功后回调 fn；解析失败保留旧配置并回调 onErr。
func (l *Loader) Watch(fn func(*Config), onErr func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(l.v)
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		l.mu.Lock()
		l.cur = cfg
		l.mu.Unlock()
		if fn != nil {
			fn(cfg)
		}
	})
	l.v.WatchConfig()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configError("viper unmarshal config data: cast exception", err)
	}
	switch cfg.Game.Encounter {
	case EncounterRooms, EncounterFixed:
	default:
		return nil, configError("game.encounter must be rooms or fixed, got="+cfg.Game.Encounter, nil)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 7)

	v.SetDefault("game.classes_dir", "data/classes")
	v.SetDefault("game.player_class", "warrior")
	v.SetDefault("game.player_name", "Hero")
	v.SetDefault("game.monsters", []string{"goblin"})
	v.SetDefault("game.ask_timeout", 3*time.Second)
	v.SetDefault("game.node_id", 1)
	v.SetDefault("game.encounter", EncounterFixed)
	v.SetDefault("game.seed", 0)

	v.SetDefault("combat.min_damage", 1)
	v.SetDefault("combat.defense_reduction_factor", 0.5)

	v.SetDefault("character.base_max_hp", 50)
	v.SetDefault("character.hp_per_vitality", 5)
	v.SetDefault("character.base_max_energy", 20)
	v.SetDefault("character.energy_per_intelligence", 3)
	v.SetDefault("character.attack_per_strength", 2)
	v.SetDefault("character.defense_per_agility", 1.5)

	v.SetDefault("experience.base_threshold", 100)
	v.SetDefault("experience.exponent", 1.5)

	v.SetDefault("regen.health_per_round", 0)
	v.SetDefault("regen.energy_per_round", 2)
}

// loadDotEnv 依次尝试配置目录上一级与当前目录的 .env；不存在不算错误，已有环境变量不覆盖。
// 文件存在但无法解析时返回配置错误。
func loadDotEnv(configPath string) error {
	candidates := []string{
		filepath.Join(filepath.Dir(filepath.Dir(configPath)), ".env"),
		".env",
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, p := range candidates {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		if !fileExist(abs) {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return configError("load .env failed, path="+abs, err)
		}
	}
	return nil
}

func configError(msg string, cause error) error {
	e := errx.ErrConfig.WithData("detail", msg)
	if cause != nil {
		return e.WithCause(cause)
	}
	return e
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
