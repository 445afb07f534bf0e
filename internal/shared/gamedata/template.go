package gamedata

import "TextRPG/internal/property"

// 变体标签：玩家与怪物只是数据上的区分。
const (
	VariantPlayer  = "player"
	VariantMonster = "monster"
)

// 属性种类，与 property 包的 Kind 一一对应。
const (
	KindBase     = "base"
	KindDerived  = "derived"
	KindResource = "resource"
)

// 公式类型。
const (
	FormulaLinear = "linear"
	FormulaGrowth = "growth"
	FormulaPower  = "power"
)

// BaseStats 是模板里允许出现的基础属性名。
var BaseStats = []string{property.Strength, property.Agility, property.Intelligence, property.Vitality}

// BuiltinProperties 是每个角色都有的属性，模板公式与 max_from 可以直接引用。
var BuiltinProperties = []string{
	property.Level, property.Experience, property.ExperienceToNext,
	property.Strength, property.Agility, property.Intelligence, property.Vitality,
	property.MaxHealth, property.Health, property.MaxEnergy, property.Energy,
	property.AttackPower, property.Defense,
}

// Template 是一个职业（玩家或怪物）的静态定义。
type Template struct {
	ID               string             `mapstructure:"id"`
	Name             string             `mapstructure:"name"`
	Variant          string             `mapstructure:"variant"`
	Description      string             `mapstructure:"description"`
	Icon             string             `mapstructure:"icon"`
	Level            int                `mapstructure:"level"`
	MaxLevel         int                `mapstructure:"max_level"`
	BaseStats        map[string]int     `mapstructure:"base_stats"`
	GrowthRates      map[string]float64 `mapstructure:"growth_rates"`
	Abilities        []string           `mapstructure:"abilities"`
	ExperienceReward int                `mapstructure:"experience_reward"`
	Properties       []PropertySpec     `mapstructure:"properties"`
}

// PropertySpec 覆盖或追加一个属性定义；同名时替换默认定义。
type PropertySpec struct {
	Name      string       `mapstructure:"name"`
	Kind      string       `mapstructure:"kind"`
	Base      *int         `mapstructure:"base"`
	Min       *int         `mapstructure:"min"`
	Max       *int         `mapstructure:"max"`
	MaxFrom   string       `mapstructure:"max_from"`
	StartFull bool         `mapstructure:"start_full"`
	Formula   *FormulaSpec `mapstructure:"formula"`
}

type FormulaSpec struct {
	Type     string             `mapstructure:"type"`
	Constant float64            `mapstructure:"constant"`
	Terms    map[string]float64 `mapstructure:"terms"`
	Of       string             `mapstructure:"of"`
	Base     float64            `mapstructure:"base"`
	Rate     float64            `mapstructure:"rate"`
	Exponent float64            `mapstructure:"exponent"`
}

func (t *Template) IsPlayer() bool { return t.Variant == VariantPlayer }
