package character

import (
	"errors"
	"fmt"
	"slices"

	"TextRPG/internal/property"
	"TextRPG/internal/shared/config"
	"TextRPG/internal/shared/gamedata"
	"TextRPG/internal/shared/utils"
	"TextRPG/modules/kit/errx"
)

// Formulas 是默认派生属性公式的系数。
type Formulas struct {
	BaseMaxHealth         float64
	HealthPerVitality     float64
	BaseMaxEnergy         float64
	EnergyPerIntelligence float64
	AttackPerStrength     float64
	DefensePerAgility     float64
	ExperienceBase        float64
	ExperienceExponent    float64
}

func DefaultFormulas() Formulas {
	return Formulas{
		BaseMaxHealth:         50,
		HealthPerVitality:     5,
		BaseMaxEnergy:         20,
		EnergyPerIntelligence: 3,
		AttackPerStrength:     2,
		DefensePerAgility:     1.5,
		ExperienceBase:        100,
		ExperienceExponent:    1.5,
	}
}

func FormulasFromConfig(ch config.CharacterConfig, xp config.ExperienceConfig) Formulas {
	return Formulas{
		BaseMaxHealth:         ch.BaseMaxHP,
		HealthPerVitality:     ch.HPPerVitality,
		BaseMaxEnergy:         ch.BaseMaxEnergy,
		EnergyPerIntelligence: ch.EnergyPerIntelligence,
		AttackPerStrength:     ch.AttackPerStrength,
		DefensePerAgility:     ch.DefensePerAgility,
		ExperienceBase:        xp.BaseThreshold,
		ExperienceExponent:    xp.Exponent,
	}
}

type Options struct {
	ID utils.ID
	// Name 为空时使用模板名。
	Name     string
	Formulas Formulas
}

// New 从职业模板构建角色：默认属性集 + 模板中的同名覆盖/追加。
// 属性容器构造失败（缺失引用、依赖环、越界）时中止创建。
func New(tpl *gamedata.Template, opts Options) (*Character, error) {
	if tpl == nil {
		return nil, gamedata.ErrTemplateLoad.WithData("detail", "nil template")
	}
	defs, err := buildDefs(tpl, opts.Formulas)
	if err != nil {
		return nil, err
	}
	props, err := property.NewContainer(defs...)
	if err != nil {
		var e *errx.Error
		if errors.As(err, &e) {
			return nil, e.WithData("class", tpl.ID)
		}
		return nil, fmt.Errorf("class %s: %w", tpl.ID, err)
	}

	name := opts.Name
	if name == "" {
		name = tpl.Name
	}
	c := &Character{
		id:        opts.ID,
		name:      name,
		class:     tpl.ID,
		variant:   Variant(tpl.Variant),
		props:     props,
		abilities: slices.Clone(tpl.Abilities),
		reward:    tpl.ExperienceReward,
	}
	if !props.Alive() {
		c.state = StateDead
	}
	return c, nil
}

// Verify 为目录中的每个模板试建一次属性容器，让依赖环、缺失引用和越界在创建任何角色前暴露。
func Verify(cat *gamedata.Catalog, f Formulas) error {
	for _, id := range cat.IDs() {
		tpl, _ := cat.Get(id)
		if _, err := New(tpl, Options{Formulas: f}); err != nil {
			return err
		}
	}
	return nil
}

func buildDefs(tpl *gamedata.Template, f Formulas) ([]property.Def, error) {
	defs := defaultDefs(tpl, f)
	for _, spec := range tpl.Properties {
		def, err := specToDef(spec)
		if err != nil {
			return nil, gamedata.ErrTemplateLoad.WithDataMap(map[string]any{
				"class":    tpl.ID,
				"property": spec.Name,
			}).WithCause(err)
		}
		if i := slices.IndexFunc(defs, func(d property.Def) bool { return d.Name == def.Name }); i >= 0 {
			defs[i] = def
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func defaultDefs(tpl *gamedata.Template, f Formulas) []property.Def {
	maxLevel := max(tpl.MaxLevel, tpl.Level, 1)
	defs := []property.Def{
		{Name: property.Level, Kind: property.KindBase, Base: max(tpl.Level, 1), Min: 1, Max: maxLevel},
		{Name: property.Experience, Kind: property.KindBase, Min: 0, Max: property.Unbounded},
		{Name: property.ExperienceToNext, Kind: property.KindDerived, Max: property.Unbounded,
			Formula: property.Power{Of: property.Level, Base: f.ExperienceBase, Exponent: f.ExperienceExponent}},
	}
	for _, stat := range gamedata.BaseStats {
		defs = append(defs, property.Def{
			Name: stat, Kind: property.KindDerived, Max: property.Unbounded,
			Formula: property.Growth{Of: property.Level, Base: float64(tpl.BaseStats[stat]), Rate: tpl.GrowthRates[stat]},
		})
	}
	return append(defs,
		property.Def{Name: property.MaxHealth, Kind: property.KindDerived, Min: 1, Max: property.Unbounded,
			Formula: property.NewLinear(f.BaseMaxHealth, map[string]float64{property.Vitality: f.HealthPerVitality})},
		property.Def{Name: property.Health, Kind: property.KindResource, Min: 0, MaxFrom: property.MaxHealth, StartFull: true},
		property.Def{Name: property.MaxEnergy, Kind: property.KindDerived, Max: property.Unbounded,
			Formula: property.NewLinear(f.BaseMaxEnergy, map[string]float64{property.Intelligence: f.EnergyPerIntelligence})},
		property.Def{Name: property.Energy, Kind: property.KindResource, Min: 0, MaxFrom: property.MaxEnergy, StartFull: true},
		property.Def{Name: property.AttackPower, Kind: property.KindDerived, Max: property.Unbounded,
			Formula: property.NewLinear(0, map[string]float64{property.Strength: f.AttackPerStrength})},
		property.Def{Name: property.Defense, Kind: property.KindDerived, Max: property.Unbounded,
			Formula: property.NewLinear(0, map[string]float64{property.Agility: f.DefensePerAgility})},
	)
}

func specToDef(spec gamedata.PropertySpec) (property.Def, error) {
	kind, err := property.ParseKind(spec.Kind)
	if err != nil {
		return property.Def{}, err
	}
	def := property.Def{
		Name:      spec.Name,
		Kind:      kind,
		Max:       property.Unbounded,
		MaxFrom:   spec.MaxFrom,
		StartFull: spec.StartFull,
	}
	if spec.Base != nil {
		def.Base = *spec.Base
	}
	if spec.Min != nil {
		def.Min = *spec.Min
	}
	if spec.Max != nil {
		def.Max = *spec.Max
	}
	if spec.Formula != nil {
		f, err := specToFormula(*spec.Formula)
		if err != nil {
			return property.Def{}, err
		}
		def.Formula = f
	}
	return def, nil
}

func specToFormula(spec gamedata.FormulaSpec) (property.Formula, error) {
	switch spec.Type {
	case gamedata.FormulaLinear:
		return property.NewLinear(spec.Constant, spec.Terms), nil
	case gamedata.FormulaGrowth:
		return property.Growth{Of: spec.Of, Base: spec.Base, Rate: spec.Rate}, nil
	case gamedata.FormulaPower:
		return property.Power{Of: spec.Of, Base: spec.Base, Exponent: spec.Exponent}, nil
	default:
		return nil, fmt.Errorf("unknown formula type %q", spec.Type)
	}
}
