package gamedata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Catalog 是按 id 索引的职业模板集合。
type Catalog struct {
	templates map[string]*Template
}

func (c *Catalog) Get(id string) (*Template, bool) {
	if c == nil {
		return nil, false
	}
	t, ok := c.templates[id]
	return t, ok
}

// IDs 返回按字典序排列的模板 id。
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.templates))
	for id := range c.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.templates)
}

// LoadDir 读取 dir/player 与 dir/monster 下的所有 .json/.yaml/.yml 模板。
// 任意一个模板非法都返回 TEMPLATE_LOAD，调用方应中止启动。
func LoadDir(dir string) (*Catalog, error) {
	cat := &Catalog{templates: make(map[string]*Template)}
	for _, variant := range []string{VariantPlayer, VariantMonster} {
		sub := filepath.Join(dir, variant)
		entries, err := os.ReadDir(sub)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, loadError(sub, "read dir failed", err)
		}
		for _, e := range entries {
			if e.IsDir() || !isTemplateFile(e.Name()) {
				continue
			}
			path := filepath.Join(sub, e.Name())
			tpl, err := LoadFile(path)
			if err != nil {
				return nil, err
			}
			if tpl.Variant != variant {
				return nil, loadError(path, fmt.Sprintf("variant %q does not match directory %q", tpl.Variant, variant), nil)
			}
			if _, dup := cat.templates[tpl.ID]; dup {
				return nil, loadError(path, "duplicate template id "+tpl.ID, nil)
			}
			cat.templates[tpl.ID] = tpl
		}
	}
	if len(cat.templates) == 0 {
		return nil, loadError(dir, "no templates found", nil)
	}
	return cat, nil
}

func LoadFile(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, "read file failed", err)
	}
	return Parse(path, raw)
}

// Parse 按扩展名解码原始文档；未知字段视为错误。
func Parse(name string, raw []byte) (*Template, error) {
	var doc map[string]any
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, loadError(name, "invalid json", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, loadError(name, "invalid yaml", err)
		}
	default:
		return nil, loadError(name, "unsupported template format", nil)
	}
	if doc == nil {
		return nil, loadError(name, "empty document", nil)
	}

	var tpl Template
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &tpl,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return nil, loadError(name, "build decoder failed", err)
	}
	if err := dec.Decode(doc); err != nil {
		return nil, loadError(name, "decode failed", err)
	}
	if err := validate(&tpl); err != nil {
		return nil, loadError(name, err.Error(), nil)
	}
	return &tpl, nil
}

func isTemplateFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func validate(t *Template) error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.Variant != VariantPlayer && t.Variant != VariantMonster {
		return fmt.Errorf("variant must be %q or %q, got %q", VariantPlayer, VariantMonster, t.Variant)
	}
	if t.Level <= 0 {
		t.Level = 1
	}
	if t.MaxLevel <= 0 {
		t.MaxLevel = t.Level
	}
	if t.MaxLevel < t.Level {
		return fmt.Errorf("max_level %d below level %d", t.MaxLevel, t.Level)
	}
	for name, v := range t.BaseStats {
		if !slices.Contains(BaseStats, name) {
			return fmt.Errorf("unknown base stat %q", name)
		}
		if v < 0 {
			return fmt.Errorf("base stat %q is negative", name)
		}
	}
	for name, r := range t.GrowthRates {
		if !slices.Contains(BaseStats, name) {
			return fmt.Errorf("unknown growth rate %q", name)
		}
		if r < 0 {
			return fmt.Errorf("growth rate %q is negative", name)
		}
	}
	if t.ExperienceReward < 0 {
		return fmt.Errorf("experience_reward is negative")
	}
	seen := make(map[string]struct{}, len(t.Properties))
	for i, p := range t.Properties {
		if p.Name == "" {
			return fmt.Errorf("properties[%d]: name is required", i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("properties[%d]: duplicate property %q", i, p.Name)
		}
		seen[p.Name] = struct{}{}
		switch p.Kind {
		case KindBase, KindResource:
			if p.Formula != nil {
				return fmt.Errorf("property %q: formula only allowed on derived", p.Name)
			}
		case KindDerived:
			if p.Formula == nil {
				return fmt.Errorf("property %q: derived requires formula", p.Name)
			}
			if err := validateFormula(p.Formula); err != nil {
				return fmt.Errorf("property %q: %w", p.Name, err)
			}
		default:
			return fmt.Errorf("property %q: unknown kind %q", p.Name, p.Kind)
		}
	}
	return validateRefs(t, seen)
}

// validateRefs 要求公式与 max_from 只引用内置属性或本模板声明的属性。
func validateRefs(t *Template, declared map[string]struct{}) error {
	known := func(name string) bool {
		_, ok := declared[name]
		return ok || slices.Contains(BuiltinProperties, name)
	}
	for _, p := range t.Properties {
		if p.MaxFrom != "" && !known(p.MaxFrom) {
			return fmt.Errorf("property %q: max_from references unknown property %q", p.Name, p.MaxFrom)
		}
		if p.Formula == nil {
			continue
		}
		if p.Formula.Of != "" && !known(p.Formula.Of) {
			return fmt.Errorf("property %q: formula references unknown property %q", p.Name, p.Formula.Of)
		}
		for ref := range p.Formula.Terms {
			if !known(ref) {
				return fmt.Errorf("property %q: formula references unknown property %q", p.Name, ref)
			}
		}
	}
	return nil
}

func validateFormula(f *FormulaSpec) error {
	switch f.Type {
	case FormulaLinear:
		return nil
	case FormulaGrowth, FormulaPower:
		if f.Of == "" {
			return fmt.Errorf("%s formula requires of", f.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown formula type %q", f.Type)
	}
}
