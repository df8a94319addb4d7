package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TemplateConfig is the YAML form of a template definition.
type TemplateConfig struct {
	Name     string               `json:"name" yaml:"name"`
	Kind     string               `json:"kind" yaml:"kind"`
	Tags     []string             `json:"tags,omitempty" yaml:"tags,omitempty"`
	Attrs    map[string][]float64 `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Options  map[string]string    `json:"options,omitempty" yaml:"options,omitempty"`
	Children []*TemplateConfig    `json:"children,omitempty" yaml:"children,omitempty"`
}

// ParseTemplate builds a Template from YAML bytes.
func ParseTemplate(data []byte) (*Template, error) {
	var cfg TemplateConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return templateFromConfig(&cfg)
}

// LoadTemplate reads a template definition file.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", path, err)
	}
	return ParseTemplate(data)
}

func templateFromConfig(cfg *TemplateConfig) (*Template, error) {
	if cfg.Name == "" {
		return nil, ErrEmptyTemplate
	}
	kind := Kind(cfg.Kind)
	if !kind.Valid() {
		return nil, PathError("parse template", cfg.Name, ErrUnknownKind)
	}
	t := NewTemplate(cfg.Name, kind)
	if err := configureElement(t.Root(), cfg); err != nil {
		return nil, err
	}
	for _, child := range cfg.Children {
		if err := addConfigured(t, cfg.Name, child); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func addConfigured(t *Template, parentRel string, cfg *TemplateConfig) error {
	kind := Kind(cfg.Kind)
	if !kind.Valid() {
		return PathError("parse template", cfg.Name, ErrUnknownKind)
	}
	el := NewElement(cfg.Name, kind)
	if err := configureElement(el, cfg); err != nil {
		return err
	}
	rel, err := t.Add(parentRel, el)
	if err != nil {
		return err
	}
	for _, child := range cfg.Children {
		if err := addConfigured(t, rel, child); err != nil {
			return err
		}
	}
	return nil
}

func configureElement(el *Element, cfg *TemplateConfig) error {
	el.Tags = append(el.Tags, cfg.Tags...)
	for name, value := range cfg.Attrs {
		if err := el.SetAttr(Attr(name), value); err != nil {
			return err
		}
	}
	for name, value := range cfg.Options {
		el.Options[name] = value
	}
	return nil
}
