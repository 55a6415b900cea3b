package application

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"referent/internal/domain/entity"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type promptTemplate struct {
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`
	Temperature float32 `yaml:"temperature"`
	SourceLink  bool    `yaml:"source_link"`

	user *template.Template
}

type promptFile struct {
	Actions   map[entity.ActionKind]*promptTemplate `yaml:"actions"`
	Translate *promptTemplate                       `yaml:"translate"`
}

// promptData is what user templates can reference.
type promptData struct {
	Title   string
	Content string
	URL     string
}

// PromptCatalog maps each action kind to its instruction pair and temperature.
type PromptCatalog struct {
	actions   map[entity.ActionKind]*promptTemplate
	translate *promptTemplate
}

// DefaultPromptCatalog loads the catalog embedded in the binary.
func DefaultPromptCatalog() (*PromptCatalog, error) {
	return ParsePromptCatalog(defaultPrompts)
}

// ParsePromptCatalog reads a YAML catalog. Every known action kind and the
// translate entry must be present.
func ParsePromptCatalog(data []byte) (*PromptCatalog, error) {
	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}

	for _, kind := range entity.ActionKinds {
		p, ok := file.Actions[kind]
		if !ok || p == nil {
			return nil, fmt.Errorf("prompt catalog has no entry for action %q", kind)
		}
		if err := p.compile(string(kind)); err != nil {
			return nil, err
		}
	}
	if file.Translate == nil {
		return nil, fmt.Errorf("prompt catalog has no translate entry")
	}
	if err := file.Translate.compile("translate"); err != nil {
		return nil, err
	}

	return &PromptCatalog{actions: file.Actions, translate: file.Translate}, nil
}

func (p *promptTemplate) compile(name string) error {
	if strings.TrimSpace(p.System) == "" || strings.TrimSpace(p.User) == "" {
		return fmt.Errorf("prompt %q needs both system and user text", name)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(p.User)
	if err != nil {
		return fmt.Errorf("failed to parse prompt %q: %w", name, err)
	}
	p.user = tmpl
	return nil
}

func (p *promptTemplate) render(data promptData) (entity.PromptSpec, error) {
	var b strings.Builder
	if err := p.user.Execute(&b, data); err != nil {
		return entity.PromptSpec{}, fmt.Errorf("failed to render prompt %q: %w", p.user.Name(), err)
	}
	return entity.PromptSpec{
		SystemInstruction: p.System,
		UserInstruction:   b.String(),
		Temperature:       p.Temperature,
	}, nil
}

// Build returns the prompt for kind. content is passed separately from the
// article so callers can send a truncated body.
func (c *PromptCatalog) Build(kind entity.ActionKind, title, content, url string) (entity.PromptSpec, error) {
	p, ok := c.actions[kind]
	if !ok {
		return entity.PromptSpec{}, fmt.Errorf("no prompt for action %q", kind)
	}
	return p.render(promptData{Title: title, Content: content, URL: url})
}

// Translation returns the English to Russian translation prompt.
func (c *PromptCatalog) Translation(title, content string) (entity.PromptSpec, error) {
	return c.translate.render(promptData{Title: title, Content: content})
}

// AddsSourceLink reports whether results of kind must carry the source URL.
func (c *PromptCatalog) AddsSourceLink(kind entity.ActionKind) bool {
	p, ok := c.actions[kind]
	return ok && p.SourceLink
}
