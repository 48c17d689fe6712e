// Package prompt loads the prompt templates used to ask for commit messages.
//
// A template is Markdown with optional YAML front matter. Lookup order is
// the project (<repo>/.autocommit/prompts), then the user's config
// directory (<config>/prompts), then the built-ins compiled into the binary.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template sources.
const (
	SourceProject = "project"
	SourceGlobal  = "global"
	SourceBuiltin = "built-in"
)

// ProjectDir is the per-repository override directory, relative to the root.
const ProjectDir = ".autocommit/prompts"

// Template is a prompt with front-matter metadata.
type Template struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     int    `yaml:"version,omitempty"`
	MaxTokens   int    `yaml:"max_tokens,omitempty"`
	System      string `yaml:"system,omitempty"`

	Content string `yaml:"-"`
	Source  string `yaml:"-"`
}

// TemplateInfo describes a template for listings.
type TemplateInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Overrides   string `json:"overrides,omitempty"`
}

// Loader resolves templates by name.
type Loader struct {
	projectDir string
	globalDir  string
}

// NewLoader creates a Loader for a repository root and a config directory.
// Either may be empty to skip that layer.
func NewLoader(repoRoot, configDir string) *Loader {
	l := &Loader{}
	if repoRoot != "" {
		l.projectDir = filepath.Join(repoRoot, filepath.FromSlash(ProjectDir))
	}
	if configDir != "" {
		l.globalDir = filepath.Join(configDir, "prompts")
	}
	return l
}

// Load returns the highest-priority template called name.
func (l *Loader) Load(name string) (*Template, error) {
	for _, layer := range l.layers() {
		tmpl, err := loadFromDir(layer.dir, name)
		if err == nil {
			tmpl.Source = layer.source
			return tmpl, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	tmpl, err := loadBuiltin(name)
	if err != nil {
		return nil, fmt.Errorf("template %q not found", name)
	}
	tmpl.Source = SourceBuiltin
	return tmpl, nil
}

// List returns every available template. A built-in shadowed by a project
// or global template is reported on the overriding entry.
func (l *Loader) List() []TemplateInfo {
	seen := make(map[string]int)
	var infos []TemplateInfo

	for _, layer := range l.layers() {
		found, err := listFS(os.DirFS(layer.dir), ".", layer.source)
		if err != nil {
			continue
		}
		for _, info := range found {
			if _, ok := seen[info.Name]; ok {
				continue
			}
			seen[info.Name] = len(infos)
			infos = append(infos, info)
		}
	}

	for _, info := range listBuiltins() {
		if i, ok := seen[info.Name]; ok {
			if infos[i].Overrides == "" {
				infos[i].Overrides = SourceBuiltin
			}
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

type layer struct {
	source string
	dir    string
}

func (l *Loader) layers() []layer {
	var layers []layer
	if l.projectDir != "" {
		layers = append(layers, layer{SourceProject, l.projectDir})
	}
	if l.globalDir != "" {
		layers = append(layers, layer{SourceGlobal, l.globalDir})
	}
	return layers
}

func loadFromDir(dir, name string) (*Template, error) {
	data, err := os.ReadFile(filepath.Join(dir, name+".md"))
	if err != nil {
		return nil, err
	}
	tmpl, err := parseTemplate(name, string(data))
	if err != nil {
		return nil, fmt.Errorf("template %s in %s: %w", name, dir, err)
	}
	return tmpl, nil
}

// Render substitutes {{key}} placeholders. Unknown placeholders are left as is.
func (t *Template) Render(vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for key, val := range vars {
		pairs = append(pairs, "{{"+key+"}}", val)
	}
	return strings.NewReplacer(pairs...).Replace(t.Content)
}

func parseTemplate(name, raw string) (*Template, error) {
	frontmatter, content := splitFrontmatter(raw)

	var tmpl Template
	if frontmatter != "" {
		if err := yaml.Unmarshal([]byte(frontmatter), &tmpl); err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
	}
	if tmpl.Name == "" {
		tmpl.Name = name
	}
	tmpl.Content = strings.TrimSpace(content)
	if tmpl.Content == "" {
		return nil, errors.New("template body is empty")
	}
	return &tmpl, nil
}

// splitFrontmatter separates a leading "---" delimited YAML block.
func splitFrontmatter(raw string) (frontmatter, content string) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "---") {
		return "", raw
	}
	before, after, ok := strings.Cut(raw[3:], "\n---")
	if !ok {
		return "", raw
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}
