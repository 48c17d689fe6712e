package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates/*.md
var builtinFS embed.FS

// Names of the built-in templates.
const (
	NameModified  = "modified"
	NameUntracked = "untracked"
)

func loadBuiltin(name string) (*Template, error) {
	file := "templates/" + name + ".md"
	data, err := builtinFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading builtin template %s: %w", file, err)
	}
	return parseTemplate(name, string(data))
}

func listBuiltins() []TemplateInfo {
	infos, _ := listFS(builtinFS, "templates", SourceBuiltin)
	return infos
}

// listFS lists the parseable *.md templates in dir of fsys.
func listFS(fsys fs.FS, dir string, source string) ([]TemplateInfo, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var infos []TemplateInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".md")
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		tmpl, err := parseTemplate(name, string(data))
		if err != nil {
			continue
		}
		infos = append(infos, TemplateInfo{Name: name, Description: tmpl.Description, Source: source})
	}
	return infos, nil
}
