// Package skills loads SKILL.md files: folders of reusable know-how with
// YAML frontmatter metadata and a markdown body. Metadata is cheap and
// loaded up front for the system prompt; the body is injected into the
// conversation only when a skill is invoked.
package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Skill is the parsed metadata of one SKILL.md plus its location. The body
// is read on demand.
type Skill struct {
	Name        string
	Description string
	Dir         string // folder holding SKILL.md and optional resources
	path        string
}

// frontmatter is the YAML header of a SKILL.md file.
type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Loader discovers and serves skills under a root directory laid out as
// root/<skill>/SKILL.md.
type Loader struct {
	root   string
	skills map[string]Skill
}

// NewLoader scans root and returns a Loader holding the metadata of every
// valid skill. Files that do not match the format are skipped. A missing
// root yields an empty loader.
func NewLoader(root string) (*Loader, error) {
	l := &Loader{root: root, skills: make(map[string]Skill)}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return l, nil
	}

	matches, err := doublestar.Glob(os.DirFS(root), "*/SKILL.md")
	if err != nil {
		return nil, fmt.Errorf("scan skills: %w", err)
	}
	sort.Strings(matches)

	for _, rel := range matches {
		path := filepath.Join(root, rel)
		s, ok := parseSkill(path)
		if ok {
			l.skills[s.Name] = s
		}
	}
	return l, nil
}

// parseSkill reads the frontmatter of a SKILL.md. Both name and
// description are required.
func parseSkill(path string) (Skill, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, false
	}
	header, _, ok := splitFrontmatter(string(data))
	if !ok {
		return Skill{}, false
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return Skill{}, false
	}
	if fm.Name == "" || fm.Description == "" {
		return Skill{}, false
	}

	return Skill{
		Name:        fm.Name,
		Description: fm.Description,
		Dir:         filepath.Dir(path),
		path:        path,
	}, true
}

// splitFrontmatter separates the YAML header between "---" markers from
// the markdown body.
func splitFrontmatter(content string) (header, body string, ok bool) {
	if !strings.HasPrefix(content, "---") {
		return "", "", false
	}
	rest := strings.TrimPrefix(content, "---")
	rest = strings.TrimPrefix(rest, "\n")
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", "", false
	}
	header = rest[:idx]
	body = rest[idx+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	return header, strings.TrimSpace(body), true
}

// Names returns the available skill names in sorted order.
func (l *Loader) Names() []string {
	names := make([]string, 0, len(l.skills))
	for name := range l.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptions renders the one-line-per-skill digest for the system
// prompt. Only metadata is included; bodies stay on disk.
func (l *Loader) Descriptions() string {
	if len(l.skills) == 0 {
		return "(no skills available)"
	}
	var sb strings.Builder
	for _, name := range l.Names() {
		fmt.Fprintf(&sb, "- %s: %s\n", name, l.skills[name].Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Content returns the full body of a skill plus a listing of its bundled
// resources (scripts/, references/, assets/).
func (l *Loader) Content(name string) (string, error) {
	s, ok := l.skills[name]
	if !ok {
		available := strings.Join(l.Names(), ", ")
		if available == "" {
			available = "none"
		}
		return "", fmt.Errorf("unknown skill %q, available: %s", name, available)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read skill %s: %w", name, err)
	}
	_, body, ok := splitFrontmatter(string(data))
	if !ok {
		return "", fmt.Errorf("skill %s: malformed SKILL.md", name)
	}

	content := fmt.Sprintf("# Skill: %s\n\n%s", s.Name, body)

	var resources []string
	for _, folder := range []struct{ dir, label string }{
		{"scripts", "Scripts"},
		{"references", "References"},
		{"assets", "Assets"},
	} {
		entries, err := os.ReadDir(filepath.Join(s.Dir, folder.dir))
		if err != nil || len(entries) == 0 {
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		resources = append(resources, fmt.Sprintf("%s: %s", folder.label, strings.Join(names, ", ")))
	}
	if len(resources) > 0 {
		content += fmt.Sprintf("\n\n**Available resources in %s:**\n", s.Dir)
		for _, r := range resources {
			content += "- " + r + "\n"
		}
		content = strings.TrimRight(content, "\n")
	}
	return content, nil
}

// Injection wraps a skill's content in the tags the agent loop appends as
// a tool result, so the model can tell skill knowledge from ordinary
// output.
func (l *Loader) Injection(name, args string) (string, error) {
	content, err := l.Content(name)
	if err != nil {
		return "", err
	}
	argsAttr := ""
	if args != "" {
		argsAttr = fmt.Sprintf(" args=%q", args)
	}
	return fmt.Sprintf("<skill-loaded name=%q%s>\n%s\n</skill-loaded>\n\nFollow the instructions in the skill above to complete the user's task.", name, argsAttr, content), nil
}
