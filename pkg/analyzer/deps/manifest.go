package deps

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml"
	"golang.org/x/mod/modfile"
)

// Manifest is a declared dependency list.
type Manifest struct {
	Path         string            `json:"path"`
	Ecosystem    Ecosystem         `json:"ecosystem"`
	Dependencies map[string]string `json:"dependencies"`
}

// ManifestNames lists the recognized manifest files in lookup order.
var ManifestNames = []string{"package.json", "go.mod", "Cargo.toml", "requirements.txt"}

// FindManifest returns the first recognized manifest in root, or "".
func FindManifest(root string) string {
	for _, name := range ManifestNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// ParseManifest parses manifest content, dispatching on the file name.
func ParseManifest(name string, data []byte) (*Manifest, error) {
	switch name {
	case "package.json":
		return parsePackageJSON(data)
	case "go.mod":
		return parseGoMod(data)
	case "Cargo.toml":
		return parseCargo(data)
	case "requirements.txt":
		return parseRequirements(data)
	default:
		return nil, fmt.Errorf("unrecognized manifest %q", name)
	}
}

func parsePackageJSON(data []byte) (*Manifest, error) {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}

	m := &Manifest{Ecosystem: EcosystemNPM, Dependencies: make(map[string]string)}
	for name, v := range pkg.DevDependencies {
		m.Dependencies[name] = v
	}
	for name, v := range pkg.Dependencies {
		m.Dependencies[name] = v
	}
	return m, nil
}

func parseGoMod(data []byte) (*Manifest, error) {
	f, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return nil, err
	}

	m := &Manifest{Ecosystem: EcosystemGo, Dependencies: make(map[string]string)}
	for _, r := range f.Require {
		m.Dependencies[r.Mod.Path] = r.Mod.Version
	}
	return m, nil
}

func parseCargo(data []byte) (*Manifest, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}

	m := &Manifest{Ecosystem: EcosystemCargo, Dependencies: make(map[string]string)}
	for _, section := range []string{"dev-dependencies", "dependencies"} {
		deps, ok := tree.Get(section).(*toml.Tree)
		if !ok {
			continue
		}
		for _, name := range deps.Keys() {
			switch v := deps.Get(name).(type) {
			case string:
				m.Dependencies[name] = v
			case *toml.Tree:
				if version, ok := v.Get("version").(string); ok {
					m.Dependencies[name] = version
				} else {
					m.Dependencies[name] = "*"
				}
			}
		}
	}
	return m, nil
}

var requirementLine = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)(\[[^\]]*\])?\s*(.*)$`)

func parseRequirements(data []byte) (*Manifest, error) {
	m := &Manifest{Ecosystem: EcosystemPyPI, Dependencies: make(map[string]string)}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		if i := strings.Index(line, ";"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		match := requirementLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		spec := strings.TrimSpace(match[3])
		if spec == "" {
			spec = "*"
		}
		m.Dependencies[strings.ToLower(match[1])] = spec
	}
	return m, sc.Err()
}
