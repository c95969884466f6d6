package smells

import (
	"path"
	"regexp"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/panbanda/revamp/pkg/external"
)

var relativeImportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bfrom\s+['"](\.{1,2}/[^'"]+)['"]`),
	regexp.MustCompile(`\bimport\s+['"](\.{1,2}/[^'"]+)['"]`),
	regexp.MustCompile(`\brequire\(\s*['"](\.{1,2}/[^'"]+)['"]\s*\)`),
	regexp.MustCompile(`\bimport\(\s*['"](\.{1,2}/[^'"]+)['"]\s*\)`),
	regexp.MustCompile(`(?m)^\s*from\s+(\.+[\w.]*)\s+import\b`),
	regexp.MustCompile(`\brequire_relative\s*\(?\s*['"]([^'"]+)['"]`),
}

var resolveSuffixes = []string{
	"", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".py", ".rb",
	"/index.ts", "/index.tsx", "/index.js", "/index.jsx", "/__init__.py",
}

// ImportGraph is a file-level dependency graph built from relative imports.
type ImportGraph struct {
	g     *simple.DirectedGraph
	paths []string
	ids   map[string]int64
}

// NewImportGraph creates a graph containing the given files as nodes.
func NewImportGraph(paths []string) *ImportGraph {
	ig := &ImportGraph{
		g:     simple.NewDirectedGraph(),
		paths: paths,
		ids:   make(map[string]int64, len(paths)),
	}
	for i, p := range paths {
		ig.ids[p] = int64(i)
		ig.g.AddNode(simple.Node(int64(i)))
	}
	return ig
}

// AddImports resolves the relative imports of one file and adds an edge
// for each that names a known file. Self-imports are ignored.
func (ig *ImportGraph) AddImports(from string, content []byte) {
	fromID, ok := ig.ids[from]
	if !ok {
		return
	}
	for _, spec := range RelativeImports(content) {
		target, ok := ig.resolve(from, spec)
		if !ok {
			continue
		}
		toID := ig.ids[target]
		if toID == fromID {
			continue
		}
		ig.g.SetEdge(simple.Edge{F: simple.Node(fromID), T: simple.Node(toID)})
	}
}

// Nodes returns the number of files in the graph.
func (ig *ImportGraph) Nodes() int {
	return ig.g.Nodes().Len()
}

// Edges returns the number of resolved import edges.
func (ig *ImportGraph) Edges() int {
	return ig.g.Edges().Len()
}

// Cycles returns the strongly connected components with more than one
// member. Members and cycles are sorted for stable output.
func (ig *ImportGraph) Cycles() []external.Cycle {
	var cycles []external.Cycle
	for _, scc := range topo.TarjanSCC(ig.g) {
		if len(scc) < 2 {
			continue
		}
		members := make(external.Cycle, len(scc))
		for i, n := range scc {
			members[i] = ig.paths[n.ID()]
		}
		slices.Sort(members)
		cycles = append(cycles, members)
	}
	slices.SortFunc(cycles, func(a, b external.Cycle) int {
		return strings.Compare(a[0], b[0])
	})
	return cycles
}

func (ig *ImportGraph) resolve(from, spec string) (string, bool) {
	var base string
	if strings.HasPrefix(spec, ".") && !strings.Contains(spec, "/") {
		base = resolvePythonModule(from, spec)
	} else {
		base = path.Join(path.Dir(from), spec)
	}
	for _, suffix := range resolveSuffixes {
		if _, ok := ig.ids[base+suffix]; ok {
			return base + suffix, true
		}
	}
	return "", false
}

// resolvePythonModule turns a dotted relative module such as "..models.user"
// into a slash path relative to the project root.
func resolvePythonModule(from, spec string) string {
	dots := len(spec) - len(strings.TrimLeft(spec, "."))
	dir := path.Dir(from)
	for i := 1; i < dots; i++ {
		dir = path.Dir(dir)
	}
	rest := strings.ReplaceAll(spec[dots:], ".", "/")
	if rest == "" {
		return path.Join(dir, "__init__")
	}
	return path.Join(dir, rest)
}

// RelativeImports extracts relative import specifiers from source text.
func RelativeImports(content []byte) []string {
	var specs []string
	for _, re := range relativeImportPatterns {
		for _, m := range re.FindAllSubmatch(content, -1) {
			specs = append(specs, string(m[1]))
		}
	}
	return specs
}
