// Package deadcode estimates unused code with reference-count heuristics.
// Every finding is a removal candidate for a human to verify, never a
// proof of unreachability.
package deadcode

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/panbanda/revamp/pkg/analyzer"
	"github.com/panbanda/revamp/pkg/config"
	"github.com/panbanda/revamp/pkg/scanner"
	"github.com/panbanda/revamp/pkg/source"
)

type compiledPattern struct {
	config.PatternConfig
	re *regexp.Regexp
}

// Detector runs the unused export, unreachable file and deprecated usage
// passes.
type Detector struct {
	cfg        config.DeadCodeConfig
	exports    []compiledPattern
	deprecated []compiledPattern
	entryFiles map[string]struct{}
	refLangs   map[string]struct{}
	logger     *slog.Logger
}

// Option is a functional option for configuring Detector.
type Option func(*Detector)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = l
	}
}

// New creates a detector. Patterns that fail to compile are skipped.
func New(cfg config.DeadCodeConfig, opts ...Option) *Detector {
	d := &Detector{
		cfg:        cfg,
		exports:    compile(cfg.ExportPatterns),
		deprecated: compile(cfg.DeprecatedPatterns),
		entryFiles: toSet(cfg.EntryFiles),
		refLangs:   toSet(cfg.FileReferenceLanguages),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func compile(patterns []config.PatternConfig) []compiledPattern {
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		out = append(out, compiledPattern{PatternConfig: p, re: re})
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

type fileContent struct {
	id     uint32
	record scanner.FileRecord
	data   []byte
}

// Analyze runs all passes over the scanned files.
func (d *Detector) Analyze(scan *scanner.Result, src source.ContentSource) *Analysis {
	result := &Analysis{
		GeneratedAt:      time.Now().UTC(),
		UnusedExports:    []Entry{},
		UnreachableFiles: []Entry{},
		DeprecatedUsages: []Entry{},
	}
	if scan == nil || len(scan.Files) == 0 {
		return result
	}

	type indexed struct {
		id     uint32
		record scanner.FileRecord
	}
	items := make([]indexed, len(scan.Files))
	for i, f := range scan.Files {
		items[i] = indexed{id: uint32(i), record: f}
	}

	contents := analyzer.ForEachFile(items, func(it indexed) (fileContent, error) {
		data, err := src.Read(it.record.Path)
		if err != nil {
			d.logger.Debug("skipping unreadable file", "path", it.record.Path, "error", err)
			return fileContent{}, err
		}
		return fileContent{id: it.id, record: it.record, data: data}, nil
	}, nil)

	idx := newReferenceIndex()
	tokenSets := analyzer.ForEachFile(contents, func(fc fileContent) (map[string]struct{}, error) {
		return tokenize(fc.data), nil
	}, nil)
	for i, fc := range contents {
		idx.add(fc.id, tokenSets[i])
	}

	sampleSize := len(scan.DeepSample())

	for _, fc := range contents {
		if int(fc.id) < sampleSize {
			exports, sampled := d.unusedExports(fc, idx)
			result.UnusedExports = append(result.UnusedExports, exports...)
			result.Summary.SymbolsSampled += sampled
		}
		if e, ok := d.unreachableFile(fc, idx); ok {
			result.UnreachableFiles = append(result.UnreachableFiles, e)
		}
		result.DeprecatedUsages = append(result.DeprecatedUsages, d.deprecatedUsages(fc)...)
	}

	sortEntries(result.UnusedExports)
	sortEntries(result.UnreachableFiles)
	sortEntries(result.DeprecatedUsages)

	s := &result.Summary
	s.FilesAnalyzed = len(contents)
	s.UnusedExports = len(result.UnusedExports)
	s.UnreachableFiles = len(result.UnreachableFiles)
	s.DeprecatedUsages = len(result.DeprecatedUsages)
	s.TotalDeadLines = s.UnusedExports*d.cfg.LinesPerExport + s.UnreachableFiles*d.cfg.LinesPerFile
	if scan.TotalLines > 0 {
		s.PercentageOfCodebase = float64(s.TotalDeadLines) / float64(scan.TotalLines) * 100
	}

	return result
}

// unusedExports flags exported symbols referenced by too few other files.
func (d *Detector) unusedExports(fc fileContent, idx *referenceIndex) ([]Entry, int) {
	var entries []Entry
	sampled := 0
	seen := make(map[string]struct{})

	forEachLine(fc.data, func(lineNo int, line []byte) {
		for _, p := range d.exports {
			if !p.AppliesTo(fc.record.Language) {
				continue
			}
			m := p.re.FindSubmatch(line)
			if len(m) < 2 || len(m[1]) == 0 {
				continue
			}
			name := string(m[1])
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			sampled++

			refs := idx.referencesExcluding(name, fc.id)
			if refs > d.cfg.UnusedExportMaxRefs {
				continue
			}
			entries = append(entries, newEntry(CategoryUnusedExport, ParseKind(p.Kind), fc.record.Path, name, lineNo, refs,
				fmt.Sprintf("exported %s %q is referenced by %d other file(s)", p.Kind, name, refs)))
		}
	})
	return entries, sampled
}

// unreachableFile flags standalone files whose name is rarely referenced.
func (d *Detector) unreachableFile(fc fileContent, idx *referenceIndex) (Entry, bool) {
	if _, ok := d.refLangs[fc.record.Language]; !ok {
		return Entry{}, false
	}
	if d.isTestFile(fc.record.Path) {
		return Entry{}, false
	}
	stem := Stem(fc.record.Path)
	if _, ok := d.entryFiles[stem]; ok || stem == "" {
		return Entry{}, false
	}

	refs := idx.referencesExcluding(stem, fc.id)
	if refs > d.cfg.UnreachableFileMaxRefs {
		return Entry{}, false
	}
	return newEntry(CategoryUnreachableFile, KindFile, fc.record.Path, "", 0, refs,
		fmt.Sprintf("module %q is referenced by %d other file(s)", stem, refs)), true
}

// deprecatedUsages reports every line matching a deprecation marker.
func (d *Detector) deprecatedUsages(fc fileContent) []Entry {
	var entries []Entry
	forEachLine(fc.data, func(lineNo int, line []byte) {
		for _, p := range d.deprecated {
			if !p.AppliesTo(fc.record.Language) || !p.re.Match(line) {
				continue
			}
			entries = append(entries, newEntry(CategoryDeprecatedUsage, ParseKind(p.Kind), fc.record.Path, p.Name, lineNo, 0,
				fmt.Sprintf("matches deprecation marker %q", p.Name)))
		}
	})
	return entries
}

func (d *Detector) isTestFile(p string) bool {
	lower := strings.ToLower(p)
	base := path.Base(lower)
	for _, marker := range d.cfg.TestFileMarkers {
		if strings.HasSuffix(marker, "/") {
			if strings.HasPrefix(lower, marker) || strings.Contains(lower, "/"+marker) {
				return true
			}
			continue
		}
		if strings.Contains(base, marker) {
			return true
		}
	}
	return false
}

// Stem returns the file name without directory or extension.
func Stem(p string) string {
	base := path.Base(p)
	if len(base) < 2 {
		return base
	}
	if i := strings.Index(base[1:], "."); i >= 0 {
		return base[:i+1]
	}
	return base
}

func forEachLine(data []byte, fn func(lineNo int, line []byte)) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fn(lineNo, sc.Bytes())
	}
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].File != entries[j].File {
			return entries[i].File < entries[j].File
		}
		return entries[i].Line < entries[j].Line
	})
}
