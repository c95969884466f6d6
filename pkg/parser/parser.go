// Package parser wraps tree-sitter for the structural measurements that
// regular expressions get wrong, such as counting methods in large files.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language represents a grammar supported by the parser.
type Language string

const (
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangTSX        Language = "tsx"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangRuby       Language = "ruby"
	LangPHP        Language = "php"
	LangUnknown    Language = "unknown"
)

// Parser wraps a tree-sitter parser. It is not safe for concurrent use.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

// New creates a new parser instance.
func New() *Parser {
	return &Parser{
		parser: sitter.NewParser(),
	}
}

// Parse parses source code with a specified language.
func (p *Parser) Parse(source []byte, lang Language, path string) (*ParseResult, error) {
	tsLang, err := GetTreeSitterLanguage(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &ParseResult{
		Tree:     tree,
		Language: lang,
		Source:   source,
		Path:     path,
	}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// GetTreeSitterLanguage returns the tree-sitter grammar for a Language.
func GetTreeSitterLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangRust:
		return rust.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	case LangC:
		return c.GetLanguage(), nil
	case LangCPP:
		return cpp.GetLanguage(), nil
	case LangCSharp:
		return csharp.GetLanguage(), nil
	case LangRuby:
		return ruby.GetLanguage(), nil
	case LangPHP:
		return php.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// ForFile maps a scanner language name and file path to a grammar.
// JSX and TSX sources need the tsx grammar regardless of their language name.
func ForFile(language, path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx", ".jsx":
		return LangTSX
	}

	switch Language(language) {
	case LangGo, LangRust, LangPython, LangTypeScript, LangJavaScript,
		LangJava, LangC, LangCPP, LangCSharp, LangRuby, LangPHP:
		return Language(language)
	default:
		return LangUnknown
	}
}

// NodeVisitor is a function that visits AST nodes.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// Walk traverses the AST calling visitor for each node. Returning false
// skips the node's children.
func Walk(node *sitter.Node, source []byte, visitor NodeVisitor) {
	if node == nil {
		return
	}

	if !visitor(node, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visitor)
	}
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// FunctionNode represents a parsed function or method.
type FunctionNode struct {
	Name      string
	StartLine uint32
	EndLine   uint32
}

// GetFunctions extracts named function and method definitions.
// Anonymous functions and arrow functions assigned inline are skipped since
// they do not add to a file's method surface.
func GetFunctions(result *ParseResult) []FunctionNode {
	var functions []FunctionNode
	funcTypes := functionNodeTypes(result.Language)
	if len(funcTypes) == 0 {
		return nil
	}

	Walk(result.Tree.RootNode(), result.Source, func(node *sitter.Node, source []byte) bool {
		if _, ok := funcTypes[node.Type()]; !ok {
			return true
		}
		fn := FunctionNode{
			Name:      functionName(node, source, result.Language),
			StartLine: node.StartPoint().Row + 1,
			EndLine:   node.EndPoint().Row + 1,
		}
		if fn.Name != "" {
			functions = append(functions, fn)
		}
		return true
	})

	return functions
}

// CountMethods returns the number of named functions and methods in source.
func (p *Parser) CountMethods(source []byte, lang Language, path string) (int, error) {
	result, err := p.Parse(source, lang, path)
	if err != nil {
		return 0, err
	}
	defer result.Tree.Close()
	return len(GetFunctions(result)), nil
}

func functionNodeTypes(lang Language) map[string]struct{} {
	var types []string
	switch lang {
	case LangGo:
		types = []string{"function_declaration", "method_declaration"}
	case LangRust:
		types = []string{"function_item"}
	case LangPython:
		types = []string{"function_definition"}
	case LangTypeScript, LangJavaScript, LangTSX:
		types = []string{"function_declaration", "method_definition", "generator_function_declaration"}
	case LangJava, LangCSharp:
		types = []string{"method_declaration", "constructor_declaration"}
	case LangC, LangCPP:
		types = []string{"function_definition"}
	case LangRuby:
		types = []string{"method", "singleton_method"}
	case LangPHP:
		types = []string{"function_definition", "method_declaration"}
	}

	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

func functionName(node *sitter.Node, source []byte, lang Language) string {
	if lang == LangC || lang == LangCPP {
		if decl := node.ChildByFieldName("declarator"); decl != nil {
			if name := decl.ChildByFieldName("declarator"); name != nil {
				return GetNodeText(name, source)
			}
		}
		return ""
	}
	if name := node.ChildByFieldName("name"); name != nil {
		return GetNodeText(name, source)
	}
	return ""
}
