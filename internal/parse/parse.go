// Package parse turns framework source files into index entities. XML data
// files are scanned with a streaming decoder; Python and JavaScript go
// through tree-sitter. Parsers produce plain values; interning and index
// insertion belong to the caller.
package parse

import (
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/petrel-ls/petrel/internal/debug"
	"github.com/petrel-ls/petrel/internal/index"
)

// File is the parse result for one source file.
type File struct {
	Path   string
	Module string
	// Hash is the xxhash of the raw content, used to skip reindexing
	// unchanged files.
	Hash uint64

	Records    []index.Record
	Models     []index.Model
	Components []index.Component
}

// Parser extracts entities from the three indexed languages. A Parser is
// not safe for concurrent use; callers pool one per worker.
type Parser struct {
	python *tree_sitter.Parser
	js     *tree_sitter.Parser
}

// NewParser creates a parser with the Python and JavaScript grammars
// loaded. A grammar that fails to load leaves its parser nil and the
// corresponding files report a parse error instead of entities.
func NewParser() *Parser {
	p := &Parser{}

	py := tree_sitter.NewParser()
	if err := py.SetLanguage(tree_sitter.NewLanguage(tree_sitter_python.Language())); err == nil {
		p.python = py
	}

	js := tree_sitter.NewParser()
	if err := js.SetLanguage(tree_sitter.NewLanguage(tree_sitter_javascript.Language())); err == nil {
		p.js = js
	}

	return p
}

// Close releases the underlying tree-sitter parsers.
func (p *Parser) Close() {
	if p.python != nil {
		p.python.Close()
	}
	if p.js != nil {
		p.js.Close()
	}
}

// Indexable reports whether path has an extension this parser handles.
func Indexable(path string) bool {
	switch filepath.Ext(path) {
	case ".xml", ".py", ".js":
		return true
	}
	return false
}

// ParseFile extracts the entities declared in content. module is the name
// of the declaring module, used to qualify record ids.
func (p *Parser) ParseFile(path, module string, content []byte) (*File, error) {
	f := &File{
		Path:   path,
		Module: module,
		Hash:   xxhash.Sum64(content),
	}

	var err error
	switch filepath.Ext(path) {
	case ".xml":
		err = p.parseXML(f, content)
	case ".py":
		err = p.parsePython(f, content)
	case ".js":
		err = p.parseJavaScript(f, content)
	}
	if err != nil {
		return nil, err
	}
	debug.LogParse("%s: %d records, %d models, %d components\n",
		path, len(f.Records), len(f.Models), len(f.Components))
	return f, nil
}

// lineIndex maps byte offsets to 1-based line and 0-based column for
// formats whose decoder only reports offsets.
type lineIndex struct {
	starts []int // byte offset of each line start
}

func newLineIndex(content []byte) *lineIndex {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (li *lineIndex) locate(offset int) (line, column uint32) {
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return uint32(i + 1), uint32(offset - li.starts[i])
}
