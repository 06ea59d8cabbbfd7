package parse

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/petrel-ls/petrel/internal/errors"
	"github.com/petrel-ls/petrel/internal/index"
	"github.com/petrel-ls/petrel/internal/symbols"
)

// modelBases are the framework base classes whose subclasses declare
// models.
var modelBases = []string{"Model", "TransientModel", "AbstractModel"}

// parsePython extracts model classes: any class deriving from a framework
// model base with a _name or _inherit string assignment in its body.
func (p *Parser) parsePython(f *File, content []byte) error {
	if p.python == nil {
		return errors.NewParseError(f.Path, 0, 0, fmt.Errorf("python grammar unavailable"))
	}
	tree := p.python.Parse(content, nil)
	if tree == nil {
		return errors.NewParseError(f.Path, 0, 0, fmt.Errorf("tree-sitter parse failed"))
	}
	defer tree.Close()

	p.visitPython(f, tree.RootNode(), content)
	return nil
}

func (p *Parser) visitPython(f *File, node *tree_sitter.Node, content []byte) {
	if node.Kind() == "class_definition" {
		p.extractModelClass(f, node, content)
	}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		if child := node.Child(i); child != nil {
			p.visitPython(f, child, content)
		}
	}
}

func (p *Parser) extractModelClass(f *File, node *tree_sitter.Node, content []byte) {
	if !derivesFromModel(node, content) {
		return
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}

	var name string
	var inherits []string
	count := body.ChildCount()
	for i := uint(0); i < count; i++ {
		stmt := body.Child(i)
		if stmt == nil || stmt.Kind() != "expression_statement" || stmt.ChildCount() == 0 {
			continue
		}
		assign := stmt.Child(0)
		if assign == nil || assign.Kind() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		right := assign.ChildByFieldName("right")
		if left == nil || right == nil || left.Kind() != "identifier" {
			continue
		}
		switch nodeText(left, content) {
		case "_name":
			name = pythonStringValue(right, content)
		case "_inherit":
			inherits = append(inherits, pythonStringValues(right, content)...)
		}
	}

	// a class with only _inherit extends the inherited model in place
	if name == "" && len(inherits) > 0 {
		name = inherits[0]
	}
	if name == "" {
		return
	}

	pos := node.StartPosition()
	model := index.Model{
		Name:   name,
		Module: f.Module,
		Location: index.Location{
			Path:   f.Path,
			Line:   uint32(pos.Row) + 1,
			Column: uint32(pos.Column),
		},
	}
	for _, base := range inherits {
		if base != "" && base != name {
			model.Inherits = append(model.Inherits, symbols.InternModel(base))
		}
	}
	f.Models = append(f.Models, model)
}

// derivesFromModel checks the superclass list for a framework model base.
func derivesFromModel(node *tree_sitter.Node, content []byte) bool {
	supers := node.ChildByFieldName("superclasses")
	if supers == nil {
		return false
	}
	text := nodeText(supers, content)
	for _, base := range modelBases {
		if strings.Contains(text, base) {
			return true
		}
	}
	return false
}

// pythonStringValue unquotes a string literal node, returning "" for
// anything that is not a plain string.
func pythonStringValue(node *tree_sitter.Node, content []byte) string {
	if node.Kind() != "string" {
		return ""
	}
	text := nodeText(node, content)
	// drop prefixes like r"" or u'' before trimming quotes
	for len(text) > 0 && text[0] != '"' && text[0] != '\'' {
		text = text[1:]
	}
	return strings.Trim(text, "\"'")
}

// pythonStringValues handles both a single string and a list of strings,
// the two shapes _inherit takes.
func pythonStringValues(node *tree_sitter.Node, content []byte) []string {
	if node.Kind() == "string" {
		if v := pythonStringValue(node, content); v != "" {
			return []string{v}
		}
		return nil
	}
	if node.Kind() != "list" {
		return nil
	}
	var values []string
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "string" {
			if v := pythonStringValue(child, content); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

func nodeText(node *tree_sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}
