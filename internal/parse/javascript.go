package parse

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/petrel-ls/petrel/internal/errors"
	"github.com/petrel-ls/petrel/internal/index"
	"github.com/petrel-ls/petrel/internal/symbols"
)

// parseJavaScript extracts UI components: class declarations with an
// extends clause. The superclass chain is how widget inheritance is
// expressed, so classes without one are skipped.
func (p *Parser) parseJavaScript(f *File, content []byte) error {
	if p.js == nil {
		return errors.NewParseError(f.Path, 0, 0, fmt.Errorf("javascript grammar unavailable"))
	}
	tree := p.js.Parse(content, nil)
	if tree == nil {
		return errors.NewParseError(f.Path, 0, 0, fmt.Errorf("tree-sitter parse failed"))
	}
	defer tree.Close()

	p.visitJS(f, tree.RootNode(), content)
	return nil
}

func (p *Parser) visitJS(f *File, node *tree_sitter.Node, content []byte) {
	if node.Kind() == "class_declaration" {
		p.extractComponent(f, node, content)
	}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		if child := node.Child(i); child != nil {
			p.visitJS(f, child, content)
		}
	}
}

func (p *Parser) extractComponent(f *File, node *tree_sitter.Node, content []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	parent := superclassName(node, content)
	if parent == "" {
		return
	}

	pos := node.StartPosition()
	component := index.Component{
		Name:   nodeText(nameNode, content),
		Module: f.Module,
		Location: index.Location{
			Path:   f.Path,
			Line:   uint32(pos.Row) + 1,
			Column: uint32(pos.Column),
		},
	}
	if parent != component.Name {
		component.Extends = symbols.InternComponent(parent)
	}
	f.Components = append(f.Components, component)
}

// superclassName returns the extended class from the heritage clause.
// Qualified names like `ns.Widget` keep only the final segment, matching
// how component registries key entries.
func superclassName(node *tree_sitter.Node, content []byte) string {
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "class_heritage" {
			continue
		}
		inner := child.ChildCount()
		for j := uint(0); j < inner; j++ {
			expr := child.Child(j)
			if expr == nil {
				continue
			}
			switch expr.Kind() {
			case "identifier":
				return nodeText(expr, content)
			case "member_expression":
				if prop := expr.ChildByFieldName("property"); prop != nil {
					return nodeText(prop, content)
				}
			}
		}
		// fall back to raw text minus the keyword
		text := strings.TrimSpace(strings.TrimPrefix(nodeText(child, content), "extends"))
		if i := strings.IndexAny(text, " \t\n({"); i > 0 {
			text = text[:i]
		}
		if i := strings.LastIndexByte(text, '.'); i >= 0 {
			text = text[i+1:]
		}
		return text
	}
	return ""
}
