package parse

import (
	"bytes"
	"encoding/xml"
	stderrors "errors"
	"io"
	"strings"

	"github.com/petrel-ls/petrel/internal/errors"
	"github.com/petrel-ls/petrel/internal/index"
	"github.com/petrel-ls/petrel/internal/symbols"
)

// parseXML scans a data file for <record> and <template> declarations.
// Inheritance for records lives in a nested <field name="inherit_id"
// ref="..."/>; templates carry it as an inherit_id attribute.
func (p *Parser) parseXML(f *File, content []byte) error {
	lines := newLineIndex(content)
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.Strict = false

	for {
		offset := int(dec.InputOffset())
		tok, err := dec.Token()
		if endOfInput(err) {
			return nil
		}
		if err != nil {
			line, col := lines.locate(int(dec.InputOffset()))
			return errors.NewParseError(f.Path, int(line), int(col), err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "record":
			if err := p.scanRecord(f, dec, start, lines, offset); err != nil {
				return err
			}
		case "template":
			p.scanTemplate(f, start, lines, offset)
			// template bodies declare nothing we index
			if err := dec.Skip(); err != nil && !endOfInput(err) {
				line, col := lines.locate(int(dec.InputOffset()))
				return errors.NewParseError(f.Path, int(line), int(col), err)
			}
		}
	}
}

// endOfInput reports whether a decoder error marks the end of the stream.
// Even with Strict off, input that ends inside an open element surfaces as
// an "unexpected EOF" syntax error rather than io.EOF; a save in progress
// is routinely truncated like that, and whatever was scanned before the
// cut still counts.
func endOfInput(err error) bool {
	if err == io.EOF || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var syn *xml.SyntaxError
	return stderrors.As(err, &syn) && strings.Contains(syn.Msg, "unexpected EOF")
}

// scanRecord consumes a <record> element, reading nested fields until the
// matching end tag.
func (p *Parser) scanRecord(f *File, dec *xml.Decoder, start xml.StartElement, lines *lineIndex, offset int) error {
	localID := attr(start, "id")
	model := attr(start, "model")
	var inherit string

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if endOfInput(err) {
			break
		}
		if err != nil {
			line, col := lines.locate(int(dec.InputOffset()))
			return errors.NewParseError(f.Path, int(line), int(col), err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 && t.Name.Local == "field" && attr(t, "name") == "inherit_id" {
				if ref := attr(t, "ref"); ref != "" {
					inherit = ref
				}
			}
		case xml.EndElement:
			depth--
		}
	}

	if localID == "" {
		// anonymous records cannot be referenced, nothing to index
		return nil
	}
	f.Records = append(f.Records, p.newRecord(f, localID, model, inherit, lines, offset))
	return nil
}

// scanTemplate indexes a <template> as a record without an owning model.
func (p *Parser) scanTemplate(f *File, start xml.StartElement, lines *lineIndex, offset int) {
	localID := attr(start, "id")
	if localID == "" {
		return
	}
	f.Records = append(f.Records, p.newRecord(f, localID, "", attr(start, "inherit_id"), lines, offset))
}

func (p *Parser) newRecord(f *File, localID, model, inherit string, lines *lineIndex, offset int) index.Record {
	line, col := lines.locate(offset)
	rec := index.Record{
		LocalID: localID,
		Module:  f.Module,
		Location: index.Location{
			Path:   f.Path,
			Line:   line,
			Column: col,
		},
	}
	if model != "" {
		rec.Model = symbols.InternModel(model)
	}
	if inherit != "" {
		rec.InheritID = symbols.InternRecord(qualify(f.Module, inherit))
	}
	return rec
}

// qualify resolves a bare reference against the declaring module; dotted
// references already name their module.
func qualify(module, ref string) string {
	if strings.Contains(ref, ".") {
		return ref
	}
	return module + "." + ref
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
