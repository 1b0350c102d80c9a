package csharp

import (
	"errors"

	"github.com/okra-platform/prefabind/internal/codegen/model"
	"github.com/okra-platform/prefabind/internal/codegen/writer"
)

// Generator renders the binding region of a C# UI class
type Generator struct {
	newline string
}

// NewGenerator creates a new C# code generator
func NewGenerator() *Generator {
	return &Generator{newline: "\n"}
}

// WithNewline sets the line terminator; empty keeps "\n"
func (g *Generator) WithNewline(nl string) *Generator {
	if nl != "" {
		g.newline = nl
	}
	return g
}

// Language returns the name of the target language
func (g *Generator) Language() string {
	return "csharp"
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return ".cs"
}

// Generate renders fields with short type names and override methods.
// Child contexts bind through the child-control lookup instead of the
// plain component lookup.
func (g *Generator) Generate(u *model.Unit) ([]byte, error) {
	if u == nil {
		return nil, errors.New("nil unit")
	}

	w := writer.NewWriter("\t").WithBaseIndent(1).WithNewline(g.newline)
	w.Newline()

	for _, f := range u.Fields {
		w.WriteLinef("%s %s;", f.ShortType(), f.Name)
	}

	w.WriteLinef("public override string %s()", u.Naming.GetPath)
	w.WriteBlock("{", "}", func() {
		w.WriteLinef("return \"%s\";", u.PrefabPath)
	})

	w.WriteLinef("protected override void %s()", u.Naming.BindComponents)
	w.WriteBlock("{", "}", func() {
		for i, f := range u.Fields {
			lookup := u.Naming.GetComponent
			if f.Child {
				lookup = u.Naming.BindChildControl
			}
			w.WriteLinef("this.%s = this.%s<%s>(%d);", f.Name, lookup, f.ShortType(), i)
		}
	})
	w.WriteIndent()

	return w.Bytes(), nil
}
