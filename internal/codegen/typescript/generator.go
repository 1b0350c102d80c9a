package typescript

import (
	"errors"

	"github.com/okra-platform/prefabind/internal/codegen/model"
	"github.com/okra-platform/prefabind/internal/codegen/writer"
)

// Generator renders the binding region of a TypeScript UI class
type Generator struct {
	newline string
}

// NewGenerator creates a new TypeScript code generator
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
	return "typescript"
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return ".ts"
}

// Generate renders field declarations, the prefab path accessor and the
// positional binder. The output ends with the member indentation so the
// closing sentinel lines up with the class body.
func (g *Generator) Generate(u *model.Unit) ([]byte, error) {
	if u == nil {
		return nil, errors.New("nil unit")
	}

	w := writer.NewWriter("\t").WithBaseIndent(1).WithNewline(g.newline)
	w.Newline()

	for _, f := range u.Fields {
		w.WriteLinef("%s!: %s;", f.Name, f.Type)
	}
	w.Newline()

	w.WriteBlock("public "+u.Naming.GetPath+"(): string {", "}", func() {
		w.WriteLinef("return \"%s\";", u.PrefabPath)
	})
	w.Newline()

	w.WriteBlock("protected "+u.Naming.BindComponents+"(): void {", "}", func() {
		for i, f := range u.Fields {
			w.WriteLinef("this.%s = this.%s<%s>(%d);", f.Name, u.Naming.GetComponent, f.Type, i)
		}
	})
	w.WriteIndent()

	return w.Bytes(), nil
}
