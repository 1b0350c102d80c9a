// Package model holds the input handed to code generators
package model

import "strings"

// Unit is everything a generator needs to render one marked region
type Unit struct {
	// ID is the context identifier the region is tagged with
	ID string
	// PrefabPath is returned verbatim by the generated path accessor
	PrefabPath string
	Fields     []Field
	Naming     Naming
}

// Field is a binding with its type already resolved
type Field struct {
	Name string
	// Type is the resolved type name, either a class declared in another
	// context's script or a host-qualified name such as CS.UnityEngine.UI.Image
	Type string
	// Child marks bindings that point at another bound context
	Child bool
}

// ShortType returns the last dot-separated segment of the type
func (f Field) ShortType() string {
	if i := strings.LastIndex(f.Type, "."); i >= 0 {
		return f.Type[i+1:]
	}
	return f.Type
}

// Naming holds method names emitted into generated code
type Naming struct {
	GetPath          string
	BindComponents   string
	GetComponent     string
	BindChildControl string
}
