package codegen

import (
	"github.com/okra-platform/prefabind/internal/codegen/csharp"
	"github.com/okra-platform/prefabind/internal/codegen/typescript"
)

// DefaultRegistry is the global registry instance with pre-registered generators
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register("typescript", func(opts Options) Generator {
		return typescript.NewGenerator().WithNewline(opts.Newline)
	}, ".ts")

	DefaultRegistry.Register("csharp", func(opts Options) Generator {
		return csharp.NewGenerator().WithNewline(opts.Newline)
	}, ".cs")
}
