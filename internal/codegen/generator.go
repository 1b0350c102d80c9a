package codegen

import "github.com/okra-platform/prefabind/internal/codegen/model"

// Generator is the interface that all language-specific code generators must implement
type Generator interface {
	// Generate renders the interior of a marked region for the unit
	Generate(unit *model.Unit) ([]byte, error)

	// Language returns the name of the target language (e.g., "typescript", "csharp")
	Language() string

	// FileExtension returns the script extension the generator targets (e.g., ".ts")
	FileExtension() string
}

// Options tune rendering for the script being patched
type Options struct {
	// Newline is the line terminator used by the target script
	Newline string
}
