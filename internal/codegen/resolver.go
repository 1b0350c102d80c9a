package codegen

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/okra-platform/prefabind/internal/codegen/model"
	"github.com/okra-platform/prefabind/internal/manifest"
)

// HostTypePrefix qualifies engine types that have no script-side class
const HostTypePrefix = "CS."

const resolverCacheSize = 256

// TypeResolver turns bindings into fields with concrete type names.
//
// A binding that points at another context takes the class name declared
// in that context's script, found by matching "class X extends <base>".
// Anything else, including a sub-context whose script has no such
// declaration, falls back to the host-qualified type. This is a text
// heuristic, not a parser; the first match in the file wins.
type TypeResolver struct {
	pattern *regexp.Regexp
	// script path and mtime -> declared class name, "" when nothing matched
	cache  *lru.Cache[string, string]
	logger zerolog.Logger
}

// NewTypeResolver creates a resolver recognising classes that extend one of baseClasses
func NewTypeResolver(baseClasses []string, logger zerolog.Logger) (*TypeResolver, error) {
	if len(baseClasses) == 0 {
		return nil, fmt.Errorf("at least one base class is required")
	}
	quoted := make([]string, len(baseClasses))
	for i, b := range baseClasses {
		quoted[i] = regexp.QuoteMeta(b)
	}
	pattern, err := regexp.Compile(`class\s+(\w+)\s+extends\s+(` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("invalid base class pattern: %w", err)
	}

	cache, err := lru.New[string, string](resolverCacheSize)
	if err != nil {
		return nil, err
	}

	return &TypeResolver{
		pattern: pattern,
		cache:   cache,
		logger:  logger,
	}, nil
}

// Resolve returns the fields for every binding of m, in order
func (r *TypeResolver) Resolve(m *manifest.Manifest) []model.Field {
	fields := make([]model.Field, 0, len(m.Bindings))
	for _, b := range m.Bindings {
		fields = append(fields, r.ResolveBinding(m, b))
	}
	return fields
}

// ResolveBinding resolves a single binding of m
func (r *TypeResolver) ResolveBinding(m *manifest.Manifest, b manifest.Binding) model.Field {
	f := model.Field{Name: b.Field, Child: b.Context != ""}

	if f.Child {
		if name := r.contextClass(m.ContextPath(b)); name != "" {
			f.Type = name
			return f
		}
	}

	f.Type = HostTypePrefix + b.Type
	return f
}

// ClassName returns the first matching class declared in source, or ""
func (r *TypeResolver) ClassName(source string) string {
	match := r.pattern.FindStringSubmatch(source)
	if match == nil {
		return ""
	}
	return match[1]
}

func (r *TypeResolver) contextClass(manifestPath string) string {
	sub, err := manifest.Load(manifestPath)
	if err != nil {
		r.logger.Debug().Err(err).Str("context", manifestPath).Msg("sub-context unreadable, using host type")
		return ""
	}
	if sub.BindFile == "" {
		return ""
	}

	info, err := os.Stat(sub.BindFile)
	if err != nil {
		r.logger.Debug().Err(err).Str("file", sub.BindFile).Msg("sub-context script unreadable, using host type")
		return ""
	}
	key := fmt.Sprintf("%s@%d", sub.BindFile, info.ModTime().UnixNano())
	if name, ok := r.cache.Get(key); ok {
		return name
	}

	data, err := os.ReadFile(sub.BindFile)
	if err != nil {
		r.logger.Debug().Err(err).Str("file", sub.BindFile).Msg("sub-context script unreadable, using host type")
		return ""
	}

	name := r.ClassName(string(data))
	r.cache.Add(key, name)
	return name
}
