// Package tools hosts the transformation handlers and the registry that
// dispatches them by name or by declared content-type applicability.
package tools

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/filemill/internal/common"
)

// Tool is a named transformation handler. An empty
// ProcessableContentTypes set declares the tool multi-purpose: it
// applies to every content type.
//
// Tool names are a stable public contract between dispatcher and worker;
// they must never collide.
type Tool interface {
	Name() string
	BriefDescription() string
	LongDescription() string
	ProcessableContentTypes() []string

	// ProcessFile transforms content, returning the output bytes and
	// their content type.
	ProcessFile(ctx context.Context, content []byte, contentType string) ([]byte, string, error)
}

// Registry indexes tools by name and by declared content type. It is
// built once at process start from an explicit registration table and
// treated as immutable afterwards.
type Registry struct {
	byName        map[string]Tool
	multiPurpose  []Tool
	byContentType map[string][]Tool
}

// NewRegistry builds a registry from the given tools, failing on name
// collisions.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		byName:        make(map[string]Tool),
		byContentType: make(map[string][]Tool),
	}
	for _, tool := range tools {
		name := tool.Name()
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		r.byName[name] = tool

		types := tool.ProcessableContentTypes()
		if len(types) == 0 {
			r.multiPurpose = append(r.multiPurpose, tool)
			continue
		}
		for _, ct := range types {
			r.byContentType[ct] = append(r.byContentType[ct], tool)
		}
	}
	return r, nil
}

// Get resolves a tool by exact name.
func (r *Registry) Get(name string) (Tool, error) {
	tool, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrToolNotFound, name)
	}
	return tool, nil
}

// AvailableTools returns the multi-purpose tools plus the ones declared
// for the given content type.
func (r *Registry) AvailableTools(contentType string) []Tool {
	available := make([]Tool, 0, len(r.multiPurpose)+len(r.byContentType[contentType]))
	available = append(available, r.multiPurpose...)
	available = append(available, r.byContentType[contentType]...)
	return available
}

// Builtin builds the registry of tools shipped with the worker.
func Builtin() (*Registry, error) {
	return NewRegistry(
		NewHashTool(),
		NewInvertTool(),
	)
}
