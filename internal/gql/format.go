// Package gql holds the GraphQL document helpers used by the workspace:
// query and schema pretty-printing, the introspection query and rebuilding
// a schema from its result.
package gql

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// Format pretty-prints a query document
func Format(query string) (string, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: query})
	if err != nil {
		return "", fmt.Errorf("syntax error: %w", err)
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf, formatter.WithIndent("  ")).FormatQueryDocument(doc)
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

// FormatSchema pretty-prints SDL without validating it
func FormatSchema(sdl string) (string, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: "schema", Input: sdl})
	if err != nil {
		return "", fmt.Errorf("syntax error: %w", err)
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf, formatter.WithIndent("  ")).FormatSchemaDocument(doc)
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

// OperationNames lists the named operations of a query document in order
func OperationNames(query string) ([]string, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: query})
	if err != nil {
		return nil, fmt.Errorf("syntax error: %w", err)
	}

	var names []string
	for _, op := range doc.Operations {
		if op.Name != "" {
			names = append(names, op.Name)
		}
	}
	return names, nil
}

// SelectOperation picks the operation name to send with query. An empty
// current name or one that no longer exists falls back to the first named
// operation, matching what a server would run for a single-operation document.
// A document with only anonymous operations gets no name. current is kept while
// the document does not parse.
func SelectOperation(query, current string) string {
	names, err := OperationNames(query)
	if err != nil {
		return current
	}
	if len(names) == 0 {
		return ""
	}
	for _, name := range names {
		if name == current {
			return current
		}
	}
	return names[0]
}
