package gql

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

var builtinScalars = map[string]bool{
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"ID":      true,
}

// builtinDirectives are already declared by the gqlparser prelude
var builtinDirectives = map[string]bool{
	"skip":        true,
	"include":     true,
	"deprecated":  true,
	"specifiedBy": true,
	"oneOf":       true,
	"defer":       true,
}

// ErrNoSchema is returned when an introspection result has no __schema
var ErrNoSchema = errors.New("introspection result has no __schema")

// Schema is a client-side schema rebuilt from an introspection result
type Schema struct {
	AST *ast.Schema
	SDL string
}

// BuildSchema turns an introspection result into a Schema. data may be the
// full response ({"data": {"__schema": ...}}) or just its data object.
func BuildSchema(data []byte) (*Schema, error) {
	var envelope struct {
		Data *Introspection `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("invalid introspection JSON: %w", err)
	}

	intro := envelope.Data
	if intro == nil {
		intro = &Introspection{}
		if err := json.Unmarshal(data, intro); err != nil {
			return nil, fmt.Errorf("invalid introspection JSON: %w", err)
		}
	}

	return FromIntrospection(intro)
}

// FromIntrospection converts a decoded introspection result
func FromIntrospection(intro *Introspection) (*Schema, error) {
	if intro == nil || len(intro.Schema.Types) == 0 {
		return nil, ErrNoSchema
	}

	doc, err := toSchemaDocument(&intro.Schema)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	sdl := buf.String()

	schema, loadErr := gqlparser.LoadSchema(&ast.Source{Name: "introspection", Input: sdl})
	if loadErr != nil {
		return nil, fmt.Errorf("failed to load introspected schema: %w", loadErr)
	}

	return &Schema{AST: schema, SDL: sdl}, nil
}

// ParseSDL loads a schema from SDL text
func ParseSDL(sdl string) (*Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema", Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL schema: %w", err)
	}
	return &Schema{AST: schema, SDL: sdl}, nil
}

// TypeNames returns user defined type names in sorted order
func (s *Schema) TypeNames() []string {
	var names []string
	for name, def := range s.AST.Types {
		if def.BuiltIn || strings.HasPrefix(name, "__") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Queries returns the query root field names in sorted order
func (s *Schema) Queries() []string {
	return fieldNames(s.AST.Query)
}

// Mutations returns the mutation root field names in sorted order
func (s *Schema) Mutations() []string {
	return fieldNames(s.AST.Mutation)
}

// Validate checks query against the schema
func (s *Schema) Validate(query string) error {
	_, errs := gqlparser.LoadQuery(s.AST, query)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func fieldNames(def *ast.Definition) []string {
	if def == nil {
		return nil
	}
	var names []string
	for _, field := range def.Fields {
		if strings.HasPrefix(field.Name, "__") {
			continue
		}
		names = append(names, field.Name)
	}
	sort.Strings(names)
	return names
}

func toSchemaDocument(s *IntrospectionSchema) (*ast.SchemaDocument, error) {
	doc := &ast.SchemaDocument{}

	for _, t := range s.Types {
		if strings.HasPrefix(t.Name, "__") || (t.Kind == "SCALAR" && builtinScalars[t.Name]) {
			continue
		}
		def, err := toDefinition(t)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", t.Name, err)
		}
		doc.Definitions = append(doc.Definitions, def)
	}

	for _, d := range s.Directives {
		if builtinDirectives[d.Name] {
			continue
		}
		def, err := toDirectiveDefinition(d)
		if err != nil {
			return nil, fmt.Errorf("directive %s: %w", d.Name, err)
		}
		doc.Directives = append(doc.Directives, def)
	}

	schemaDef := &ast.SchemaDefinition{}
	addOperation := func(op ast.Operation, name *TypeName) {
		if name != nil && name.Name != "" {
			schemaDef.OperationTypes = append(schemaDef.OperationTypes, &ast.OperationTypeDefinition{
				Operation: op,
				Type:      name.Name,
			})
		}
	}
	addOperation(ast.Query, s.QueryType)
	addOperation(ast.Mutation, s.MutationType)
	addOperation(ast.Subscription, s.SubscriptionType)
	if len(schemaDef.OperationTypes) > 0 {
		doc.Schema = append(doc.Schema, schemaDef)
	}

	return doc, nil
}

func toDefinition(t FullType) (*ast.Definition, error) {
	def := &ast.Definition{
		Kind:        ast.DefinitionKind(t.Kind),
		Name:        t.Name,
		Description: t.Description,
	}

	switch def.Kind {
	case ast.Scalar:
	case ast.Object, ast.Interface:
		for _, f := range t.Fields {
			field, err := toFieldDefinition(f)
			if err != nil {
				return nil, err
			}
			def.Fields = append(def.Fields, field)
		}
		for _, iface := range t.Interfaces {
			if iface.Name != nil {
				def.Interfaces = append(def.Interfaces, *iface.Name)
			}
		}
	case ast.Union:
		for _, possible := range t.PossibleTypes {
			if possible.Name != nil {
				def.Types = append(def.Types, *possible.Name)
			}
		}
	case ast.Enum:
		for _, v := range t.EnumValues {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
				Name:        v.Name,
				Description: v.Description,
				Directives:  deprecation(v.IsDeprecated, v.DeprecationReason),
			})
		}
	case ast.InputObject:
		for _, in := range t.InputFields {
			typ, err := toType(in.Type)
			if err != nil {
				return nil, err
			}
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:         in.Name,
				Description:  in.Description,
				Type:         typ,
				DefaultValue: literal(in.DefaultValue),
			})
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", t.Kind)
	}

	return def, nil
}

func toFieldDefinition(f Field) (*ast.FieldDefinition, error) {
	typ, err := toType(f.Type)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}

	args, err := toArguments(f.Args)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}

	return &ast.FieldDefinition{
		Name:        f.Name,
		Description: f.Description,
		Arguments:   args,
		Type:        typ,
		Directives:  deprecation(f.IsDeprecated, f.DeprecationReason),
	}, nil
}

func toDirectiveDefinition(d Directive) (*ast.DirectiveDefinition, error) {
	args, err := toArguments(d.Args)
	if err != nil {
		return nil, err
	}

	def := &ast.DirectiveDefinition{
		Name:        d.Name,
		Description: d.Description,
		Arguments:   args,
	}
	for _, loc := range d.Locations {
		def.Locations = append(def.Locations, ast.DirectiveLocation(loc))
	}
	return def, nil
}

func toArguments(values []InputValue) (ast.ArgumentDefinitionList, error) {
	var args ast.ArgumentDefinitionList
	for _, a := range values {
		typ, err := toType(a.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		args = append(args, &ast.ArgumentDefinition{
			Name:         a.Name,
			Description:  a.Description,
			Type:         typ,
			DefaultValue: literal(a.DefaultValue),
		})
	}
	return args, nil
}

func toType(ref TypeRef) (*ast.Type, error) {
	switch ref.Kind {
	case "NON_NULL":
		if ref.OfType == nil {
			return nil, errors.New("NON_NULL without ofType")
		}
		inner, err := toType(*ref.OfType)
		if err != nil {
			return nil, err
		}
		inner.NonNull = true
		return inner, nil
	case "LIST":
		if ref.OfType == nil {
			return nil, errors.New("LIST without ofType")
		}
		inner, err := toType(*ref.OfType)
		if err != nil {
			return nil, err
		}
		return &ast.Type{Elem: inner}, nil
	default:
		if ref.Name == nil || *ref.Name == "" {
			return nil, fmt.Errorf("unnamed %s type reference", ref.Kind)
		}
		return &ast.Type{NamedType: *ref.Name}, nil
	}
}

// literal keeps an introspected default value as written; the formatter
// prints the raw text of enum-kind values verbatim.
func literal(raw *string) *ast.Value {
	if raw == nil {
		return nil
	}
	return &ast.Value{Kind: ast.EnumValue, Raw: *raw}
}

func deprecation(deprecated bool, reason *string) ast.DirectiveList {
	if !deprecated {
		return nil
	}
	d := &ast.Directive{Name: "deprecated"}
	if reason != nil && *reason != "" {
		d.Arguments = ast.ArgumentList{{
			Name:  "reason",
			Value: &ast.Value{Kind: ast.StringValue, Raw: *reason},
		}}
	}
	return ast.DirectiveList{d}
}
