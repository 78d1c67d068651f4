// Package templates renders the decorator source for an instrumented type.
package templates

import (
	"bytes"
	"fmt"
	"text/template"
)

// DecoratorData is everything the decorator templates need for one type
type DecoratorData struct {
	PackageName     string
	QualifiedName   string
	TypeName        string
	DecoratorName   string
	ConstructorName string
	TableVar        string
	ImportBlock     string
	Interceptors    []InterceptorData
	Variables       []VariableData
	Methods         []MethodData
}

// InterceptorData is one entry of the generated interceptor table
type InterceptorData struct {
	ID   int
	Name string
	Expr string
}

// VariableData is one injected trace variable
type VariableData struct {
	FieldName   string
	SetterName  string
	GetterName  string
	TypeName    string
	Initializer string
}

// MethodData is one wrapped method with its rendered fragments
type MethodData struct {
	Name          string
	ID            int
	TypeName      string
	DecoratorName string
	TableVar      string
	ParamList     string // "p0 int, p1 ...any"
	BeforeArgs    string // "p0, p1"
	CallArgs      string // "p0, p1..."
	ResultList    string // "", " error" or " (int, error)"
	ResultVars    string // "", "r0" or "r0, r1"
}

// RenderDecorator renders the complete, unformatted decorator file
func RenderDecorator(data DecoratorData) ([]byte, error) {
	return DefaultTemplateRegistry.RenderDecorator(data)
}

// RenderDecorator renders the complete, unformatted decorator file
func (tr *TemplateRegistry) RenderDecorator(data DecoratorData) ([]byte, error) {
	var buf bytes.Buffer

	sections := []string{"file-header", "interceptor-table", "decorator-struct", "decorator-constructor", "trace-accessors"}
	for _, name := range sections {
		out, err := executeTemplate(name, tr.MustGet(name), data)
		if err != nil {
			return nil, err
		}
		buf.WriteString(out)
		buf.WriteString("\n")
	}

	methodTemplate := tr.MustGet("wrapped-method")
	for _, method := range data.Methods {
		out, err := executeTemplate("wrapped-method", methodTemplate, method)
		if err != nil {
			return nil, err
		}
		buf.WriteString(out)
	}

	return buf.Bytes(), nil
}

// executeTemplate executes a Go template with the given data
func executeTemplate(name, templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
