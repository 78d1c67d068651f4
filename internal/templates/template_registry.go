package templates

// TemplateRegistry provides a centralized way to access all templates
type TemplateRegistry struct {
	templates map[string]string
}

// NewTemplateRegistry creates a new template registry with all templates
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{
		templates: make(map[string]string),
	}

	registry.registerFileTemplates()
	registry.registerDecoratorTemplates()
	registry.registerMethodTemplates()

	return registry
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (string, bool) {
	template, exists := tr.templates[name]
	return template, exists
}

// MustGet retrieves a template by name, panics if not found
func (tr *TemplateRegistry) MustGet(name string) string {
	template, exists := tr.templates[name]
	if !exists {
		panic("template not found: " + name)
	}
	return template
}

// Names returns the registered template names
func (tr *TemplateRegistry) Names() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	return names
}

func (tr *TemplateRegistry) registerFileTemplates() {
	tr.templates["file-header"] = `// Code generated by dbweave. DO NOT EDIT.
// Source: {{.QualifiedName}}

package {{.PackageName}}

{{.ImportBlock}}`

	tr.templates["interceptor-table"] = `// {{.TableVar}} holds one interceptor instance per id
var {{.TableVar}} = weave.NewTable({{printf "%q" .QualifiedName}},{{range .Interceptors}}
	{{.Expr}}, // id {{.ID}}: {{.Name}}{{end}}
)
`
}

func (tr *TemplateRegistry) registerDecoratorTemplates() {
	tr.templates["decorator-struct"] = `// {{.DecoratorName}} wraps {{.TypeName}} with tracing interceptors.
// Methods that are not wrapped are promoted from the embedded value.
type {{.DecoratorName}} struct {
	*{{.TypeName}}

	weaveMu sync.RWMutex{{range .Variables}}
	{{.FieldName}} {{.TypeName}}{{end}}
}
`

	tr.templates["decorator-constructor"] = `// {{.ConstructorName}} decorates inner
func {{.ConstructorName}}(inner *{{.TypeName}}) *{{.DecoratorName}} {
	t := &{{.DecoratorName}}{ {{- .TypeName}}: inner}{{range .Variables}}{{if .Initializer}}
	t.{{.FieldName}} = {{.Initializer}}{{end}}{{end}}
	return t
}
`

	tr.templates["trace-accessors"] = `{{$d := .}}{{range .Variables}}
// {{.GetterName}} returns the {{.FieldName}} trace variable
func (t *{{$d.DecoratorName}}) {{.GetterName}}() {{.TypeName}} {
	t.weaveMu.RLock()
	defer t.weaveMu.RUnlock()
	return t.{{.FieldName}}
}

// {{.SetterName}} replaces the {{.FieldName}} trace variable
func (t *{{$d.DecoratorName}}) {{.SetterName}}(v {{.TypeName}}) {
	t.weaveMu.Lock()
	defer t.weaveMu.Unlock()
	t.{{.FieldName}} = v
}
{{end}}`
}

func (tr *TemplateRegistry) registerMethodTemplates() {
	tr.templates["wrapped-method"] = `
// {{.Name}} runs interceptor {{.ID}} around {{.TypeName}}.{{.Name}}
func (t *{{.DecoratorName}}) {{.Name}}({{.ParamList}}){{.ResultList}} {
	inv := {{.TableVar}}.Before({{.ID}}, t, {{printf "%q" .Name}}{{if .BeforeArgs}}, {{.BeforeArgs}}{{end}})
{{if .ResultVars}}	{{.ResultVars}} := t.{{.TypeName}}.{{.Name}}({{.CallArgs}})
	inv.After({{.ResultVars}})
	return {{.ResultVars}}
{{else}}	t.{{.TypeName}}.{{.Name}}({{.CallArgs}})
	inv.After()
{{end}}}
`
}

// DefaultTemplateRegistry is the registry used by RenderDecorator
var DefaultTemplateRegistry = NewTemplateRegistry()
