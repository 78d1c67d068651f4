package templates

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/dbweave/internal/models"
)

func TestNaming(t *testing.T) {
	assert.Equal(t, "TracedPreparedStatement", DecoratorName("PreparedStatement"))
	assert.Equal(t, "NewTracedPreparedStatement", ConstructorName("PreparedStatement"))
	assert.Equal(t, "weavePreparedStatementTable", TableVarName("PreparedStatement"))
	assert.Equal(t, "autogen_weave_preparedstatement.go", OutputFileName("PreparedStatement"))
}

func TestNewMethodData(t *testing.T) {
	method := models.Method{
		Name: "SetObject",
		Params: []models.Param{
			{Name: "index", Type: "int"},
			{Name: "values", Type: "...any", Variadic: true},
		},
		Results: []string{"int", "error"},
	}

	data := NewMethodData("PreparedStatement", method, 3)

	assert.Equal(t, "p0 int, p1 ...any", data.ParamList)
	assert.Equal(t, "p0, p1", data.BeforeArgs)
	assert.Equal(t, "p0, p1...", data.CallArgs)
	assert.Equal(t, " (int, error)", data.ResultList)
	assert.Equal(t, "r0, r1", data.ResultVars)
	assert.Equal(t, 3, data.ID)
	assert.Equal(t, "weavePreparedStatementTable", data.TableVar)
}

func TestNewMethodData_NoResults(t *testing.T) {
	data := NewMethodData("Stmt", models.Method{Name: "Close"}, 0)
	assert.Empty(t, data.ParamList)
	assert.Empty(t, data.ResultList)
	assert.Empty(t, data.ResultVars)
}

func TestRenderDecorator_ProducesParsableSource(t *testing.T) {
	imports := NewImportManager()
	require.NoError(t, imports.Add(models.Import{Path: "sync"}))
	require.NoError(t, imports.Add(models.Import{Path: "github.com/toyz/dbweave/pkg/weave"}))

	data := DecoratorData{
		PackageName:     "legacydb",
		QualifiedName:   "example.com/legacydb.PreparedStatement",
		TypeName:        "PreparedStatement",
		DecoratorName:   DecoratorName("PreparedStatement"),
		ConstructorName: ConstructorName("PreparedStatement"),
		TableVar:        TableVarName("PreparedStatement"),
		ImportBlock:     imports.GenerateImports(),
		Interceptors: []InterceptorData{
			{ID: 0, Name: "query-capture", Expr: "weave.NewQueryCaptureInterceptor()"},
		},
		Variables: []VariableData{
			{FieldName: "traceSQL", GetterName: "TraceSQL", SetterName: "SetTraceSQL", TypeName: "string"},
			{FieldName: "traceBindValues", GetterName: "TraceBindValues", SetterName: "SetTraceBindValues",
				TypeName: "*weave.BindValueMap", Initializer: "weave.NewBindValueMap()"},
		},
		Methods: []MethodData{
			NewMethodData("PreparedStatement", models.Method{
				Name:    "ExecuteQuery",
				Params:  []models.Param{{Type: "string"}},
				Results: []string{"int", "error"},
			}, 0),
			NewMethodData("PreparedStatement", models.Method{Name: "Close"}, 0),
		},
	}

	src, err := RenderDecorator(data)
	require.NoError(t, err)

	_, err = parser.ParseFile(token.NewFileSet(), "out.go", src, parser.ParseComments)
	require.NoError(t, err, string(src))

	out := string(src)
	assert.Contains(t, out, "// Code generated by dbweave. DO NOT EDIT.")
	assert.Contains(t, out, `var weavePreparedStatementTable = weave.NewTable("example.com/legacydb.PreparedStatement",`)
	assert.Contains(t, out, "t := &TracedPreparedStatement{PreparedStatement: inner}")
	assert.Contains(t, out, "t.traceBindValues = weave.NewBindValueMap()")
	assert.Contains(t, out, `inv := weavePreparedStatementTable.Before(0, t, "ExecuteQuery", p0)`)
	assert.Contains(t, out, "r0, r1 := t.PreparedStatement.ExecuteQuery(p0)")
	assert.Contains(t, out, `inv := weavePreparedStatementTable.Before(0, t, "Close")`)
	assert.Contains(t, out, "func (t *TracedPreparedStatement) SetTraceSQL(v string)")
}

func TestTemplateRegistry(t *testing.T) {
	registry := NewTemplateRegistry()
	assert.ElementsMatch(t, []string{
		"file-header", "interceptor-table", "decorator-struct",
		"decorator-constructor", "trace-accessors", "wrapped-method",
	}, registry.Names())

	_, ok := registry.Get("missing")
	assert.False(t, ok)
	assert.Panics(t, func() { registry.MustGet("missing") })
}

func TestImportManager(t *testing.T) {
	im := NewImportManager()
	require.NoError(t, im.Add(models.Import{Path: "database/sql/driver"}))
	require.NoError(t, im.Add(models.Import{Path: "database/sql/driver"}))
	require.NoError(t, im.Add(models.Import{Name: "weave", Path: "github.com/toyz/dbweave/pkg/weave"}))

	err := im.Add(models.Import{Path: "example.com/other/driver"})
	assert.Error(t, err)

	assert.Equal(t, []string{"driver", "weave"}, im.Names())
	assert.Equal(t, "import (\n\tdriver \"database/sql/driver\"\n\tweave \"github.com/toyz/dbweave/pkg/weave\"\n)\n", im.GenerateImports())
	assert.Empty(t, NewImportManager().GenerateImports())
}

func TestGuessPackageName(t *testing.T) {
	tests := map[string]string{
		"database/sql/driver":                 "driver",
		"github.com/alecthomas/participle/v2": "participle",
		"gopkg.in/yaml.v3":                    "yaml",
		"github.com/mattn/go-sqlite3":         "sqlite3",
		"github.com/example/client-go":        "client",
		"modernc.org/sqlite":                  "sqlite",
	}
	for path, expected := range tests {
		assert.Equal(t, expected, GuessPackageName(path), path)
	}
}
