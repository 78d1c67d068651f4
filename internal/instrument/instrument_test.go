package instrument

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/loader"
	"github.com/toyz/dbweave/internal/models"
)

const targetType = "example.com/legacy.PreparedStatement"

const legacySource = `package legacy

import (
	"database/sql/driver"
	"fmt"
	"time"
)

type RowID []byte

type PreparedStatement struct {
	sql    string
	params map[int]driver.Value
}

func (s *PreparedStatement) SetInt(index int, value int) error { return nil }

func (s *PreparedStatement) SetString(index int, value string) error { return nil }

func (s *PreparedStatement) SetRowID(index int, value RowID) error { return nil }

func (s *PreparedStatement) SetObject(index int, values ...driver.Value) error { return nil }

func (s *PreparedStatement) ExecuteQuery(sql string) (int, error) { return 0, nil }

func (s *PreparedStatement) ExecuteUpdate(sql string) (int, error) { return 0, nil }

func (s *PreparedStatement) Close() { fmt.Println(time.Now()) }
`

var (
	captureRef = models.InterceptorRef{
		Name:       "query-capture",
		Expr:       "weave.NewQueryCaptureInterceptor()",
		ImportPath: WeaveImportPath,
		ImportName: "weave",
	}
	bindRef = models.InterceptorRef{
		Name:       "bind-variable",
		Expr:       "weave.NewBindVariableInterceptor()",
		ImportPath: WeaveImportPath,
		ImportName: "weave",
	}
)

func loadClass(t *testing.T, source string) *InstrumentClass {
	t.Helper()
	l := loader.NewSourceLoader()
	l.AddSource("example.com/legacy", "stmt.go", []byte(source))
	class, err := New(l).Load(targetType)
	require.NoError(t, err)
	return class
}

func TestLoad_MissingType(t *testing.T) {
	l := loader.NewSourceLoader()
	l.AddSource("example.com/legacy", "stmt.go", []byte(legacySource))

	_, err := New(l).Load("example.com/legacy.Missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestAddInterceptor_AllocatesDenseIDs(t *testing.T) {
	class := loadClass(t, legacySource)

	queryID, err := class.AddInterceptor("ExecuteQuery", []string{"string"}, captureRef)
	require.NoError(t, err)
	bindID, err := class.AddInterceptor("SetInt", []string{"int", "int"}, bindRef)
	require.NoError(t, err)

	assert.Equal(t, 0, queryID)
	assert.Equal(t, 1, bindID)
	assert.Len(t, class.Registrations(), 2)
}

func TestAddInterceptor_NotFound(t *testing.T) {
	class := loadClass(t, legacySource)

	_, err := class.AddInterceptor("SetInt", []string{"int", "string"}, bindRef)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "SetInt(int, string)")
	assert.Empty(t, class.Registrations())

	_, err = class.AddInterceptor("SetClob", nil, bindRef)
	assert.True(t, errors.IsNotFound(err))
}

func TestAddInterceptor_Wildcard(t *testing.T) {
	class := loadClass(t, legacySource)

	id, err := class.AddInterceptor("SetObject", nil, bindRef)
	require.NoError(t, err)

	bound, ok := class.BoundID("SetObject")
	require.True(t, ok)
	assert.Equal(t, id, bound)
}

func TestReuseInterceptor(t *testing.T) {
	class := loadClass(t, legacySource)

	id, err := class.AddInterceptor("SetInt", []string{"int", "int"}, bindRef)
	require.NoError(t, err)
	require.NoError(t, class.ReuseInterceptor("SetString", []string{"int", "string"}, id))

	err = class.ReuseInterceptor("SetString", []string{"int", "string"}, 7)
	require.Error(t, err)
	assert.True(t, errors.IsStructural(err))

	err = class.ReuseInterceptor("SetBlob", nil, id)
	assert.True(t, errors.IsNotFound(err))

	regs := class.Registrations()
	require.Len(t, regs, 1)
	assert.Len(t, regs[0].Signatures, 2)

	ops := class.Descriptor().Operations
	require.Len(t, ops, 2)
	assert.Equal(t, models.OpAddInterceptor, ops[0].Kind)
	assert.Equal(t, models.OpReuseInterceptor, ops[1].Kind)
	assert.Equal(t, []int{0}, class.Descriptor().InterceptorIDs())
}

func TestAddTraceVariable_Validation(t *testing.T) {
	tests := []struct {
		name                               string
		field, setter, getter, typ, initer string
	}{
		{"invalid field", "1sql", "SetTraceSQL", "TraceSQL", "string", ""},
		{"same names", "traceSQL", "traceSQL", "TraceSQL", "string", ""},
		{"bad type", "traceSQL", "SetTraceSQL", "TraceSQL", "map[int", ""},
		{"bad initializer", "traceSQL", "SetTraceSQL", "TraceSQL", "string", "\"open"},
		{"target field", "sql", "SetTraceSQL", "TraceSQL", "string", ""},
		{"target method", "traceSQL", "SetInt", "TraceSQL", "string", ""},
		{"embedded name", "PreparedStatement", "SetTraceSQL", "TraceSQL", "string", ""},
		{"decorator lock", "weaveMu", "SetTraceSQL", "TraceSQL", "string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := loadClass(t, legacySource)
			err := class.AddTraceVariable(tt.field, tt.setter, tt.getter, tt.typ, tt.initer)
			require.Error(t, err)
			assert.True(t, errors.IsStructural(err))
			assert.Empty(t, class.Descriptor().Operations)
		})
	}
}

func TestAddTraceVariable_CollidesWithEarlierVariable(t *testing.T) {
	class := loadClass(t, legacySource)
	require.NoError(t, class.AddTraceVariable("traceSQL", "SetTraceSQL", "TraceSQL", "string", ""))

	err := class.AddTraceVariable("traceQuery", "SetTraceSQL", "TraceQuery", "string", "")
	assert.True(t, errors.IsStructural(err))
}

func instrumentScenario(t *testing.T, class *InstrumentClass) {
	t.Helper()
	queryID, err := class.AddInterceptor("ExecuteQuery", []string{"string"}, captureRef)
	require.NoError(t, err)
	require.NoError(t, class.ReuseInterceptor("ExecuteUpdate", []string{"string"}, queryID))

	require.NoError(t, class.AddTraceVariable("traceURL", "SetTraceURL", "TraceURL", "string", ""))
	require.NoError(t, class.AddTraceVariable("traceSQL", "SetTraceSQL", "TraceSQL", "string", ""))
	require.NoError(t, class.AddTraceVariable("traceBindValues", "SetTraceBindValues", "TraceBindValues",
		"*weave.BindValueMap", "weave.NewBindValueMap()"))

	bindID, err := class.AddInterceptor("SetInt", []string{"int", "int"}, bindRef)
	require.NoError(t, err)
	require.NoError(t, class.ReuseInterceptor("SetString", []string{"int", "string"}, bindID))
	require.NoError(t, class.ReuseInterceptor("SetObject", nil, bindID))
}

func TestSerialize(t *testing.T) {
	class := loadClass(t, legacySource)
	instrumentScenario(t, class)

	src, err := class.Serialize()
	require.NoError(t, err)

	_, err = parser.ParseFile(token.NewFileSet(), "out.go", src, 0)
	require.NoError(t, err)

	out := string(src)
	assert.True(t, strings.HasPrefix(out, "// Code generated by dbweave. DO NOT EDIT."))
	assert.Contains(t, out, "package legacy")
	assert.Contains(t, out, `"database/sql/driver"`)
	assert.Contains(t, out, `"github.com/toyz/dbweave/pkg/weave"`)
	assert.Contains(t, out, `"sync"`)
	assert.NotContains(t, out, `"fmt"`)
	assert.NotContains(t, out, `"time"`)
	assert.NotContains(t, out, `weave "github.com`)

	assert.Contains(t, out, `weavePreparedStatementTable.Before(0, t, "ExecuteQuery", p0)`)
	assert.Contains(t, out, `weavePreparedStatementTable.Before(0, t, "ExecuteUpdate", p0)`)
	assert.Contains(t, out, `weavePreparedStatementTable.Before(1, t, "SetInt", p0, p1)`)
	assert.Contains(t, out, `weavePreparedStatementTable.Before(1, t, "SetObject", p0, p1)`)
	assert.Contains(t, out, "t.PreparedStatement.SetObject(p0, p1...)")
	assert.NotContains(t, out, `"SetRowID"`)
	assert.NotContains(t, out, `"Close"`)
	assert.Contains(t, out, "t.traceBindValues = weave.NewBindValueMap()")
	assert.Contains(t, out, "func (t *TracedPreparedStatement) TraceBindValues() *weave.BindValueMap")

	again, err := class.Serialize()
	require.NoError(t, err)
	assert.Equal(t, src, again)

	other := loadClass(t, legacySource)
	instrumentScenario(t, other)
	fresh, err := other.Serialize()
	require.NoError(t, err)
	assert.Equal(t, src, fresh)
}

func TestSerialize_MethodBoundToTwoIDs(t *testing.T) {
	class := loadClass(t, legacySource)

	_, err := class.AddInterceptor("SetInt", []string{"int", "int"}, bindRef)
	require.NoError(t, err)
	_, err = class.AddInterceptor("SetInt", nil, bindRef)
	require.NoError(t, err)

	_, err = class.Serialize()
	require.Error(t, err)
	assert.True(t, errors.IsStructural(err))
}

func TestSerialize_InvalidInterceptorExpression(t *testing.T) {
	class := loadClass(t, legacySource)
	_, err := class.AddInterceptor("SetInt", nil, models.InterceptorRef{Name: "broken", Expr: "func("})
	require.NoError(t, err)

	_, err = class.Serialize()
	require.Error(t, err)
	assert.True(t, errors.IsStructural(err))
}

func TestSerialize_DuplicateMember(t *testing.T) {
	source := `package legacy

type Stmt struct{}

func (s *Stmt) Stmt() string { return "" }
`
	l := loader.NewSourceLoader()
	l.AddSource("example.com/legacy", "stmt.go", []byte(source))
	class, err := New(l).Load("example.com/legacy.Stmt")
	require.NoError(t, err)

	_, err = class.AddInterceptor("Stmt", nil, captureRef)
	require.NoError(t, err)

	_, err = class.Serialize()
	require.Error(t, err)
	assert.True(t, errors.IsStructural(err))
}

func TestSerialize_ImportCollision(t *testing.T) {
	source := `package legacy

import weave "example.com/other/weave"

type Stmt struct{ w weave.Thing }

func (s *Stmt) Exec(q string) error { return nil }
`
	l := loader.NewSourceLoader()
	l.AddSource("example.com/legacy", "stmt.go", []byte(source))
	class, err := New(l).Load("example.com/legacy.Stmt")
	require.NoError(t, err)

	_, err = class.AddInterceptor("Exec", nil, captureRef)
	require.NoError(t, err)

	_, err = class.Serialize()
	require.Error(t, err)
	assert.True(t, errors.IsStructural(err))
}

func TestOutputPath(t *testing.T) {
	class := loadClass(t, legacySource)
	assert.Equal(t, "autogen_weave_preparedstatement.go", class.OutputPath())
}
