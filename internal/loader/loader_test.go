package loader

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/models"
)

const stmtSource = `package legacy

import (
	"database/sql/driver"
	lg "log"
)

type PreparedStatement struct {
	sql    string
	*lg.Logger
	params map[int]driver.Value
}

func (s *PreparedStatement) SetInt(index int, value int) error { return nil }

func (s *PreparedStatement) SetString(index int, value string) error { return nil }

func (s *PreparedStatement) SetObject(index int, value interface {}, opts ...driver.Value) error {
	return nil
}

func (s PreparedStatement) ExecuteQuery(sql string) (rows, cols int, err error) { return 0, 0, nil }

func (s *PreparedStatement) Close() {}

func helper() {}

type Other struct{}

func (o *Other) SetInt(index int, value int) error { return nil }
`

func TestSplitTypeName(t *testing.T) {
	path, name, err := SplitTypeName("github.com/acme/legacy.PreparedStatement")
	require.NoError(t, err)
	assert.Equal(t, "github.com/acme/legacy", path)
	assert.Equal(t, "PreparedStatement", name)

	path, name, err = SplitTypeName("gopkg.in/v1/legacy.Stmt")
	require.NoError(t, err)
	assert.Equal(t, "gopkg.in/v1/legacy", path)
	assert.Equal(t, "Stmt", name)

	for _, bad := range []string{"", "Stmt", "github.com/acme/legacy", "legacy.", ".Stmt", "legacy.1Stmt"} {
		_, _, err := SplitTypeName(bad)
		assert.Error(t, err, bad)
	}
}

func TestSourceLoader_InMemory(t *testing.T) {
	l := NewSourceLoader()
	l.AddSource("example.com/legacy", "stmt.go", []byte(stmtSource))
	l.AddSource("example.com/legacy", "autogen_weave_preparedstatement.go", []byte("package legacy\n\nnot go"))

	model, err := l.Load("example.com/legacy.PreparedStatement")
	require.NoError(t, err)

	assert.Equal(t, "legacy", model.PackageName)
	assert.Equal(t, "example.com/legacy", model.ImportPath)
	assert.Equal(t, []string{"sql", "Logger", "params"}, model.Fields)
	require.Len(t, model.Methods, 5)

	setObject := model.Methods[2]
	assert.Equal(t, "SetObject", setObject.Name)
	assert.Equal(t, []string{"int", "interface{}", "...driver.Value"}, setObject.ParamTypes())
	assert.True(t, setObject.IsVariadic())
	assert.Equal(t, "opts", setObject.Params[2].Name)

	query := model.Methods[3]
	assert.False(t, query.PointerReceiver)
	assert.Equal(t, []string{"int", "int", "error"}, query.Results)

	assert.Equal(t, "Close()", model.Methods[4].String())
	assert.ElementsMatch(t, []models.Import{
		{Path: "database/sql/driver"},
		{Name: "lg", Path: "log"},
	}, model.Imports)
	assert.Equal(t, []string{"example.com/legacy"}, l.ImportPaths())
}

func TestSourceLoader_NotFound(t *testing.T) {
	l := NewSourceLoader()
	l.AddSource("example.com/legacy", "stmt.go", []byte(stmtSource))

	_, err := l.Load("example.com/legacy.CallableStatement")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = l.Load("example.com/unknown.PreparedStatement")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSourceLoader_Fallback(t *testing.T) {
	fallback := NewSourceLoader()
	fallback.AddSource("example.com/other", "stmt.go", []byte(stmtSource))

	l := NewSourceLoader()
	l.AddSource("example.com/legacy", "stmt.go", []byte("package legacy\n\ntype Conn struct{}\n"))
	l.SetFallback(fallback)

	model, err := l.Load("example.com/other.PreparedStatement")
	require.NoError(t, err)
	assert.Equal(t, "example.com/other", model.ImportPath)

	_, err = l.Load("example.com/legacy.PreparedStatement")
	assert.True(t, errors.IsNotFound(err))
}

func TestSourceLoader_RejectsUndecoratableTypes(t *testing.T) {
	l := NewSourceLoader()
	l.AddSource("example.com/odd", "odd.go", []byte(`package odd

type Alias = int
type Generic[T any] struct{ v T }
type Iface interface{ Do() }
`))

	for _, name := range []string{"Alias", "Generic", "Iface"} {
		_, err := l.Load("example.com/odd." + name)
		require.Error(t, err, name)
		assert.True(t, errors.IsStructural(err), name)
	}
}

func TestSourceLoader_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stmt.go"), []byte(stmtSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "autogen_weave_preparedstatement.go"), []byte("package legacy\n\nbroken("), 0o644))

	l := NewSourceLoader()
	l.AddDir("example.com/legacy", dir)

	model, err := l.Load("example.com/legacy.PreparedStatement")
	require.NoError(t, err)
	assert.Equal(t, dir, model.Dir)
	assert.True(t, model.HasMember("SetInt"))

	l.AddDir("example.com/missing", filepath.Join(dir, "nope"))
	_, err = l.Load("example.com/missing.Stmt")
	require.Error(t, err)
	assert.Equal(t, errors.FileSystemErrorCode, errors.CodeOf(err))
}

func TestSourceLoader_ParseError(t *testing.T) {
	l := NewSourceLoader()
	l.AddSource("example.com/broken", "broken.go", []byte("package broken\n\nfunc {"))

	_, err := l.Load("example.com/broken.Stmt")
	require.Error(t, err)
	assert.Equal(t, errors.SyntaxErrorCode, errors.CodeOf(err))
}

func TestPackagesLoader_StandardLibrary(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}

	l := NewPackagesLoader(t.TempDir())
	model, err := l.Load("database/sql.Stmt")
	require.NoError(t, err)

	assert.Equal(t, "sql", model.PackageName)
	assert.Equal(t, "database/sql", model.ImportPath)
	assert.NotEmpty(t, model.MethodsNamed("ExecContext"))
	assert.True(t, model.MethodsNamed("ExecContext")[0].PointerReceiver)

	_, err = l.Load("database/sql.NoSuchType")
	assert.True(t, errors.IsNotFound(err))
}
