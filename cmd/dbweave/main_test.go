package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stmtSource = `package legacydb

type PreparedStatement struct{}

func (s *PreparedStatement) SetInt(index int, value int) error { return nil }

func (s *PreparedStatement) SetRowID(index int, value []byte) error { return nil }

func (s *PreparedStatement) ExecuteQuery(query string) (int, error) { return 0, nil }
`

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	pkg := filepath.Join(root, "legacydb")
	require.NoError(t, os.MkdirAll(pkg, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/app\n\ngo 1.25\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "stmt.go"), []byte(stmtSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dbweave.toml"),
		[]byte("[[targets]]\ntype = \"PreparedStatement\"\ndir = \"./legacydb\"\n"), 0o644))
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateAndClean(t *testing.T) {
	root := writeProject(t)
	generated := filepath.Join(root, "legacydb", "autogen_weave_preparedstatement.go")

	out, err := execute(t, "generate", "--manifest", filepath.Join(root, "dbweave.toml"), "--workers", "1")
	require.NoError(t, err)
	assert.FileExists(t, generated)
	assert.Contains(t, out, "example.com/app/legacydb.PreparedStatement")

	out, err = execute(t, "clean", root+"/...")
	require.NoError(t, err)
	assert.NoFileExists(t, generated)
	assert.Contains(t, out, "removed: 1")
}

func TestGenerate_DryRun(t *testing.T) {
	root := writeProject(t)

	_, err := execute(t, "generate", "--dry-run", "-q", "-m", filepath.Join(root, "dbweave.toml"))
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, "legacydb", "autogen_weave_preparedstatement.go"))
}

func TestGenerate_MissingManifest(t *testing.T) {
	t.Setenv("DBWEAVE_MANIFEST", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := execute(t, "generate", "--manifest", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	root := writeProject(t)
	dir := filepath.Join(root, "legacydb")

	out, err := execute(t, "inspect", "PreparedStatement", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "add-interceptor SetInt(int, int) -> id 1")
	assert.Contains(t, out, "SetRowID(int, []byte) error")

	out, err = execute(t, "inspect", "PreparedStatement", "--dir", dir, "--exclude", "SetInt")
	require.NoError(t, err)
	assert.Contains(t, out, "SetRowID(int, []byte) -> id 1")

	_, err = execute(t, "inspect")
	assert.Error(t, err)
}

func TestInvalidEnvironment(t *testing.T) {
	t.Setenv("DBWEAVE_WORKERS", "0")
	_, err := execute(t, "clean", t.TempDir())
	assert.Error(t, err)
}
