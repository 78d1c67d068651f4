package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileProcessor_ParsePackageDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stmt.go"), "package legacy\n\ntype Stmt struct{}\n")
	writeFile(t, filepath.Join(dir, "conn.go"), "package legacy\n\ntype Conn struct{}\n")
	writeFile(t, filepath.Join(dir, "stmt_test.go"), "package legacy_test\n")
	writeFile(t, filepath.Join(dir, "autogen_weave_stmt.go"), "package legacy\n\nbroken(\n")

	files, pkg, err := NewFileProcessor().ParsePackageDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "legacy", pkg)
	assert.Len(t, files, 2)
}

func TestFileProcessor_ParsePackageDirErrors(t *testing.T) {
	empty := t.TempDir()
	_, _, err := NewFileProcessor().ParsePackageDir(empty)
	assert.Error(t, err)

	mixed := t.TempDir()
	writeFile(t, filepath.Join(mixed, "a.go"), "package a\n")
	writeFile(t, filepath.Join(mixed, "b.go"), "package b\n")
	_, _, err = NewFileProcessor().ParsePackageDir(mixed)
	assert.ErrorContains(t, err, "multiple packages")
}

func TestFileProcessor_RemoveGeneratedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "autogen_weave_stmt.go"), "package a\n")
	writeFile(t, filepath.Join(root, "nested", "autogen_weave_conn.go"), "package b\n")
	writeFile(t, filepath.Join(root, "nested", "autogen_module.go"), "package b\n")
	writeFile(t, filepath.Join(root, "vendor", "autogen_weave_x.go"), "package v\n")
	writeFile(t, filepath.Join(root, "stmt.go"), "package a\n")

	removed, err := NewFileProcessor().RemoveFiles([]string{root, filepath.Join(root, "missing")}, GeneratedFileFilter("weave_"))
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	assert.FileExists(t, filepath.Join(root, "stmt.go"))
	assert.FileExists(t, filepath.Join(root, "nested", "autogen_module.go"))
	assert.FileExists(t, filepath.Join(root, "vendor", "autogen_weave_x.go"))
	assert.NoFileExists(t, filepath.Join(root, "autogen_weave_stmt.go"))
}

func TestWriteGoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.go")
	require.NoError(t, WriteGoFile(path, []byte("package out\n")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package out\n", string(content))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFormatGoCode(t *testing.T) {
	formatted, err := FormatGoCode([]byte("package a\n\nfunc  f( ) {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "package a\n\nfunc f() {}\n", string(formatted))

	_, err = FormatGoCode([]byte("package a\nfunc {"))
	assert.Error(t, err)
}

func TestGoModParser(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/legacy\n\ngo 1.22\n\nrequire example.com/driver v1.6.2\n")
	nested := filepath.Join(root, "pkg", "stmt")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	parser := NewGoModParser(NewFileReader())
	goMod, err := parser.FindGoModFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "go.mod"), goMod)

	name, err := parser.ParseModuleName(goMod)
	require.NoError(t, err)
	assert.Equal(t, "example.com/legacy", name)

	version, err := parser.RequiredVersion(goMod, "example.com/driver")
	require.NoError(t, err)
	assert.Equal(t, "v1.6.2", version)

	version, err = parser.RequiredVersion(goMod, "example.com/other")
	require.NoError(t, err)
	assert.Empty(t, version)

	_, err = parser.Parse(filepath.Join(root, "pkg"))
	assert.Error(t, err)
}
