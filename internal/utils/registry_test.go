package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/dbweave/internal/errors"
)

func TestBaseRegistry_Validation(t *testing.T) {
	registry := NewBaseRegistry[string, int]("modifier", "type name")
	registry.SetValidator(ChainValidators(
		NotEmptyKeyValidator[int]("modifier", "type name"),
		NoDuplicateValidator[int]("modifier"),
	))

	require.NoError(t, registry.Register("b.Stmt", 1))
	require.NoError(t, registry.Register("a.Stmt", 2))

	err := registry.Register("a.Stmt", 3)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.RegistrationErrorCode))

	err = registry.Register("", 4)
	assert.ErrorContains(t, err, "type name cannot be empty")

	value, ok := registry.Get("a.Stmt")
	assert.True(t, ok)
	assert.Equal(t, 2, value)
	assert.True(t, registry.Has("b.Stmt"))
	assert.Equal(t, 2, registry.Size())
	assert.Equal(t, []string{"a.Stmt", "b.Stmt"}, SortedKeys(registry))
	assert.Equal(t, "modifier", registry.Name())
}

func TestValidators(t *testing.T) {
	assert.NoError(t, IsValidGoIdentifier("field")("traceSQL"))
	assert.Error(t, IsValidGoIdentifier("field")("trace-sql"))
	assert.Error(t, IsValidGoIdentifier("field")(""))
	assert.NoError(t, IsExported("setter")("SetTraceSQL"))
	assert.Error(t, IsExported("setter")("setTraceSQL"))
	assert.NoError(t, IsOneOf("modifier", "prepared-statement")("prepared-statement"))
	assert.Error(t, IsOneOf("modifier", "prepared-statement")("callable"))

	err := ValidateEach("exclude", NotEmpty("name"))([]string{"SetRowID", ""})
	assert.ErrorContains(t, err, "exclude[1]")

	chain := NewValidatorChain(NotEmpty("name")).Add(IsValidGoIdentifier("name"))
	assert.Error(t, chain.Validate("1abc"))
	assert.NoError(t, chain.Validate("abc"))
}

func TestDiagnosticSystem_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	quiet := NewQuietDiagnostics()
	quiet.SetOutput(&out, &errOut)

	quiet.Info("hidden")
	quiet.Error("shown %d", 1)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "shown 1")

	out.Reset()
	diag := NewDiagnosticSystem(DiagnosticInfo)
	diag.SetOutput(&out, &errOut)
	diag.PhaseItem("wrote %s", "autogen_weave_stmt.go")
	diag.Indent()
	diag.List("SetInt(int, int)")
	diag.Unindent()
	diag.Summary("Summary", map[string]interface{}{"transformed": 1, "skipped": 0})

	text := out.String()
	assert.Contains(t, text, "wrote autogen_weave_stmt.go")
	assert.Contains(t, text, "  - SetInt(int, int)")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("skipped")), bytes.Index(out.Bytes(), []byte("transformed")))
}
