package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"int", "int"},
		{"  string ", "string"},
		{"[ ]byte", "[]byte"},
		{"map[string] interface {}", "map[string]interface{}"},
		{"chan   int", "chan int"},
		{"* driver.Value", "*driver.Value"},
		{"... any", "...any"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalType(tt.input))
		})
	}
}

func TestTargetMethodSignature_Matches(t *testing.T) {
	setInt := Method{Name: "SetInt", Params: []Param{{Name: "i", Type: "int"}, {Name: "x", Type: "int"}}}
	setString := Method{Name: "SetString", Params: []Param{{Name: "i", Type: "int"}, {Name: "x", Type: "string"}}}

	assert.True(t, NewSignature("SetInt", "int", "int").Matches(setInt))
	assert.False(t, NewSignature("SetInt", "int", "string").Matches(setInt))
	assert.False(t, NewSignature("SetInt", "int").Matches(setInt))
	assert.False(t, NewSignature("SetInt", "int", "int").Matches(setString))

	assert.True(t, WildcardSignature("SetString").Matches(setString))
	assert.False(t, WildcardSignature("SetString").Matches(setInt))
}

func TestTargetMethodSignature_String(t *testing.T) {
	assert.Equal(t, "SetInt(int, int)", NewSignature("SetInt", "int", " int").String())
	assert.Equal(t, "ExecuteQuery()", NewSignature("ExecuteQuery").String())
	assert.Equal(t, "ExecuteQuery(*)", WildcardSignature("ExecuteQuery").String())
}

func TestTypeModel_Members(t *testing.T) {
	model := &TypeModel{
		ImportPath: "example.com/driver",
		Name:       "Stmt",
		Fields:     []string{"sql", "conn"},
		Methods: []Method{
			{Name: "SetInt", Params: []Param{{Type: "int"}, {Type: "int"}}, Results: []string{"error"}},
			{Name: "Close", Results: []string{"error"}},
		},
	}

	assert.Equal(t, "example.com/driver.Stmt", model.QualifiedName())
	assert.True(t, model.HasMember("sql"))
	assert.True(t, model.HasMember("Close"))
	assert.False(t, model.HasMember("traceSQL"))
	assert.Len(t, model.MethodsNamed("SetInt"), 1)
	assert.Equal(t, "SetInt(int, int) error", model.Methods[0].String())
}

func TestExclusionSet(t *testing.T) {
	set := NewExclusionSet("SetRowID", "SetNClob")
	assert.True(t, set.Contains("SetRowID"))
	assert.False(t, set.Contains("SetInt"))
	assert.Equal(t, []string{"SetNClob", "SetRowID"}, set.Names())
}
