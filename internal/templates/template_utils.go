package templates

import (
	"fmt"
	"strings"

	"github.com/toyz/dbweave/internal/models"
)

// DecoratorPrefix prefixes every generated decorator type
const DecoratorPrefix = "Traced"

// DecoratorName returns the decorator type name for typeName
func DecoratorName(typeName string) string {
	return DecoratorPrefix + typeName
}

// ConstructorName returns the decorator constructor name for typeName
func ConstructorName(typeName string) string {
	return "New" + DecoratorName(typeName)
}

// TableVarName returns the package variable holding typeName's table
func TableVarName(typeName string) string {
	return "weave" + typeName + "Table"
}

// OutputFileName returns the generated file name for typeName
func OutputFileName(typeName string) string {
	return "autogen_weave_" + strings.ToLower(typeName) + ".go"
}

// NewMethodData renders the fragments of a wrapped method. Parameters and
// results are renamed p0..pN and r0..rN so they never collide with the
// receiver or the invocation variable.
func NewMethodData(typeName string, method models.Method, id int) MethodData {
	params := make([]string, len(method.Params))
	beforeArgs := make([]string, len(method.Params))
	callArgs := make([]string, len(method.Params))
	for i, param := range method.Params {
		name := fmt.Sprintf("p%d", i)
		params[i] = name + " " + param.Type
		beforeArgs[i] = name
		callArgs[i] = name
		if param.Variadic {
			callArgs[i] = name + "..."
		}
	}

	resultVars := make([]string, len(method.Results))
	for i := range method.Results {
		resultVars[i] = fmt.Sprintf("r%d", i)
	}

	var resultList string
	switch len(method.Results) {
	case 0:
	case 1:
		resultList = " " + method.Results[0]
	default:
		resultList = " (" + strings.Join(method.Results, ", ") + ")"
	}

	return MethodData{
		Name:          method.Name,
		ID:            id,
		TypeName:      typeName,
		DecoratorName: DecoratorName(typeName),
		TableVar:      TableVarName(typeName),
		ParamList:     strings.Join(params, ", "),
		BeforeArgs:    strings.Join(beforeArgs, ", "),
		CallArgs:      strings.Join(callArgs, ", "),
		ResultList:    resultList,
		ResultVars:    strings.Join(resultVars, ", "),
	}
}
