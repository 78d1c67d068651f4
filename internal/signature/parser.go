// Package signature parses method signature strings such as
// "SetString(int, string)" or "ExecuteQuery(*)" into target signatures.
package signature

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/models"
)

// WildcardToken is the parameter list that matches any signature
const WildcardToken = "*"

// signatureAST is the grammar root: Name ( "(" [Type {"," Type}] ")" )?
type signatureAST struct {
	Name   string      `parser:"@Ident"`
	Open   bool        `parser:"( @'('"`
	Params []*typeExpr `parser:"  ( @@ ( ',' @@ )* )? ')' )?"`
}

// typeExpr captures a run of type tokens between delimiters
type typeExpr struct {
	Tokens []string `parser:"@(Ident | Number | Ellipsis | Punct)+"`
}

var signatureLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ellipsis", Pattern: `\.\.\.`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[.*\[\]{}]`},
	{Name: "Delim", Pattern: `[(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var signatureParser = participle.MustBuild[signatureAST](
	participle.Lexer(signatureLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse converts a signature string into a TargetMethodSignature.
// A bare name or a "(*)" parameter list yields a wildcard signature.
func Parse(input string) (models.TargetMethodSignature, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return models.TargetMethodSignature{}, errors.NewSyntaxError("empty method signature")
	}

	ast, err := signatureParser.ParseString("", trimmed)
	if err != nil {
		return models.TargetMethodSignature{}, errors.WrapParseError("method signature", input, err)
	}

	if !ast.Open {
		return models.WildcardSignature(ast.Name), nil
	}

	types := make([]string, 0, len(ast.Params))
	for _, param := range ast.Params {
		types = append(types, joinTokens(param.Tokens))
	}

	if len(types) == 1 && types[0] == WildcardToken {
		return models.WildcardSignature(ast.Name), nil
	}

	return models.NewSignature(ast.Name, types...), nil
}

// MustParse is Parse for static tables; it panics on malformed input
func MustParse(input string) models.TargetMethodSignature {
	sig, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return sig
}

// ParseAll parses a list of signatures, collecting every failure
func ParseAll(inputs []string) ([]models.TargetMethodSignature, error) {
	return parseEach(inputs, Parse)
}

func parseEach(inputs []string, parse func(string) (models.TargetMethodSignature, error)) ([]models.TargetMethodSignature, error) {
	var multi *errors.MultipleErrors
	sigs := make([]models.TargetMethodSignature, 0, len(inputs))
	for _, input := range inputs {
		sig, err := parse(input)
		if err != nil {
			weaveErr, ok := err.(errors.WeaveError)
			if !ok {
				weaveErr = errors.WrapParseError("method signature", input, err)
			}
			errors.AddToMultiple(&multi, weaveErr)
			continue
		}
		sigs = append(sigs, sig)
	}
	return sigs, multi.ErrOrNil()
}

// joinTokens rebuilds a type spelling, keeping a space only between words
func joinTokens(tokens []string) string {
	var b strings.Builder
	for i, token := range tokens {
		if i > 0 && isWord(tokens[i-1]) && isWord(token) {
			b.WriteByte(' ')
		}
		b.WriteString(token)
	}
	return models.CanonicalType(b.String())
}

func isWord(token string) bool {
	if token == "" {
		return false
	}
	c := token[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
