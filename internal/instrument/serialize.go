package instrument

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"path"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/models"
	"github.com/toyz/dbweave/internal/templates"
)

// Serialize renders the decorator for every applied operation. The output
// is formatted Go source and is identical for identical operation
// sequences. Any inconsistency fails the whole type with a StructuralError.
func (c *InstrumentClass) Serialize() ([]byte, error) {
	qualified := c.model.QualifiedName()

	ids, err := c.methodIDs()
	if err != nil {
		return nil, err
	}

	imports, err := c.imports()
	if err != nil {
		return nil, err
	}

	data := templates.DecoratorData{
		PackageName:     c.model.PackageName,
		QualifiedName:   qualified,
		TypeName:        c.model.Name,
		DecoratorName:   templates.DecoratorName(c.model.Name),
		ConstructorName: templates.ConstructorName(c.model.Name),
		TableVar:        templates.TableVarName(c.model.Name),
		ImportBlock:     imports.GenerateImports(),
	}
	for _, reg := range c.registrations {
		expr := reg.Interceptor.Expr
		if expr == "" {
			expr = "nil"
		}
		data.Interceptors = append(data.Interceptors, templates.InterceptorData{
			ID:   reg.ID,
			Name: reg.Interceptor.Name,
			Expr: expr,
		})
	}
	for _, v := range c.variables {
		data.Variables = append(data.Variables, templates.VariableData{
			FieldName:   v.FieldName,
			SetterName:  v.SetterName,
			GetterName:  v.GetterName,
			TypeName:    v.TypeName,
			Initializer: v.Initializer,
		})
	}
	for _, method := range c.model.Methods {
		if id, ok := ids[method.Name]; ok {
			data.Methods = append(data.Methods, templates.NewMethodData(c.model.Name, method, id))
		}
	}

	src, err := templates.RenderDecorator(data)
	if err != nil {
		return nil, errors.WrapStructuralError(qualified, "render", err)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, c.OutputPath(), src, parser.ParseComments)
	if err != nil {
		return nil, errors.WrapStructuralError(qualified, "parse", err)
	}

	pruneImports(fset, file)

	if err := verifyMembers(qualified, data.DecoratorName, file); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, errors.WrapStructuralError(qualified, "format", err)
	}

	c.logger.Debug("decorator serialized",
		zap.String("type", qualified),
		zap.Int("methods", len(data.Methods)),
		zap.Int("interceptors", len(data.Interceptors)),
		zap.Int("variables", len(data.Variables)))
	return buf.Bytes(), nil
}

// methodIDs resolves each bound method to its single interceptor id
func (c *InstrumentClass) methodIDs() (map[string]int, error) {
	ids := make(map[string]int, len(c.bindings))
	for _, b := range c.bindings {
		if existing, ok := ids[b.method.Name]; ok && existing != b.id {
			return nil, errors.NewStructuralError(c.model.QualifiedName(), "serialize",
				fmt.Sprintf("method %s is bound to interceptor ids %d and %d", b.method.Name, existing, b.id))
		}
		ids[b.method.Name] = b.id
	}
	return ids, nil
}

// imports gathers the target's imports plus everything the decorator and
// interceptor expressions need. Two paths under one name cannot both be
// carried into a single file.
func (c *InstrumentClass) imports() (*templates.ImportManager, error) {
	qualified := c.model.QualifiedName()
	im := templates.NewImportManager()

	required := []models.Import{{Path: "sync"}, {Name: "weave", Path: WeaveImportPath}}
	for _, reg := range c.registrations {
		if imp, ok := reg.Interceptor.Import(); ok {
			required = append(required, imp)
		}
	}

	for _, imp := range append(required, c.model.Imports...) {
		if err := im.Add(imp); err != nil {
			return nil, errors.WrapStructuralError(qualified, "imports", err)
		}
	}
	return im, nil
}

// pruneImports drops imports the decorator never references and removes
// aliases that only restate the last path element
func pruneImports(fset *token.FileSet, file *ast.File) {
	for _, spec := range append([]*ast.ImportSpec(nil), file.Imports...) {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := ""
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if !usesName(file, name, importPath) {
			astutil.DeleteNamedImport(fset, file, name, importPath)
		}
	}

	for _, spec := range file.Imports {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil || spec.Name == nil {
			continue
		}
		if spec.Name.Name == path.Base(importPath) {
			spec.Name = nil
		}
	}
}

func usesName(file *ast.File, name, importPath string) bool {
	if name == "" {
		return astutil.UsesImport(file, importPath)
	}
	used := false
	ast.Inspect(file, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok && id.Name == name {
				used = true
			}
		}
		return !used
	})
	return used
}

// verifyMembers rejects a decorator that declares the same field or method
// name twice
func verifyMembers(qualified, decorator string, file *ast.File) error {
	seen := make(map[string]bool)
	add := func(name string) error {
		if seen[name] {
			return errors.NewStructuralError(qualified, "verify",
				fmt.Sprintf("decorator %s declares %s more than once", decorator, name))
		}
		seen[name] = true
		return nil
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || ts.Name.Name != decorator {
					continue
				}
				st, ok := ts.Type.(*ast.StructType)
				if !ok {
					continue
				}
				for _, field := range st.Fields.List {
					if len(field.Names) == 0 {
						if err := add(embeddedName(field.Type)); err != nil {
							return err
						}
					}
					for _, name := range field.Names {
						if err := add(name.Name); err != nil {
							return err
						}
					}
				}
			}
		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) == 0 || receiverName(d.Recv.List[0].Type) != decorator {
				continue
			}
			if err := add(d.Name.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func embeddedName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return embeddedName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.Ident:
		return e.Name
	default:
		return ""
	}
}

func receiverName(expr ast.Expr) string {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if id, ok := expr.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}
