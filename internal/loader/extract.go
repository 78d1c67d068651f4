package loader

import (
	"go/ast"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/models"
)

// SplitTypeName splits "import/path.Type" into its import path and name
func SplitTypeName(typeName string) (string, string, error) {
	slash := strings.LastIndex(typeName, "/")
	dot := strings.LastIndex(typeName, ".")
	if dot <= slash || dot == len(typeName)-1 || dot == 0 {
		return "", "", errors.NewValidationError("type name", "import/path.TypeName", typeName)
	}
	name := typeName[dot+1:]
	if !token.IsIdentifier(name) {
		return "", "", errors.NewValidationError("type name", "an identifier after the last dot", typeName)
	}
	return typeName[:dot], name, nil
}

// Extract builds the model of type name from the parsed files of one package
func Extract(files []*ast.File, importPath, dir, name string) (*models.TypeModel, error) {
	qualified := importPath + "." + name
	model := &models.TypeModel{
		ImportPath: importPath,
		Dir:        dir,
		Name:       name,
	}

	var declared bool
	usedFiles := make(map[*ast.File]bool)
	for _, file := range files {
		model.PackageName = file.Name.Name
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok || ts.Name.Name != name {
						continue
					}
					if err := checkDecoratable(qualified, ts); err != nil {
						return nil, err
					}
					if st, ok := ts.Type.(*ast.StructType); ok {
						model.Fields = structFields(st)
					}
					declared = true
					usedFiles[file] = true
				}
			case *ast.FuncDecl:
				method, ok := methodOf(d, name)
				if !ok {
					continue
				}
				model.Methods = append(model.Methods, method)
				usedFiles[file] = true
			}
		}
	}

	if !declared {
		return nil, errors.NewTypeNotFoundError(qualified)
	}

	for _, file := range files {
		if usedFiles[file] {
			model.Imports = mergeImports(model.Imports, file.Imports)
		}
	}
	return model, nil
}

func checkDecoratable(qualified string, ts *ast.TypeSpec) error {
	if ts.Assign.IsValid() {
		return errors.NewStructuralError(qualified, "load", "type aliases cannot be decorated")
	}
	if ts.TypeParams != nil && len(ts.TypeParams.List) > 0 {
		return errors.NewStructuralError(qualified, "load", "generic types cannot be decorated")
	}
	if _, ok := ts.Type.(*ast.InterfaceType); ok {
		return errors.NewStructuralError(qualified, "load", "interface types cannot be decorated")
	}
	return nil
}

func structFields(st *ast.StructType) []string {
	var fields []string
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			fields = append(fields, embeddedName(field.Type))
			continue
		}
		for _, ident := range field.Names {
			fields = append(fields, ident.Name)
		}
	}
	return fields
}

func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return types.ExprString(expr)
	}
}

// methodOf reports whether fn is declared on name or *name
func methodOf(fn *ast.FuncDecl, name string) (models.Method, bool) {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return models.Method{}, false
	}

	recv := fn.Recv.List[0].Type
	pointer := false
	if star, ok := recv.(*ast.StarExpr); ok {
		recv = star.X
		pointer = true
	}
	ident, ok := recv.(*ast.Ident)
	if !ok || ident.Name != name {
		return models.Method{}, false
	}

	method := models.Method{
		Name:            fn.Name.Name,
		PointerReceiver: pointer,
	}
	if fn.Type.Params != nil {
		for _, field := range fn.Type.Params.List {
			typ, variadic := paramType(field.Type)
			if len(field.Names) == 0 {
				method.Params = append(method.Params, models.Param{Type: typ, Variadic: variadic})
				continue
			}
			for _, ident := range field.Names {
				method.Params = append(method.Params, models.Param{Name: ident.Name, Type: typ, Variadic: variadic})
			}
		}
	}
	if fn.Type.Results != nil {
		for _, field := range fn.Type.Results.List {
			typ := models.CanonicalType(types.ExprString(field.Type))
			count := len(field.Names)
			if count == 0 {
				count = 1
			}
			for i := 0; i < count; i++ {
				method.Results = append(method.Results, typ)
			}
		}
	}
	return method, true
}

func paramType(expr ast.Expr) (string, bool) {
	if ellipsis, ok := expr.(*ast.Ellipsis); ok {
		return "..." + models.CanonicalType(types.ExprString(ellipsis.Elt)), true
	}
	return models.CanonicalType(types.ExprString(expr)), false
}

func mergeImports(existing []models.Import, specs []*ast.ImportSpec) []models.Import {
	seen := make(map[models.Import]bool, len(existing))
	for _, imp := range existing {
		seen[imp] = true
	}
	for _, spec := range specs {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imp := models.Import{Path: path}
		if spec.Name != nil {
			imp.Name = spec.Name.Name
		}
		if imp.Name == "_" || imp.Name == "." || seen[imp] {
			continue
		}
		seen[imp] = true
		existing = append(existing, imp)
	}
	return existing
}
