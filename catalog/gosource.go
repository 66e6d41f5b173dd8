package catalog

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const directivePrefix = "openapi:"

var goBasicTypes = map[string]string{
	"string":     "string",
	"bool":       "bool",
	"int":        "int",
	"int8":       "int",
	"int16":      "int",
	"int32":      "int",
	"uint":       "int",
	"uint8":      "int",
	"uint16":     "int",
	"uint32":     "int",
	"byte":       "int",
	"rune":       "int",
	"int64":      "int64",
	"uint64":     "int64",
	"uintptr":    "int64",
	"float32":    "float",
	"float64":    "float64",
	"any":        "mixed",
	"error":      "error",
	"complex64":  "",
	"complex128": "",
}

var goSelectorTypes = map[string]string{
	"time.Time":       "time.Time",
	"time.Duration":   "int64",
	"json.RawMessage": "mixed",
	"json.Number":     "float64",
	"uuid.UUID":       "string",
	"big.Int":         "string",
	"url.URL":         "string",
	"netip.Addr":      "string",
	"netip.Prefix":    "string",
	"net.IP":          "string",
}

// Scanner extracts catalog types from Go source. Exported named types are
// registered under prefix + "." + name:
//
//   - struct types become objects; the json tag sets the alias, the db tag
//     the column, json:"-" and openapi:"-" hide a field, any other openapi
//     tag is kept as member constraints;
//   - named basic types with typed constants become enums;
//   - named basic types with a String method become stringables;
//   - types with a MarshalJSON method are serializable, and
//     //openapi:shape <key> <type> doc lines document their output;
//   - an //openapi:request doc line marks a request model.
type Scanner struct {
	prefix string
	fset   *token.FileSet
	files  []*ast.File
}

// NewScanner creates a scanner qualifying type names with prefix.
func NewScanner(prefix string) *Scanner {
	return &Scanner{
		prefix: strings.TrimSuffix(prefix, "."),
		fset:   token.NewFileSet(),
	}
}

// AddFile parses one source file. src follows go/parser.ParseFile: nil
// reads filename from disk.
func (s *Scanner) AddFile(filename string, src any) error {
	f, err := parser.ParseFile(s.fset, filename, src, parser.ParseComments)
	if err != nil {
		return errors.Wrapf(err, "parse %s", filename)
	}
	s.files = append(s.files, f)
	return nil
}

// ScanDir parses the non-test Go files of dir and returns their types.
func ScanDir(dir, prefix string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read dir %s", dir)
	}

	s := NewScanner(prefix)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if err := s.AddFile(filepath.Join(dir, name), nil); err != nil {
			return nil, err
		}
	}

	return s.Catalog()
}

type typeDecl struct {
	spec *ast.TypeSpec
	doc  *ast.CommentGroup
}

type scan struct {
	*Scanner
	decls   map[string]*typeDecl
	order   []string
	methods map[string]map[string]*ast.FuncDecl
	cases   map[string][]Case
	kinds   map[string]Kind
}

// Catalog builds a catalog from every file added so far.
func (s *Scanner) Catalog() (*Catalog, error) {
	sc := &scan{
		Scanner: s,
		decls:   make(map[string]*typeDecl),
		methods: make(map[string]map[string]*ast.FuncDecl),
		cases:   make(map[string][]Case),
		kinds:   make(map[string]Kind),
	}

	for _, f := range s.files {
		sc.collect(f)
	}
	for _, name := range sc.order {
		if kind, ok := sc.classify(name); ok {
			sc.kinds[name] = kind
		}
	}

	c := New()
	for _, name := range sc.order {
		kind, ok := sc.kinds[name]
		if !ok {
			continue
		}
		if err := c.Add(sc.build(name, kind)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *Scanner) qualify(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "." + name
}

func (sc *scan) collect(f *ast.File) {
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			switch d.Tok {
			case token.TYPE:
				for _, spec := range d.Specs {
					ts := spec.(*ast.TypeSpec)
					if !ts.Name.IsExported() || ts.TypeParams != nil || ts.Assign.IsValid() {
						continue
					}
					doc := ts.Doc
					if doc == nil && len(d.Specs) == 1 {
						doc = d.Doc
					}
					if _, dup := sc.decls[ts.Name.Name]; !dup {
						sc.order = append(sc.order, ts.Name.Name)
					}
					sc.decls[ts.Name.Name] = &typeDecl{spec: ts, doc: doc}
				}
			case token.CONST:
				sc.collectConsts(d)
			}

		case *ast.FuncDecl:
			recv := receiverName(d)
			if recv == "" {
				continue
			}
			if sc.methods[recv] == nil {
				sc.methods[recv] = make(map[string]*ast.FuncDecl)
			}
			sc.methods[recv][d.Name.Name] = d
		}
	}
}

func receiverName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	expr := fn.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name
		}
	}
	return ""
}

// collectConsts records typed constants as enum cases, following the
// implicit repetition rules of const groups.
func (sc *scan) collectConsts(d *ast.GenDecl) {
	var (
		typ    string
		values []ast.Expr
	)

	for i, spec := range d.Specs {
		vs := spec.(*ast.ValueSpec)
		if len(vs.Values) > 0 {
			typ, values = "", vs.Values
			if id, ok := vs.Type.(*ast.Ident); ok {
				typ = id.Name
			}
		}
		if typ == "" {
			continue
		}

		for j, name := range vs.Names {
			if name.Name == "_" || j >= len(values) {
				continue
			}
			v, ok := constValue(values[j], typ, int64(i))
			if !ok {
				continue
			}
			sc.cases[typ] = append(sc.cases[typ], Case{Name: name.Name, Value: v})
		}
	}
}

func constValue(expr ast.Expr, typ string, iota int64) (any, bool) {
	if call, ok := expr.(*ast.CallExpr); ok && len(call.Args) == 1 {
		if id, ok := call.Fun.(*ast.Ident); ok && id.Name == typ {
			expr = call.Args[0]
		}
	}

	if lit, ok := expr.(*ast.BasicLit); ok && lit.Kind == token.STRING {
		s, err := strconv.Unquote(lit.Value)
		if err != nil {
			return nil, false
		}
		return s, true
	}

	n, ok := evalInt(expr, iota)
	if !ok {
		return nil, false
	}
	return n, true
}

func evalInt(expr ast.Expr, iota int64) (int64, bool) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.INT {
			return 0, false
		}
		n, err := strconv.ParseInt(strings.ReplaceAll(e.Value, "_", ""), 0, 64)
		return n, err == nil
	case *ast.Ident:
		if e.Name == "iota" {
			return iota, true
		}
	case *ast.ParenExpr:
		return evalInt(e.X, iota)
	case *ast.UnaryExpr:
		x, ok := evalInt(e.X, iota)
		if ok && e.Op == token.SUB {
			return -x, true
		}
		return x, ok && e.Op == token.ADD
	case *ast.BinaryExpr:
		x, okx := evalInt(e.X, iota)
		y, oky := evalInt(e.Y, iota)
		if !okx || !oky {
			return 0, false
		}
		switch e.Op {
		case token.ADD:
			return x + y, true
		case token.SUB:
			return x - y, true
		case token.MUL:
			return x * y, true
		case token.SHL:
			return x << uint64(y), true
		}
	}
	return 0, false
}

func (sc *scan) hasMethod(typ, method string) bool {
	_, ok := sc.methods[typ][method]
	return ok
}

func (sc *scan) classify(name string) (Kind, bool) {
	decl := sc.decls[name]
	if _, ok := decl.spec.Type.(*ast.StructType); ok {
		return KindObject, true
	}

	if id, ok := decl.spec.Type.(*ast.Ident); ok {
		if _, basic := goBasicTypes[id.Name]; basic {
			if len(sc.cases[name]) > 0 {
				return KindEnum, true
			}
			if id.Name == "string" && sc.hasMethod(name, "String") {
				return KindStringable, true
			}
		}
	}

	if sc.hasMethod(name, "MarshalJSON") && sc.shape(name) != nil {
		return KindObject, true
	}
	return "", false
}

func (sc *scan) build(name string, kind Kind) *Type {
	decl := sc.decls[name]
	desc, deprecated := docText(decl.doc)

	t := &Type{
		Name:        sc.qualify(name),
		Kind:        kind,
		Description: desc,
		Deprecated:  deprecated,
	}

	for _, d := range directives(decl.doc) {
		if d.name == "request" {
			t.Role = RoleRequest
		}
	}

	switch kind {
	case KindEnum:
		t.Cases = sc.cases[name]
	case KindObject:
		if st, ok := decl.spec.Type.(*ast.StructType); ok {
			t.Members = sc.members(st, map[string]bool{name: true})
		}
		if sc.hasMethod(name, "MarshalJSON") {
			t.Serializable = true
			t.Shape = sc.shape(name)
		}
	}

	return t
}

func (sc *scan) members(st *ast.StructType, seen map[string]bool) []Member {
	var out []Member

	for _, field := range st.Fields.List {
		tag := fieldTag(field)

		if len(field.Names) == 0 {
			embedded := embeddedName(field.Type)
			if embedded == "" {
				continue
			}
			if _, named := tag.Lookup("json"); !named && !seen[embedded] {
				if decl, ok := sc.decls[embedded]; ok {
					if inner, ok := decl.spec.Type.(*ast.StructType); ok {
						seen[embedded] = true
						out = append(out, sc.members(inner, seen)...)
						delete(seen, embedded)
						continue
					}
				}
			}
			if !ast.IsExported(embedded) {
				continue
			}
			if m, ok := sc.member(embedded, field, tag); ok {
				out = append(out, m)
			}
			continue
		}

		for _, n := range field.Names {
			if !n.IsExported() {
				continue
			}
			if m, ok := sc.member(n.Name, field, tag); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func (sc *scan) member(name string, field *ast.Field, tag reflect.StructTag) (Member, bool) {
	typ := sc.typeExpr(field.Type, map[string]bool{})
	if typ == "" {
		return Member{}, false
	}

	m := Member{Name: name, Type: typ}

	if jsonTag, ok := tag.Lookup("json"); ok {
		parts := strings.Split(jsonTag, ",")
		switch parts[0] {
		case "-":
			if len(parts) == 1 {
				m.Hidden = true
			}
		case "", name:
		default:
			m.Alias = parts[0]
		}
		for _, opt := range parts[1:] {
			if opt == "string" {
				m.Type = "string"
			}
		}
	}

	if col, ok := tag.Lookup("db"); ok && col != "-" && col != "" {
		m.Column = strings.Split(col, ",")[0]
	}

	if oa, ok := tag.Lookup("openapi"); ok {
		if oa == "-" {
			m.Hidden = true
		} else {
			m.Tag = oa
		}
	}

	doc := field.Doc
	if doc == nil {
		doc = field.Comment
	}
	m.Description, _ = docText(doc)

	return m, true
}

func fieldTag(field *ast.Field) reflect.StructTag {
	if field.Tag == nil {
		return ""
	}
	raw, err := strconv.Unquote(field.Tag.Value)
	if err != nil {
		return ""
	}
	return reflect.StructTag(raw)
}

func embeddedName(expr ast.Expr) string {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return t.Sel.Name
	}
	return ""
}

// typeExpr renders a Go type as a type expression. An empty result means
// the type has no JSON form.
func (sc *scan) typeExpr(expr ast.Expr, visiting map[string]bool) string {
	switch t := expr.(type) {
	case *ast.Ident:
		if _, ok := sc.kinds[t.Name]; ok {
			return sc.qualify(t.Name)
		}
		if decl, ok := sc.decls[t.Name]; ok && !visiting[t.Name] {
			visiting[t.Name] = true
			defer delete(visiting, t.Name)
			return sc.typeExpr(decl.spec.Type, visiting)
		}
		if basic, ok := goBasicTypes[t.Name]; ok {
			return basic
		}
		return "mixed"

	case *ast.StarExpr:
		inner := sc.typeExpr(t.X, visiting)
		if inner == "" || strings.HasSuffix(inner, "|null") {
			return inner
		}
		return inner + "|null"

	case *ast.ArrayType:
		if id, ok := t.Elt.(*ast.Ident); ok && (id.Name == "byte" || id.Name == "uint8") {
			return "string"
		}
		elem := sc.typeExpr(t.Elt, visiting)
		if elem == "" {
			return ""
		}
		if strings.Contains(elem, "|") {
			return "(" + elem + ")[]"
		}
		return elem + "[]"

	case *ast.MapType:
		elem := sc.typeExpr(t.Value, visiting)
		if elem == "" {
			return ""
		}
		key := "string"
		if k := sc.typeExpr(t.Key, visiting); k == "int" || k == "int64" {
			key = "int"
		}
		return "map<" + key + ", " + elem + ">"

	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			name := pkg.Name + "." + t.Sel.Name
			if mapped, ok := goSelectorTypes[name]; ok {
				return mapped
			}
			return name
		}

	case *ast.InterfaceType, *ast.StructType, *ast.IndexExpr, *ast.IndexListExpr:
		return "mixed"
	}
	return ""
}

type directive struct {
	name string
	args []string
}

// directives returns the //openapi:<name> lines of a doc comment.
func directives(doc *ast.CommentGroup) []directive {
	if doc == nil {
		return nil
	}

	var out []directive
	for _, c := range doc.List {
		text, ok := strings.CutPrefix(c.Text, "//"+directivePrefix)
		if !ok {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		out = append(out, directive{name: fields[0], args: fields[1:]})
	}
	return out
}

// shape collects //openapi:shape lines from the type doc and the
// MarshalJSON doc. A bare //openapi:shape documents an untyped object.
func (sc *scan) shape(name string) []ShapeEntry {
	var docs []*ast.CommentGroup
	if decl, ok := sc.decls[name]; ok {
		docs = append(docs, decl.doc)
	}
	if fn, ok := sc.methods[name]["MarshalJSON"]; ok {
		docs = append(docs, fn.Doc)
	}

	var out []ShapeEntry
	for _, doc := range docs {
		for _, d := range directives(doc) {
			if d.name != "shape" {
				continue
			}
			if out == nil {
				out = []ShapeEntry{}
			}
			if len(d.args) < 2 {
				continue
			}
			out = append(out, ShapeEntry{Key: d.args[0], Type: strings.Join(d.args[1:], " ")})
		}
	}
	return out
}

// docText returns the comment text without directives and the
// "Deprecated:" paragraph, and whether such a paragraph was present.
func docText(doc *ast.CommentGroup) (string, bool) {
	if doc == nil {
		return "", false
	}

	var (
		kept       []string
		deprecated bool
	)
	for _, para := range strings.Split(strings.TrimSpace(doc.Text()), "\n\n") {
		if strings.HasPrefix(para, "Deprecated:") {
			deprecated = true
			continue
		}
		kept = append(kept, strings.Join(strings.Fields(para), " "))
	}
	return strings.TrimSpace(strings.Join(kept, "\n\n")), deprecated
}
