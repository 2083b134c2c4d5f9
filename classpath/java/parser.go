// Package java provides a source-backed class loader for Java compilation
// units, using tree-sitter to read class and method declarations.
package java

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/c360studio/testselect/classpath"
)

// CompilationUnit is the parsed form of one Java source file.
type CompilationUnit struct {
	// Path is the file path as given to the parser.
	Path string

	// Hash is a content hash for change detection.
	Hash string

	// Package is the declared package, "" for the default package.
	Package string

	// Imports are the imported names, wildcard imports without the ".*".
	Imports []string

	// Classes holds every named type declared in the file, enclosing
	// classes before the classes nested in them.
	Classes []classpath.ClassDef
}

// Parser extracts class definitions from Java source using tree-sitter.
// A tree-sitter parser is not reentrant; each call borrows one from a pool,
// so a Parser is safe for concurrent use.
type Parser struct {
	pool sync.Pool
}

// NewParser creates a new Java parser.
func NewParser() *Parser {
	return &Parser{
		pool: sync.Pool{
			New: func() any {
				p := sitter.NewParser()
				p.SetLanguage(java.GetLanguage())
				return p
			},
		},
	}
}

// ParseFile reads and parses a single Java file.
func (p *Parser) ParseFile(ctx context.Context, filePath string) (*CompilationUnit, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return p.Parse(ctx, filePath, content)
}

// Parse parses Java source held in memory. filePath is recorded on the
// resulting class definitions.
func (p *Parser) Parse(ctx context.Context, filePath string, content []byte) (*CompilationUnit, error) {
	sp := p.pool.Get().(*sitter.Parser)
	tree, err := sp.ParseCtx(ctx, nil, content)
	p.pool.Put(sp)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	w := &unitWalker{
		content:  content,
		path:     filePath,
		imports:  make(map[string]string),
		declared: make(map[string]bool),
	}

	unit := &CompilationUnit{
		Path:    filePath,
		Hash:    computeHash(content),
		Imports: make([]string, 0),
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_declaration":
			w.pkg = w.extractPackageName(child)
		case "import_declaration":
			if imp, ok := w.extractImport(child); ok {
				unit.Imports = append(unit.Imports, imp)
			}
		}
	}
	unit.Package = w.pkg

	// First pass records every declared name so member signatures can refer
	// to types declared later in the file.
	for i := 0; i < int(root.NamedChildCount()); i++ {
		w.collectDeclared(root.NamedChild(i), "")
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		w.walkType(root.NamedChild(i), "", nil)
	}
	unit.Classes = w.defs

	return unit, nil
}

// computeHash computes a short SHA256 hash of the given content.
func computeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8])
}

var typeDeclarationKinds = map[string]classpath.Kind{
	"class_declaration":           classpath.KindClass,
	"interface_declaration":       classpath.KindInterface,
	"enum_declaration":            classpath.KindEnum,
	"record_declaration":          classpath.KindRecord,
	"annotation_type_declaration": classpath.KindAnnotation,
}

// unitWalker holds per-file state while walking one syntax tree.
type unitWalker struct {
	content  []byte
	path     string
	pkg      string
	imports  map[string]string // simple name → binary name (single-type imports)
	declared map[string]bool   // binary names declared in this file
	defs     []classpath.ClassDef
}

func (w *unitWalker) text(n *sitter.Node) string {
	return string(w.content[n.StartByte():n.EndByte()])
}

// extractPackageName extracts the package name from a package declaration.
func (w *unitWalker) extractPackageName(node *sitter.Node) string {
	for j := 0; j < int(node.NamedChildCount()); j++ {
		pkgNode := node.NamedChild(j)
		if pkgNode.Type() == "scoped_identifier" || pkgNode.Type() == "identifier" {
			return stripSpace(w.text(pkgNode))
		}
	}
	return ""
}

// extractImport records a single-type import and returns the imported name.
func (w *unitWalker) extractImport(node *sitter.Node) (string, bool) {
	var name string
	wildcard, static := false, false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "scoped_identifier", "identifier":
			name = stripSpace(w.text(child))
		case "asterisk":
			wildcard = true
		case "static":
			static = true
		}
	}
	if name == "" {
		return "", false
	}

	// Wildcard and static imports cannot be resolved to a type without
	// consulting a loader; they are reported but not used for qualification.
	if !wildcard && !static {
		simple := name[strings.LastIndexByte(name, '.')+1:]
		w.imports[simple] = toBinaryName(name)
	}
	return name, true
}

func (w *unitWalker) binaryName(enclosing, simple string) string {
	switch {
	case enclosing != "":
		return enclosing + "$" + simple
	case w.pkg != "":
		return w.pkg + "." + simple
	default:
		return simple
	}
}

// collectDeclared records the binary names of node and every type nested in it.
func (w *unitWalker) collectDeclared(node *sitter.Node, enclosing string) {
	if _, ok := typeDeclarationKinds[node.Type()]; !ok {
		return
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	binary := w.binaryName(enclosing, w.text(nameNode))
	w.declared[binary] = true

	for _, member := range w.bodyMembers(node) {
		w.collectDeclared(member, binary)
	}
}

// bodyMembers returns the member declarations of a type body. Enum members
// sit one level deeper, after the constants.
func (w *unitWalker) bodyMembers(node *sitter.Node) []*sitter.Node {
	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	var members []*sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() == "enum_body_declarations" {
			for j := 0; j < int(child.NamedChildCount()); j++ {
				members = append(members, child.NamedChild(j))
			}
			continue
		}
		members = append(members, child)
	}
	return members
}

// walkType builds the definition of a type declaration and its nested types.
func (w *unitWalker) walkType(node *sitter.Node, enclosing string, outerVars map[string]string) {
	kind, ok := typeDeclarationKinds[node.Type()]
	if !ok {
		return
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	binary := w.binaryName(enclosing, w.text(nameNode))
	vars := w.typeVariables(node, binary, outerVars)

	def := classpath.ClassDef{
		Name:       binary,
		Kind:       kind,
		SourcePath: w.path,
	}

	var nested []*sitter.Node
	for _, member := range w.bodyMembers(node) {
		switch member.Type() {
		case "method_declaration":
			if m, ok := w.extractMethod(member, binary, vars); ok {
				def.Methods = append(def.Methods, m)
			}
		case "annotation_type_element_declaration":
			if n := member.ChildByFieldName("name"); n != nil {
				def.Methods = append(def.Methods, classpath.MethodDef{Name: w.text(n)})
			}
		default:
			if _, isType := typeDeclarationKinds[member.Type()]; isType {
				nested = append(nested, member)
			}
		}
	}

	w.defs = append(w.defs, def)
	for _, n := range nested {
		w.walkType(n, binary, vars)
	}
}

// extractMethod reads a method name and its qualified parameter types.
func (w *unitWalker) extractMethod(node *sitter.Node, owner string, classVars map[string]string) (classpath.MethodDef, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return classpath.MethodDef{}, false
	}

	vars := w.typeVariables(node, owner, classVars)
	md := classpath.MethodDef{
		Name:           w.text(nameNode),
		ParameterTypes: make([]string, 0),
	}

	params := node.ChildByFieldName("parameters")
	if params == nil {
		return md, true
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case "formal_parameter":
			typeNode := child.ChildByFieldName("type")
			if typeNode == nil {
				continue
			}
			name := w.typeName(typeNode, owner, vars)
			// C-style array declarators: "int values[]"
			if dims := child.ChildByFieldName("dimensions"); dims != nil {
				name += strings.Repeat("[]", strings.Count(w.text(dims), "["))
			}
			md.ParameterTypes = append(md.ParameterTypes, name)

		case "spread_parameter":
			if typeNode := spreadParameterType(child); typeNode != nil {
				md.ParameterTypes = append(md.ParameterTypes, w.typeName(typeNode, owner, vars)+"[]")
			}
		}
	}

	// Some legal forms, e.g. an annotation before "..." in a varargs
	// parameter, are not covered by the grammar and come back as error
	// nodes. Read the parameter list from source text instead.
	if text, ok := w.parameterListText(node, nameNode); ok {
		if node.HasError() || len(splitParameters(text)) != len(md.ParameterTypes) {
			md.ParameterTypes = w.textParameterTypes(text, owner, vars)
		}
	}
	return md, true
}

// parameterListText returns the text between the parentheses that follow
// the method name.
func (w *unitWalker) parameterListText(node, nameNode *sitter.Node) (string, bool) {
	src := string(w.content[nameNode.EndByte():node.EndByte()])
	open := strings.IndexByte(src, '(')
	if open < 0 {
		return "", false
	}
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return src[open+1 : i], true
			}
		}
	}
	return "", false
}

// textParameterTypes qualifies the parameter types of a parameter list
// read from source text. Receiver parameters are skipped.
func (w *unitWalker) textParameterTypes(text, owner string, vars map[string]string) []string {
	out := make([]string, 0)
	for _, param := range splitParameters(text) {
		base, dims, ok := parameterType(param)
		if !ok {
			continue
		}
		out = append(out, w.qualify(base, owner, vars)+strings.Repeat("[]", dims))
	}
	return out
}

// splitParameters splits a parameter list on commas outside of type
// arguments and annotation arguments.
func splitParameters(text string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, text[start:])

	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// parameterType extracts the erased element type and array dimensions from
// one parameter declaration. Varargs count as one dimension.
func parameterType(param string) (base string, dims int, ok bool) {
	s := eraseTypeArguments(stripAnnotations(param))
	if strings.Contains(s, "...") {
		dims++
		s = strings.Replace(s, "...", " ", 1)
	}
	dims += strings.Count(s, "[")
	s = strings.NewReplacer("[", " ", "]", " ").Replace(s)

	var tokens []string
	for _, tok := range strings.Fields(s) {
		if tok != "final" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) < 2 {
		return "", 0, false
	}
	name := tokens[len(tokens)-1]
	if name == "this" || strings.HasSuffix(name, ".this") {
		return "", 0, false
	}
	return tokens[len(tokens)-2], dims, true
}

// stripAnnotations blanks out annotations, including their arguments.
func stripAnnotations(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '@' {
			b.WriteByte(s[i])
			i++
			continue
		}
		i++
		for i < len(s) && (isIdentByte(s[i]) || s[i] == '.') {
			i++
		}
		j := i
		for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
			j++
		}
		if j < len(s) && s[j] == '(' {
			i = j
			depth := 0
			for ; i < len(s); i++ {
				if s[i] == '(' {
					depth++
				} else if s[i] == ')' {
					depth--
					if depth == 0 {
						i++
						break
					}
				}
			}
		}
		b.WriteByte(' ')
	}
	return b.String()
}

func eraseTypeArguments(s string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '<':
			depth++
		case s[i] == '>':
			depth--
		case depth == 0:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// spreadParameterType finds the element type of a varargs parameter; the
// grammar does not expose it as a field.
func spreadParameterType(node *sitter.Node) *sitter.Node {
	if t := node.ChildByFieldName("type"); t != nil {
		return t
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "modifiers", "variable_declarator", "marker_annotation", "annotation":
			continue
		}
		return child
	}
	return nil
}

// typeVariables returns outer extended with the type parameters declared on
// node, each mapped to its erasure.
func (w *unitWalker) typeVariables(node *sitter.Node, owner string, outer map[string]string) map[string]string {
	var typeParams *sitter.Node
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		typeParams = tp
	} else {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child.Type() == "type_parameters" {
				typeParams = child
				break
			}
		}
	}
	if typeParams == nil {
		return outer
	}

	vars := make(map[string]string, len(outer)+int(typeParams.NamedChildCount()))
	for k, v := range outer {
		vars[k] = v
	}
	for i := 0; i < int(typeParams.NamedChildCount()); i++ {
		param := typeParams.NamedChild(i)
		if param.Type() != "type_parameter" {
			continue
		}

		var name string
		erasure := "java.lang.Object"
		for j := 0; j < int(param.NamedChildCount()); j++ {
			child := param.NamedChild(j)
			switch child.Type() {
			case "type_identifier", "identifier":
				if name == "" {
					name = w.text(child)
				}
			case "type_bound":
				if child.NamedChildCount() > 0 {
					erasure = w.typeName(child.NamedChild(0), owner, vars)
				}
			}
		}
		if name != "" {
			vars[name] = erasure
		}
	}
	return vars
}

// typeName renders a type node as an erased, qualified name.
func (w *unitWalker) typeName(node *sitter.Node, owner string, vars map[string]string) string {
	switch node.Type() {
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		return w.text(node)

	case "type_identifier":
		return w.qualify(w.text(node), owner, vars)

	case "scoped_type_identifier":
		return w.qualify(stripSpace(w.text(node)), owner, vars)

	case "generic_type":
		// Erase type arguments
		if base := node.ChildByFieldName("type"); base != nil {
			return w.typeName(base, owner, vars)
		}
		if node.NamedChildCount() > 0 {
			return w.typeName(node.NamedChild(0), owner, vars)
		}

	case "array_type":
		elem := node.ChildByFieldName("element")
		if elem == nil {
			break
		}
		dims := 1
		if d := node.ChildByFieldName("dimensions"); d != nil {
			dims = strings.Count(w.text(d), "[")
		}
		return w.typeName(elem, owner, vars) + strings.Repeat("[]", dims)

	case "annotated_type":
		// Annotations precede the type; the type is the last named child
		if n := node.NamedChildCount(); n > 0 {
			return w.typeName(node.NamedChild(int(n)-1), owner, vars)
		}
	}

	return stripSpace(w.text(node))
}

var primitiveTypes = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "void": true,
}

// javaLangTypes are the java.lang types visible without an import.
var javaLangTypes = map[string]bool{
	"Object": true, "String": true, "Class": true, "Enum": true, "Record": true, "Void": true,
	"Boolean": true, "Byte": true, "Character": true, "Short": true,
	"Integer": true, "Long": true, "Float": true, "Double": true, "Number": true,
	"CharSequence": true, "Comparable": true, "Cloneable": true, "Iterable": true,
	"Runnable": true, "Thread": true, "ThreadLocal": true, "StringBuilder": true, "StringBuffer": true,
	"Math": true, "System": true, "AutoCloseable": true, "Override": true, "Deprecated": true,
	"Throwable": true, "Exception": true, "RuntimeException": true, "Error": true,
	"IllegalArgumentException": true, "IllegalStateException": true,
}

// qualify resolves a source-level type name the way the compiler would
// see it from inside owner: type variables, member types of owner and its
// enclosing types, types of this file, single-type imports, java.lang, then
// the current package.
func (w *unitWalker) qualify(name, owner string, vars map[string]string) string {
	if primitiveTypes[name] {
		return name
	}

	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		head, rest := name[:dot], name[dot+1:]
		if startsUpper(head) {
			return w.qualify(head, owner, vars) + "$" + strings.ReplaceAll(rest, ".", "$")
		}
		return toBinaryName(name)
	}

	if erasure, ok := vars[name]; ok {
		return erasure
	}

	for scope := owner; scope != ""; scope = enclosingOf(scope) {
		if candidate := scope + "$" + name; w.declared[candidate] {
			return candidate
		}
		if simpleOf(scope) == name {
			return scope
		}
	}

	if top := w.binaryName("", name); w.declared[top] {
		return top
	}
	if imported, ok := w.imports[name]; ok {
		return imported
	}
	if javaLangTypes[name] {
		return "java.lang." + name
	}
	return w.binaryName("", name)
}

// toBinaryName converts a canonical name ("java.util.Map.Entry") into a
// binary name ("java.util.Map$Entry"), treating the first capitalized
// segment as the top-level class.
func toBinaryName(canonical string) string {
	parts := strings.Split(canonical, ".")
	for i, part := range parts {
		if startsUpper(part) {
			if i == len(parts)-1 {
				return canonical
			}
			return strings.Join(parts[:i+1], ".") + "$" + strings.Join(parts[i+1:], "$")
		}
	}
	return canonical
}

func enclosingOf(binary string) string {
	if i := strings.LastIndexByte(binary, '$'); i >= 0 {
		return binary[:i]
	}
	return ""
}

func simpleOf(binary string) string {
	if i := strings.LastIndexAny(binary, ".$"); i >= 0 {
		return binary[i+1:]
	}
	return binary
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
