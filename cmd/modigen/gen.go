package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
)

// diImportPath is the runtime package every generated file uses.
const diImportPath = "github.com/sghaida/modi/di"

// renderDef is one registration line with its options pre-rendered, plus the
// data for the definition's typed accessor pair.
type renderDef struct {
	Name        string
	Accessor    string
	Call        string
	Type        string
	Ctor        string
	Options     string
	ResolveOpts string
}

type renderData struct {
	Package  string
	Module   string
	Builder  string
	SpecPath string
	SpecHash string
	Imports  string
	Defs     []renderDef
}

var moduleTpl = template.Must(template.New("module").Parse(`// Code generated by modigen; DO NOT EDIT.
// Spec: {{.SpecPath}}
// Spec-SHA256: {{.SpecHash}}

package {{.Package}}

{{.Imports}}
// {{.Builder}} assembles the {{printf "%q" .Module}} module from its catalog.
func {{.Builder}}() *di.Module {
	m := di.NewModule({{printf "%q" .Module}})
{{- range .Defs}}
	di.{{.Call}}[{{.Type}}](m, {{.Ctor}}{{.Options}})
{{- end}}
	return m
}
{{range .Defs}}
// Resolve{{.Accessor}} resolves the {{printf "%q" .Name}} definition through r.
func Resolve{{.Accessor}}(r di.Resolver) ({{.Type}}, error) {
	return di.Resolve[{{.Type}}](r{{.ResolveOpts}})
}

// Must{{.Accessor}} is Resolve{{.Accessor}}, panicking on error.
func Must{{.Accessor}}(r di.Resolver) {{.Type}} {
	return di.MustResolve[{{.Type}}](r{{.ResolveOpts}})
}
{{end}}`))

// generate is the whole pipeline: load, render, format, write.
func generate(specPath, outPath string) error {
	cat, raw, err := loadCatalog(specPath)
	if err != nil {
		return err
	}
	src, err := render(cat, filepath.ToSlash(specPath), sha256Hex(raw))
	if err != nil {
		return err
	}
	return writeFormatted(filepath.Clean(outPath), src)
}

func render(cat *Catalog, specPath, specHash string) ([]byte, error) {
	data := renderData{
		Package:  cat.Package,
		Module:   cat.Module,
		Builder:  cat.Builder,
		SpecPath: specPath,
		SpecHash: specHash,
		Imports:  importBlock(cat.Imports),
		Defs:     make([]renderDef, 0, len(cat.Definitions)),
	}
	for _, d := range cat.Definitions {
		data.Defs = append(data.Defs, renderDef{
			Name:        d.Name,
			Accessor:    exportName(identOnly(d.Name)),
			Call:        registerCall(d.Kind),
			Type:        d.Type,
			Ctor:        d.Constructor,
			Options:     renderOptions(d),
			ResolveOpts: resolveOptions(d),
		})
	}
	var out strings.Builder
	if err := moduleTpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("modigen: rendering: %w", err)
	}
	return []byte(out.String()), nil
}

func registerCall(kind string) string {
	switch kind {
	case kindFactory:
		return "Factory"
	case kindScoped:
		return "Scoped"
	default:
		return "Single"
	}
}

// renderOptions emits the definition options in a fixed order so regenerating
// an unchanged catalog yields an identical file.
func renderOptions(d Definition) string {
	var opts []string
	if d.Qualifier != "" {
		opts = append(opts, fmt.Sprintf("di.Named(%q)", d.Qualifier))
	}
	if d.Scope != "" {
		opts = append(opts, fmt.Sprintf("di.InScope(%q)", d.Scope))
	}
	if d.Eager {
		opts = append(opts, "di.Eager()")
	}
	for _, b := range d.Binds {
		opts = append(opts, fmt.Sprintf("di.As[%s]()", b))
	}
	if d.Override {
		opts = append(opts, "di.Override()")
	}
	if d.OnClose != "" {
		opts = append(opts, fmt.Sprintf("di.OnClose(%s)", d.OnClose))
	}
	if len(opts) == 0 {
		return ""
	}
	return ", " + strings.Join(opts, ", ")
}

// resolveOptions emits the options an accessor forwards to Resolve. Only the
// qualifier matters there; kind and scope are resolved by the container.
func resolveOptions(d Definition) string {
	if d.Qualifier == "" {
		return ""
	}
	return fmt.Sprintf(", di.Named(%q)", d.Qualifier)
}

func importBlock(imports []string) string {
	var b strings.Builder
	b.WriteString("import (\n")
	b.WriteString("\t" + strconv.Quote(diImportPath) + "\n")
	if len(imports) > 0 {
		b.WriteString("\n")
		for _, p := range imports {
			if p == diImportPath {
				continue
			}
			b.WriteString("\t" + strconv.Quote(p) + "\n")
		}
	}
	b.WriteString(")\n")
	return b.String()
}

// writeFormatted runs the source through gofmt before writing. On a format
// failure the raw output is still written so the problem can be inspected.
func writeFormatted(path string, src []byte) error {
	formatted, err := format.Source(src)
	if err != nil {
		_ = writeFileAtomic(path, src, 0o644)
		return fmt.Errorf("modigen: formatting output: %w", err)
	}
	return writeFileAtomic(path, formatted, 0o644)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// tempFile abstracts the temp file handle so write failures are testable.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation seams, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := createTempFile(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = chmodFile(tmpPath, perm); err != nil {
		return err
	}
	return renameFile(tmpPath, path)
}
