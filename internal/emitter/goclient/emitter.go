// Package goclient renders compiled plans as a Go client package: model
// types, one client type per resource and a root Client.
package goclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/mark3labs/openapi2client/internal/naming"
	"github.com/mark3labs/openapi2client/internal/resource"
	"github.com/mark3labs/openapi2client/internal/spec"
	"github.com/mark3labs/openapi2client/internal/typeinfo"
)

// Options controls how the package is rendered and written.
type Options struct {
	OutDir      string // required; target directory of the package
	PackageName string // Go package name; defaults to "client"
	Force       bool   // overwrite a non-empty OutDir
	DryRun      bool   // plan only, write nothing
	Logger      *slog.Logger
}

// Input is everything the emitter renders. It makes no decisions of its
// own beyond naming and layout.
type Input struct {
	Info   spec.Info
	Groups []resource.Group
	Models []*typeinfo.Descriptor
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result lists the planned files in path order.
type Result struct {
	PackageName string
	Planned     []PlannedFile
}

// Emit renders the package and, unless DryRun is set, writes it to OutDir.
func Emit(ctx context.Context, in Input, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("goclient: OutDir is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pkg := sanitizePackageName(opts.PackageName)
	if pkg == "" {
		pkg = "client"
	}

	files, err := render(ctx, pkg, in)
	if err != nil {
		return nil, err
	}

	rels := make([]string, 0, len(files))
	for rel := range files {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := writeFiles(opts.OutDir, files, opts.Force); err != nil {
			return nil, err
		}
		logger.Debug("wrote package", "dir", opts.OutDir, "package", pkg, "files", len(files))
	}
	return &Result{PackageName: pkg, Planned: planned}, nil
}

// render produces the formatted source of every file, keyed by file name.
func render(ctx context.Context, pkg string, in Input) (map[string][]byte, error) {
	files := make(map[string][]byte)
	data := templateData{Package: pkg}
	for _, name := range staticFiles {
		src, err := renderStatic(name, data)
		if err != nil {
			return nil, fmt.Errorf("goclient: render %s: %w", name, err)
		}
		files[name] = src
	}
	if len(in.Models) > 0 {
		files["models.go"] = renderModels(pkg, in.Models)
	}
	files["client.go"] = renderClient(pkg, in.Info, in.Groups)
	for _, g := range in.Groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := files[g.FileName]; dup {
			return nil, fmt.Errorf("goclient: resource %q maps to existing file %s", g.Key, g.FileName)
		}
		files[g.FileName] = renderResource(pkg, g)
	}

	for name, src := range files {
		formatted, err := imports.Process(name, src, nil)
		if err != nil {
			return nil, fmt.Errorf("goclient: format %s: %w", name, err)
		}
		files[name] = formatted
	}
	return files, nil
}

// sanitizePackageName keeps letters, digits and underscores, lower-cased.
func sanitizePackageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeftFunc(b.String(), unicode.IsDigit)
	if out == "" {
		return ""
	}
	return naming.EscapeReserved(out)
}
