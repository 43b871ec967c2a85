package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/openapi2client/internal/compiler"
	"github.com/mark3labs/openapi2client/internal/emitter/goclient"
	"github.com/mark3labs/openapi2client/internal/spec"
	"github.com/mark3labs/openapi2client/internal/typeinfo"
)

// sourceOptions select and compile the operations of one document.
type sourceOptions struct {
	Input       string
	IncludeTags []string
	ExcludeTags []string
	Workers     int
}

type compiled struct {
	doc      *spec.Document
	resolver *typeinfo.Resolver
	plans    []*compiler.Plan
}

// compileSource loads the document and compiles every selected operation.
// Nothing is returned unless every operation compiles.
func compileSource(ctx context.Context, opts sourceOptions, logger *slog.Logger) (*compiled, error) {
	doc, err := spec.Load(ctx, opts.Input, spec.WithLogger(logger))
	if err != nil {
		return nil, friendlyError(err)
	}
	ops, err := doc.Operations(spec.WithIncludeTags(opts.IncludeTags), spec.WithExcludeTags(opts.ExcludeTags))
	if err != nil {
		return nil, fmt.Errorf("collect operations: %w", err)
	}
	components := doc.ComponentSchemas()
	resolver := typeinfo.NewResolver(components, goclient.ReservedNames...)
	resolver.UsePropertyOrder(doc.PropertyOrder())
	c := compiler.New(resolver, compiler.Options{Workers: opts.Workers, Logger: logger})
	plans, err := c.CompileAll(ctx, components, ops)
	if err != nil {
		return nil, friendlyError(err)
	}
	logger.Debug("compiled document", "input", opts.Input, "operations", len(plans), "models", len(resolver.Named()))
	return &compiled{doc: doc, resolver: resolver, plans: plans}, nil
}

// friendlyError maps the structured errors of the pipeline to usage errors.
func friendlyError(err error) error {
	var se *spec.SpecError
	if errors.As(err, &se) {
		msg := fmt.Sprintf("spec: %s", se.Message)
		if se.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
		}
		if se.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
		}
		return newUsageError(msg)
	}
	var re *typeinfo.SchemaResolutionError
	if errors.As(err, &re) {
		return newUsageError(fmt.Sprintf("schema: %v\nNothing was written.", re))
	}
	var ve *compiler.UnsupportedVerbError
	if errors.As(err, &ve) {
		return newUsageError(fmt.Sprintf("operation: %v\nNothing was written.", ve))
	}
	return err
}
