package compiler

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/openapi2client/internal/naming"
	"github.com/mark3labs/openapi2client/internal/spec"
	"github.com/mark3labs/openapi2client/internal/typeinfo"
)

var supportedVerbs = map[string]bool{
	"GET": true, "HEAD": true, "PUT": true, "POST": true, "PATCH": true, "DELETE": true,
}

var bodyVerbs = map[string]bool{"PUT": true, "POST": true, "PATCH": true}

// Options configures compilation.
type Options struct {
	// Workers bounds parallel compilation; values below 1 mean one worker.
	Workers int
	// Logger receives debug notes about skipped document constructs.
	Logger *slog.Logger
}

// Compiler compiles operations against one document's resolver.
type Compiler struct {
	resolver *typeinfo.Resolver
	opts     Options
	logger   *slog.Logger
}

// New returns a Compiler sharing resolver across all operations.
func New(resolver *typeinfo.Resolver, opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Compiler{resolver: resolver, opts: opts, logger: logger}
}

// Compile builds the plan for one operation. Identical operations always
// compile to identical plans.
func (c *Compiler) Compile(op spec.Operation) (*Plan, error) {
	verb := strings.ToUpper(string(op.Method))
	if !supportedVerbs[verb] {
		return nil, &UnsupportedVerbError{Verb: verb, Path: op.Path}
	}
	name := naming.OperationName(verb, op.Path)

	params, err := ExtractParameters(c.resolver, op, name)
	if err != nil {
		return nil, err
	}
	body, err := ExtractBody(c.resolver, op, name)
	if err != nil {
		return nil, err
	}
	if body != nil && !bodyVerbs[verb] {
		c.logger.Debug("ignoring request body", "operation", op.ID())
		body = nil
	}
	resp, err := ResolveResponse(c.resolver, op, name)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Name:         name,
		Verb:         verb,
		PathTemplate: op.Path,
		OperationID:  op.OperationID,
		Summary:      op.Summary,
		Description:  op.Description,
		Deprecated:   op.Deprecated,
		Tags:         append([]string(nil), op.Tags...),
		PathParams:   params.Path,
		QueryParams:  params.Query,
		HeaderParams: params.Header,
		Body:         body,
		Response:     resp,
		Accept:       acceptPolicy(params.Header, resp),
	}
	plan.Steps = buildSteps(plan)
	return plan, nil
}

// acceptPolicy synthesizes Accept handling unless the operation declares it.
func acceptPolicy(headers []Parameter, resp *Response) AcceptPolicy {
	for _, h := range headers {
		if strings.EqualFold(h.Name, "Accept") {
			return AcceptPolicy{Mode: AcceptNone}
		}
	}
	switch {
	case resp == nil || len(resp.MediaTypes) == 0:
		return AcceptPolicy{Mode: AcceptNone}
	case resp.HasMultipleMediaTypes():
		return AcceptPolicy{Mode: AcceptParameter, Value: resp.PrimaryMediaType}
	default:
		return AcceptPolicy{Mode: AcceptFixed, Value: resp.PrimaryMediaType}
	}
}

func buildSteps(p *Plan) []Step {
	steps := []Step{{Kind: StepURLTemplate, Value: p.PathTemplate}}
	for i := range p.PathParams {
		steps = append(steps, Step{Kind: StepPathParam, Param: &p.PathParams[i]})
	}
	for i := range p.QueryParams {
		steps = append(steps, Step{Kind: StepQueryParam, Param: &p.QueryParams[i]})
	}
	for i := range p.HeaderParams {
		steps = append(steps, Step{Kind: StepHeaderParam, Param: &p.HeaderParams[i]})
	}
	switch p.Accept.Mode {
	case AcceptFixed:
		steps = append(steps, Step{Kind: StepFixedHeader, Header: "Accept", Value: p.Accept.Value})
	case AcceptParameter:
		steps = append(steps, Step{Kind: StepAcceptParameter, Header: "Accept", Value: p.Accept.Value})
	}
	steps = append(steps, Step{Kind: StepAdditionalHeaders})
	if bodyVerbs[p.Verb] {
		steps = append(steps, Step{Kind: StepEncodeBody, Body: p.Body})
	}
	return append(steps, Step{Kind: StepDispatch, Value: p.Verb})
}

// CompileAll compiles ops in order. Every reachable schema is first resolved
// on the calling goroutine so inline type names do not depend on scheduling;
// the per-operation plans are then built in parallel. The error reported is
// the one of the earliest failing operation.
func (c *Compiler) CompileAll(ctx context.Context, components []spec.NamedSchema, ops []spec.Operation) ([]*Plan, error) {
	if err := c.resolver.ResolveComponents(components); err != nil {
		return nil, err
	}
	for _, op := range ops {
		if err := c.warm(op); err != nil {
			return nil, err
		}
	}

	plans := make([]*Plan, len(ops))
	errs := make([]error, len(ops))
	g, _ := errgroup.WithContext(ctx)
	workers := c.opts.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i := range ops {
		i := i
		g.Go(func() error {
			plans[i], errs[i] = c.Compile(ops[i])
			return nil
		})
	}
	_ = g.Wait()
	for i, err := range errs {
		if err != nil {
			c.logger.Debug("compile failed", "operation", ops[i].ID(), "error", err)
			return nil, err
		}
	}
	c.logger.Debug("compiled operations", "count", len(plans), "workers", workers)
	return plans, nil
}

// warm resolves op's schemas in the same order and contexts Compile uses.
func (c *Compiler) warm(op spec.Operation) error {
	verb := strings.ToUpper(string(op.Method))
	if !supportedVerbs[verb] {
		return &UnsupportedVerbError{Verb: verb, Path: op.Path}
	}
	name := naming.OperationName(verb, op.Path)
	if _, err := ExtractParameters(c.resolver, op, name); err != nil {
		return err
	}
	if _, err := ExtractBody(c.resolver, op, name); err != nil {
		return err
	}
	_, err := ResolveResponse(c.resolver, op, name)
	return err
}
