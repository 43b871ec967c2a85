package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/openapi2client/internal/compiler"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// PlanConfig captures the options of the plan command.
type PlanConfig struct {
	Input       string
	Operation   string
	IncludeTags []string
	ExcludeTags []string
	Verbose     bool
}

var planRunner = runPlan

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the compiled request plans of a document as YAML",
		Example: strings.TrimSpace(`  openapi2client plan --input spec.yaml
  openapi2client plan --input spec.yaml --operation "GET /pets/{id}"`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &PlanConfig{}
			var err error
			if cfg.Input, err = cmd.Flags().GetString("input"); err != nil {
				return err
			}
			if cfg.Operation, err = cmd.Flags().GetString("operation"); err != nil {
				return err
			}
			if cfg.IncludeTags, err = cmd.Flags().GetStringSlice("include-tags"); err != nil {
				return err
			}
			if cfg.ExcludeTags, err = cmd.Flags().GetStringSlice("exclude-tags"); err != nil {
				return err
			}
			if cfg.Verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
				return err
			}
			cfg.Input = strings.TrimSpace(cfg.Input)
			if cfg.Input == "" {
				return newUsageError("plan: --input is required")
			}
			return planRunner(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("input", "", "Path or URL to the OpenAPI 3 document")
	cmd.Flags().String("operation", "", `Only print the plan matching an operationId, method name or "VERB /path"`)
	cmd.Flags().StringSlice("include-tags", nil, "Only include operations with these tags")
	cmd.Flags().StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	return cmd
}

func runPlan(ctx context.Context, cfg *PlanConfig, w io.Writer) error {
	src, err := compileSource(ctx, sourceOptions{
		Input:       cfg.Input,
		IncludeTags: sanitizeTags(cfg.IncludeTags),
		ExcludeTags: sanitizeTags(cfg.ExcludeTags),
	}, newLogger(os.Stderr, cfg.Verbose))
	if err != nil {
		return err
	}
	plans := src.plans
	if cfg.Operation != "" {
		p, err := findPlan(plans, cfg.Operation)
		if err != nil {
			return err
		}
		plans = []*compiler.Plan{p}
	}
	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, newPlanView(p))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(views); err != nil {
		return fmt.Errorf("encode plans: %w", err)
	}
	return enc.Close()
}

// findPlan matches an operationId, a method name or "VERB /path".
func findPlan(plans []*compiler.Plan, selector string) (*compiler.Plan, error) {
	selector = strings.TrimSpace(selector)
	for _, p := range plans {
		if p.OperationID == selector || strings.EqualFold(p.Name, selector) || strings.EqualFold(p.Verb+" "+p.PathTemplate, selector) {
			return p, nil
		}
	}
	return nil, newUsageError(fmt.Sprintf("no operation matches %q", selector))
}

// planView is the printable form of a plan. Descriptors can be recursive,
// so types are rendered through their String form.
type planView struct {
	Name        string        `yaml:"name"`
	Operation   string        `yaml:"operation"`
	OperationID string        `yaml:"operationId,omitempty"`
	Deprecated  bool          `yaml:"deprecated,omitempty"`
	Parameters  []paramView   `yaml:"parameters,omitempty"`
	Body        *bodyView     `yaml:"body,omitempty"`
	Response    *responseView `yaml:"response,omitempty"`
	Accept      string        `yaml:"accept"`
	Steps       []string      `yaml:"steps"`
}

type paramView struct {
	Name     string   `yaml:"name"`
	In       string   `yaml:"in"`
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required"`
	Explode  bool     `yaml:"explode,omitempty"`
	Default  []string `yaml:"default,omitempty"`
}

type bodyView struct {
	MediaType string `yaml:"mediaType"`
	Codec     string `yaml:"codec"`
	Type      string `yaml:"type"`
	Required  bool   `yaml:"required"`
}

type responseView struct {
	Status     string   `yaml:"status"`
	MediaTypes []string `yaml:"mediaTypes"`
	Codec      string   `yaml:"codec"`
	Type       string   `yaml:"type"`
}

func newPlanView(p *compiler.Plan) planView {
	v := planView{
		Name:        p.Name,
		Operation:   p.Verb + " " + p.PathTemplate,
		OperationID: p.OperationID,
		Deprecated:  p.Deprecated,
		Accept:      p.Accept.Mode.String(),
	}
	if p.Accept.Value != "" {
		v.Accept += " " + p.Accept.Value
	}
	for _, group := range [][]compiler.Parameter{p.PathParams, p.QueryParams, p.HeaderParams} {
		for _, param := range group {
			v.Parameters = append(v.Parameters, paramView{
				Name:     param.Name,
				In:       string(param.Location),
				Type:     param.Type.String(),
				Required: param.Required,
				Explode:  param.Explode,
				Default:  param.Default,
			})
		}
	}
	if b := p.Body; b != nil {
		v.Body = &bodyView{MediaType: b.MediaType, Codec: string(b.Codec), Type: b.Type.String(), Required: b.Required}
	}
	if r := p.Response; r != nil {
		v.Response = &responseView{Status: r.Status, MediaTypes: r.MediaTypes, Codec: string(r.Codec), Type: r.Type.String()}
	}
	for _, s := range p.Steps {
		v.Steps = append(v.Steps, describeStep(s))
	}
	return v
}

func describeStep(s compiler.Step) string {
	switch s.Kind {
	case compiler.StepURLTemplate, compiler.StepDispatch:
		return s.Kind.String() + " " + s.Value
	case compiler.StepPathParam, compiler.StepHeaderParam:
		return s.Kind.String() + " " + s.Param.Name
	case compiler.StepQueryParam:
		if s.Param.Type.IsArray() && !s.Param.Explode {
			return s.Kind.String() + " " + s.Param.Name + " (comma-joined)"
		}
		return s.Kind.String() + " " + s.Param.Name
	case compiler.StepFixedHeader:
		return s.Kind.String() + " " + s.Header + ": " + s.Value
	case compiler.StepAcceptParameter:
		return s.Kind.String() + " default " + s.Value
	case compiler.StepEncodeBody:
		if s.Body == nil {
			return s.Kind.String() + " (empty)"
		}
		return s.Kind.String() + " " + string(s.Body.Codec) + " " + s.Body.MediaType
	}
	return s.Kind.String()
}
