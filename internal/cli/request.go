package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httputil"
	"os"
	"strings"

	"github.com/mark3labs/openapi2client/internal/compiler"
	"github.com/spf13/cobra"
)

// RequestConfig captures the options of the request command.
type RequestConfig struct {
	Input     string
	Operation string
	BaseURL   string
	Args      []string // name=value
	Headers   []string // name=value
	Accept    string
	Body      string // JSON, or @path to a JSON file
	Verbose   bool
}

var requestRunner = runRequest

func newRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Print the HTTP request one operation would send",
		Long: "Evaluate the compiled plan of one operation against concrete arguments and " +
			"print the resulting HTTP request without sending it.",
		Example: strings.TrimSpace(`  openapi2client request --input spec.yaml --operation "GET /pets" --arg tags=a,b --arg limit=5
  openapi2client request --input spec.yaml --operation createPet --body '{"name":"rex"}'`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &RequestConfig{}
			flags := cmd.Flags()
			var err error
			for name, dst := range map[string]*string{
				"input": &cfg.Input, "operation": &cfg.Operation, "base-url": &cfg.BaseURL,
				"accept": &cfg.Accept, "body": &cfg.Body,
			} {
				if *dst, err = flags.GetString(name); err != nil {
					return err
				}
			}
			if cfg.Args, err = flags.GetStringArray("arg"); err != nil {
				return err
			}
			if cfg.Headers, err = flags.GetStringArray("header"); err != nil {
				return err
			}
			if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Input) == "" || strings.TrimSpace(cfg.Operation) == "" {
				return newUsageError("request: --input and --operation are required")
			}
			return requestRunner(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the OpenAPI 3 document")
	flags.String("operation", "", `Operation to evaluate: operationId, method name or "VERB /path"`)
	flags.String("base-url", "", "Base URL (defaults to the first server of the document)")
	flags.StringArray("arg", nil, "Parameter value as name=value; arrays take comma-separated values")
	flags.StringArray("header", nil, "Additional header as name=value")
	flags.String("accept", "", "Accept header for operations with several response media types")
	flags.String("body", "", "Request body as JSON, or @file")
	return cmd
}

func runRequest(ctx context.Context, cfg *RequestConfig, w io.Writer) error {
	src, err := compileSource(ctx, sourceOptions{Input: strings.TrimSpace(cfg.Input)}, newLogger(os.Stderr, cfg.Verbose))
	if err != nil {
		return err
	}
	plan, err := findPlan(src.plans, cfg.Operation)
	if err != nil {
		return err
	}

	args := compiler.Args{Values: map[string]any{}, Headers: map[string]string{}, Accept: strings.TrimSpace(cfg.Accept)}
	arrays := map[string]bool{}
	for _, group := range [][]compiler.Parameter{plan.PathParams, plan.QueryParams, plan.HeaderParams} {
		for _, p := range group {
			arrays[p.Name] = p.Type.IsArray()
		}
	}
	for _, kv := range cfg.Args {
		name, value, err := splitPair("arg", kv)
		if err != nil {
			return err
		}
		if arrays[name] {
			args.Values[name] = splitAndTrim(value)
			continue
		}
		args.Values[name] = value
	}
	for _, kv := range cfg.Headers {
		name, value, err := splitPair("header", kv)
		if err != nil {
			return err
		}
		args.Headers[name] = value
	}
	if body := strings.TrimSpace(cfg.Body); body != "" {
		if args.Body, err = readBody(body); err != nil {
			return err
		}
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		if servers := src.doc.Info().Servers; len(servers) > 0 {
			baseURL = servers[0]
		} else {
			baseURL = "http://localhost"
		}
	}
	req, err := compiler.Evaluate(plan, baseURL, args)
	if err != nil {
		return newUsageError(fmt.Sprintf("request: %v", err))
	}
	req = req.WithContext(ctx)
	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return fmt.Errorf("dump request: %w", err)
	}
	_, err = w.Write(dump)
	return err
}

func splitPair(flag, kv string) (string, string, error) {
	name, value, ok := strings.Cut(kv, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", newUsageError(fmt.Sprintf("request: --%s %q must look like name=value", flag, kv))
	}
	return name, value, nil
}

func readBody(raw string) (any, error) {
	data := []byte(raw)
	if path, ok := strings.CutPrefix(raw, "@"); ok {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, newUsageError(fmt.Sprintf("request: read body: %v", err))
		}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		// Non-JSON bodies are sent as text.
		return string(data), nil
	}
	return v, nil
}
