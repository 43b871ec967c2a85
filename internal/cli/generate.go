package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/mark3labs/openapi2client/internal/emitter/goclient"
	"github.com/mark3labs/openapi2client/internal/resource"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input       string
	Out         string
	PackageName string
	GroupBy     string
	IncludeTags []string
	ExcludeTags []string
	Workers     int
	ConfigPath  string
	DryRun      bool
	Force       bool
	Verbose     bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{GroupBy: string(resource.ByPath), Workers: 4}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Go client package from an OpenAPI 3 document",
		Long: "Generate a Go client package from an OpenAPI 3 document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  openapi2client generate --input spec.yaml --out ./petstore
  openapi2client --config config.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the OpenAPI 3 document")
	flags.String("out", "", "Output directory (derived from the package name when omitted)")
	flags.String("package-name", "", "Go package name of the generated client (derived from the title when omitted)")
	flags.String("group-by", "", "Resource grouping: path (first path segment) or tag (first tag)")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.Int("workers", 0, "Operations compiled in parallel")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"input", &cfg.Input},
		{"out", &cfg.Out},
		{"package-name", &cfg.PackageName},
		{"group-by", &cfg.GroupBy},
	}
	for _, s := range strs {
		if !flags.Changed(s.name) {
			continue
		}
		value, err := flags.GetString(s.name)
		if err != nil {
			return err
		}
		*s.dst = strings.TrimSpace(value)
	}
	if flags.Changed("include-tags") {
		value, err := flags.GetStringSlice("include-tags")
		if err != nil {
			return err
		}
		cfg.IncludeTags = sanitizeTags(value)
	}
	if flags.Changed("exclude-tags") {
		value, err := flags.GetStringSlice("exclude-tags")
		if err != nil {
			return err
		}
		cfg.ExcludeTags = sanitizeTags(value)
	}
	if flags.Changed("workers") {
		value, err := flags.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = value
	}
	bools := []struct {
		name string
		dst  *bool
	}{
		{"dry-run", &cfg.DryRun},
		{"force", &cfg.Force},
		{"verbose", &cfg.Verbose},
	}
	for _, b := range bools {
		if !flags.Changed(b.name) {
			continue
		}
		value, err := flags.GetBool(b.name)
		if err != nil {
			return err
		}
		*b.dst = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.PackageName = strings.TrimSpace(c.PackageName)
	c.GroupBy = strings.ToLower(strings.TrimSpace(c.GroupBy))
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if _, err := resource.ParseGroupBy(c.GroupBy); err != nil {
		return newUsageError(fmt.Sprintf("generate: --group-by: %v", err))
	}
	if c.Workers < 0 {
		return newUsageError(fmt.Sprintf("generate: --workers must not be negative, got %d", c.Workers))
	}
	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	logger := newLogger(os.Stderr, cfg.Verbose)

	// 1) Load and compile; nothing is written unless every operation compiles.
	src, err := compileSource(ctx, sourceOptions{
		Input:       cfg.Input,
		IncludeTags: cfg.IncludeTags,
		ExcludeTags: cfg.ExcludeTags,
		Workers:     cfg.Workers,
	}, logger)
	if err != nil {
		return err
	}

	// 2) Derive names and group plans into resources.
	info := src.doc.Info()
	pkg := strings.TrimSpace(cfg.PackageName)
	if pkg == "" {
		pkg = derivePackageName(info.Title)
	}
	outDir := cfg.Out
	if outDir == "" {
		outDir = pkg
	}
	absOut := outDir
	if ap, err := filepath.Abs(outDir); err == nil {
		absOut = ap
	}
	groupBy, _ := resource.ParseGroupBy(cfg.GroupBy)
	groups := resource.GroupPlans(src.plans, groupBy)
	logger.Debug("grouped operations", "resources", len(groups), "groupBy", groupBy)

	// 3) Emit.
	res, err := goclient.Emit(ctx, goclient.Input{
		Info:   info,
		Groups: groups,
		Models: src.resolver.Named(),
	}, goclient.Options{
		OutDir:      outDir,
		PackageName: pkg,
		Force:       cfg.Force,
		DryRun:      cfg.DryRun,
		Logger:      logger,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	if cfg.DryRun {
		paths := make([]string, 0, len(res.Planned))
		for _, p := range res.Planned {
			paths = append(paths, p.RelPath)
		}
		printPlan(os.Stdout, absOut, paths)
		return nil
	}
	logger.Info("generated client", "package", res.PackageName, "dir", absOut, "files", len(res.Planned))
	return nil
}

func printPlan(w io.Writer, outDir string, relPaths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, len(relPaths))
	for _, p := range relPaths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

// derivePackageName turns a document title into a Go package name:
// "Pet Store API" becomes "petstoreapi".
func derivePackageName(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	name := strings.TrimLeftFunc(b.String(), unicode.IsDigit)
	if name == "" {
		return "client"
	}
	return name
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	raw, err := readConfigFile(path)
	if err != nil {
		return err
	}

	for key, value := range raw {
		switch normalizeKey(key) {
		case "input", "out", "packagename", "groupby":
			str, err := valueAsString(value)
			if err != nil {
				return fieldError(key, err)
			}
			switch normalizeKey(key) {
			case "input":
				cfg.Input = str
			case "out":
				cfg.Out = str
			case "packagename":
				cfg.PackageName = str
			case "groupby":
				cfg.GroupBy = str
			}
		case "includetags":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return fieldError(key, err)
			}
			cfg.IncludeTags = sanitizeTags(list)
		case "excludetags":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return fieldError(key, err)
			}
			cfg.ExcludeTags = sanitizeTags(list)
		case "workers":
			n, err := valueAsInt(value)
			if err != nil {
				return fieldError(key, err)
			}
			cfg.Workers = n
		case "dryrun":
			val, err := valueAsBool(value)
			if err != nil {
				return fieldError(key, err)
			}
			cfg.DryRun = val
		case "force":
			val, err := valueAsBool(value)
			if err != nil {
				return fieldError(key, err)
			}
			cfg.Force = val
		case "verbose":
			val, err := valueAsBool(value)
			if err != nil {
				return fieldError(key, err)
			}
			cfg.Verbose = val
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}

	return nil
}
