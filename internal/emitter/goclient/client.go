package goclient

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/mark3labs/openapi2client/internal/resource"
	"github.com/mark3labs/openapi2client/internal/spec"
)

// ReservedNames are the exported identifiers every generated package
// declares. Model names must avoid them.
var ReservedNames = []string{
	"ApiError", "ApiResponse", "AuthProvider", "AuthFunc", "BearerToken", "APIKeyHeader", "BasicAuth",
	"LoggingTransport", "Client", "NewClient", "Option", "WithHTTPClient", "WithAuth", "WithLogger",
	"DefaultBaseURL",
}

// renderClient emits the root Client that exposes one field per resource.
func renderClient(pkg string, info spec.Info, groups []resource.Group) []byte {
	var buf bytes.Buffer
	writeFileHeader(&buf, pkg)
	buf.WriteString("import (\n\t\"log/slog\"\n\t\"net/http\"\n)\n\n")

	if len(info.Servers) > 0 {
		buf.WriteString("// DefaultBaseURL is the first server declared by the API.\n")
		fmt.Fprintf(&buf, "const DefaultBaseURL = %s\n\n", strconv.Quote(info.Servers[0]))
	}

	lead := "Client is the API client."
	if info.Title != "" {
		lead = fmt.Sprintf("Client is the %s client.", info.Title)
		if info.Version != "" {
			lead = fmt.Sprintf("Client is the %s (version %s) client.", info.Title, info.Version)
		}
	}
	writeDoc(&buf, "", lead, info.Description)
	buf.WriteString("type Client struct {\n")
	for _, g := range groups {
		fmt.Fprintf(&buf, "\t%s *%s\n", g.Field, g.TypeName)
	}
	buf.WriteString("}\n\n")

	buf.WriteString(`type clientConfig struct {
	httpClient *http.Client
	auth       AuthProvider
	logger     *slog.Logger
}

// Option configures NewClient.
type Option func(*clientConfig)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = hc }
}

// WithAuth sets the credentials applied to every request.
func WithAuth(auth AuthProvider) Option {
	return func(c *clientConfig) { c.auth = auth }
}

// WithLogger logs every round trip through a LoggingTransport.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}

`)
	buf.WriteString("// NewClient returns a Client that sends requests to baseURL.\n")
	buf.WriteString("func NewClient(baseURL string, opts ...Option) *Client {\n")
	buf.WriteString(`	cfg := clientConfig{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger != nil {
		hc := *cfg.httpClient
		hc.Transport = &LoggingTransport{Base: hc.Transport, Logger: cfg.logger}
		cfg.httpClient = &hc
	}
	t := &transport{baseURL: baseURL, httpClient: cfg.httpClient, auth: cfg.auth}
`)
	if len(groups) == 0 {
		buf.WriteString("\t_ = t\n")
	}
	buf.WriteString("\treturn &Client{\n")
	for _, g := range groups {
		fmt.Fprintf(&buf, "\t\t%s: &%s{t: t},\n", g.Field, g.TypeName)
	}
	buf.WriteString("\t}\n}\n")
	return buf.Bytes()
}
