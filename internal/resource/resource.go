// Package resource groups compiled plans into resources, one generated
// client per resource.
package resource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/openapi2client/internal/compiler"
	"github.com/mark3labs/openapi2client/internal/naming"
)

// GroupBy selects how operations are assigned to resources.
type GroupBy string

const (
	// ByPath groups by the first literal path segment.
	ByPath GroupBy = "path"
	// ByTag groups by the first operation tag, falling back to the path.
	ByTag GroupBy = "tag"
)

// ParseGroupBy validates a user-supplied grouping mode. Empty means ByPath.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ByPath:
		return ByPath, nil
	case ByTag:
		return ByTag, nil
	}
	return "", fmt.Errorf("unknown grouping %q (want path or tag)", s)
}

// rootKey names the resource of operations on "/" or on a path made only
// of placeholders.
const rootKey = "root"

// Group is one resource and its plans in compilation order.
type Group struct {
	Key      string
	TypeName string // e.g. MyResourceClient
	Field    string // field on the root client, e.g. MyResource
	FileName string // e.g. my_resource_client.go
	Plans    []*compiler.Plan
}

// Key returns the resource key of p.
func Key(p *compiler.Plan, by GroupBy) string {
	if by == ByTag && len(p.Tags) > 0 {
		if k := naming.ToCodeName(p.Tags[0]); k != "" {
			return k
		}
	}
	for _, seg := range strings.Split(p.PathTemplate, "/") {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		if k := naming.ToCodeName(seg); k != "" {
			return k
		}
	}
	return rootKey
}

// GroupPlans partitions plans by resource. Groups are sorted by key and keep the
// plans' relative order.
func GroupPlans(plans []*compiler.Plan, by GroupBy) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, p := range plans {
		k := Key(p, by)
		i, ok := index[k]
		if !ok {
			field := naming.ToTypeName(k, "Root")
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{
				Key:      k,
				TypeName: field + "Client",
				Field:    field,
				FileName: naming.ToFileName(k) + "_client.go",
			})
		}
		groups[i].Plans = append(groups[i].Plans, p)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// MethodNames assigns each plan of g an exported method name. Colliding
// names get a numeric suffix in plan order.
func MethodNames(g Group) []string {
	used := make(map[string]bool, len(g.Plans))
	out := make([]string, len(g.Plans))
	for i, p := range g.Plans {
		base := naming.Export(p.Name)
		if base == "" {
			base = "Call"
		}
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s%d", base, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

