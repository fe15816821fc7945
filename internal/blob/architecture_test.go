package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyBlobPackageImportsInfra ensures the service, exporter and command
// line reach storage through blob.Store and never import a backend directly.
func TestOnlyBlobPackageImportsInfra(t *testing.T) {
	const (
		infraPrefix   = "platemap/internal/infra/blob"
		allowedPrefix = "platemap/internal/blob"
	)

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "platemap/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		if hasPathPrefix(pkg.PkgPath, allowedPrefix) || hasPathPrefix(pkg.PkgPath, infraPrefix) {
			continue
		}
		for importPath := range pkg.Imports {
			if hasPathPrefix(importPath, infraPrefix) {
				seen[pkg.PkgPath+": "+importPath] = struct{}{}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of infra blob package: %s", v)
		}
		t.Fatalf("found %d forbidden imports of infra blob packages", len(violations))
	}
}

func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func TestHasPathPrefix(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"platemap/internal/infra/blob", true},
		{"platemap/internal/infra/blob/s3", true},
		{"platemap/internal/infra/blobby", false},
		{"platemap/internal/core", false},
	}
	for _, c := range cases {
		if got := hasPathPrefix(c.path, "platemap/internal/infra/blob"); got != c.want {
			t.Fatalf("hasPathPrefix(%q)=%v want %v", c.path, got, c.want)
		}
	}
}
