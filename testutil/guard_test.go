package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"platemap/internal/blob", true},
		{"internal/x", true},
		{"platemap/pkg/domain", false},
		{"github.com/spf13/viper", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestThirdPartyImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"fmt", false},
		{"encoding/csv", false},
		{"platemap/pkg/domain", false},
		{"gopkg.in/yaml.v3", true},
		{"github.com/aws/aws-sdk-go-v2/service/s3", true},
	}
	for _, c := range cases {
		if got := ThirdPartyImportForbidden(c.in); got != c.want {
			t.Fatalf("ThirdPartyImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestAnyOf(t *testing.T) {
	pred := AnyOf(InternalImportForbidden, CommandImportForbidden)
	if !pred("platemap/cmd/platemap") || !pred("platemap/internal/core") || pred("platemap/pkg/domain") {
		t.Fatalf("AnyOf combined predicates incorrectly")
	}
}

// TestAssertNoDirectImports exercises the success path by creating a tiny temp package with safe imports.
func TestAssertNoDirectImports(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	// test files are ignored
	test := []byte("package tmp\nimport _ \"platemap/internal/core\"\n")
	if err := os.WriteFile(filepath.Join(dir, "x_test.go"), test, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, InternalImportForbidden, "none")
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport (\n\t\"fmt\"\n\t\"platemap/internal/blob\"\n)\nvar _ = fmt.Sprint\nvar _ blob.Store\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	if len(viols) != 1 || !strings.HasPrefix(viols[0], "platemap/internal/blob") {
		t.Fatalf("unexpected violations %v", viols)
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), InternalImportForbidden); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, _ ...any) { r.msg = format }

func TestFailIfDirectViolations(t *testing.T) {
	r := &recordingFatal{}
	failIfDirectViolations(r, "reason", nil)
	if r.msg != "" {
		t.Fatalf("no violations should not fail")
	}
	failIfDirectViolations(r, "reason", []string{"x"})
	if r.msg == "" {
		t.Fatalf("violations should fail")
	}
}
