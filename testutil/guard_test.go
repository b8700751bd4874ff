package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWithin(t *testing.T) {
	pred := Within("internal/cli", "/internal/infra/")
	cases := map[string]bool{
		"vitalcore/internal/cli":                      true,
		"vitalcore/internal/cli/sub":                  true,
		"vitalcore/internal/client":                   false,
		"vitalcore/internal/infra/persistence/sqlite": true,
		"vitalcore/internal/core":                     false,
		"github.com/someone/vitalcore/internal/cli":   false,
	}
	for ip, want := range cases {
		if got := pred(ip); got != want {
			t.Errorf("Within(%q) = %v, want %v", ip, got, want)
		}
	}
}

func TestInternalAndThirdParty(t *testing.T) {
	if !Internal("vitalcore/internal/core") || !Internal("internal/x") {
		t.Fatalf("expected internal paths to match")
	}
	if Internal("vitalcore/pkg/domain") || Internal("vitalcore/internalized") {
		t.Fatalf("unexpected internal match")
	}
	if !ThirdParty("go.uber.org/zap") || !ThirdParty("gopkg.in/yaml.v3") {
		t.Fatalf("expected third-party match")
	}
	if ThirdParty("encoding/json") || ThirdParty("vitalcore/pkg/domain") {
		t.Fatalf("unexpected third-party match")
	}
	if !Any(Internal, ThirdParty)("github.com/google/uuid") || Any()("anything") {
		t.Fatalf("Any combined predicates incorrectly")
	}
}

func writeGo(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportsSkipsTests(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package p\n\nimport (\n\t\"strings\"\n\t\"vitalcore/internal/core\"\n)\n")
	writeGo(t, dir, "b.go", "package p\n\nimport \"strings\"\n")
	writeGo(t, dir, "a_test.go", "package p\n\nimport \"go.uber.org/zap\"\n")
	writeGo(t, dir, "notes.txt", "import \"nope\"")

	got, err := DirectImports(dir)
	if err != nil {
		t.Fatalf("DirectImports: %v", err)
	}
	if strings.Join(got, ",") != "strings,vitalcore/internal/core" {
		t.Fatalf("unexpected imports %v", got)
	}
	if _, err := DirectImports(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
	writeGo(t, dir, "broken.go", "package p\nimport (")
	if _, err := DirectImports(dir); err == nil {
		t.Fatalf("expected parse error")
	}
}

type recorder struct{ msg string }

func (r *recorder) Fatalf(format string, args ...any) {
	r.msg = format
	if len(args) > 0 {
		r.msg = args[len(args)-1].(string)
	}
}

func TestReportListsHits(t *testing.T) {
	var r recorder
	report(&r, "direct import", "reason", nil)
	if r.msg != "" {
		t.Fatalf("no hits must not fail")
	}
	report(&r, "direct import", "reason", []string{"a", "b"})
	if r.msg != "a\nb" {
		t.Fatalf("unexpected report %q", r.msg)
	}
}

func TestAssertNoTransitiveDependencyUsesGoList(t *testing.T) {
	orig := listDeps
	t.Cleanup(func() { listDeps = orig })
	listDeps = func(string) ([]byte, error) {
		return []byte("fmt\n\nvitalcore/pkg/domain\n"), nil
	}
	AssertNoTransitiveDependency(t, "./...", Within("internal/cli"), "cli stays on top")
}
