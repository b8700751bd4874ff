// Package testutil holds test helpers that keep vitalcore's package layering honest.
//
// The layering is: pkg/domain at the bottom, the engines (catalog, recommend,
// insight) above it, internal/core on top of those, and internal/cli last.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Module is the vitalcore module path.
const Module = "vitalcore"

// ImportPredicate reports whether an import path is forbidden.
type ImportPredicate func(importPath string) bool

// Within matches imports of the given module-relative packages or anything below them.
func Within(pkgs ...string) ImportPredicate {
	return func(ip string) bool {
		for _, p := range pkgs {
			full := Module + "/" + strings.Trim(p, "/")
			if ip == full || strings.HasPrefix(ip, full+"/") {
				return true
			}
		}
		return false
	}
}

// Internal matches any package under an internal/ directory.
func Internal(ip string) bool {
	return strings.HasPrefix(ip, "internal/") || strings.Contains(ip, "/internal/")
}

// ThirdParty matches imports whose first path element looks like a host name.
func ThirdParty(ip string) bool {
	first, _, _ := strings.Cut(ip, "/")
	return strings.Contains(first, ".")
}

// Any combines predicates.
func Any(preds ...ImportPredicate) ImportPredicate {
	return func(ip string) bool {
		for _, p := range preds {
			if p(ip) {
				return true
			}
		}
		return false
	}
}

// AssertNoDirectImports fails t when a non-test file in dir imports a forbidden path.
func AssertNoDirectImports(t testing.TB, dir string, forbidden ImportPredicate, reason string) {
	t.Helper()
	imports, err := DirectImports(dir)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	report(t, "direct import", reason, match(imports, forbidden))
}

// AssertNoTransitiveDependency fails t when `go list -deps pattern` reaches a forbidden package.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden ImportPredicate, reason string) {
	t.Helper()
	out, err := listDeps(pattern)
	if err != nil {
		t.Fatalf("go list -deps %s: %v\n%s", pattern, err, out)
	}
	var deps []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			deps = append(deps, line)
		}
	}
	report(t, "transitive dependency", reason, match(deps, forbidden))
}

// DirectImports returns the sorted, de-duplicated imports of the non-test files in dir.
func DirectImports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	seen := make(map[string]struct{})
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".go" || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			seen[strings.Trim(imp.Path.Value, `"`)] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for ip := range seen {
		out = append(out, ip)
	}
	sort.Strings(out)
	return out, nil
}

var listDeps = func(pattern string) ([]byte, error) {
	return exec.Command("go", "list", "-deps", pattern).CombinedOutput()
}

func match(paths []string, forbidden ImportPredicate) []string {
	var hits []string
	for _, p := range paths {
		if forbidden(p) {
			hits = append(hits, p)
		}
	}
	return hits
}

type fataler interface {
	Fatalf(format string, args ...any)
}

func report(t fataler, kind, reason string, hits []string) {
	if len(hits) == 0 {
		return
	}
	t.Fatalf("forbidden %s (%s):\n%s", kind, reason, strings.Join(hits, "\n"))
}
