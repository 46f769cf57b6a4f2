package layering_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const module = "github.com/comalice/asynclanes"

// allowed lists, per package, the non-stdlib imports it may use. Replay must
// stay headless: no terminal UI, exporters or timeline in the core layers.
var allowed = map[string][]string{
	"primitives": {},
	"core": {
		module + "/internal/primitives",
		"go.uber.org/zap",
		"github.com/gowebpki/jcs",
	},
	"scenario": {
		module + "/internal/primitives",
		"gopkg.in/yaml.v3",
		"github.com/Masterminds/semver/v3",
		"github.com/santhosh-tekuri/jsonschema/v5",
	},
}

func importsOf(t *testing.T, dir string) map[string]string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		t.Fatal(err)
	}
	out := map[string]string{}
	fset := token.NewFileSet()
	for _, f := range files {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		parsed, err := parser.ParseFile(fset, f, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", f, err)
		}
		for _, imp := range parsed.Imports {
			path, _ := strconv.Unquote(imp.Path.Value)
			out[path] = filepath.Base(f)
		}
	}
	return out
}

func isStdlib(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

func TestCoreLayersStayHeadless(t *testing.T) {
	for pkg, allow := range allowed {
		if _, err := os.Stat(pkg); err != nil {
			t.Fatalf("package dir %s: %v", pkg, err)
		}
		for path, file := range importsOf(t, pkg) {
			if isStdlib(path) {
				continue
			}
			ok := false
			for _, a := range allow {
				if path == a {
					ok = true
					break
				}
			}
			if !ok {
				t.Errorf("%s/%s imports %s, which the %s layer must not depend on", pkg, file, path, pkg)
			}
		}
	}
}
