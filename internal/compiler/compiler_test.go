package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rexlang/scriptc/internal/stub"
)

func writeModule(t *testing.T, dir string, manifestYAML string, files map[string]string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "module.yaml"), []byte(manifestYAML), 0o644); err != nil {
		t.Fatalf("WriteFile manifest: %v", err)
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", name, err)
		}
	}
}

func TestCompileManifestBuildsClassWithPropertiesAndFunction(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "module: widgets\nfiles:\n  - widget.script\n", map[string]string{
		"widget.script": `
class Widget {
	var count: int;

	function bump(by: int): int {
		count = count + by;
		return count;
	}
}
`,
	})

	c := New(Options{})
	result, err := c.CompileManifest(filepath.Join(dir, "module.yaml"))
	if err != nil {
		t.Fatalf("CompileManifest: %v", err)
	}
	if result.Sink.Errors() != 0 {
		t.Fatalf("expected no compile errors, got %d: %v", result.Sink.Errors(), result.Sink.Diagnostics())
	}
	if result.Artifact.Module != "widgets" {
		t.Fatalf("Artifact.Module = %q, want widgets", result.Artifact.Module)
	}
	if len(result.Artifact.Classes) != 1 {
		t.Fatalf("expected 1 class in artifact, got %d", len(result.Artifact.Classes))
	}
	widget := result.Artifact.Classes[0]
	if widget.Name != "Widget" {
		t.Fatalf("class name = %q, want Widget", widget.Name)
	}
	if len(widget.Properties) != 1 || widget.Properties[0].Name != "count" {
		t.Fatalf("Properties = %+v", widget.Properties)
	}
	var bump *stub.ID
	for _, id := range result.Lib.Functions() {
		fn := result.Lib.Function(id)
		if fn.Name == "bump" {
			bump = &id
		}
	}
	if bump == nil {
		t.Fatalf("expected a bump function to exist")
	}
	if len(result.Lib.Function(*bump).Opcodes) == 0 {
		t.Errorf("expected bump's body to be emitted into opcodes")
	}
}

func TestCompileManifestAbortsEmitPhaseAfterLinkErrors(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "module: broken\nfiles:\n  - broken.script\n", map[string]string{
		"broken.script": `
class Derived : Ghost {
	var x: int;
}
`,
	})

	c := New(Options{})
	result, err := c.CompileManifest(filepath.Join(dir, "module.yaml"))
	if err != nil {
		t.Fatalf("CompileManifest: %v", err)
	}
	if result.Sink.Errors() == 0 {
		t.Fatalf("expected an unresolved-base-class error")
	}
}

func TestCompileManifestCachesByModuleName(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "module: cached\nfiles:\n  - a.script\n", map[string]string{
		"a.script": `class A { }`,
	})

	c := New(Options{})
	path := filepath.Join(dir, "module.yaml")
	first, err := c.CompileManifest(path)
	if err != nil {
		t.Fatalf("first CompileManifest: %v", err)
	}
	second, err := c.CompileManifest(path)
	if err != nil {
		t.Fatalf("second CompileManifest: %v", err)
	}
	if first != second {
		t.Errorf("expected the second CompileManifest call to return the cached result")
	}
}

func TestCompileManifestMergesImportedModule(t *testing.T) {
	root := t.TempDir()
	depDir := filepath.Join(root, "base")
	if err := os.MkdirAll(depDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	writeModule(t, depDir, "module: base\nfiles:\n  - base.script\n", map[string]string{
		"base.script": `class Shared { }`,
	})
	writeModule(t, root, "module: app\nfiles:\n  - app.script\nimports:\n  - base\n", map[string]string{
		"app.script": `class Feature : Shared { }`,
	})

	c := New(Options{})
	result, err := c.CompileManifest(filepath.Join(root, "module.yaml"))
	if err != nil {
		t.Fatalf("CompileManifest: %v", err)
	}
	if result.Sink.Errors() != 0 {
		t.Fatalf("expected Feature to resolve its base class via the imported module, got %d errors: %v",
			result.Sink.Errors(), result.Sink.Diagnostics())
	}
}

func TestCompileManifestMergesImportedModuleWithExplicitEnumValues(t *testing.T) {
	root := t.TempDir()
	depDir := filepath.Join(root, "colors")
	if err := os.MkdirAll(depDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	writeModule(t, depDir, "module: colors\nfiles:\n  - colors.script\n", map[string]string{
		"colors.script": `
enum E {
	A,
	B = 5,
	C,
	D,
}
`,
	})
	writeModule(t, root, "module: app\nfiles:\n  - app.script\nimports:\n  - colors\n", map[string]string{
		"app.script": `class Feature { }`,
	})

	c := New(Options{})
	result, err := c.CompileManifest(filepath.Join(root, "module.yaml"))
	if err != nil {
		t.Fatalf("CompileManifest: %v", err)
	}
	if result.Sink.Errors() != 0 {
		t.Fatalf("re-running enum value assignment over a merged module's explicit-valued enum should not error, got %d: %v",
			result.Sink.Errors(), result.Sink.Diagnostics())
	}
}
