// Package compiler is the top-level driver: given a module manifest,
// it builds stubs for every file (concurrently), loads and merges
// imported modules, runs the stub-library linking/resolution passes
// in order, parses/elaborates/emits every non-imported function,
// prunes unused imports, and assembles a compiled artifact. Each
// phase is bounded by diag.Sink.Errors(); the driver aborts further
// phases once a phase has recorded an error.
package compiler

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/elaborate"
	"github.com/rexlang/scriptc/internal/emit"
	"github.com/rexlang/scriptc/internal/filebuild"
	"github.com/rexlang/scriptc/internal/fnparse"
	"github.com/rexlang/scriptc/internal/manifest"
	"github.com/rexlang/scriptc/internal/metrics"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/stublib"
	"github.com/rexlang/scriptc/internal/token"
)

// Options configures one compilation run.
type Options struct {
	// RootObject is the implicit base class every base-less class
	// derives from (engine root object), or stub.NoID for none.
	RootObject stub.ID

	// MaxWorkers bounds the per-file builder goroutine pool.
	// Defaults to 4 when <= 0.
	MaxWorkers int

	Loader   filebuild.SourceLoader
	Artifact manifest.ArtifactLoader

	Log     *logrus.Logger
	Metrics *metrics.Registry

	// DumpOpcodes / DumpOpcodesForFunction control opcode-listing debug output.
	DumpOpcodes           bool
	DumpOpcodesForFunction string

	// OnFileBuilt, if set, is called once per file after its stubs have
	// been built (for a CLI progress bar; called from worker goroutines,
	// must be safe for concurrent use).
	OnFileBuilt func(depotPath string)
}

// Result is the outcome of compiling one module.
type Result struct {
	Lib      *stublib.Library
	Module   stub.ID
	Sink     *diag.Sink
	Artifact *manifest.Artifact
}

// Compiler drives module compilation, caching already-built modules
// by name so a diamond-shaped import graph is only compiled once.
type Compiler struct {
	opts  Options
	cache map[string]*Result
}

func New(opts Options) *Compiler {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 4
	}
	if opts.Loader == nil {
		opts.Loader = filebuild.OSLoader{}
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Compiler{opts: opts, cache: make(map[string]*Result)}
}

// CompileManifest compiles the module described by the manifest at
// manifestPath, recursively compiling its declared imports first.
func (c *Compiler) CompileManifest(manifestPath string) (*Result, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	if cached, ok := c.cache[m.Module]; ok {
		return cached, nil
	}
	dir := filepath.Dir(manifestPath)
	files, err := m.ResolveFiles(dir)
	if err != nil {
		return nil, err
	}

	sink := diag.NewSink()
	lib := stublib.New(sink)
	log := c.opts.Log.WithField("module", m.Module)

	var imported []*Result
	for _, depName := range m.Imports {
		depPath := filepath.Join(dir, depName, "module.yaml")
		dep, err := c.CompileManifest(depPath)
		if err != nil {
			sink.ReportError("CMP001", token.Pos{}, "importing module %q: %v", depName, err)
			continue
		}
		imported = append(imported, dep)
	}

	moduleID := lib.CreateModule(m.Module, token.Pos{File: manifestPath, Line: 1})

	c.phase(log, "filebuild.parse", func() {
		c.buildFiles(lib, moduleID, m.Files, files)
	})
	if sink.Failed() {
		return c.finish(m.Module, lib, moduleID, sink)
	}

	c.phase(log, "imports.merge", func() {
		for _, dep := range imported {
			lib.ImportModule(dep.Lib, dep.Module)
		}
	})

	c.phase(log, "stublib.link", func() {
		c.linkAndResolve(lib, moduleID)
	})
	if sink.Failed() {
		return c.finish(m.Module, lib, moduleID, sink)
	}

	c.phase(log, "elaborate.emit", func() {
		c.compileFunctions(lib)
	})
	if sink.Failed() {
		return c.finish(m.Module, lib, moduleID, sink)
	}

	c.phase(log, "imports.prune", func() {
		lib.PruneUnusedImports(moduleID, lib.AllTypeRefs())
	})

	result, err := c.finish(m.Module, lib, moduleID, sink)
	if err == nil {
		c.cache[m.Module] = result
		if c.opts.Artifact != nil && !sink.Failed() {
			if err := c.opts.Artifact.Store(result.Artifact); err != nil {
				log.WithError(err).Warn("failed to store compiled artifact")
			}
		}
	}
	return result, err
}

func (c *Compiler) phase(log *logrus.Entry, name string, fn func()) {
	start := time.Now()
	log.WithField("phase", name).Debug("phase start")
	fn()
	elapsed := time.Since(start)
	if c.opts.Metrics != nil {
		c.opts.Metrics.ObservePhase(name, elapsed.Seconds())
	}
	log.WithField("phase", name).WithField("elapsed", elapsed).Debug("phase end")
}

func (c *Compiler) buildFiles(lib *stublib.Library, moduleID stub.ID, depotPaths, absPaths []string) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, c.opts.MaxWorkers)
	for i := range absPaths {
		wg.Add(1)
		sem <- struct{}{}
		go func(depot, abs string) {
			defer wg.Done()
			defer func() { <-sem }()
			filebuild.Build(lib, c.opts.Loader, moduleID, depot, abs)
			if c.opts.OnFileBuilt != nil {
				c.opts.OnFileBuilt(depot)
			}
		}(depotPaths[i], absPaths[i])
	}
	wg.Wait()
}

// linkAndResolve runs the stub-library linking/resolution passes in
// the order the stub library requires: type refs before type decls (decls validate against
// resolved refs), classes linked before enum/function passes that
// consult the base chain, ctor/dtor synthesis last (needs final class
// shape), cast matrix built only once functions (incl. synthesized
// ones) exist.
func (c *Compiler) linkAndResolve(lib *stublib.Library, moduleID stub.ID) {
	lib.ResolveTypeRefs(lib.AllTypeRefs())
	lib.ResolveTypeDecls(lib.AllTypeDecls())
	lib.LinkClasses(lib.Classes(), c.opts.RootObject)
	lib.AssignEnumValues(lib.Enums())
	lib.CheckClassProperties(lib.Classes())
	lib.MangleOperatorNames(lib.Functions())
	lib.LinkFunctions(lib.Functions())
	lib.CheckOperatorScope(lib.Functions())
	lib.CreateAutomaticClassFunctions(lib.Classes())
	lib.BuildCastMatrix()
}

// compileFunctions parses, elaborates, and emits every non-imported
// function body, then fills in the synthesized ctor/dtor bodies.
func (c *Compiler) compileFunctions(lib *stublib.Library) {
	for _, id := range lib.Functions() {
		fn := lib.Function(id)
		if fn == nil || fn.Flags.Has(stub.FlagImport) || fn.Flags.Has(stub.FlagOpcodeAlias) {
			continue
		}
		if fn.Flags.Has(stub.FlagConstructor) || fn.Flags.Has(stub.FlagDestructor) {
			continue // filled by emit.FillAutomaticBodies below
		}
		if len(fn.Body) == 0 {
			continue
		}
		root, err := fnparse.Parse(fn.Body, id, lib)
		if err != nil {
			lib.Sink.ReportError("PRS001", fn.Pos, "parsing %q: %v", fn.Name, err)
			continue
		}
		if err := elaborate.New(lib, lib.Sink).Compile(fn, root); err != nil {
			lib.Sink.ReportError("ELB001", fn.Pos, "elaborating %q: %v", fn.Name, err)
			continue
		}
		fn.Opcodes = emit.Emit(lib, lib.Sink, root).Ops
		if c.opts.DumpOpcodes || (c.opts.DumpOpcodesForFunction != "" && c.opts.DumpOpcodesForFunction == fn.Name) {
			c.opts.Log.WithField("function", fn.Name).Debugf("opcodes: %v", fn.Opcodes)
		}
	}
	emit.FillAutomaticBodies(lib, lib.Classes())
}

func (c *Compiler) finish(moduleName string, lib *stublib.Library, moduleID stub.ID, sink *diag.Sink) (*Result, error) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.SyncSink(moduleName, sink)
	}
	return &Result{
		Lib:      lib,
		Module:   moduleID,
		Sink:     sink,
		Artifact: buildArtifact(lib, moduleID),
	}, nil
}

func buildArtifact(lib *stublib.Library, moduleID stub.ID) *manifest.Artifact {
	mod := lib.Module(moduleID)
	if mod == nil {
		return &manifest.Artifact{}
	}
	a := &manifest.Artifact{Module: mod.Name_}
	for _, id := range lib.Classes() {
		c := lib.Class(id)
		if c == nil || c.Owner != moduleID {
			continue
		}
		ca := manifest.ClassArtifact{Name: c.Name, IsStruct: c.Flags.Has(stub.FlagStruct), BaseName: c.BaseName}
		for _, memberID := range c.Members {
			if p := lib.Property(memberID); p != nil {
				ca.Properties = append(ca.Properties, manifest.PropertyArtifact{Name: p.Name, TypeName: lib.Signature(p.Type)})
			}
			if f := lib.Function(memberID); f != nil {
				fa := manifest.FunctionArtifact{
					Name:   f.Name,
					Static: f.Flags.Has(stub.FlagStatic),
					Final:  f.Flags.Has(stub.FlagFinal),
				}
				if f.ReturnType.Valid() {
					fa.ReturnType = lib.Signature(f.ReturnType)
				}
				for _, argID := range f.Args {
					if arg := lib.FunctionArg(argID); arg != nil {
						fa.ArgTypes = append(fa.ArgTypes, lib.Signature(arg.Type))
					}
				}
				ca.Functions = append(ca.Functions, fa)
			}
		}
		a.Classes = append(a.Classes, ca)
	}
	for _, id := range lib.Enums() {
		e := lib.Enum(id)
		if e == nil || e.Owner != moduleID {
			continue
		}
		ea := manifest.EnumArtifact{Name: e.Name}
		for _, optID := range e.Options {
			if opt := lib.EnumOption(optID); opt != nil {
				ea.Options = append(ea.Options, manifest.EnumOptionArtifact{Name: opt.Name, Value: opt.Value})
			}
		}
		a.Enums = append(a.Enums, ea)
	}
	return a
}
