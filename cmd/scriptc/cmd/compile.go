package cmd

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rexlang/scriptc/internal/compiler"
	"github.com/rexlang/scriptc/internal/manifest"
	"github.com/rexlang/scriptc/internal/metrics"
)

var (
	dumpOpcodes    bool
	dumpOpcodesFor string
	artifactDir    string
	metricsAddr    string
	maxWorkers     int
)

var compileCmd = &cobra.Command{
	Use:   "compile <module.yaml>",
	Short: "Compile a module manifest into an opcode artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().BoolVar(&dumpOpcodes, "dump-opcodes", false, "log every emitted opcode list")
	compileCmd.Flags().StringVar(&dumpOpcodesFor, "dump-opcodes-for", "", "log opcodes only for the named function")
	compileCmd.Flags().StringVar(&artifactDir, "artifact-dir", "", "directory to write the compiled JSON artifact into")
	compileCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090) until the compile finishes")
	compileCmd.Flags().IntVar(&maxWorkers, "workers", 4, "max concurrent file-builder goroutines")
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]

	var reg *metrics.Registry
	if metricsAddr != "" {
		promReg := prometheus.NewRegistry()
		reg = metrics.NewRegistry(promReg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		go http.ListenAndServe(metricsAddr, mux) //nolint:errcheck
		log.WithField("addr", metricsAddr).Info("serving Prometheus metrics")
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	bar := progressbar.NewOptions(len(m.Files),
		progressbar.OptionSetDescription("compiling "+m.Module),
		progressbar.OptionShowCount(),
	)

	var artifactLoader manifest.ArtifactLoader
	if artifactDir != "" {
		artifactLoader = manifest.FileArtifactStore{Dir: artifactDir}
	}

	c := compiler.New(compiler.Options{
		MaxWorkers: maxWorkers,
		Log:        log,
		Metrics:    reg,
		Artifact:   artifactLoader,
		DumpOpcodes:            dumpOpcodes,
		DumpOpcodesForFunction: dumpOpcodesFor,
		OnFileBuilt: func(string) { _ = bar.Add(1) },
	})

	result, err := c.CompileManifest(manifestPath)
	if err != nil {
		return err
	}

	for _, d := range result.Sink.Diagnostics() {
		line := d.String()
		if d.Severity.String() == "error" {
			fmt.Println(red(line))
		} else {
			fmt.Println(yellow(line))
		}
	}

	fmt.Println(result.Sink.Summary(m.Module))
	if result.Sink.Failed() {
		return fmt.Errorf("compilation of %q failed with %d error(s)", m.Module, result.Sink.Errors())
	}
	fmt.Println(green("compilation succeeded"))
	return nil
}
