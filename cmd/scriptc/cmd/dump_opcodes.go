package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rexlang/scriptc/internal/compiler"
)

var dumpOpcodesCmd = &cobra.Command{
	Use:   "dump-opcodes <module.yaml>",
	Short: "Compile a module and print the opcode list of every non-imported function",
	Args:  cobra.ExactArgs(1),
	RunE:  runDumpOpcodes,
}

func init() {
	rootCmd.AddCommand(dumpOpcodesCmd)
}

func runDumpOpcodes(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]
	c := compiler.New(compiler.Options{Log: log})
	result, err := c.CompileManifest(manifestPath)
	if err != nil {
		return err
	}
	for _, d := range result.Sink.Diagnostics() {
		fmt.Println(red(d.String()))
	}
	if result.Sink.Failed() {
		return fmt.Errorf("compile failed, no opcodes emitted")
	}
	for _, id := range result.Lib.Functions() {
		fn := result.Lib.Function(id)
		if fn == nil || len(fn.Opcodes) == 0 {
			continue
		}
		fmt.Println(green(fn.Name) + ":")
		for i, op := range fn.Opcodes {
			fmt.Printf("  %4d  %s\n", i, op.Kind)
		}
	}
	return nil
}
