// Command scriptc compiles script-language modules into opcode
// artifacts.
package main

import "github.com/rexlang/scriptc/cmd/scriptc/cmd"

func main() {
	cmd.Execute()
}
