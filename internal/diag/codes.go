// Package diag implements the compiler's error sink: a thread-safe
// counter plus a sink for errors and warnings, each tagged with file
// path and line. The code-registry idiom (stable string codes grouped
// by phase) mirrors how production Go compilers and linters tag
// diagnostics so tooling can match on a code rather than parsing
// message text.
package diag

// Code is a stable diagnostic identifier, stable across compiler
// versions so tooling can match on it instead of message text.
type Code string

const (
	// ============================================================
	// Lexical errors (LEX###) — funnelled through the sink from the
	// lexer collaborator.
	// ============================================================

	LEX001 Code = "LEX001" // illegal character
	LEX002 Code = "LEX002" // unterminated string or char literal
	LEX003 Code = "LEX003" // malformed numeric literal

	// ============================================================
	// Stub library errors (STB###).
	// ============================================================

	STB001 Code = "STB001" // unresolved symbol
	STB002 Code = "STB002" // duplicate member name within owner
	STB003 Code = "STB003" // inheritance cycle
	STB004 Code = "STB004" // struct may not declare a base class
	STB005 Code = "STB005" // base class not accessible
	STB006 Code = "STB006" // duplicate enum option name
	STB007 Code = "STB007" // enum option value assigned on import
	STB008 Code = "STB008" // duplicate function argument name
	STB009 Code = "STB009" // signal must be bool/void-returning and named "On*"
	STB010 Code = "STB010" // import function requires import-flagged owning class
	STB011 Code = "STB011" // override without matching base function
	STB012 Code = "STB012" // override of a final base function
	STB013 Code = "STB013" // non-override function shadows a base member
	STB014 Code = "STB014" // access violation: private/protected member
	STB015 Code = "STB015" // Simple type decl references a non-struct class
	STB016 Code = "STB016" // ptr/weak/class-meta type decl references a struct
	STB017 Code = "STB017" // operator/cast declared outside module scope
	STB018 Code = "STB018" // shadowed inherited property

	// ============================================================
	// Type cast / operator errors (CST###).
	// ============================================================

	CST001 Code = "CST001" // no applicable cast between two types
	CST002 Code = "CST002" // ambiguous operator overload
	CST003 Code = "CST003" // no applicable operator overload

	// ============================================================
	// Function elaboration errors (ELB###).
	// ============================================================

	ELB001 Code = "ELB001" // redefinition of a local variable
	ELB002 Code = "ELB002" // unresolved identifier in function body
	ELB003 Code = "ELB003" // `this` used in a static function
	ELB004 Code = "ELB004" // assignment to a const or non-reference lvalue
	ELB005 Code = "ELB005" // reference to a temporary value
	ELB006 Code = "ELB006" // numeric constant does not fit target type
	ELB007 Code = "ELB007" // wrong argument count in call
	ELB008 Code = "ELB008" // new applied to a non-class or struct type
	ELB009 Code = "ELB009" // break/continue outside a loop or switch
	ELB010 Code = "ELB010" // return type mismatch

	// ============================================================
	// Opcode emission errors (EMT###); these are internal compiler
	// errors, not user mistakes.
	// ============================================================

	EMT001 Code = "EMT001" // unreachable code after return/break/continue (warning)
	EMT002 Code = "EMT002" // break/continue with no enclosing loop context

	// ============================================================
	// Module/manifest errors (MAN###).
	// ============================================================

	MAN001 Code = "MAN001" // module file not found
	MAN002 Code = "MAN002" // circular module dependency
	MAN003 Code = "MAN003" // imported module artifact could not be loaded
)
