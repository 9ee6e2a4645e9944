package diag

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rexlang/scriptc/internal/token"
)

// Severity distinguishes errors (which fail the compile) from
// warnings (which never do).
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one (file, line, severity, message) quadruple, the
// output unit rendered back to the user.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Pos      token.Pos
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: [%s] %s", d.Pos, d.Severity, d.Code, d.Message)
}

// Sink is the compiler's single diagnostic channel of record. It is
// safe for concurrent use: the error/warning counters are atomic
// because file parsing may run concurrently across files. Everything
// past the parse phase is single-threaded, but Sink stays safe
// regardless so callers never have to reason about which phase
// they're in.
type Sink struct {
	errorCount   int64
	warningCount int64

	mu    sync.Mutex
	diags []Diagnostic
}

// NewSink creates an empty Sink.
func NewSink() *Sink {
	return &Sink{}
}

// ReportError records an error-severity diagnostic and increments the
// error counter.
func (s *Sink) ReportError(code Code, pos token.Pos, format string, args ...any) {
	s.report(Diagnostic{Code: code, Severity: SeverityError, Pos: pos, Message: fmt.Sprintf(format, args...)})
	atomic.AddInt64(&s.errorCount, 1)
}

// ReportWarning records a warning-severity diagnostic and increments
// the warning counter.
func (s *Sink) ReportWarning(code Code, pos token.Pos, format string, args ...any) {
	s.report(Diagnostic{Code: code, Severity: SeverityWarning, Pos: pos, Message: fmt.Sprintf(format, args...)})
	atomic.AddInt64(&s.warningCount, 1)
}

func (s *Sink) report(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags = append(s.diags, d)
}

// Errors returns the number of errors reported so far.
func (s *Sink) Errors() int {
	return int(atomic.LoadInt64(&s.errorCount))
}

// Warnings returns the number of warnings reported so far.
func (s *Sink) Warnings() int {
	return int(atomic.LoadInt64(&s.warningCount))
}

// Failed reports whether the compile as a whole must be considered
// failed: at least one error has been recorded. Phases collect as many
// errors as they can; the driver checks this between phases.
func (s *Sink) Failed() bool {
	return s.Errors() > 0
}

// Diagnostics returns a stable-ordered snapshot of every diagnostic
// reported so far, file then line then original report order.
func (s *Sink) Diagnostics() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.File != out[j].Pos.File {
			return out[i].Pos.File < out[j].Pos.File
		}
		return out[i].Pos.Line < out[j].Pos.Line
	})
	return out
}

// Summary renders the module-name + error/warning-count summary line
// the CLI's compile command prints after every compile.
func (s *Sink) Summary(module string) string {
	return fmt.Sprintf("%s: %d error(s), %d warning(s)", module, s.Errors(), s.Warnings())
}
