// Package report formats a decided formula's result for the console
// and log, and appends the per-formula timing line the original tool
// kept in a short_log.log file alongside the full log.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rfielding/rsmcheck/internal/ctlparse"
	"github.com/rfielding/rsmcheck/internal/rsmlog"
)

// Result describes the one line a checked formula produces.
type Result struct {
	Value            bool
	Formula          *ctlparse.Formula
	InitialNode      string
	InitialComponent string
}

// Line renders "<value>: <formula> does [not] hold in <node> (component <component>)",
// exactly the phrasing the console and log share.
func (r Result) Line() string {
	negation := ""
	if !r.Value {
		negation = " not"
	}
	return fmt.Sprintf("%t: %s does%s hold in %s (component %s)",
		r.Value, r.Formula.String(), negation, r.InitialNode, r.InitialComponent)
}

// Announce prints r.Line() to stdout and logs it at info level, the two
// places the original tool surfaced a finished formula's result.
func Announce(log rsmlog.Logger, r Result) {
	fmt.Println(r.Line())
	log.Infof("%s", r.Line())
}

// ShortLogEntry appends one tab-separated line to path recording how
// long a single formula took to check: "<rsm-basename>\t<ctl-basename>/<index>\t<seconds>\n".
// rsmPath and ctlPath are the input file paths; index is the formula's
// 1-based position within the CTL file.
func ShortLogEntry(path, rsmPath, ctlPath string, index int, elapsed time.Duration) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("report: opening short log %q: %w", path, err)
	}
	defer f.Close()

	line := strings.Join([]string{
		baseNameNoExt(rsmPath),
		fmt.Sprintf("%s/%d", baseNameNoExt(ctlPath), index),
		fmt.Sprintf("%v", elapsed.Seconds()),
	}, "\t") + "\n"

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("report: writing short log %q: %w", path, err)
	}
	return nil
}

func baseNameNoExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Summary is the final tally the tool prints after checking every
// formula in the CTL file.
type Summary struct {
	NumTrue, NumFalse int
	Elapsed           time.Duration
}

func (s Summary) Log(log rsmlog.Logger) {
	log.Infof("took a total of %v seconds", s.Elapsed.Seconds())
	log.Infof("found %d true formulas and %d false formulas", s.NumTrue, s.NumFalse)
}
