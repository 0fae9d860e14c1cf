package vm

import (
	"fmt"
	"strings"
)

// GoSource is the file name recorded for frames of Go functions.
const GoSource = "[Go]"

// CallSite locates an operation in compiled code.
type CallSite struct {
	File     string
	Line     int
	Function string
}

// SiteTable maps call-site ids emitted by the compiler to their locations.
type SiteTable []CallSite

// At annotates err with the call site identified by id.
func (t SiteTable) At(err error, id int) error {
	if id < 0 || id >= len(t) {
		return At(err, CallSite{Function: "?"})
	}
	return At(err, t[id])
}

// TraceEntry is one line of a traceback. An entry with TailCalls > 0 marks
// frames that were replaced by tail calls and are no longer known.
type TraceEntry struct {
	CallSite
	TailCalls int
}

// Traceback lists the frames an error passed through, innermost first.
type Traceback []TraceEntry

// At records that err propagated through site. The first annotation wraps
// err in a *RuntimeError; later ones append to its traceback. A nil err
// stays nil.
func At(err error, site CallSite) error {
	if err == nil {
		return nil
	}
	re := asRuntimeError(err)
	re.Traceback = append(re.Traceback, TraceEntry{CallSite: site})
	return re
}

// withTailCalls records that n tail calls happened between the frame that
// failed and the frame that will annotate the error next.
func withTailCalls(err error, n int) error {
	re := asRuntimeError(err)
	if k := len(re.Traceback); k > 0 && re.Traceback[k-1].TailCalls > 0 {
		re.Traceback[k-1].TailCalls += n
		return re
	}
	re.Traceback = append(re.Traceback, TraceEntry{TailCalls: n})
	return re
}

// Format renders the traceback. Entries whose file or function starts with
// one of noisePrefixes are left out; each run of left-out entries is
// replaced by a count.
func (t Traceback) Format(noisePrefixes []string) string {
	var sb strings.Builder
	sb.WriteString("stack traceback:")
	hidden := 0
	flush := func() {
		if hidden > 0 {
			fmt.Fprintf(&sb, "\n\t(...%d hidden %s...)", hidden, plural(hidden, "frame", "frames"))
			hidden = 0
		}
	}
	for _, e := range t {
		if e.TailCalls > 0 {
			flush()
			sb.WriteString("\n\t(...tail calls...)")
			continue
		}
		if isNoise(e.CallSite, noisePrefixes) {
			hidden++
			continue
		}
		flush()
		sb.WriteString("\n\t")
		sb.WriteString(e.String())
	}
	flush()
	return sb.String()
}

func (e TraceEntry) String() string {
	if e.TailCalls > 0 {
		return "(...tail calls...)"
	}
	file := e.File
	if file == "" {
		file = "?"
	}
	loc := file
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", file, e.Line)
	}
	if e.Function == "" {
		return loc + ": in main chunk"
	}
	return fmt.Sprintf("%s: in function '%s'", loc, e.Function)
}

func isNoise(site CallSite, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if strings.HasPrefix(site.File, p) || strings.HasPrefix(site.Function, p) {
			return true
		}
	}
	return false
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
