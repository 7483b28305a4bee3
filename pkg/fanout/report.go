package fanout

import (
	"fmt"
	"io"
	"strings"
)

// WriteSummary writes the top fanout and ratio lines printed between the
// two passes.
func WriteSummary(w io.Writer, s Summary) error {
	_, err := fmt.Fprintf(w,
		"Top fanout is %d (load %g) from node %s,\n"+
			"driven by %s with strength %g\n"+
			"Top fanoutratio is %g (node %s, driven by %s)\n"+
			"Top load is %g (node %s, driven by %s)\n",
		s.TopFanout, s.TopLoad, s.TopFanoutNet,
		s.TopFanoutDriver, s.TopFanoutStrength,
		s.TopRatio, s.TopRatioNet, s.TopRatioDriver,
		s.TopLoad, s.TopLoadNet, s.TopLoadDriver)
	return err
}

// WriteReport writes the end-of-run report: summary, change counts and the
// drive-type histograms.
func WriteReport(w io.Writer, r *Result, separator string) error {
	var b strings.Builder
	if err := WriteSummary(&b, r.Summary); err != nil {
		return err
	}
	fmt.Fprintf(&b, "%d gates changed.\n", r.Changes)
	if r.Buffers > 0 {
		fmt.Fprintf(&b, "%d buffers inserted.\n", r.Buffers)
	}
	if r.Overloads > 0 {
		fmt.Fprintf(&b, "%d overloaded nets.\n", r.Overloads)
	}

	b.WriteString("\nIn:\n")
	writeHistogram(&b, r.Drives, r.Drives.In, separator)
	b.WriteString("\nOut:\n")
	writeHistogram(&b, r.Drives, r.Drives.Out, separator)

	_, err := io.WriteString(w, b.String())
	return err
}

// writeHistogram prints the non-empty buckets four to a line.
func writeHistogram(b *strings.Builder, h *DriveHistogram, count func(string) int, separator string) {
	col := 0
	for _, suffix := range h.Suffixes() {
		n := count(suffix)
		if n <= 0 {
			continue
		}
		plural := ' '
		if n > 1 {
			plural = 's'
		}
		fmt.Fprintf(b, "%d\t%s%s gate%c\t", n, separator, suffix, plural)
		col++
		if col > 3 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}
}
