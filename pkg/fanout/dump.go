package fanout

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ChunHungLiu/qflow/pkg/gatelib"
)

// Dump formats.
const (
	DumpTable = "table"
	DumpSexp  = "sexp"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// DumpGates writes the gate catalog, one variant per row or s-expression.
func DumpGates(w io.Writer, gates []*gatelib.GateVariant, format string) error {
	switch format {
	case DumpTable:
		rows := make([][]string, 0, len(gates))
		for _, g := range gates {
			pins := make([]string, len(g.Cpin))
			for i, c := range g.Cpin {
				pins[i] = formatFloat(c)
			}
			rows = append(rows, []string{
				g.Name,
				strconv.Itoa(g.Inputs),
				formatFloat(g.Strength),
				formatFloat(g.Delay),
				formatFloat(g.Cint),
				strings.Join(pins, " "),
			})
		}
		return renderTable(w, []string{"Gate", "Inputs", "Strength", "Delay", "Cint", "Cpin"}, rows)

	case DumpSexp:
		var b strings.Builder
		for _, g := range gates {
			fmt.Fprintf(&b, "(gate (name %s) (inputs %d) (strength %s) (delay %s) (cint %s) (cpin",
				g.Name, g.Inputs, formatFloat(g.Strength), formatFloat(g.Delay), formatFloat(g.Cint))
			for _, c := range g.Cpin {
				b.WriteString(" " + formatFloat(c))
			}
			b.WriteString("))\n")
		}
		_, err := io.WriteString(w, b.String())
		return err

	default:
		return fmt.Errorf("fanout: unknown dump format %q", format)
	}
}

// DumpNodes writes the net registry, one net per row or s-expression.
// Undriven nets show "nil" as their driver.
func DumpNodes(w io.Writer, nets []*Net, format string) error {
	driver := func(n *Net) string {
		if n.Driver == "" {
			return "nil"
		}
		return n.Driver
	}

	switch format {
	case DumpTable:
		rows := make([][]string, 0, len(nets))
		for _, n := range nets {
			ratio := "-"
			if r, ok := n.Ratio(); ok {
				ratio = formatFloat(r)
			}
			rows = append(rows, []string{
				n.Name,
				strconv.Itoa(n.Fanout),
				formatFloat(n.Load),
				driver(n),
				formatFloat(n.Strength),
				ratio,
				strconv.FormatBool(n.OutputPin),
				strconv.FormatBool(n.Ignore),
			})
		}
		return renderTable(w,
			[]string{"Node", "Fanout", "Load", "Driver", "Strength", "Ratio", "Output", "Ignore"}, rows)

	case DumpSexp:
		var b strings.Builder
		for _, n := range nets {
			fmt.Fprintf(&b, "(node (name %s) (fanout %d) (load %s) (driver %s) (strength %s) (output %t) (ignore %t))\n",
				n.Name, n.Fanout, formatFloat(n.Load), driver(n), formatFloat(n.Strength), n.OutputPin, n.Ignore)
		}
		_, err := io.WriteString(w, b.String())
		return err

	default:
		return fmt.Errorf("fanout: unknown dump format %q", format)
	}
}
