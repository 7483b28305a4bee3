package fanout

import (
	"io"

	"github.com/ChunHungLiu/qflow/pkg/blif"
)

// Scan reads the netlist once and builds the net registry and the input
// side of the drive histogram.
func (e *Engine) Scan(r io.Reader) error {
	m := blif.NewMachine(e.catalog.Arity)
	var lastMalformed blif.Token

	handle := func(events []blif.Event) {
		for _, ev := range events {
			switch ev.Kind {
			case blif.EventOutputPin:
				e.nets.RegisterOutputPin(ev.Token.Text)

			case blif.EventUnknownCell:
				e.unknownCells++
				e.logger.Warn("gate not in library, instance skipped",
					"cell", ev.Token.Text, "line", ev.Token.Line)

			case blif.EventInputNet:
				gate, _ := e.catalog.Lookup(ev.Cell.Text)
				e.nets.RegisterInput(ev.Token.Text, gate, ev.Pin)

			case blif.EventOutputNet:
				gate, _ := e.catalog.Lookup(ev.Cell.Text)
				e.nets.RegisterOutput(ev.Token.Text, gate)
				if suffix, ok := e.resolver.SuffixOf(gate.Name); ok {
					e.drives.Tally(suffix)
				} else {
					e.logger.Warn("don't know drive type of gate", "cell", gate.Name, "line", ev.Cell.Line)
				}

			case blif.EventExtraToken:
				if ev.Cell != lastMalformed {
					lastMalformed = ev.Cell
					e.malformed++
				}
				e.logger.Warn("extra token after output pin ignored",
					"cell", ev.Cell.Text, "token", ev.Token.Text, "line", ev.Token.Line)

			case blif.EventIncomplete:
				e.malformed++
				e.logger.Warn("gate instance has no output pin", "cell", ev.Cell.Text, "line", ev.Cell.Line)
			}
		}
	}

	err := forEachLine(r, func(line string, lineNo int) {
		for _, tok := range blif.Tokenize(line, lineNo) {
			handle(m.Step(tok))
		}
	})
	if err != nil {
		return err
	}
	handle(m.Finish())
	return nil
}
