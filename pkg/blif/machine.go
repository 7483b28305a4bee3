package blif

import "fmt"

// State is a position in a netlist statement.
type State int

const (
	StateIdle       State = iota // outside any recognized statement
	StateOutputs                 // reading .outputs names
	StateGateName                // expecting the cell name after .gate
	StatePinName                 // expecting a pin name
	StateInputNode               // expecting the net of an input pin
	StateOutputNode              // expecting the net of the output pin
	StateSkipGate                // inside an instance of an unknown cell
	StateEnd                     // after .end
	numStates
)

var stateNames = [numStates]string{
	StateIdle:       "Idle",
	StateOutputs:    "Outputs",
	StateGateName:   "GateName",
	StatePinName:    "PinName",
	StateInputNode:  "InputNode",
	StateOutputNode: "OutputNode",
	StateSkipGate:   "SkipGate",
	StateEnd:        "End",
}

func (s State) String() string {
	if s < 0 || s >= numStates {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

type tokenClass int

const (
	classWord      tokenClass = iota // net, pin or cell name
	classGate                        // .gate
	classOutputs                     // .outputs
	classEnd                         // .end
	classDirective                   // any other directive (.model, .inputs, ...)
	numClasses
)

func classify(tok Token) tokenClass {
	switch tok.Text {
	case ".gate":
		return classGate
	case ".outputs":
		return classOutputs
	case ".end":
		return classEnd
	}
	if tok.IsDirective() {
		return classDirective
	}
	return classWord
}

// EventKind identifies what a token meant to the machine.
type EventKind int

const (
	EventOutputPin   EventKind = iota + 1 // module output declared by .outputs
	EventGateStart                        // known cell name of a new instance
	EventUnknownCell                      // cell name missing from the library
	EventInputNet                         // net connected to input pin Event.Pin
	EventOutputNet                        // net connected to the output pin
	EventExtraToken                       // token after the output pin
	EventIncomplete                       // instance ended before its output pin
	EventEnd                              // .end
)

// Event is emitted by Step for tokens that carry netlist information.
type Event struct {
	Kind  EventKind
	Token Token // token that triggered the event
	Cell  Token // cell-name token of the current instance
	Pin   int   // input pin index for EventInputNet
}

// ArityFunc returns the number of input pins of a cell.
type ArityFunc func(cell string) (int, bool)

type action func(m *Machine, tok Token) State

// transitions is indexed by current state and token class. Every cell is
// populated; the table test enforces it.
var transitions = [numStates][numClasses]action{
	StateIdle: {
		classWord: stay, classGate: toGateName, classOutputs: toOutputs,
		classEnd: toEnd, classDirective: toIdle,
	},
	StateOutputs: {
		classWord: outputPin, classGate: toGateName, classOutputs: toOutputs,
		classEnd: toEnd, classDirective: toIdle,
	},
	StateGateName: {
		classWord: gateName, classGate: toGateName, classOutputs: toOutputs,
		classEnd: toEnd, classDirective: toIdle,
	},
	StatePinName: {
		classWord: pinName, classGate: toGateName, classOutputs: toOutputs,
		classEnd: toEnd, classDirective: toIdle,
	},
	StateInputNode: {
		classWord: inputNode, classGate: toGateName, classOutputs: toOutputs,
		classEnd: toEnd, classDirective: toIdle,
	},
	StateOutputNode: {
		classWord: outputNode, classGate: toGateName, classOutputs: toOutputs,
		classEnd: toEnd, classDirective: toIdle,
	},
	StateSkipGate: {
		classWord: stay, classGate: toGateName, classOutputs: toOutputs,
		classEnd: toEnd, classDirective: toIdle,
	},
	StateEnd: {
		classWord: stay, classGate: toGateName, classOutputs: toOutputs,
		classEnd: toEnd, classDirective: toIdle,
	},
}

// Machine follows .outputs and .gate statements token by token.
// A Machine is not safe for concurrent use.
type Machine struct {
	state State
	arity ArityFunc

	// current instance
	open       bool
	cell       Token
	inputs     int
	nets       int
	outputDone bool

	events []Event
}

// NewMachine creates a machine in the Idle state.
func NewMachine(arity ArityFunc) *Machine {
	return &Machine{state: StateIdle, arity: arity}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// InInstance reports whether a gate instance of a known cell is open.
func (m *Machine) InInstance() bool {
	return m.open
}

// Step consumes one token and returns the events it produced.
func (m *Machine) Step(tok Token) []Event {
	m.events = nil
	m.state = transitions[m.state][classify(tok)](m, tok)
	return m.events
}

// Finish closes any open instance at end of input.
func (m *Machine) Finish() []Event {
	m.events = nil
	m.closeInstance(Token{})
	m.state = StateIdle
	return m.events
}

func (m *Machine) emit(kind EventKind, tok Token) {
	m.events = append(m.events, Event{Kind: kind, Token: tok, Cell: m.cell})
}

func (m *Machine) closeInstance(tok Token) {
	if m.open && !m.outputDone {
		m.emit(EventIncomplete, tok)
	}
	m.open = false
}

func stay(m *Machine, _ Token) State {
	return m.state
}

func toGateName(m *Machine, tok Token) State {
	m.closeInstance(tok)
	return StateGateName
}

func toOutputs(m *Machine, tok Token) State {
	m.closeInstance(tok)
	return StateOutputs
}

func toEnd(m *Machine, tok Token) State {
	m.closeInstance(tok)
	m.emit(EventEnd, tok)
	return StateEnd
}

func toIdle(m *Machine, tok Token) State {
	m.closeInstance(tok)
	return StateIdle
}

func outputPin(m *Machine, tok Token) State {
	m.emit(EventOutputPin, tok)
	return StateOutputs
}

func gateName(m *Machine, tok Token) State {
	m.cell = tok
	inputs, ok := m.arity(tok.Text)
	if !ok {
		m.emit(EventUnknownCell, tok)
		return StateSkipGate
	}
	m.open = true
	m.inputs = inputs
	m.nets = 0
	m.outputDone = false
	m.emit(EventGateStart, tok)
	return StatePinName
}

func pinName(m *Machine, tok Token) State {
	switch {
	case m.outputDone:
		m.emit(EventExtraToken, tok)
		return StatePinName
	case m.nets < m.inputs:
		return StateInputNode
	default:
		return StateOutputNode
	}
}

func inputNode(m *Machine, tok Token) State {
	m.events = append(m.events, Event{Kind: EventInputNet, Token: tok, Cell: m.cell, Pin: m.nets})
	m.nets++
	return StatePinName
}

func outputNode(m *Machine, tok Token) State {
	m.emit(EventOutputNet, tok)
	m.outputDone = true
	return StatePinName
}
