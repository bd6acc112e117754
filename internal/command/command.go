// Package command applies reversible mutations to a Family.
//
// Mutations are expressed as Command values and submitted to a Queue, whose
// single worker executes them in order and records them on a bounded undo
// stack. Undo and redo are routed through the same worker, so a Family is
// only ever mutated from one goroutine.
package command

// Command is a reversible unit of mutation.
//
// Undo must exactly reverse the effect of the preceding Execute. Commands
// are not required to survive more than one Execute/Undo cycle at a time,
// but redo calls Execute again after Undo.
type Command interface {
	// Name identifies the kind of command in logs and metrics.
	Name() string
	Execute() error
	Undo() error
}

// Func adapts a pair of closures into a Command.
type Func struct {
	Label  string
	Do     func() error
	UndoFn func() error
}

// Name implements Command.
func (f *Func) Name() string {
	if f.Label == "" {
		return "func"
	}
	return f.Label
}

// Execute implements Command.
func (f *Func) Execute() error {
	if f.Do == nil {
		return nil
	}
	return f.Do()
}

// Undo implements Command.
func (f *Func) Undo() error {
	if f.UndoFn == nil {
		return nil
	}
	return f.UndoFn()
}
