package synth

// Command is one controller operation with its arguments. Booleans are
// encoded as 0/1 and enumerations by their integer value. Text carries
// note names for OpNoteName.
type Command struct {
	Op     Op
	Target int // voice or LFO index, 1-based; unused for filter and global ops
	Args   [4]float64
	Text   string
}

// Recorder receives every command the controller accepts, after validation.
// Record is called with the controller's lock held and must not call back
// into the controller.
type Recorder interface {
	Record(Command)
}

// Cmd builds a command from plain arguments.
func Cmd(op Op, target int, args ...float64) Command {
	c := Command{Op: op, Target: target}
	copy(c.Args[:], args)
	return c
}

func boolArg(on bool) float64 {
	if on {
		return 1
	}
	return 0
}
