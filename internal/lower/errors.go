package lower

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrLoweringStalled = errors.New("lowering stalled")
)

// StalledError reports that the pipeline cannot resolve a node to a
// concrete hardware block. Node names the first blocking node, Stage the
// pipeline stage that detected it.
type StalledError struct {
	Node   string
	Stage  string
	Reason string
}

// Error implements the error interface.
func (e *StalledError) Error() string {
	return fmt.Sprintf("lowering stalled at stage %s: node %q: %s", e.Stage, e.Node, e.Reason)
}

// Is reports whether the target is the stall sentinel.
func (e *StalledError) Is(target error) bool { return target == ErrLoweringStalled }
