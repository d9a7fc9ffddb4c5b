package port

import "time"

// Min and Max bound the TCP port space.
const (
	Min = 1
	Max = 65535
)

// State classifies the outcome of a single connect attempt.
type State string

const (
	StateOpen     State = "open"
	StateClosed   State = "closed"  // peer refused the connection
	StateTimedOut State = "timeout" // no answer before the deadline
	StateError    State = "error"
)

// IsOpen reports whether the port accepted the connection. Refused and
// timed-out ports are both "not open".
func (s State) IsOpen() bool { return s == StateOpen }

// Outcome is the result of probing one port.
type Outcome struct {
	Port   uint16        `json:"port" yaml:"port"`
	State  State         `json:"state" yaml:"state"`
	Reason string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	RTT    time.Duration `json:"rtt" yaml:"rtt"`
}
