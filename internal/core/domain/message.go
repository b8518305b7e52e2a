package domain

// ExecutionKind is the mode a target is demanded for.
type ExecutionKind uint8

const (
	// Build asks for the target and its dependencies to be up to date.
	Build ExecutionKind = iota
	// Service asks for the target's services to be running.
	Service
)

// ExecutionKinds lists every kind, in a stable order.
var ExecutionKinds = [...]ExecutionKind{Build, Service}

func (k ExecutionKind) String() string {
	switch k {
	case Build:
		return "build"
	case Service:
		return "service"
	default:
		return "unknown"
	}
}

// ActorID addresses either the root driver or a target actor.
type ActorID struct {
	root   bool
	target TargetID
}

// RootActor is the address of the root driver.
var RootActor = ActorID{root: true}

// TargetActor returns the address of the actor owning id.
func TargetActor(id TargetID) ActorID {
	return ActorID{target: id}
}

// IsRoot reports whether the address is the root driver.
func (a ActorID) IsRoot() bool {
	return a.root
}

// Target returns the target behind a target address.
func (a ActorID) Target() (TargetID, bool) {
	return a.target, !a.root
}

func (a ActorID) String() string {
	if a.root {
		return "root"
	}
	return a.target.String()
}

// Message is delivered to an actor's mailbox.
type Message interface {
	isMessage()
}

// Requested asks the receiver to execute for Kind on behalf of Requester.
type Requested struct {
	Kind      ExecutionKind
	Requester ActorID
}

// Unrequested withdraws a previous Requested.
type Unrequested struct {
	Kind      ExecutionKind
	Requester ActorID
}

// Ok reports that Target is ready for Kind. Actual is false when nothing
// was executed.
type Ok struct {
	Kind   ExecutionKind
	Target TargetID
	Actual bool
}

// Invalidated reports that Target is no longer ready for Kind. When Target
// is the receiver itself, its own input changed.
type Invalidated struct {
	Kind   ExecutionKind
	Target TargetID
}

// Failed reports that Target's execution for Kind failed.
type Failed struct {
	Kind   ExecutionKind
	Target TargetID
}

func (Requested) isMessage()   {}
func (Unrequested) isMessage() {}
func (Ok) isMessage()          {}
func (Invalidated) isMessage() {}
func (Failed) isMessage()      {}

// Output is written by actors to the shared output channel.
type Output interface {
	isOutput()
}

// TargetExecutionError reports a failed build or service start.
type TargetExecutionError struct {
	Target TargetID
	Kind   ExecutionKind
	Err    error
}

// MessageActor asks the router to deliver Msg to Dest.
type MessageActor struct {
	Dest ActorID
	Msg  Message
}

func (TargetExecutionError) isOutput() {}
func (MessageActor) isOutput()         {}

func (e TargetExecutionError) Error() string {
	return e.Target.String() + ": " + e.Err.Error()
}

func (e TargetExecutionError) Unwrap() error {
	return e.Err
}
