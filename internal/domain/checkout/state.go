package checkout

// State implements the state pattern for the checkout lifecycle. Every event
// not listed for a state is an invalid transition.
type State interface {
	Status() Status
	OnSubmit(m *Machine) (State, error)
	OnRejected(m *Machine, reason string) (State, error)
	OnAcceptedCash(m *Machine) (State, error)
	OnAcceptedOnline(m *Machine) (State, error)
	OnArtifactReady(m *Machine) (State, error)
	OnArtifactFailed(m *Machine, reason string) (State, error)
	OnAcknowledge(m *Machine) (State, error)
}

// Machine tracks the single in-flight checkout. AwaitingOnlinePayment is
// terminal from the client's point of view: settlement is confirmed through
// an external channel, never observed here. A new sale starts with Reset.
type Machine struct {
	state         State
	FailureStage  Stage
	FailureReason string
}

func NewMachine() *Machine {
	return &Machine{state: idleState{}}
}

func (m *Machine) Status() Status {
	return m.state.Status()
}

func (m *Machine) Submit() error { return m.apply(m.state.OnSubmit(m)) }

func (m *Machine) Rejected(reason string) error {
	return m.apply(m.state.OnRejected(m, reason))
}

func (m *Machine) AcceptedCash() error { return m.apply(m.state.OnAcceptedCash(m)) }
func (m *Machine) AcceptedOnline() error { return m.apply(m.state.OnAcceptedOnline(m)) }
func (m *Machine) ArtifactReady() error { return m.apply(m.state.OnArtifactReady(m)) }

func (m *Machine) ArtifactFailed(reason string) error {
	return m.apply(m.state.OnArtifactFailed(m, reason))
}

func (m *Machine) Acknowledge() error { return m.apply(m.state.OnAcknowledge(m)) }

// Reset abandons whatever is in progress and returns to Idle. Valid from any
// state; this is the operator's explicit "new sale".
func (m *Machine) Reset() {
	m.FailureStage = ""
	m.FailureReason = ""
	m.state = idleState{}
}

func (m *Machine) apply(next State, err error) error {
	if err != nil {
		return err
	}
	m.state = next
	return nil
}

type idleState struct{}

func (idleState) Status() Status { return StatusIdle }

func (idleState) OnSubmit(m *Machine) (State, error) {
	m.FailureStage = ""
	m.FailureReason = ""
	return submittingState{}, nil
}

func (idleState) OnRejected(*Machine, string) (State, error) { return nil, ErrInvalidTransition }
func (idleState) OnAcceptedCash(*Machine) (State, error) { return nil, ErrInvalidTransition }
func (idleState) OnAcceptedOnline(*Machine) (State, error) { return nil, ErrInvalidTransition }
func (idleState) OnArtifactReady(*Machine) (State, error) { return nil, ErrInvalidTransition }
func (idleState) OnArtifactFailed(*Machine, string) (State, error) { return nil, ErrInvalidTransition }
func (idleState) OnAcknowledge(*Machine) (State, error) { return nil, ErrInvalidTransition }

type submittingState struct{}

func (submittingState) Status() Status { return StatusSubmitting }

func (submittingState) OnSubmit(*Machine) (State, error) { return nil, ErrInvalidTransition }

func (submittingState) OnRejected(m *Machine, reason string) (State, error) {
	m.FailureStage = StageSubmission
	m.FailureReason = reason
	return failedState{}, nil
}

func (submittingState) OnAcceptedCash(*Machine) (State, error) {
	return completedState{}, nil
}

func (submittingState) OnAcceptedOnline(*Machine) (State, error) {
	return awaitingOnlinePaymentState{}, nil
}

func (submittingState) OnArtifactReady(*Machine) (State, error) {
	return nil, ErrInvalidTransition
}

func (submittingState) OnArtifactFailed(*Machine, string) (State, error) {
	return nil, ErrInvalidTransition
}

func (submittingState) OnAcknowledge(*Machine) (State, error) { return nil, ErrInvalidTransition }

type awaitingOnlinePaymentState struct{}

func (awaitingOnlinePaymentState) Status() Status { return StatusAwaitingOnlinePayment }

func (awaitingOnlinePaymentState) OnSubmit(*Machine) (State, error) {
	return nil, ErrInvalidTransition
}

func (awaitingOnlinePaymentState) OnRejected(*Machine, string) (State, error) {
	return nil, ErrInvalidTransition
}

func (awaitingOnlinePaymentState) OnAcceptedCash(*Machine) (State, error) {
	return nil, ErrInvalidTransition
}

func (awaitingOnlinePaymentState) OnAcceptedOnline(*Machine) (State, error) {
	return nil, ErrInvalidTransition
}

func (awaitingOnlinePaymentState) OnArtifactReady(*Machine) (State, error) {
	return awaitingOnlinePaymentState{}, nil
}

func (awaitingOnlinePaymentState) OnArtifactFailed(m *Machine, reason string) (State, error) {
	m.FailureStage = StageQR
	m.FailureReason = reason
	return failedState{}, nil
}

func (awaitingOnlinePaymentState) OnAcknowledge(*Machine) (State, error) {
	return nil, ErrInvalidTransition
}

type completedState struct{}

func (completedState) Status() Status { return StatusCompleted }

func (completedState) OnSubmit(*Machine) (State, error) { return nil, ErrInvalidTransition }
func (completedState) OnRejected(*Machine, string) (State, error) { return nil, ErrInvalidTransition }
func (completedState) OnAcceptedCash(*Machine) (State, error) { return nil, ErrInvalidTransition }
func (completedState) OnAcceptedOnline(*Machine) (State, error) { return nil, ErrInvalidTransition }
func (completedState) OnArtifactReady(*Machine) (State, error) { return nil, ErrInvalidTransition }
func (completedState) OnArtifactFailed(*Machine, string) (State, error) {
	return nil, ErrInvalidTransition
}

func (completedState) OnAcknowledge(m *Machine) (State, error) {
	return idleState{}, nil
}

type failedState struct{}

func (failedState) Status() Status { return StatusFailed }

func (failedState) OnSubmit(*Machine) (State, error) { return nil, ErrInvalidTransition }
func (failedState) OnRejected(*Machine, string) (State, error) { return nil, ErrInvalidTransition }
func (failedState) OnAcceptedCash(*Machine) (State, error) { return nil, ErrInvalidTransition }
func (failedState) OnAcceptedOnline(*Machine) (State, error) { return nil, ErrInvalidTransition }
func (failedState) OnArtifactReady(*Machine) (State, error) { return nil, ErrInvalidTransition }
func (failedState) OnArtifactFailed(*Machine, string) (State, error) {
	return nil, ErrInvalidTransition
}

func (failedState) OnAcknowledge(m *Machine) (State, error) {
	m.FailureStage = ""
	m.FailureReason = ""
	return idleState{}, nil
}
