package models

// VerificationState is the lifecycle of a PropertyDetails record.
type VerificationState string

const (
	StateUnverified VerificationState = "unverified"
	StateVerified   VerificationState = "verified"
)

// CanTransitionTo reports whether next is reachable in one step. There is a
// single directed edge and no way back.
func (s VerificationState) CanTransitionTo(next VerificationState) bool {
	return s == StateUnverified && next == StateVerified
}

func (s VerificationState) String() string {
	return string(s)
}
