package services

import "fmt"

// AccountState is where one customer identity stands from the service's
// point of view.
type AccountState int

const (
	Anonymous AccountState = iota
	Registered
	Authenticated
)

func (s AccountState) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Registered:
		return "registered"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("AccountState(%d)", int(s))
	}
}

// Operation is a service call made on behalf of an identity.
type Operation int

const (
	OpRegister Operation = iota
	OpLogin
	OpGetBalance
	OpLogout
)

// Snapshot is what is known about one identity between two service calls.
type Snapshot struct {
	State AccountState
	// TokenLive is set while the identity holds a token that has not expired.
	// Logging out does not clear it.
	TokenLive bool
}

// Call is one operation together with the inputs that decide its outcome.
type Call struct {
	Op Operation
	// PasswordMatches applies to OpLogin.
	PasswordMatches bool
}

// Expect returns whether AuthService accepts c for an identity in snapshot s
// and the state the identity is left in. A rejected call leaves the state
// unchanged.
func Expect(s Snapshot, c Call) (accepted bool, next AccountState) {
	switch c.Op {
	case OpRegister:
		if s.State == Anonymous {
			return true, Registered
		}
	case OpLogin:
		if s.State != Anonymous && c.PasswordMatches {
			return true, Authenticated
		}
	case OpGetBalance:
		return s.TokenLive, s.State
	case OpLogout:
		if s.State == Authenticated {
			return true, Registered
		}
		return true, s.State
	}
	return false, s.State
}
