package auth

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// PINLength is fixed: the keypad auto-submits on the fourth digit.
const PINLength = 4

var (
	ErrWrongPin    = errors.New("wrong pin")
	ErrLocked      = errors.New("too many failed attempts")
	ErrUnknownRole = errors.New("unknown role")
)

// Gate is the shared-device access gate: one PIN per role, no per-user
// identity. It also models the keypad buffer so the full entry state
// machine (LoggedOut -> Authenticating -> role) lives in one place.
type Gate struct {
	mu      sync.Mutex
	secrets map[Role][]byte // bcrypt hashes

	maxAttempts int
	lockout     time.Duration

	buffer      []byte
	bufferRole  Role
	failures    int
	lockedUntil time.Time
	now         func() time.Time
}

// GateConfig carries the configured secrets and the lockout policy.
// MaxAttempts <= 0 or Lockout <= 0 disables lockout entirely.
type GateConfig struct {
	AdminPINHash []byte
	StaffPINHash []byte
	MaxAttempts  int
	Lockout      time.Duration
}

func NewGate(cfg GateConfig) *Gate {
	return &Gate{
		secrets: map[Role][]byte{
			RoleAdmin: cfg.AdminPINHash,
			RoleStaff: cfg.StaffPINHash,
		},
		maxAttempts: cfg.MaxAttempts,
		lockout:     cfg.Lockout,
		now:         time.Now,
	}
}

// Press feeds one keypad digit into the buffer for an attempt at the given
// role. It returns done=false while the entry is still short of PINLength;
// on the fourth digit the buffered PIN is checked and the buffer cleared
// either way. Switching the role mid-entry discards the partial entry.
func (g *Gate) Press(role Role, digit byte) (done bool, err error) {
	if digit < '0' || digit > '9' {
		return false, errors.New("keypad accepts digits only")
	}

	g.mu.Lock()
	if role != g.bufferRole {
		g.buffer = nil
		g.bufferRole = role
	}
	g.buffer = append(g.buffer, digit)
	if len(g.buffer) < PINLength {
		g.mu.Unlock()
		return false, nil
	}
	pin := string(g.buffer)
	g.buffer = nil
	g.mu.Unlock()

	return true, g.Unlock(role, pin)
}

// Unlock checks a complete PIN against the configured secret for the role.
// A mismatch reports ErrWrongPin and leaves no trace beyond the failure
// counter; role state is the caller's to change only on nil error.
func (g *Gate) Unlock(role Role, pin string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.lockoutActive() {
		return ErrLocked
	}

	hash, ok := g.secrets[role]
	if !ok || len(hash) == 0 {
		return ErrUnknownRole
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(pin)); err != nil {
		g.failures++
		if g.maxAttempts > 0 && g.lockout > 0 && g.failures >= g.maxAttempts {
			g.lockedUntil = g.now().Add(g.lockout)
			g.failures = 0
		}
		return ErrWrongPin
	}

	g.failures = 0
	return nil
}

// Reset clears a partial keypad entry (user backed out of the modal).
func (g *Gate) Reset() {
	g.mu.Lock()
	g.buffer = nil
	g.mu.Unlock()
}

func (g *Gate) lockoutActive() bool {
	if g.lockedUntil.IsZero() {
		return false
	}
	if g.now().Before(g.lockedUntil) {
		return true
	}
	g.lockedUntil = time.Time{}
	return false
}

// HashPIN prepares a configured secret for the gate. Values that already
// look like bcrypt hashes are used as-is so operators can avoid keeping
// the plain PIN in the environment.
func HashPIN(value string) ([]byte, error) {
	if len(value) > 3 && value[0] == '$' && value[1] == '2' {
		return []byte(value), nil
	}
	return bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
}
