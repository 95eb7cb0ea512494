package token

import (
	"sync"

	"github.com/sgx-protocol/goapi/domain"
)

// Registry resolves token addresses to their ledgers and owns the single
// lock that serializes mutations across the staking graph. A state change
// that spans several ledgers (stake, compound, account transfer) runs as one
// critical section, so a reader never observes a half-applied sequence.
type Registry struct {
	mu     sync.RWMutex
	tokens map[domain.Address]Token
}

func NewRegistry() *Registry {
	return &Registry{tokens: make(map[domain.Address]Token)}
}

func (r *Registry) Register(t Token) {
	r.tokens[t.TokenAddress()] = t
}

func (r *Registry) Resolve(address domain.Address) (Token, error) {
	t, ok := r.tokens[address.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// Locked runs fn holding the write lock. Usecase methods never take the lock
// themselves; the outermost caller wraps the whole operation.
func (r *Registry) Locked(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// RLocked runs fn holding the read lock. Safe only for pure views.
func (r *Registry) RLocked(fn func() error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn()
}
