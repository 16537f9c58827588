package adapters

import (
	"sync"

	"dropshipping-service/internal/models"
)

// Factory builds an adapter bound to one supplier account
type Factory func(account *models.SupplierAccount, gate *RequestGate) (SupplierAdapter, error)

// Registry maps supplier platform types to adapter factories. Adding a new
// platform means registering a factory, nothing else.
type Registry struct {
	mu        sync.RWMutex
	factories map[models.SupplierType]Factory
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[models.SupplierType]Factory)}
}

// Register binds a supplier type to its adapter factory
func (r *Registry) Register(t models.SupplierType, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[t] = f
}

// New builds an adapter for the given account, or fails with
// UnsupportedSupplierError when the type has no factory
func (r *Registry) New(account *models.SupplierAccount, gate *RequestGate) (SupplierAdapter, error) {
	r.mu.RLock()
	f, ok := r.factories[account.SupplierType]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedSupplierError{SupplierType: string(account.SupplierType)}
	}
	return f(account, gate)
}

// Types lists the registered supplier types
func (r *Registry) Types() []models.SupplierType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]models.SupplierType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}
