package agent

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/aicrew/types"
)

// Registry holds the constructed employees, looked up by id or by
// case-insensitive name. It is populated at startup; later mutation goes
// through the single writer lock so concurrent readers always see a
// consistent view.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Employee
	byName map[string]*Employee
	logger *zap.Logger
}

// NewRegistry creates an empty employee registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		byID:   make(map[string]*Employee),
		byName: make(map[string]*Employee),
		logger: logger.With(zap.String("component", "agent_registry")),
	}
}

// Register adds an employee; duplicate ids or names (case-insensitive) are
// refused.
func (r *Registry) Register(e *Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byID[e.ID()]; dup {
		return types.NewError(types.ErrDuplicateName, "employee id already registered: "+e.ID())
	}
	key := nameKey(e.Name())
	if _, dup := r.byName[key]; dup {
		return types.NewError(types.ErrDuplicateName, "employee name already registered: "+e.Name())
	}

	r.byID[e.ID()] = e
	r.byName[key] = e
	r.logger.Info("employee registered",
		zap.String("id", e.ID()),
		zap.String("name", e.Name()),
		zap.Strings("kinds", e.Kinds()),
	)
	return nil
}

// ByID looks an employee up by identifier.
func (r *Registry) ByID(id string) (*Employee, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	return e, ok
}

// ByName looks an employee up by name, case-insensitively and ignoring
// surrounding whitespace.
func (r *Registry) ByName(name string) (*Employee, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[nameKey(name)]
	return e, ok
}

// All returns every registered employee.
func (r *Registry) All() []*Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Employee, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}
	return out
}

// Active returns the employees currently accepting tasks.
func (r *Registry) Active() []*Employee {
	var out []*Employee
	for _, e := range r.All() {
		if e.Active() {
			out = append(out, e)
		}
	}
	return out
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
