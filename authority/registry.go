package authority

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Registry is an in-memory authorization oracle: it maps users and
// departments to the action identifiers they may perform. It satisfies the
// engine's Authority interface and is intended for deployments whose grant
// set fits in memory; larger systems implement Authority against their own
// permission backend.
//
// Grants are registered during startup and then frozen. A frozen registry
// is safe for concurrent Identify calls.
type Registry struct {
	mu     sync.RWMutex
	frozen bool

	root  map[string]struct{}
	users map[string]map[string]struct{}
	depts map[string]map[string]struct{}
}

// NewRegistry creates an empty grant registry.
func NewRegistry() *Registry {
	return &Registry{
		root:  make(map[string]struct{}),
		users: make(map[string]map[string]struct{}),
		depts: make(map[string]map[string]struct{}),
	}
}

// GrantRoot gives the user unrestricted access: Identify allows every
// action for it.
func (r *Registry) GrantRoot(userID string) error {
	if userID == "" {
		return errors.New("user id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}
	r.root[userID] = struct{}{}
	return nil
}

// GrantUser allows the user to perform the given actions. Action
// identifiers must be well-formed GUIDs; they are stored in canonical form
// so lookups are insensitive to case and brace variants.
func (r *Registry) GrantUser(userID string, actionIDs ...string) error {
	if userID == "" {
		return errors.New("user id cannot be empty")
	}
	return r.grant(r.users, userID, actionIDs)
}

// GrantDept allows every member of the department to perform the given
// actions.
func (r *Registry) GrantDept(deptID string, actionIDs ...string) error {
	if deptID == "" {
		return errors.New("department id cannot be empty")
	}
	return r.grant(r.depts, deptID, actionIDs)
}

func (r *Registry) grant(grants map[string]map[string]struct{}, key string, actionIDs []string) error {
	canonical := make([]string, 0, len(actionIDs))
	for _, raw := range actionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return errors.New("action id must be a GUID")
		}
		canonical = append(canonical, id.String())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}

	set := grants[key]
	if set == nil {
		set = make(map[string]struct{}, len(canonical))
		grants[key] = set
	}
	for _, id := range canonical {
		set[id] = struct{}{}
	}
	return nil
}

// Freeze prevents further grants. Must be called before the registry is
// handed to the engine.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Identify reports whether the user, directly or through its department,
// holds the action. It never returns an error; the error return exists to
// satisfy the Authority interface.
func (r *Registry) Identify(_ context.Context, userID, deptID, actionID string) (bool, error) {
	id, err := uuid.Parse(actionID)
	if err != nil {
		return false, nil
	}
	action := id.String()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.root[userID]; ok {
		return true, nil
	}
	if set, ok := r.users[userID]; ok {
		if _, ok := set[action]; ok {
			return true, nil
		}
	}
	if set, ok := r.depts[deptID]; ok {
		if _, ok := set[action]; ok {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of principals holding at least one grant.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.root) + len(r.users) + len(r.depts)
}

// NormalizeAction returns the canonical form of an action identifier, or
// false when it is not a well-formed GUID.
func NormalizeAction(raw string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
