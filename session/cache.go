package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/basisauth/basisauth/internal"
)

// UserStore is the external collaborator that resolves an account to its
// credential and profile fields. It is consulted exactly once per account,
// on first sight, under the cache creation guard. A nil record with a nil
// error means the account does not exist.
type UserStore interface {
	GetUser(ctx context.Context, account string) (*UserRecord, error)
}

// Options tunes record creation. Zero values fall back to defaults.
type Options struct {
	// StandardWindow is the initial validity window for regular accounts.
	StandardWindow time.Duration
	// AdminWindow is the (shorter) initial window for type-0 accounts.
	AdminWindow time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

const (
	defaultStandardWindow = 7 * 24 * time.Hour
	defaultAdminWindow    = 24 * time.Hour
)

// Cache is the process-wide registry of Basis records. Records are created
// lazily on first lookup, appended once, and never removed; invalidation is
// expressed through the Validity and OnlineStatus fields.
//
// The creation guard serializes the find-or-create path, including the
// user-store fetch, so at most one record is created per account even when
// first-time lookups race. Slice access itself is protected by a separate
// read-write lock so hot-path scans never wait behind a store fetch.
type Cache struct {
	store UserStore
	opts  Options

	guard sync.Mutex // held across the user-store fetch on miss

	mu   sync.RWMutex // guards recs
	recs []*Session
}

// NewCache creates an empty registry backed by the given user store.
func NewCache(store UserStore, opts Options) *Cache {
	if opts.StandardWindow <= 0 {
		opts.StandardWindow = defaultStandardWindow
	}
	if opts.AdminWindow <= 0 {
		opts.AdminWindow = defaultAdminWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Cache{
		store: store,
		opts:  opts,
	}
}

// Get scans the registry for an existing record by case-insensitive account
// match. It never creates a record; absent accounts return nil.
func (c *Cache) Get(account string) *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scan(account)
}

// scan must be called with mu held.
func (c *Cache) scan(account string) *Session {
	for _, s := range c.recs {
		if strings.EqualFold(s.Account, account) {
			return s
		}
	}
	return nil
}

// Lookup resolves an access token to its Basis record. When the index hint
// is in bounds and the record there matches the token's account, the record
// is returned directly; a stale or out-of-range hint falls back to the
// guarded find, which creates the record from the user store if the account
// has never been seen.
//
// A nil, nil return means the user store has no such account.
func (c *Cache) Lookup(ctx context.Context, tok AccessToken) (*Session, error) {
	c.mu.RLock()
	if tok.Index >= 0 && tok.Index < len(c.recs) {
		if s := c.recs[tok.Index]; strings.EqualFold(s.Account, tok.Account) {
			c.mu.RUnlock()
			return s, nil
		}
	}
	c.mu.RUnlock()

	return c.find(ctx, tok.Account)
}

// find re-checks for an existing record under the creation guard and pulls
// the account from the user store when still absent. Concurrent callers for
// the same unseen account block here until the first fetch completes, then
// observe the record it created.
func (c *Cache) find(ctx context.Context, account string) (*Session, error) {
	c.guard.Lock()
	defer c.guard.Unlock()

	if s := c.Get(account); s != nil {
		return s, nil
	}

	user, err := c.store.GetUser(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("user store lookup for %q: %w", account, err)
	}
	if user == nil {
		return nil, nil
	}

	now := c.opts.Now()
	signature := internal.Signature(user.LoginName, user.Password)

	window := c.opts.StandardWindow
	stamp := ""
	if user.Type == 0 {
		window = c.opts.AdminWindow
		stamp = NewStamp()
	}

	rec := &Session{
		Account:   user.LoginName,
		UserID:    user.ID,
		UserName:  user.Name,
		UserType:  user.Type,
		Mobile:    user.Mobile,
		DeptID:    user.DeptID,
		Signature: signature,
		Validity:  user.Validity,
		Expired:   now.Add(window),
		Stamp:     stamp,
		Secret:    NewSecret(signature),
	}

	c.mu.Lock()
	rec.Index = len(c.recs)
	c.recs = append(c.recs, rec)
	c.mu.Unlock()

	return rec, nil
}

// UpdateProfile refreshes the profile fields of an existing record from the
// given user row. Absent accounts are a no-op.
func (c *Cache) UpdateProfile(user UserRecord) {
	s := c.Get(user.LoginName)
	if s == nil {
		return
	}

	s.mu.Lock()
	s.UserName = user.Name
	s.UserType = user.Type
	s.Mobile = user.Mobile
	s.mu.Unlock()
}

// Offline clears the online flag for an account. Absent accounts are a no-op.
func (c *Cache) Offline(account string) {
	s := c.Get(account)
	if s == nil {
		return
	}

	s.mu.Lock()
	s.OnlineStatus = false
	s.mu.Unlock()
}

// SetValidity enables or disables an account's cached record. Absent
// accounts are a no-op.
func (c *Cache) SetValidity(account string, validity bool) {
	s := c.Get(account)
	if s == nil {
		return
	}

	s.mu.Lock()
	s.Validity = validity
	s.mu.Unlock()
}

// OnlineUsers returns snapshots of all records of the given user type that
// are currently marked online.
func (c *Cache) OnlineUsers(userType int) []Info {
	c.mu.RLock()
	recs := make([]*Session, len(c.recs))
	copy(recs, c.recs)
	c.mu.RUnlock()

	var out []Info
	for _, s := range recs {
		info := s.Snapshot()
		if info.UserType == userType && info.OnlineStatus {
			out = append(out, info)
		}
	}
	return out
}

// Len reports the number of records ever created.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.recs)
}
