package session

import (
	"sync"
	"time"
)

// Session is both the authoritative cached record ("Basis") and, when
// decoded from a request, the client-presented claim. The cache owns Basis
// records for the process lifetime; claims are short-lived request values.
//
// Fields assigned at creation (Index, Account, UserID, Signature, Secret,
// Stamp) are never reassigned afterwards. Trust-state fields (OnlineStatus,
// FailureCount, LastConnect, Expired, Validity) are mutated only under the
// record lock by [Session.Compare] and the Cache mutators.
type Session struct {
	mu sync.Mutex

	Index     int    `json:"id"`
	Account   string `json:"account"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName,omitempty"`
	UserType  int    `json:"userType"`
	Mobile    string `json:"mobile,omitempty"`
	DeptID    string `json:"deptId,omitempty"`
	Signature string `json:"signature"`
	MachineID string `json:"machineId,omitempty"`
	OpenID    string `json:"openId,omitempty"`

	Validity     bool      `json:"validity"`
	OnlineStatus bool      `json:"onlineStatus"`
	FailureCount int       `json:"failureCount"`
	LastConnect  time.Time `json:"lastConnect"`
	Expired      time.Time `json:"expired"`

	Stamp  string `json:"stamp,omitempty"`
	Secret string `json:"secret,omitempty"`
}

// AccessToken is the lookup hint a client presents instead of a full claim.
// It only accelerates cache lookup and is never authoritative: the record at
// Index must still match Account.
type AccessToken struct {
	Index   int    `json:"id"`
	Account string `json:"account"`
}

// Info is a copy-safe snapshot of a cached record's profile and presence
// fields, taken under the record lock.
type Info struct {
	Index        int
	Account      string
	UserID       string
	UserName     string
	UserType     int
	Mobile       string
	DeptID       string
	Validity     bool
	OnlineStatus bool
	FailureCount int
	LastConnect  time.Time
	Expired      time.Time
}

// Snapshot returns a consistent copy of the record's observable state.
func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Info{
		Index:        s.Index,
		Account:      s.Account,
		UserID:       s.UserID,
		UserName:     s.UserName,
		UserType:     s.UserType,
		Mobile:       s.Mobile,
		DeptID:       s.DeptID,
		Validity:     s.Validity,
		OnlineStatus: s.OnlineStatus,
		FailureCount: s.FailureCount,
		LastConnect:  s.LastConnect,
		Expired:      s.Expired,
	}
}

// UserRecord is the account row returned by the external user store. It is
// read once per account, on first sight, to populate a Basis record.
type UserRecord struct {
	ID        string
	LoginName string
	Password  string
	Mobile    string
	Name      string
	DeptID    string
	Type      int
	Validity  bool
}
