package signup

import (
	"time"

	"github.com/go-signup-api/internal/domain"
)

// userEntry and companyEntry are pending registrations awaiting OTP
// confirmation. They are immutable once stored: created by issue, removed by
// either a successful confirm or the expiry sweeper.
type userEntry struct {
	otp        string
	registrant domain.CreateUserRequest
}

type companyEntry struct {
	otp        string
	registrant domain.CreateCompanyRequest
}

// queueItem is a lightweight reference into the pending store. The queue owns
// only the key, never the registrant payload, so a reference left behind by a
// confirmed entry is harmless.
type queueItem struct {
	key      string
	kind     domain.Kind
	issuedAt time.Time
}

// pendingStore holds the per-kind pending registrations keyed by their opaque
// issued key. It does no locking; the owning service serializes access.
type pendingStore struct {
	users     map[string]userEntry
	companies map[string]companyEntry
}

func newPendingStore() *pendingStore {
	return &pendingStore{
		users:     make(map[string]userEntry),
		companies: make(map[string]companyEntry),
	}
}

func (p *pendingStore) putUser(key string, e userEntry)       { p.users[key] = e }
func (p *pendingStore) putCompany(key string, e companyEntry) { p.companies[key] = e }

func (p *pendingStore) getUser(key string) (userEntry, bool) {
	e, ok := p.users[key]
	return e, ok
}

func (p *pendingStore) getCompany(key string) (companyEntry, bool) {
	e, ok := p.companies[key]
	return e, ok
}

// remove deletes the entry for (kind, key) if present. It reports whether an
// entry was actually removed so the sweeper can tell expiries apart from
// already-confirmed ghosts.
func (p *pendingStore) remove(kind domain.Kind, key string) bool {
	switch kind {
	case domain.KindUser:
		if _, ok := p.users[key]; ok {
			delete(p.users, key)
			return true
		}
	case domain.KindCompany:
		if _, ok := p.companies[key]; ok {
			delete(p.companies, key)
			return true
		}
	}
	return false
}

func (p *pendingStore) keyExists(kind domain.Kind, key string) bool {
	switch kind {
	case domain.KindUser:
		_, ok := p.users[key]
		return ok
	case domain.KindCompany:
		_, ok := p.companies[key]
		return ok
	}
	return false
}

// userEmailPending reports whether any pending user registration already
// references the given email. Linear scan; the pending set is small and
// short-lived.
func (p *pendingStore) userEmailPending(email string) bool {
	for _, e := range p.users {
		if e.registrant.Email == email {
			return true
		}
	}
	return false
}

func (p *pendingStore) companyEmailPending(email string) bool {
	for _, e := range p.companies {
		if e.registrant.Email == email {
			return true
		}
	}
	return false
}
