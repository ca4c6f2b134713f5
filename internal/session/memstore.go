package session

// MemStore is an in-memory session store for tests
type MemStore struct {
	rec           Record
	authenticated bool
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Set(rec Record) error {
	if rec.UserID == "" {
		return ErrMissingUserID
	}
	if rec.Role == "" {
		rec.Role = RoleUser
	}
	s.rec = rec
	s.authenticated = true
	return nil
}

func (s *MemStore) Patch(p Patch) error {
	if p.Name != nil {
		s.rec.Name = *p.Name
	}
	if p.Email != nil {
		s.rec.Email = *p.Email
	}
	if p.Role != nil {
		s.rec.Role = *p.Role
	}
	return nil
}

func (s *MemStore) Clear() error {
	s.rec = Record{}
	s.authenticated = false
	return nil
}

func (s *MemStore) IsAuthenticated() bool {
	return s.authenticated
}

func (s *MemStore) CurrentUserID() (string, bool) {
	if s.rec.UserID == "" {
		return "", false
	}
	return s.rec.UserID, true
}

func (s *MemStore) Current() (Record, bool) {
	return s.rec, s.authenticated
}
