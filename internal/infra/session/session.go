// Package session keeps per-client state between requests.
//
// A Session holds the logged in user ID and one-shot flash messages. Stores
// decide where the state lives: CookieStore signs it into the cookie itself,
// RedisStore keeps it server side behind an opaque ID.
package session

// data is the persisted part of a session.
type data struct {
	UserID  *int64   `json:"user_id,omitempty"`
	Flashes []string `json:"flashes,omitempty"`
}

func (d data) empty() bool {
	return d.UserID == nil && len(d.Flashes) == 0
}

// Session is the state of one client. It is not safe for concurrent use;
// each request works on its own copy.
type Session struct {
	id       string
	data     data
	modified bool
	renew    bool
}

// New returns an empty, unsaved session.
func New() *Session {
	return &Session{}
}

// ID returns the server-side identifier, empty for stores that keep no server state.
func (s *Session) ID() string {
	return s.id
}

// UserID returns the logged in user, if any.
func (s *Session) UserID() (int64, bool) {
	if s.data.UserID == nil {
		return 0, false
	}

	return *s.data.UserID, true
}

// SetUserID marks the session as logged in as id.
func (s *Session) SetUserID(id int64) {
	s.data.UserID = &id
	s.modified = true
}

// Clear drops all values. The next save issues a new session identifier.
func (s *Session) Clear() {
	s.data = data{}
	s.modified = true
	s.renew = true
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(msg string) {
	s.data.Flashes = append(s.data.Flashes, msg)
	s.modified = true
}

// PopFlashes returns and removes the queued messages.
func (s *Session) PopFlashes() []string {
	flashes := s.data.Flashes
	if len(flashes) > 0 {
		s.data.Flashes = nil
		s.modified = true
	}

	return flashes
}

// Modified reports whether the session changed since it was loaded.
func (s *Session) Modified() bool {
	return s.modified
}

// IsEmpty reports whether there is anything worth persisting.
func (s *Session) IsEmpty() bool {
	return s.data.empty()
}

func (s *Session) saved(id string) {
	s.id = id
	s.modified = false
	s.renew = false
}
