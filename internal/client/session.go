package client

import "sync"

// Session holds the bearer token for one signed-in user. It is passed to
// the Client explicitly; there is no process-wide current user.
type Session struct {
	mu    sync.RWMutex
	token string
}

func NewSession(token string) *Session {
	return &Session{token: token}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear signs the session out.
func (s *Session) Clear() { s.SetToken("") }

func (s *Session) SignedIn() bool { return s.Token() != "" }
