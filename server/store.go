package server

import (
	"time"

	"github.com/patrickmn/go-cache"

	"oem_consult/consult"
)

// sessionStore keeps sessions in memory and drops those idle longer than ttl.
type sessionStore struct {
	cache *cache.Cache
}

func newStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionStore{cache: cache.New(ttl, ttl/6)}
}

func (s *sessionStore) set(sess *consult.Session) {
	s.cache.Set(sess.ID, sess, cache.DefaultExpiration)
}

// touch extends the session's lifetime after activity. A session deleted in
// the meantime stays deleted.
func (s *sessionStore) touch(sess *consult.Session) {
	_ = s.cache.Replace(sess.ID, sess, cache.DefaultExpiration)
}

func (s *sessionStore) get(id string) (*consult.Session, bool) {
	if x, found := s.cache.Get(id); found {
		return x.(*consult.Session), true
	}
	return nil, false
}

func (s *sessionStore) delete(id string) {
	s.cache.Delete(id)
}
