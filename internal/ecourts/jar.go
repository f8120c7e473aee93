package ecourts

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// sessionJar is the cookie jar installed on the http client for its whole lifetime. Starting a
// new session swaps the cookies held inside it, requests in flight see either the old or the
// new cookies.
type sessionJar struct {
	mutex sync.RWMutex
	jar   *cookiejar.Jar
}

func newSessionJar() (*sessionJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &sessionJar{jar: jar}, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mutex.RLock()
	defer j.mutex.RUnlock()
	return j.jar.Cookies(u)
}

// reset drops every cookie.
func (j *sessionJar) reset() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.mutex.Lock()
	j.jar = jar
	j.mutex.Unlock()
	return nil
}
