package ecourts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"ecourts-casestatus/internal/telemetry"

	"github.com/stretchr/testify/require"
)

const indexPage = `<html><body>
<form>
  <input type="hidden" name="app_token" value="token-0">
  <select id="state_code" name="state_code">
    <option value="0">Select state</option>
    <option value="5">Himachal Pradesh</option>
    <option value="1">Maharashtra</option>
  </select>
</form>
</body></html>`

// fakeUpstream serves the subset of the case status site the client talks to. Handlers are
// keyed by the `p` query parameter for ajax pages and by path for everything else.
type fakeUpstream struct {
	t      *testing.T
	server *httptest.Server

	mutex    sync.Mutex
	pages    map[string]http.HandlerFunc
	files    map[string]http.HandlerFunc
	requests []string
	forms    map[string][]url.Values
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	f := &fakeUpstream{
		t:     t,
		pages: map[string]http.HandlerFunc{},
		files: map[string]http.HandlerFunc{},
		forms: map[string][]url.Values{},
	}
	f.pages["casestatus/index"] = func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(indexPage))
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	handlers := f.files
	if r.URL.Path == "/ecourtindia_v6/" {
		key = r.URL.Query().Get("p")
		handlers = f.pages
	}

	// an unparsable form is recorded as empty and left for the assertions to catch
	_ = r.ParseForm()

	f.mutex.Lock()
	f.requests = append(f.requests, key)
	f.forms[key] = append(f.forms[key], r.PostForm)
	handler, ok := handlers[key]
	f.mutex.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

func (f *fakeUpstream) count(key string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == key {
			n++
		}
	}
	return n
}

func (f *fakeUpstream) lastForm(key string) url.Values {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	forms := f.forms[key]
	if len(forms) == 0 {
		return nil
	}
	return forms[len(forms)-1]
}

func (f *fakeUpstream) json(key string, body map[string]any) {
	f.pages[key] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}
}

func (f *fakeUpstream) client() (*Client, *telemetry.Recorder) {
	rec := telemetry.NewRecorder()
	client, err := NewClient(Config{BaseUrl: f.server.URL}, rec)
	require.NoError(f.t, err)
	return client, rec
}
