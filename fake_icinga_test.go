package bpupload

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// fakeIcinga serves just enough of Icinga Web 2 to drive the client.
type fakeIcinga struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest

	configStatus       int
	uploadStatus       int
	loginRedirect      string
	deleteRedirect     string
	uploadNotification string
}

func newFakeIcinga(t *testing.T) *fakeIcinga {
	f := &fakeIcinga{
		configStatus: http.StatusOK,
		uploadStatus: http.StatusOK,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/icingaweb2", f.record(f.onRoot))
	mux.HandleFunc("/icingaweb2/authentication/login", f.record(f.onLogin))
	mux.HandleFunc("/icingaweb2/businessprocess/process/config", f.record(f.onConfig))
	mux.HandleFunc("/icingaweb2/businessprocess/process/upload", f.record(f.onUpload))
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeIcinga) record(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		f.mu.Unlock()
		next(w, r)
	}
}

func (f *fakeIcinga) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeIcinga) last(method, path string) (recordedRequest, bool) {
	reqs := f.recorded()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return recordedRequest{}, false
}

func tokenPage(field, value string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>Icinga Web 2</title></head>
<body>
<div id="layout"><p>noise <input name="search" value="x"></p>
<form method="post" action="">
<input type="text" name="%[1]sX" value="decoy">
<input type="hidden" name="%[1]s" value="%[2]s">
<input type="hidden" name="%[1]s" value="second">
</form>
</div>
</body></html>`, field, value)
}

func (f *fakeIcinga) onRoot(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, tokenPage("CSRFToken", "login-token"))
}

func (f *fakeIcinga) onLogin(w http.ResponseWriter, r *http.Request) {
	// an expiry makes the cookie persistent, so it survives in a cookie file
	http.SetCookie(w, &http.Cookie{Name: "Icingaweb2", Value: "authed", Path: "/", MaxAge: 3600})
	if f.loginRedirect != "" {
		w.Header().Set("X-Icinga-Redirect", f.loginRedirect)
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeIcinga) onConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if f.configStatus != http.StatusOK {
			w.WriteHeader(f.configStatus)
			return
		}
		fmt.Fprint(w, tokenPage("__FORM_CSRF", "delete-token-"+r.URL.Query().Get("config")))
		return
	}
	if f.deleteRedirect != "" {
		w.Header().Set("X-Icinga-Redirect", f.deleteRedirect)
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeIcinga) onUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if f.uploadStatus != http.StatusOK {
			w.WriteHeader(f.uploadStatus)
			return
		}
		fmt.Fprint(w, tokenPage("__FORM_CSRF", "upload-token"))
		return
	}
	if f.uploadNotification != "" {
		w.Header().Set("X-Icinga-Notification", f.uploadNotification)
	}
	w.WriteHeader(http.StatusOK)
}
