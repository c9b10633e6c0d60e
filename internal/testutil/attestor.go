package testutil

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Attestor is a mock local attestor serving POST /token on a unix
// domain socket.
type Attestor struct {
	// Token is returned for any audience.
	Token string

	srv *http.Server
	ln  net.Listener
}

// StartAttestor serves a mock attestor on the given socket path.
func StartAttestor(socketPath, token string) (*Attestor, error) {
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, err
	}

	a := &Attestor{Token: token, ln: ln}

	r := chi.NewRouter()
	r.Post("/token", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Audience string `json:"audience"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Audience == "" {
			writeError(w, http.StatusBadRequest, "missing audience")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": a.Token})
	})

	a.srv = &http.Server{Handler: r}
	go a.srv.Serve(ln)

	return a, nil
}

// Close shuts the attestor down and removes the socket.
func (a *Attestor) Close() error {
	return a.srv.Close()
}
