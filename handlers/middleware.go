package handlers

import (
	"net/http"
	"time"

	"github.com/urfave/negroni"
)

// RequestLogger returns a negroni middleware that logs each request at
// debug level with method, path, status and duration.
func RequestLogger() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		t0 := time.Now()
		next(w, r)

		status := 0
		if nrw, ok := w.(negroni.ResponseWriter); ok {
			status = nrw.Status()
		}

		logger.Debugf("%v %v: %v [%v ms]", r.Method, r.URL.Path, status, time.Since(t0).Milliseconds())
	}
}
