package middleware

import (
	"log"
	"net/http"
	"runtime/debug"
)

// JSONRecoverer turns a handler panic into {"ok":false,"error":"Server error"}.
func JSONRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			log.Printf("❌ [HTTP] panic em %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"ok":false,"error":"Server error"}` + "\n"))
		}()

		next.ServeHTTP(w, r)
	})
}
