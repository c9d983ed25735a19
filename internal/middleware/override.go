package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// maxMultipartMemory bounds the in-memory portion of a parsed multipart
// form; larger file parts spool to disk.
const maxMultipartMemory = 32 << 20

// MethodOverride wraps the router and rewrites POST requests carrying a
// _method form field or an X-HTTP-Method-Override header into the declared
// verb. Browser form posts cannot issue PUT or DELETE directly, so clients
// submit them as POST with the override set. Wrapping happens outside the
// router because the verb must change before route matching.
//
// Reading the field means parsing the form body before any in-router size
// middleware runs, so the body is capped here with MaxBytesReader; a body
// exceeding maxBodySize is rejected with 413 without being read further,
// including chunked requests that declare no Content-Length.
func MethodOverride(next http.Handler, maxBodySize int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			override := r.Header.Get("X-HTTP-Method-Override")
			if override == "" && hasFormBody(r) {
				if !parseBoundedForm(w, r, maxBodySize) {
					return
				}
				override = r.PostForm.Get("_method")
			}

			override = strings.ToUpper(strings.TrimSpace(override))
			switch override {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = override
			}
		}

		next.ServeHTTP(w, r)
	})
}

// parseBoundedForm parses the form body under a hard byte cap. The parsed
// form stays cached on the request, so the routed handler reads the same
// data without touching the body again. Returns false after writing a 413
// when the cap is exceeded.
func parseBoundedForm(w http.ResponseWriter, r *http.Request, maxBodySize int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxMultipartMemory)
	} else {
		err = r.ParseForm()
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":           "REQUEST_TOO_LARGE",
			"message":        "Request body too large",
			"max_size_bytes": maxBodySize,
		})
		return false
	}

	// Other parse errors fall through; the routed handler reports them
	return true
}

func hasFormBody(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data")
}
