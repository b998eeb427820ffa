// internal/app/features/shared/body.go
package shared

import (
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"github.com/dalemusser/groupsched/internal/app/system/inputval"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

// ReadBody reads the request body, refusing anything over MaxBodyBytes.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return nil, inputval.Invalid("", "request body exceeds %d bytes", MaxBodyBytes)
	}
	if err != nil {
		return nil, inputval.Invalid("", "unreadable request body")
	}
	return body, nil
}

// DecodeJSON reads and decodes a closed JSON object into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := ReadBody(w, r)
	if err != nil {
		return err
	}
	return inputval.Decode(body, dst)
}

// Actor returns the signed-in user's id, or "" when nobody is signed in.
func Actor(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.UserID
	}
	return ""
}
