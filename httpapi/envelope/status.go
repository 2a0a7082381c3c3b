package envelope

import (
	"net/http"

	"github.com/corekv/corekv/kverrors"
)

// StatusFor maps an error Kind to its HTTP status. This is the one place
// that mapping lives for errors passed through FailErr; handlers that fail
// without a kverrors error (malformed body, key not found) pass an explicit
// status to Fail.
func StatusFor(kind kverrors.Kind) int {
	switch kind {
	case kverrors.ValidationFailure:
		return http.StatusBadRequest
	case kverrors.NotFound:
		return http.StatusNotFound
	case kverrors.RateLimited:
		return http.StatusTooManyRequests
	case kverrors.IoFailure, kverrors.CorruptEntry, kverrors.Unavailable:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// FailErr writes err through Fail, deriving both the status and the error
// kind string from err itself via kverrors.KindOf.
func FailErr(w http.ResponseWriter, err error) {
	kind := kverrors.KindOf(err)
	Fail(w, StatusFor(kind), string(kind), err.Error())
}
