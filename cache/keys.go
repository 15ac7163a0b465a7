package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/Keksclan/goRawrStrategy/auth"
	"github.com/Keksclan/goRawrStrategy/strategy"
)

// ByAuthorization returns a KeyFunc keying *auth.Request values by a hash
// of their authorization header, scoped to name. Requests without the
// header, and values of other types, bypass the cache.
func ByAuthorization(name string) KeyFunc {
	return func(req any, _ strategy.Options) (string, bool) {
		r, ok := req.(*auth.Request)
		if !ok {
			return "", false
		}
		header := r.Header("authorization")
		if header == "" {
			return "", false
		}
		sum := sha256.Sum256([]byte(header))
		return "auth:" + name + ":" + hex.EncodeToString(sum[:]), true
	}
}
