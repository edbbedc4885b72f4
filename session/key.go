package session

import (
	"strings"

	"github.com/MrEthical07/goSession/jwt"
)

// KeySeparator joins the subject id and the signature segment in a derived key.
const KeySeparator = "_"

// DeriveKey maps (uid, token) to the key of the session record: uid + "_" + the token's
// signature segment. The signature changes on every issuance, so two tokens for the same
// subject address disjoint records while byte-identical tokens always share one.
//
// DeriveKey is pure; it performs no verification and no store access.
func DeriveKey(uid, token string) (string, error) {
	if strings.TrimSpace(uid) == "" {
		return "", ErrMalformedToken
	}
	_, _, signature, ok := jwt.Segments(token)
	if !ok || signature == "" {
		return "", ErrMalformedToken
	}
	return uid + KeySeparator + signature, nil
}
