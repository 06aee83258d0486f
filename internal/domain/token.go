package domain

// TokenPair holds the access/refresh JWTs minted on successful verification.
// Both are self-contained — there is no server-side session or revocation list.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
