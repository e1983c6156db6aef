package rest

import "fmt"

// Credentials controls whether credentials (the Authorization header,
// cookies) are sent with a request.
type Credentials string

const (
	// CredentialsOmit never sends credentials.
	CredentialsOmit Credentials = "omit"

	// CredentialsSameOrigin sends credentials only when the request targets
	// the origin of the client's base URL. This is the default.
	CredentialsSameOrigin Credentials = "same-origin"

	// CredentialsInclude always sends credentials.
	CredentialsInclude Credentials = "include"
)

// Valid reports whether c is one of the known modes.
func (c Credentials) Valid() bool {
	switch c {
	case CredentialsOmit, CredentialsSameOrigin, CredentialsInclude:
		return true
	}
	return false
}

func (c Credentials) String() string {
	return string(c)
}

// ParseCredentials converts a token such as "same-origin" into a Credentials
// value. Unknown tokens return an error wrapping ErrInvalidCredentials.
func ParseCredentials(s string) (Credentials, error) {
	c := Credentials(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q (want omit, same-origin or include)", ErrInvalidCredentials, s)
	}
	return c, nil
}
