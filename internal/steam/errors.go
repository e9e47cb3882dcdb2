package steam

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies why a library could not be fetched.
type FetchErrorKind string

const (
	// KindTransport covers network failures and 5xx responses. The only retryable kind.
	KindTransport FetchErrorKind = "transport"
	// KindRejected is a 4xx answer, typically a bad API key.
	KindRejected FetchErrorKind = "rejected"
	// KindMalformed means the body did not decode into the expected shape.
	KindMalformed FetchErrorKind = "malformed"
	// KindPrivateProfile is returned when Steam hides the library of the user.
	KindPrivateProfile FetchErrorKind = "private_profile"
)

type FetchError struct {
	Kind    FetchErrorKind
	SteamID string
	Status  int
	Err     error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("steam fetch %s", e.Kind)
	if e.SteamID != "" {
		msg += " steamid=" + e.SteamID
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether a caller may try the same request again.
func (e *FetchError) Retryable() bool { return e.Kind == KindTransport }

var (
	ErrVanityNotFound = errors.New("steam vanity name not found")
	ErrInvalidSteamID = errors.New("invalid steam id")
)

// KindOf returns the FetchErrorKind wrapped in err, or "" when err is not a FetchError.
func KindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
