package auth

import (
	"fmt"
	"strings"

	"social-chat/domain"
	"social-chat/errors"
)

// IVerifier resolves an opaque bearer credential into a stable identity.
type IVerifier interface {
	Verify(credential string) (domain.Identity, error)
}

// Verifier validates signed bearer tokens. It holds no state and is safe
// for concurrent use from every connection handler.
type Verifier struct{}

func NewVerifier() Verifier {
	return Verifier{}
}

// Verify accepts the raw token or the standard "Bearer <token>" form.
// An absent credential and a bad one are distinct failures so the transport
// can answer 401 with the right reason.
func (v Verifier) Verify(credential string) (domain.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.Identity{}, errors.ErrMissingCredential
	}

	credential = strings.TrimPrefix(credential, "Bearer ")

	claims, err := ValidateToken(credential)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrInvalidCredential, err)
	}

	return domain.Identity{
		ID:          claims.UserID,
		DisplayName: claims.DisplayName,
	}, nil
}
