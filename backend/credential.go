package backend

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the access token issued by the backend. It is a signed
// JWT the transports present as-is; the client never verifies it but can
// read claims for display and reconnect decisions.
type Credential string

func (c Credential) claims() (jwt.MapClaims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(string(c), jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("credential: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("credential: unexpected claims type %T", token.Claims)
	}
	return claims, nil
}

// ExpiresAt returns the token expiry. Tokens are typically issued with a
// few hours of validity; a session outliving its token must reconnect.
func (c Credential) ExpiresAt() (time.Time, error) {
	claims, err := c.claims()
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("credential: no expiry claim")
	}
	return exp.Time, nil
}

// Identity returns the transport identity the token was granted for.
func (c Credential) Identity() (string, error) {
	claims, err := c.claims()
	if err != nil {
		return "", err
	}
	grants, ok := claims["grants"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("credential: no grants claim")
	}
	identity, ok := grants["identity"].(string)
	if !ok || identity == "" {
		return "", fmt.Errorf("credential: no identity grant")
	}
	return identity, nil
}
