package entra

import (
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// RoleChannelMessageReadAll is the application permission change notifications
// for /teams/getAllMessages depend on
const RoleChannelMessageReadAll = "ChannelMessage.Read.All"

// Roles lists the application roles granted in accessToken.
// The signature is not checked; Graph does that on every call.
func Roles(accessToken string) ([]string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}

	raw, ok := claims["roles"]
	if !ok {
		return nil, nil
	}
	values, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected roles claim type %T", raw)
	}
	roles := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles, nil
}

func HasRole(accessToken, role string) (bool, error) {
	roles, err := Roles(accessToken)
	if err != nil {
		return false, err
	}
	return slices.Contains(roles, role), nil
}
