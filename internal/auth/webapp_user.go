package auth

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// WebAppUser — поле user из initData.
type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ParseWebAppUser достаёт пользователя из провалидированного initData.
func ParseWebAppUser(vals url.Values) (*WebAppUser, error) {
	raw := vals.Get("user")
	if raw == "" {
		return nil, fmt.Errorf("user is missing from initData")
	}
	var u WebAppUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("invalid user json: %w", err)
	}
	if u.ID == 0 {
		return nil, fmt.Errorf("user id is missing")
	}
	return &u, nil
}
