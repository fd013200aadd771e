package domain

import "time"

// SessionState: сессия оператора консоли. Очищается явно при logout.
type SessionState struct {
	ID           string    `json:"id"`
	UserID       *string   `json:"user_id,omitempty"`
	Permissions  []string  `json:"permissions"`
	LastActivity time.Time `json:"last_activity"`
}

// HasPermission проверяет право; "admin" разрешает всё.
func (s SessionState) HasPermission(p string) bool {
	for _, have := range s.Permissions {
		if have == p || have == "admin" {
			return true
		}
	}
	return false
}
