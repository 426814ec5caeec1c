package chat

import "fmt"

// UserAccount is created once from the credential store and never deleted.
// Online and Address follow the session lifecycle.
type UserAccount struct {
	Username     string
	PasswordHash string `json:"-"`
	Online       bool
	Address      string
}

func (a UserAccount) String() string {
	return fmt.Sprintf("Username: %s | %s", a.Username, a.Status())
}

func (a UserAccount) Status() string {
	if a.Online {
		return "online"
	}
	return "offline"
}
