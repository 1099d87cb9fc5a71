// Package models defines the entities persisted by the storage gateway.
package models

// User is an account. Usernames are unique and case-sensitive; the admin
// flag is only ever set by the seed path.
type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	PasswordDigest string `json:"-"`
	IsAdmin        bool   `json:"isAdmin"`
}
