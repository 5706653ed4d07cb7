package domain

import "time"

// AdminEmail is a whitelist entry. Registering with a whitelisted address
// grants admin status automatically; the check happens once, at
// registration time.
type AdminEmail struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
