package domain

import "time"

// AdminRole is the protected role name. It cannot be renamed or deleted, and
// at least one account must hold it at all times.
const AdminRole = "admin"

type Role struct {
	ID        string
	Name      string // unique, stored lowercased
	Members   int    // number of accounts holding the role
	CreatedAt time.Time
	UpdatedAt time.Time
}
