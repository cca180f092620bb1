package domain

import "time"

// HostedDomain is a DNS domain managed through the admin API. Plain CRUD,
// no behaviour attached.
type HostedDomain struct {
	ID        string
	Name      string // unique, stored lowercased
	CreatedAt time.Time
}
