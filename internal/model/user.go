package model

import "time"

// DashboardUser is an operator account authorized to manage applications,
// uploads, and releases via the dashboard/CLI surface. There is exactly
// one bootstrap account, seeded from ADMIN_BOOTSTRAP_PASSWORD on first
// boot if no row exists.
type DashboardUser struct {
	ID           string `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string `gorm:"uniqueIndex"`
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
