package model

import "time"

// BanRecord is an externally persisted moderation decision keyed by display
// name. The external store is the single source of truth for ban status; the
// core only inserts and deactivates records through it.
type BanRecord struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	BannedBy        string     `json:"bannedBy"`
	Reason          string     `json:"reason"`
	DurationMinutes *int       `json:"banDurationMinutes,omitempty"` // nil for permanent
	BanStart        time.Time  `json:"banStart"`
	BanEnd          *time.Time `json:"banEnd,omitempty"` // nil for permanent
	IsPermanent     bool       `json:"isPermanent"`
	IsActive        bool       `json:"isActive"`
}

// PermanentBanMinutes is the sentinel duration clients send for an indefinite ban
const PermanentBanMinutes = 999999

// LoginAttempt is one record for the login audit endpoint
type LoginAttempt struct {
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"isAdmin"`
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`
}
