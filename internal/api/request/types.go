package request

// LoginLogRequest is the request body for recording a login attempt
type LoginLogRequest struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// AdminBanRequest is the request body for issuing a ban
type AdminBanRequest struct {
	Username   string `json:"username"`
	BanMinutes *int   `json:"banMinutes,omitempty"` // nil means permanent
	Reason     string `json:"reason,omitempty"`
	BannedBy   string `json:"bannedBy,omitempty"`
}
