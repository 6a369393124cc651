package users

const (
	MinPasswordLength = 8
	// bcrypt ignores input past 72 bytes and rejects it outright.
	MaxPasswordLength = 72
	MaxNameLength     = 200
)
