package models

// Fallback category assigned to descriptions nobody could resolve.
const CategoryOther = "Other"

// File permissions
const (
	PermissionDataFile  = 0644
	PermissionDirectory = 0750
)
