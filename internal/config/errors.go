package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"

	// Auth errors
	ErrCreateProviderFmt   = "Failed to create provider: %v"
	ErrAuthHeaderRequired  = "Authorization header required"
	ErrInternalServerError = "Internal server error"

	// Config errors
	ErrWriteConfigContentFmt = "Failed to write config content: %v"

	// Draft errors
	ErrUnsavedDraftVersion = "cannot create a version of an unsaved draft"
	ErrLoadDraftFmt        = "Failed to load draft: %v"
	ErrSaveDraftFmt        = "Failed to save draft: %v"

	// Notification errors
	ErrLoadPreferencesFmt = "Failed to load notification preferences: %v"
	ErrSavePreferencesFmt = "Failed to save notification preferences: %v"
)
