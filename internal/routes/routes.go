// Package routes wires the HTTP API for the editor and notification
// preferences.
package routes

// API Routes
const (
	RobotsPath = "/robots.txt"

	// SSE
	SSEPath = "/sse"

	// Editor sessions
	EditorSessions       = "/api/editor/sessions"
	EditorSession        = "/api/editor/sessions/{id}"
	EditorSessionSave    = "/api/editor/sessions/{id}/save"
	EditorSessionPublish = "/api/editor/sessions/{id}/publish"
	EditorSessionVersion = "/api/editor/sessions/{id}/versions"
	EditorSessionStatus  = "/api/editor/sessions/{id}/status"

	// Articles
	APIArticle         = "/api/articles/{id}"
	APIArticleVersions = "/api/articles/{id}/versions"

	// Preview
	PartialsPreview = "/partials/preview"

	// Notification preferences
	APIPreferences           = "/api/preferences"
	APIPreferencesReset      = "/api/preferences/reset"
	APIPreferencesExport     = "/api/preferences/export"
	APIPreferencesImport     = "/api/preferences/import"
	APIPreferencesQuietHours = "/api/preferences/quiet-hours"
	APITimezones             = "/api/timezones"
)
