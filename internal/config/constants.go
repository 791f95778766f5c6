package config

// Defaults that tests and the config generator compare against.
const (
	DefaultVersion            = "1"
	DefaultSiteName           = "Stakeados"
	DefaultServerHost         = "0.0.0.0"
	DefaultServerPort         = "12700"
	DefaultLocale             = "en"
	DefaultAutosaveIntervalMS = 30000
	DefaultDigest             = "weekly"
	DefaultTimezone           = "UTC"
	DefaultQuietStart         = "22:00"
	DefaultQuietEnd           = "08:00"
)

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"

	CTypeHTML = "text/html"
	CTypeJSON = "application/json"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)

const (
	CookieDraftID = "draft-id"
)
