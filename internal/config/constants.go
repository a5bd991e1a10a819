package config

import "time"

// ConfigFileEnvVar names the environment variable holding the config file path
const ConfigFileEnvVar = "WASTE_CONFIG_FILE"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout = 60 * time.Second
	AIRequestTimeout   = 30 * time.Second
	ShutdownTimeout    = 30 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days
)

// Server defaults
const (
	DefaultPort           = "8080"
	DefaultSessionSecret  = "change-me-in-production"
	DefaultBodyLimitBytes = 10 << 20 // 10mb
	DefaultServiceName    = "waste-backend"
	DefaultAIModel        = "gemini-2.5-flash"
)

// Seed authority account
const (
	DefaultAuthorityEmail    = "authority@mcc.tn.gov.in"
	DefaultAuthorityPassword = "admin123"
	DefaultAuthorityName     = "Municipal Officer"
)

// Notification constants
const (
	// NotificationListLimit bounds the per-user notification feed
	NotificationListLimit = 20
	// NotificationChannelPrefix is suffixed with the recipient id for pub/sub fan-out
	NotificationChannelPrefix = "notifications:"
)

// Session configuration constants
const (
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	SessionName = "waste-session"
)

// Security configuration constants
const (
	// Content Security Policy; photos are rendered from data URLs
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data: blob:;"
)
