package utils

import (
	"time"
)

// Request-scoped context keys
type ContextKey string

const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
	UsernameKey   ContextKey = "username"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Capture and allocation constants
const (
	// DefaultUsername is stamped on audit fields when the caller is anonymous
	DefaultUsername = "default_user"

	// UsernameHeader carries the acting username
	UsernameHeader = "X-Username"

	// IdempotencyKeyHeader identifies one logical generation batch
	IdempotencyKeyHeader = "Idempotency-Key"

	// BatchGuardTTL is how long a generation batch key stays reserved
	BatchGuardTTL = 24 * time.Hour

	// ExcelContentType is the MIME type of exported workbooks
	ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
