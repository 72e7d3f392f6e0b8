package utils

import (
	"time"
)

// ContextKey is the type used for request-scoped context values.
type ContextKey string

// Context keys set by handlers when building a request context.
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
	ShopIDKey     ContextKey = "shop_id"
)

// Token and session time constants
const (
	// SessionTokenTTL is the time-to-live for merchant session tokens (24 hours)
	SessionTokenTTL = 24 * time.Hour

	// SessionTokenTTLSeconds is the session token TTL in seconds
	SessionTokenTTLSeconds = 86400
)

// Remote aggregation constants
const (
	// RemotePageSize is the number of records requested per Admin API page
	RemotePageSize = 250

	// AggregationRecordCap bounds how many records a single aggregation will
	// pull across pages. Hitting the cap marks the result as truncated.
	AggregationRecordCap = 1000

	// SegmentPreviewDebounce is the window the UI must wait between live
	// preview re-queries while the merchant edits filter selections.
	SegmentPreviewDebounce = 500 * time.Millisecond
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
