package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldUserID     = "user_id"
	FieldUsername   = "username"
	FieldAmount     = "amount"
	FieldBalance    = "balance"
	FieldCategory   = "category"
	FieldAction     = "action"
	FieldFilter     = "filter"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentAuth    = "auth"
	ComponentWallet  = "wallet"
	ComponentStorage = "storage"
	ComponentExport  = "export"
)
