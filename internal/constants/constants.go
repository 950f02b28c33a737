package constants

// Session and context keys
const (
	SessionCookieName = "task_session"
	ContextKeyUserID  = "user_id"
	ContextKeyUser    = "user"
	ContextKeyRequest = "request_id"
	ContextKeyParamID = "param_id"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Validation
const (
	MinPasswordLength   = 6
	MaxTitleLength      = 255
	MaxAIGeneratedTasks = 20
	MaxUploadFiles      = 10
	MaxUploadFileBytes  = 10 << 20
)

// ReadAllNotices is the target value that marks every notice as read.
const ReadAllNotices = "all"
