package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldOwnerID    = "owner_id"
	FieldHabitID    = "habit_id"
	FieldTaskID     = "task_id"
	FieldDateKey    = "date_key"
	FieldPeriodKind = "period_kind"
	FieldPeriodKey  = "period_key"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentQuota    = "quota"
	ComponentCalendar = "calendar"
	ComponentSnapshot = "snapshot"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentExport   = "export"
	ComponentCache    = "cache"
)

// Operations defines standard operation names.
const (
	OpRead     = "read"
	OpAppend   = "append"
	OpCheckIn  = "check_in"
	OpBuild    = "build"
	OpRefresh  = "refresh"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
