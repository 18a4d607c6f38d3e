package log

import (
	"net/http"
	"time"
)

// Attribute keys shared by every component.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldKey       = "key"
	FieldCount     = "count"
)

// HTTP attribute keys.
const (
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldUserAgent  = "user_agent"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
)

// Journal attribute keys.
const (
	FieldRecordID = "record_id"
	FieldCategory = "category"
	FieldAmount   = "amount"
	FieldPeriod   = "period"
	FieldMonth    = "month"
)

const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentHTTP      = "http"
	ComponentTrace     = "trace"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentJournal   = "journal"
	ComponentDashboard = "dashboard"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
	ComponentStorage   = "storage"
	ComponentSheets    = "sheets"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
)

const (
	OpCreate   = "create"
	OpDelete   = "delete"
	OpValidate = "validate"
	OpSync     = "sync"
)

// Fields collects key/value pairs in the order they were added, ready to be
// passed to slog as variadic args.
type Fields []any

func NewFields() Fields {
	return make(Fields, 0, 12)
}

func (f Fields) WithComponent(component string) Fields {
	return append(f, FieldComponent, component)
}

func (f Fields) WithOperation(op string) Fields {
	return append(f, FieldOperation, op)
}

// WithError is a no-op for a nil error.
func (f Fields) WithError(err error) Fields {
	if err == nil {
		return f
	}
	return append(f, FieldError, err.Error())
}

// WithRecord omits the id of a record that has none yet.
func (f Fields) WithRecord(id, category string, amount float64) Fields {
	if id != "" {
		f = append(f, FieldRecordID, id)
	}
	return append(f, FieldCategory, category, FieldAmount, amount)
}

// WithRequest records method and path, plus the query when present.
func (f Fields) WithRequest(r *http.Request) Fields {
	f = append(f, FieldMethod, r.Method, FieldPath, r.URL.Path)
	if r.URL.RawQuery != "" {
		f = append(f, FieldQuery, r.URL.RawQuery)
	}
	return f
}

func (f Fields) WithResponse(status int, elapsed time.Duration) Fields {
	return append(f, FieldStatusCode, status, FieldDuration, elapsed.Milliseconds())
}

func (f Fields) WithClientIP(ip string) Fields {
	if ip == "" {
		return f
	}
	return append(f, FieldClientIP, ip)
}

// Args returns f as slog arguments.
func (f Fields) Args() []any {
	return f
}
