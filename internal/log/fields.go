package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldFile       = "file"
	FieldRows       = "rows"
	FieldLines      = "lines"
	FieldPhase      = "phase"
	FieldPercent    = "percent"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentGateway   = "gateway"
	ComponentUpload    = "upload"
	ComponentBudget    = "budget"
	ComponentDashboard = "dashboard"
	ComponentImporter  = "importer"
)

// Operations defines standard operation names
const (
	OpRefresh = "refresh"
	OpResync  = "resync"
	OpSet     = "set"
	OpDelete  = "delete"
	OpUpload  = "upload"
	OpChat    = "chat"
)

// Fields is a builder for structured log attributes.
type Fields map[string]any

// NewFields creates an empty Fields.
func NewFields() Fields {
	return make(Fields)
}

// WithOperation adds the operation field.
func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithError adds the error field when err is non-nil.
func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithRequest adds request fields.
func (f Fields) WithRequest(requestID, method, path string) Fields {
	f[FieldRequestID] = requestID
	f[FieldMethod] = method
	f[FieldPath] = path
	return f
}

// ToSlice converts Fields to slog key/value arguments.
func (f Fields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
