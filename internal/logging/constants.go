package logging

// Standardized field names for structured logging.
const (
	FieldFile        = "file_path"
	FieldRunID       = "run_id"
	FieldComponent   = "component"
	FieldVariant     = "format_variant"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldBatch       = "batch"
	FieldAttempt     = "attempt"
	FieldBackoff     = "backoff_ms"
	FieldBackend     = "backend"
	FieldOperation   = "operation"
	FieldStatus      = "status"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
	FieldCount       = "count"
	FieldOutputFile  = "output_file"
)
