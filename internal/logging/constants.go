package logging

// Standardized field names for structured logging.
const (
	FieldFile          = "file_path"
	FieldTransactionID = "transaction_id"
	FieldAccount       = "account"
	FieldCategory      = "category"
	FieldProvider      = "provider"
	FieldDirection     = "direction"
	FieldCounterparty  = "counterparty"
	FieldMerchant      = "merchant"
	FieldSource        = "source"
	FieldPattern       = "pattern"
	FieldFingerprint   = "fingerprint"
	FieldBatchID       = "batch_id"
	FieldBatchSize     = "batch_size"
	FieldAttempt       = "attempt"
	FieldBackend       = "backend"
	FieldModel         = "model"
	FieldReason        = "reason"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldDuration      = "duration_ms"
	FieldCount         = "count"
	FieldDryRun        = "dry_run"
)
