package errors

// Error codes for categorizing errors.
// These codes map to HTTP status codes where applicable.
const (
	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"

	// CodeValidation indicates input validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeConfigError indicates a configuration path or artifact error.
	CodeConfigError = "CONFIG_ERROR"

	// CodeInstallError indicates the installation sequence failed.
	CodeInstallError = "INSTALL_ERROR"

	// CodeRepairError indicates the repair sequence failed.
	CodeRepairError = "REPAIR_ERROR"
)
