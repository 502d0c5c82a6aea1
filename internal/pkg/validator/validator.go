package validator

// Validator validates tagged structs and reports per-field failures.
type Validator interface {
	Validate(data any) error
}
