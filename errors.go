package dynamotools

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeSetup            = "SETUP_ERROR"
	ErrCodeDefinition       = "DEFINITION_ERROR"
	ErrCodeBatchWriteFailed = "BATCH_WRITE_FAILED"
	ErrCodeFixture          = "FIXTURE_ERROR"
)

// ToolsError represents a failure raised by table setup or seeding
type ToolsError struct {
	Code    string
	Message string
	Table   string
	Err     error
}

// Error implements the error interface
func (e *ToolsError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Table != "" {
		msg = fmt.Sprintf("%s (table: %s)", msg, e.Table)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause
func (e *ToolsError) Unwrap() error {
	return e.Err
}

// NewToolsError creates a new error with the given code
func NewToolsError(code, message string) *ToolsError {
	return &ToolsError{
		Code:    code,
		Message: message,
	}
}

// WithTable records the table the error relates to
func (e *ToolsError) WithTable(table string) *ToolsError {
	e.Table = table
	return e
}

// WithCause wraps an underlying error
func (e *ToolsError) WithCause(err error) *ToolsError {
	e.Err = err
	return e
}

// HasCode reports whether err is a ToolsError carrying code
func HasCode(err error, code string) bool {
	var te *ToolsError
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// IsNotFound reports whether err means the table does not exist
func IsNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}

// IsAlreadyExists reports whether err means the table already exists or is
// still transitioning (DynamoDB reports both as ResourceInUseException)
func IsAlreadyExists(err error) bool {
	var inUse *types.ResourceInUseException
	return errors.As(err, &inUse)
}

// BatchFailure describes one write batch that could not be fully applied
type BatchFailure struct {
	Batch       int
	Requests    int
	Written     int
	Unprocessed int
	Err         error
}

// SeedError aggregates batch failures from a single seed call. Batches not
// listed here were written in full.
type SeedError struct {
	Table    string
	Failures []BatchFailure
}

// Error implements the error interface
func (e *SeedError) Error() string {
	unprocessed := 0
	for _, f := range e.Failures {
		unprocessed += f.Unprocessed
	}
	return fmt.Sprintf("[%s] %d batch(es) failed, %d item(s) not written (table: %s)",
		ErrCodeBatchWriteFailed, len(e.Failures), unprocessed, e.Table)
}

// Unwrap returns every batch cause so errors.Is/As see through the aggregate
func (e *SeedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}
