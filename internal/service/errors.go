package service

import (
	"errors"
	"strings"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")
)

// Entity specific errors. Each wraps one of the common errors so handlers
// can map them to a status with errors.Is.
var (
	ErrCustomerNotFound       = wrapSentinel(ErrNotFound, "customer not found")
	ErrMaterialNotFound       = wrapSentinel(ErrNotFound, "material not found")
	ErrQuotationNotFound      = wrapSentinel(ErrNotFound, "quotation not found")
	ErrPurchaseOrderNotFound  = wrapSentinel(ErrNotFound, "purchase order not found")
	ErrChallanNotFound        = wrapSentinel(ErrNotFound, "challan not found")
	ErrTaxNotFound            = wrapSentinel(ErrNotFound, "tax not found")
	ErrInvoiceNotFound        = wrapSentinel(ErrNotFound, "invoice not found")
	ErrDuplicatePONumber      = wrapSentinel(ErrInvalidInput, "Purchase order number already exists")
	ErrReferencedQuotation    = wrapSentinel(ErrInvalidInput, "Quotation not found")
	ErrReferencedCustomer     = wrapSentinel(ErrInvalidInput, "Customer not found")
	ErrReferencedPO           = wrapSentinel(ErrInvalidInput, "Purchase order not found")
	ErrMaterialsNotFound      = wrapSentinel(ErrInvalidInput, "One or more materials not found")
	ErrNoQuotationLinked      = wrapSentinel(ErrInvalidInput, "Purchase order has no linked quotation")
	ErrTaxPercentOutOfRange   = wrapSentinel(ErrInvalidInput, "Tax percent must be between 1 and 98")
	ErrTaxPercentUnchanged    = wrapSentinel(ErrInvalidInput, "Tax percent is the same as the current rate")
	ErrInvalidServiceType     = wrapSentinel(ErrInvalidInput, "Service type must be material or service")
	ErrDuplicateMaterialName  = wrapSentinel(ErrConflict, "Material name already exists")
	ErrDuplicateChallanNumber = wrapSentinel(ErrConflict, "Challan number already allocated, retry the request")
	ErrQuotationInUse         = wrapSentinel(ErrConflict, "Quotation is referenced by a purchase order")
)

// sentinelError carries a client-facing message and unwraps to a common error
type sentinelError struct {
	kind error
	msg  string
}

func wrapSentinel(kind error, msg string) error {
	return &sentinelError{kind: kind, msg: msg}
}

func (e *sentinelError) Error() string { return e.msg }
func (e *sentinelError) Unwrap() error { return e.kind }

// ValidationError aggregates every business rule violation found in one request.
type ValidationError struct {
	Message string
	Errors  []string
}

func (e *ValidationError) Error() string {
	return e.Message + ": " + strings.Join(e.Errors, "; ")
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match aggregated validation failures
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// InvalidInput returns an ErrInvalidInput carrying a client-facing message
func InvalidInput(msg string) error {
	return wrapSentinel(ErrInvalidInput, msg)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// PublicMessage returns the client-facing message of a service error and
// false when err carries none.
func PublicMessage(err error) (string, bool) {
	var se *sentinelError
	if errors.As(err, &se) {
		return se.msg, true
	}
	return "", false
}
