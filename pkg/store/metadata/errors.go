package metadata

// StoreError represents a domain error from metadata operations.
//
// These are business-rule failures (entry not found, invalid upload, duplicate
// registration) as opposed to infrastructure errors (disk failure, closed
// database). The HTTP layer translates ErrorCode to a status class; Message
// is the stable client-visible string.
type StoreError struct {
	// Code is the error category.
	Code ErrorCode

	// Message is the client-visible error description.
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// ErrorCode represents the category of a metadata error.
type ErrorCode int

const (
	// CodeNotFound indicates the entry or user does not exist, or is not
	// visible to the caller. Access denials on private content deliberately
	// use this code so existence is not leaked.
	CodeNotFound ErrorCode = iota

	// CodeDuplicateEmail indicates a registration with an email that is
	// already taken.
	CodeDuplicateEmail

	// CodeMissingEmail indicates a registration without an email.
	CodeMissingEmail

	// CodeMissingPassword indicates a registration without a password.
	CodeMissingPassword

	// CodeMissingName indicates an upload without a name.
	CodeMissingName

	// CodeMissingType indicates an upload without a type, or with a type
	// outside folder/file/image.
	CodeMissingType

	// CodeMissingData indicates a file or image upload with no content.
	// Zero-length content is rejected, not silently accepted.
	CodeMissingData

	// CodeParentNotFound indicates the referenced parent entry does not exist.
	CodeParentNotFound

	// CodeParentNotFolder indicates the referenced parent exists but is not
	// a folder.
	CodeParentNotFolder

	// CodeFolderHasNoContent indicates a content fetch on a folder entry.
	CodeFolderHasNoContent
)

// Sentinel errors with the stable client-visible messages. Callers compare
// with errors.Is / errors.As; the API layer maps Code to an HTTP status.
var (
	ErrNotFound           = &StoreError{CodeNotFound, "Not found"}
	ErrDuplicateEmail     = &StoreError{CodeDuplicateEmail, "Already exist"}
	ErrMissingEmail       = &StoreError{CodeMissingEmail, "Missing email"}
	ErrMissingPassword    = &StoreError{CodeMissingPassword, "Missing password"}
	ErrMissingName        = &StoreError{CodeMissingName, "Missing name"}
	ErrMissingType        = &StoreError{CodeMissingType, "Missing type"}
	ErrMissingData        = &StoreError{CodeMissingData, "Missing data"}
	ErrParentNotFound     = &StoreError{CodeParentNotFound, "Parent not found"}
	ErrParentNotFolder    = &StoreError{CodeParentNotFolder, "Parent is not a folder"}
	ErrFolderHasNoContent = &StoreError{CodeFolderHasNoContent, "A folder doesn't have content"}
)
