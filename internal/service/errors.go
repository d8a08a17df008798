package service

import "errors"

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrValidation = errors.New("validation failed")
)

// ValidationError is a caller input error reported with a stable code. It matches ErrValidation.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

var (
	ErrFileRequired        = &ValidationError{Code: "FILE_REQUIRED", Message: "file is required"}
	ErrInvalidFileSize     = &ValidationError{Code: "INVALID_FILE_SIZE", Message: "file size must be known"}
	ErrFileTooLarge        = &ValidationError{Code: "FILE_TOO_LARGE", Message: "file exceeds the maximum upload size"}
	ErrFileTypeNotAllowed  = &ValidationError{Code: "FILE_TYPE_NOT_ALLOWED", Message: "file type is not allowed"}
	ErrFileContentMismatch = &ValidationError{Code: "FILE_CONTENT_MISMATCH", Message: "file content does not match its extension"}
	ErrOwnerRequired       = &ValidationError{Code: "OWNER_REQUIRED", Message: "studentId is required"}
	ErrInvalidOwnerID      = &ValidationError{Code: "INVALID_OWNER_ID", Message: "studentId is invalid"}
	ErrInvalidDocumentID   = &ValidationError{Code: "INVALID_DOCUMENT_ID", Message: "document id is invalid"}
)
