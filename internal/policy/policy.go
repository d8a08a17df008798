package policy

import (
	"errors"

	"studydocs/internal/identity"
	"studydocs/internal/model"
)

// ErrForbidden is returned when the caller may not perform the operation on the target owner.
var ErrForbidden = errors.New("forbidden")

// Operation is a document operation subject to authorization.
type Operation string

const (
	OpRead     Operation = "read"
	OpDownload Operation = "download"
	OpView     Operation = "view"
	OpDelete   Operation = "delete"
	OpUpload   Operation = "upload"
	OpList     Operation = "list"
)

// Authorize decides whether a caller with the given role and resolved owner identity may perform op
// on a document (or upload/list target) owned by ownerID. resolveErr is the failure recorded while
// resolving the caller's owner identity, if any.
//
// The returned error is nil, ErrForbidden, identity.ErrNotAuthenticated or resolveErr.
func Authorize(op Operation, role model.Role, resolvedOwnerID string, resolveErr error, ownerID string) error {
	switch role {
	case "":
		return identity.ErrNotAuthenticated
	case model.RoleAdmin:
		return nil
	case model.RoleAdvisor:
		switch op {
		case OpRead, OpDownload, OpView, OpDelete, OpList:
			return nil
		case OpUpload:
			if ownerID == "" {
				return ErrForbidden
			}
			return nil
		}
		return ErrForbidden
	case model.RoleStudent:
		if resolveErr != nil {
			return resolveErr
		}
		if resolvedOwnerID == "" || resolvedOwnerID != ownerID {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

// AuthorizeCaller applies Authorize to a resolved caller.
func AuthorizeCaller(op Operation, c identity.Caller, ownerID string) error {
	resolved, err := c.OwnerID()
	return Authorize(op, c.Role(), resolved, err, ownerID)
}
