// Package access holds the existence and ownership checks shared by every
// single-resource operation.
package access

import (
	"strings"

	"docvault/internal/apperror"
)

// Owned is implemented by resources that belong to exactly one identity.
type Owned interface {
	OwnerID() int64
}

// EnsureExists fails with a not-found error when found is false.
func EnsureExists(found bool, resource string) error {
	if !found {
		return apperror.NotFound(resource)
	}
	return nil
}

// EnsureOwner fails with an unauthorized error when actorID does not own res.
func EnsureOwner(res Owned, actorID int64, resource string) error {
	if res.OwnerID() != actorID {
		return apperror.Unauthorized("You do not have permission to access this " + strings.ToLower(resource))
	}
	return nil
}

// Check runs EnsureExists then EnsureOwner. res is not inspected when found
// is false, so a nil pointer is safe there.
func Check(res Owned, found bool, actorID int64, resource string) error {
	if err := EnsureExists(found, resource); err != nil {
		return err
	}
	return EnsureOwner(res, actorID, resource)
}
