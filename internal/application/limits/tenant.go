package limits

import (
	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/shared/errors"
)

const msgTenantMismatch = "Tenant mismatch"

// AuthorizeTenant rejects a caller acting on another tenant's resources.
func AuthorizeTenant(actor, target uuid.UUID) error {
	if actor == uuid.Nil || actor != target {
		return errors.NewForbiddenError(msgTenantMismatch)
	}
	return nil
}
