package shared

import "github.com/google/uuid"

// PracticeScope identifies the owner of a financial record. Records created
// inside a law firm carry the firm ID; records of a solo practitioner carry
// only the lawyer ID.
type PracticeScope struct {
	LawyerID uuid.UUID
	FirmID   *uuid.UUID
}

// Matches reports whether a record owned by `other` is visible to this scope.
// Firm members match on firm ID so colleagues see each other's records; solo
// practitioners match on lawyer ID only.
func (s PracticeScope) Matches(other PracticeScope) bool {
	if s.FirmID != nil {
		return other.FirmID != nil && *s.FirmID == *other.FirmID
	}
	return other.FirmID == nil && s.LawyerID == other.LawyerID
}

// CallerContext carries the authenticated caller's identity into every
// mutating operation. It replaces ambient request state so services can be
// tested without an HTTP layer.
type CallerContext struct {
	UserID   uuid.UUID
	Scope    PracticeScope
	Departed bool
}

// AuthorizeFinancial rejects callers flagged as departed. Departed users keep
// read access to their history but may not move money.
func (c CallerContext) AuthorizeFinancial() error {
	if c.Departed {
		return ErrAccountDeparted
	}
	return nil
}
