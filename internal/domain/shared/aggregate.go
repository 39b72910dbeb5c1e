package shared

import "github.com/google/uuid"

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version       int           `gorm:"not null;default:1"`
	loadedVersion int           `gorm:"-"`
	domainEvents  []DomainEvent `gorm:"-"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// MarkVersionLoaded records the current version as the one the row holds.
// Repositories call it on load and after a successful save; optimistic lock
// checks compare against this value rather than Version, since domain methods
// may step Version several times within one unit of work.
func (a *BaseAggregateRoot) MarkVersionLoaded() {
	a.loadedVersion = a.Version
}

// LoadedVersion returns the version recorded at load time, zero for
// aggregates that were never loaded from the store.
func (a *BaseAggregateRoot) LoadedVersion() int {
	return a.loadedVersion
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// PracticeAggregateRoot extends BaseAggregateRoot with practice-level tenancy.
// Financial records belong either to a law firm (FirmID set) or to an
// individual practitioner (LawyerID only).
type PracticeAggregateRoot struct {
	BaseAggregateRoot
	LawyerID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	FirmID    *uuid.UUID `gorm:"type:uuid;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
}

// NewPracticeAggregateRoot creates a new practice-scoped aggregate root
func NewPracticeAggregateRoot(scope PracticeScope) PracticeAggregateRoot {
	return PracticeAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		LawyerID:          scope.LawyerID,
		FirmID:            scope.FirmID,
	}
}

// Scope returns the practice scope of the aggregate
func (p *PracticeAggregateRoot) Scope() PracticeScope {
	return PracticeScope{LawyerID: p.LawyerID, FirmID: p.FirmID}
}

// SetCreatedBy sets the creator user ID
func (p *PracticeAggregateRoot) SetCreatedBy(userID uuid.UUID) {
	p.CreatedBy = &userID
}
