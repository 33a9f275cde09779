package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/events"
	"github.com/phrazzld/totem-api/internal/platform/logger"
	"github.com/phrazzld/totem-api/internal/store"
)

// EntityService provides CRUD over every table of the entity registry.
//
// Write payloads pass through the entity's normalization pipeline (aliases,
// id removal, whitelist) before reaching the store. Every operation checks
// the caller against the entity's read or write role.
type EntityService interface {
	// List returns every record of the entity.
	List(ctx context.Context, p domain.Principal, entity string) ([]domain.Record, error)

	// Get returns one record by id.
	Get(ctx context.Context, p domain.Principal, entity string, id int64) (domain.Record, error)

	// Create inserts a record from a raw payload and returns the stored record.
	Create(ctx context.Context, p domain.Principal, entity string, payload map[string]any) (domain.Record, error)

	// Update applies a partial raw payload and returns the stored record.
	Update(
		ctx context.Context,
		p domain.Principal,
		entity string,
		id int64,
		payload map[string]any,
	) (domain.Record, error)

	// Delete removes one record by id.
	Delete(ctx context.Context, p domain.Principal, entity string, id int64) error

	// ListRelated returns the child rows of a declared relation of one record.
	// The caller needs read access to both the parent and the child entity.
	ListRelated(
		ctx context.Context,
		p domain.Principal,
		entity string,
		id int64,
		relation string,
	) ([]domain.Record, error)

	// Perform applies a declared action to one record and returns the stored record.
	Perform(
		ctx context.Context,
		p domain.Principal,
		entity string,
		id int64,
		action string,
	) (domain.Record, error)
}

// EntityServiceOptions configures an EntityService.
type EntityServiceOptions struct {
	// StrictFields rejects payload keys outside the allowed columns instead
	// of dropping them.
	StrictFields bool
}

type entityServiceImpl struct {
	registry *domain.Registry
	store    store.EntityStore
	emitter  events.EventEmitter
	strict   bool
	logger   *slog.Logger
}

// NewEntityService creates a new EntityService.
// It returns an error if any of the required dependencies are nil.
func NewEntityService(
	registry *domain.Registry,
	entityStore store.EntityStore,
	emitter events.EventEmitter,
	opts EntityServiceOptions,
	logger *slog.Logger,
) (EntityService, error) {
	if registry == nil {
		return nil, NewServiceError("entity", "create_service", fmt.Errorf("registry cannot be nil"))
	}
	if entityStore == nil {
		return nil, NewServiceError("entity", "create_service", fmt.Errorf("entityStore cannot be nil"))
	}
	if emitter == nil {
		return nil, NewServiceError("entity", "create_service", fmt.Errorf("emitter cannot be nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &entityServiceImpl{
		registry: registry,
		store:    entityStore,
		emitter:  emitter,
		strict:   opts.StrictFields,
		logger:   logger.With("component", "entity_service"),
	}, nil
}

func (s *entityServiceImpl) lookup(entity string) (*domain.EntityDescriptor, error) {
	d, ok := s.registry.Lookup(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownEntity, entity)
	}
	return d, nil
}

// resolve looks up the descriptor and checks the caller's access for op.
// Writes to read-only entities and generic creation of entities with
// CreateDisabled are refused regardless of role.
func (s *entityServiceImpl) resolve(
	p domain.Principal,
	entity string,
	op domain.Operation,
) (*domain.EntityDescriptor, error) {
	d, err := s.lookup(entity)
	if err != nil {
		return nil, err
	}
	if op != domain.OpRead && d.ReadOnly {
		return nil, ErrOperationNotAllowed
	}
	if err := authorize(p, d.RequiredRole(op)); err != nil {
		return nil, err
	}
	if op == domain.OpCreate && d.CreateDisabled {
		return nil, ErrOperationNotAllowed
	}
	return d, nil
}

// List implements EntityService.
func (s *entityServiceImpl) List(ctx context.Context, p domain.Principal, entity string) ([]domain.Record, error) {
	d, err := s.resolve(p, entity, domain.OpRead)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, d)
}

// Get implements EntityService.
func (s *entityServiceImpl) Get(
	ctx context.Context,
	p domain.Principal,
	entity string,
	id int64,
) (domain.Record, error) {
	d, err := s.resolve(p, entity, domain.OpRead)
	if err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, d, id)
}

// Create implements EntityService.
func (s *entityServiceImpl) Create(
	ctx context.Context,
	p domain.Principal,
	entity string,
	payload map[string]any,
) (domain.Record, error) {
	d, err := s.resolve(p, entity, domain.OpCreate)
	if err != nil {
		return nil, err
	}

	fields, err := d.Normalize(payload, s.strict)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.NewValidationError("", "no fields to insert", nil)
	}

	rec, err := s.store.Create(ctx, d, fields)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.ActionCreate, d, recordID(d, rec), p, changes(d, fields))
	return rec, nil
}

// Update implements EntityService.
func (s *entityServiceImpl) Update(
	ctx context.Context,
	p domain.Principal,
	entity string,
	id int64,
	payload map[string]any,
) (domain.Record, error) {
	d, err := s.resolve(p, entity, domain.OpUpdate)
	if err != nil {
		return nil, err
	}

	fields, err := d.Normalize(payload, s.strict)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.NewValidationError("", "no fields to update", nil)
	}

	rec, err := s.store.Update(ctx, d, id, fields)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.ActionUpdate, d, strconv.FormatInt(id, 10), p, changes(d, fields))
	return rec, nil
}

// Delete implements EntityService.
func (s *entityServiceImpl) Delete(ctx context.Context, p domain.Principal, entity string, id int64) error {
	d, err := s.resolve(p, entity, domain.OpDelete)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, d, id); err != nil {
		return err
	}

	s.emit(ctx, domain.ActionDelete, d, strconv.FormatInt(id, 10), p, nil)
	return nil
}

// ListRelated implements EntityService.
func (s *entityServiceImpl) ListRelated(
	ctx context.Context,
	p domain.Principal,
	entity string,
	id int64,
	relation string,
) ([]domain.Record, error) {
	d, err := s.resolve(p, entity, domain.OpRead)
	if err != nil {
		return nil, err
	}
	rel, ok := d.Relation(relation)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownSubresource, entity, relation)
	}
	child, err := s.resolve(p, rel.Entity, domain.OpRead)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetByID(ctx, d, id); err != nil {
		return nil, err
	}
	return s.store.ListBy(ctx, child, rel.ForeignKey, id)
}

// Perform implements EntityService.
func (s *entityServiceImpl) Perform(
	ctx context.Context,
	p domain.Principal,
	entity string,
	id int64,
	action string,
) (domain.Record, error) {
	d, err := s.lookup(entity)
	if err != nil {
		return nil, err
	}
	a, ok := d.Action(action)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownSubresource, entity, action)
	}
	if err := authorize(p, a.Role); err != nil {
		return nil, err
	}

	current, err := s.store.GetByID(ctx, d, id)
	if err != nil {
		return nil, err
	}
	if a.Rejects(current) {
		return nil, domain.NewValidationError("", a.RejectMessage, nil)
	}

	fields := a.Changes(current)
	rec, err := s.store.Update(ctx, d, id, fields)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, a.Name, d, strconv.FormatInt(id, 10), p, changes(d, fields))
	return rec, nil
}

// emit publishes a change event. Failures are logged and never surface to
// the caller: the mutation has already been committed.
func (s *entityServiceImpl) emit(
	ctx context.Context,
	action string,
	d *domain.EntityDescriptor,
	id string,
	p domain.Principal,
	payload map[string]any,
) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var body any
	if payload != nil {
		body = payload
	}
	event, err := events.NewChangeEvent(action, d.Table, id, p, body)
	if err != nil {
		log.Warn("failed to build change event",
			"error", err,
			"table", d.Table,
			"action", action)
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit change event",
			"error", err,
			"event_id", event.ID,
			"table", d.Table,
			"action", action)
	}
}

// changes returns the written columns without hidden ones, for the audit trail.
func changes(d *domain.EntityDescriptor, fields []domain.Assignment) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Column] = f.Value
	}
	return d.Redact(out)
}

func recordID(d *domain.EntityDescriptor, rec domain.Record) string {
	if v, ok := rec[d.PrimaryKey()]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}
