package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/events"
	"github.com/phrazzld/totem-api/internal/platform/logger"
	"github.com/phrazzld/totem-api/internal/store"
)

// configTable is the table name carried by configuration change events.
const configTable = "system_config"

// ConfigView is a configuration entry together with its coerced value.
type ConfigView struct {
	*domain.ConfigEntry
	Value domain.ConfigValue `json:"value"`
	Raw   string             `json:"raw_value"`
}

// ConfigListing is the result of listing configuration entries: the raw
// entries and a key to typed value map.
type ConfigListing struct {
	Entries []*domain.ConfigEntry         `json:"raw"`
	Values  map[string]domain.ConfigValue `json:"config"`
}

// CreateConfigInput holds the fields of a new configuration entry.
// Empty Type and Category default to string and general; a nil Editable
// means editable.
type CreateConfigInput struct {
	Key         string
	Value       any
	Type        string
	Description string
	Category    string
	Editable    *bool
}

// ConfigService manages the typed system configuration.
type ConfigService interface {
	List(ctx context.Context, p domain.Principal, category string) (*ConfigListing, error)
	Get(ctx context.Context, p domain.Principal, key string) (*ConfigView, error)
	Create(ctx context.Context, p domain.Principal, in CreateConfigInput) (*ConfigView, error)
	Update(ctx context.Context, p domain.Principal, key string, value any) (*ConfigView, error)

	// UpdateMany validates every key before writing any of them, then
	// writes all values in a single transaction.
	UpdateMany(ctx context.Context, p domain.Principal, updates []domain.ConfigUpdate) ([]*ConfigView, error)

	Delete(ctx context.Context, p domain.Principal, key string) error

	// Reset restores the built-in default of the key, editable or not.
	Reset(ctx context.Context, p domain.Principal, key string) (*ConfigView, error)

	Categories(ctx context.Context, p domain.Principal) ([]domain.CategoryCount, error)
}

type configServiceImpl struct {
	store   store.ConfigStore
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewConfigService creates a new ConfigService.
// It returns an error if any of the required dependencies are nil.
func NewConfigService(
	configStore store.ConfigStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (ConfigService, error) {
	if configStore == nil {
		return nil, NewServiceError("config", "create_service", fmt.Errorf("configStore cannot be nil"))
	}
	if emitter == nil {
		return nil, NewServiceError("config", "create_service", fmt.Errorf("emitter cannot be nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &configServiceImpl{
		store:   configStore,
		emitter: emitter,
		logger:  logger.With("component", "config_service"),
	}, nil
}

func newConfigView(e *domain.ConfigEntry) *ConfigView {
	return &ConfigView{ConfigEntry: e, Value: e.Value(), Raw: e.RawValue}
}

// List implements ConfigService.
func (s *configServiceImpl) List(
	ctx context.Context,
	_ domain.Principal,
	category string,
) (*ConfigListing, error) {
	entries, err := s.store.List(ctx, category)
	if err != nil {
		return nil, err
	}

	values := make(map[string]domain.ConfigValue, len(entries))
	for _, e := range entries {
		values[e.Key] = e.Value()
	}
	return &ConfigListing{Entries: entries, Values: values}, nil
}

// Get implements ConfigService.
func (s *configServiceImpl) Get(ctx context.Context, _ domain.Principal, key string) (*ConfigView, error) {
	entry, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return newConfigView(entry), nil
}

// Create implements ConfigService.
func (s *configServiceImpl) Create(
	ctx context.Context,
	p domain.Principal,
	in CreateConfigInput,
) (*ConfigView, error) {
	if err := authorize(p, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if in.Key == "" {
		return nil, domain.NewValidationError("key", "is required", nil)
	}
	if in.Value == nil {
		return nil, domain.NewValidationError("value", "is required", nil)
	}

	typ, err := domain.ParseConfigType(in.Type)
	if err != nil {
		return nil, err
	}

	raw, err := domain.EncodeConfigValue(typ, in.Value)
	if err != nil {
		return nil, err
	}

	entry := &domain.ConfigEntry{
		Key:         in.Key,
		RawValue:    raw,
		Type:        typ,
		Description: in.Description,
		Category:    in.Category,
		Editable:    true,
	}
	if entry.Category == "" {
		entry.Category = domain.DefaultConfigCategory
	}
	if in.Editable != nil {
		entry.Editable = *in.Editable
	}

	if err := s.store.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.emit(ctx, domain.ActionCreate, entry.Key, p, map[string]any{
		"value": raw, "type": typ, "category": entry.Category,
	})
	return newConfigView(entry), nil
}

// Update implements ConfigService.
func (s *configServiceImpl) Update(
	ctx context.Context,
	p domain.Principal,
	key string,
	value any,
) (*ConfigView, error) {
	if err := authorize(p, domain.RoleAdmin); err != nil {
		return nil, err
	}

	entry, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := entry.CheckEditable(); err != nil {
		return nil, err
	}

	raw, err := domain.EncodeConfigValue(entry.Type, value)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateValue(ctx, key, raw); err != nil {
		return nil, err
	}
	entry.RawValue = raw

	s.emit(ctx, domain.ActionUpdate, key, p, map[string]any{"value": raw})
	return newConfigView(entry), nil
}

// UpdateMany implements ConfigService.
func (s *configServiceImpl) UpdateMany(
	ctx context.Context,
	p domain.Principal,
	updates []domain.ConfigUpdate,
) ([]*ConfigView, error) {
	if err := authorize(p, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, domain.NewValidationError("entries", "must not be empty", nil)
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	// Every key is checked before the transaction starts so that a single
	// bad key leaves the whole configuration untouched.
	entries := make([]*domain.ConfigEntry, len(updates))
	raws := make([]string, len(updates))
	for i, u := range updates {
		entry, err := s.store.Get(ctx, u.Key)
		if err != nil {
			return nil, err
		}
		if err := entry.CheckEditable(); err != nil {
			return nil, err
		}
		raw, err := domain.EncodeConfigValue(entry.Type, u.Value)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
		raws[i] = raw
	}

	err := store.RunInTransaction(ctx, s.store.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.store.WithTx(tx)
		for i, entry := range entries {
			if err := txStore.UpdateValue(ctx, entry.Key, raws[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("batch configuration update failed",
			"error", err,
			"key_count", len(updates))
		return nil, err
	}

	views := make([]*ConfigView, len(entries))
	for i, entry := range entries {
		entry.RawValue = raws[i]
		views[i] = newConfigView(entry)
		s.emit(ctx, domain.ActionUpdate, entry.Key, p, map[string]any{"value": raws[i]})
	}
	return views, nil
}

// Delete implements ConfigService.
func (s *configServiceImpl) Delete(ctx context.Context, p domain.Principal, key string) error {
	if err := authorize(p, domain.RoleAdmin); err != nil {
		return err
	}

	entry, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := entry.CheckEditable(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}

	s.emit(ctx, domain.ActionDelete, key, p, nil)
	return nil
}

// Reset implements ConfigService.
func (s *configServiceImpl) Reset(ctx context.Context, p domain.Principal, key string) (*ConfigView, error) {
	if err := authorize(p, domain.RoleAdmin); err != nil {
		return nil, err
	}

	// Reset applies to non-editable entries too: it restores a built-in
	// value rather than accepting one from the caller.
	entry, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	raw := domain.DefaultConfigValue(key)
	if err := s.store.UpdateValue(ctx, key, raw); err != nil {
		return nil, err
	}
	entry.RawValue = raw

	s.emit(ctx, domain.ActionReset, key, p, map[string]any{"value": raw})
	return newConfigView(entry), nil
}

// Categories implements ConfigService.
func (s *configServiceImpl) Categories(ctx context.Context, _ domain.Principal) ([]domain.CategoryCount, error) {
	return s.store.Categories(ctx)
}

// RegistrationEnabled reads the enable_registration key. A missing key
// leaves registration enabled.
func RegistrationEnabled(ctx context.Context, configStore store.ConfigStore) (bool, error) {
	entry, err := configStore.Get(ctx, "enable_registration")
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	enabled, _ := entry.Value().Bool()
	return enabled, nil
}

func (s *configServiceImpl) emit(
	ctx context.Context,
	action, key string,
	p domain.Principal,
	payload map[string]any,
) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var body any
	if payload != nil {
		body = payload
	}
	event, err := events.NewChangeEvent(action, configTable, key, p, body)
	if err != nil {
		log.Warn("failed to build change event", "error", err, "key", key, "action", action)
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit change event",
			"error", err,
			"event_id", event.ID,
			"key", key,
			"action", action)
	}
}
