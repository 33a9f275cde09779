package domain

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// DefaultIDColumn is used when a descriptor does not name its primary key column.
const DefaultIDColumn = "id"

// CreatedAtColumn is the insertion timestamp every entity table carries.
const CreatedAtColumn = "created_at"

// Operation names an entity operation for access checks.
type Operation string

// Entity operations.
const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// identifierPattern restricts table and column names to lowercase SQL identifiers.
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Record is a single row read from an entity table, keyed by column name.
type Record map[string]any

// FieldAlias renames an external (legacy) payload field to its column name.
type FieldAlias struct {
	From string
	To   string
}

// Assignment is one column/value pair of a normalized write payload.
type Assignment struct {
	Column string
	Value  any
}

// Relation lists the rows of another entity that reference a record,
// served as GET /{entity}/{id}/{route}.
type Relation struct {
	// Route is the path segment after the parent id.
	Route string
	// Entity is the registry name of the child entity.
	Entity string
	// ForeignKey is the child column holding the parent id.
	ForeignKey string
}

// Action is a fixed state change of one record, served as
// PUT /{entity}/{id}/{name}. Exactly one of Set and Toggle is used.
type Action struct {
	Name string
	Role Role
	// Set assigns fixed values.
	Set []Assignment
	// Toggle flips a boolean column.
	Toggle string
	// RejectWhen refuses the action while the record holds this value,
	// with RejectMessage as the validation error.
	RejectWhen    *Assignment
	RejectMessage string
}

// Changes returns the assignments the action applies to rec.
func (a *Action) Changes(rec Record) []Assignment {
	if a.Toggle != "" {
		current, _ := rec[a.Toggle].(bool)
		return []Assignment{{Column: a.Toggle, Value: !current}}
	}
	return a.Set
}

// Rejects reports whether rec is in the state the action refuses.
func (a *Action) Rejects(rec Record) bool {
	if a.RejectWhen == nil {
		return false
	}
	return fmt.Sprint(rec[a.RejectWhen.Column]) == fmt.Sprint(a.RejectWhen.Value)
}

// EntityDescriptor is the static description of a manageable table.
// Every identifier that ends up in SQL text comes from a descriptor,
// never from request input.
type EntityDescriptor struct {
	// Name is the external name used in routes (e.g. "regions").
	Name string
	// Table is the physical table identifier.
	Table string
	// IDColumn is the primary key column; DefaultIDColumn when empty.
	IDColumn string
	// AllowedColumns is the ordered whitelist of writable columns.
	AllowedColumns []string
	// Aliases are applied in order before whitelisting.
	Aliases []FieldAlias
	// HiddenColumns are stripped from every record returned to callers.
	HiddenColumns []string
	// ReadRole, CreateRole, UpdateRole and DeleteRole gate each operation.
	// RoleNone means public. Writable descriptors must name update and
	// delete roles, and a create role unless PublicCreate is set.
	ReadRole   Role
	CreateRole Role
	UpdateRole Role
	DeleteRole Role
	// PublicCreate admits anonymous creation, e.g. kiosk visitor questions.
	PublicCreate bool
	// ReadOnly descriptors reject create, update and delete.
	ReadOnly bool
	// CreateDisabled rejects generic creation; rows are created by a dedicated flow.
	CreateDisabled bool
	// Relations are the child listings reachable from a record.
	Relations []Relation
	// Actions are the named state changes of a record.
	Actions []Action
}

// RequiredRole returns the role needed for op.
func (d *EntityDescriptor) RequiredRole(op Operation) Role {
	switch op {
	case OpCreate:
		return d.CreateRole
	case OpUpdate:
		return d.UpdateRole
	case OpDelete:
		return d.DeleteRole
	default:
		return d.ReadRole
	}
}

// Relation returns the relation served under route.
func (d *EntityDescriptor) Relation(route string) (*Relation, bool) {
	for i := range d.Relations {
		if d.Relations[i].Route == route {
			return &d.Relations[i], true
		}
	}
	return nil, false
}

// Action returns the action named name.
func (d *EntityDescriptor) Action(name string) (*Action, bool) {
	for i := range d.Actions {
		if d.Actions[i].Name == name {
			return &d.Actions[i], true
		}
	}
	return nil, false
}

// HasColumn reports whether col is a column the descriptor declares:
// the primary key, a writable or hidden column, or created_at.
func (d *EntityDescriptor) HasColumn(col string) bool {
	return col == d.PrimaryKey() ||
		col == CreatedAtColumn ||
		slices.Contains(d.AllowedColumns, col) ||
		slices.Contains(d.HiddenColumns, col)
}

// PrimaryKey returns the id column, applying the default.
func (d *EntityDescriptor) PrimaryKey() string {
	if d.IDColumn == "" {
		return DefaultIDColumn
	}
	return d.IDColumn
}

// Validate checks that every identifier of the descriptor is a safe SQL
// identifier and that aliases only target whitelisted columns.
func (d *EntityDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}
	if !identifierPattern.MatchString(d.Table) {
		return fmt.Errorf("%w: %s: invalid table %q", ErrInvalidDescriptor, d.Name, d.Table)
	}
	if !identifierPattern.MatchString(d.PrimaryKey()) {
		return fmt.Errorf("%w: %s: invalid id column %q", ErrInvalidDescriptor, d.Name, d.PrimaryKey())
	}
	if len(d.AllowedColumns) == 0 && !d.ReadOnly {
		return fmt.Errorf("%w: %s: writable entity needs allowed columns", ErrInvalidDescriptor, d.Name)
	}
	for _, col := range d.AllowedColumns {
		if !identifierPattern.MatchString(col) {
			return fmt.Errorf("%w: %s: invalid column %q", ErrInvalidDescriptor, d.Name, col)
		}
		if col == d.PrimaryKey() {
			return fmt.Errorf("%w: %s: id column cannot be writable", ErrInvalidDescriptor, d.Name)
		}
	}
	for _, alias := range d.Aliases {
		if !slices.Contains(d.AllowedColumns, alias.To) {
			return fmt.Errorf("%w: %s: alias %q targets unknown column %q",
				ErrInvalidDescriptor, d.Name, alias.From, alias.To)
		}
	}
	if err := d.validateRoles(); err != nil {
		return err
	}

	routes := make(map[string]bool, len(d.Relations)+len(d.Actions))
	for _, rel := range d.Relations {
		if !identifierPattern.MatchString(rel.Route) || routes[rel.Route] {
			return fmt.Errorf("%w: %s: invalid or duplicate relation %q", ErrInvalidDescriptor, d.Name, rel.Route)
		}
		if !identifierPattern.MatchString(rel.ForeignKey) {
			return fmt.Errorf("%w: %s: invalid foreign key %q", ErrInvalidDescriptor, d.Name, rel.ForeignKey)
		}
		routes[rel.Route] = true
	}
	for i := range d.Actions {
		a := &d.Actions[i]
		if !identifierPattern.MatchString(a.Name) || routes[a.Name] {
			return fmt.Errorf("%w: %s: invalid or duplicate action %q", ErrInvalidDescriptor, d.Name, a.Name)
		}
		routes[a.Name] = true
		if err := d.validateAction(a); err != nil {
			return err
		}
	}
	return nil
}

func (d *EntityDescriptor) validateRoles() error {
	if d.ReadOnly {
		return nil
	}
	if d.UpdateRole == RoleNone || d.DeleteRole == RoleNone {
		return fmt.Errorf("%w: %s: update and delete need a role", ErrInvalidDescriptor, d.Name)
	}
	if !d.CreateDisabled && d.CreateRole == RoleNone && !d.PublicCreate {
		return fmt.Errorf("%w: %s: create needs a role or PublicCreate", ErrInvalidDescriptor, d.Name)
	}
	return nil
}

func (d *EntityDescriptor) validateAction(a *Action) error {
	if d.ReadOnly {
		return fmt.Errorf("%w: %s: read-only entity cannot declare action %q", ErrInvalidDescriptor, d.Name, a.Name)
	}
	if a.Role == RoleNone {
		return fmt.Errorf("%w: %s: action %q needs a role", ErrInvalidDescriptor, d.Name, a.Name)
	}
	if (a.Toggle == "") == (len(a.Set) == 0) {
		return fmt.Errorf("%w: %s: action %q needs exactly one of Set or Toggle", ErrInvalidDescriptor, d.Name, a.Name)
	}
	columns := make([]string, 0, len(a.Set)+2)
	for _, f := range a.Set {
		columns = append(columns, f.Column)
	}
	if a.Toggle != "" {
		columns = append(columns, a.Toggle)
	}
	if a.RejectWhen != nil {
		columns = append(columns, a.RejectWhen.Column)
	}
	for _, col := range columns {
		if !slices.Contains(d.AllowedColumns, col) {
			return fmt.Errorf("%w: %s: action %q uses unknown column %q", ErrInvalidDescriptor, d.Name, a.Name, col)
		}
	}
	return nil
}

// Normalize turns a raw write payload into ordered column assignments.
//
// Aliases are resolved first: an alias fills its target only when the target
// key is absent, so a canonical key supplied by the caller always wins. The
// alias key itself is then discarded. The id column is always dropped. Keys
// outside AllowedColumns are dropped, or rejected when strict is set.
// Assignments follow the order of AllowedColumns.
func (d *EntityDescriptor) Normalize(payload map[string]any, strict bool) ([]Assignment, error) {
	fields := make(map[string]any, len(payload))
	for k, v := range payload {
		fields[k] = v
	}

	for _, alias := range d.Aliases {
		v, ok := fields[alias.From]
		if !ok {
			continue
		}
		if _, exists := fields[alias.To]; !exists {
			fields[alias.To] = v
		}
		delete(fields, alias.From)
	}

	delete(fields, d.PrimaryKey())
	delete(fields, DefaultIDColumn)

	if strict {
		var unknown []string
		for k := range fields {
			if !slices.Contains(d.AllowedColumns, k) {
				unknown = append(unknown, k)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return nil, NewValidationError("", "unknown fields: "+strings.Join(unknown, ", "), nil)
		}
	}

	assignments := make([]Assignment, 0, len(fields))
	for _, col := range d.AllowedColumns {
		if v, ok := fields[col]; ok {
			assignments = append(assignments, Assignment{Column: col, Value: v})
		}
	}
	return assignments, nil
}

// Redact removes hidden columns from a record in place and returns it.
func (d *EntityDescriptor) Redact(rec Record) Record {
	for _, col := range d.HiddenColumns {
		delete(rec, col)
	}
	return rec
}
