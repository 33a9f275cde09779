package domain

import (
	"fmt"
	"slices"
	"sort"
)

// Registry is the static set of entity descriptors the API may touch.
// It is built once at startup and never mutated afterwards.
type Registry struct {
	byName map[string]*EntityDescriptor
}

// NewRegistry validates and indexes the given descriptors.
func NewRegistry(descriptors ...EntityDescriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]*EntityDescriptor, len(descriptors))}
	for i := range descriptors {
		d := descriptors[i]
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate entity %q", ErrInvalidDescriptor, d.Name)
		}
		r.byName[d.Name] = &d
	}
	for _, d := range r.byName {
		for _, rel := range d.Relations {
			child, ok := r.byName[rel.Entity]
			if !ok {
				return nil, fmt.Errorf("%w: %s: relation %q targets unknown entity %q",
					ErrInvalidDescriptor, d.Name, rel.Route, rel.Entity)
			}
			if !slices.Contains(child.AllowedColumns, rel.ForeignKey) {
				return nil, fmt.Errorf("%w: %s: relation %q uses unknown column %s.%s",
					ErrInvalidDescriptor, d.Name, rel.Route, child.Name, rel.ForeignKey)
			}
		}
	}
	return r, nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*EntityDescriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns the registered entity names in ascending order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// common legacy aliases shared by most tables of the kiosk schema
var (
	aliasName        = FieldAlias{From: "nombre", To: "name"}
	aliasDescription = FieldAlias{From: "descripcion", To: "description"}
	aliasActive      = FieldAlias{From: "activo", To: "active"}
)

// toggleActive flips the active flag of a record.
func toggleActive(role Role) Action {
	return Action{Name: "toggle", Role: role, Toggle: "active"}
}

// totemsOf lists the totems referencing a parent record through fk.
func totemsOf(fk string) Relation {
	return Relation{Route: "totems", Entity: "totems", ForeignKey: fk}
}

// KioskDescriptors returns the descriptors of the totem administration schema.
// Column names match the goose migrations under internal/platform/postgres/migrations.
func KioskDescriptors() []EntityDescriptor {
	return []EntityDescriptor{
		{
			Name:           "regions",
			Table:          "regions",
			AllowedColumns: []string{"name", "description", "active"},
			Aliases:        []FieldAlias{aliasName, aliasDescription, aliasActive},
			CreateRole:     RoleAdmin,
			UpdateRole:     RoleAdmin,
			DeleteRole:     RoleAdmin,
			Relations:      []Relation{totemsOf("region_id")},
		},
		{
			Name:           "institutions",
			Table:          "institutions",
			AllowedColumns: []string{"name", "description", "address", "phone", "email", "active"},
			Aliases: []FieldAlias{
				aliasName, aliasDescription, aliasActive,
				{From: "direccion", To: "address"},
				{From: "telefono", To: "phone"},
			},
			CreateRole: RoleAdmin,
			UpdateRole: RoleAdmin,
			DeleteRole: RoleAdmin,
			Relations:  []Relation{totemsOf("institution_id")},
		},
		{
			Name:           "categories",
			Table:          "categories",
			AllowedColumns: []string{"name", "information", "icon", "color", "active"},
			Aliases: []FieldAlias{
				aliasName, aliasActive,
				{From: "informacion", To: "information"},
			},
			CreateRole: RoleAdmin,
			UpdateRole: RoleAdmin,
			DeleteRole: RoleAdmin,
			Relations:  []Relation{totemsOf("category_id")},
		},
		{
			Name:  "templates",
			Table: "color_templates",
			AllowedColumns: []string{
				"name", "primary_color", "secondary_color", "background_color",
				"text_color", "description", "active",
			},
			Aliases: []FieldAlias{
				aliasName, aliasDescription, aliasActive,
				{From: "color_principal", To: "primary_color"},
				{From: "color_secundario", To: "secondary_color"},
				{From: "color_fondo", To: "background_color"},
				{From: "color_texto", To: "text_color"},
			},
			CreateRole: RoleAdmin,
			UpdateRole: RoleAdmin,
			DeleteRole: RoleAdmin,
		},
		{
			Name:  "totems",
			Table: "totems",
			AllowedColumns: []string{
				"name", "location", "color", "description", "active",
				"institution_id", "category_id", "region_id", "template_id",
				"site_login", "site_password", "chatpdf_url", "text_content", "video_url",
				"show_chat", "show_notifications", "refresh_interval",
			},
			// nombre_to is the legacy column name and takes precedence over the
			// frontend's nombre when both are sent.
			Aliases: []FieldAlias{
				{From: "nombre_to", To: "name"},
				aliasName, aliasDescription, aliasActive,
				{From: "ubicacion", To: "location"},
				{From: "institucion_id", To: "institution_id"},
				{From: "categoria_id", To: "category_id"},
				{From: "plantilla_id", To: "template_id"},
				{From: "login_sitio", To: "site_login"},
				{From: "password_sitio", To: "site_password"},
				{From: "contenido_texto", To: "text_content"},
				{From: "mostrar_chat", To: "show_chat"},
				{From: "mostrar_notificaciones", To: "show_notifications"},
				{From: "intervalo_actualizacion", To: "refresh_interval"},
			},
			HiddenColumns: []string{"site_password"},
			CreateRole:    RoleAdmin,
			UpdateRole:    RoleAdmin,
			DeleteRole:    RoleAdmin,
			Relations: []Relation{
				{Route: "multimedia", Entity: "multimedia", ForeignKey: "totem_id"},
				{Route: "notifications", Entity: "notifications", ForeignKey: "totem_id"},
				{Route: "chats", Entity: "user_chats", ForeignKey: "totem_id"},
			},
			Actions: []Action{toggleActive(RoleAdmin)},
		},
		{
			Name:  "multimedia",
			Table: "multimedia",
			AllowedColumns: []string{
				"media_type", "url", "title", "description", "totem_id", "sort_order", "active",
			},
			Aliases: []FieldAlias{
				aliasDescription, aliasActive,
				{From: "tipo_multimedia", To: "media_type"},
				{From: "titulo", To: "title"},
				{From: "orden", To: "sort_order"},
			},
			CreateRole: RoleModerator,
			UpdateRole: RoleModerator,
			DeleteRole: RoleAdmin,
			Actions:    []Action{toggleActive(RoleModerator)},
		},
		{
			Name:  "notifications",
			Table: "notifications",
			AllowedColumns: []string{
				"title", "message", "type", "priority", "totem_id",
				"starts_at", "ends_at", "active", "is_read",
			},
			Aliases: []FieldAlias{
				aliasActive,
				{From: "titulo", To: "title"},
				{From: "mensaje", To: "message"},
				{From: "tipo", To: "type"},
				{From: "prioridad", To: "priority"},
				{From: "fecha_inicio", To: "starts_at"},
				{From: "fecha_fin", To: "ends_at"},
				{From: "leida", To: "is_read"},
			},
			CreateRole: RoleModerator,
			UpdateRole: RoleModerator,
			DeleteRole: RoleAdmin,
			Actions: []Action{
				toggleActive(RoleModerator),
				{Name: "read", Role: RoleUser, Set: []Assignment{{Column: "is_read", Value: true}}},
			},
		},
		{
			Name:  "user_chats",
			Table: "user_chats",
			AllowedColumns: []string{
				"totem_id", "question", "answer", "user_id", "status",
				"answered_at", "ip_address", "user_agent",
			},
			Aliases: []FieldAlias{
				{From: "pregunta", To: "question"},
				{From: "respuesta", To: "answer"},
				{From: "usuario_id", To: "user_id"},
				{From: "estado", To: "status"},
				{From: "fecha_respuesta", To: "answered_at"},
			},
			// Kiosk visitors submit questions anonymously.
			PublicCreate: true,
			ReadRole:     RoleModerator,
			UpdateRole:   RoleModerator,
			DeleteRole:   RoleModerator,
			Actions: []Action{{
				Name:          "close",
				Role:          RoleModerator,
				Set:           []Assignment{{Column: "status", Value: "closed"}},
				RejectWhen:    &Assignment{Column: "status", Value: "closed"},
				RejectMessage: "chat is already closed",
			}},
		},
		{
			Name:           "users",
			Table:          "users",
			AllowedColumns: []string{"username", "email", "role", "region_id", "active"},
			Aliases: []FieldAlias{
				aliasActive,
				{From: "rol", To: "role"},
			},
			HiddenColumns:  []string{"password_hash"},
			ReadRole:       RoleAdmin,
			UpdateRole:     RoleAdmin,
			DeleteRole:     RoleAdmin,
			CreateDisabled: true,
			Actions:        []Action{toggleActive(RoleAdmin)},
		},
		{
			Name:     "activity_log",
			Table:    "activity_log",
			ReadRole: RoleAdmin,
			ReadOnly: true,
		},
	}
}

// NewKioskRegistry returns the registry of the totem administration schema.
func NewKioskRegistry() (*Registry, error) {
	return NewRegistry(KioskDescriptors()...)
}
