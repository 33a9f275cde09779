package domain

import "time"

// DefaultConfigCategory is assigned to entries created without a category.
const DefaultConfigCategory = "general"

// ConfigEntry is a system configuration key. RawValue is the canonical
// stored text; the typed value is always derived from it.
type ConfigEntry struct {
	ID          int64      `json:"id"`
	Key         string     `json:"key"`
	RawValue    string     `json:"value"`
	Type        ConfigType `json:"type"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Editable    bool       `json:"editable"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Value coerces the stored text to the entry's declared type.
func (e *ConfigEntry) Value() ConfigValue {
	return DecodeConfigValue(e.RawValue, e.Type)
}

// CheckEditable returns ErrNotEditable when the entry is locked.
func (e *ConfigEntry) CheckEditable() error {
	if !e.Editable {
		return NewValidationError(e.Key, "is not editable", ErrNotEditable)
	}
	return nil
}

// ConfigUpdate is one element of a batch configuration update.
type ConfigUpdate struct {
	Key   string
	Value any
}

// CategoryCount is the number of configuration entries in a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// configDefaults is the fixed table used by configuration reset.
var configDefaults = map[string]string{
	"app_name":            "TOTEM System",
	"app_version":         "1.0.0",
	"max_file_size":       "10485760",
	"session_timeout":     "3600",
	"enable_registration": "true",
	"maintenance_mode":    "false",
}

// DefaultConfigValue returns the reset value of a well-known key, or the
// empty string for any other key.
func DefaultConfigValue(key string) string {
	return configDefaults[key]
}
