package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/schemaerr"
)

// DiffFields computes the structural differences between two field maps.
// Field equality covers type, description, required, example and pattern.
// Output is ordered added, removed, updated, alphabetical within each group.
func DiffFields(oldFields, newFields domain.FieldMap) []domain.SchemaChange {
	var changes []domain.SchemaChange

	for _, name := range sortedKeys(newFields) {
		if _, ok := oldFields[name]; !ok {
			def := newFields[name]
			changes = append(changes, domain.SchemaChange{
				ChangeType: domain.ChangeFieldAdded,
				FieldName:  name,
				NewValue:   &def,
			})
		}
	}

	for _, name := range sortedKeys(oldFields) {
		if _, ok := newFields[name]; !ok {
			def := oldFields[name]
			changes = append(changes, domain.SchemaChange{
				ChangeType: domain.ChangeFieldRemoved,
				FieldName:  name,
				OldValue:   &def,
			})
		}
	}

	for _, name := range sortedKeys(oldFields) {
		newDef, ok := newFields[name]
		if !ok {
			continue
		}
		oldDef := oldFields[name]
		if !oldDef.Equal(newDef) {
			o, n := oldDef, newDef
			changes = append(changes, domain.SchemaChange{
				ChangeType: domain.ChangeFieldUpdated,
				FieldName:  name,
				OldValue:   &o,
				NewValue:   &n,
			})
		}
	}

	return changes
}

// ChangeSummary renders a human-readable one-liner, e.g.
// "Added 2 field(s): a, b; Updated 1 field(s): c".
func ChangeSummary(changes []domain.SchemaChange) string {
	if len(changes) == 0 {
		return "No changes detected"
	}

	added := fieldNames(changes, domain.ChangeFieldAdded)
	updated := fieldNames(changes, domain.ChangeFieldUpdated)
	removed := fieldNames(changes, domain.ChangeFieldRemoved)

	var parts []string
	if len(added) > 0 {
		parts = append(parts, fmt.Sprintf("Added %d field(s): %s", len(added), strings.Join(added, ", ")))
	}
	if len(updated) > 0 {
		parts = append(parts, fmt.Sprintf("Updated %d field(s): %s", len(updated), strings.Join(updated, ", ")))
	}
	if len(removed) > 0 {
		parts = append(parts, fmt.Sprintf("Removed %d field(s): %s", len(removed), strings.Join(removed, ", ")))
	}
	return strings.Join(parts, "; ")
}

func ModificationMetadataFor(changes []domain.SchemaChange, description string) domain.ModificationMetadata {
	if strings.TrimSpace(description) == "" {
		description = "No description provided"
	}
	affected := make([]string, 0, len(changes))
	for _, c := range changes {
		affected = append(affected, c.FieldName)
	}
	return domain.ModificationMetadata{
		Timestamp:    time.Now().UTC(),
		TotalChanges: len(changes),
		ChangeTypes: domain.ChangeCounts{
			Added:   len(fieldNames(changes, domain.ChangeFieldAdded)),
			Updated: len(fieldNames(changes, domain.ChangeFieldUpdated)),
			Removed: len(fieldNames(changes, domain.ChangeFieldRemoved)),
		},
		ChangeDescription: description,
		AffectedFields:    affected,
	}
}

// ApplyFieldModifications builds the modified field map without mutating the
// original. A nil definition removes the field.
func ApplyFieldModifications(original domain.FieldMap, mods map[string]*domain.FieldDefinition) domain.FieldMap {
	out := original.Clone()
	for name, def := range mods {
		if def == nil {
			delete(out, name)
			continue
		}
		out[name] = *def
	}
	return out
}

// ValidateFieldModifications rejects malformed modification payloads before
// anything touches the store. Removals (nil definitions) are always valid.
func ValidateFieldModifications(mods map[string]*domain.FieldDefinition) error {
	for name, def := range mods {
		if def == nil {
			continue
		}
		if err := ValidateFieldDefinition(name, *def); err != nil {
			return err
		}
	}
	return nil
}

func ValidateFieldDefinition(name string, def domain.FieldDefinition) error {
	if strings.TrimSpace(name) == "" {
		return &schemaerr.Validation{Reason: "field name must not be empty"}
	}
	if def.Type == "" {
		return &schemaerr.Validation{Field: name, Reason: "missing required 'type' property"}
	}
	if !domain.ValidFieldType(def.Type) {
		return &schemaerr.Validation{Field: name, Reason: fmt.Sprintf("invalid type %q", def.Type)}
	}
	if strings.TrimSpace(def.Description) == "" {
		return &schemaerr.Validation{Field: name, Reason: "missing required 'description' property"}
	}
	return nil
}

func sortedKeys(m domain.FieldMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fieldNames(changes []domain.SchemaChange, ct domain.ChangeType) []string {
	var names []string
	for _, c := range changes {
		if c.ChangeType == ct {
			names = append(names, c.FieldName)
		}
	}
	return names
}
