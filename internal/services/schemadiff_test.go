package services

import (
	"errors"
	"testing"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/schemaerr"
)

func strField(desc string) domain.FieldDefinition {
	return domain.FieldDefinition{Type: domain.FieldTypeString, Description: desc}
}

func TestDiffFieldsIdentical(t *testing.T) {
	fm := domain.FieldMap{
		"name":   strField("full name"),
		"number": strField("document number"),
	}
	if changes := DiffFields(fm, fm.Clone()); len(changes) != 0 {
		t.Fatalf("diff of identical maps produced %d changes: %+v", len(changes), changes)
	}
}

func TestDiffFieldsOrdering(t *testing.T) {
	oldFields := domain.FieldMap{
		"b_removed": strField("goes away"),
		"a_removed": strField("goes away"),
		"updated":   strField("old description"),
		"kept":      strField("unchanged"),
	}
	newFields := domain.FieldMap{
		"z_added": strField("new"),
		"a_added": strField("new"),
		"updated": strField("new description"),
		"kept":    strField("unchanged"),
	}

	changes := DiffFields(oldFields, newFields)

	wantOrder := []struct {
		ct   domain.ChangeType
		name string
	}{
		{domain.ChangeFieldAdded, "a_added"},
		{domain.ChangeFieldAdded, "z_added"},
		{domain.ChangeFieldRemoved, "a_removed"},
		{domain.ChangeFieldRemoved, "b_removed"},
		{domain.ChangeFieldUpdated, "updated"},
	}
	if len(changes) != len(wantOrder) {
		t.Fatalf("got %d changes, want %d: %+v", len(changes), len(wantOrder), changes)
	}
	for i, want := range wantOrder {
		if changes[i].ChangeType != want.ct || changes[i].FieldName != want.name {
			t.Errorf("changes[%d] = %s %s, want %s %s",
				i, changes[i].ChangeType, changes[i].FieldName, want.ct, want.name)
		}
	}

	for _, c := range changes {
		switch c.ChangeType {
		case domain.ChangeFieldAdded:
			if c.OldValue != nil || c.NewValue == nil {
				t.Errorf("added change %s should carry only NewValue", c.FieldName)
			}
		case domain.ChangeFieldRemoved:
			if c.OldValue == nil || c.NewValue != nil {
				t.Errorf("removed change %s should carry only OldValue", c.FieldName)
			}
		case domain.ChangeFieldUpdated:
			if c.OldValue == nil || c.NewValue == nil {
				t.Errorf("updated change %s should carry both values", c.FieldName)
			}
		}
	}
}

func TestDiffFieldsDetectsRequiredFlip(t *testing.T) {
	oldFields := domain.FieldMap{"name": {Type: domain.FieldTypeString, Description: "d", Required: false}}
	newFields := domain.FieldMap{"name": {Type: domain.FieldTypeString, Description: "d", Required: true}}

	changes := DiffFields(oldFields, newFields)
	if len(changes) != 1 || changes[0].ChangeType != domain.ChangeFieldUpdated {
		t.Fatalf("changes = %+v, want one update", changes)
	}
}

func TestChangeSummary(t *testing.T) {
	changes := []domain.SchemaChange{
		{ChangeType: domain.ChangeFieldAdded, FieldName: "middle_name"},
		{ChangeType: domain.ChangeFieldAdded, FieldName: "suffix"},
		{ChangeType: domain.ChangeFieldUpdated, FieldName: "dob"},
		{ChangeType: domain.ChangeFieldRemoved, FieldName: "fax"},
	}
	got := ChangeSummary(changes)
	want := "Added 2 field(s): middle_name, suffix; Updated 1 field(s): dob; Removed 1 field(s): fax"
	if got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}

	if got := ChangeSummary(nil); got != "No changes detected" {
		t.Errorf("empty summary = %q", got)
	}
}

func TestModificationMetadata(t *testing.T) {
	changes := []domain.SchemaChange{
		{ChangeType: domain.ChangeFieldAdded, FieldName: "middle_name"},
		{ChangeType: domain.ChangeFieldRemoved, FieldName: "fax"},
	}

	md := ModificationMetadataFor(changes, "")
	if md.ChangeDescription != "No description provided" {
		t.Errorf("description = %q", md.ChangeDescription)
	}
	if md.TotalChanges != 2 {
		t.Errorf("total = %d, want 2", md.TotalChanges)
	}
	if md.ChangeTypes.Added != 1 || md.ChangeTypes.Removed != 1 || md.ChangeTypes.Updated != 0 {
		t.Errorf("counts = %+v", md.ChangeTypes)
	}
	if len(md.AffectedFields) != 2 {
		t.Errorf("affected = %v", md.AffectedFields)
	}
	if md.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	md = ModificationMetadataFor(changes, "tightened validation")
	if md.ChangeDescription != "tightened validation" {
		t.Errorf("description = %q", md.ChangeDescription)
	}
}

func TestApplyFieldModifications(t *testing.T) {
	original := domain.FieldMap{
		"name": strField("full name"),
		"fax":  strField("fax number"),
	}
	added := strField("middle name")
	mods := map[string]*domain.FieldDefinition{
		"middle_name": &added,
		"fax":         nil,
	}

	out := ApplyFieldModifications(original, mods)

	if _, ok := out["fax"]; ok {
		t.Error("nil definition should remove the field")
	}
	if _, ok := out["middle_name"]; !ok {
		t.Error("new definition should add the field")
	}
	if _, ok := original["fax"]; !ok {
		t.Error("original map must not be mutated")
	}
	if _, ok := original["middle_name"]; ok {
		t.Error("original map must not be mutated")
	}
}

func TestValidateFieldModifications(t *testing.T) {
	valid := strField("ok")
	if err := ValidateFieldModifications(map[string]*domain.FieldDefinition{
		"a": &valid,
		"b": nil,
	}); err != nil {
		t.Errorf("valid mods rejected: %v", err)
	}

	noType := domain.FieldDefinition{Description: "d"}
	err := ValidateFieldModifications(map[string]*domain.FieldDefinition{"a": &noType})
	var verr *schemaerr.Validation
	if err == nil {
		t.Fatal("missing type accepted")
	} else if !errors.As(err, &verr) {
		t.Fatalf("error type = %T", err)
	}

	badType := domain.FieldDefinition{Type: "uuid", Description: "d"}
	if err := ValidateFieldModifications(map[string]*domain.FieldDefinition{"a": &badType}); err == nil {
		t.Error("unknown type accepted")
	}

	noDesc := domain.FieldDefinition{Type: domain.FieldTypeString}
	if err := ValidateFieldModifications(map[string]*domain.FieldDefinition{"a": &noDesc}); err == nil {
		t.Error("missing description accepted")
	}
}
