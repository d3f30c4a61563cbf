package taskkind

import (
	"reflect"
	"testing"
)

func TestCropKindTokenFieldNames(t *testing.T) {
	k := Get("crop")
	if k == nil {
		t.Fatal("crop kind not registered")
	}
	want := []string{"crop", "sku", "variety_name", "bed"}
	if got := k.TokenFieldNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("TokenFieldNames() = %v, want %v", got, want)
	}
}

func TestBiennialCropKindTokenFieldNames(t *testing.T) {
	k := Get("biennial_crop")
	if k == nil {
		t.Fatal("biennial_crop kind not registered")
	}
	want := []string{"sku", "variety_name", "bed", "bed_second_year"}
	if got := k.TokenFieldNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("TokenFieldNames() = %v, want %v", got, want)
	}
}

func TestTokenSpecs(t *testing.T) {
	k := Get("crop")
	specs := k.TokenSpecs()
	if len(specs) != 4 {
		t.Fatalf("got %d specs, want 4", len(specs))
	}

	tests := []struct {
		name     string
		label    string
		required bool
	}{
		{"crop", "Crop", false},
		{"sku", "Sku", true},
		{"variety_name", "Variety Name", true},
		{"bed", "Bed", false},
	}
	for i, tt := range tests {
		if specs[i].Name != tt.name {
			t.Errorf("spec[%d].Name = %q, want %q", i, specs[i].Name, tt.name)
		}
		if specs[i].Label != tt.label {
			t.Errorf("spec[%d].Label = %q, want %q", i, specs[i].Label, tt.label)
		}
		if specs[i].Required != tt.required {
			t.Errorf("spec[%d].Required = %v, want %v", i, specs[i].Required, tt.required)
		}
	}
}

func TestGetUnknownKind(t *testing.T) {
	if k := Get("no-such-kind"); k != nil {
		t.Errorf("Get(unknown) = %v, want nil", k)
	}
	if _, err := MustGet("no-such-kind"); err == nil {
		t.Error("MustGet(unknown) should return an error")
	}
}

func TestList(t *testing.T) {
	names := List()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["crop"] || !found["biennial_crop"] {
		t.Errorf("List() = %v, want crop and biennial_crop present", names)
	}
}

func TestLabelFromName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sku", "Sku"},
		{"variety_name", "Variety Name"},
		{"bed_second_year", "Bed Second Year"},
	}
	for _, tt := range tests {
		if got := labelFromName(tt.in); got != tt.want {
			t.Errorf("labelFromName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
