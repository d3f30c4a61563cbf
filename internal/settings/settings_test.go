package settings

import (
	"testing"

	"github.com/fernhill/todosync/internal/types"
)

func TestEffectiveProjectID(t *testing.T) {
	tests := []struct {
		name      string
		templated string
		siteWide  string
		want      string
	}{
		{"template override wins", "12345", "99999", "12345"},
		{"fallback to settings", "", "99999", "99999"},
		{"both empty means unassigned", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := &types.Template{ProjectID: tt.templated}
			st := types.SyncSettings{DefaultProjectID: tt.siteWide}
			if got := EffectiveProjectID(tmpl, st); got != tt.want {
				t.Errorf("EffectiveProjectID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEffectiveProjectIDNilTemplate(t *testing.T) {
	st := types.SyncSettings{DefaultProjectID: "99999"}
	if got := EffectiveProjectID(nil, st); got != "99999" {
		t.Errorf("EffectiveProjectID(nil) = %q, want site default", got)
	}
}

func TestEffectiveSectionID(t *testing.T) {
	if got := EffectiveSectionID(&types.Template{SectionID: "S7"}); got != "S7" {
		t.Errorf("got %q, want S7", got)
	}
	if got := EffectiveSectionID(nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestEffectiveDescription(t *testing.T) {
	st := types.SyncSettings{DefaultDescription: "site default"}
	if got := EffectiveDescription("rendered", st); got != "rendered" {
		t.Errorf("got %q, want rendered", got)
	}
	if got := EffectiveDescription("", st); got != "site default" {
		t.Errorf("got %q, want site default", got)
	}
}
