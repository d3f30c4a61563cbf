// Package settings resolves the effective destination for a
// materialization run from the template and the site-wide sync settings.
package settings

import "github.com/fernhill/todosync/internal/types"

// EffectiveProjectID returns the project a materialization run targets:
// the template's own override if non-empty, else the site-wide default,
// else "" meaning the external system's inbox/unassigned. Pure function;
// callers evaluate it per run so settings changes never apply
// retroactively.
func EffectiveProjectID(tmpl *types.Template, s types.SyncSettings) string {
	if tmpl != nil && tmpl.ProjectID != "" {
		return tmpl.ProjectID
	}
	return s.DefaultProjectID
}

// EffectiveSectionID returns the section override for a run, or "" when
// the template does not pin one. There is no site-wide default section.
func EffectiveSectionID(tmpl *types.Template) string {
	if tmpl == nil {
		return ""
	}
	return tmpl.SectionID
}

// EffectiveDescription returns the parent task description for a run:
// the rendered kind description if non-empty, else the site-wide default.
func EffectiveDescription(rendered string, s types.SyncSettings) string {
	if rendered != "" {
		return rendered
	}
	return s.DefaultDescription
}
