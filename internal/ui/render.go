package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/swcatalog/swindex/internal/component"
)

// Renderer writes component lists and detail views.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, noColor bool) *Renderer {
	return &Renderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// ComponentList writes a numbered list, one entry per component: display
// name with the component ID and kind, the summary indented below.
func (r *Renderer) ComponentList(cpts []*component.Component) {
	for i, cpt := range cpts {
		name := cpt.Name()
		if name == "" {
			name = cpt.ID
		}
		head := fmt.Sprintf("%2d. %s", i+1, r.styles.Active.Render(name))
		head += " " + r.styles.Dim.Render(fmt.Sprintf("(%s, %s)", cpt.ID, cpt.Kind))
		_, _ = fmt.Fprintln(r.out, head)

		if summary := cpt.Summary(); summary != "" {
			_, _ = fmt.Fprintf(r.out, "    %s\n", r.styles.Label.Render(summary))
		}
	}
}

// ComponentDetail writes the full detail view of one component.
func (r *Renderer) ComponentDetail(cpt *component.Component) {
	for _, line := range DetailLines(cpt, r.styles) {
		_, _ = fmt.Fprintln(r.out, line)
	}
}

// DetailLines renders the detail view of a component as styled lines. The
// browser reuses it for its detail screen.
func DetailLines(cpt *component.Component, styles Styles) []string {
	var lines []string
	field := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, fmt.Sprintf("%s %s", styles.Label.Render(label+":"), value))
	}

	name := cpt.Name()
	if name == "" {
		name = cpt.ID
	}
	lines = append(lines, styles.Header.Render(name))

	field("Identifier", cpt.ID)
	field("Kind", cpt.Kind.String())
	field("Summary", cpt.Summary())
	if desc := cpt.Description(); desc != "" {
		lines = append(lines, styles.Label.Render("Description:"))
		for _, para := range strings.Split(desc, "\n") {
			if para = strings.TrimSpace(para); para != "" {
				lines = append(lines, "  "+para)
			}
		}
	}
	field("Origin", cpt.Origin)
	field("Branch", cpt.Branch)
	if cpt.Scope != component.ScopeUnknown {
		field("Scope", cpt.Scope.String())
	}
	field("Data ID", cpt.DataID())

	if len(cpt.PkgNames) > 0 {
		field("Packages", strings.Join(cpt.PkgNames, ", "))
	}
	for _, b := range cpt.Bundles {
		field("Bundle", fmt.Sprintf("%s (%s)", b.ID, b.Kind))
	}
	if len(cpt.Categories) > 0 {
		field("Categories", strings.Join(cpt.Categories, ", "))
	}
	if kw := cpt.Keywords(); len(kw) > 0 {
		field("Keywords", strings.Join(kw, ", "))
	}
	if len(cpt.Extends) > 0 {
		field("Extends", strings.Join(cpt.Extends, ", "))
	}

	for _, prov := range cpt.Provided {
		label := fmt.Sprintf("Provides (%s)", prov.Kind)
		field(label, strings.Join(prov.Items, ", "))
	}
	for _, l := range cpt.Launchables {
		label := fmt.Sprintf("Launchable (%s)", l.Kind)
		field(label, strings.Join(l.Entries, ", "))
	}

	if addons := cpt.Addons(); len(addons) > 0 {
		ids := make([]string, 0, len(addons))
		for _, a := range addons {
			ids = append(ids, a.ID)
		}
		field("Addons", strings.Join(ids, ", "))
	}

	return lines
}

// componentView is the JSON projection of a component.
type componentView struct {
	ID          string              `json:"id"`
	Kind        string              `json:"kind"`
	Name        string              `json:"name,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Description string              `json:"description,omitempty"`
	Origin      string              `json:"origin,omitempty"`
	Branch      string              `json:"branch,omitempty"`
	DataID      string              `json:"data_id,omitempty"`
	PkgNames    []string            `json:"pkgnames,omitempty"`
	Categories  []string            `json:"categories,omitempty"`
	Extends     []string            `json:"extends,omitempty"`
	Provided    map[string][]string `json:"provided,omitempty"`
	Addons      []string            `json:"addons,omitempty"`
}

func viewOf(cpt *component.Component) componentView {
	v := componentView{
		ID:          cpt.ID,
		Kind:        cpt.Kind.String(),
		Name:        cpt.Name(),
		Summary:     cpt.Summary(),
		Description: cpt.Description(),
		Origin:      cpt.Origin,
		Branch:      cpt.Branch,
		DataID:      cpt.DataID(),
		PkgNames:    cpt.PkgNames,
		Categories:  cpt.Categories,
		Extends:     cpt.Extends,
	}
	if len(cpt.Provided) > 0 {
		v.Provided = make(map[string][]string, len(cpt.Provided))
		for _, p := range cpt.Provided {
			v.Provided[p.Kind.String()] = p.Items
		}
	}
	for _, a := range cpt.Addons() {
		v.Addons = append(v.Addons, a.ID)
	}
	return v
}

// ComponentsJSON writes the components as an indented JSON array.
func (r *Renderer) ComponentsJSON(cpts []*component.Component) error {
	views := make([]componentView, 0, len(cpts))
	for _, cpt := range cpts {
		views = append(views, viewOf(cpt))
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}

// Headerf writes a styled header line.
func (r *Renderer) Headerf(format string, args ...any) {
	_, _ = fmt.Fprintln(r.out, r.styles.Header.Render(fmt.Sprintf(format, args...)))
}

// Warningf writes a styled warning line.
func (r *Renderer) Warningf(format string, args ...any) {
	_, _ = fmt.Fprintln(r.out, r.styles.Warning.Render(fmt.Sprintf(format, args...)))
}

// Successf writes a styled success line.
func (r *Renderer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(r.out, r.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Dimf writes a styled secondary line.
func (r *Renderer) Dimf(format string, args ...any) {
	_, _ = fmt.Fprintln(r.out, r.styles.Dim.Render(fmt.Sprintf(format, args...)))
}

// Linef writes an unstyled line.
func (r *Renderer) Linef(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format+"\n", args...)
}
