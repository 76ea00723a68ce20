package metadata

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/swcatalog/swindex/internal/component"
)

type yamlHeader struct {
	File    string `yaml:"File"`
	Version string `yaml:"Version"`
	Origin  string `yaml:"Origin"`
}

type yamlTypedService struct {
	Type    string `yaml:"type"`
	Service string `yaml:"service"`
}

type yamlFirmware struct {
	Type string `yaml:"type"`
	File string `yaml:"file"`
	GUID string `yaml:"guid"`
}

type yamlProvides struct {
	Libraries  []string           `yaml:"libraries"`
	Binaries   []string           `yaml:"binaries"`
	Mediatypes []string           `yaml:"mediatypes"`
	Mimetypes  []string           `yaml:"mimetypes"`
	Fonts      []string           `yaml:"fonts"`
	Modaliases []string           `yaml:"modaliases"`
	Python2    []string           `yaml:"python2"`
	Python3    []string           `yaml:"python3"`
	DBus       []yamlTypedService `yaml:"dbus"`
	Firmware   []yamlFirmware     `yaml:"firmware"`
	IDs        []string           `yaml:"ids"`
}

type yamlBundle struct {
	Type string `yaml:"type"`
	ID   string `yaml:"id"`
}

// yamlComponent mirrors one component document of a DEP-11 style stream.
type yamlComponent struct {
	Type        string              `yaml:"Type"`
	ID          string              `yaml:"ID"`
	Merge       string              `yaml:"Merge"`
	Package     string              `yaml:"Package"`
	Name        map[string]string   `yaml:"Name"`
	Summary     map[string]string   `yaml:"Summary"`
	Description map[string]string   `yaml:"Description"`
	Categories  []string            `yaml:"Categories"`
	Keywords    map[string][]string `yaml:"Keywords"`
	Extends     []string            `yaml:"Extends"`
	Launchable  map[string][]string `yaml:"Launchable"`
	Provides    *yamlProvides       `yaml:"Provides"`
	Bundles     []yamlBundle        `yaml:"Bundles"`
}

// ParseComponentsYAML reads a DEP-11 style multi-document stream: an
// optional file header document followed by one document per component.
// A document that fails to decode or lacks an ID is skipped and counted.
func ParseComponentsYAML(r io.Reader) (*ParseResult, error) {
	dec := yaml.NewDecoder(r)
	res := &ParseResult{}

	first := true
	failed := 0
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// One broken document is recoverable, a second consecutive
			// failure means the stream itself is unreadable.
			failed++
			if failed > 1 {
				return nil, fmt.Errorf("parse catalog yaml: %w", err)
			}
			slog.Warn("skipping unreadable catalog document", slog.String("error", err.Error()))
			res.Skipped++
			continue
		}
		failed = 0

		if first {
			first = false
			var hdr yamlHeader
			if node.Decode(&hdr) == nil && hdr.File == "DEP-11" {
				res.Origin = hdr.Origin
				res.Version = hdr.Version
				continue
			}
		}

		var yc yamlComponent
		if err := node.Decode(&yc); err != nil {
			slog.Warn("skipping malformed component document", slog.String("error", err.Error()))
			res.Skipped++
			continue
		}
		cpt := yc.toComponent()
		if !cpt.Valid() {
			slog.Warn("skipping component document without id",
				slog.String("origin", res.Origin))
			res.Skipped++
			continue
		}
		if cpt.Origin == "" {
			cpt.Origin = res.Origin
		}
		res.Components = append(res.Components, cpt)
	}
	return res, nil
}

// toComponent converts a decoded YAML document into a component.
func (y *yamlComponent) toComponent() *component.Component {
	cpt := component.New()
	cpt.ID = strings.TrimSpace(y.ID)
	if y.Type == "" {
		cpt.Kind = component.KindGeneric
	} else {
		cpt.Kind = component.KindFromString(y.Type)
	}
	cpt.MergeKind = component.MergeKindFromString(y.Merge)

	if pkg := strings.TrimSpace(y.Package); pkg != "" {
		cpt.PkgNames = append(cpt.PkgNames, pkg)
	}
	for lang, v := range y.Name {
		if v = strings.TrimSpace(v); v != "" {
			cpt.SetName(lang, v)
		}
	}
	for lang, v := range y.Summary {
		if v = strings.TrimSpace(v); v != "" {
			cpt.SetSummary(lang, v)
		}
	}
	for lang, v := range y.Description {
		// Description values may carry embedded markup.
		if text := flattenAll(v); text != "" {
			cpt.SetDescription(lang, text)
		} else if v = strings.TrimSpace(v); v != "" {
			cpt.SetDescription(lang, v)
		}
	}
	for lang, kw := range y.Keywords {
		var clean []string
		for _, w := range kw {
			if w = strings.TrimSpace(w); w != "" {
				clean = append(clean, w)
			}
		}
		if len(clean) > 0 {
			cpt.SetKeywords(lang, clean)
		}
	}

	for _, cat := range y.Categories {
		if cat = strings.TrimSpace(cat); cat != "" {
			cpt.Categories = append(cpt.Categories, cat)
		}
	}
	for _, e := range y.Extends {
		if e = strings.TrimSpace(e); e != "" {
			cpt.Extends = append(cpt.Extends, e)
		}
	}
	for kindName, entries := range y.Launchable {
		kind := component.LaunchableKindFromString(kindName)
		if kind == component.LaunchableKindUnknown {
			continue
		}
		for _, entry := range entries {
			cpt.AddLaunchableEntry(kind, strings.TrimSpace(entry))
		}
	}

	if p := y.Provides; p != nil {
		addItems := func(kind component.ProvidedKind, items []string) {
			for _, item := range items {
				cpt.AddProvidedItem(kind, strings.TrimSpace(item))
			}
		}
		addItems(component.ProvidedKindLibrary, p.Libraries)
		addItems(component.ProvidedKindBinary, p.Binaries)
		addItems(component.ProvidedKindMediatype, p.Mediatypes)
		addItems(component.ProvidedKindMediatype, p.Mimetypes)
		addItems(component.ProvidedKindFont, p.Fonts)
		addItems(component.ProvidedKindModalias, p.Modaliases)
		addItems(component.ProvidedKindPython2, p.Python2)
		addItems(component.ProvidedKindPython, p.Python3)
		addItems(component.ProvidedKindID, p.IDs)
		for _, d := range p.DBus {
			switch d.Type {
			case "system":
				cpt.AddProvidedItem(component.ProvidedKindDBusSystem, strings.TrimSpace(d.Service))
			case "user", "session":
				cpt.AddProvidedItem(component.ProvidedKindDBusUser, strings.TrimSpace(d.Service))
			}
		}
		for _, f := range p.Firmware {
			item := strings.TrimSpace(f.File)
			if item == "" {
				item = strings.TrimSpace(f.GUID)
			}
			switch f.Type {
			case "runtime":
				cpt.AddProvidedItem(component.ProvidedKindFirmwareRuntime, item)
			case "flashed":
				cpt.AddProvidedItem(component.ProvidedKindFirmwareFlashed, item)
			}
		}
	}

	for _, b := range y.Bundles {
		kind := component.BundleKindFromString(b.Type)
		if id := strings.TrimSpace(b.ID); kind != component.BundleKindUnknown && id != "" {
			cpt.Bundles = append(cpt.Bundles, component.Bundle{Kind: kind, ID: id})
		}
	}
	return cpt
}
