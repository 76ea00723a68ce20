package metadata

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/swcatalog/swindex/internal/component"
)

// xmlText is a translatable text element.
type xmlText struct {
	Lang  string `xml:"lang,attr"`
	Value string `xml:",chardata"`
}

// xmlMarkup is a translatable element carrying markup children.
type xmlMarkup struct {
	Lang  string `xml:"lang,attr"`
	Inner string `xml:",innerxml"`
}

// xmlTyped is an element addressed by a type attribute.
type xmlTyped struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type xmlKeywords struct {
	Keywords []xmlText `xml:"keyword"`
}

type xmlCategories struct {
	Categories []string `xml:"category"`
}

type xmlProvides struct {
	Libraries  []string   `xml:"library"`
	Binaries   []string   `xml:"binary"`
	Mediatypes []string   `xml:"mediatype"`
	Mimetypes  []string   `xml:"mimetype"`
	Fonts      []string   `xml:"font"`
	Modaliases []string   `xml:"modalias"`
	Python2    []string   `xml:"python2"`
	Python3    []string   `xml:"python3"`
	DBus       []xmlTyped `xml:"dbus"`
	Firmware   []xmlTyped `xml:"firmware"`
	IDs        []string   `xml:"id"`
}

type xmlCustomValue struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type xmlCustom struct {
	Values []xmlCustomValue `xml:"value"`
}

// xmlComponent mirrors one <component> element as read from catalog or
// metainfo data.
type xmlComponent struct {
	XMLName      xml.Name      `xml:"component"`
	Type         string        `xml:"type,attr"`
	Merge        string        `xml:"merge,attr"`
	ID           string        `xml:"id"`
	PkgNames     []string      `xml:"pkgname"`
	Names        []xmlText     `xml:"name"`
	Summaries    []xmlText     `xml:"summary"`
	Descriptions []xmlMarkup   `xml:"description"`
	Keywords     xmlKeywords   `xml:"keywords"`
	Categories   xmlCategories `xml:"categories"`
	Provides     xmlProvides   `xml:"provides"`
	Launchables  []xmlTyped    `xml:"launchable"`
	Bundles      []xmlTyped    `xml:"bundle"`
	Extends      []string      `xml:"extends"`
	Custom       xmlCustom     `xml:"custom"`
}

// ParseComponentsXML reads catalog XML (a <components> document) or a
// single-component metainfo document. Records without an ID are skipped
// and counted, not fatal. A syntax error aborts the whole document.
func ParseComponentsXML(r io.Reader) (*ParseResult, error) {
	dec := xml.NewDecoder(r)
	res := &ParseResult{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse catalog xml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "components":
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "origin":
					res.Origin = attr.Value
				case "version":
					res.Version = attr.Value
				}
			}
		case "component":
			var xc xmlComponent
			if err := dec.DecodeElement(&xc, &se); err != nil {
				return nil, fmt.Errorf("parse catalog xml: %w", err)
			}
			cpt := xc.toComponent()
			if !cpt.Valid() {
				slog.Warn("skipping component record without id",
					slog.String("origin", res.Origin))
				res.Skipped++
				continue
			}
			if cpt.Origin == "" {
				cpt.Origin = res.Origin
			}
			res.Components = append(res.Components, cpt)
		}
	}
	return res, nil
}

// ParseData parses one serialized component payload.
func ParseData(data []byte) (*component.Component, error) {
	var xc xmlComponent
	if err := xml.Unmarshal(data, &xc); err != nil {
		return nil, fmt.Errorf("parse component payload: %w", err)
	}
	cpt := xc.toComponent()
	if !cpt.Valid() {
		return nil, fmt.Errorf("component payload has no id")
	}
	return cpt, nil
}

// toComponent converts a decoded XML record into a component.
func (x *xmlComponent) toComponent() *component.Component {
	cpt := component.New()
	cpt.ID = strings.TrimSpace(x.ID)
	if x.Type == "" {
		cpt.Kind = component.KindGeneric
	} else {
		cpt.Kind = component.KindFromString(x.Type)
	}
	cpt.MergeKind = component.MergeKindFromString(x.Merge)

	for _, p := range x.PkgNames {
		if p = strings.TrimSpace(p); p != "" {
			cpt.PkgNames = append(cpt.PkgNames, p)
		}
	}
	for _, n := range x.Names {
		if v := strings.TrimSpace(n.Value); v != "" {
			cpt.SetName(n.Lang, v)
		}
	}
	for _, s := range x.Summaries {
		if v := strings.TrimSpace(s.Value); v != "" {
			cpt.SetSummary(s.Lang, v)
		}
	}
	for _, d := range x.Descriptions {
		if d.Lang != "" {
			// Catalog style: the whole block is one translation.
			if text := flattenAll(d.Inner); text != "" {
				cpt.SetDescription(d.Lang, text)
			}
			continue
		}
		// Metainfo style: paragraphs carry their own language tags.
		for lang, text := range flattenByLang(d.Inner) {
			cpt.SetDescription(lang, text)
		}
	}

	keywords := make(map[string][]string)
	for _, k := range x.Keywords.Keywords {
		if v := strings.TrimSpace(k.Value); v != "" {
			lang := k.Lang
			if lang == "" {
				lang = "C"
			}
			keywords[lang] = append(keywords[lang], v)
		}
	}
	for lang, kw := range keywords {
		cpt.SetKeywords(lang, kw)
	}

	for _, cat := range x.Categories.Categories {
		if cat = strings.TrimSpace(cat); cat != "" {
			cpt.Categories = append(cpt.Categories, cat)
		}
	}

	addItems := func(kind component.ProvidedKind, items []string) {
		for _, item := range items {
			cpt.AddProvidedItem(kind, strings.TrimSpace(item))
		}
	}
	addItems(component.ProvidedKindLibrary, x.Provides.Libraries)
	addItems(component.ProvidedKindBinary, x.Provides.Binaries)
	addItems(component.ProvidedKindMediatype, x.Provides.Mediatypes)
	addItems(component.ProvidedKindMediatype, x.Provides.Mimetypes)
	addItems(component.ProvidedKindFont, x.Provides.Fonts)
	addItems(component.ProvidedKindModalias, x.Provides.Modaliases)
	addItems(component.ProvidedKindPython2, x.Provides.Python2)
	addItems(component.ProvidedKindPython, x.Provides.Python3)
	addItems(component.ProvidedKindID, x.Provides.IDs)
	for _, d := range x.Provides.DBus {
		switch d.Type {
		case "system":
			cpt.AddProvidedItem(component.ProvidedKindDBusSystem, strings.TrimSpace(d.Value))
		case "user", "session":
			cpt.AddProvidedItem(component.ProvidedKindDBusUser, strings.TrimSpace(d.Value))
		}
	}
	for _, f := range x.Provides.Firmware {
		switch f.Type {
		case "runtime":
			cpt.AddProvidedItem(component.ProvidedKindFirmwareRuntime, strings.TrimSpace(f.Value))
		case "flashed":
			cpt.AddProvidedItem(component.ProvidedKindFirmwareFlashed, strings.TrimSpace(f.Value))
		}
	}

	for _, l := range x.Launchables {
		kind := component.LaunchableKindFromString(l.Type)
		if kind == component.LaunchableKindUnknown && l.Type == "" {
			kind = component.LaunchableKindDesktopID
		}
		if kind != component.LaunchableKindUnknown {
			cpt.AddLaunchableEntry(kind, strings.TrimSpace(l.Value))
		}
	}
	for _, b := range x.Bundles {
		kind := component.BundleKindFromString(b.Type)
		if id := strings.TrimSpace(b.Value); kind != component.BundleKindUnknown && id != "" {
			cpt.Bundles = append(cpt.Bundles, component.Bundle{Kind: kind, ID: id})
		}
	}
	for _, e := range x.Extends {
		if e = strings.TrimSpace(e); e != "" {
			cpt.Extends = append(cpt.Extends, e)
		}
	}
	for _, v := range x.Custom.Values {
		if v.Key != "" {
			cpt.SetCustomValue(v.Key, strings.TrimSpace(v.Value))
		}
	}
	return cpt
}

// flattenAll reduces description markup to plain text, ignoring language
// tags on child elements.
func flattenAll(inner string) string {
	var chunks []string
	walkMarkup(inner, func(_ string, text string) {
		chunks = append(chunks, text)
	})
	return strings.Join(chunks, " ")
}

// flattenByLang reduces description markup to plain text per language tag.
// Untagged content is filed under "C".
func flattenByLang(inner string) map[string]string {
	chunks := make(map[string][]string)
	walkMarkup(inner, func(lang, text string) {
		chunks[lang] = append(chunks[lang], text)
	})
	out := make(map[string]string, len(chunks))
	for lang, c := range chunks {
		out[lang] = strings.Join(c, " ")
	}
	return out
}

// walkMarkup feeds each whitespace-normalized text run of the markup to
// fn, together with the language tag in effect at that point. Non-strict
// decoding tolerates unescaped ampersands in description prose.
func walkMarkup(inner string, fn func(lang, text string)) {
	dec := xml.NewDecoder(strings.NewReader(inner))
	dec.Strict = false
	langs := []string{"C"}
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			lang := langs[len(langs)-1]
			for _, attr := range t.Attr {
				if attr.Name.Local == "lang" {
					lang = attr.Value
				}
			}
			langs = append(langs, lang)
		case xml.EndElement:
			if len(langs) > 1 {
				langs = langs[:len(langs)-1]
			}
		case xml.CharData:
			if text := strings.Join(strings.Fields(string(t)), " "); text != "" {
				fn(langs[len(langs)-1], text)
			}
		}
	}
}

// Serialization mirrors the parse structs but writes the xml:lang form.

type xmlTextOut struct {
	Lang  string `xml:"xml:lang,attr,omitempty"`
	Value string `xml:",chardata"`
}

type xmlMarkupOut struct {
	Lang  string `xml:"xml:lang,attr,omitempty"`
	Inner string `xml:",innerxml"`
}

type xmlTypedOut struct {
	Type  string `xml:"type,attr,omitempty"`
	Value string `xml:",chardata"`
}

type xmlKeywordsOut struct {
	Keywords []xmlTextOut `xml:"keyword"`
}

type xmlCategoriesOut struct {
	Categories []string `xml:"category"`
}

type xmlProvidesOut struct {
	Libraries  []string      `xml:"library,omitempty"`
	Binaries   []string      `xml:"binary,omitempty"`
	Mediatypes []string      `xml:"mediatype,omitempty"`
	Fonts      []string      `xml:"font,omitempty"`
	Modaliases []string      `xml:"modalias,omitempty"`
	Python2    []string      `xml:"python2,omitempty"`
	Python3    []string      `xml:"python3,omitempty"`
	DBus       []xmlTypedOut `xml:"dbus,omitempty"`
	Firmware   []xmlTypedOut `xml:"firmware,omitempty"`
	IDs        []string      `xml:"id,omitempty"`
}

type xmlCustomValueOut struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type xmlComponentOut struct {
	XMLName      xml.Name            `xml:"component"`
	Type         string              `xml:"type,attr,omitempty"`
	Merge        string              `xml:"merge,attr,omitempty"`
	ID           string              `xml:"id"`
	PkgNames     []string            `xml:"pkgname,omitempty"`
	Names        []xmlTextOut        `xml:"name,omitempty"`
	Summaries    []xmlTextOut        `xml:"summary,omitempty"`
	Descriptions []xmlMarkupOut      `xml:"description,omitempty"`
	Keywords     *xmlKeywordsOut     `xml:"keywords,omitempty"`
	Categories   *xmlCategoriesOut   `xml:"categories,omitempty"`
	Provides     *xmlProvidesOut     `xml:"provides,omitempty"`
	Launchables  []xmlTypedOut       `xml:"launchable,omitempty"`
	Bundles      []xmlTypedOut       `xml:"bundle,omitempty"`
	Extends      []string            `xml:"extends,omitempty"`
	Custom       []xmlCustomValueOut `xml:"custom>value,omitempty"`
}

// Serialize writes one component as a standalone payload document.
// The output parses back via ParseData.
func Serialize(cpt *component.Component) ([]byte, error) {
	out := buildXMLComponent(cpt)
	data, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize component %s: %w", cpt.ID, err)
	}
	return data, nil
}

// WriteComponentsXML writes a catalog document containing the given
// components.
func WriteComponentsXML(w io.Writer, cpts []*component.Component, origin string) error {
	type xmlComponents struct {
		XMLName    xml.Name          `xml:"components"`
		Version    string            `xml:"version,attr"`
		Origin     string            `xml:"origin,attr,omitempty"`
		Components []xmlComponentOut `xml:"component"`
	}

	doc := xmlComponents{Version: "1.0", Origin: origin}
	for _, cpt := range cpts {
		doc.Components = append(doc.Components, buildXMLComponent(cpt))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// buildXMLComponent assembles the serialization struct for one component.
// Locale tables are written untranslated-first, then sorted, so output is
// deterministic.
func buildXMLComponent(cpt *component.Component) xmlComponentOut {
	out := xmlComponentOut{ID: cpt.ID}
	if cpt.Kind != component.KindUnknown {
		out.Type = cpt.Kind.String()
	}
	if cpt.MergeKind != component.MergeKindNone {
		out.Merge = cpt.MergeKind.String()
	}
	out.PkgNames = cpt.PkgNames

	for _, lang := range sortedLocales(cpt.Names()) {
		out.Names = append(out.Names, xmlTextOut{Lang: xmlLang(lang), Value: cpt.Names()[lang]})
	}
	for _, lang := range sortedLocales(cpt.Summaries()) {
		out.Summaries = append(out.Summaries, xmlTextOut{Lang: xmlLang(lang), Value: cpt.Summaries()[lang]})
	}
	for _, lang := range sortedLocales(cpt.Descriptions()) {
		out.Descriptions = append(out.Descriptions, xmlMarkupOut{
			Lang:  xmlLang(lang),
			Inner: paragraphMarkup(cpt.Descriptions()[lang]),
		})
	}

	kwTables := cpt.KeywordTables()
	if len(kwTables) > 0 {
		kw := &xmlKeywordsOut{}
		for _, lang := range sortedKeywordLocales(kwTables) {
			for _, word := range kwTables[lang] {
				kw.Keywords = append(kw.Keywords, xmlTextOut{Lang: xmlLang(lang), Value: word})
			}
		}
		out.Keywords = kw
	}
	if len(cpt.Categories) > 0 {
		out.Categories = &xmlCategoriesOut{Categories: cpt.Categories}
	}

	if len(cpt.Provided) > 0 {
		prov := &xmlProvidesOut{}
		for _, group := range cpt.Provided {
			switch group.Kind {
			case component.ProvidedKindLibrary:
				prov.Libraries = append(prov.Libraries, group.Items...)
			case component.ProvidedKindBinary:
				prov.Binaries = append(prov.Binaries, group.Items...)
			case component.ProvidedKindMediatype:
				prov.Mediatypes = append(prov.Mediatypes, group.Items...)
			case component.ProvidedKindFont:
				prov.Fonts = append(prov.Fonts, group.Items...)
			case component.ProvidedKindModalias:
				prov.Modaliases = append(prov.Modaliases, group.Items...)
			case component.ProvidedKindPython2:
				prov.Python2 = append(prov.Python2, group.Items...)
			case component.ProvidedKindPython:
				prov.Python3 = append(prov.Python3, group.Items...)
			case component.ProvidedKindDBusSystem:
				for _, item := range group.Items {
					prov.DBus = append(prov.DBus, xmlTypedOut{Type: "system", Value: item})
				}
			case component.ProvidedKindDBusUser:
				for _, item := range group.Items {
					prov.DBus = append(prov.DBus, xmlTypedOut{Type: "user", Value: item})
				}
			case component.ProvidedKindFirmwareRuntime:
				for _, item := range group.Items {
					prov.Firmware = append(prov.Firmware, xmlTypedOut{Type: "runtime", Value: item})
				}
			case component.ProvidedKindFirmwareFlashed:
				for _, item := range group.Items {
					prov.Firmware = append(prov.Firmware, xmlTypedOut{Type: "flashed", Value: item})
				}
			case component.ProvidedKindID:
				prov.IDs = append(prov.IDs, group.Items...)
			}
		}
		out.Provides = prov
	}

	for _, l := range cpt.Launchables {
		for _, entry := range l.Entries {
			out.Launchables = append(out.Launchables, xmlTypedOut{Type: l.Kind.String(), Value: entry})
		}
	}
	for _, b := range cpt.Bundles {
		out.Bundles = append(out.Bundles, xmlTypedOut{Type: b.Kind.String(), Value: b.ID})
	}
	out.Extends = cpt.Extends

	for _, key := range sortedKeys(cpt.Custom()) {
		out.Custom = append(out.Custom, xmlCustomValueOut{Key: key, Value: cpt.Custom()[key]})
	}
	return out
}

// paragraphMarkup wraps plain description text in a paragraph element,
// escaping the text for markup embedding.
func paragraphMarkup(text string) string {
	var buf bytes.Buffer
	buf.WriteString("<p>")
	_ = xml.EscapeText(&buf, []byte(text))
	buf.WriteString("</p>")
	return buf.String()
}

// xmlLang maps the untranslated locale to an absent language attribute.
func xmlLang(locale string) string {
	if locale == "C" {
		return ""
	}
	return locale
}

// sortedLocales orders locale keys untranslated-first, then lexically.
func sortedLocales(table map[string]string) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sortLocaleKeys(keys)
	return keys
}

func sortedKeywordLocales(table map[string][]string) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sortLocaleKeys(keys)
	return keys
}

func sortLocaleKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "C" {
			return keys[j] != "C"
		}
		if keys[j] == "C" {
			return false
		}
		return keys[i] < keys[j]
	})
}

func sortedKeys(table map[string]string) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
