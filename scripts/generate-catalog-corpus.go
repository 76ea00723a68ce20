//go:build ignore

// Package main generates a synthetic catalog corpus for exercising cache
// builds and searches at scale.
// Usage: go run scripts/generate-catalog-corpus.go -components 5000 -output testdata/corpus
//
// The output directory is laid out as a data prefix: point data.prefixes
// at it and run 'swindex refresh' to index the generated catalogs.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/swcatalog/swindex/internal/component"
	"github.com/swcatalog/swindex/internal/metadata"
)

var (
	numComponents = flag.Int("components", 2000, "Number of components to generate")
	numFiles      = flag.Int("files", 4, "Number of catalog files to spread them across")
	outputDir     = flag.String("output", "testdata/corpus", "Output directory (becomes a data prefix)")
	seed          = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// Word pools for generating realistic component metadata
var (
	appAdjectives = []string{
		"Swift", "Quiet", "Bright", "Nimble", "Solid",
		"Clear", "Rapid", "Simple", "Prime", "Fresh",
		"Polar", "Atomic", "Lunar", "Vivid", "Keen",
	}
	appNouns = []string{
		"Studio", "Composer", "Viewer", "Player", "Editor",
		"Organizer", "Builder", "Recorder", "Notebook", "Workbench",
		"Planner", "Mixer", "Archiver", "Capture", "Terminal",
	}
	appDomains = []string{
		"photo management", "audio production", "vector drawing", "video capture",
		"note taking", "file synchronization", "music playback", "document layout",
		"screen recording", "backup scheduling", "disk imaging", "color grading",
		"font preview", "podcast editing", "code review",
	}
	appCategories = []string{
		"AudioVideo", "Development", "Education", "Game", "Graphics",
		"Network", "Office", "Science", "System", "Utility",
	}
	appKeywords = []string{
		"media", "editor", "graphics", "audio", "video",
		"files", "sync", "notes", "music", "images",
		"backup", "terminal", "viewer", "converter", "recorder",
	}
	cliVerbs = []string{
		"Convert", "Inspect", "Archive", "Merge", "Split",
		"Filter", "Index", "Mirror", "Trim", "Encode",
	}
	mediatypes = []string{
		"image/png", "image/tiff", "audio/flac", "audio/ogg", "video/webm",
		"text/markdown", "application/zip", "application/pdf", "image/svg+xml", "audio/mpeg",
	}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	xmlDir := filepath.Join(*outputDir, "swcatalog", "xml")
	if err := os.MkdirAll(xmlDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %d components across %d catalog files in %s...\n",
		*numComponents, *numFiles, *outputDir)

	// Distribute components across kinds
	desktop := *numComponents * 60 / 100 // 60% desktop applications
	console := *numComponents * 20 / 100 // 20% console applications
	addons := *numComponents * 10 / 100  // 10% addons extending the desktop apps
	generic := *numComponents - desktop - console - addons

	cpts := make([]*component.Component, 0, *numComponents)
	hostIDs := make([]string, 0, desktop)

	for i := 0; i < desktop; i++ {
		cpt := generateDesktopApp(rng, i)
		hostIDs = append(hostIDs, cpt.ID)
		cpts = append(cpts, cpt)
	}
	for i := 0; i < console; i++ {
		cpts = append(cpts, generateConsoleApp(rng, i))
	}
	for i := 0; i < addons && len(hostIDs) > 0; i++ {
		host := hostIDs[rng.Intn(len(hostIDs))]
		cpts = append(cpts, generateAddon(rng, i, host))
	}
	for i := 0; i < generic; i++ {
		cpts = append(cpts, generateGeneric(rng, i))
	}

	files := *numFiles
	if files < 1 {
		files = 1
	}
	perFile := (len(cpts) + files - 1) / files

	written := 0
	for f := 0; f < files && written < len(cpts); f++ {
		end := written + perFile
		if end > len(cpts) {
			end = len(cpts)
		}
		origin := fmt.Sprintf("corpus-%d", f)
		if err := writeCatalog(xmlDir, origin, cpts[written:end]); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing catalog %s: %v\n", origin, err)
			os.Exit(1)
		}
		written = end
	}

	fmt.Printf("Generated %d components in %d catalog files.\n", written, files)
}

func randomWord(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func pickWords(rng *rand.Rand, pool []string, n int) []string {
	picked := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for len(picked) < n {
		w := pool[rng.Intn(len(pool))]
		if seen[w] {
			continue
		}
		seen[w] = true
		picked = append(picked, w)
	}
	return picked
}

func generateDesktopApp(rng *rand.Rand, index int) *component.Component {
	adj := randomWord(rng, appAdjectives)
	noun := randomWord(rng, appNouns)
	domain := randomWord(rng, appDomains)

	cpt := component.New()
	cpt.ID = fmt.Sprintf("org.corpus.%s%s%d", adj, noun, index)
	cpt.Kind = component.KindDesktopApp
	cpt.PkgNames = []string{strings.ToLower(fmt.Sprintf("%s-%s-%d", adj, noun, index))}
	cpt.Categories = []string{randomWord(rng, appCategories)}
	cpt.SetName("C", fmt.Sprintf("%s %s", adj, noun))
	cpt.SetSummary("C", fmt.Sprintf("A %s tool for %s", strings.ToLower(adj), domain))
	cpt.SetKeywords("C", pickWords(rng, appKeywords, 3))
	if rng.Intn(4) == 0 {
		cpt.AddProvidedItem(component.ProvidedKindMediatype, randomWord(rng, mediatypes))
	}
	return cpt
}

func generateConsoleApp(rng *rand.Rand, index int) *component.Component {
	noun := randomWord(rng, appNouns)
	verb := randomWord(rng, cliVerbs)

	bin := fmt.Sprintf("%s%d", strings.ToLower(noun), index)
	cpt := component.New()
	cpt.ID = fmt.Sprintf("org.corpus.cli.%s%d", noun, index)
	cpt.Kind = component.KindConsoleApp
	cpt.PkgNames = []string{bin}
	cpt.SetName("C", bin)
	cpt.SetSummary("C", fmt.Sprintf("%s files from the command line", verb))
	cpt.AddProvidedItem(component.ProvidedKindBinary, bin)
	return cpt
}

func generateAddon(rng *rand.Rand, index int, hostID string) *component.Component {
	noun := randomWord(rng, appNouns)

	cpt := component.New()
	cpt.ID = fmt.Sprintf("org.corpus.addon.%s%d", noun, index)
	cpt.Kind = component.KindAddon
	cpt.Extends = []string{hostID}
	cpt.SetName("C", fmt.Sprintf("%s Plugin %d", noun, index))
	cpt.SetSummary("C", fmt.Sprintf("Extra %s support", strings.ToLower(noun)))
	return cpt
}

func generateGeneric(rng *rand.Rand, index int) *component.Component {
	domain := randomWord(rng, appDomains)

	cpt := component.New()
	cpt.ID = fmt.Sprintf("org.corpus.lib.Item%d", index)
	cpt.Kind = component.KindGeneric
	cpt.SetName("C", fmt.Sprintf("Support Library %d", index))
	cpt.SetSummary("C", fmt.Sprintf("Shared routines for %s", domain))
	cpt.AddProvidedItem(component.ProvidedKindLibrary, fmt.Sprintf("libcorpus%d.so.1", index))
	return cpt
}

func writeCatalog(dir, origin string, cpts []*component.Component) error {
	f, err := os.Create(filepath.Join(dir, origin+".xml"))
	if err != nil {
		return err
	}
	if err := metadata.WriteComponentsXML(f, cpts, origin); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
