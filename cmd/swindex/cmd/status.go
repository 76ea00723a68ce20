package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swcatalog/swindex/internal/cache"
	"github.com/swcatalog/swindex/internal/pool"
	"github.com/swcatalog/swindex/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cache health and locations",
		Long: `Display information about the metadata cache including:
  - Locale and visible component count
  - Number of attached cache sections
  - Cache locations with their section files and sizes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	p, err := buildPool(0)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	// Status reports whatever it can see; a failed load becomes a state,
	// not a fatal error.
	state := "ready"
	if err := p.Load(cmd.Context()); err != nil {
		if errors.Is(err, pool.ErrIncomplete) {
			slog.Warn("status_partial_load", slog.Any("error", err))
		} else {
			state = "error"
			slog.Warn("status_load_failed", slog.Any("error", err))
		}
	}

	info := collectStatus(p)
	if state == "error" {
		info.State = state
	}

	r := ui.NewStatusRenderer(cmd.OutOrStdout(), noColor || ui.DetectNoColor())
	if jsonOutput {
		return r.RenderJSON(info)
	}
	return r.Render(info)
}

func collectStatus(p *pool.Pool) ui.StatusInfo {
	sysRoot, usrRoot := p.CacheLocations()

	info := ui.StatusInfo{
		Locale:         p.Locale(),
		ComponentCount: p.ComponentCount(),
		SectionCount:   p.SectionCount(),
		SystemRoot:     sysRoot,
		UserRoot:       usrRoot,
	}

	info.SystemSections = listSectionFiles(sysRoot)
	if usrRoot != sysRoot {
		info.UserSections = listSectionFiles(usrRoot)
	}
	for _, f := range info.SystemSections {
		info.TotalSize += f.Size
	}
	for _, f := range info.UserSections {
		info.TotalSize += f.Size
	}

	info.State = "empty"
	if info.ComponentCount > 0 {
		info.State = "ready"
	}
	return info
}

// listSectionFiles collects the section files under one cache root, named
// relative to it.
func listSectionFiles(root string) []ui.SectionFile {
	if root == "" {
		return nil
	}

	var files []ui.SectionFile
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil // Skip errors
		}
		if !strings.HasSuffix(d.Name(), cache.SectionExt) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		name, relErr := filepath.Rel(root, path)
		if relErr != nil {
			name = d.Name()
		}
		files = append(files, ui.SectionFile{
			Name:     name,
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}
