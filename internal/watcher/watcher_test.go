package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"create", OpCreate, "CREATE"},
		{"modify", OpModify, "MODIFY"},
		{"delete", OpDelete, "DELETE"},
		{"rename", OpRename, "RENAME"},
		{"unknown", Operation(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	// When: getting default options
	opts := DefaultOptions()

	// Then: defaults are sensible
	assert.Equal(t, 500*time.Millisecond, opts.DebounceWindow)
	assert.Equal(t, 5*time.Second, opts.PollInterval)
	assert.Equal(t, 64, opts.EventBufferSize)
}

func TestOptions_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want Options
	}{
		{
			name: "empty options get defaults",
			opts: Options{},
			want: DefaultOptions(),
		},
		{
			name: "partial options keep custom values",
			opts: Options{
				DebounceWindow: 200 * time.Millisecond,
			},
			want: Options{
				DebounceWindow:  200 * time.Millisecond,
				PollInterval:    5 * time.Second,
				EventBufferSize: 64,
			},
		},
		{
			name: "all custom values preserved",
			opts: Options{
				DebounceWindow:  100 * time.Millisecond,
				PollInterval:    10 * time.Second,
				EventBufferSize: 500,
			},
			want: Options{
				DebounceWindow:  100 * time.Millisecond,
				PollInterval:    10 * time.Second,
				EventBufferSize: 500,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opts.WithDefaults()
			assert.Equal(t, tt.want.DebounceWindow, got.DebounceWindow)
			assert.Equal(t, tt.want.PollInterval, got.PollInterval)
			assert.Equal(t, tt.want.EventBufferSize, got.EventBufferSize)
		})
	}
}

func TestInterestingPath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		isDir bool
		want  bool
	}{
		{"metainfo xml", "/usr/share/metainfo/org.example.App.metainfo.xml", false, true},
		{"catalog xml gz", "/usr/share/swcatalog/xml/fedora.xml.gz", false, true},
		{"dep11 yml gz", "/usr/share/swcatalog/yaml/depot.yml.gz", false, true},
		{"plain yaml", "/var/lib/swcatalog/yaml/extra.yaml", false, true},
		{"uppercase suffix", "/usr/share/metainfo/ORG.EXAMPLE.XML", false, true},
		{"directory", "/usr/share/swcatalog", true, true},
		{"desktop file", "/usr/share/applications/app.desktop", false, false},
		{"icon tarball", "/usr/share/swcatalog/icons/stock.tar.gz", false, false},
		{"plain gz", "/usr/share/doc/changelog.gz", false, false},
		{"readme", "/usr/share/metainfo/README", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterestingPath(tt.path, tt.isDir))
		})
	}
}
