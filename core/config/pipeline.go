package config

import (
	"regexp"
	"strings"
)

// PipelineConfig holds configuration for the content pipeline: which
// sources to mount, the overwrite rule, and hot-reload behavior.
// List values are comma-separated so they stay bindable from environment
// variables.
type PipelineConfig struct {
	// Dirs lists filesystem directories mounted as sources, in load order.
	Dirs string `mapstructure:"dirs" default:"mods"`
	// Archives lists zip archives mounted as sources, after the dirs.
	Archives string `mapstructure:"archives" default:""`
	// BucketPrefixes lists object-store prefixes mounted as sources, after
	// the archives. Requires the storage section to be reachable.
	BucketPrefixes string `mapstructure:"bucket_prefixes" default:""`
	// OverwritePattern is the path regexp under which colliding paths
	// collapse to a single overriding item.
	OverwritePattern string `mapstructure:"overwrite_pattern" default:"\\.json$"`
	// HotReload enables the filesystem watcher that drives incremental
	// polling while serving.
	HotReload bool `mapstructure:"hot_reload" default:"false"`
	// DebounceMillis is how long the watcher coalesces change bursts
	// before polling.
	DebounceMillis int `mapstructure:"debounce_millis" default:"500"`
}

// DirList returns the configured directories.
func (c PipelineConfig) DirList() []string { return splitList(c.Dirs) }

// ArchiveList returns the configured archives.
func (c PipelineConfig) ArchiveList() []string { return splitList(c.Archives) }

// PrefixList returns the configured bucket prefixes.
func (c PipelineConfig) PrefixList() []string { return splitList(c.BucketPrefixes) }

// OverwriteRule compiles the overwrite pattern. An empty pattern means
// nothing collapses.
func (c PipelineConfig) OverwriteRule() (*regexp.Regexp, error) {
	if c.OverwritePattern == "" {
		return nil, nil
	}
	return regexp.Compile(c.OverwritePattern)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
