package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"modforge/core/config"
	"modforge/core/manager"
	"modforge/core/notify"
	"modforge/core/source"
	"modforge/core/storage"
	"modforge/core/validate"
	"modforge/feature/content"
)

// buildSources mounts the configured sources in load order: directories,
// then archives, then bucket prefixes. The storage client is only created
// when a bucket prefix is configured.
func buildSources(cfg *config.Config) ([]source.Source, error) {
	var sources []source.Source
	for _, dir := range cfg.Pipeline.DirList() {
		sources = append(sources, source.NewDirSource("", dir))
	}
	for _, archive := range cfg.Pipeline.ArchiveList() {
		sources = append(sources, source.NewZipSource("", archive))
	}

	if prefixes := cfg.Pipeline.PrefixList(); len(prefixes) > 0 {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("storage client: %w", err)
		}
		for _, prefix := range prefixes {
			sources = append(sources, source.NewBucketSource("", client, cfg.Storage.Bucket, prefix))
		}
	}
	return sources, nil
}

// buildManager wires the validator, sources, stages and overwrite rule into
// a manager with a fresh notification bus.
func buildManager(cfg *config.Config, logg *zap.Logger) (*manager.Manager, error) {
	sources, err := buildSources(cfg)
	if err != nil {
		return nil, err
	}
	rule, err := cfg.Pipeline.OverwriteRule()
	if err != nil {
		return nil, fmt.Errorf("overwrite pattern: %w", err)
	}

	mcfg := manager.Config{
		Validator: validate.NewManifestValidator(),
		Sources:   func() []source.Source { return sources },
		Provider:  content.NewProvider(logg),
		Overwrite: rule,
		HotReload: cfg.Pipeline.HotReload,
	}
	return manager.New(mcfg, logg, notify.NewBus()), nil
}
