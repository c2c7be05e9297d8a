// Package validate decides whether a source is acceptable and produces its
// metadata.
//
// The reference implementation reads a mod.json manifest from the source's
// structure and validates it with ozzo-validation. Sources without a valid
// manifest are rejected and excluded from the cycle.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"modforge/core/source"
)

// ManifestName is the well-known manifest path inside every mod.
const ManifestName = "mod.json"

var (
	namespaceRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	versionRe   = regexp.MustCompile(`^\d+(\.\d+)*$`)
)

// Metadata is the validated descriptor for an accepted source. The
// namespace anchors every public identifier the source contributes.
type Metadata struct {
	Namespace   string `json:"namespace"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Validate checks the manifest fields.
func (m Metadata) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Namespace,
			validation.Required,
			validation.Match(namespaceRe).Error("must be lowercase letters, digits or underscores"),
		),
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.Version,
			validation.Required,
			validation.Match(versionRe).Error("must be dotted numeric, e.g. 1.2.0"),
		),
	)
}

// Validator decides whether a source's structure is acceptable.
type Validator interface {
	// Validate inspects the structure and returns the source's metadata,
	// or an error describing why the source is rejected.
	Validate(ctx context.Context, st source.Structure) (*Metadata, error)
}

// ManifestValidator accepts sources that carry a well-formed mod.json.
type ManifestValidator struct{}

// NewManifestValidator returns the standard manifest validator.
func NewManifestValidator() *ManifestValidator { return &ManifestValidator{} }

// Validate reads and checks the manifest.
func (v *ManifestValidator) Validate(ctx context.Context, st source.Structure) (*Metadata, error) {
	rc, err := st.Open(ctx, ManifestName)
	if err != nil {
		return nil, fmt.Errorf("missing %s: %w", ManifestName, err)
	}
	defer rc.Close()

	var meta Metadata
	if err := json.NewDecoder(rc).Decode(&meta); err != nil {
		return nil, fmt.Errorf("malformed %s: %w", ManifestName, err)
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ManifestName, err)
	}
	return &meta, nil
}
