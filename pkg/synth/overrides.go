package synth

import (
	"os"
	"path"

	"github.com/BurntSushi/toml"

	neterrors "github.com/kleypas/netplot/pkg/errors"
	"github.com/kleypas/netplot/pkg/spec"
)

// =============================================================================
// Override - Structural Fixup Table
// =============================================================================

// Override is one entry of the structural fixup table: a glob pattern over
// network names plus the corrections to apply to matches. It replaces the
// name-literal special cases that would otherwise accumulate inside the
// synthesis code.
//
// A single entry may combine corrections; each is applied independently:
//
//   - Parent: nest the matched network under the named network, regardless
//     of interface-based inference.
//   - WidthScale/HeightScale: multiply the computed container size, for
//     layouts the generic sizing policy under-provisions.
//   - Uplink: emit an extra uplink edge from the internet node of the given
//     region to the matched network's gateway.
//   - ConnectTo: emit an explicit edge from the matched network's gateway to
//     the named network's gateway.
type Override struct {
	Match       string  `toml:"match" json:"match"`
	Parent      string  `toml:"parent,omitempty" json:"parent,omitempty"`
	WidthScale  float64 `toml:"width_scale,omitempty" json:"width_scale,omitempty"`
	HeightScale float64 `toml:"height_scale,omitempty" json:"height_scale,omitempty"`
	Uplink      string  `toml:"uplink,omitempty" json:"uplink,omitempty"`
	ConnectTo   string  `toml:"connect_to,omitempty" json:"connect_to,omitempty"`
}

// overrideFile is the on-disk TOML shape: a list of [[override]] tables.
type overrideFile struct {
	Overrides []Override `toml:"override"`
}

// Validate checks pattern syntax and field values.
func (o *Override) Validate() error {
	if err := neterrors.ValidateOverridePattern(o.Match); err != nil {
		return err
	}
	if o.Uplink != "" && !spec.Region(o.Uplink).Valid() {
		return neterrors.New(neterrors.ErrCodeInvalidOverride,
			"override %q: uplink region must be domestic or international, got %q", o.Match, o.Uplink)
	}
	if o.WidthScale < 0 || o.HeightScale < 0 {
		return neterrors.New(neterrors.ErrCodeInvalidOverride,
			"override %q: scale factors must be non-negative", o.Match)
	}
	if o.Parent == "" && o.Uplink == "" && o.ConnectTo == "" && o.WidthScale == 0 && o.HeightScale == 0 {
		return neterrors.New(neterrors.ErrCodeInvalidOverride,
			"override %q: no correction specified", o.Match)
	}
	return nil
}

// Matches reports whether the entry's glob matches a network name.
// Validate has already checked the pattern, so path.Match cannot fail here.
func (o *Override) Matches(network string) bool {
	ok, err := path.Match(o.Match, network)
	return err == nil && ok
}

// =============================================================================
// Loading
// =============================================================================

// ParseOverrides decodes a TOML fixup table.
func ParseOverrides(data []byte) ([]Override, error) {
	var f overrideFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, neterrors.Wrap(neterrors.ErrCodeInvalidOverride, err, "parse override table")
	}
	for i := range f.Overrides {
		if err := f.Overrides[i].Validate(); err != nil {
			return nil, err
		}
	}
	return f.Overrides, nil
}

// LoadOverrides reads a TOML fixup table from a file.
func LoadOverrides(filePath string) ([]Override, error) {
	if err := neterrors.ValidatePath(filePath); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, neterrors.Wrap(neterrors.ErrCodeFileNotFound, err,
				"override file not found: %s", filePath)
		}
		return nil, neterrors.Wrap(neterrors.ErrCodeInvalidPath, err,
			"read override file: %s", filePath)
	}
	return ParseOverrides(data)
}

// =============================================================================
// Application Helpers
// =============================================================================

// scaleFor returns the sizing headroom for a network, multiplying the factors
// of every matching entry. Unset factors count as 1.
func scaleFor(overrides []Override, network string) (width, height float64) {
	width, height = 1, 1
	for i := range overrides {
		o := &overrides[i]
		if !o.Matches(network) {
			continue
		}
		if o.WidthScale > 0 {
			width *= o.WidthScale
		}
		if o.HeightScale > 0 {
			height *= o.HeightScale
		}
	}
	return width, height
}

// parentFor returns the explicit parent for a network, if any entry reparents
// it. The last matching entry wins so later entries can refine earlier ones.
func parentFor(overrides []Override, network string) (string, bool) {
	parent := ""
	for i := range overrides {
		o := &overrides[i]
		if o.Parent != "" && o.Matches(network) {
			parent = o.Parent
		}
	}
	return parent, parent != ""
}
