package spec

import (
	"errors"

	"github.com/go-playground/validator/v10"

	neterrors "github.com/kleypas/netplot/pkg/errors"
)

// validate is the singleton validator instance.
var validate = validator.New()

// Validate checks a declaration for structural soundness. A failure here is
// terminal: the caller must treat the whole topology as unrenderable rather
// than synthesize a partial diagram.
func Validate(d *Declaration) error {
	if d == nil {
		return neterrors.New(neterrors.ErrCodeInvalidDeclaration, "declaration is nil")
	}

	// Struct-tag validation (required fields, enum values, target lists).
	if err := validate.Struct(d); err != nil {
		return formatValidationError(err)
	}

	if err := validateGroups(d.Public.AutonomousSystems); err != nil {
		return err
	}
	return validateNetworks(d.Private)
}

// formatValidationError converts validator output into a coded error naming
// the first offending field.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return neterrors.New(neterrors.ErrCodeInvalidDeclaration,
			"invalid declaration: %s failed %q constraint", first.Namespace(), first.Tag())
	}
	return neterrors.Wrap(neterrors.ErrCodeInvalidDeclaration, err, "invalid declaration")
}

func validateGroups(groups []*BackboneGroup) error {
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if err := neterrors.ValidateNetworkName(g.Name); err != nil {
			return neterrors.Wrap(neterrors.ErrCodeInvalidDeclaration, err, "backbone group %q", g.Name)
		}
		if seen[g.Name] {
			return neterrors.New(neterrors.ErrCodeInvalidDeclaration, "duplicate backbone group %q", g.Name)
		}
		seen[g.Name] = true

		if err := validateDeviceScope(g.Devices, nil, "backbone group "+g.Name); err != nil {
			return err
		}
	}
	return nil
}

func validateNetworks(networks NetworkList) error {
	seen := make(map[string]bool, len(networks))
	for _, n := range networks {
		if err := neterrors.ValidateNetworkName(n.Name); err != nil {
			return neterrors.Wrap(neterrors.ErrCodeInvalidDeclaration, err, "network %q", n.Name)
		}
		if seen[n.Name] {
			return neterrors.New(neterrors.ErrCodeInvalidDeclaration, "duplicate network %q", n.Name)
		}
		seen[n.Name] = true

		// Guard for directly constructed declarations; decoded ones are
		// already covered by the struct tags.
		if n.Gateway == nil {
			return neterrors.New(neterrors.ErrCodeInvalidDeclaration, "network %q has no gateway", n.Name)
		}
		if err := neterrors.ValidateDeviceName(n.Gateway.Name); err != nil {
			return neterrors.Wrap(neterrors.ErrCodeInvalidDeclaration, err, "network %q gateway", n.Name)
		}
		if err := validateDiversion(n.Gateway.Diversion, "network "+n.Name+" gateway"); err != nil {
			return err
		}

		if err := validateDeviceScope(n.Devices, n.Gateway, "network "+n.Name); err != nil {
			return err
		}
	}
	return nil
}

// validateDeviceScope enforces name rules and scope-level uniqueness. The
// gateway occupies a name in the same scope as the network's devices.
func validateDeviceScope(devices []*Device, gw *Gateway, scope string) error {
	seen := make(map[string]bool, len(devices)+1)
	if gw != nil {
		seen[gw.Name] = true
	}

	for _, d := range devices {
		if err := neterrors.ValidateDeviceName(d.Name); err != nil {
			return neterrors.Wrap(neterrors.ErrCodeInvalidDeclaration, err, "%s device %q", scope, d.Name)
		}
		if seen[d.Name] {
			return neterrors.New(neterrors.ErrCodeInvalidDeclaration, "%s: duplicate device name %q", scope, d.Name)
		}
		seen[d.Name] = true

		if err := validateDiversion(d.Diversion, scope+" device "+d.Name); err != nil {
			return err
		}
	}
	return nil
}

func validateDiversion(div *Diversion, owner string) error {
	if div == nil {
		return nil
	}
	for _, target := range div.Target {
		if target == "" {
			return neterrors.New(neterrors.ErrCodeInvalidDeclaration, "%s: empty diversion target", owner)
		}
	}
	return nil
}
