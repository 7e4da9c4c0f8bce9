package pendingdb

import (
	"fmt"
	"strings"
)

// Mode selects how header versions are accepted.
type Mode string

const (
	// ModeTolerant accepts every known version and decodes each one with its
	// own layout.
	ModeTolerant Mode = "tolerant"
	// ModeStrict accepts a single expected version.
	ModeStrict Mode = "strict"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeTolerant, "":
		return ModeTolerant, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("unknown version policy %q (expected tolerant or strict)", value)
	}
}

// Policy is the version acceptance policy applied to the header before any
// record is read.
type Policy struct {
	Mode     Mode
	Expected uint32
}

// TolerantPolicy accepts versions MinVersion through MaxVersion.
func TolerantPolicy() Policy {
	return Policy{Mode: ModeTolerant}
}

// StrictPolicy accepts only version.
func StrictPolicy(version uint32) Policy {
	return Policy{Mode: ModeStrict, Expected: version}
}

// Check returns a *LoadError wrapping ErrUnsupportedVersion when version is
// refused. Versions above MaxVersion are refused under every policy.
func (p Policy) Check(version uint32) error {
	if version > MaxVersion {
		return &LoadError{
			Kind:    ErrUnsupportedVersion,
			Version: version,
			Index:   -1,
			Detail:  fmt.Sprintf("version %d is newer than the newest supported version %d; update cifinalize", version, MaxVersion),
		}
	}
	if version < MinVersion {
		return &LoadError{
			Kind:    ErrUnsupportedVersion,
			Version: version,
			Index:   -1,
			Detail:  fmt.Sprintf("version %d is not a valid schema version; regenerate the pending file", version),
		}
	}
	if p.Mode == ModeStrict && version != p.Expected {
		return &LoadError{
			Kind:    ErrUnsupportedVersion,
			Version: version,
			Index:   -1,
			Detail: fmt.Sprintf(
				"version %d does not match the required version %d; regenerate cifinish.bin with a host tool that writes version %d",
				version, p.Expected, p.Expected),
		}
	}
	return nil
}

// Validate reports configuration errors in the policy itself.
func (p Policy) Validate() error {
	switch p.Mode {
	case ModeTolerant:
		return nil
	case ModeStrict:
		if p.Expected < MinVersion || p.Expected > MaxVersion {
			return fmt.Errorf("strict policy expects version %d, which is outside %d..%d", p.Expected, MinVersion, MaxVersion)
		}
		return nil
	default:
		return fmt.Errorf("unknown version policy %q", p.Mode)
	}
}
