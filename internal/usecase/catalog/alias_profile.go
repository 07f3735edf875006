package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"konbot/internal/domain/beatmap"
)

type aliasProfile struct {
	Version int               `toml:"version"`
	Aliases map[string]string `toml:"aliases"`
}

// LoadAliasProfile reads a TOML alias profile and merges it over the
// built-in table. An empty path returns the defaults unchanged, so the
// profile stays optional.
//
//	version = 1
//	[aliases]
//	"叠" = "stream"
//	"长条" = "tech"
func LoadAliasProfile(profileFile string) (beatmap.AliasTable, error) {
	defaults := beatmap.DefaultAliases()

	path := strings.TrimSpace(profileFile)
	if path == "" {
		return defaults, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias profile: %w", err)
	}

	var profile aliasProfile
	if err := toml.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("parse alias profile: %w", err)
	}
	if profile.Version != 1 {
		return nil, errors.New("alias profile version must be 1")
	}

	merged, err := defaults.Extend(profile.Aliases)
	if err != nil {
		return nil, fmt.Errorf("alias profile: %w", err)
	}
	return merged, nil
}
