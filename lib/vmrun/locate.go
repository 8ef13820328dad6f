package vmrun

import (
	_ "embed"
	"fmt"
	"os"
	osexec "os/exec"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/onkernel/appliancectl/lib/platform"
)

//go:embed locations.yaml
var locationsYAML []byte

// Overridden in tests.
var (
	statFile = os.Stat
	lookPath = osexec.LookPath
)

// Candidates returns the well-known vmrun locations for a platform.
func Candidates(plat platform.Tag) ([]string, error) {
	var byPlatform map[string][]string
	if err := yaml.Unmarshal(locationsYAML, &byPlatform); err != nil {
		return nil, fmt.Errorf("parse vmrun locations: %w", err)
	}
	return byPlatform[plat.String()], nil
}

// Locate finds vmrun when neither settings nor the environment name it:
// first existing candidate, then PATH.
func Locate(plat platform.Tag) (string, error) {
	candidates, err := Candidates(plat)
	if err != nil {
		return "", err
	}
	for _, c := range candidates {
		if strings.HasPrefix(c, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				c = home + c[1:]
			}
		}
		if fi, err := statFile(c); err == nil && !fi.IsDir() {
			return c, nil
		}
	}
	if p, err := lookPath("vmrun"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: tried %s and PATH", ErrUtilityNotFound, strings.Join(candidates, ", "))
}
