// Package paths provides centralized path construction for host scratch files
// and the fixed guest-side locations the appliance core relies on.
package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/nrednav/cuid2"
)

// Guest locations. These are inside the appliance and always use forward slashes.
const (
	GuestOfflineMarker  = "/var/vcap/appliance/offline"
	GuestReadyMarker    = "/var/vcap/appliance/ready"
	GuestStateFile      = "/var/vcap/appliance/state.yml"
	GuestOfflineDNSConf = "/etc/dnsmasq.d/appliance-offline.conf"
	GuestProbeBinary    = "/tmp/appliance-ipprobe"
	GuestProbeOutput    = "/tmp/appliance-ip"
)

// Host resolver directory used by the darwin DNS adapter.
const DarwinResolverDir = "/etc/resolver"

// Paths provides typed path construction under the host temp directory.
type Paths struct {
	tempDir string
}

// New creates a new Paths instance for the given host temp directory.
func New(tempDir string) *Paths {
	return &Paths{tempDir: tempDir}
}

// TempDir returns the root host temp directory.
func (p *Paths) TempDir() string {
	return p.tempDir
}

// StateFile returns where the pulled guest state file is stored.
func (p *Paths) StateFile() (string, error) {
	return p.join("state.yml")
}

// ProbeOutput returns where the pulled IP probe output is stored.
func (p *Paths) ProbeOutput() (string, error) {
	return p.join("appliance-ip")
}

// OfflineDNSConf returns where the offline dnsmasq config is rendered before upload.
func (p *Paths) OfflineDNSConf() (string, error) {
	return p.join("appliance-offline.conf")
}

// Lock returns the advisory lock file for an appliance image. key is the
// image's canonical path; the file name is its base name plus a digest of the
// whole key, so same-named images in different directories never collide.
func (p *Paths) Lock(key string) (string, error) {
	base := key
	if i := strings.LastIndexAny(key, `/\`); i >= 0 {
		base = key[i+1:]
	}
	sum := sha256.Sum256([]byte(key))
	return p.join(fmt.Sprintf("%s-%s.lock", base, hex.EncodeToString(sum[:6])))
}

// Scratch returns a unique, not yet existing file name under the temp dir.
func (p *Paths) Scratch(prefix string) (string, error) {
	return p.join(fmt.Sprintf("%s-%s", prefix, cuid2.Generate()))
}

// join resolves name under the temp dir without letting it escape.
func (p *Paths) join(name string) (string, error) {
	path, err := securejoin.SecureJoin(p.tempDir, name)
	if err != nil {
		return "", fmt.Errorf("join %s under %s: %w", name, p.tempDir, err)
	}
	return path, nil
}
