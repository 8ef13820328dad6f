package hostdns

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/onkernel/appliancectl/lib/exec"
	"github.com/onkernel/appliancectl/lib/logger"
	"github.com/onkernel/appliancectl/lib/paths"
	"gvisor.dev/gvisor/pkg/cleanup"
)

// resolverFileAdapter manages one file per domain in the system resolver
// directory. Writes go through a single osascript call so the operator sees
// one native administrator prompt.
type resolverFileAdapter struct {
	runner exec.Runner
	paths  *paths.Paths
	dir    string
}

func (a *resolverFileAdapter) Set(ctx context.Context, domain, ip string) error {
	log := logger.FromContext(ctx)

	target, err := a.target(domain)
	if err != nil {
		return err
	}
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("invalid nameserver address %q", ip)
	}
	content := resolverContent(ip)

	if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, content) {
		log.DebugContext(ctx, "resolver entry already in place", "path", target)
		return nil
	}

	tmp, err := a.paths.Scratch("resolver")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return fmt.Errorf("write resolver entry: %w", err)
	}
	cu := cleanup.Make(func() {
		os.Remove(tmp)
	})
	defer cu.Clean()

	script := fmt.Sprintf("mkdir -p %s && mv -f %s %s && chmod 644 %s",
		shellQuote(a.dir), shellQuote(tmp), shellQuote(target), shellQuote(target))
	log.InfoContext(ctx, "installing resolver entry", "domain", domain, "ip", ip, "path", target)
	if err := a.elevated(ctx, script); err != nil {
		return err
	}

	// The file was moved into place.
	cu.Release()
	return nil
}

func (a *resolverFileAdapter) Unset(ctx context.Context, domain, ip string) error {
	target, err := a.target(domain)
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	logger.FromContext(ctx).InfoContext(ctx, "removing resolver entry", "domain", domain, "path", target)
	return a.elevated(ctx, "rm -f "+shellQuote(target))
}

// target is the resolver file for domain. The domain may not climb out of dir.
func (a *resolverFileAdapter) target(domain string) (string, error) {
	domain = strings.TrimSuffix(strings.TrimSpace(domain), ".")
	if domain == "" {
		return "", ErrDomainRequired
	}
	if strings.ContainsAny(domain, `/\`) {
		return "", fmt.Errorf("invalid domain %q", domain)
	}
	return securejoin.SecureJoin(a.dir, domain)
}

// elevated runs a shell script as root behind the native admin prompt.
func (a *resolverFileAdapter) elevated(ctx context.Context, script string) error {
	apple := fmt.Sprintf("do shell script %s with administrator privileges", appleScriptString(script))
	res, err := a.runner.Run(ctx, "osascript", "-e", apple)
	if err != nil {
		return fmt.Errorf("osascript: %w", err)
	}
	if res.Code != 0 {
		return fmt.Errorf("%w: osascript exited %d: %s", ErrElevation, res.Code, res.Output())
	}
	return nil
}

func resolverContent(ip string) []byte {
	return []byte("nameserver " + ip + "\n")
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// appleScriptString renders s as an AppleScript string literal.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
