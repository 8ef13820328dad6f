package hostdns

import (
	"context"
	"fmt"

	"github.com/onkernel/appliancectl/lib/logger"
)

// manualAdapter is used where we have no automated way to change host DNS.
// It tells the operator what to do and reports ErrUnsupported.
type manualAdapter struct{}

func (manualAdapter) Set(ctx context.Context, domain, ip string) error {
	logger.FromContext(ctx).WarnContext(ctx,
		fmt.Sprintf("configure your resolver to send queries for %s to %s (for example a dnsmasq server=/%s/%s entry)", domain, ip, domain, ip))
	return fmt.Errorf("%w: set %s -> %s", ErrUnsupported, domain, ip)
}

// Unset reports ErrUnsupported even when nothing was set; the switcher logs
// it and carries on, which is where unset-without-set succeeds on linux.
func (manualAdapter) Unset(ctx context.Context, domain, ip string) error {
	logger.FromContext(ctx).WarnContext(ctx,
		fmt.Sprintf("remove the resolver entry sending queries for %s to %s", domain, ip))
	return fmt.Errorf("%w: unset %s", ErrUnsupported, domain)
}
