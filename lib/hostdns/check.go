package hostdns

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

const checkTimeout = 3 * time.Second

// Check asks the nameserver at ip for the A record of domain and reports
// whether it answered with at least one address.
func Check(ctx context.Context, domain, ip string) (bool, error) {
	return checkAt(ctx, domain, net.JoinHostPort(ip, "53"))
}

func checkAt(ctx context.Context, domain, addr string) (bool, error) {
	if domain == "" {
		return false, ErrDomainRequired
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	client := &dns.Client{Net: "udp", Timeout: checkTimeout}

	r, _, err := client.ExchangeContext(ctx, m, addr)
	if err != nil {
		return false, fmt.Errorf("query %s at %s: %w", domain, addr, err)
	}
	if r.Rcode != dns.RcodeSuccess {
		return false, nil
	}
	for _, rr := range r.Answer {
		if _, ok := rr.(*dns.A); ok {
			return true, nil
		}
	}
	return false, nil
}
