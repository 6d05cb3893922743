package senec

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const discoverService = "_http._tcp"

// Discover looks for a SENEC.home appliance announcing its web UI over mDNS
// and returns its IPv4 address.
func Discover(ctx context.Context) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	params := mdns.DefaultParams(discoverService)
	params.Entries = entries
	params.Timeout = 2 * time.Second
	params.DisableIPv6 = true
	if deadline, ok := ctx.Deadline(); ok {
		params.Timeout = time.Until(deadline)
	}

	done := make(chan error, 1)
	go func() {
		done <- mdns.QueryContext(ctx, params)
		close(entries)
	}()

	discovered := ""
	for e := range entries {
		if discovered != "" || e.AddrV4 == nil {
			continue
		}
		// look through the announced names, the appliance calls itself senec
		if strings.Contains(strings.ToLower(e.Name), "senec") || strings.Contains(strings.ToLower(e.Host), "senec") {
			discovered = e.AddrV4.String()
		}
	}
	if err := <-done; err != nil && ctx.Err() == nil {
		return "", fmt.Errorf("mdns query: %w", err)
	}
	if discovered == "" {
		return "", fmt.Errorf("no SENEC appliance found")
	}
	return discovered, nil
}
