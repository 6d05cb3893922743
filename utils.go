package senec

import "strings"

func normalizeAddress(address string) string {
	address = strings.TrimRight(strings.TrimSpace(address), "/")
	if address == "" {
		return ""
	}
	if !strings.HasPrefix(address, "http") {
		address = "http://" + address
	}
	return address
}
