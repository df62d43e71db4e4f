// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"fmt"
	"net"
	"net/http"
)

// AnonymizeIP truncates an address so it no longer identifies a host.
// IPv4 keeps the /24 network and IPv6 keeps the /48 prefix. Empty input
// returns "unknown" and unparseable input returns "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

func clientIP(r *http.Request) string {
	return AnonymizeIP(r.RemoteAddr)
}
