// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package server

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
)

// parseTrustedProxies parses CIDR strings into networks, skipping blank
// entries. At least one valid range is required.
func parseTrustedProxies(cidrs []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, deckerr.Errorf(deckerr.CodeServerConfigInvalid,
				"invalid trusted proxy CIDR %q: %w", cidr, err)
		}
		nets = append(nets, ipNet)
	}
	if len(nets) == 0 {
		return nil, deckerr.New(deckerr.CodeServerConfigInvalid,
			"trusted_proxies must contain at least one valid CIDR range")
	}
	return nets, nil
}

// trustedProxyRealIP rewrites r.RemoteAddr to the client address a reverse
// proxy advertises, but only when the connection itself comes from a trusted
// network. Forwarding headers on connections from anywhere else are
// attacker-controlled and stay ignored.
func trustedProxyRealIP(trusted []*net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if connectionFromTrusted(r.RemoteAddr, trusted) {
				if client := forwardedClient(r.Header); client != nil {
					r.RemoteAddr = net.JoinHostPort(client.String(), "0")
				} else if r.Header.Get("X-Forwarded-For") != "" {
					slog.Warn("unparseable X-Forwarded-For from trusted proxy, keeping connecting address",
						"remote_addr", r.RemoteAddr)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// connectionFromTrusted reports whether remoteAddr's host falls inside one
// of the trusted networks.
func connectionFromTrusted(remoteAddr string, trusted []*net.IPNet) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// forwardedClient extracts the client IP a proxy reports. X-Forwarded-For
// wins when present; its leftmost entry is the originating client. A present
// but malformed header yields nil rather than falling through, so garbage
// never silently downgrades to the weaker X-Real-IP.
func forwardedClient(h http.Header) net.IP {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return net.ParseIP(strings.TrimSpace(first))
	}
	if xri := strings.TrimSpace(h.Get("X-Real-IP")); xri != "" {
		return net.ParseIP(xri)
	}
	return nil
}
