package fetcher

import (
	"fmt"
	"net"
	"net/url"
)

// validateURL checks scheme/host well-formedness and, when denyPrivateIPs
// is set, resolves the hostname and rejects any private or link-local
// target — the fetcher's SSRF guard, checked both before the initial
// request and on every redirect hop.
func validateURL(rawURL string, denyPrivateIPs bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("url must have a valid host")
	}
	if !denyPrivateIPs {
		return nil
	}

	ips, err := net.LookupIP(u.Hostname())
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("url %q resolves to a private network address", rawURL)
		}
	}
	return nil
}

// isPrivateIP reports whether ip is loopback, link-local, or within a
// private IPv4 range (including the 169.254.169.254 cloud metadata host).
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return true
	}
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
	}
	for _, cidr := range privateRanges {
		_, subnet, err := net.ParseCIDR(cidr)
		if err == nil && subnet.Contains(ip) {
			return true
		}
	}
	return false
}
