package resolve

import (
	"net"
	"net/url"
	"strings"

	"github.com/rubiojr/yomiaudio/pkg/core"
)

// ResolveURL maps an entry to the URL handed to clients. With proxy set the
// URL points back at this service's file endpoint on host; otherwise it is
// the provider origin joined with the entry's file. It performs no I/O.
func ResolveURL(e core.AudioEntry, r *core.Registry, proxy bool, host string) string {
	if proxy {
		return "https://" + Hostname(host) + e.Path()
	}

	p, ok := r.Get(e.Source)
	if !ok {
		return e.Path()
	}
	base, err := url.Parse(strings.TrimSuffix(p.BaseURL, "/") + "/")
	if err != nil {
		return p.FileURL(e.File)
	}
	ref, err := url.Parse(e.File)
	if err != nil {
		return p.FileURL(e.File)
	}
	return base.ResolveReference(ref).String()
}

// Hostname strips any port from a Host header value. IPv6 literals keep
// their brackets so the result can be placed in a URL.
func Hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}
