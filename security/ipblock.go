// Package security evaluates client IP addresses against allow or deny
// lists and offers that check as an authentication strategy.
package security

import (
	"fmt"
	"net"
	"net/netip"
	"slices"
	"strings"

	"google.golang.org/grpc/metadata"
)

// Mode controls how the CIDR list is interpreted.
type Mode int

const (
	// AllowList only permits IPs that match at least one CIDR.
	AllowList Mode = iota
	// DenyList blocks IPs that match any CIDR and allows all others.
	DenyList
)

// UnmarshalText accepts "allow" and "deny".
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "allow", "allowlist":
		*m = AllowList
	case "deny", "denylist":
		*m = DenyList
	default:
		return fmt.Errorf("ipblock: unknown mode %q", text)
	}
	return nil
}

type Config struct {
	Mode  Mode
	CIDRs []string
	// TrustedProxies may forward the real client address in metadata.
	// Entries are CIDRs or single addresses.
	TrustedProxies []string
	// HeaderPriority is the lookup order of those metadata keys. It
	// defaults to x-real-ip, then x-forwarded-for.
	HeaderPriority []string
}

// IPBlocker decides on client addresses. It is immutable after
// construction.
type IPBlocker struct {
	// allowOnMatch is true in AllowList mode.
	allowOnMatch bool
	cidrs        []netip.Prefix
	proxies      []netip.Prefix
	headers      []string
}

// NewIPBlocker rejects the first malformed CIDR or proxy entry.
func NewIPBlocker(cfg Config) (*IPBlocker, error) {
	if cfg.Mode != AllowList && cfg.Mode != DenyList {
		return nil, fmt.Errorf("ipblock: unknown mode %d", cfg.Mode)
	}

	b := &IPBlocker{allowOnMatch: cfg.Mode == AllowList, headers: cfg.HeaderPriority}
	if len(b.headers) == 0 {
		b.headers = []string{"x-real-ip", "x-forwarded-for"}
	}

	var err error
	if b.cidrs, err = parsePrefixes(cfg.CIDRs); err != nil {
		return nil, fmt.Errorf("ipblock: invalid CIDR: %w", err)
	}
	if b.proxies, err = parsePrefixes(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("ipblock: invalid trusted proxy: %w", err)
	}
	return b, nil
}

// ClientAddr resolves the address a decision is made on. Forwarding
// metadata counts only when peer is a trusted proxy; otherwise, or when no
// header holds a valid address, the peer address itself is used.
func (b *IPBlocker) ClientAddr(peer net.Addr, md metadata.MD) (netip.Addr, bool) {
	addr, ok := peerAddr(peer)
	if !ok {
		return netip.Addr{}, false
	}
	if inAny(addr, b.proxies) {
		if fwd, ok := forwardedAddr(md, b.headers); ok {
			return fwd, true
		}
	}
	return addr, true
}

// Evaluate reports whether the client may proceed. A client whose address
// cannot be determined is refused in both modes.
func (b *IPBlocker) Evaluate(peer net.Addr, md metadata.MD) bool {
	addr, ok := b.ClientAddr(peer, md)
	return ok && inAny(addr, b.cidrs) == b.allowOnMatch
}

func inAny(addr netip.Addr, prefixes []netip.Prefix) bool {
	return slices.ContainsFunc(prefixes, func(p netip.Prefix) bool { return p.Contains(addr) })
}

func parsePrefixes(raw []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(raw))
	for _, s := range raw {
		if p, err := netip.ParsePrefix(s); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("%q is neither a CIDR nor an address", s)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func peerAddr(addr net.Addr) (netip.Addr, bool) {
	switch a := addr.(type) {
	case nil:
		return netip.Addr{}, false
	case *net.TCPAddr:
		ip, ok := netip.AddrFromSlice(a.IP)
		return ip.Unmap(), ok
	}

	host := addr.String()
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	ip, err := netip.ParseAddr(host)
	return ip.Unmap(), err == nil
}

// forwardedAddr takes the left-most entry of comma separated values.
func forwardedAddr(md metadata.MD, keys []string) (netip.Addr, bool) {
	for _, key := range keys {
		for _, v := range md.Get(key) {
			first, _, _ := strings.Cut(v, ",")
			if ip, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
				return ip.Unmap(), true
			}
		}
	}
	return netip.Addr{}, false
}
