package validator

import (
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"

	"github.com/cfgtrust/cfgtrust/internal/config"
)

var (
	// bare host, optional "*." wildcard prefix, optional :port
	allowedHostRe = regexp.MustCompile(`^(\*\.)?[A-Za-z0-9]([A-Za-z0-9.\-]*[A-Za-z0-9])?(:[0-9]{1,5})?$`)
	// bracketed IPv6, optional :port
	bracketedV6Re = regexp.MustCompile(`^\[([0-9A-Fa-f:.%]+)\](:[0-9]{1,5})?$`)
)

// AssertHTTPConfig validates the http section: trusted proxy entries must
// be IPs or CIDRs, allowed hosts follow the bare-host grammar (URLs are
// rejected outright).
func AssertHTTPConfig(repo *config.Repository, _ ...Option) error {
	if !repo.Has("http") {
		return nil
	}

	proxies, err := stringList(repo, "http.trusted_proxies")
	if err != nil {
		return err
	}
	for i, entry := range proxies {
		if _, err := netip.ParseAddr(entry); err == nil {
			continue
		}
		if _, err := netip.ParsePrefix(entry); err == nil {
			continue
		}
		return fmt.Errorf("validator: http.trusted_proxies[%d]: %q is neither an IP nor a CIDR", i, entry)
	}

	hosts, err := stringList(repo, "http.allowed_hosts")
	if err != nil {
		return err
	}
	for i, entry := range hosts {
		if err := checkAllowedHost(entry); err != nil {
			return fmt.Errorf("validator: http.allowed_hosts[%d]: %w", i, err)
		}
	}
	return nil
}

func checkAllowedHost(entry string) error {
	if entry == "" {
		return fmt.Errorf("empty host entry")
	}
	if strings.Contains(entry, "://") {
		return fmt.Errorf("%q looks like a URL; use a bare host", entry)
	}

	if m := bracketedV6Re.FindStringSubmatch(entry); m != nil {
		if _, err := netip.ParseAddr(m[1]); err != nil {
			return fmt.Errorf("invalid IPv6 host %q", entry)
		}
		return checkPortSuffix(m[2])
	}

	m := allowedHostRe.FindStringSubmatch(entry)
	if m == nil {
		return fmt.Errorf("invalid host entry %q", entry)
	}
	return checkPortSuffix(m[3])
}

func checkPortSuffix(suffix string) error {
	if suffix == "" {
		return nil
	}
	port, err := strconv.Atoi(suffix[1:])
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", suffix[1:])
	}
	return nil
}
