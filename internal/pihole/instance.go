package pihole

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/avojak/pihole-influxdb/internal/infrastructure/config"
)

// Instance describes one monitored Pi-hole appliance.
//
// Instances are built once at startup from configuration and are immutable
// for the lifetime of the process. The alias doubles as the display name and
// the `alias` tag on every exported point.
type Instance struct {
	// Alias is the unique display name for this instance.
	Alias string

	// Address is the base address, e.g. "http://pi.hole:80".
	Address string

	// Password is the Pi-hole app/web password, empty when none was
	// configured. Instances without a password are polled in degraded mode.
	Password string

	// hostname is the host portion of Address, cached for tagging.
	hostname string
}

// Hostname returns the host portion of the instance address, used as the
// `hostname` tag beside `alias` on every point.
func (i Instance) Hostname() string {
	return i.hostname
}

// HasPassword reports whether a password was configured for this instance.
func (i Instance) HasPassword() bool {
	return i.Password != ""
}

// String renders the instance for configuration dumps; the password is never
// included.
func (i Instance) String() string {
	if i.HasPassword() {
		return fmt.Sprintf("%s %s (authenticated)", i.Alias, i.Address)
	}
	return fmt.Sprintf("%s %s (not authenticated)", i.Alias, i.Address)
}

// NewInstances resolves the parallel comma-separated alias/address/password
// lists into an ordered list of Instance records.
//
// Constraints:
//   - alias count must equal address count
//   - aliases must be unique
//   - every address must be a parseable absolute URL
//   - the password list may be shorter (or empty); missing entries mean
//     "no password" for the corresponding instance
//
// Violations are configuration errors: the process must not start polling.
//
// Returns:
//   - []Instance: One record per configured instance, in list order
//   - error: Description of the configuration error, or nil
func NewInstances(cfg config.PiholeConfig) ([]Instance, error) {
	aliases := splitList(cfg.Aliases)
	addresses := splitList(cfg.Addresses)
	passwords := splitList(cfg.Passwords)

	if len(addresses) == 0 {
		return nil, fmt.Errorf("no Pi-hole instances provided")
	}
	if len(aliases) != len(addresses) {
		return nil, fmt.Errorf("number of Pi-hole aliases (%d) does not match number of addresses (%d)",
			len(aliases), len(addresses))
	}
	if len(passwords) > len(addresses) {
		return nil, fmt.Errorf("number of Pi-hole passwords (%d) exceeds number of addresses (%d)",
			len(passwords), len(addresses))
	}

	seen := make(map[string]bool, len(aliases))
	instances := make([]Instance, 0, len(aliases))
	for idx, alias := range aliases {
		if seen[alias] {
			return nil, fmt.Errorf("duplicate Pi-hole alias %q", alias)
		}
		seen[alias] = true

		address := addresses[idx]
		parsed, err := url.Parse(address)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid Pi-hole address %q for alias %q", address, alias)
		}

		password := ""
		if idx < len(passwords) {
			password = passwords[idx]
		}

		instances = append(instances, Instance{
			Alias:    alias,
			Address:  strings.TrimRight(address, "/"),
			Password: password,
			hostname: parsed.Hostname(),
		})
	}

	return instances, nil
}

// splitList splits a comma-separated configuration list, trimming whitespace
// and dropping empty segments. An empty input yields a nil slice.
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
