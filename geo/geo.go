// Package geo wraps MaxMind-format MMDB lookups for country and autonomous
// system assignment, per spec §4.6/§6. Each database is read from a
// configured file path; no database is bundled, so an unset path means no
// data for that lookup.
package geo

import (
	"net/netip"
	"sync"

	geoip2 "github.com/oschwald/geoip2-golang"

	"github.com/netsentryhq/netsentry/trafficstate"
)

// Reader looks up country and ASN data for a numeric address. A Reader
// with no underlying database open always returns the empty/unknown
// result rather than erroring, since a missing or unreadable MMDB file is
// a degraded-but-running condition (spec §4.6: "MMDB miss" is treated as
// resolved with empty ASN / ZZ country, not a fatal error).
type Reader struct {
	mu      sync.RWMutex
	country *geoip2.Reader
	asn     *geoip2.Reader
}

// Open builds a Reader from the country and ASN MMDB paths. Either path
// may be empty, in which case that lookup always misses. A path that is
// non-empty but fails to open is reported as an error.
func Open(countryPath, asnPath string) (*Reader, error) {
	r := &Reader{}
	if countryPath != "" {
		c, err := geoip2.Open(countryPath)
		if err != nil {
			return nil, err
		}
		r.country = c
	}
	if asnPath != "" {
		a, err := geoip2.Open(asnPath)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.asn = a
	}
	return r, nil
}

// Close releases both underlying MMDB files, if open.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.country != nil {
		r.country.Close()
	}
	if r.asn != nil {
		r.asn.Close()
	}
	return nil
}

// Country returns the two-letter ISO country code for addr, or
// trafficstate.UnknownCountry ("ZZ") on any miss or lookup error.
func (r *Reader) Country(addr netip.Addr) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.country == nil {
		return trafficstate.UnknownCountry
	}
	rec, err := r.country.Country(addr.AsSlice())
	if err != nil || rec.Country.IsoCode == "" {
		return trafficstate.UnknownCountry
	}
	return rec.Country.IsoCode
}

// ASN returns the autonomous system number and organization name for
// addr, or the zero ASN on any miss or lookup error.
func (r *Reader) ASN(addr netip.Addr) trafficstate.ASN {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.asn == nil {
		return trafficstate.ASN{}
	}
	rec, err := r.asn.ASN(addr.AsSlice())
	if err != nil || rec.AutonomousSystemNumber == 0 {
		return trafficstate.ASN{}
	}
	return trafficstate.ASN{Number: uint32(rec.AutonomousSystemNumber), Name: rec.AutonomousSystemOrganization}
}
