// Package cfg owns the read-only configuration surface spec §6 describes:
// current filters, current favorites, current thresholds, current MMDB
// paths, current PCAP savefile path, and the tick interval. It is a thin
// viper-backed settings reader; persistence and editing UI are the
// external settings collaborator's job (spec §1 Non-goals).
package cfg

import (
	"time"

	"github.com/spf13/viper"

	"github.com/netsentryhq/netsentry/filter"
	"github.com/netsentryhq/netsentry/notify"
	"github.com/netsentryhq/netsentry/trafficstate"
)

// Keys, mirroring the teacher's const-key-plus-viper.SetDefault pattern
// (trace/rate_limit.go).
const (
	TickInterval = "tick-interval"

	FilterIPv4        = "filter-ipv4"
	FilterIPv6        = "filter-ipv6"
	FilterTCP         = "filter-tcp"
	FilterUDP         = "filter-udp"
	FilterICMP        = "filter-icmp"
	FilterAddressText = "filter-address-text"
	FilterPortText    = "filter-port-text"

	Favorites = "favorites"

	NotifyPacketsThreshold = "notify-packets-threshold"
	NotifyBytesThreshold   = "notify-bytes-threshold"
	NotifyByteMultiple     = "notify-byte-multiple"
	NotifyVolume           = "notify-volume"
	NotifyOnFavorite       = "notify-on-favorite"

	MMDBCountryPath = "mmdb-country-path"
	MMDBASNPath     = "mmdb-asn-path"

	SavefilePath = "savefile-path"
)

func init() {
	viper.SetDefault(TickInterval, time.Second)

	viper.SetDefault(FilterIPv4, true)
	viper.SetDefault(FilterIPv6, true)
	viper.SetDefault(FilterTCP, true)
	viper.SetDefault(FilterUDP, true)
	viper.SetDefault(FilterICMP, true)
	viper.SetDefault(FilterAddressText, "")
	viper.SetDefault(FilterPortText, "")

	viper.SetDefault(Favorites, []map[string]interface{}{})

	viper.SetDefault(NotifyPacketsThreshold, 750)
	viper.SetDefault(NotifyBytesThreshold, 800_000)
	viper.SetDefault(NotifyByteMultiple, notify.KB.String())
	viper.SetDefault(NotifyVolume, 60)
	viper.SetDefault(NotifyOnFavorite, false)

	viper.SetDefault(MMDBCountryPath, "")
	viper.SetDefault(MMDBASNPath, "")

	viper.SetDefault(SavefilePath, "")
}

// TickPeriodSetting returns the engine's publish period.
func TickPeriodSetting() time.Duration {
	return viper.GetDuration(TickInterval)
}

// Filters builds a filter.Filters from the currently configured
// predicates, validating the address/port collection text (spec §4.4:
// rejected at construction, never applied partially valid).
func Filters() (filter.Filters, error) {
	ipVersions := map[filter.IPVersion]bool{}
	if viper.GetBool(FilterIPv4) {
		ipVersions[filter.IPv4] = true
	}
	if viper.GetBool(FilterIPv6) {
		ipVersions[filter.IPv6] = true
	}

	transports := map[filter.Transport]bool{}
	if viper.GetBool(FilterTCP) {
		transports[filter.TCP] = true
	}
	if viper.GetBool(FilterUDP) {
		transports[filter.UDP] = true
	}
	if viper.GetBool(FilterICMP) {
		transports[filter.ICMP] = true
	}

	return filter.New(ipVersions, transports, viper.GetString(FilterAddressText), viper.GetString(FilterPortText))
}

// favoriteEntry is the on-disk shape of one favorite: the full resolved
// Host identity, the same triple the original sniffnet config persists
// (domain, ASN, country), since trafficstate.Host is itself the resolved
// identity a favorite flag attaches to (spec §4.3 HostRecord).
type favoriteEntry struct {
	Domain    string `mapstructure:"domain"`
	ASNNumber uint32 `mapstructure:"asn_number"`
	ASNName   string `mapstructure:"asn_name"`
	Country   string `mapstructure:"country"`
}

// FavoriteHosts returns the configured favorite hosts as the map the
// engine and notifier key their lookups by.
func FavoriteHosts() map[trafficstate.Host]bool {
	var entries []favoriteEntry
	_ = viper.UnmarshalKey(Favorites, &entries)

	out := make(map[trafficstate.Host]bool, len(entries))
	for _, e := range entries {
		out[trafficstate.Host{
			Domain:  e.Domain,
			ASN:     trafficstate.ASN{Number: e.ASNNumber, Name: e.ASNName},
			Country: e.Country,
		}] = true
	}
	return out
}

// NotifyConfig builds a notify.Config from the currently configured
// thresholds, volume, byte multiple, and favorite-host toggle. Per-rule
// sounds are left at DefaultConfig's choices; the core only needs
// thresholds, not which sound name an external audio collaborator plays.
func NotifyConfig() notify.Config {
	def := notify.DefaultConfig()
	def.Volume = uint8(viper.GetInt(NotifyVolume))
	def.PacketsThreshold = uint32(viper.GetInt(NotifyPacketsThreshold))
	def.BytesThreshold = uint64(viper.GetInt64(NotifyBytesThreshold))
	def.ByteMultiple = byteMultipleFromName(viper.GetString(NotifyByteMultiple))
	def.NotifyOnFavorite = viper.GetBool(NotifyOnFavorite)
	return def
}

func byteMultipleFromName(name string) notify.ByteMultiple {
	for _, m := range []notify.ByteMultiple{notify.B, notify.KB, notify.MB, notify.GB} {
		if m.String() == name {
			return m
		}
	}
	return notify.KB
}

// MMDBPaths returns the configured country/ASN MMDB paths; an empty path
// means that lookup always misses (spec §6).
func MMDBPaths() (countryPath, asnPath string) {
	return viper.GetString(MMDBCountryPath), viper.GetString(MMDBASNPath)
}

// SavefilePathSetting returns the configured PCAP savefile path, empty
// meaning savefile writing is disabled.
func SavefilePathSetting() string {
	return viper.GetString(SavefilePath)
}
