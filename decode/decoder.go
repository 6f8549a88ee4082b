package decode

import (
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
)

// Headers is the decoded result of a single frame: the network-layer
// addresses and transport-layer ports/type needed for classification,
// aggregation, and filtering. Fields are zero-valued when the frame
// carries no transport header (e.g. bare IP, or an unrecognized
// next-header/protocol).
type Headers struct {
	Source, Dest netip.Addr

	// Transport is one of "tcp", "udp", "icmp", "icmpv6", or "" when no
	// transport header was recognized.
	Transport string
	SrcPort   *uint16
	DstPort   *uint16

	// ICMPType is set only when Transport is icmp/icmpv6.
	ICMPType *uint8

	FrameLen int
}

// Decoder commits to a single link type for the lifetime of a capture and
// decodes every subsequent frame against it, per spec §4.2: mixed-linktype
// captures are not supported, and a capture never retries trial decode
// once committed.
type Decoder struct {
	linkType LinkType

	// One parser per possible first layer, built once at commit time.
	// Raw IP frames carry no link-layer header identifying the network
	// protocol, so the IP version nibble of the first byte picks between
	// the v4 and v6 parser on every frame; all other link types use a
	// single fixed first layer.
	parsers map[gopacket.LayerType]*gopacket.DecodingLayerParser

	eth      layers.Ethernet
	sll      layers.LinuxSLL
	ip4      layers.IPv4
	ip6      layers.IPv6
	tcp      layers.TCP
	udp      layers.UDP
	icmp4    layers.ICMPv4
	icmp6    layers.ICMPv6
	loopback layers.Loopback
	payload  gopacket.Payload

	decoded []gopacket.LayerType
}

// NewDecoder builds a decoder with no committed link type. Call
// CommitFirstFrame on the first captured frame before calling Decode.
func NewDecoder() *Decoder {
	return &Decoder{linkType: NotYetAssigned}
}

// NewDecoderForLinkType builds a decoder already committed to a known link
// type, for sources (such as a savefile written by this program) whose
// link type is already authoritative and does not need trial decoding.
func NewDecoderForLinkType(lt LinkType) (*Decoder, error) {
	d := &Decoder{}
	if err := d.commit(lt); err != nil {
		return nil, err
	}
	return d, nil
}

// LinkType reports the link type this decoder has committed to, or
// NotYetAssigned if CommitFirstFrame has not yet succeeded.
func (d *Decoder) LinkType() LinkType {
	return d.linkType
}

// CommitFirstFrame attempts, in order, Ethernet, raw IP, and null/loop
// decoding of the first frame, committing to whichever first yields both a
// valid IP header and a valid transport header. It is an error to call
// this more than once, or after construction with NewDecoderForLinkType.
func (d *Decoder) CommitFirstFrame(data []byte) (Headers, error) {
	if d.linkType != NotYetAssigned {
		return Headers{}, errors.Errorf("decode: link type already committed to %s", d.linkType)
	}

	for _, lt := range []LinkType{Ethernet, RawIP, NullOrLoop} {
		if err := d.commit(lt); err != nil {
			continue
		}
		if h, err := d.Decode(data); err == nil && h.Transport != "" {
			return h, nil
		}
	}

	d.linkType = Unsupported
	return Headers{}, errors.New("decode: no supported link type produced a valid IP+transport header on the first frame")
}

func (d *Decoder) newParser(first gopacket.LayerType) *gopacket.DecodingLayerParser {
	p := gopacket.NewDecodingLayerParser(
		first,
		&d.eth, &d.sll, &d.loopback, &d.ip4, &d.ip6,
		&d.tcp, &d.udp, &d.icmp4, &d.icmp6, &d.payload,
	)
	p.IgnoreUnsupported = true
	return p
}

func (d *Decoder) commit(lt LinkType) error {
	d.parsers = make(map[gopacket.LayerType]*gopacket.DecodingLayerParser)

	switch lt {
	case Ethernet:
		d.parsers[layers.LayerTypeEthernet] = d.newParser(layers.LayerTypeEthernet)
	case RawIP:
		d.parsers[layers.LayerTypeIPv4] = d.newParser(layers.LayerTypeIPv4)
		d.parsers[layers.LayerTypeIPv6] = d.newParser(layers.LayerTypeIPv6)
	case NullOrLoop:
		d.parsers[layers.LayerTypeLoopback] = d.newParser(layers.LayerTypeLoopback)
	case LinuxSLL:
		d.parsers[layers.LayerTypeLinuxSLL] = d.newParser(layers.LayerTypeLinuxSLL)
	default:
		return errors.Errorf("decode: unsupported link type %s", lt)
	}

	d.linkType = lt
	return nil
}

// Decode parses a single frame against the committed link type. It never
// re-attempts trial decode; frames that fail to parse against the
// committed link type yield an error; the engine still counts them in the
// global (unfiltered) counters.
func (d *Decoder) Decode(data []byte) (Headers, error) {
	if !d.linkType.IsSupported() {
		return Headers{}, errors.Errorf("decode: link type %s is not supported", d.linkType)
	}
	if len(data) == 0 {
		return Headers{}, errors.New("decode: empty frame")
	}

	parser := d.firstParser(data)
	d.decoded = d.decoded[:0]
	if err := parser.DecodeLayers(data, &d.decoded); err != nil && !d.haveIP() {
		return Headers{}, errors.Wrap(err, "decode")
	}
	return d.headersFromDecoded(data)
}

// firstParser picks which of the committed link type's parsers to use for
// this frame. Every link type except raw IP has exactly one.
func (d *Decoder) firstParser(data []byte) *gopacket.DecodingLayerParser {
	if d.linkType != RawIP {
		for _, p := range d.parsers {
			return p
		}
	}
	if data[0]>>4 == 6 {
		return d.parsers[layers.LayerTypeIPv6]
	}
	return d.parsers[layers.LayerTypeIPv4]
}

func (d *Decoder) headersFromDecoded(data []byte) (Headers, error) {
	h := Headers{FrameLen: len(data)}
	for _, lt := range d.decoded {
		switch lt {
		case layers.LayerTypeIPv4:
			h.Source, _ = netip.AddrFromSlice(d.ip4.SrcIP.To4())
			h.Dest, _ = netip.AddrFromSlice(d.ip4.DstIP.To4())
		case layers.LayerTypeIPv6:
			h.Source, _ = netip.AddrFromSlice(d.ip6.SrcIP.To16())
			h.Dest, _ = netip.AddrFromSlice(d.ip6.DstIP.To16())
		case layers.LayerTypeTCP:
			h.Transport = "tcp"
			sp := uint16(d.tcp.SrcPort)
			dp := uint16(d.tcp.DstPort)
			h.SrcPort = &sp
			h.DstPort = &dp
		case layers.LayerTypeUDP:
			h.Transport = "udp"
			sp := uint16(d.udp.SrcPort)
			dp := uint16(d.udp.DstPort)
			h.SrcPort = &sp
			h.DstPort = &dp
		case layers.LayerTypeICMPv4:
			h.Transport = "icmp"
			t := uint8(d.icmp4.TypeCode.Type())
			h.ICMPType = &t
		case layers.LayerTypeICMPv6:
			h.Transport = "icmpv6"
			t := uint8(d.icmp6.TypeCode.Type())
			h.ICMPType = &t
		}
	}

	if !h.Source.IsValid() || !h.Dest.IsValid() {
		return Headers{}, errors.New("decode: frame carried no recognizable IP header")
	}
	return h, nil
}

func (d *Decoder) haveIP() bool {
	for _, lt := range d.decoded {
		if lt == layers.LayerTypeIPv4 || lt == layers.LayerTypeIPv6 {
			return true
		}
	}
	return false
}
