// Package capture opens a live interface or PCAP file and yields raw
// frames with timestamps, per spec §4.1. It mirrors the teacher's
// pcap.pcapWrapper seam (an interface hiding the real gopacket/pcap calls
// behind something a test can fake).
package capture

import (
	"net"
	"net/netip"
	"time"

	"github.com/google/gopacket/pcap"
	"github.com/pkg/errors"
)

const (
	// SnapLenNoSavefile is used when no PCAP savefile is being written:
	// only the headers this system actually inspects need to survive.
	SnapLenNoSavefile = 256
	// SnapLenWithSavefile captures full frames so the savefile is a
	// faithful copy of the wire traffic.
	SnapLenWithSavefile = 65535
)

// ErrTimeout is the recoverable error spec §4.1 calls CaptureError::Timeout:
// the read loop should simply try again.
var ErrTimeout = errors.New("capture: read timed out")

// Frame is one captured unit: its wire bytes and the timestamp the
// capture library attached to it.
type Frame struct {
	Timestamp time.Time
	Data      []byte
}

// Source is a pull interface over a live interface or an offline file.
// ReadFrame returns ErrTimeout for a recoverable empty read; any other
// error is fatal and the caller should stop the capture. Offline sources
// return io.EOF once the file is exhausted (the "terminal sentinel").
type Source interface {
	ReadFrame() (Frame, error)
	// Stats reports cumulative dropped-packet counts, polled after every
	// successful read per spec §4.1.
	Stats() (dropped uint32, err error)
	LinkType() pcap.LinkType
	Close()
}

type liveSource struct {
	handle *pcap.Handle
}

// OpenLive opens a live interface in promiscuous mode with immediate
// delivery. snapLen should be SnapLenNoSavefile or SnapLenWithSavefile
// depending on whether a savefile is enabled. bpfFilter, if non-empty, is
// compiled and attached; a compile failure is returned as a fatal error.
func OpenLive(interfaceName string, snapLen int, bpfFilter string) (Source, error) {
	inactive, err := pcap.NewInactiveHandle(interfaceName)
	if err != nil {
		return nil, errors.Wrapf(err, "capture: opening %s", interfaceName)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(snapLen); err != nil {
		return nil, errors.Wrap(err, "capture: set snaplen")
	}
	if err := inactive.SetPromisc(true); err != nil {
		return nil, errors.Wrap(err, "capture: set promisc")
	}
	if err := inactive.SetImmediateMode(true); err != nil {
		return nil, errors.Wrap(err, "capture: set immediate mode")
	}
	if err := inactive.SetTimeout(time.Second); err != nil {
		return nil, errors.Wrap(err, "capture: set timeout")
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, errors.Wrapf(err, "capture: activate %s", interfaceName)
	}

	if bpfFilter != "" {
		if err := handle.SetBPFFilter(bpfFilter); err != nil {
			handle.Close()
			return nil, errors.Wrapf(err, "capture: invalid BPF filter %q", bpfFilter)
		}
	}

	return &liveSource{handle: handle}, nil
}

// OpenOffline opens a PCAP/PCAPNG file for replay. No promiscuous mode
// applies; frames are produced as fast as the consumer drains them.
func OpenOffline(path, bpfFilter string) (Source, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, errors.Wrapf(err, "capture: opening file %s", path)
	}
	if bpfFilter != "" {
		if err := handle.SetBPFFilter(bpfFilter); err != nil {
			handle.Close()
			return nil, errors.Wrapf(err, "capture: invalid BPF filter %q", bpfFilter)
		}
	}
	return &liveSource{handle: handle}, nil
}

func (s *liveSource) ReadFrame() (Frame, error) {
	data, ci, err := s.handle.ZeroCopyReadPacketData()
	if err != nil {
		if err == pcap.NextErrorTimeoutExpired {
			return Frame{}, ErrTimeout
		}
		return Frame{}, err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return Frame{Timestamp: ci.Timestamp, Data: cp}, nil
}

func (s *liveSource) Stats() (uint32, error) {
	stats, err := s.handle.Stats()
	if err != nil {
		return 0, err
	}
	return uint32(stats.PacketsDropped), nil
}

func (s *liveSource) LinkType() pcap.LinkType {
	return s.handle.LinkType()
}

func (s *liveSource) Close() {
	s.handle.Close()
}

// InterfaceAddrs returns the local addresses bound to a named interface,
// used to seed classify.LocalAddrs.
func InterfaceAddrs(interfaceName string) ([]netip.Addr, error) {
	iface, err := net.InterfaceByName(interfaceName)
	if err != nil {
		return nil, errors.Wrapf(err, "capture: no interface named %s", interfaceName)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, errors.Wrapf(err, "capture: reading addresses of %s", interfaceName)
	}

	var out []netip.Addr
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		addr, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok {
			continue
		}
		out = append(out, addr.Unmap())
	}
	return out, nil
}

// InterfacePrefixes returns the local subnets bound to a named interface,
// used to resolve directed-broadcast classification.
func InterfacePrefixes(interfaceName string) ([]netip.Prefix, error) {
	iface, err := net.InterfaceByName(interfaceName)
	if err != nil {
		return nil, errors.Wrapf(err, "capture: no interface named %s", interfaceName)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, errors.Wrapf(err, "capture: reading addresses of %s", interfaceName)
	}

	var out []netip.Prefix
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		addr, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok {
			continue
		}
		ones, _ := ipNet.Mask.Size()
		out = append(out, netip.PrefixFrom(addr.Unmap(), ones))
	}
	return out, nil
}

// Devices lists capturable interfaces, for an interactive device picker.
func Devices() ([]pcap.Interface, error) {
	return pcap.FindAllDevs()
}
