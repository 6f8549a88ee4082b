package capture

import (
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
)

// Savefile forwards every successfully-decoded raw frame to a PCAP
// writer, per spec §4.9. Writer errors are fatal to the savefile path
// only; the capture loop that feeds it keeps running.
type Savefile struct {
	file   *os.File
	writer *pcapgo.Writer
	err    error
}

// NewSavefile creates path and writes a PCAP header matching snapLen and
// the source's link type.
func NewSavefile(path string, snapLen int, linkType pcap.LinkType) (*Savefile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "capture: creating savefile %s", path)
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(uint32(snapLen), layers.LinkType(linkType)); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "capture: writing savefile header")
	}
	return &Savefile{file: f, writer: w}, nil
}

// Write appends one frame. Once a write fails, Write becomes a no-op and
// returns the sticky error on every subsequent call, so the caller can
// abandon the savefile without abandoning the capture.
func (s *Savefile) Write(ts time.Time, data []byte) error {
	if s.err != nil {
		return s.err
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := s.writer.WritePacket(ci, data); err != nil {
		s.err = err
		return err
	}
	return nil
}

// Err reports the sticky write error, if the savefile has been abandoned.
func (s *Savefile) Err() error {
	return s.err
}

// Close flushes and closes the underlying file. Safe to call after the
// savefile has already been abandoned due to a write error.
func (s *Savefile) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

var _ io.Closer = (*Savefile)(nil)
