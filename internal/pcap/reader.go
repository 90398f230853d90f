package pcap

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"go.uber.org/zap"
)

// Payload is one NetFlow datagram body lifted out of a captured UDP packet
type Payload struct {
	Data       []byte
	SourceAddr *net.UDPAddr
}

// Reader extracts NetFlow payloads from a saved packet capture. It performs
// the UDP/IP/Ethernet demultiplexing so the decoder only ever sees raw
// datagram bodies.
type Reader struct {
	port int
	log  *zap.Logger
}

// NewReader creates a capture reader that keeps UDP packets addressed to
// port. A port of 0 keeps every UDP packet.
func NewReader(port int, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{port: port, log: log}
}

// ReadFile reads an entire pcap file and returns the NetFlow payloads in
// capture order.
func (r *Reader) ReadFile(path string) ([]Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	return r.Read(f)
}

// Read reads a pcap stream until EOF
func (r *Reader) Read(src io.Reader) ([]Payload, error) {
	pr, err := pcapgo.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read pcap header: %w", err)
	}

	var payloads []Payload
	total := 0
	for {
		data, _, err := pr.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A damaged trailing packet should not discard what was read
			r.log.Warn("stopping at unreadable capture packet", zap.Error(err), zap.Int("packets", total))
			break
		}
		total++

		if p, ok := r.extract(data, pr.LinkType()); ok {
			payloads = append(payloads, p)
		}
	}

	r.log.Info("capture file read",
		zap.Int("packets", total),
		zap.Int("netflowPayloads", len(payloads)))
	return payloads, nil
}

// extract demultiplexes one captured frame down to its UDP payload
func (r *Reader) extract(data []byte, linkType layers.LinkType) (Payload, bool) {
	packet := gopacket.NewPacket(data, linkType, gopacket.Default)

	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return Payload{}, false
	}
	udp := udpLayer.(*layers.UDP)

	if r.port != 0 && int(udp.DstPort) != r.port {
		return Payload{}, false
	}
	if len(udp.Payload) == 0 {
		return Payload{}, false
	}

	var srcIP net.IP
	if ipLayer := packet.Layer(layers.LayerTypeIPv4); ipLayer != nil {
		srcIP = ipLayer.(*layers.IPv4).SrcIP
	} else if ipLayer := packet.Layer(layers.LayerTypeIPv6); ipLayer != nil {
		srcIP = ipLayer.(*layers.IPv6).SrcIP
	}

	// Own the payload; gopacket may alias the frame buffer
	body := make([]byte, len(udp.Payload))
	copy(body, udp.Payload)

	return Payload{
		Data:       body,
		SourceAddr: &net.UDPAddr{IP: srcIP, Port: int(udp.SrcPort)},
	}, true
}
