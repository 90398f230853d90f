package pcap

import (
	"bytes"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCapture builds an in-memory pcap file from UDP payloads
func writeCapture(t *testing.T, dstPort layers.UDPPort, payloads ...[]byte) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))

	for _, payload := range payloads {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			DstMAC:       net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xAA, 0xBB},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.IPv4(10, 1, 1, 1),
			DstIP:    net.IPv4(10, 1, 1, 2),
		}
		udp := &layers.UDP{
			SrcPort: 50000,
			DstPort: dstPort,
		}
		require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

		sbuf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		require.NoError(t, gopacket.SerializeLayers(sbuf, opts, eth, ip, udp, gopacket.Payload(payload)))

		data := sbuf.Bytes()
		require.NoError(t, w.WritePacket(gopacket.CaptureInfo{
			CaptureLength: len(data),
			Length:        len(data),
		}, data))
	}
	return &buf
}

func TestReadExtractsPayloads(t *testing.T) {
	capture := writeCapture(t, 2055, []byte{0x00, 0x09, 0x00, 0x01}, []byte{0xDE, 0xAD})

	payloads, err := NewReader(2055, nil).Read(capture)
	require.NoError(t, err)
	require.Len(t, payloads, 2)

	assert.Equal(t, []byte{0x00, 0x09, 0x00, 0x01}, payloads[0].Data)
	assert.Equal(t, "10.1.1.1", payloads[0].SourceAddr.IP.String())
	assert.Equal(t, 50000, payloads[0].SourceAddr.Port)
}

func TestReadFiltersPort(t *testing.T) {
	capture := writeCapture(t, 9999, []byte{0x01, 0x02})

	payloads, err := NewReader(2055, nil).Read(capture)
	require.NoError(t, err)
	assert.Empty(t, payloads)

	// Port 0 keeps everything
	capture = writeCapture(t, 9999, []byte{0x01, 0x02})
	payloads, err = NewReader(0, nil).Read(capture)
	require.NoError(t, err)
	assert.Len(t, payloads, 1)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := NewReader(2055, nil).Read(bytes.NewReader([]byte("not a pcap file")))
	assert.Error(t, err)
}

func TestReadFileMissing(t *testing.T) {
	_, err := NewReader(2055, nil).ReadFile(t.TempDir() + "/missing.pcap")
	assert.Error(t, err)
}
