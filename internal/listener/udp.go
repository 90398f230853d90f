package listener

import (
	"fmt"
	"net"

	"go.uber.org/zap"
)

const (
	DefaultPort       = 2055
	MaxPacketSize     = 65535
	DefaultBufferSize = 1024 * 1024 // 1MB
)

// Packet is one received datagram body with metadata. Data is owned by the
// receiver; the read buffer is never shared.
type Packet struct {
	Data       []byte
	SourceAddr *net.UDPAddr
}

// UDPListener receives NetFlow datagrams and hands their payloads to the
// decoder through a bounded channel. The decoder core never touches the
// socket.
type UDPListener struct {
	conn     *net.UDPConn
	port     int
	packets  chan Packet
	stopChan chan struct{}
	log      *zap.Logger
	dropped  uint64
}

// New creates a new UDP listener
func New(port int, log *zap.Logger) *UDPListener {
	if port == 0 {
		port = DefaultPort
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UDPListener{
		port:     port,
		packets:  make(chan Packet, 1000),
		stopChan: make(chan struct{}),
		log:      log,
	}
}

// Start begins listening for UDP packets
func (l *UDPListener) Start() error {
	addr := &net.UDPAddr{
		Port: l.port,
		IP:   net.IPv4zero,
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP port %d: %w", l.port, err)
	}

	// Set receive buffer size
	if err := conn.SetReadBuffer(DefaultBufferSize); err != nil {
		l.log.Warn("could not set UDP receive buffer size", zap.Error(err))
	}

	l.conn = conn
	l.log.Info("listening for NetFlow datagrams", zap.Int("port", l.port))

	go l.readLoop()

	return nil
}

// readLoop continuously reads UDP packets
func (l *UDPListener) readLoop() {
	buf := make([]byte, MaxPacketSize)

	for {
		select {
		case <-l.stopChan:
			return
		default:
			n, addr, err := l.conn.ReadFromUDP(buf)
			if err != nil {
				select {
				case <-l.stopChan:
					return
				default:
					continue
				}
			}

			// Copy data to avoid buffer reuse issues
			data := make([]byte, n)
			copy(data, buf[:n])

			select {
			case l.packets <- Packet{Data: data, SourceAddr: addr}:
			default:
				// Channel full, drop packet
				l.dropped++
				if l.dropped%1000 == 1 {
					l.log.Warn("packet channel full, dropping", zap.Uint64("dropped", l.dropped))
				}
			}
		}
	}
}

// Packets returns the channel of received packets
func (l *UDPListener) Packets() <-chan Packet {
	return l.packets
}

// Stop stops the listener
func (l *UDPListener) Stop() {
	close(l.stopChan)
	if l.conn != nil {
		l.conn.Close()
	}
}

// Port returns the listening port
func (l *UDPListener) Port() int {
	return l.port
}
