package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"netflow9-collector/internal/api"
	"netflow9-collector/internal/config"
	"netflow9-collector/internal/decoder"
	"netflow9-collector/internal/display"
	"netflow9-collector/internal/export"
	"netflow9-collector/internal/listener"
	"netflow9-collector/internal/pcap"
	"netflow9-collector/internal/resolver"
	"netflow9-collector/internal/store"
	"netflow9-collector/pkg/types"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "UDP port to listen on (overrides config)")
	apiPort := flag.Int("api-port", 0, "HTTP API port (overrides config)")
	maxRecords := flag.Int("max-records", 0, "Maximum data records to keep in memory (overrides config)")
	pcapFile := flag.String("file", "", "Decode a saved pcap file instead of listening")
	jsonOut := flag.String("json", "", "Write the export document to this file")
	refreshRate := flag.Duration("refresh", 0, "Display refresh rate (overrides config)")
	simple := flag.Bool("simple", false, "Use simple CLI instead of interactive TUI")
	headless := flag.Bool("headless", false, "Run without any terminal display")
	noDNS := flag.Bool("no-dns", false, "Disable reverse DNS for exporter names")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")

	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *port != 0 {
		cfg.Listen.Port = *port
	}
	if *apiPort != 0 {
		cfg.API.Port = *apiPort
	}
	if *maxRecords != 0 {
		cfg.Store.MaxRecords = *maxRecords
	}
	if *refreshRate != 0 {
		cfg.Display.RefreshRate = *refreshRate
	}
	if *simple {
		cfg.Display.Simple = true
	}
	if *noDNS {
		cfg.Resolver.Enabled = false
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log, err := buildLogger(cfg.Logging.Level, *headless || *pcapFile != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Plain value construction: one shared cache, one decoder, one store
	cache := decoder.NewTemplateCache()
	dec := decoder.New(cache)
	recordStore := store.New(cfg.Store.MaxRecords)

	if *pcapFile != "" {
		if err := runFile(dec, recordStore, *pcapFile, *jsonOut, cfg.Listen.Port, log); err != nil {
			log.Error("capture decode failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	runLive(dec, recordStore, cfg, *jsonOut, *headless, log)
}

// buildLogger creates a zap logger. Logs go to stderr when toStderr is set
// (headless and capture-file modes); otherwise a terminal display owns the
// screen and logs are discarded.
func buildLogger(level string, toStderr bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	if !toStderr {
		// The interactive display owns the terminal; keep logs out of it
		zcfg.OutputPaths = []string{os.DevNull}
	}
	return zcfg.Build()
}

// decodeOne runs one payload through the decoder and into the store
func decodeOne(dec *decoder.Decoder, recordStore *store.RecordStore, data []byte, src *net.UDPAddr, log *zap.Logger) {
	if !decoder.IsV9(data) {
		recordStore.AddInvalid()
		return
	}

	records, diags := dec.Decode(data)
	for _, d := range diags {
		log.Warn("decode diagnostic",
			zap.String("kind", d.Kind.String()),
			zap.Int("offset", d.Offset),
			zap.Uint32("sourceId", d.SourceID),
			zap.Uint16("templateId", d.TemplateID),
			zap.String("detail", d.Message))
	}
	if len(records) == 0 {
		recordStore.AddInvalid()
		return
	}

	header, ok := records[0].(*types.PacketHeader)
	if !ok {
		return
	}
	pkt := types.Packet{
		Header:     *header,
		Records:    records,
		ReceivedAt: time.Now(),
	}
	if src != nil {
		pkt.Exporter = src.IP
	}
	recordStore.Add(pkt, diags)
}

// runFile decodes a saved capture and optionally writes the JSON export
func runFile(dec *decoder.Decoder, recordStore *store.RecordStore, path, jsonOut string, port int, log *zap.Logger) error {
	payloads, err := pcap.NewReader(port, log).ReadFile(path)
	if err != nil {
		return err
	}

	for _, p := range payloads {
		decodeOne(dec, recordStore, p.Data, p.SourceAddr, log)
	}

	stats := recordStore.Stats()
	fmt.Printf("Decoded %d packets: %d data records, %d templates from %d sources\n",
		stats.TotalPackets, stats.TotalRecords, stats.TotalTemplates, stats.UniqueSources)
	if stats.InvalidPackets > 0 || stats.UnknownTemplates > 0 {
		fmt.Printf("Skipped: %d non-v9/invalid packets, %d unknown-template flowsets\n",
			stats.InvalidPackets, stats.UnknownTemplates)
	}

	if jsonOut != "" {
		doc := export.Build(recordStore.RecentPackets(0), dec.Cache(), time.Now())
		if err := export.WriteFile(doc, jsonOut); err != nil {
			return err
		}
		fmt.Printf("Export written to %s\n", jsonOut)
	}
	return nil
}

// runLive listens on UDP and serves the display and API until interrupted
func runLive(dec *decoder.Decoder, recordStore *store.RecordStore, cfg config.Config, jsonOut string, headless bool, log *zap.Logger) {
	udpListener := listener.New(cfg.Listen.Port, log)
	if err := udpListener.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting listener: %v\n", err)
		os.Exit(1)
	}

	// Process packets in background
	go func() {
		for packet := range udpListener.Packets() {
			decodeOne(dec, recordStore, packet.Data, packet.SourceAddr, log)
		}
	}()

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(recordStore, dec.Cache(), cfg.API.Port, log)
		if err := apiServer.Start(); err != nil {
			log.Error("failed to start API server", zap.Error(err))
		}
	}

	res := resolver.New()
	res.SetEnabled(cfg.Resolver.Enabled)

	switch {
	case headless:
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
	case cfg.Display.Simple:
		cli := display.New(recordStore, cfg.Display.RefreshRate)
		fmt.Printf("NetFlow v9 collector started on UDP port %d (simple mode)\n", cfg.Listen.Port)
		fmt.Println("Press Ctrl+C to exit")
		go func() {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			cli.Stop()
		}()
		cli.Start()
	default:
		tui := display.NewTUI(recordStore, dec.Cache(), res, cfg.Display.RefreshRate)
		if err := tui.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
			os.Exit(1)
		}
	}

	// Cleanup
	udpListener.Stop()
	if apiServer != nil {
		apiServer.Stop()
	}

	if jsonOut != "" {
		doc := export.Build(recordStore.RecentPackets(0), dec.Cache(), time.Now())
		if err := export.WriteFile(doc, jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing export: %v\n", err)
		}
	}

	stats := recordStore.Stats()
	fmt.Printf("\nFinal Statistics:\n")
	fmt.Printf("  Packets:   %d\n", stats.TotalPackets)
	fmt.Printf("  Records:   %d\n", stats.TotalRecords)
	fmt.Printf("  Templates: %d\n", stats.TotalTemplates)
	fmt.Printf("  Sources:   %d\n", stats.UniqueSources)
	if stats.SequenceGaps > 0 {
		fmt.Printf("  Sequence gaps: %d\n", stats.SequenceGaps)
	}
}
