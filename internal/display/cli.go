package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"netflow9-collector/internal/store"
)

// Columns shown for every record in the simple display. Records missing a
// column show a dash.
var cliColumns = []string{"Src IP", "Src Port", "Dst IP", "Dst Port", "Protocol", "Bytes", "Packets"}

// CLI renders a periodically refreshing plain-terminal view of the store
type CLI struct {
	store       *store.RecordStore
	refreshRate time.Duration
	stopChan    chan struct{}
}

// New creates a new CLI display
func New(s *store.RecordStore, refreshRate time.Duration) *CLI {
	if refreshRate == 0 {
		refreshRate = time.Second
	}
	return &CLI{
		store:       s,
		refreshRate: refreshRate,
		stopChan:    make(chan struct{}),
	}
}

// getTerminalSize returns current terminal width and height
func getTerminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		// Fallback to reasonable defaults
		return 100, 24
	}
	return width, height
}

// Start begins the display loop
func (c *CLI) Start() {
	ticker := time.NewTicker(c.refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.render()
		}
	}
}

// Stop stops the display loop
func (c *CLI) Stop() {
	close(c.stopChan)
}

func (c *CLI) render() {
	width, height := getTerminalSize()
	stats := c.store.Stats()

	// Clear screen and move cursor home
	fmt.Print("\033[2J\033[H")

	fmt.Printf("NetFlow v9 Collector | packets %s  records %s  templates %s  sources %d  gaps %s\n",
		formatNumber(stats.TotalPackets),
		formatNumber(stats.TotalRecords),
		formatNumber(stats.TotalTemplates),
		stats.UniqueSources,
		formatNumber(stats.SequenceGaps))
	fmt.Printf("bytes %s  unknown-template %s  truncated %s  invalid %s  %.1f records/s  up %s\n",
		formatBytes(stats.TotalBytes),
		formatNumber(stats.UnknownTemplates),
		formatNumber(stats.TruncatedPackets),
		formatNumber(stats.InvalidPackets),
		stats.RecordsPerSecond(),
		formatAge(time.Since(stats.StartedAt)))
	fmt.Println(strings.Repeat("-", width))

	colWidth := 18
	var header strings.Builder
	for _, col := range cliColumns {
		fmt.Fprintf(&header, "%-*s", colWidth, col)
	}
	fmt.Println(truncate(header.String(), width))

	rows := height - 6
	if rows < 1 {
		rows = 1
	}
	for _, rec := range c.store.QueryRecords(store.Filter{}, rows) {
		var line strings.Builder
		for _, col := range cliColumns {
			v, ok := rec.Values.Get(col)
			if !ok || v == "" {
				v = "-"
			}
			fmt.Fprintf(&line, "%-*s", colWidth, truncate(v, colWidth-1))
		}
		fmt.Println(truncate(line.String(), width))
	}
}
