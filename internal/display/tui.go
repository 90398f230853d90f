package display

import (
	"fmt"
	"sort"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"netflow9-collector/internal/decoder"
	"netflow9-collector/internal/resolver"
	"netflow9-collector/internal/store"
)

// TUI is the interactive terminal view: a live table of decoded records and
// a second page with the template cache contents.
type TUI struct {
	app       *tview.Application
	store     *store.RecordStore
	cache     *decoder.TemplateCache
	resolver  *resolver.Resolver
	table     *tview.Table
	tmplTable *tview.Table
	statsView *tview.TextView
	helpView  *tview.TextView
	pages     *tview.Pages

	filter      store.Filter
	filterExpr  string
	filterInput *tview.InputField
	paused      bool
	currentPage int // 0 = records, 1 = templates
	refreshRate time.Duration
	stopChan    chan struct{}
}

// NewTUI creates a new interactive TUI
func NewTUI(s *store.RecordStore, cache *decoder.TemplateCache, res *resolver.Resolver, refreshRate time.Duration) *TUI {
	if refreshRate == 0 {
		refreshRate = 500 * time.Millisecond
	}
	if res == nil {
		res = resolver.New()
	}

	t := &TUI{
		app:         tview.NewApplication(),
		store:       s,
		cache:       cache,
		resolver:    res,
		refreshRate: refreshRate,
		stopChan:    make(chan struct{}),
	}

	t.setupUI()
	return t
}

func (t *TUI) setupUI() {
	t.statsView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	t.statsView.SetBorder(true).SetTitle(" Statistics ")

	t.table = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	t.table.SetBorder(true).SetTitle(" Records [F2=Templates] ")

	t.tmplTable = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	t.tmplTable.SetBorder(true).SetTitle(" Templates [F1=Records] ")

	t.filterInput = tview.NewInputField().
		SetLabel(" Filter: ").
		SetFieldWidth(0)
	t.filterInput.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			t.filterExpr = t.filterInput.GetText()
			t.filter = store.ParseFilter(t.filterExpr)
		}
		t.app.SetFocus(t.table)
	})

	t.helpView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	t.helpView.SetText("[yellow]q[-] quit  [yellow]p[-] pause  [yellow]/[-] filter  [yellow]c[-] clear  [yellow]F1/F2[-] pages")

	recordsLayout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.statsView, 4, 0, false).
		AddItem(t.table, 0, 1, true).
		AddItem(t.filterInput, 1, 0, false).
		AddItem(t.helpView, 1, 0, false)

	templatesLayout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.statsView, 4, 0, false).
		AddItem(t.tmplTable, 0, 1, true).
		AddItem(t.helpView, 1, 0, false)

	t.pages = tview.NewPages().
		AddPage("records", recordsLayout, true, true).
		AddPage("templates", templatesLayout, true, false)

	t.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if t.app.GetFocus() == t.filterInput {
			return event
		}
		switch event.Key() {
		case tcell.KeyF1:
			t.showPage(0)
			return nil
		case tcell.KeyF2:
			t.showPage(1)
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q':
				t.app.Stop()
				return nil
			case 'p':
				t.paused = !t.paused
				return nil
			case 'c':
				t.store.Clear()
				return nil
			case '/':
				t.app.SetFocus(t.filterInput)
				return nil
			}
		}
		return event
	})

	t.setupRecordHeaders()
	t.setupTemplateHeaders()
	t.app.SetRoot(t.pages, true)
}

func (t *TUI) showPage(page int) {
	t.currentPage = page
	if page == 0 {
		t.pages.SwitchToPage("records")
	} else {
		t.pages.SwitchToPage("templates")
	}
}

var recordColumns = []string{"Src IP", "Src Port", "Dst IP", "Dst Port", "Protocol", "Bytes", "Packets", "Template"}

func (t *TUI) setupRecordHeaders() {
	for i, name := range recordColumns {
		cell := tview.NewTableCell(name).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1)
		t.table.SetCell(0, i, cell)
	}
}

func (t *TUI) setupTemplateHeaders() {
	for i, name := range []string{"Source ID", "Template ID", "Fields", "Record Length"} {
		cell := tview.NewTableCell(name).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1)
		t.tmplTable.SetCell(0, i, cell)
	}
}

// Run starts the TUI and blocks until exit
func (t *TUI) Run() error {
	go t.refreshLoop()
	defer close(t.stopChan)
	return t.app.Run()
}

func (t *TUI) refreshLoop() {
	ticker := time.NewTicker(t.refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			if t.paused {
				continue
			}
			t.app.QueueUpdateDraw(func() {
				t.updateStats()
				if t.currentPage == 0 {
					t.updateRecordTable()
				} else {
					t.updateTemplateTable()
				}
			})
		}
	}
}

func (t *TUI) updateStats() {
	stats := t.store.Stats()
	state := ""
	if t.paused {
		state = " [red]PAUSED[-]"
	}
	if recent := t.store.RecentPackets(1); len(recent) > 0 && recent[0].Exporter != nil {
		state += "  exporter " + t.resolver.Resolve(recent[0].Exporter)
	}
	t.statsView.SetText(fmt.Sprintf(
		"packets [green]%s[-]  records [green]%s[-]  templates [green]%s[-]  sources [green]%d[-]%s\n"+
			"bytes %s  gaps %s  unknown-template %s  truncated %s  invalid %s  %.1f records/s",
		formatNumber(stats.TotalPackets),
		formatNumber(stats.TotalRecords),
		formatNumber(stats.TotalTemplates),
		stats.UniqueSources,
		state,
		formatBytes(stats.TotalBytes),
		formatNumber(stats.SequenceGaps),
		formatNumber(stats.UnknownTemplates),
		formatNumber(stats.TruncatedPackets),
		formatNumber(stats.InvalidPackets),
		stats.RecordsPerSecond()))
}

func (t *TUI) updateRecordTable() {
	_, _, _, height := t.table.GetInnerRect()
	limit := height - 1
	if limit < 1 {
		limit = 20
	}

	records := t.store.QueryRecords(t.filter, limit)

	// Drop stale rows from a previous refresh
	for row := t.table.GetRowCount() - 1; row > len(records); row-- {
		t.table.RemoveRow(row)
	}

	for i, rec := range records {
		row := i + 1
		for col, name := range recordColumns {
			var v string
			if name == "Template" {
				v = fmt.Sprintf("%d", rec.TemplateID)
			} else {
				v, _ = rec.Values.Get(name)
				if v == "" {
					v = "-"
				}
			}
			t.table.SetCell(row, col, tview.NewTableCell(v).SetExpansion(1))
		}
	}
}

func (t *TUI) updateTemplateTable() {
	snap := t.cache.Snapshot()

	sources := make([]uint32, 0, len(snap))
	for sourceID := range snap {
		sources = append(sources, sourceID)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	row := 1
	for _, sourceID := range sources {
		ids := make([]int, 0, len(snap[sourceID]))
		for id := range snap[sourceID] {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)

		for _, id := range ids {
			tmpl := snap[sourceID][uint16(id)]
			fields := ""
			for i, f := range tmpl.Fields {
				if i > 0 {
					fields += " "
				}
				fields += fmt.Sprintf("%d:%d", f.Type, f.Length)
			}
			t.tmplTable.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("%d", sourceID)).SetExpansion(1))
			t.tmplTable.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf("%d", id)).SetExpansion(1))
			t.tmplTable.SetCell(row, 2, tview.NewTableCell(truncate(fields, 60)).SetExpansion(2))
			t.tmplTable.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf("%d", tmpl.RecordLength())).SetExpansion(1))
			row++
		}
	}
	for r := t.tmplTable.GetRowCount() - 1; r >= row; r-- {
		t.tmplTable.RemoveRow(r)
	}
}
