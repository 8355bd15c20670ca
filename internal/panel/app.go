package panel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// App is the interactive terminal panel: a line-oriented command loop over
// the cached listing. The cache stays fresh through change notifications,
// so `list` renders local state and never waits on the hub.
type App struct {
	hub     Requester
	cache   *Cache
	reports *Orchestrator
	out     io.Writer

	// tabID targets agent-bound commands; empty means the newest tab.
	tabID string
}

// NewApp wires the panel state over an established hub link.
func NewApp(hub Requester, src NotificationSource, out io.Writer) *App {
	a := &App{hub: hub, out: out}
	a.cache = NewCache(hub, nil)
	a.cache.BindInvalidation(src)
	a.reports = NewOrchestrator(hub, a.printStatus, func(ctx context.Context, tagID string) {
		if err := a.cache.Reload(ctx, tagID); err != nil {
			logger.Warnf("panel: post-report reload failed: %v", err)
		}
	})

	src.HandleNotify(wire.KindReportGenerationStatus, func(_ context.Context, payload json.RawMessage) {
		var s wire.ReportStatus
		if err := json.Unmarshal(payload, &s); err != nil {
			logger.Warnf("panel: bad status payload: %v", err)
			return
		}
		a.printStatus(s)
	})
	return a
}

// Run loads the initial listing and consumes commands until EOF, "quit" or
// context cancellation.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	if err := a.cache.Reload(ctx, ""); err != nil {
		fmt.Fprintf(a.out, "could not load content: %v\n", err)
	} else {
		fmt.Fprint(a.out, RenderListing(a.cache.Snapshot()))
	}
	fmt.Fprintln(a.out, `type "help" for commands`)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := a.dispatch(ctx, line); err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (a *App) dispatch(ctx context.Context, line string) error {
	args := strings.Fields(line)
	cmd, args := args[0], args[1:]

	switch cmd {
	case "help":
		a.printHelp()
		return nil

	case "list":
		fmt.Fprint(a.out, RenderListing(a.cache.Snapshot()))
		return nil

	case "refresh":
		if err := a.cache.Reload(ctx, a.cache.Filter()); err != nil {
			return err
		}
		fmt.Fprint(a.out, RenderListing(a.cache.Snapshot()))
		return nil

	case "all":
		if err := a.cache.Reload(ctx, ""); err != nil {
			return err
		}
		fmt.Fprint(a.out, RenderListing(a.cache.Snapshot()))
		return nil

	case "filter":
		if len(args) != 1 {
			return errors.New("usage: filter <tagID>")
		}
		if err := a.cache.Reload(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprint(a.out, RenderListing(a.cache.Snapshot()))
		return nil

	case "tags":
		tags, err := ListTags(ctx, a.hub)
		if err != nil {
			return err
		}
		fmt.Fprint(a.out, RenderTags(tags))
		return nil

	case "open":
		item, err := a.itemAt(args)
		if err != nil {
			return err
		}
		if _, err := a.cache.Expand(ctx, item.ID); err != nil {
			return err
		}
		fmt.Fprint(a.out, RenderListing(a.cache.Snapshot()))
		return nil

	case "close":
		item, err := a.itemAt(args)
		if err != nil {
			return err
		}
		a.cache.Collapse(item.ID)
		fmt.Fprint(a.out, RenderListing(a.cache.Snapshot()))
		return nil

	case "tab":
		if len(args) == 0 {
			a.tabID = ""
			fmt.Fprintln(a.out, "targeting the newest tab")
			return nil
		}
		a.tabID = args[0]
		fmt.Fprintf(a.out, "targeting tab %s\n", a.tabID)
		return nil

	case "save":
		ref, err := CapturePage(ctx, a.hub, a.tabID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "saved %s\n", ref.ID)
		return nil

	case "select":
		if err := StartAreaSelection(ctx, a.hub, a.tabID); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "selection started; drag a region in the page")
		return nil

	case "tag":
		if len(args) < 2 {
			return errors.New("usage: tag <n> <name>")
		}
		item, err := a.itemAt(args[:1])
		if err != nil {
			return err
		}
		tag, err := TagItem(ctx, a.hub, item.ID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "tagged with %s (%s)\n", tag.Name, tag.ID)
		return nil

	case "untag":
		if len(args) != 2 {
			return errors.New("usage: untag <n> <tagID>")
		}
		item, err := a.itemAt(args[:1])
		if err != nil {
			return err
		}
		if err := UntagItem(ctx, a.hub, item.ID, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "tag removed")
		return nil

	case "rm":
		item, err := a.itemAt(args)
		if err != nil {
			return err
		}
		if err := DeleteItem(ctx, a.hub, item.ID); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted %s\n", item.ID)
		return nil

	case "report":
		if len(args) < 1 {
			return errors.New("usage: report <tagID> [nokp]")
		}
		opts := ReportRunOptions{GenerateKeyPoints: true}
		if len(args) > 1 && args[1] == "nokp" {
			opts.GenerateKeyPoints = false
		}
		run, err := a.reports.RunReport(ctx, args[0], opts)
		if errors.Is(err, ErrBusy) {
			fmt.Fprintln(a.out, "a report for this tag is already running")
			return nil
		}
		if run == nil {
			return err
		}
		// The run log already carries any failure.
		fmt.Fprint(a.out, RenderTaskRun(run))
		if run.Succeeded() {
			fmt.Fprintf(a.out, "download: %s\n", run.Report.URL)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
}

// itemAt resolves a 1-based listing index from the current snapshot.
func (a *App) itemAt(args []string) (wire.ContentItem, error) {
	if len(args) != 1 {
		return wire.ContentItem{}, errors.New("item number required")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return wire.ContentItem{}, fmt.Errorf("bad item number %q", args[0])
	}
	snap := a.cache.Snapshot()
	if n < 1 || n > len(snap.Items) {
		return wire.ContentItem{}, fmt.Errorf("no item %d in the listing", n)
	}
	return snap.Items[n-1].Item, nil
}

func (a *App) printStatus(s wire.ReportStatus) {
	fmt.Fprintln(a.out, RenderStatus(s))
}

func (a *App) printHelp() {
	fmt.Fprint(a.out, `commands:
  list                render the cached listing
  refresh             reload under the active filter
  all                 show everything
  filter <tagID>      show one tag
  tags                list tags
  open <n>            expand an item (loads its tags)
  close <n>           collapse an item
  tab [id]            target a tab for save/select
  save                capture the page in the targeted tab
  select              start an area selection in the targeted tab
  tag <n> <name>      tag an item
  untag <n> <tagID>   remove a tag
  rm <n>              delete an item
  report <tagID>      generate the PDF report (add "nokp" to skip key points)
  quit
`)
}
