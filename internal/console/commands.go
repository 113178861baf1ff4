package console

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/module"
	"github.com/maurorisonho/Houdinis-sub002/internal/option"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// backendProbeTimeout bounds the reachability probe behind `show backends`.
const backendProbeTimeout = 3 * time.Second

// handler is one console verb.
type handler struct {
	name    string
	usage   string
	summary string
	run     func(c *Console, ctx context.Context, args []string) error
}

// handlers is the dispatch table, in help display order. It is populated
// in init to break the initialization cycle between the table and the
// command methods that consult it via findHandler.
var handlers []handler

func init() {
	handlers = []handler{
		{"use", "use <module-id>", "Select a module to configure and run", (*Console).cmdUse},
		{"show", "show modules|options|backends", "List modules, current options, or backends", (*Console).cmdShow},
		{"set", "set <option> <value>", "Set a module or global option", (*Console).cmdSet},
		{"unset", "unset <option>", "Clear an option, restoring its default", (*Console).cmdUnset},
		{"run", "run", "Execute the selected module", (*Console).cmdRun},
		{"back", "back", "Deselect the current module", (*Console).cmdBack},
		{"search", "search <term>", "Search module ids and descriptions", (*Console).cmdSearch},
		{"jobs", "jobs", "List submitted jobs and their statuses", (*Console).cmdJobs},
		{"fetch", "fetch <job-id>", "Fetch the result of a submitted job", (*Console).cmdFetch},
		{"history", "history", "Show executed runs", (*Console).cmdHistory},
		{"creds", "creds", "List configured credential sources", (*Console).cmdCreds},
		{"help", "help [verb]", "Show help", (*Console).cmdHelp},
		{"version", "version", "Show the framework version", (*Console).cmdVersion},
		{"exit", "exit", "Leave the console", (*Console).cmdExit},
	}
}

func findHandler(verb string) (*handler, bool) {
	for i := range handlers {
		if handlers[i].name == verb {
			return &handlers[i], true
		}
	}
	return nil, false
}

func usageError(h *handler) error {
	return types.NewError(types.COMMAND_USAGE, "usage: "+h.usage)
}

func (c *Console) cmdUse(ctx context.Context, args []string) error {
	if len(args) != 1 {
		h, _ := findHandler("use")
		return usageError(h)
	}

	m, err := c.session.Use(args[0])
	if err != nil {
		return err
	}
	c.printfInfo("%s: %s", m.ID(), m.Description())
	if missing := m.Options().MissingRequired(); len(missing) > 0 {
		c.printfDim("required options still unset: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Console) cmdShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		h, _ := findHandler("show")
		return usageError(h)
	}

	switch strings.ToLower(args[0]) {
	case "modules":
		c.showModules(c.session.Registry().List())
		return nil
	case "options":
		return c.showOptions()
	case "backends":
		c.showBackends(ctx)
		return nil
	default:
		return types.NewError(types.COMMAND_USAGE,
			fmt.Sprintf("unknown show target %q (modules, options, backends)", args[0]))
	}
}

func (c *Console) cmdSet(ctx context.Context, args []string) error {
	if len(args) < 2 {
		h, _ := findHandler("set")
		return usageError(h)
	}

	name := args[0]
	value := strings.Join(args[1:], " ")
	if err := c.session.Set(name, value); err != nil {
		return err
	}
	c.printfSuccess("%s => %s", strings.ToUpper(name), value)
	return nil
}

func (c *Console) cmdUnset(ctx context.Context, args []string) error {
	if len(args) != 1 {
		h, _ := findHandler("unset")
		return usageError(h)
	}

	if err := c.session.Unset(args[0]); err != nil {
		return err
	}
	c.printfSuccess("%s cleared", strings.ToUpper(args[0]))
	return nil
}

// cmdRun executes the active module on its own goroutine so the operator
// can interrupt the local wait with Ctrl-C. Interruption cancels local
// waiting only; the remote job keeps running and stays fetchable.
func (c *Console) cmdRun(ctx context.Context, args []string) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		result *backend.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := c.session.Run(runCtx)
		done <- outcome{result, err}
	}()

	select {
	case <-c.interrupt:
		c.printfInfo("interrupt received, abandoning local wait (job keeps running remotely)")
		cancel()
		out := <-done
		if out.err != nil {
			return out.err
		}
		c.printResult(out.result)
		return nil
	case out := <-done:
		if out.err != nil {
			return out.err
		}
		c.printResult(out.result)
		return nil
	}
}

func (c *Console) cmdBack(ctx context.Context, args []string) error {
	c.session.Back()
	return nil
}

func (c *Console) cmdSearch(ctx context.Context, args []string) error {
	if len(args) < 1 {
		h, _ := findHandler("search")
		return usageError(h)
	}

	matches := c.session.Registry().Search(strings.Join(args, " "))
	if len(matches) == 0 {
		c.printfDim("no modules match")
		return nil
	}
	c.showModules(matches)
	return nil
}

func (c *Console) cmdJobs(ctx context.Context, args []string) error {
	jobs := c.session.Backends().Jobs().List()
	if len(jobs) == 0 {
		c.printfDim("no jobs submitted yet")
		return nil
	}

	c.printHeader(fmt.Sprintf("%-10s %-22s %-16s %-10s %s", "ID", "MODULE", "BACKEND", "STATUS", "SUBMITTED"))
	for _, j := range jobs {
		c.printfPlain("%-10s %-22s %-16s %-10s %s",
			j.ID().Short(),
			j.Spec().Module,
			j.Handle().BackendID,
			j.Status(),
			j.SubmittedAt().Format(time.TimeOnly))
	}
	return nil
}

func (c *Console) cmdFetch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		h, _ := findHandler("fetch")
		return usageError(h)
	}

	result, err := c.session.Backends().Fetch(ctx, args[0])
	if err != nil {
		return err
	}
	c.printResult(result)
	return nil
}

func (c *Console) cmdHistory(ctx context.Context, args []string) error {
	history := c.session.History()
	if len(history) == 0 {
		c.printfDim("nothing executed yet")
		return nil
	}

	c.printHeader(fmt.Sprintf("%-10s %-22s %-16s %-8s %-10s %s", "ID", "MODULE", "BACKEND", "OK", "DURATION", "STARTED"))
	for _, e := range history {
		status := "yes"
		if !e.Succeeded {
			status = "no"
		}
		c.printfPlain("%-10s %-22s %-16s %-8s %-10s %s",
			e.ID.Short(), e.ModuleID, e.BackendID, status,
			e.Duration.Round(time.Millisecond), e.StartedAt.Format(time.TimeOnly))
	}
	return nil
}

func (c *Console) cmdCreds(ctx context.Context, args []string) error {
	sources := c.creds.Sources()
	if len(sources) == 0 {
		c.printfDim("no credential sources configured")
		return nil
	}
	sort.Strings(sources)
	c.printHeader("CREDENTIAL SOURCES")
	for _, s := range sources {
		c.printfPlain("  %s", s)
	}
	return nil
}

func (c *Console) cmdHelp(ctx context.Context, args []string) error {
	if len(args) == 1 {
		h, ok := findHandler(strings.ToLower(args[0]))
		if !ok {
			return types.NewError(types.COMMAND_UNKNOWN,
				fmt.Sprintf("no such command: %s", args[0]))
		}
		c.printfPlain("%s", h.usage)
		c.printfDim("  %s", h.summary)
		return nil
	}

	c.printHeader("COMMANDS")
	for _, h := range handlers {
		c.printfPlain("  %-34s %s", h.usage, h.summary)
	}
	return nil
}

func (c *Console) cmdVersion(ctx context.Context, args []string) error {
	c.printfPlain("houdinis %s", c.version)
	return nil
}

func (c *Console) cmdExit(ctx context.Context, args []string) error {
	c.exiting = true
	return nil
}

func (c *Console) showModules(mods []module.Module) {
	c.printHeader(fmt.Sprintf("%-24s %-10s %s", "MODULE", "CATEGORY", "DESCRIPTION"))
	for _, m := range mods {
		c.printfPlain("%-24s %-10s %s", m.ID(), m.Category(), m.Description())
	}
}

func (c *Console) showOptions() error {
	m := c.session.ActiveModule()
	if m != nil {
		c.printHeader(fmt.Sprintf("Module options (%s)", m.ID()))
		c.printOptionEntries(m.Options().List())
		c.printfPlain("")
	}
	c.printHeader("Global options")
	c.printOptionEntries(c.session.Globals().List())
	return nil
}

func (c *Console) printOptionEntries(entries []option.Entry) {
	c.printfPlain("  %-18s %-8s %-9s %-18s %s", "NAME", "KIND", "REQUIRED", "VALUE", "DESCRIPTION")
	for _, e := range entries {
		value := e.Value
		if !e.HasValue {
			value = "<unset>"
		} else if !e.Explicit {
			value += " (default)"
		}
		required := "no"
		if e.Required {
			required = "yes"
		}
		c.printfPlain("  %-18s %-8s %-9s %-18s %s", e.Name, e.Kind, required, value, e.Description)
	}
}

// showBackends lists descriptors and probes each backend's reachability
// concurrently. The probe is best-effort: backends without a Ping
// implementation show as unknown.
func (c *Console) showBackends(ctx context.Context) {
	descs := c.session.Backends().List()

	probeCtx, cancel := context.WithTimeout(ctx, backendProbeTimeout)
	defer cancel()

	statuses := make([]string, len(descs))
	g, probeCtx := errgroup.WithContext(probeCtx)
	for i, desc := range descs {
		g.Go(func() error {
			statuses[i] = c.probeBackend(probeCtx, desc.ID)
			return nil
		})
	}
	_ = g.Wait()

	c.printHeader(fmt.Sprintf("%-16s %-16s %-8s %-8s %-8s %-9s %s",
		"BACKEND", "KIND", "QUBITS", "SHOTS", "AUTH", "STATUS", "NAME"))
	for i, desc := range descs {
		auth := "no"
		if desc.RequiresAuth {
			auth = "yes"
		}
		c.printfPlain("%-16s %-16s %-8d %-8d %-8s %-9s %s",
			desc.ID, desc.Kind, desc.MaxQubits, desc.MaxShots, auth, statuses[i], desc.DisplayName)
	}
}

// pinger is the optional reachability probe a backend may implement.
type pinger interface {
	Ping(ctx context.Context) error
}

func (c *Console) probeBackend(ctx context.Context, id string) string {
	b, err := c.session.Backends().Resolve(id)
	if err != nil {
		return "unknown"
	}
	p, ok := b.(pinger)
	if !ok {
		return "ready"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}

// printResult renders a normalized result: the most frequent counts plus
// metadata, fallback substitution called out explicitly.
func (c *Console) printResult(result *backend.Result) {
	if result == nil {
		return
	}

	if used, ok := result.Metadata["fallback_used"].(bool); ok && used {
		c.printfInfo("remote backend unavailable, executed on local simulator (fallback_used=true)")
	}

	type kv struct {
		bits  string
		count int
	}
	sorted := make([]kv, 0, len(result.Counts))
	total := 0
	for bits, count := range result.Counts {
		sorted = append(sorted, kv{bits, count})
		total += count
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].bits < sorted[j].bits
	})

	c.printHeader("RESULT")
	shown := len(sorted)
	if shown > 8 {
		shown = 8
	}
	for _, entry := range sorted[:shown] {
		c.printfPlain("  %s  %6d  (%.1f%%)",
			entry.bits, entry.count, 100*float64(entry.count)/float64(total))
	}
	if len(sorted) > shown {
		c.printfDim("  ... %d more outcomes", len(sorted)-shown)
	}

	keys := make([]string, 0, len(result.Metadata))
	for k := range result.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.printfDim("  %s = %v", k, result.Metadata[k])
	}
}
