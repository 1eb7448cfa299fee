package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/filex"
	"github.com/dmitrijs2005/reportkeeper/internal/guard"
	"github.com/dmitrijs2005/reportkeeper/internal/identity"
	"github.com/dmitrijs2005/reportkeeper/internal/pending"
)

const accountIDSubmissionPrefix = "account-id-"

func (a *App) Ping(ctx context.Context) error {
	a.runner.ProbeConnectivity(ctx, a.config.ServerEndpointAddr)
	return nil
}

func (a *App) Token(ctx context.Context) error {
	a.runner.FetchAccessToken(ctx, a.store)
	return nil
}

// Resend counts the outbox afresh and resends everything in it.
func (a *App) Resend(ctx context.Context) error {
	counts, err := a.outbox.Count()
	if err != nil {
		printlnFn("Cannot read pending submissions:", err)
		return err
	}

	task := a.runner.ResendPending(ctx, counts.Total(), a.config.ServerEndpointAddr)
	if _, done := task.Outcome(); !done {
		printlnFn(fmt.Sprintf("Resending %d submission(s)...", counts.Total()))
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	counts, err := a.outbox.Count()
	if err != nil {
		return err
	}

	mode := a.Mode()
	if mode == ModeUnknown {
		mode = "unknown"
	}

	a.mu.Lock()
	trusted := a.desktopTrusted
	a.mu.Unlock()

	printlnFn("Connection:     ", mode)
	printlnFn("Pending:        ", counts.Pending)
	printlnFn("Failed:         ", counts.Failed)
	printlnFn("Access token:   ", a.hasToken())
	printlnFn("Desktop key:    ", trusted)
	printlnFn("Auto-lock:      ", a.autoLockIn())
	return nil
}

// autoLockIn describes how long until the session locks for inactivity.
func (a *App) autoLockIn() string {
	if a.busy() {
		return "held while sending"
	}
	left := a.timer.LastInteraction().Add(a.config.SessionTimeout()).Sub(a.now())
	if left < 0 {
		left = 0
	}
	return "in " + left.Round(time.Second).String()
}

// Code prints both public code formats so they can be cross-checked.
func (a *App) Code(ctx context.Context) error {
	pi, err := a.store.PublicIdentity()
	if err != nil {
		printlnFn("No active identity:", err)
		return err
	}
	printlnFn("Public code:        ", pi.PublicCode)
	printlnFn("Public code (40):   ", pi.PublicCode40)
	return nil
}

func (a *App) Export(ctx context.Context) error {
	exp, err := a.exportIdentity(ctx)
	if err != nil {
		printlnFn("Export failed:", err)
		return err
	}

	printlnFn("Identity exported to", exp.Path)
	printlnFn("Signature written to", exp.SignaturePath)
	return nil
}

func (a *App) exportIdentity(ctx context.Context) (*identity.SignedExport, error) {
	path := a.config.ExportPath()
	if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	exp, err := a.store.ExportSigned(path)
	if err != nil {
		a.log.Error(ctx, "identity export failed", "error", err)
		return nil, err
	}
	return exp, nil
}

// SendID exports the signed identity and queues it, with its signature, as
// a submission for the next resend.
func (a *App) SendID(ctx context.Context) error {
	exp, err := a.exportIdentity(ctx)
	if err != nil {
		printlnFn("Export failed:", err)
		return err
	}

	pi, err := identity.ReadExport(exp.Payload)
	if err != nil {
		a.log.Error(ctx, "exported identity unreadable", "error", err)
		printlnFn("Export failed:", err)
		return err
	}

	data, err := pending.Pack(time.Now(),
		pending.Entry{Name: filepath.Base(exp.Path), Data: exp.Payload},
		pending.Entry{Name: filepath.Base(exp.SignaturePath), Data: guard.EncodeSignature(exp.Signature)},
	)
	if err != nil {
		printlnFn("Cannot package identity:", err)
		return err
	}

	sub, err := a.outbox.Enqueue(accountIDSubmissionPrefix+pi.PublicCode, data)
	if err != nil {
		a.log.Error(ctx, "queue identity failed", "error", err)
		printlnFn("Cannot queue identity:", err)
		return err
	}

	a.log.Info(ctx, "identity queued", "submission", sub.Name)
	printlnFn("Identity queued as", sub.Name+". Type 'resend' to send it.")
	return nil
}

// Verify checks a signed file against the account key; the default is the
// identity export.
func (a *App) Verify(ctx context.Context, args []string) error {
	path := a.config.ExportPath()
	if len(args) > 0 {
		path = args[0]
	}

	pub, err := a.store.PublicKey()
	if err != nil {
		printlnFn("No active identity:", err)
		return err
	}

	res, err := a.guard.Trust(ctx, path, pub)
	if err != nil {
		printlnFn("Cannot read", path+":", err)
		return err
	}

	switch res {
	case guard.VerifiedOk:
		printlnFn(path, "is signed and intact.")
	case guard.Missing:
		printlnFn(path, "does not exist.")
	default:
		printlnFn(path, "has been modified or its signature is missing. Do not trust it.")
	}
	return nil
}

// Stats prints outcome counters collected since start.
func (a *App) Stats(ctx context.Context) error {
	mfs, err := a.registry.Gather()
	if err != nil {
		return err
	}

	var lines []string
	for _, mf := range mfs {
		if mf.GetName() != "reportkeeper_sync_outcomes_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			lines = append(lines, fmt.Sprintf("%s/%s: %.0f", labels["operation"], labels["outcome"], m.GetCounter().GetValue()))
		}
	}

	if len(lines) == 0 {
		printlnFn("No operations yet.")
		return nil
	}
	sort.Strings(lines)
	for _, l := range lines {
		printlnFn(l)
	}
	return nil
}
