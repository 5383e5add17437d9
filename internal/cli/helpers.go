package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/app/household"
	"github.com/kidzy-family/kidzy/internal/daemon"
	"github.com/kidzy-family/kidzy/internal/domain"
)

// openDaemon opens the household without serving. Logging is quiet unless
// --verbose is set.
func openDaemon() (*daemon.Daemon, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, err
	}
	if !verbose {
		cfg.Logging.Level = "warn"
	}
	return daemon.NewWithConfig(cfg, daemon.NewLogger(cfg, os.Stderr))
}

// apply dispatches cmd and turns a rejection or a failed save into an
// error. A CLI process exits right after, so an unsaved change is lost.
func apply(ctx context.Context, d *daemon.Daemon, cmd household.Command) (household.Outcome, error) {
	out, err := d.Store.Dispatch(ctx, cmd)
	if !out.Applied {
		return out, out.Reason
	}
	if err != nil {
		return out, fmt.Errorf("change not saved: %w", err)
	}
	return out, nil
}

// requireFamily fails early with a hint when setup has not run.
func requireFamily(s domain.Snapshot) error {
	if s.Family == nil {
		return fmt.Errorf("%w: run 'kidzy setup' first", domain.ErrNoFamily)
	}
	return nil
}

// findKid resolves a kid by id or, case-insensitively, by name.
func findKid(s domain.Snapshot, ref string) (domain.Kid, error) {
	if k, ok := s.Kid(ref); ok {
		return k, nil
	}
	var found []domain.Kid
	for _, k := range s.Kids {
		if strings.EqualFold(k.Name, ref) {
			found = append(found, k)
		}
	}
	switch len(found) {
	case 0:
		return domain.Kid{}, domain.Missing("kid", ref)
	case 1:
		return found[0], nil
	default:
		return domain.Kid{}, fmt.Errorf("%d kids are named %q, use the id", len(found), ref)
	}
}

// findParent resolves a parent by id or name.
func findParent(s domain.Snapshot, ref string) (domain.Parent, error) {
	if p, ok := s.Parent(ref); ok {
		return p, nil
	}
	for _, p := range s.Parents {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return domain.Parent{}, domain.Missing("parent", ref)
}

func money(d decimal.Decimal) string {
	return "K$" + d.StringFixed(2)
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "K$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// readLine reads one trimmed line, used for PIN entry from stdin.
func readLine(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(sc.Text()), nil
}
