package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/reconcile/domain/repository"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
)

// Reporter prints run progress to out and failures to errOut. Colors are
// only emitted when the writer is a color-capable terminal.
type Reporter struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer

	header  lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
}

var _ repository.Reporter = (*Reporter)(nil)

// NewReporter creates a console reporter
func NewReporter(out, errOut io.Writer) *Reporter {
	r := lipgloss.NewRenderer(out)
	e := lipgloss.NewRenderer(errOut)
	return &Reporter{
		out:     out,
		errOut:  errOut,
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		success: r.NewStyle().Foreground(lipgloss.Color("42")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		failure: e.NewStyle().Foreground(lipgloss.Color("196")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

func (r *Reporter) println(w io.Writer, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(w, s)
}

// Connected implements repository.Reporter
func (r *Reporter) Connected(projectID, databaseID string) {
	r.println(r.out, fmt.Sprintf("Connected to project %s (database %s)", projectID, databaseID))
}

// AuthoritativeSetLoaded implements repository.Reporter
func (r *Reporter) AuthoritativeSetLoaded(collection string, count int) {
	r.println(r.out, fmt.Sprintf("Found %d documents in %s", count, collection))
}

// UsersFound implements repository.Reporter
func (r *Reporter) UsersFound(collection string, count int) {
	r.println(r.out, fmt.Sprintf("Found %d documents in %s", count, collection))
}

// UserScanned implements repository.Reporter
func (r *Reporter) UserScanned(userID string, favorites, orphans int) {
	line := fmt.Sprintf("  %s: %d favorites, %d orphaned", userID, favorites, orphans)
	if orphans > 0 {
		r.println(r.out, r.warn.Render(line))
		return
	}
	r.println(r.out, r.dim.Render(line))
}

// UserScanFailed implements repository.Reporter. It writes to the error stream.
func (r *Reporter) UserScanFailed(userID string, err error) {
	r.println(r.errOut, r.failure.Render(fmt.Sprintf("  could not list favorites of %s: %v", userID, err)))
}

// ScanSummary implements repository.Reporter
func (r *Reporter) ScanSummary(stats model.RunStatistics, orphans []model.OrphanedFavorite) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.header.Render("Scan summary"))
	writeTable(r.out, scanRows(stats))

	if len(orphans) == 0 {
		return
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.header.Render("Orphaned favorites"))
	for _, o := range orphans {
		fmt.Fprintln(r.out, r.warn.Render("  - "+o.Path()))
	}
	fmt.Fprintln(r.out)
}

// Clean implements repository.Reporter
func (r *Reporter) Clean() {
	r.println(r.out, r.success.Render("No orphaned favorites found, database is clean"))
}

// DryRun implements repository.Reporter
func (r *Reporter) DryRun(orphans int) {
	r.println(r.out, r.warn.Render(fmt.Sprintf("Dry run: %d orphaned favorites would be deleted, no changes made", orphans)))
}

// Cancelled implements repository.Reporter
func (r *Reporter) Cancelled() {
	r.println(r.out, r.warn.Render("Deletion cancelled by user"))
}

// DeletionStarted implements repository.Reporter
func (r *Reporter) DeletionStarted(orphans int) {
	r.println(r.out, fmt.Sprintf("Deleting %d orphaned favorites...", orphans))
}

// Deleted implements repository.Reporter
func (r *Reporter) Deleted(orphan model.OrphanedFavorite) {
	r.println(r.out, r.success.Render("  deleted "+orphan.Path()))
}

// DeletionFailed implements repository.Reporter. It writes to the error stream.
func (r *Reporter) DeletionFailed(orphan model.OrphanedFavorite, err error) {
	r.println(r.errOut, r.failure.Render(fmt.Sprintf("  failed to delete %s: %v", orphan.Path(), err)))
}

// FinalSummary implements repository.Reporter
func (r *Reporter) FinalSummary(result *model.RunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.header.Render("Final summary"))
	rows := [][2]string{
		{"Run", result.RunID},
		{"Outcome", string(result.Outcome)},
	}
	rows = append(rows, result.Statistics.Rows()...)
	rows = append(rows, [2]string{"Duration", result.Duration().Round(time.Millisecond).String()})
	writeTable(r.out, rows)

	for _, f := range result.DeletionFailures {
		fmt.Fprintln(r.errOut, r.failure.Render(fmt.Sprintf("  not deleted: %s (%s)", f.Orphan.Path(), f.Reason)))
	}
	for _, f := range result.ScanFailures {
		fmt.Fprintln(r.errOut, r.failure.Render(fmt.Sprintf("  not scanned: user %s (%s)", f.UserID, f.Reason)))
	}
}

// Failure implements repository.Reporter. It writes to the error stream.
func (r *Reporter) Failure(err error) {
	r.println(r.errOut, r.failure.Render(fmt.Sprintf("Error: %v", err)))
}

// scanRows drops the deletion counters, which are zero before the gate
func scanRows(stats model.RunStatistics) [][2]string {
	var rows [][2]string
	for _, row := range stats.Rows() {
		if row[0] == "Deleted" || row[0] == "Failed deletions" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func writeTable(w io.Writer, pairs [][2]string) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, pair := range pairs {
		table.Append([]string{pair[0] + ":", pair[1]})
	}
	table.Render()
}
