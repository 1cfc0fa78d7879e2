package ui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"meshdrop/internal/quickstart"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
)

// RenderOutcome prints the status line of a run
func RenderOutcome(w io.Writer, outcome quickstart.Outcome) {
	switch outcome.Kind {
	case quickstart.OutcomeSuccess:
		successColor.Fprintln(w, outcome.Message())
	case quickstart.OutcomeValidationError:
		warningColor.Fprintln(w, outcome.Message())
	default:
		failureColor.Fprintln(w, outcome.Message())
		if suggestion := getSuggestion(outcome.Detail); suggestion != "" {
			fmt.Fprintf(w, "\n  %s %s\n", ColorInfo("TIP:"), ColorInfo(suggestion))
		}
	}
}

// RenderReport prints what a deploy created in dbt Cloud. Incomplete
// projects are flagged since nothing is cleaned up after a failure.
func RenderReport(w io.Writer, report *quickstart.Report) {
	if report == nil || len(report.Projects) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Project", "Connection", "Project ID", "Repository", "Credentials", "Environments", "Status"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, p := range report.Projects {
		status := color.GreenString("complete")
		if !p.Completed {
			status = color.RedString("partial")
		}
		table.Append([]string{
			p.Spec.Name,
			formatID(p.ConnectionID),
			formatID(p.ProjectID),
			repository(p),
			formatID(p.CredentialsID),
			formatID(p.ProductionEnvironmentID) + ", " + formatID(p.DevelopmentEnvironmentID),
			status,
		})
	}

	fmt.Fprintln(w)
	table.Render()
	if report.Duration > 0 {
		fmt.Fprintf(w, "\n%s %s\n", ColorDim("Run "+report.RunID+" took"), formatDuration(report.Duration))
	}
}

// RenderStatements prints a numbered statement batch
func RenderStatements(w io.Writer, statements []string) {
	width := len(strconv.Itoa(len(statements)))
	for i, stmt := range statements {
		fmt.Fprintf(w, "%*d  %s\n", width, i+1, stmt)
	}
}

func formatID(id int64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}

func repository(p quickstart.ProjectResult) string {
	if p.RepositoryID == 0 {
		return "-"
	}
	return fmt.Sprintf("%d (%s)", p.RepositoryID, p.RepositoryName)
}
