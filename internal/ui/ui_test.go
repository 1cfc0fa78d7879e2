package ui

import (
	"bytes"
	stderrors "errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshdrop/internal/quickstart"
	"meshdrop/pkg/models"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	supportsColor = false
	os.Exit(m.Run())
}

// fakePrompter answers prompts from a queue keyed by message
type fakePrompter struct {
	answers map[string]string
	err     error
	asked   []string
	secrets []string
	offered map[string]string
}

func (f *fakePrompter) Input(message, defaultValue, help string) (string, error) {
	f.asked = append(f.asked, message)
	if f.offered == nil {
		f.offered = make(map[string]string)
	}
	f.offered[message] = defaultValue
	if f.err != nil {
		return "", f.err
	}
	if answer, ok := f.answers[message]; ok {
		return answer, nil
	}
	return defaultValue, nil
}

func (f *fakePrompter) Password(message, help string) (string, error) {
	f.asked = append(f.asked, message)
	f.secrets = append(f.secrets, message)
	if f.err != nil {
		return "", f.err
	}
	return f.answers[message], nil
}

func (f *fakePrompter) Confirm(message string, defaultValue bool) (bool, error) {
	f.asked = append(f.asked, message)
	return defaultValue, f.err
}

func TestPromptRequestAsksOnlyMissingFields(t *testing.T) {
	p := &fakePrompter{answers: map[string]string{
		"Snowflake password:":      "s3cret",
		"dbt Cloud service token:": "dbtc_token",
	}}
	req := quickstart.Request{
		WarehouseAccount: "acct",
		WarehouseUser:    "user",
		ServiceAccountID: "12",
		ServiceHost:      "cloud.getdbt.com",
	}

	require.NoError(t, PromptRequest(p, &req))

	assert.Equal(t, []string{"Snowflake password:", "dbt Cloud service token:"}, p.asked)
	assert.Equal(t, p.asked, p.secrets)
	assert.Equal(t, "s3cret", req.WarehousePassword)
	assert.Equal(t, "dbtc_token", req.ServiceToken)
	assert.NoError(t, req.Validate())
}

func TestPromptRequestStopsOnCancel(t *testing.T) {
	p := &fakePrompter{err: ErrCancelled}
	req := quickstart.Request{}

	err := PromptRequest(p, &req)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Len(t, p.asked, 1)
}

func TestPromptDefaultsOffersCurrentValues(t *testing.T) {
	p := &fakePrompter{answers: map[string]string{"dbt Cloud account ID:": "77"}}
	current := models.Config{Snowflake: models.Snowflake{Account: "acct", Username: "user"}}

	cfg, err := PromptDefaults(p, current, "cloud.getdbt.com")

	require.NoError(t, err)
	assert.Equal(t, "acct", p.offered["Snowflake account:"])
	assert.Equal(t, "cloud.getdbt.com", p.offered["dbt Cloud host:"])
	assert.Equal(t, models.Config{
		Snowflake: models.Snowflake{Account: "acct", Username: "user"},
		DbtCloud:  models.DbtCloud{AccountID: "77", Host: "cloud.getdbt.com"},
	}, *cfg)
	assert.Empty(t, p.secrets)
}

func TestRenderOutcome(t *testing.T) {
	tests := []struct {
		name     string
		outcome  quickstart.Outcome
		expected []string
	}{
		{
			name:     "success",
			outcome:  quickstart.Outcome{Kind: quickstart.OutcomeSuccess},
			expected: []string{"Success!"},
		},
		{
			name:     "validation",
			outcome:  quickstart.Outcome{Kind: quickstart.OutcomeValidationError, Detail: "Snowflake account is required"},
			expected: []string{"Snowflake account is required"},
		},
		{
			name:     "remote with tip",
			outcome:  quickstart.Outcome{Kind: quickstart.OutcomeRemoteServiceFailure, Detail: `dbt Cloud project "x" already exists in your account!`},
			expected: []string{"dbt Cloud failure!", "TIP:", "Delete the existing project"},
		},
		{
			name:     "warehouse",
			outcome:  quickstart.Outcome{Kind: quickstart.OutcomeWarehouseFailure, Detail: "Incorrect username or password was specified"},
			expected: []string{"Snowflake failure!", "Check the Snowflake username and password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			RenderOutcome(&buf, tt.outcome)
			for _, s := range tt.expected {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestRenderReport(t *testing.T) {
	report := &quickstart.Report{
		RunID:    "run-1",
		Duration: 1500 * time.Millisecond,
		Projects: []quickstart.ProjectResult{
			{
				Spec:                     quickstart.FoundationalProject,
				ConnectionID:             1,
				ProjectID:                2,
				RepositoryID:             3,
				RepositoryName:           "repo-1700000000",
				CredentialsID:            4,
				ProductionEnvironmentID:  1001,
				DevelopmentEnvironmentID: 1002,
				Completed:                true,
			},
			{
				Spec:         quickstart.FinanceProject,
				ConnectionID: 5,
				ProjectID:    6,
			},
		},
	}

	var buf bytes.Buffer
	RenderReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "SFQuickstart: Foundational Project")
	assert.Contains(t, out, "3 (repo-1700000000)")
	assert.Contains(t, out, "1001, 1002")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "1.5s")
}

func TestRenderReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderReport(&buf, nil)
	RenderReport(&buf, &quickstart.Report{})
	assert.Empty(t, buf.String())
}

func TestRenderStatements(t *testing.T) {
	var buf bytes.Buffer
	stmts := make([]string, 12)
	for i := range stmts {
		stmts[i] = "select 1;"
	}

	RenderStatements(&buf, stmts)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 12)
	assert.Equal(t, " 1  select 1;", lines[0])
	assert.Equal(t, "12  select 1;", lines[11])
}

func TestSpinnerStop(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Running...")
	s.interval = time.Millisecond
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.UpdateMessage("Running... setting up Snowflake")
	s.Stop(true, "Success!")
	s.Stop(false, "ignored")

	out := buf.String()
	assert.Contains(t, out, "✓ Success!")
	assert.NotContains(t, out, "ignored")
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Running...")
	s.Stop(false, "Failure!")
	assert.Equal(t, "✗ Failure!\n", buf.String())
}

func TestStageMessage(t *testing.T) {
	assert.Equal(t, "Running...", StageMessage(quickstart.StageIdle, ""))
	assert.Equal(t, "Running... setting up Snowflake", StageMessage(quickstart.StageWarehouseProvisioning, ""))
	assert.Equal(t, "Running... creating SFQuickstart: Finance Project",
		StageMessage(quickstart.StageRemoteServiceSetup, quickstart.FinanceProject.Name))
}

func TestShowError(t *testing.T) {
	var buf bytes.Buffer
	ShowError(&buf, stderrors.New("connection refused\nsecond line"))

	out := buf.String()
	assert.Contains(t, out, "ERROR: connection refused")
	assert.Contains(t, out, "  second line")
	assert.Contains(t, out, "Verify the host name")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{500 * time.Millisecond, "500ms"},
		{45 * time.Second, "45.0s"},
		{3*time.Minute + 30*time.Second, "3m30s"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatDuration(tt.duration))
	}
}

func TestPromptRequestOffersDefaultHost(t *testing.T) {
	p := &fakePrompter{}
	req := quickstart.Request{}

	require.NoError(t, PromptRequest(p, &req))

	assert.Len(t, p.asked, 6)
	assert.Equal(t, []string{"Snowflake password:", "dbt Cloud service token:"}, p.secrets)
	assert.Equal(t, "cloud.getdbt.com", req.ServiceHost)
}
