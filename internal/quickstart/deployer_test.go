package quickstart

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshdrop/internal/dbtcloud"
	"meshdrop/internal/observability"
	"meshdrop/internal/snowflake"
	"meshdrop/internal/testutil"
	"meshdrop/pkg/errors"
)

type deployFixture struct {
	log       *testutil.CallLog
	warehouse *testutil.MockWarehouse
	cloud     *testutil.FakeCloud
	stages    []string
	deployer  *Deployer
}

func newDeployFixture(t *testing.T, opts ...Option) *deployFixture {
	t.Helper()
	f := &deployFixture{
		log:       &testutil.CallLog{},
		warehouse: testutil.NewMockWarehouse(),
		cloud:     testutil.NewFakeCloud(t),
	}
	f.warehouse.Log = f.log
	f.cloud.Log = f.log

	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithStageFunc(func(stage Stage, project string) {
			f.stages = append(f.stages, strings.TrimSuffix(string(stage)+":"+project, ":"))
		}),
	}
	f.deployer = NewDeployer(snowflake.NewProvisioner(f.warehouse, nil), append(base, opts...)...)
	return f
}

func TestDeployEndToEnd(t *testing.T) {
	f := newDeployFixture(t)

	report, err := f.deployer.Deploy(context.Background(), validRequest(f.cloud.URL()))

	require.NoError(t, err)
	require.Len(t, report.Projects, 2)
	assert.NotEmpty(t, report.RunID)

	foundational, finance := report.Projects[0], report.Projects[1]
	assert.Equal(t, FoundationalProject, foundational.Spec)
	assert.Equal(t, []int64{1, 2, 3, 4}, []int64{
		foundational.ConnectionID, foundational.ProjectID, foundational.RepositoryID, foundational.CredentialsID,
	})
	assert.Equal(t, FinanceProject, finance.Spec)
	assert.Equal(t, []int64{5, 6, 7, 8}, []int64{
		finance.ConnectionID, finance.ProjectID, finance.RepositoryID, finance.CredentialsID,
	})
	assert.True(t, foundational.Completed)
	assert.True(t, finance.Completed)

	assert.Equal(t, []string{
		"idle",
		"warehouse-provisioning",
		"remote-service-setup:" + FoundationalProject.Name,
		"remote-service-setup:" + FinanceProject.Name,
		"done",
	}, f.stages)
}

func TestDeployCallOrder(t *testing.T) {
	f := newDeployFixture(t)

	_, err := f.deployer.Deploy(context.Background(), validRequest(f.cloud.URL()))
	require.NoError(t, err)

	var expected []string
	expected = append(expected, "snowflake:connect")
	for range snowflake.Statements("QUICKSTART") {
		expected = append(expected, "snowflake:exec")
	}
	expected = append(expected, "snowflake:close")
	for i := 0; i < 2; i++ {
		for _, op := range projectSteps {
			expected = append(expected, "dbtcloud:"+op)
		}
	}
	assert.Equal(t, expected, f.log.Entries())
	assert.Len(t, f.cloud.Requests, 2*len(projectSteps))

	assert.Equal(t, snowflake.Statements("QUICKSTART"), f.warehouse.Statements())
	assert.Equal(t, snowflake.Credentials{
		Account:  "xy12345.us-east-1",
		Username: "QUICKSTART",
		Password: "s3cret",
	}, f.warehouse.LastCredentials)
}

func TestDeployNormalizesAccount(t *testing.T) {
	f := newDeployFixture(t)
	req := validRequest(f.cloud.URL())
	req.WarehouseAccount = "  xy12345.us-east-1\n"

	_, err := f.deployer.Deploy(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "xy12345.us-east-1", f.warehouse.LastCredentials.Account)
	conn := f.cloud.RequestsFor(testutil.OpCreateConnection)[0].Body["config"].(map[string]interface{})
	assert.Equal(t, "xy12345.us-east-1", conn["account"])
}

func TestDeployWarehouseFailureSkipsRemoteService(t *testing.T) {
	f := newDeployFixture(t)
	stmt := snowflake.Statements("QUICKSTART")[2]
	f.warehouse.FailStatement(stmt, fmt.Errorf("SQL compilation error"))

	report, err := f.deployer.Deploy(context.Background(), validRequest(f.cloud.URL()))

	require.Error(t, err)
	assert.True(t, IsWarehouseError(err))
	assert.False(t, IsRemoteServiceError(err))
	assert.True(t, errors.HasCode(err, errors.ErrCodeSQLExecution))
	assert.Empty(t, f.cloud.Operations())
	assert.Empty(t, report.Projects)
	assert.Len(t, f.warehouse.Statements(), 3)
	assert.Equal(t, 1, f.warehouse.Closes)
	assert.Equal(t, "failed", f.stages[len(f.stages)-1])
}

func TestDeployConnectFailure(t *testing.T) {
	f := newDeployFixture(t)
	f.warehouse.ConnectError = errors.ConnectionError("Failed to connect to Snowflake", fmt.Errorf("dial tcp: timeout"))

	_, err := f.deployer.Deploy(context.Background(), validRequest(f.cloud.URL()))

	require.Error(t, err)
	assert.True(t, IsWarehouseError(err))
	assert.True(t, errors.HasCode(err, errors.ErrCodeConnectionFailed))
	assert.Empty(t, f.cloud.Operations())
}

func TestDeployExistingFoundationalProject(t *testing.T) {
	f := newDeployFixture(t)
	f.cloud.Projects = []string{FoundationalProject.Name}

	report, err := f.deployer.Deploy(context.Background(), validRequest(f.cloud.URL()))

	require.Error(t, err)
	assert.True(t, IsRemoteServiceError(err))
	assert.True(t, IsProjectAlreadyExists(err))
	assert.Equal(t, []string{testutil.OpListProjects}, f.cloud.Operations())
	require.Len(t, report.Projects, 1)
	assert.False(t, report.Projects[0].Completed)
}

func TestDeployFinanceFailureKeepsFoundational(t *testing.T) {
	f := newDeployFixture(t)
	f.cloud.Projects = []string{FinanceProject.Name}

	report, err := f.deployer.Deploy(context.Background(), validRequest(f.cloud.URL()))

	require.Error(t, err)
	assert.True(t, IsProjectAlreadyExists(err))
	require.Len(t, report.Projects, 2)
	assert.True(t, report.Projects[0].Completed)
	assert.False(t, report.Projects[1].Completed)
	assert.Len(t, f.cloud.Requests, len(projectSteps)+1)
	assert.Equal(t, "failed:"+FinanceProject.Name, f.stages[len(f.stages)-1])
}

func TestDeployRemoteServerError(t *testing.T) {
	f := newDeployFixture(t)
	f.cloud.Fail(testutil.OpCreateRepository, http.StatusInternalServerError)

	_, err := f.deployer.Deploy(context.Background(), validRequest(f.cloud.URL()))

	require.Error(t, err)
	assert.True(t, IsRemoteServiceError(err))
	assert.True(t, errors.HasCode(err, errors.ErrCodeRemoteCallFailed))
	assert.Equal(t, projectSteps[:4], f.cloud.Operations())
}

func TestDeployClientFactoryFailure(t *testing.T) {
	f := newDeployFixture(t, WithClientFactory(func(cfg dbtcloud.ClientConfig) (Client, error) {
		return nil, fmt.Errorf("no client for %s", cfg.Host)
	}))

	_, err := f.deployer.Deploy(context.Background(), validRequest("cloud.example.com"))

	require.Error(t, err)
	assert.True(t, IsRemoteServiceError(err))
	assert.Contains(t, err.Error(), "no client for cloud.example.com")
	assert.Len(t, f.warehouse.Statements(), len(snowflake.Statements("QUICKSTART")))
}

func TestDeployUsesConfiguredClient(t *testing.T) {
	var got dbtcloud.ClientConfig
	f := newDeployFixture(t,
		WithUserAgent("meshdrop/test"),
		WithProjects(FinanceProject),
	)
	f.deployer.newClient = func(cfg dbtcloud.ClientConfig) (Client, error) {
		got = cfg
		c, err := dbtcloud.NewClient(cfg)
		require.NoError(t, err)
		return c, nil
	}

	report, err := f.deployer.Deploy(context.Background(), validRequest(f.cloud.URL()))

	require.NoError(t, err)
	require.Len(t, report.Projects, 1)
	assert.Equal(t, f.cloud.URL(), got.Host)
	assert.Equal(t, "dbtc_token", got.Token)
	assert.Equal(t, dbtcloud.DefaultBasePath, got.BasePath)
	assert.Equal(t, "meshdrop/test", got.UserAgent)
}

func TestDeployLogsRunIDWithoutSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LoggerConfig{
		Level:  observability.DebugLevel,
		Output: &buf,
	})
	f := newDeployFixture(t, WithLogger(logger))

	report, err := f.deployer.Deploy(context.Background(), validRequest(f.cloud.URL()))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, report.RunID)
	assert.Contains(t, out, FinanceProject.Name)
	assert.NotContains(t, out, "s3cret")
	assert.NotContains(t, out, "dbtc_token")
}
