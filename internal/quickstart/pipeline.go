package quickstart

import (
	"context"
	"fmt"
	"time"

	"meshdrop/internal/dbtcloud"
	"meshdrop/internal/observability"
	"meshdrop/pkg/errors"
)

// Client is the part of the dbt Cloud API the pipeline uses
type Client interface {
	ListProjects(ctx context.Context, accountID int64) (*dbtcloud.Response, error)
	CreateConnection(ctx context.Context, accountID int64, payload dbtcloud.ConnectionRequest) (*dbtcloud.Response, error)
	CreateProject(ctx context.Context, accountID int64, payload dbtcloud.ProjectRequest) (*dbtcloud.Response, error)
	UpdateProject(ctx context.Context, accountID, projectID int64, payload dbtcloud.ProjectRequest) (*dbtcloud.Response, error)
	CreateManagedRepository(ctx context.Context, accountID, projectID int64, payload dbtcloud.RepositoryRequest) (*dbtcloud.Response, error)
	CreateCredentials(ctx context.Context, accountID, projectID int64, payload dbtcloud.CredentialsRequest) (*dbtcloud.Response, error)
	CreateEnvironment(ctx context.Context, accountID, projectID int64, payload dbtcloud.EnvironmentRequest) (*dbtcloud.Response, error)
}

// Fixed credential and environment settings
const (
	CredentialsType     = "snowflake"
	CredentialsSchema   = "prod"
	CredentialsThreads  = 4
	CredentialsAuthType = "password"
	CredentialsState    = 1

	ProductionEnvironment  = "Production"
	DevelopmentEnvironment = "Development"
)

// ProjectResult collects the ids dbt Cloud assigned during one pipeline run.
// A zero id means the step did not complete.
type ProjectResult struct {
	Spec                     ProjectSpec
	ConnectionID             int64
	ProjectID                int64
	RepositoryID             int64
	RepositoryName           string
	CredentialsID            int64
	ProductionEnvironmentID  int64
	DevelopmentEnvironmentID int64
	Completed                bool
}

// Pipeline creates one dbt Cloud project wired to Snowflake
type Pipeline struct {
	client Client
	logger *observability.Logger
	now    func() time.Time
}

// NewPipeline creates a pipeline issuing its calls through client
func NewPipeline(client Client, logger *observability.Logger) *Pipeline {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Pipeline{client: client, logger: logger, now: time.Now}
}

// Setup runs the project steps in order. Every response is validated before
// its data is used and the first failure stops the run. Resources created
// before the failure are left in place and reported in the returned result.
func (p *Pipeline) Setup(ctx context.Context, req Request, spec ProjectSpec) (*ProjectResult, error) {
	result := &ProjectResult{Spec: spec}
	log := p.logger.WithField("project", spec.Name)
	log.Info("Setting up dbt Cloud project")

	accountID, err := req.accountID()
	if err != nil {
		return result, err
	}

	// The check and the create below are not atomic; a project created in
	// between by someone else is not detected.
	resp, err := p.call(log, "list projects", func() (*dbtcloud.Response, error) {
		return p.client.ListProjects(ctx, accountID)
	})
	if err != nil {
		return result, err
	}
	existing, err := resp.Names()
	if err != nil {
		return result, fmt.Errorf("list projects: %w", err)
	}
	for _, name := range existing {
		if name == spec.Name {
			return result, errors.New(errors.ErrCodeProjectAlreadyExists,
				fmt.Sprintf("dbt Cloud project %q already exists in your account! Please delete it within dbt Cloud before running this again", spec.Name)).
				WithContext("project", spec.Name)
		}
	}

	if result.ConnectionID, err = p.create(log, "create connection", func() (*dbtcloud.Response, error) {
		return p.client.CreateConnection(ctx, accountID, dbtcloud.ConnectionRequest{
			Name:           spec.Name,
			AccountID:      accountID,
			AdapterVersion: dbtcloud.AdapterSnowflake,
			Config: dbtcloud.ConnectionConfig{
				Account:   NormalizeAccount(req.WarehouseAccount),
				Database:  spec.Database,
				Warehouse: spec.Warehouse,
				Role:      spec.Role,
			},
		})
	}); err != nil {
		return result, err
	}

	if result.ProjectID, err = p.create(log, "create project", func() (*dbtcloud.Response, error) {
		return p.client.CreateProject(ctx, accountID, dbtcloud.ProjectRequest{
			Name:        spec.Name,
			Description: ProjectDescription,
		})
	}); err != nil {
		return result, err
	}

	result.RepositoryName = fmt.Sprintf("repo-%d", p.now().Unix())
	if result.RepositoryID, err = p.create(log, "create managed repository", func() (*dbtcloud.Response, error) {
		return p.client.CreateManagedRepository(ctx, accountID, result.ProjectID, dbtcloud.RepositoryRequest{
			Name: result.RepositoryName,
		})
	}); err != nil {
		return result, err
	}

	repositoryID := result.RepositoryID
	if _, err = p.call(log, "attach repository", func() (*dbtcloud.Response, error) {
		return p.client.UpdateProject(ctx, accountID, result.ProjectID, dbtcloud.ProjectRequest{
			Name:         spec.Name,
			Description:  ProjectDescription,
			RepositoryID: &repositoryID,
		})
	}); err != nil {
		return result, err
	}

	if result.CredentialsID, err = p.create(log, "create credentials", func() (*dbtcloud.Response, error) {
		return p.client.CreateCredentials(ctx, accountID, result.ProjectID, dbtcloud.CredentialsRequest{
			Type:      CredentialsType,
			User:      req.WarehouseUser,
			Password:  req.WarehousePassword,
			Schema:    CredentialsSchema,
			State:     CredentialsState,
			Threads:   CredentialsThreads,
			AuthType:  CredentialsAuthType,
			Role:      spec.Role,
			Database:  spec.Database,
			Warehouse: spec.Warehouse,
		})
	}); err != nil {
		return result, err
	}

	if result.ProductionEnvironmentID, err = p.create(log, "create production environment", func() (*dbtcloud.Response, error) {
		return p.client.CreateEnvironment(ctx, accountID, result.ProjectID, productionEnvironment(result))
	}); err != nil {
		return result, err
	}

	if result.DevelopmentEnvironmentID, err = p.create(log, "create development environment", func() (*dbtcloud.Response, error) {
		return p.client.CreateEnvironment(ctx, accountID, result.ProjectID, developmentEnvironment(result))
	}); err != nil {
		return result, err
	}

	result.Completed = true
	log.InfoWithFields("dbt Cloud project ready", map[string]interface{}{
		"project_id": result.ProjectID,
	})
	return result, nil
}

func productionEnvironment(result *ProjectResult) dbtcloud.EnvironmentRequest {
	return dbtcloud.EnvironmentRequest{
		ConnectionID:    result.ConnectionID,
		CredentialsID:   result.CredentialsID,
		Name:            ProductionEnvironment,
		DbtVersion:      dbtcloud.VersionlessDbt,
		Type:            dbtcloud.EnvironmentTypeDeployment,
		DeploymentType:  dbtcloud.DeploymentTypeProduction,
		UseCustomBranch: false,
		SupportsDocs:    true,
	}
}

func developmentEnvironment(result *ProjectResult) dbtcloud.EnvironmentRequest {
	return dbtcloud.EnvironmentRequest{
		ConnectionID:    result.ConnectionID,
		CredentialsID:   result.CredentialsID,
		Name:            DevelopmentEnvironment,
		DbtVersion:      dbtcloud.VersionlessDbt,
		Type:            dbtcloud.EnvironmentTypeDevelopment,
		UseCustomBranch: false,
		SupportsDocs:    false,
	}
}

// call performs one API call and validates its response
func (p *Pipeline) call(log *observability.Logger, step string, fn func() (*dbtcloud.Response, error)) (*dbtcloud.Response, error) {
	start := time.Now()
	resp, err := fn()
	if err == nil {
		err = dbtcloud.ValidateResponse(resp)
	}
	if err != nil {
		log.ErrorWithFields(step+" failed", map[string]interface{}{
			"step":  step,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	log.InfoWithFields(step, map[string]interface{}{
		"step":        step,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return resp, nil
}

// create performs a call whose response carries the id of a new resource
func (p *Pipeline) create(log *observability.Logger, step string, fn func() (*dbtcloud.Response, error)) (int64, error) {
	resp, err := p.call(log, step, fn)
	if err != nil {
		return 0, err
	}
	id, err := resp.ID()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", step, err)
	}
	log.InfoWithFields(step+" assigned id", map[string]interface{}{"step": step, "id": id})
	return id, nil
}
