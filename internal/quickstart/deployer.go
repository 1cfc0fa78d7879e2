package quickstart

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"meshdrop/internal/dbtcloud"
	"meshdrop/internal/observability"
	"meshdrop/internal/snowflake"
	"meshdrop/pkg/errors"
)

// Stage is the orchestrator's position in a deploy
type Stage string

const (
	StageIdle                  Stage = "idle"
	StageWarehouseProvisioning Stage = "warehouse-provisioning"
	StageRemoteServiceSetup    Stage = "remote-service-setup"
	StageDone                  Stage = "done"
	StageFailed                Stage = "failed"
)

// WarehouseProvisioner prepares the Snowflake side of the quickstart
type WarehouseProvisioner interface {
	Provision(ctx context.Context, creds snowflake.Credentials) error
}

// ClientFactory builds the dbt Cloud client for a deploy
type ClientFactory func(cfg dbtcloud.ClientConfig) (Client, error)

// StageFunc observes stage transitions. project is set during remote setup.
type StageFunc func(stage Stage, project string)

// Report lists what a deploy created, including partial results of a failed
// project run.
type Report struct {
	RunID    string
	Projects []ProjectResult
	Duration time.Duration
}

// Deployer runs the whole quickstart: Snowflake first, then each dbt Cloud
// project in order.
type Deployer struct {
	warehouse  WarehouseProvisioner
	newClient  ClientFactory
	httpClient *http.Client
	projects   []ProjectSpec
	logger     *observability.Logger
	onStage    StageFunc
	now        func() time.Time
	userAgent  string
}

// Option configures a Deployer
type Option func(*Deployer)

// WithLogger sets the logger
func WithLogger(logger *observability.Logger) Option {
	return func(d *Deployer) { d.logger = logger }
}

// WithClientFactory replaces how the dbt Cloud client is built
func WithClientFactory(factory ClientFactory) Option {
	return func(d *Deployer) { d.newClient = factory }
}

// WithHTTPClient sets the HTTP client handed to the dbt Cloud client
func WithHTTPClient(client *http.Client) Option {
	return func(d *Deployer) { d.httpClient = client }
}

// WithStageFunc registers a stage observer
func WithStageFunc(fn StageFunc) Option {
	return func(d *Deployer) { d.onStage = fn }
}

// WithClock sets the clock used for repository names
func WithClock(now func() time.Time) Option {
	return func(d *Deployer) { d.now = now }
}

// WithUserAgent sets the User-Agent of dbt Cloud requests
func WithUserAgent(ua string) Option {
	return func(d *Deployer) { d.userAgent = ua }
}

// WithProjects replaces the projects to set up
func WithProjects(projects ...ProjectSpec) Option {
	return func(d *Deployer) { d.projects = projects }
}

// NewDeployer creates a deployer provisioning Snowflake through warehouse
func NewDeployer(warehouse WarehouseProvisioner, opts ...Option) *Deployer {
	d := &Deployer{
		warehouse: warehouse,
		projects:  DefaultProjects(),
		now:       time.Now,
	}
	d.newClient = func(cfg dbtcloud.ClientConfig) (Client, error) {
		c, err := dbtcloud.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = observability.NewNopLogger()
	}
	return d
}

// Deploy provisions Snowflake, then sets up every project in order. Failures
// are reported as a Snowflake error or a dbt Cloud error wrapping the cause;
// nothing is retried and nothing already created is removed. The report is
// never nil.
func (d *Deployer) Deploy(ctx context.Context, req Request) (*Report, error) {
	start := d.now()
	report := &Report{RunID: uuid.New().String()}
	log := d.logger.WithField("run_id", report.RunID)
	defer func() { report.Duration = d.now().Sub(start) }()

	d.stage(StageIdle, "")
	account := NormalizeAccount(req.WarehouseAccount)

	d.stage(StageWarehouseProvisioning, "")
	err := d.warehouse.Provision(ctx, snowflake.Credentials{
		Account:  account,
		Username: req.WarehouseUser,
		Password: req.WarehousePassword,
	})
	if err != nil {
		d.stage(StageFailed, "")
		log.ErrorWithFields("Snowflake setup failed", map[string]interface{}{"error": err.Error()})
		return report, WarehouseError(err)
	}

	client, err := d.newClient(dbtcloud.ClientConfig{
		Host:       req.ServiceHost,
		Token:      req.ServiceToken,
		BasePath:   dbtcloud.DefaultBasePath,
		HTTPClient: d.httpClient,
		UserAgent:  d.userAgent,
	})
	if err != nil {
		d.stage(StageFailed, "")
		return report, RemoteServiceError(err)
	}

	pipeline := NewPipeline(client, log)
	pipeline.now = d.now
	req.WarehouseAccount = account

	for _, spec := range d.projects {
		d.stage(StageRemoteServiceSetup, spec.Name)
		result, err := pipeline.Setup(ctx, req, spec)
		if result != nil {
			report.Projects = append(report.Projects, *result)
		}
		if err != nil {
			d.stage(StageFailed, spec.Name)
			log.ErrorWithFields("dbt Cloud setup failed", map[string]interface{}{
				"project": spec.Name,
				"error":   err.Error(),
			})
			return report, RemoteServiceError(err)
		}
	}

	d.stage(StageDone, "")
	log.Info("Quickstart deploy complete")
	return report, nil
}

func (d *Deployer) stage(stage Stage, project string) {
	if d.onStage != nil {
		d.onStage(stage, project)
	}
}

// WarehouseError classifies err as a Snowflake failure
func WarehouseError(err error) error {
	return errors.Wrap(err, errors.ErrCodeWarehouse, "Snowflake setup failed")
}

// RemoteServiceError classifies err as a dbt Cloud failure
func RemoteServiceError(err error) error {
	return errors.Wrap(err, errors.ErrCodeRemoteService, "dbt Cloud setup failed")
}

// IsWarehouseError reports whether err is a Snowflake failure
func IsWarehouseError(err error) bool {
	return errors.HasCode(err, errors.ErrCodeWarehouse)
}

// IsRemoteServiceError reports whether err is a dbt Cloud failure
func IsRemoteServiceError(err error) bool {
	return errors.HasCode(err, errors.ErrCodeRemoteService)
}

// IsProjectAlreadyExists reports whether err was caused by an existing project
func IsProjectAlreadyExists(err error) bool {
	return errors.HasCode(err, errors.ErrCodeProjectAlreadyExists)
}
