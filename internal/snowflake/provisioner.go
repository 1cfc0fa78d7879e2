package snowflake

import (
	"context"
	"fmt"

	"meshdrop/internal/observability"
	"meshdrop/pkg/errors"
)

// Provisioner creates the quickstart databases, warehouses, roles and grants
type Provisioner struct {
	connector Connector
	logger    *observability.Logger
}

// NewProvisioner creates a provisioner that opens sessions through connector
func NewProvisioner(connector Connector, logger *observability.Logger) *Provisioner {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Provisioner{connector: connector, logger: logger}
}

// Provision opens one session and runs the whole statement batch. The first
// failing statement aborts the batch. The session is closed on every path.
func (p *Provisioner) Provision(ctx context.Context, creds Credentials) (err error) {
	if err := ValidateCredentials(creds); err != nil {
		return err
	}

	log := p.logger.WithFields(map[string]interface{}{
		"account": creds.Account,
		"user":    creds.Username,
	})
	log.Info("Setting up Snowflake")

	session, err := p.connector.Connect(ctx, creds)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, errors.ErrCodeConnectionFailed, "Failed to close Snowflake session")
		}
	}()

	statements := Statements(creds.Username)
	for i, stmt := range statements {
		if execErr := session.Exec(ctx, stmt); execErr != nil {
			log.ErrorWithFields("statement failed", map[string]interface{}{
				"statement_index": i + 1,
				"error":           execErr.Error(),
			})
			return errors.SQLError(fmt.Sprintf("Failed to execute statement %d", i+1), stmt, execErr).
				WithContext("statement_index", i+1).
				WithContext("total_statements", len(statements))
		}
	}

	log.InfoWithFields("Snowflake setup complete", map[string]interface{}{
		"statements": len(statements),
	})
	return nil
}
