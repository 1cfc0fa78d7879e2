package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sf "github.com/snowflakedb/gosnowflake"

	"meshdrop/pkg/errors"
)

// LoginTimeout bounds how long opening an administrative session may take.
const LoginTimeout = 10 * time.Second

// Credentials identify the administrative user of a Snowflake account
type Credentials struct {
	Account  string
	Username string
	Password string
}

// Session is a single administrative connection. Statements run in order on
// the same underlying connection, so session state such as the current role
// carries from one statement to the next.
type Session interface {
	Exec(ctx context.Context, statement string) error
	Close() error
}

// Connector opens administrative sessions
type Connector interface {
	Connect(ctx context.Context, creds Credentials) (Session, error)
}

// ValidateCredentials checks that every credential field is present
func ValidateCredentials(creds Credentials) error {
	if creds.Account == "" {
		return errors.RequiredFieldError("account")
	}
	if creds.Username == "" {
		return errors.RequiredFieldError("username")
	}
	if creds.Password == "" {
		return errors.RequiredFieldError("password")
	}
	return nil
}

// SnowflakeConnector opens sessions through the gosnowflake driver
type SnowflakeConnector struct {
	// Application is reported to Snowflake as the client application name.
	Application string
}

// NewSnowflakeConnector creates a connector that identifies itself as application
func NewSnowflakeConnector(application string) *SnowflakeConnector {
	return &SnowflakeConnector{Application: application}
}

// DSN builds the gosnowflake data source name for creds
func (c *SnowflakeConnector) DSN(creds Credentials) (string, error) {
	cfg := &sf.Config{
		Account:      creds.Account,
		User:         creds.Username,
		Password:     creds.Password,
		LoginTimeout: LoginTimeout,
		Application:  c.Application,
	}
	dsn, err := sf.DSN(cfg)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeConnectionFailed, "Failed to build Snowflake DSN").
			WithContext("account", creds.Account)
	}
	return dsn, nil
}

// Connect opens the database and pins a single connection from it
func (c *SnowflakeConnector) Connect(ctx context.Context, creds Credentials) (Session, error) {
	dsn, err := c.DSN(creds)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, errors.ConnectionError("Failed to open Snowflake connection", err).
			WithContext("account", creds.Account)
	}

	session, err := OpenSession(ctx, db)
	if err != nil {
		_ = db.Close()
		if strings.Contains(strings.ToLower(err.Error()), "incorrect username or password") {
			return nil, errors.Wrap(err, errors.ErrCodeAuthenticationFailed, "Authentication failed").
				WithContext("user", creds.Username).
				WithSuggestions(
					"Verify your username and password",
					"Check if your account is locked",
				)
		}
		return nil, errors.ConnectionError("Failed to connect to Snowflake", err).
			WithContext("account", creds.Account)
	}
	return session, nil
}

// OpenSession pins one connection of db for the lifetime of the session.
// Closing the session closes db as well.
func OpenSession(ctx context.Context, db *sql.DB) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, LoginTimeout)
	defer cancel()

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlSession{db: db, conn: conn}, nil
}

type sqlSession struct {
	db   *sql.DB
	conn *sql.Conn
}

func (s *sqlSession) Exec(ctx context.Context, statement string) error {
	_, err := s.conn.ExecContext(ctx, statement)
	return err
}

func (s *sqlSession) Close() error {
	connErr := s.conn.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	if connErr != nil {
		return fmt.Errorf("failed to release connection: %w", connErr)
	}
	return nil
}
