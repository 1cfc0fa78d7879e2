package dbtcloud

import (
	"bytes"
	"encoding/json"
	"fmt"

	"meshdrop/pkg/errors"
)

// Status is the status block of every API envelope
type Status struct {
	Code             int    `json:"code"`
	IsSuccess        bool   `json:"is_success"`
	UserMessage      string `json:"user_message"`
	DeveloperMessage string `json:"developer_message"`
}

// Response is the {status, data} envelope returned by every call. RawStatus
// keeps the status block exactly as received, including fields Status does
// not model.
type Response struct {
	Status     Status
	RawStatus  json.RawMessage
	Data       json.RawMessage
	HTTPStatus int
}

// UnmarshalJSON decodes the envelope and keeps the raw status block
func (r *Response) UnmarshalJSON(b []byte) error {
	var env struct {
		Status json.RawMessage `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	r.RawStatus = env.Status
	r.Data = env.Data
	if len(env.Status) > 0 && !bytes.Equal(env.Status, []byte("null")) {
		if err := json.Unmarshal(env.Status, &r.Status); err != nil {
			return fmt.Errorf("decode status: %w", err)
		}
	}
	return nil
}

// ID decodes data.id
func (r *Response) ID() (int64, error) {
	var data struct {
		ID *int64 `json:"id"`
	}
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeRemoteResponseMalformed, "Response data is not an object")
	}
	if data.ID == nil {
		return 0, errors.New(errors.ErrCodeRemoteResponseMalformed, "Response data has no id").
			WithContext("data", truncate(r.Data, 200))
	}
	return *data.ID, nil
}

// Names decodes the name of every element of a list response
func (r *Response) Names() ([]string, error) {
	var items []struct {
		Name string `json:"name"`
	}
	if len(r.Data) == 0 || bytes.Equal(r.Data, []byte("null")) {
		return nil, nil
	}
	if err := json.Unmarshal(r.Data, &items); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteResponseMalformed, "Response data is not a list")
	}
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names, nil
}

// AdapterSnowflake is the connection adapter version for Snowflake
const AdapterSnowflake = "snowflake_v0"

// ConnectionConfig is the Snowflake-specific part of a connection
type ConnectionConfig struct {
	Account   string `json:"account"`
	Database  string `json:"database"`
	Warehouse string `json:"warehouse"`
	Role      string `json:"role"`
}

// ConnectionRequest is the body of a create-connection call
type ConnectionRequest struct {
	Name           string           `json:"name"`
	AccountID      int64            `json:"account_id"`
	AdapterVersion string           `json:"adapter_version"`
	Config         ConnectionConfig `json:"config"`
}

// ProjectRequest is the body of create-project and update-project calls
type ProjectRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	RepositoryID *int64 `json:"repository_id,omitempty"`
}

// RepositoryRequest is the body of a create-managed-repository call
type RepositoryRequest struct {
	Name string `json:"name"`
}

// CredentialsRequest is the body of a create-credentials call
type CredentialsRequest struct {
	Type      string `json:"type"`
	User      string `json:"user"`
	Password  string `json:"password"`
	Schema    string `json:"schema"`
	State     int    `json:"state"`
	Threads   int    `json:"threads"`
	AuthType  string `json:"auth_type"`
	Role      string `json:"role"`
	Database  string `json:"database"`
	Warehouse string `json:"warehouse"`
}

// Environment types
const (
	EnvironmentTypeDeployment  = "deployment"
	EnvironmentTypeDevelopment = "development"

	DeploymentTypeProduction = "production"

	// VersionlessDbt tracks the latest dbt release
	VersionlessDbt = "versionless"
)

// EnvironmentRequest is the body of a create-environment call
type EnvironmentRequest struct {
	ConnectionID    int64  `json:"connection_id"`
	CredentialsID   int64  `json:"credentials_id"`
	Name            string `json:"name"`
	DbtVersion      string `json:"dbt_version"`
	Type            string `json:"type"`
	DeploymentType  string `json:"deployment_type,omitempty"`
	UseCustomBranch bool   `json:"use_custom_branch"`
	SupportsDocs    bool   `json:"supports_docs"`
}
