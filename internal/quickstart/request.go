package quickstart

import (
	"strconv"
	"strings"

	"meshdrop/pkg/errors"
)

// Input field names, as reported by validation errors
const (
	FieldWarehouseAccount  = "snowflake_account"
	FieldWarehouseUser     = "snowflake_username"
	FieldWarehousePassword = "snowflake_password"
	FieldServiceToken      = "dbt_cloud_service_token"
	FieldServiceAccountID  = "dbt_cloud_account_id"
	FieldServiceHost       = "dbt_cloud_host"
)

var fieldLabels = map[string]string{
	FieldWarehouseAccount:  "Snowflake account",
	FieldWarehouseUser:     "Snowflake username",
	FieldWarehousePassword: "Snowflake password",
	FieldServiceToken:      "dbt Cloud service token",
	FieldServiceAccountID:  "dbt Cloud account ID",
	FieldServiceHost:       "dbt Cloud host",
}

// FieldLabel returns the human readable name of an input field
func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// Request holds the six inputs of one deploy. It is not modified by a run.
type Request struct {
	WarehouseAccount  string
	WarehouseUser     string
	WarehousePassword string
	ServiceToken      string
	ServiceAccountID  string
	ServiceHost       string
}

// Validate checks that every field is present and that the account ID is an
// integer. The first problem found is returned.
func (r Request) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{FieldWarehouseAccount, r.WarehouseAccount},
		{FieldWarehouseUser, r.WarehouseUser},
		{FieldWarehousePassword, r.WarehousePassword},
		{FieldServiceToken, r.ServiceToken},
		{FieldServiceAccountID, r.ServiceAccountID},
		{FieldServiceHost, r.ServiceHost},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return errors.New(errors.ErrCodeRequiredField, FieldLabel(f.field)+" is required").
				WithContext("field", f.field).
				WithSeverity(errors.SeverityWarning)
		}
	}
	if _, err := r.accountID(); err != nil {
		return err
	}
	return nil
}

func (r Request) accountID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.ServiceAccountID), 10, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeValidationFailed, FieldLabel(FieldServiceAccountID)+" must be an integer").
			WithContext("field", FieldServiceAccountID).
			WithContext("value", r.ServiceAccountID).
			WithSeverity(errors.SeverityWarning)
	}
	return id, nil
}

// NormalizeAccount is the hook for checking the Snowflake account identifier.
// It only trims surrounding whitespace for now.
func NormalizeAccount(account string) string {
	return strings.TrimSpace(account)
}
