package quickstart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshdrop/pkg/errors"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(r *Request)
		field   string
		message string
	}{
		{
			name:   "valid",
			modify: func(r *Request) {},
		},
		{
			name:    "missing account",
			modify:  func(r *Request) { r.WarehouseAccount = "" },
			field:   FieldWarehouseAccount,
			message: "Snowflake account is required",
		},
		{
			name:    "blank username",
			modify:  func(r *Request) { r.WarehouseUser = "   " },
			field:   FieldWarehouseUser,
			message: "Snowflake username is required",
		},
		{
			name:    "missing password",
			modify:  func(r *Request) { r.WarehousePassword = "" },
			field:   FieldWarehousePassword,
			message: "Snowflake password is required",
		},
		{
			name:    "missing token",
			modify:  func(r *Request) { r.ServiceToken = "" },
			field:   FieldServiceToken,
			message: "dbt Cloud service token is required",
		},
		{
			name:    "missing account id",
			modify:  func(r *Request) { r.ServiceAccountID = "" },
			field:   FieldServiceAccountID,
			message: "dbt Cloud account ID is required",
		},
		{
			name:    "missing host",
			modify:  func(r *Request) { r.ServiceHost = "" },
			field:   FieldServiceHost,
			message: "dbt Cloud host is required",
		},
		{
			name:    "non numeric account id",
			modify:  func(r *Request) { r.ServiceAccountID = "12a" },
			field:   FieldServiceAccountID,
			message: "dbt Cloud account ID must be an integer",
		},
		{
			name: "first missing field wins",
			modify: func(r *Request) {
				r.WarehousePassword = ""
				r.ServiceHost = ""
			},
			field:   FieldWarehousePassword,
			message: "Snowflake password is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest("cloud.getdbt.com")
			tt.modify(&req)

			err := req.Validate()

			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.field, errors.FieldOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestRequestAccountIDTrimsWhitespace(t *testing.T) {
	req := validRequest("cloud.getdbt.com")
	req.ServiceAccountID = " 42 "

	id, err := req.accountID()

	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestNormalizeAccount(t *testing.T) {
	assert.Equal(t, "xy12345.us-east-1", NormalizeAccount(" xy12345.us-east-1\t"))
	assert.Equal(t, "ORG-ACCOUNT", NormalizeAccount("ORG-ACCOUNT"))
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "dbt Cloud host", FieldLabel(FieldServiceHost))
	assert.Equal(t, "unknown", FieldLabel("unknown"))
}

func TestDefaultProjectsOrder(t *testing.T) {
	projects := DefaultProjects()
	require.Len(t, projects, 2)
	assert.Equal(t, "SFQuickstart: Foundational Project", projects[0].Name)
	assert.Equal(t, "SFQuickstart: Finance Project", projects[1].Name)
	assert.Equal(t, "finance_role", projects[1].Role)
}
