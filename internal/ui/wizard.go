package ui

import (
	"meshdrop/internal/dbtcloud"
	"meshdrop/internal/quickstart"
	"meshdrop/pkg/models"
)

type question struct {
	field   string
	message string
	help    string
	secret  bool
	def     string
	value   *string
}

// PromptRequest asks for every field of req that is still empty. Secrets use
// masked prompts.
func PromptRequest(p Prompter, req *quickstart.Request) error {
	questions := []question{
		{quickstart.FieldWarehouseAccount, "Snowflake account:", "Account identifier, e.g. xy12345.us-east-1", false, "", &req.WarehouseAccount},
		{quickstart.FieldWarehouseUser, "Snowflake username:", "A user that can assume ACCOUNTADMIN", false, "", &req.WarehouseUser},
		{quickstart.FieldWarehousePassword, "Snowflake password:", "", true, "", &req.WarehousePassword},
		{quickstart.FieldServiceToken, "dbt Cloud service token:", "A service token with account admin permissions", true, "", &req.ServiceToken},
		{quickstart.FieldServiceAccountID, "dbt Cloud account ID:", "The number after /accounts/ in your dbt Cloud URL", false, "", &req.ServiceAccountID},
		{quickstart.FieldServiceHost, "dbt Cloud host:", "Leave the default unless your account is in another region", false, dbtcloud.DefaultHost, &req.ServiceHost},
	}

	for _, q := range questions {
		if *q.value != "" {
			continue
		}
		var (
			answer string
			err    error
		)
		if q.secret {
			answer, err = p.Password(q.message, q.help)
		} else {
			answer, err = p.Input(q.message, q.def, q.help)
		}
		if err != nil {
			return err
		}
		*q.value = answer
	}
	return nil
}

// PromptDefaults asks for the non-secret defaults stored by init, offering
// the current values.
func PromptDefaults(p Prompter, current models.Config, defaultHost string) (*models.Config, error) {
	cfg := current
	if cfg.DbtCloud.Host == "" {
		cfg.DbtCloud.Host = defaultHost
	}

	fields := []struct {
		message string
		help    string
		value   *string
	}{
		{"Snowflake account:", "Account identifier, e.g. xy12345.us-east-1", &cfg.Snowflake.Account},
		{"Snowflake username:", "A user that can assume ACCOUNTADMIN", &cfg.Snowflake.Username},
		{"dbt Cloud account ID:", "The number after /accounts/ in your dbt Cloud URL", &cfg.DbtCloud.AccountID},
		{"dbt Cloud host:", "", &cfg.DbtCloud.Host},
	}

	for _, f := range fields {
		answer, err := p.Input(f.message, *f.value, f.help)
		if err != nil {
			return nil, err
		}
		*f.value = answer
	}
	return &cfg, nil
}
