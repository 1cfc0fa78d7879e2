package snowflake

import "strings"

// UsernamePlaceholder is replaced by the connecting user's name in GrantStatements.
const UsernamePlaceholder = "{snowflake_username}"

// FoundationalStatements creates the foundational database, warehouse and roles.
var FoundationalStatements = []string{
	"use role accountadmin;",

	"create database if not exists foundational_db;",
	"create schema if not exists foundational_db.prod;",
	"create or replace warehouse foundational_wh with warehouse_size = xsmall;",

	"create role if not exists foundational_role;",
	"create role if not exists foundational_pii_reader_role;",
	"grant role foundational_pii_reader_role to role foundational_role;",

	"grant usage on database foundational_db to role foundational_role;",
	"grant usage on schema foundational_db.prod to role foundational_role;",
	"grant usage on warehouse foundational_wh to role foundational_role;",
	"grant create schema on database foundational_db to role foundational_role;",
	"grant create table on schema foundational_db.prod to role foundational_role;",
	"grant create view on schema foundational_db.prod to role foundational_role;",

	"grant create tag on schema foundational_db.prod to role foundational_role;",
	"grant create masking policy on schema foundational_db.prod to role foundational_role;",
	"grant apply masking policy on account to role foundational_role;",
	"grant apply tag on account to role foundational_role;",
}

// FinanceStatements creates the finance database and role. The last two grants
// reference foundational_db, so these must run after FoundationalStatements.
var FinanceStatements = []string{
	"use role accountadmin;",

	"create database if not exists finance_db;",
	"create schema if not exists finance_db.prod;",
	"create or replace warehouse finance_wh with warehouse_size = xsmall;",

	"create role if not exists finance_role;",

	"grant usage on warehouse finance_wh to role finance_role;",
	"grant usage on database finance_db to role finance_role;",
	"grant usage on schema finance_db.prod to role finance_role;",
	"grant select on all tables in schema finance_db.prod to role finance_role;",

	"grant create schema on database finance_db to role finance_role;",
	"grant create table on schema finance_db.prod to role finance_role;",
	"grant create view on schema finance_db.prod to role finance_role;",

	"grant usage on database foundational_db to role finance_role;",
	"grant usage on schema foundational_db.prod to role finance_role;",
}

// GrantStatements hands the quickstart roles to the connecting user.
var GrantStatements = []string{
	"use role accountadmin;",

	"grant role foundational_role to user {snowflake_username};",
	"grant role foundational_pii_reader_role to user {snowflake_username};",
	"grant role finance_role to user {snowflake_username};",
}

// Statements returns the full provisioning batch for username: foundational,
// then finance, then grants, with every placeholder substituted.
func Statements(username string) []string {
	batch := make([]string, 0, len(FoundationalStatements)+len(FinanceStatements)+len(GrantStatements))
	batch = append(batch, FoundationalStatements...)
	batch = append(batch, FinanceStatements...)
	for _, stmt := range GrantStatements {
		batch = append(batch, strings.ReplaceAll(stmt, UsernamePlaceholder, username))
	}
	return batch
}
