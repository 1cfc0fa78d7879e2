package quickstart

// ProjectSpec names a dbt Cloud project and the Snowflake objects it runs against
type ProjectSpec struct {
	Name      string
	Database  string
	Warehouse string
	Role      string
}

// ProjectDescription is attached to every project the quickstart creates
const ProjectDescription = `Project created for the "Build Data Products and a Data Mesh with dbt Cloud" Snowflake Quickstart guide`

var (
	FoundationalProject = ProjectSpec{
		Name:      "SFQuickstart: Foundational Project",
		Database:  "foundational_db",
		Warehouse: "foundational_wh",
		Role:      "foundational_role",
	}

	// FinanceProject depends on FoundationalProject: its role is granted usage
	// on foundational_db.
	FinanceProject = ProjectSpec{
		Name:      "SFQuickstart: Finance Project",
		Database:  "finance_db",
		Warehouse: "finance_wh",
		Role:      "finance_role",
	}
)

// DefaultProjects is the order projects are set up in
func DefaultProjects() []ProjectSpec {
	return []ProjectSpec{FoundationalProject, FinanceProject}
}
