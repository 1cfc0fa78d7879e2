package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
)

// Operations recognised by FakeCloud
const (
	OpListProjects      = "list-projects"
	OpCreateConnection  = "create-connection"
	OpCreateProject     = "create-project"
	OpCreateRepository  = "create-repository"
	OpUpdateProject     = "update-project"
	OpCreateCredentials = "create-credentials"
	OpCreateEnvironment = "create-environment"
)

var cloudRoutes = []struct {
	method string
	re     *regexp.Regexp
	op     string
}{
	{http.MethodGet, regexp.MustCompile(`^/api/v3/accounts/\d+/projects/$`), OpListProjects},
	{http.MethodPost, regexp.MustCompile(`^/api/v3/accounts/\d+/connections/$`), OpCreateConnection},
	{http.MethodPost, regexp.MustCompile(`^/api/v3/accounts/\d+/projects/$`), OpCreateProject},
	{http.MethodPost, regexp.MustCompile(`^/api/v3/accounts/\d+/projects/\d+/managed-repositories/$`), OpCreateRepository},
	{http.MethodPost, regexp.MustCompile(`^/api/v3/accounts/\d+/projects/\d+/$`), OpUpdateProject},
	{http.MethodPost, regexp.MustCompile(`^/api/v3/accounts/\d+/projects/\d+/credentials/$`), OpCreateCredentials},
	{http.MethodPost, regexp.MustCompile(`^/api/v3/accounts/\d+/projects/\d+/environments/$`), OpCreateEnvironment},
}

// RecordedRequest is one request received by FakeCloud
type RecordedRequest struct {
	Op     string
	Method string
	Path   string
	Auth   string
	Body   map[string]interface{}
}

// FakeCloud is an in-process dbt Cloud API. Connections, projects,
// repositories and credentials share one id sequence starting at 1;
// environments use their own sequence starting at 1001.
type FakeCloud struct {
	mu sync.Mutex

	Server   *httptest.Server
	Requests []RecordedRequest
	// Projects holds the names returned by list-projects. Created projects are appended.
	Projects []string
	// Failures maps an operation to the status code it answers with.
	Failures map[string]int

	nextID    int64
	nextEnvID int64

	Log *CallLog
}

// NewFakeCloud starts a fake API server that is shut down with the test
func NewFakeCloud(t testing.TB) *FakeCloud {
	f := &FakeCloud{
		Failures:  make(map[string]int),
		nextID:    1,
		nextEnvID: 1001,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server URL, usable as a client host
func (f *FakeCloud) URL() string {
	return f.Server.URL
}

// Fail makes op answer with code
func (f *FakeCloud) Fail(op string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Failures[op] = code
}

// Operations returns the operation of every request received so far
func (f *FakeCloud) Operations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, len(f.Requests))
	for i, r := range f.Requests {
		ops[i] = r.Op
	}
	return ops
}

// RequestsFor returns the recorded requests for op
func (f *FakeCloud) RequestsFor(op string) []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RecordedRequest
	for _, r := range f.Requests {
		if r.Op == op {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeCloud) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	op := "unknown"
	for _, route := range cloudRoutes {
		if r.Method == route.method && route.re.MatchString(r.URL.Path) {
			op = route.op
			break
		}
	}

	rec := RecordedRequest{
		Op:     op,
		Method: r.Method,
		Path:   r.URL.Path,
		Auth:   r.Header.Get("Authorization"),
	}
	if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}
	f.Requests = append(f.Requests, rec)
	f.Log.Add("dbtcloud:" + op)

	if op == "unknown" {
		writeEnvelope(w, http.StatusNotFound, nil)
		return
	}
	if code, ok := f.Failures[op]; ok {
		writeEnvelope(w, code, nil)
		return
	}

	switch op {
	case OpListProjects:
		projects := make([]map[string]interface{}, len(f.Projects))
		for i, name := range f.Projects {
			projects[i] = map[string]interface{}{"id": 900 + i, "name": name}
		}
		writeEnvelope(w, http.StatusOK, projects)
	case OpCreateEnvironment:
		id := f.nextEnvID
		f.nextEnvID++
		writeEnvelope(w, http.StatusCreated, withID(rec.Body, id))
	case OpUpdateProject:
		writeEnvelope(w, http.StatusOK, rec.Body)
	default:
		id := f.nextID
		f.nextID++
		if op == OpCreateProject {
			if name, ok := rec.Body["name"].(string); ok {
				f.Projects = append(f.Projects, name)
			}
		}
		writeEnvelope(w, http.StatusCreated, withID(rec.Body, id))
	}
}

func withID(body map[string]interface{}, id int64) map[string]interface{} {
	out := map[string]interface{}{"id": id}
	for k, v := range body {
		if k != "id" && k != "password" {
			out[k] = v
		}
	}
	return out
}

func writeEnvelope(w http.ResponseWriter, code int, data interface{}) {
	status := map[string]interface{}{
		"code":       code,
		"is_success": code == http.StatusOK || code == http.StatusCreated,
	}
	if code >= 400 {
		status["user_message"] = http.StatusText(code)
		status["developer_message"] = "fake dbt Cloud failure"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": status, "data": data})
}
