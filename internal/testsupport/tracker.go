package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeIssue is an issue created through the fake tracker.
type FakeIssue struct {
	Key         string
	Project     string
	IssueType   string
	Summary     string
	Description string
	ParentKey   string
	Priority    string
	// Fields is the raw "fields" object as received.
	Fields map[string]any
}

type fakeFailure struct {
	status  int
	message string
}

// FakeTracker emulates the tracker REST endpoints the client uses.
type FakeTracker struct {
	t      testing.TB
	server *httptest.Server

	mu              sync.Mutex
	projects        []map[string]any
	issues          []FakeIssue
	comments        map[string][]string
	failSummaries   map[string]fakeFailure
	failComments    *fakeFailure
	requestsByRoute map[string]int
}

// NewFakeTracker starts a fake tracker with one project "PROJ". The server is
// closed when the test ends.
func NewFakeTracker(t testing.TB) *FakeTracker {
	t.Helper()

	f := &FakeTracker{
		t:               t,
		comments:        map[string][]string{},
		failSummaries:   map[string]fakeFailure{},
		requestsByRoute: map[string]int{},
	}
	f.AddProject("PROJ", "Project", "Ada Lovelace")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/2/myself", f.handleMyself)
	mux.HandleFunc("GET /rest/api/2/project", f.handleProjects)
	mux.HandleFunc("GET /rest/api/2/project/{key}", f.handleProject)
	mux.HandleFunc("GET /rest/api/2/search", f.handleSearch)
	mux.HandleFunc("POST /rest/api/2/issue", f.handleCreate)
	mux.HandleFunc("POST /rest/api/2/issue/{key}/comment", f.handleComment)
	f.server = httptest.NewServer(f.count(mux))
	t.Cleanup(f.server.Close)
	return f
}

// URL is the base URL to configure as the tracker server.
func (f *FakeTracker) URL() string { return f.server.URL }

// AddProject registers another visible project.
func (f *FakeTracker) AddProject(key, name, lead string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = append(f.projects, map[string]any{
		"key":  key,
		"name": name,
		"lead": map[string]string{"displayName": lead},
		"issueTypes": []map[string]string{
			{"name": "Epic"}, {"name": "Story"}, {"name": "Task"},
		},
	})
}

// FailSummary makes issue creation fail for the given summary.
func (f *FakeTracker) FailSummary(summary string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSummaries[summary] = fakeFailure{status: status, message: message}
}

// FailComments makes every comment request fail.
func (f *FakeTracker) FailComments(status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failComments = &fakeFailure{status: status, message: message}
}

// Issues returns created issues in creation order.
func (f *FakeTracker) Issues() []FakeIssue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeIssue(nil), f.issues...)
}

// Comments returns comments added to an issue.
func (f *FakeTracker) Comments(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.comments[key]...)
}

// Requests reports how many requests hit a route such as "POST /issue".
func (f *FakeTracker) Requests(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requestsByRoute[route]
}

func (f *FakeTracker) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/rest/api/2")
		if strings.HasSuffix(route, "/comment") {
			route = r.Method + " /issue/comment"
		}
		f.mu.Lock()
		f.requestsByRoute[route]++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeTracker) handleMyself(w http.ResponseWriter, r *http.Request) {
	user, _, ok := r.BasicAuth()
	if !ok && !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeFakeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeFakeJSON(w, http.StatusOK, map[string]string{"name": user, "displayName": "Test User"})
}

func (f *FakeTracker) handleProjects(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, f.projects)
}

func (f *FakeTracker) handleProject(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p["key"] == r.PathValue("key") {
			writeFakeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeFakeError(w, http.StatusNotFound, "No project could be found with key '"+r.PathValue("key")+"'.")
}

func (f *FakeTracker) handleSearch(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	type issue struct {
		Key    string         `json:"key"`
		Fields map[string]any `json:"fields"`
	}
	var epics []issue
	for i := len(f.issues) - 1; i >= 0; i-- {
		if f.issues[i].IssueType != "Epic" {
			continue
		}
		epics = append(epics, issue{Key: f.issues[i].Key, Fields: map[string]any{
			"summary": f.issues[i].Summary,
			"status":  map[string]string{"name": "To Do"},
		}})
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{"startAt": 0, "total": len(epics), "issues": epics})
}

func (f *FakeTracker) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Fields map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFakeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	issue := FakeIssue{
		Project:     nestedString(body.Fields, "project", "key"),
		IssueType:   nestedString(body.Fields, "issuetype", "name"),
		Summary:     stringField(body.Fields, "summary"),
		Description: stringField(body.Fields, "description"),
		ParentKey:   nestedString(body.Fields, "parent", "key"),
		Priority:    nestedString(body.Fields, "priority", "name"),
		Fields:      body.Fields,
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if failure, ok := f.failSummaries[issue.Summary]; ok {
		writeFakeError(w, failure.status, failure.message)
		return
	}
	if issue.Project == "" {
		writeFakeFieldError(w, "project", "project is required")
		return
	}
	issue.Key = fmt.Sprintf("%s-%d", issue.Project, len(f.issues)+1)
	f.issues = append(f.issues, issue)
	writeFakeJSON(w, http.StatusCreated, map[string]string{"id": fmt.Sprint(len(f.issues)), "key": issue.Key})
}

func (f *FakeTracker) handleComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFakeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failComments != nil {
		writeFakeError(w, f.failComments.status, f.failComments.message)
		return
	}
	key := r.PathValue("key")
	f.comments[key] = append(f.comments[key], body.Body)
	writeFakeJSON(w, http.StatusCreated, map[string]string{"id": fmt.Sprint(len(f.comments[key]))})
}

func writeFakeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeFakeError(w http.ResponseWriter, status int, message string) {
	writeFakeJSON(w, status, map[string]any{"errorMessages": []string{message}, "errors": map[string]string{}})
}

func writeFakeFieldError(w http.ResponseWriter, field, message string) {
	writeFakeJSON(w, http.StatusBadRequest, map[string]any{"errorMessages": []string{}, "errors": map[string]string{field: message}})
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func nestedString(fields map[string]any, key, inner string) string {
	m, _ := fields[key].(map[string]any)
	return stringField(m, inner)
}
