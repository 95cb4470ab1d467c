package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	dom "github.com/enriqueruelasgarcia/Users-mongo/internal/domain"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/dto"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/repo"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/service"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := dto.RegisterValidators(); err != nil {
		panic(err)
	}
}

type fakeRepo struct {
	mu    sync.Mutex
	users []dom.User
	err   error
}

func (f *fakeRepo) CreateUser(_ context.Context, username string) (dom.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return dom.User{}, f.err
	}
	u := dom.User{ID: fmt.Sprintf("%024x", len(f.users)+1), Username: username, Exercises: []dom.Exercise{}}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeRepo) index(id string) (int, error) {
	if !repo.IsValidID(id) {
		return -1, repo.ErrInvalidID
	}
	for i := range f.users {
		if f.users[i].ID == id {
			return i, nil
		}
	}
	return -1, repo.ErrNotFound
}

func (f *fakeRepo) AppendExercise(_ context.Context, id string, ex dom.Exercise) (dom.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return dom.User{}, f.err
	}
	i, err := f.index(id)
	if err != nil {
		return dom.User{}, err
	}
	f.users[i].Exercises = append(f.users[i].Exercises, ex)
	return f.users[i], nil
}

func (f *fakeRepo) GetUser(_ context.Context, id string) (dom.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return dom.User{}, f.err
	}
	i, err := f.index(id)
	if err != nil {
		return dom.User{}, err
	}
	return f.users[i], nil
}

func (f *fakeRepo) ListUsers(_ context.Context) ([]dom.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]dom.User, len(f.users))
	for i, u := range f.users {
		out[i] = dom.User{ID: u.ID, Username: u.Username}
	}
	return out, nil
}

var testNow = time.Date(2024, time.May, 17, 10, 0, 0, 0, time.UTC)

const unknownID = "0123456789abcdef01234567"

func newRouter(r repo.UserRepo) *gin.Engine {
	svc := service.NewUserService(r, nil, service.WithClock(func() time.Time { return testNow }))
	h := NewUserHandler(svc, nil)
	e := gin.New()
	api := e.Group("/api")
	api.POST("/users", h.Create)
	api.GET("/users", h.List)
	api.POST("/users/:_id/exercises", h.AddExercise)
	api.GET("/users/:_id/logs", h.Logs)
	return e
}

func postForm(e *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func get(e *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func createUser(t *testing.T, e *gin.Engine, name string) string {
	t.Helper()
	w := postForm(e, "/api/users", url.Values{"username": {name}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.CreateUserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

func TestCreateUser_ThenListIncludesIt(t *testing.T) {
	e := newRouter(&fakeRepo{})

	w := postForm(e, "/api/users", url.Values{"username": {"fcc_test"}})
	require.Equal(t, http.StatusOK, w.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "fcc_test", created["username"])
	id, _ := created["_id"].(string)
	assert.True(t, repo.IsValidID(id))

	w = get(e, "/api/users")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, map[string]any{"_id": id, "username": "fcc_test"}, list[0])
}

func TestCreateUser_MissingUsername(t *testing.T) {
	r := &fakeRepo{}
	e := newRouter(r)
	for _, form := range []url.Values{{}, {"username": {""}}, {"username": {"   "}}, {"username": {"\t\n"}}} {
		w := postForm(e, "/api/users", form)
		assert.Equal(t, http.StatusBadRequest, w.Code, form.Encode())
		assert.JSONEq(t, `{"error":"username is required"}`, w.Body.String())
	}
	assert.Empty(t, r.users)
}

func TestCreateUser_JSONBody(t *testing.T) {
	e := newRouter(&fakeRepo{})
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestAddExercise_CoercesDurationAndFormatsDate(t *testing.T) {
	e := newRouter(&fakeRepo{})
	id := createUser(t, e, "alice")

	w := postForm(e, "/api/users/"+id+"/exercises", url.Values{
		"description": {"run"},
		"duration":    {"30"},
		"date":        {"2023-01-05"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, fmt.Sprintf(
		`{"_id":%q,"username":"alice","description":"run","duration":30,"date":"Thu Jan 05 2023"}`, id),
		w.Body.String())
}

func TestAddExercise_DefaultsDateToToday(t *testing.T) {
	e := newRouter(&fakeRepo{})
	id := createUser(t, e, "alice")

	w := postForm(e, "/api/users/"+id+"/exercises", url.Values{"description": {"walk"}, "duration": {"15"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.ExerciseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Fri May 17 2024", resp.Date)
}

func TestAddExercise_JSONNumberDuration(t *testing.T) {
	e := newRouter(&fakeRepo{})
	id := createUser(t, e, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/users/"+id+"/exercises",
		strings.NewReader(`{"description":"bike","duration":45,"date":"2023-03-01"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"duration":45`)
}

func TestAddExercise_UnknownUserIsNotFoundRegardlessOfPayload(t *testing.T) {
	e := newRouter(&fakeRepo{})
	payloads := []url.Values{
		{"description": {"run"}, "duration": {"30"}},
		{"description": {"run"}, "duration": {"thirty"}},
		{"duration": {"30"}, "date": {"not a date"}},
		{},
	}
	for _, p := range payloads {
		w := postForm(e, "/api/users/"+unknownID+"/exercises", p)
		assert.Equal(t, http.StatusNotFound, w.Code, p.Encode())
	}
}

func TestAddExercise_BadInput(t *testing.T) {
	e := newRouter(&fakeRepo{})
	id := createUser(t, e, "alice")

	tests := []struct {
		name string
		path string
		form url.Values
		want string
	}{
		{"malformed id", "/api/users/xyz/exercises", url.Values{"description": {"run"}, "duration": {"30"}}, "invalid id"},
		{"non-numeric duration", "/api/users/" + id + "/exercises", url.Values{"description": {"run"}, "duration": {"abc"}}, "duration must be a whole number of minutes"},
		{"bad date", "/api/users/" + id + "/exercises", url.Values{"description": {"run"}, "duration": {"3"}, "date": {"someday"}}, "date must be a date like 2023-01-05"},
		{"missing description", "/api/users/" + id + "/exercises", url.Values{"duration": {"3"}}, "description is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForm(e, tt.path, tt.form)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func seedLog(t *testing.T, e *gin.Engine, id string, dates ...string) {
	t.Helper()
	for i, d := range dates {
		w := postForm(e, "/api/users/"+id+"/exercises", url.Values{
			"description": {fmt.Sprintf("ex%d", i+1)},
			"duration":    {fmt.Sprint((i + 1) * 10)},
			"date":        {d},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
}

func decodeLog(t *testing.T, w *httptest.ResponseRecorder) dto.LogResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.LogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestLogs_FullLog(t *testing.T) {
	e := newRouter(&fakeRepo{})
	id := createUser(t, e, "alice")
	seedLog(t, e, id, "2023-02-03", "2023-01-01", "2022-12-31")

	resp := decodeLog(t, get(e, "/api/users/"+id+"/logs"))
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, dto.LogEntry{Description: "ex1", Duration: 10, Date: "Fri Feb 03 2023"}, resp.Log[0])
}

func TestLogs_UnreadableDateShowsInvalidDate(t *testing.T) {
	id := fmt.Sprintf("%024x", 1)
	e := newRouter(&fakeRepo{users: []dom.User{{ID: id, Username: "alice", Exercises: []dom.Exercise{
		{Description: "legacy", Duration: 5},
	}}}})

	resp := decodeLog(t, get(e, "/api/users/"+id+"/logs"))
	require.Len(t, resp.Log, 1)
	assert.Equal(t, dto.LogEntry{Description: "legacy", Duration: 5, Date: "Invalid Date"}, resp.Log[0])

	resp = decodeLog(t, get(e, "/api/users/"+id+"/logs?from=2000-01-01"))
	assert.Equal(t, 0, resp.Count)
}

func TestLogs_DateRangeAndLimit(t *testing.T) {
	e := newRouter(&fakeRepo{})
	id := createUser(t, e, "alice")
	seedLog(t, e, id, "2023-02-03", "2023-01-01", "2022-12-31", "2023-01-31", "2023-01-15")

	resp := decodeLog(t, get(e, "/api/users/"+id+"/logs?from=2023-01-01&to=2023-01-31"))
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, []string{"ex2", "ex4", "ex5"}, []string{resp.Log[0].Description, resp.Log[1].Description, resp.Log[2].Description})

	resp = decodeLog(t, get(e, "/api/users/"+id+"/logs?limit=2"))
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Log, 2)
	assert.Equal(t, "ex1", resp.Log[0].Description)
	assert.Equal(t, "ex2", resp.Log[1].Description)
}

func TestLogs_EmptyLogIsArray(t *testing.T) {
	e := newRouter(&fakeRepo{})
	id := createUser(t, e, "alice")

	w := get(e, "/api/users/"+id+"/logs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"_id":%q,"username":"alice","count":0,"log":[]}`, id), w.Body.String())
}

func TestLogs_Errors(t *testing.T) {
	e := newRouter(&fakeRepo{})
	id := createUser(t, e, "alice")

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown user", "/api/users/" + unknownID + "/logs", http.StatusNotFound},
		{"malformed id", "/api/users/123/logs", http.StatusBadRequest},
		{"bad from", "/api/users/" + id + "/logs?from=soon", http.StatusBadRequest},
		{"bad to", "/api/users/" + id + "/logs?to=2023-99-01", http.StatusBadRequest},
		{"bad limit", "/api/users/" + id + "/logs?limit=abc", http.StatusBadRequest},
		{"zero limit", "/api/users/" + id + "/logs?limit=0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, get(e, tt.path).Code)
		})
	}
}

func TestListUsers_NeverIncludesExercises(t *testing.T) {
	e := newRouter(&fakeRepo{})
	id := createUser(t, e, "alice")
	seedLog(t, e, id, "2023-01-01", "2023-01-02")

	w := get(e, "/api/users")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "exercises")
	assert.NotContains(t, w.Body.String(), "log")
	assert.JSONEq(t, fmt.Sprintf(`[{"_id":%q,"username":"alice"}]`, id), w.Body.String())
}

func TestHandlers_StorageErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"generic failure", errors.New("socket closed"), `{"error":"error fetching users"}`},
		{"not connected", storage.ErrNotConnected, `{"error":"database not connected"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newRouter(&fakeRepo{err: tt.err})
			w := get(e, "/api/users")
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())

			w = postForm(e, "/api/users", url.Values{"username": {"a"}})
			assert.Equal(t, http.StatusInternalServerError, w.Code)
		})
	}
}
