package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aspd/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newHandler(t *testing.T) http.Handler {
	sess := session.NewSession(DefaultRegistry())
	t.Cleanup(sess.Shutdown)
	return New(session.NewLocked(sess), Options{CreateArgs: []string{"0"}}).Handler()
}

func request(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	h.ServeHTTP(w, req)
	return w
}

func expectOK(t *testing.T, h http.Handler, method, path, body, want string) {
	w := request(h, method, path, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, want, w.Body.String())
}

func expectError(t *testing.T, h http.Handler, method, path, body string, code int, kind session.ErrorKind) errorResponse {
	w := request(h, method, path, body)
	require.Equal(t, code, w.Code, w.Body.String())
	var res errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, kind, res.Type)
	return res
}

// models polls the model route until the search is done, resuming after
// every model.
func models(t *testing.T, h http.Handler) []string {
	var out []string
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := request(h, "GET", "/model", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res session.ModelResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		switch res.Status {
		case session.ModelRunning:
			time.Sleep(time.Millisecond)
		case session.ModelDone:
			return out
		case session.ModelFound:
			out = append(out, string(res.Payload))
			expectOK(t, h, "GET", "/resume", "", "Search is resumed.")
		}
	}
	t.Fatal("search did not finish in time")
	return nil
}

func Test_index(t *testing.T) {
	h := newHandler(t)
	expectOK(t, h, "GET", "/", "", "This is request #0.")
	expectOK(t, h, "GET", "/", "", "This is request #1.")

	w := request(h, "GET", "/", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func Test_freshSolve(t *testing.T) {
	h := newHandler(t)
	res := expectError(t, h, "GET", "/solve", "", http.StatusConflict, session.SessionStateError)
	assert.Equal(t, "solve failed! No control object.", res.Msg)
	expectError(t, h, "GET", "/model", "", http.StatusConflict, session.SessionStateError)
}

func Test_singleFact(t *testing.T) {
	h := newHandler(t)
	expectOK(t, h, "GET", "/create", "", "Created clingo Solver.")
	expectOK(t, h, "POST", "/add", "a.", "Added data to Solver.")
	expectOK(t, h, "POST", "/ground", `{"base": []}`, "Grounding.")
	expectOK(t, h, "GET", "/solve", "", "Solver solving.")

	w := request(h, "GET", "/model", "")
	for w.Body.String() == `"Running"` {
		time.Sleep(time.Millisecond)
		w = request(h, "GET", "/model", "")
	}
	assert.Equal(t, `{"Model":[97,10]}`, w.Body.String())
	expectOK(t, h, "GET", "/resume", "", "Search is resumed.")
	assert.Empty(t, models(t, h))

	expectError(t, h, "GET", "/statistics", "", http.StatusConflict, session.SessionStateError)
	expectOK(t, h, "GET", "/close", "", "Solve handle closed.")
	expectError(t, h, "GET", "/close", "", http.StatusConflict, session.SessionStateError)

	w = request(h, "GET", "/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), `{"summary":{"call":1,`), w.Body.String())
}

func Test_parameters(t *testing.T) {
	h := newHandler(t)
	expectOK(t, h, "GET", "/create", "", "Created clingo Solver.")
	expectOK(t, h, "POST", "/add?name=pigeon&param=h&param=p", "hole(1..h). pigeon(1..p).", "Added data to Solver.")
	expectOK(t, h, "POST", "/ground", `{"pigeon": ["2", "1"]}`, "Grounding.")
	expectOK(t, h, "GET", "/solve", "", "Solver solving.")
	got := models(t, h)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "hole(2)\n")
	assert.Contains(t, got[0], "pigeon(1)\n")
	assert.NotContains(t, got[0], "pigeon(2)\n")
}

func Test_externalsAndAssumptions(t *testing.T) {
	h := newHandler(t)
	expectOK(t, h, "GET", "/create", "", "Created clingo Solver.")
	expectOK(t, h, "POST", "/add", "#external enable. {q}. p :- enable. #show p/0. #show q/0.", "Added data to Solver.")
	expectOK(t, h, "POST", "/ground", `{"base": []}`, "Grounding.")
	expectOK(t, h, "POST", "/assign_external", `{"literal": "enable", "truth_value": "True"}`, "External assigned.")

	res := expectError(t, h, "POST", "/solve_with_assumptions", `[["r", true]]`, http.StatusNotFound, session.LookupError)
	assert.Contains(t, res.Msg, "not defined in the logic program")

	expectOK(t, h, "POST", "/solve_with_assumptions", `[["q", false]]`, "Solving with assumptions.")
	assert.Equal(t, []string{"p\n"}, models(t, h))
	expectOK(t, h, "GET", "/close", "", "Solve handle closed.")

	expectOK(t, h, "POST", "/release_external", `"enable"`, "External released.")
	expectOK(t, h, "POST", "/solve_with_assumptions", `[["q", true]]`, "Solving with assumptions.")
	assert.Equal(t, []string{"q\n"}, models(t, h))
	expectOK(t, h, "GET", "/close", "", "Solve handle closed.")

	expectError(t, h, "POST", "/assign_external", `{"literal": "missing", "truth_value": "Free"}`, http.StatusNotFound, session.LookupError)
}

func Test_badRequests(t *testing.T) {
	h := newHandler(t)
	expectOK(t, h, "GET", "/create", "", "Created clingo Solver.")
	tests := []struct {
		path string
		body string
		msg  string
	}{
		{"/ground", `["base"]`, "Could not parse parts data"},
		{"/ground", `{"base": [1]}`, "Could not parse parts data"},
		{"/assign_external", `{"literal": "a"}`, "Could not parse assignment data"},
		{"/assign_external", `{"literal": "a", "truth_value": "Maybe"}`, "Could not parse assignment data"},
		{"/release_external", `42`, "Could not parse symbol data"},
		{"/release_external", `"a("`, "Could not parse symbol data"},
		{"/solve_with_assumptions", `[["a"]]`, "Could not parse assumptions data"},
		{"/solve_with_assumptions", `[["a", "yes"]]`, "Could not parse assumptions data"},
		{"/set_configuration", `{"solve": {"models": 1}}`, "Could not parse configuration data"},
	}
	for _, tt := range tests {
		res := expectError(t, h, "POST", tt.path, tt.body, http.StatusBadRequest, session.TransportError)
		assert.Equal(t, tt.msg, res.Msg, tt.path+" "+tt.body)
	}
	expectError(t, h, "POST", "/add", "a :- .", http.StatusInternalServerError, session.EngineError)
}

func Test_configuration(t *testing.T) {
	h := newHandler(t)
	expectOK(t, h, "GET", "/create", "", "Created clingo Solver.")
	w := request(h, "GET", "/configuration", "")
	require.Equal(t, http.StatusOK, w.Code)
	conf := w.Body.String()
	assert.True(t, strings.HasPrefix(conf, `{"tester":{"solver":[],`), conf)

	expectOK(t, h, "POST", "/set_configuration", conf, conf)

	w = request(h, "POST", "/set_configuration", `{"solve": {"models": "1"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"models":"1"`)

	expectError(t, h, "POST", "/set_configuration", `{"tester": {"share": ""}}`, http.StatusInternalServerError, session.EngineError)
}

func Test_theories(t *testing.T) {
	h := newHandler(t)
	expectError(t, h, "GET", "/register_dl_theory", "", http.StatusConflict, session.SessionStateError)
	expectOK(t, h, "GET", "/create", "", "Created clingo Solver.")
	expectOK(t, h, "GET", "/register_dl_theory", "", "Difference logic theory registered.")
	expectOK(t, h, "POST", "/add", "&diff{ x - 0 } = 3.", "Added data to Solver.")
	expectOK(t, h, "POST", "/ground", `{"base": []}`, "Grounding.")
	expectOK(t, h, "GET", "/solve", "", "Solver solving.")
	got := models(t, h)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "x=3\n")
	expectOK(t, h, "GET", "/close", "", "Solve handle closed.")

	expectOK(t, h, "GET", "/create", "", "Created clingo Solver.")
	expectOK(t, h, "GET", "/register_con_theory", "", "Clingcon theory registered.")
	expectOK(t, h, "POST", "/add", "&dom{ 1..3 } = x. &sum{ x } >= 3.", "Added data to Solver.")
	expectOK(t, h, "POST", "/ground", `{"base": []}`, "Grounding.")
	expectOK(t, h, "GET", "/solve", "", "Solver solving.")
	assert.Equal(t, []string{"x=3\n"}, models(t, h))
	expectOK(t, h, "GET", "/close", "", "Solve handle closed.")
}

func Test_metrics(t *testing.T) {
	h := newHandler(t)
	request(h, "GET", "/solve", "")
	w := request(h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "aspd_http_requests_total")
	assert.Contains(t, w.Body.String(), `aspd_session_errors_total{kind="SessionStateError"}`)
}
