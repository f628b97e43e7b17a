package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/quranchallenge/server/adapters"
	"github.com/quranchallenge/server/internal/auth"
	"github.com/quranchallenge/server/internal/metrics"
	"github.com/quranchallenge/server/internal/validation"
	"github.com/quranchallenge/server/usecase"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field  string `json:"field"`
		Reason string `json:"reason"`
	} `json:"errors"`
}

func newTestServer(t *testing.T, opts Options) *echo.Echo {
	t.Helper()
	logger := zap.NewNop()
	v := validation.New()
	m := metrics.NewManager()

	readings := adapters.NewMemoryReadingRepository()
	authService, err := usecase.NewAuthService(adapters.NewMemoryUserRepository(),
		auth.NewTokenIssuer("test-secret", time.Hour), v, m, logger, bcrypt.MinCost)
	require.NoError(t, err)

	return NewServer(Dependencies{
		Submissions: usecase.NewSubmissionService(readings, adapters.NewMemoryHistoricalEntryRepository(), v, m, logger),
		Queries:     usecase.NewQueryService(readings, 0, 0, logger),
		Auth:        authService,
		Validator:   v,
		Metrics:     m,
		Logger:      logger,
	}, opts)
}

func do(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, Options{})
	rec, _ := do(e, http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body.Status)
	assert.False(t, body.Timestamp.IsZero())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestSubmitReadingThenLeaderboard(t *testing.T) {
	e := newTestServer(t, Options{})

	rec, env := do(e, http.MethodPost, "/api/readings",
		`{"masjid":"Al-Noor","childName":"Ali","categories":["Quran","Hifdh"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Reading logged successfully!", env.Message)
	assert.NotContains(t, string(env.Data), "ipAddress")

	// readingTypes is accepted on the alias route
	rec, _ = do(e, http.MethodPost, "/api/submissions",
		`{"masjid":"Al-Huda","childName":"Sara","readingTypes":["Dua"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = do(e, http.MethodGet, "/api/leaderboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []struct {
		Masjid         string `json:"masjid"`
		TotalReadings  int    `json:"totalReadings"`
		UniqueChildren int    `json:"uniqueChildren"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Al-Noor", entries[0].Masjid)
	assert.Equal(t, 2, entries[0].TotalReadings)
	assert.Equal(t, 1, entries[0].UniqueChildren)

	rec, env = do(e, http.MethodGet, "/api/leaderboard?groupBy=child", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var children []struct {
		ChildName     string `json:"childName"`
		TotalReadings int    `json:"totalReadings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &children))
	require.Len(t, children, 2)
	assert.Equal(t, "Ali", children[0].ChildName)

	rec, _ = do(e, http.MethodGet, "/api/leaderboard?groupBy=city", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReading_Rejected(t *testing.T) {
	e := newTestServer(t, Options{})

	rec, env := do(e, http.MethodPost, "/api/readings", `{"masjid":"Al-Noor","childName":"Ali","categories":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "categories", env.Errors[0].Field)

	rec, env = do(e, http.MethodPost, "/api/readings", `{"masjid":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidBody, env.Message)

	rec, _ = do(e, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalReadings":0`)
}

func TestStatsAndChildSubmissions(t *testing.T) {
	e := newTestServer(t, Options{})

	for _, body := range []string{
		`{"masjid":"Al-Noor","childName":"Ali Khan","categories":["Quran","Dua"]}`,
		`{"masjid":"Al-Huda","childName":"Ali Khan","categories":["Quran"]}`,
	} {
		rec, _ := do(e, http.MethodPost, "/api/readings", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, env := do(e, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		TotalReadings  int            `json:"totalReadings"`
		TotalChildren  int            `json:"totalChildren"`
		TotalMasjids   int            `json:"totalMasjids"`
		ReadingsByType map[string]int `json:"readingsByType"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 3, stats.TotalReadings)
	assert.Equal(t, 1, stats.TotalChildren)
	assert.Equal(t, 2, stats.TotalMasjids)
	assert.Equal(t, 2, stats.ReadingsByType["Quran"])

	rec, env = do(e, http.MethodGet, "/api/submissions/Ali%20Khan", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var readings []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &readings))
	assert.Len(t, readings, 2)

	rec, env = do(e, http.MethodGet, "/api/submissions/Nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestHistoricalEntry(t *testing.T) {
	e := newTestServer(t, Options{})

	rec, env := do(e, http.MethodPost, "/api/historical-entry",
		`{"masjid":"Al-Noor","childName":"Ali","categories":["Hadith"],"parentEmail":"parent@example.com","readingDate":"2024-01-15"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	future := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	rec, _ = do(e, http.MethodPost, "/api/historical-entry",
		`{"masjid":"Al-Noor","childName":"Ali","categories":["Hadith"],"parentEmail":"parent@example.com","readingDate":"`+future+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestServer(t, Options{})
	body := `{"email":"Parent@Example.com","password":"secret1","name":"Parent","masjid":"Al-Noor"}`

	rec, env := do(e, http.MethodPost, "/api/register", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var res AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "parent@example.com", res.User.Email)
	assert.Equal(t, "parent", string(res.User.Role))
	assert.NotContains(t, rec.Body.String(), "password")

	rec, env = do(e, http.MethodPost, "/api/register", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgDuplicateEmail, env.Message)

	rec, env = do(e, http.MethodPost, "/api/login", `{"email":"parent@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful!", env.Message)

	recWrong, envWrong := do(e, http.MethodPost, "/api/login", `{"email":"parent@example.com","password":"nope"}`)
	recUnknown, envUnknown := do(e, http.MethodPost, "/api/login", `{"email":"nobody@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, msgBadCredentials, envWrong.Message)
	assert.Equal(t, envWrong.Message, envUnknown.Message)
}

func TestRouteNotFound(t *testing.T) {
	e := newTestServer(t, Options{})

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/unknown"},
		{http.MethodDelete, "/api/readings"},
	} {
		rec, env := do(e, tc.method, tc.target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.target)
		assert.False(t, env.Success)
		assert.Equal(t, msgRouteNotFound, env.Message)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestServer(t, Options{})
	do(e, http.MethodGet, "/api/health", "")

	rec, _ := do(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/health"`)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Quran Challenge</h1>"), 0o644))

	e := newTestServer(t, Options{StaticDir: dir})

	rec, _ := do(e, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Quran Challenge")

	rec, env := do(e, http.MethodGet, "/missing.html", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgRouteNotFound, env.Message)
}

func TestRateLimit(t *testing.T) {
	e := newTestServer(t, Options{RateLimit: 1})
	body := `{"masjid":"Al-Noor","childName":"Ali","categories":["Dua"]}`

	rec, _ := do(e, http.MethodPost, "/api/readings", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := do(e, http.MethodPost, "/api/readings", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, msgTooManyRequests, env.Message)

	// GET routes are not limited
	rec, _ = do(e, http.MethodGet, "/api/leaderboard", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	e := newTestServer(t, Options{})
	long := strings.Repeat("a", 80)

	rec, env := do(e, http.MethodPost, "/api/register",
		`{"email":"parent@example.com","password":"`+long+`","name":"Parent","masjid":"Al-Noor"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "password", env.Errors[0].Field)
}

func TestChildSubmissions_PercentInName(t *testing.T) {
	e := newTestServer(t, Options{})

	for _, child := range []string{"A%41", "AA"} {
		rec, _ := do(e, http.MethodPost, "/api/readings",
			`{"masjid":"Al-Noor","childName":"`+child+`","categories":["Dua"]}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	for target, want := range map[string]string{
		"/api/submissions/A%2541": "A%41",
		"/api/submissions/AA":     "AA",
	} {
		rec, env := do(e, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var readings []struct {
			ChildName string `json:"childName"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &readings))
		require.Len(t, readings, 1, target)
		assert.Equal(t, want, readings[0].ChildName)
	}
}

func TestHTTPErrorHandler_Forbidden(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/readings", nil), rec)

	httpErrorHandler(zap.NewNop())(echo.ErrForbidden, c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, msgForbidden, env.Message)
}
