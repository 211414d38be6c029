package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/phillip/chama-tracker-go/models"
	services "github.com/phillip/chama-tracker-go/services"
	store "github.com/phillip/chama-tracker-go/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const fullReport = `{
	"opening_kcb_balance": 10000,
	"total_member_contributions_kcb": 5000,
	"total_loan_repayments_kcb": 1200,
	"total_loan_disbursements_kcb": 3000,
	"bank_charges_kcb": 150,
	"opening_lofty_balance": 2000,
	"total_member_contributions_lofty": 800,
	"total_loan_disbursements_lofty": 0,
	"bank_charges_lofty": 20
}`

func newEngine(s store.Store) *gin.Engine {
	l := services.NewLedger(s, services.WithClock(func() time.Time {
		return time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	}))
	r := gin.New()
	r.GET("/api/data", GetData(l))
	r.GET("/api/summary", GetSummary(l))
	r.GET("/api/search-member", SearchMember(l))
	r.POST("/api/update-data", UpdateData(l))
	r.POST("/api/add-contribution", AddContribution(l))
	r.POST("/api/update-balance-sheet", UpdateBalanceSheet(l))
	r.GET("/api/debug/files", DebugFiles(l))
	r.GET("/api/debug/data", DebugData(l))
	r.GET("/healthz", Health(l))
	return r
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func contributionBody(name, month string, amount float64) string {
	body, _ := json.Marshal(map[string]any{
		"month": month,
		"data": map[string]any{
			"member_name":   name,
			"amount":        amount,
			"contributions": map[string]float64{month: amount},
		},
	})
	return string(body)
}

func decodeMember(t *testing.T, w *httptest.ResponseRecorder) models.MemberContribution {
	t.Helper()
	var resp struct {
		Success bool                      `json:"success"`
		Member  models.MemberContribution `json:"member"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	return resp.Member
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	msg, _ := resp["error"].(string)
	return msg
}

func TestAddContributionMergesMonths(t *testing.T) {
	r := newEngine(store.NewMemory())

	w := do(r, http.MethodPost, "/api/add-contribution", contributionBody("Enoch Wambua", "2024-01", 1000))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	member := decodeMember(t, w)
	assert.Equal(t, 1000.0, member.Contributions["2024-01"])
	assert.Equal(t, 1000.0, member.Amount)
	assert.Equal(t, 1.0, member.Shares)
	assert.Equal(t, "2024-02-10", member.LastContributionDate)

	w = do(r, http.MethodPost, "/api/add-contribution", contributionBody("Enoch Wambua", "2024-02", 500))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1500.0, decodeMember(t, w).Amount)

	// resubmitting a month overwrites it
	w = do(r, http.MethodPost, "/api/add-contribution", contributionBody("Enoch Wambua", "2024-02", 700))
	require.Equal(t, http.StatusOK, w.Code)
	member = decodeMember(t, w)
	assert.Equal(t, 700.0, member.Contributions["2024-02"])
	assert.Equal(t, 1700.0, member.Amount)
}

func TestAddContributionValidation(t *testing.T) {
	r := newEngine(store.NewMemory())

	cases := []struct {
		name, body, want string
	}{
		{"bad month", contributionBody("Enoch", "2024-13", 100), "Valid month (YYYY-MM) is required"},
		{"missing data", `{"month":"2024-01"}`, "Valid data object is required"},
		{"data not an object", `{"month":"2024-01","data":[1]}`, "Valid data object is required"},
		{"missing name", `{"month":"2024-01","data":{"amount":10,"contributions":{"2024-01":10}}}`, "Valid member_name is required"},
		{"amount as text", `{"month":"2024-01","data":{"member_name":"Enoch","amount":"10","contributions":{"2024-01":10}}}`, "Valid positive amount is required"},
		{"zero amount", `{"month":"2024-01","data":{"member_name":"Enoch","amount":0,"contributions":{"2024-01":10}}}`, "Valid positive amount is required"},
		{"month missing from contributions", `{"month":"2024-01","data":{"member_name":"Enoch","amount":10,"contributions":{"2023-12":10}}}`, "Contribution for 2024-01 is required"},
		{"malformed json", `{"month":`, "Invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/add-contribution", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, errorMessage(t, w))
		})
	}
}

func TestUpdateBalanceSheet(t *testing.T) {
	r := newEngine(store.NewMemory())

	w := do(r, http.MethodPost, "/api/update-balance-sheet", `{"action":"updateBalanceSheet","month":"2024-01","data":`+fullReport+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"month":"2024-01"}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/data", "")
	var doc models.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Contains(t, doc.MonthlyReports, "2024-01")
	assert.Equal(t, 150.0, *doc.MonthlyReports["2024-01"].BankChargesKCB)
}

func TestUpdateBalanceSheetNamesMissingField(t *testing.T) {
	r := newEngine(store.NewMemory())
	partial := strings.Replace(fullReport, `"bank_charges_lofty": 20`, `"total_balance": 1`, 1)

	w := do(r, http.MethodPost, "/api/update-balance-sheet", `{"month":"2024-01","data":`+partial+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid bank_charges_lofty is required", errorMessage(t, w))

	negative := strings.Replace(fullReport, `"bank_charges_kcb": 150`, `"bank_charges_kcb": -1`, 1)
	w = do(r, http.MethodPost, "/api/update-balance-sheet", `{"month":"2024-01","data":`+negative+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid bank_charges_kcb is required", errorMessage(t, w))

	text := strings.Replace(fullReport, `"bank_charges_kcb": 150`, `"bank_charges_kcb": "150"`, 1)
	w = do(r, http.MethodPost, "/api/update-balance-sheet", `{"month":"2024-01","data":`+text+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid bank_charges_kcb is required", errorMessage(t, w))
}

func TestUpdateDataDispatch(t *testing.T) {
	r := newEngine(store.NewMemory())

	w := do(r, http.MethodPost, "/api/update-data", `{"month":"2024-01","data":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Action is required", errorMessage(t, w))

	w = do(r, http.MethodPost, "/api/update-data", `{"action":"deleteEverything","month":"2024-01","data":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid action", errorMessage(t, w))

	w = do(r, http.MethodPost, "/api/update-data", `{"action":"updateBalanceSheet","month":"2024-01","data":`+fullReport+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	body := strings.Replace(contributionBody("Mary Atieno", "2024-01", 1000), `{"data"`, `{"action":"addMemberContribution","data"`, 1)
	w = do(r, http.MethodPost, "/api/update-data", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/data", "")
	var doc models.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Len(t, doc.MonthlyReports, 1)
	require.Len(t, doc.MemberContributions, 1)
	assert.Equal(t, "Mary Atieno", doc.MemberContributions[0].MemberName)
}

func TestGetDataEmptyDefaultsAndETag(t *testing.T) {
	r := newEngine(store.NewMemory())

	w := do(r, http.MethodGet, "/api/data", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"monthly_reports":{},"member_contributions":[]}`, w.Body.String())
	assert.Empty(t, w.Header().Get("ETag"))

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/add-contribution", contributionBody("Enoch", "2024-01", 1000)).Code)

	w = do(r, http.MethodGet, "/api/data", "")
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = do(r, http.MethodGet, "/api/data", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/add-contribution", contributionBody("Enoch", "2024-02", 500)).Code)
	w = do(r, http.MethodGet, "/api/data", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, etag, w.Header().Get("ETag"))
}

func TestSearchMember(t *testing.T) {
	r := newEngine(store.NewMemory())
	for _, name := range []string{"Enoch Wambua", "Mary Atieno", "ENOCH Otieno"} {
		require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/add-contribution", contributionBody(name, "2024-01", 1000)).Code)
	}

	w := do(r, http.MethodGet, "/api/search-member?name=enoch", "")
	require.Equal(t, http.StatusOK, w.Code)
	var members []models.MemberContribution
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	require.Len(t, members, 2)
	assert.Equal(t, "Enoch Wambua", members[0].MemberName)
	assert.Equal(t, "ENOCH Otieno", members[1].MemberName)

	w = do(r, http.MethodGet, "/api/search-member?name=zed", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(r, http.MethodGet, "/api/search-member", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name query parameter is required", errorMessage(t, w))
}

func TestSummaryAndDebugRoutes(t *testing.T) {
	r := newEngine(store.NewMemory())
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/update-balance-sheet", `{"month":"2024-01","data":`+fullReport+`}`).Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/add-contribution", contributionBody("Enoch", "2024-01", 1000)).Code)

	w := do(r, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary services.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "2024-01", summary.LatestMonth)
	assert.Equal(t, 1, summary.MemberCount)
	assert.Equal(t, 7000.0, summary.Inflows)
	assert.Equal(t, 3170.0, summary.Outflows)

	w = do(r, http.MethodGet, "/api/debug/data", "")
	require.Equal(t, http.StatusOK, w.Code)
	var debug struct {
		Backend string `json:"backend"`
		SHA     string `json:"sha"`
		Exists  bool   `json:"exists"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &debug))
	assert.Equal(t, "memory", debug.Backend)
	assert.True(t, debug.Exists)
	assert.NotEmpty(t, debug.SHA)

	w = do(r, http.MethodGet, "/api/debug/files", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"files":[`)

	w = do(r, http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"ok","backend":"memory"}`, w.Body.String())
}

type failingStore struct {
	*store.Memory
}

func (failingStore) Load(context.Context) (*store.Snapshot, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) List(context.Context) ([]store.FileInfo, error) {
	return nil, errors.New("disk on fire")
}

func TestStorageFailuresReturn500(t *testing.T) {
	r := newEngine(failingStore{store.NewMemory()})

	w := do(r, http.MethodGet, "/api/data", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to read data", errorMessage(t, w))
	assert.Contains(t, w.Body.String(), "disk on fire")

	w = do(r, http.MethodPost, "/api/add-contribution", contributionBody("Enoch", "2024-01", 1000))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to read data", errorMessage(t, w))

	w = do(r, http.MethodGet, "/api/debug/files", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to list files", errorMessage(t, w))
}
