package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend-ticketing/internal/audit"
	"backend-ticketing/internal/excel"
	"backend-ticketing/internal/http/handler"
	"backend-ticketing/internal/queue"
	"backend-ticketing/internal/rfq"
	"backend-ticketing/internal/store"
	"backend-ticketing/internal/users"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s := store.New(rdb)
	h := handler.New(queue.New(s), rfq.New(s), users.New(s), audit.New(s))

	app := fiber.New()
	Register(app, h)
	return app
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// The seeded defaults double as test credentials.
var (
	pmAuth    = basicAuth("pmadmin", "Bailey")
	superAuth = basicAuth("superadmin", "Eunice")
)

func rawRequest(t *testing.T, app *fiber.App, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	_, err = rec.Body.Write(data)
	require.NoError(t, err)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) fiber.Map {
	t.Helper()
	var out fiber.Map
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLiveness(t *testing.T) {
	app := newTestApp(t)
	rec := rawRequest(t, app, "GET", "/", "", nil)
	assert.Equal(t, fiber.StatusOK, rec.Code)
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)

	rec := rawRequest(t, app, "POST", "/api/auth/login", "", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)

	rec = rawRequest(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"username": "pmadmin", "password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, rec.Code)

	rec = rawRequest(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"username": "pmadmin", "password": "Bailey",
	})
	require.Equal(t, fiber.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "pm", out["role"])
}

func TestRoleGates(t *testing.T) {
	app := newTestApp(t)

	rec := rawRequest(t, app, "POST", "/api/next", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, rec.Code)

	rec = rawRequest(t, app, "POST", "/api/next", "Basic not-base64!", nil)
	assert.Equal(t, fiber.StatusUnauthorized, rec.Code)

	// A sales account fails the pm gate
	rec = rawRequest(t, app, "POST", "/api/users", superAuth, fiber.Map{
		"username": "seller", "password": "pw", "role": "sales",
	})
	require.Equal(t, fiber.StatusOK, rec.Code)
	rec = rawRequest(t, app, "POST", "/api/next", basicAuth("seller", "pw"), nil)
	assert.Equal(t, fiber.StatusForbidden, rec.Code)

	// Super passes the pm gate; the empty queue rejection proves the
	// request reached the handler
	rec = rawRequest(t, app, "POST", "/api/next", superAuth, nil)
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)
}

func TestTicketLifecycle(t *testing.T) {
	app := newTestApp(t)

	rec := rawRequest(t, app, "POST", "/api/ticket", "", fiber.Map{
		"applicant":    "amy",
		"customerName": "Acme",
	})
	require.Equal(t, fiber.StatusCreated, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["ticketNumber"])

	rec = rawRequest(t, app, "GET", "/api/tickets", "", nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.EqualValues(t, 1, out["waitingCount"])

	rec = rawRequest(t, app, "PATCH", "/api/ticket/1", pmAuth, fiber.Map{
		"status": "processing",
	})
	require.Equal(t, fiber.StatusOK, rec.Code)
	assert.Equal(t, "processing", decode(t, rec)["status"])

	rec = rawRequest(t, app, "PATCH", "/api/ticket/1", pmAuth, fiber.Map{
		"status": "shipped",
	})
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)

	rec = rawRequest(t, app, "PATCH", "/api/ticket/abc", pmAuth, fiber.Map{
		"status": "pending",
	})
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)

	rec = rawRequest(t, app, "DELETE", "/api/ticket/1", pmAuth, nil)
	assert.Equal(t, fiber.StatusOK, rec.Code)

	rec = rawRequest(t, app, "PATCH", "/api/ticket/1", pmAuth, fiber.Map{
		"note": "gone",
	})
	assert.Equal(t, fiber.StatusNotFound, rec.Code)
}

func TestStateEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := rawRequest(t, app, "GET", "/api/state", "", nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.EqualValues(t, 0, out["currentNumber"])

	rec = rawRequest(t, app, "PATCH", "/api/state", pmAuth, fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)

	rec = rawRequest(t, app, "PATCH", "/api/state", pmAuth, fiber.Map{
		"currentNumber": 7,
	})
	require.Equal(t, fiber.StatusOK, rec.Code)
	assert.EqualValues(t, 7, decode(t, rec)["currentNumber"])

	rec = rawRequest(t, app, "GET", "/api/state", "", nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	assert.EqualValues(t, 7, decode(t, rec)["currentNumber"])
}

func TestRFQEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := rawRequest(t, app, "POST", "/api/rfq/mb", pmAuth, nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	rfqNo, _ := decode(t, rec)["rfqNo"].(string)
	assert.Equal(t, "RFQ(M)-000", rfqNo)

	rec = rawRequest(t, app, "POST", "/api/rfq/mb", pmAuth, fiber.Map{
		"rfqNo": "RFQ(M)-000",
	})
	assert.Equal(t, fiber.StatusConflict, rec.Code)

	rec = rawRequest(t, app, "GET", "/api/rfq/mb", "", nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "RFQ(M)-000")

	rec = rawRequest(t, app, "PATCH", "/api/rfq/mb/RFQ(M)-000", pmAuth, fiber.Map{
		"assignee": "Alice",
	})
	require.Equal(t, fiber.StatusOK, rec.Code)

	rec = rawRequest(t, app, "GET", "/api/rfq/mb/RFQ(M)-000", "", nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decode(t, rec)["assignee"])

	rec = rawRequest(t, app, "GET", "/api/rfq/mb/RFQ(M)-000/history", "", nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice")

	rec = rawRequest(t, app, "GET", "/api/rfq/warehouse", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)
}

// The fixed export path must not be swallowed by the :area wildcard.
func TestRFQExportRouteOrder(t *testing.T) {
	app := newTestApp(t)

	rec := rawRequest(t, app, "GET", "/api/rfq/export", "", nil)
	assert.Equal(t, fiber.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No RFQ data to export")
}

func TestRFQImportEndpoint(t *testing.T) {
	app := newTestApp(t)

	workbook, err := excel.Write([]excel.Sheet{{
		Name:   "MB RFQ",
		Header: []string{"banner"},
		Rows: [][]string{
			{"RFQ Status", "RFQ No.", "Customer"},
			{"processing", "RFQ(M)-000", "Acme"},
		},
	}})
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "rfq.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/rfq/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", superAuth)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"created":1`)

	rec := rawRequest(t, app, "GET", "/api/rfq/mb/RFQ(M)-000", "", nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	assert.Equal(t, "processing", decode(t, rec)["workflowStatus"])
}

func TestResetRestrictedToSuperadmin(t *testing.T) {
	app := newTestApp(t)

	// Another super-role account is still rejected
	rec := rawRequest(t, app, "POST", "/api/users", superAuth, fiber.Map{
		"username": "boss", "password": "pw", "role": "super",
	})
	require.Equal(t, fiber.StatusOK, rec.Code)
	rec = rawRequest(t, app, "POST", "/api/reset", basicAuth("boss", "pw"), nil)
	assert.Equal(t, fiber.StatusForbidden, rec.Code)

	rec = rawRequest(t, app, "POST", "/api/reset", pmAuth, nil)
	assert.Equal(t, fiber.StatusForbidden, rec.Code)

	rawRequest(t, app, "POST", "/api/ticket", "", nil)
	rec = rawRequest(t, app, "POST", "/api/reset", superAuth, nil)
	require.Equal(t, fiber.StatusOK, rec.Code)

	rec = rawRequest(t, app, "GET", "/api/state", "", nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.EqualValues(t, 0, out["lastTicket"])
	assert.EqualValues(t, 1, out["nextNumber"])
}

func TestLogsEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := rawRequest(t, app, "POST", "/api/logs", "", fiber.Map{
		"username": "kiosk-3", "action": "page:view",
	})
	assert.Equal(t, fiber.StatusOK, rec.Code)

	rec = rawRequest(t, app, "POST", "/api/logs", "", fiber.Map{
		"username": "kiosk-3",
	})
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)

	rec = rawRequest(t, app, "GET", "/api/logs", pmAuth, nil)
	assert.Equal(t, fiber.StatusForbidden, rec.Code)

	rec = rawRequest(t, app, "GET", "/api/logs", superAuth, nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "page:view")

	rec = rawRequest(t, app, "GET", "/api/logs/export", superAuth, nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "ts,username,role,action,detail"))
}

func TestUsersEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := rawRequest(t, app, "GET", "/api/users", pmAuth, nil)
	assert.Equal(t, fiber.StatusForbidden, rec.Code)

	rec = rawRequest(t, app, "GET", "/api/users", superAuth, nil)
	require.Equal(t, fiber.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "pmadmin")
	assert.Contains(t, body, "superadmin")
	assert.NotContains(t, body, "Bailey")

	rec = rawRequest(t, app, "POST", "/api/users", superAuth, fiber.Map{
		"username": "x", "password": "pw", "role": "manager",
	})
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)

	rec = rawRequest(t, app, "PATCH", "/api/users/superadmin", superAuth, fiber.Map{
		"password": "newpw",
	})
	assert.Equal(t, fiber.StatusBadRequest, rec.Code)

	rec = rawRequest(t, app, "GET", "/api/users/ghost", superAuth, nil)
	assert.Equal(t, fiber.StatusNotFound, rec.Code)
}
