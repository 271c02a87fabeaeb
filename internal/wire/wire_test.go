package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cinema-reservation/internal/data/memstore"
	"cinema-reservation/internal/usecase"
	"cinema-reservation/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

type apiClient struct {
	t      *testing.T
	router http.Handler
	token  string
}

func (c *apiClient) do(method, path string, body any) (int, envelope) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func testConfig() *utils.Config {
	return &utils.Config{
		JWT: utils.JWTConfig{Secret: "wire-secret", ExpiryHours: 1},
		Booking: utils.BookingConfig{
			HoldMinutes:          15,
			VIPDiscountPercent:   10,
			CleanupBufferMinutes: 15,
			SweepIntervalSeconds: 60,
			SweepBatchSize:       100,
		},
		Admin: utils.AdminConfig{Username: "admin", Password: "admin-pass"},
	}
}

// newTestApp serves the full router over the in-memory store and logs the bootstrap admin in.
func newTestApp(t *testing.T) (*apiClient, *utils.Config) {
	t.Helper()

	config := testConfig()
	repo := memstore.New(zap.NewNop()).Repository()
	app := Wiring(repo, config, zap.NewNop(), usecase.Dependencies{})
	require.NoError(t, app.Service.Auth.EnsureAdmin(context.Background()))

	client := &apiClient{t: t, router: app.Router}
	code, env := client.do(http.MethodPost, "/api/login", map[string]string{
		"username": "admin",
		"password": "admin-pass",
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	client.token = decode[struct {
		Token string `json:"token"`
	}](t, env.Data).Token

	return client, config
}

type seatRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// seedShowtime creates a 1x2 room, a movie, a showtime tomorrow and one customer.
func seedShowtime(t *testing.T, c *apiClient) (showtimeID, customerID string, seats map[string]string) {
	t.Helper()

	code, env := c.do(http.MethodPost, "/api/admin/rooms", map[string]any{
		"name": "Sala 2", "blocks": []string{"B1"}, "row_count": 1, "seats_per_row": 2,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	room := decode[struct {
		ID    string    `json:"id"`
		Seats []seatRef `json:"seats"`
	}](t, env.Data)

	seats = make(map[string]string, len(room.Seats))
	for _, s := range room.Seats {
		seats[s.Label] = s.ID
	}

	code, env = c.do(http.MethodPost, "/api/admin/movies", map[string]any{
		"title": "Dune", "duration_in_minutes": 155,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	movieID := decode[seatRef](t, env.Data).ID

	code, env = c.do(http.MethodPost, "/api/admin/showtimes", map[string]any{
		"movie_id":   movieID,
		"room_id":    room.ID,
		"starts_at":  time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"base_price": 10,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	showtimeID = decode[seatRef](t, env.Data).ID

	code, env = c.do(http.MethodPost, "/api/admin/customers", map[string]any{"name": "Carla"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	customerID = decode[seatRef](t, env.Data).ID

	return showtimeID, customerID, seats
}

func TestReservationFlowOverHTTP(t *testing.T) {
	c, _ := newTestApp(t)
	showtimeID, customerID, seats := seedShowtime(t, c)

	code, env := c.do(http.MethodPost, "/api/reservations", map[string]any{
		"customer_id": customerID,
		"showtime_id": showtimeID,
		"seat_ids":    []string{seats["B1-A1"]},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	held := decode[struct {
		ID         string  `json:"id"`
		Status     string  `json:"status"`
		OperatorID *string `json:"operator_id"`
		Total      float64 `json:"total"`
	}](t, env.Data)
	assert.Equal(t, "held", held.Status)
	assert.NotNil(t, held.OperatorID)
	assert.Equal(t, 10.0, held.Total)

	// the same seat again conflicts and names it
	code, env = c.do(http.MethodPost, "/api/sales", map[string]any{
		"customer_id": customerID,
		"showtime_id": showtimeID,
		"seat_ids":    []string{seats["B1-A1"], seats["B1-A2"]},
	})
	require.Equal(t, http.StatusConflict, code)
	conflict := decode[struct {
		SeatIDs []string `json:"seat_ids"`
		Seats   []string `json:"seats"`
	}](t, env.Errors)
	assert.Equal(t, []string{seats["B1-A1"]}, conflict.SeatIDs)
	assert.Equal(t, []string{"B1-A1"}, conflict.Seats)

	code, env = c.do(http.MethodPut, "/api/reservations/"+held.ID+"/confirm", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "sold", decode[struct {
		Status string `json:"status"`
	}](t, env.Data).Status)

	// confirming twice is an invalid transition
	code, env = c.do(http.MethodPut, "/api/reservations/"+held.ID+"/confirm", nil)
	require.Equal(t, http.StatusConflict, code)
	assert.JSONEq(t, `{"state":"sold"}`, string(env.Errors))

	code, env = c.do(http.MethodGet, "/api/showtimes/"+showtimeID+"/availability", nil)
	require.Equal(t, http.StatusOK, code)
	avail := decode[struct {
		FreeCount int `json:"free_count"`
		SoldCount int `json:"sold_count"`
	}](t, env.Data)
	assert.Equal(t, 1, avail.FreeCount)
	assert.Equal(t, 1, avail.SoldCount)

	code, env = c.do(http.MethodGet, "/api/reservations?status=sold&showtime_id="+showtimeID, nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, env.Data)
	require.Len(t, page.Data, 1)
	assert.Equal(t, held.ID, page.Data[0].ID)
}

func TestErrorMapping(t *testing.T) {
	c, _ := newTestApp(t)
	showtimeID, customerID, _ := seedShowtime(t, c)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"malformed body", http.MethodPost, "/api/reservations", "not-an-object", http.StatusBadRequest},
		{"empty selection", http.MethodPost, "/api/reservations",
			map[string]any{"customer_id": customerID, "showtime_id": showtimeID, "seat_ids": []string{}},
			http.StatusBadRequest},
		{"unknown seat", http.MethodPost, "/api/reservations",
			map[string]any{"customer_id": customerID, "showtime_id": showtimeID, "seat_ids": []string{uuid.NewString()}},
			http.StatusNotFound},
		{"unknown showtime", http.MethodGet, "/api/showtimes/" + uuid.NewString(), nil, http.StatusNotFound},
		{"unknown reservation", http.MethodPut, "/api/reservations/" + uuid.NewString() + "/cancel", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/reservations/xyz", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := c.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, code, env.Message)
			assert.False(t, env.Status)
		})
	}
}

func TestRoleGates(t *testing.T) {
	c, config := newTestApp(t)

	tok, err := utils.NewAccessToken(config.JWT.Secret, uuid.New(), "cashier", time.Hour, time.Now())
	require.NoError(t, err)
	cashier := &apiClient{t: t, router: c.router, token: tok.Token}
	anonymous := &apiClient{t: t, router: c.router}

	code, _ := cashier.do(http.MethodPost, "/api/admin/reservations/sweep", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = anonymous.do(http.MethodGet, "/api/reservations", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := cashier.do(http.MethodGet, "/api/reservations", nil)
	assert.Equal(t, http.StatusOK, code, env.Message)

	code, env = c.do(http.MethodPost, "/api/admin/reservations/sweep", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.JSONEq(t, `{"cancelled":0}`, string(env.Data))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	c, _ := newTestApp(t)
	c.token = ""

	code, _ := c.do(http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestHealth(t *testing.T) {
	c, _ := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
