package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-floor/config"
	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/router"
	"github.com/yeremiapane/restaurant-floor/testutil"
	"github.com/yeremiapane/restaurant-floor/utils"
)

var jwtSecret = []byte("integration-secret")

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type response struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupServer(t *testing.T) (*httptest.Server, *kds.Hub, []models.MenuItem) {
	t.Helper()

	db := testutil.OpenDB(t)
	menu := testutil.SeedMenu(t, db)
	testutil.SeedTables(t, db, 4, 2)

	cfg := &config.Config{StoreTimeout: time.Second, StoreRetries: 1}
	hub := kds.NewHub()
	floor, catalog := buildFloor(db, cfg, hub)
	require.NoError(t, floor.Load(context.Background()))

	r := router.SetupRouter(router.Deps{
		Floor:       floor,
		Catalog:     catalog,
		Hub:         hub,
		JWTSecret:   jwtSecret,
		CORSOrigins: []string{"http://localhost:3000"},
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, menu
}

func tokenFor(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(jwtSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return token
}

func call(t *testing.T, srv *httptest.Server, token, method, path string, body interface{}) (int, response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// TestEndToEndIntegration walks a dine-in order from seating to settlement:
// 1. Staff seats an order at table 1
// 2. The kitchen screen hears about it
// 3. Chef moves it to preparing, staff serves it
// 4. Cashier settles it and the table is free again
func TestEndToEndIntegration(t *testing.T) {
	srv, hub, menu := setupServer(t)
	staff := tokenFor(t, 2, models.RoleStaff)
	chef := tokenFor(t, 4, models.RoleChef)
	cashier := tokenFor(t, 3, models.RoleCashier)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/floor/ws?token=" + chef
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	code, res := call(t, srv, staff, http.MethodPost, "/orders", gin.H{
		"table_id": 1,
		"items": []gin.H{
			{"menu_item_id": menu[0].ID, "quantity": 2},
			{"menu_item_id": menu[1].ID, "quantity": 2, "notes": "less sugar"},
		},
	})
	require.Equal(t, http.StatusCreated, code, res.Message)
	var placed struct {
		Order models.Order `json:"order"`
		Table models.Table `json:"table"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &placed))
	assert.Equal(t, models.TableOccupied, placed.Table.Status)
	assert.True(t, placed.Order.TotalAmount.Equal(decimal.NewFromInt(60000)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	sawKitchenUpdate := false
	for !sawKitchenUpdate {
		var msg kds.Message
		require.NoError(t, conn.ReadJSON(&msg))
		sawKitchenUpdate = msg.Event == kds.EventKitchenUpdate
	}

	orderPath := fmt.Sprintf("/orders/%d", placed.Order.ID)

	code, res = call(t, srv, chef, http.MethodPatch, orderPath+"/status", gin.H{"status": "preparing"})
	require.Equal(t, http.StatusOK, code, res.Message)
	code, res = call(t, srv, staff, http.MethodPatch, orderPath+"/status", gin.H{"status": "served"})
	require.Equal(t, http.StatusOK, code, res.Message)

	code, _ = call(t, srv, chef, http.MethodPost, orderPath+"/payments", gin.H{"payment_method": "cash", "amount_tendered": "60000"})
	assert.Equal(t, http.StatusForbidden, code)

	code, res = call(t, srv, cashier, http.MethodPost, orderPath+"/payments", gin.H{"payment_method": "card", "amount_tendered": "60000"})
	require.Equal(t, http.StatusCreated, code, res.Message)

	code, res = call(t, srv, staff, http.MethodGet, "/tables/1", nil)
	require.Equal(t, http.StatusOK, code)
	var table models.Table
	require.NoError(t, json.Unmarshal(res.Data, &table))
	assert.Equal(t, models.TableAvailable, table.Status)
	assert.Nil(t, table.CurrentOrderID)

	code, res = call(t, srv, staff, http.MethodGet, "/floor/check", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Floor is consistent", res.Message)
}

func TestRoutesRequireToken(t *testing.T) {
	srv, _, _ := setupServer(t)

	code, _ := call(t, srv, "", http.MethodGet, "/tables", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	resp, err := srv.Client().Get(srv.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	code, _ = call(t, srv, tokenFor(t, 2, models.RoleStaff), http.MethodPost, "/floor/reload", nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = call(t, srv, tokenFor(t, 1, models.RoleAdmin), http.MethodPost, "/floor/reload", nil)
	assert.Equal(t, http.StatusOK, code)
}
