package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tablemate/dinein-backend/config"
	"github.com/tablemate/dinein-backend/events"
	"github.com/tablemate/dinein-backend/middlewares"
	"github.com/tablemate/dinein-backend/models"
	"github.com/tablemate/dinein-backend/router"
	"github.com/tablemate/dinein-backend/utils"
)

// Full dine-in session against a live server: two adhoc orders, an
// admin observing over the websocket, a merge into the final bill, and
// a reconciliation fetch of authoritative state afterwards.
func TestDineInSessionEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Menu{}, &models.CartItem{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatal(err)
	}

	hub := events.NewHub()
	r := router.SetupRouter(db, hub, config.Config{Port: "0"}, middlewares.NewRateLimiter(1000, 1))
	srv := httptest.NewServer(r)
	defer srv.Close()

	userToken, err := utils.GenerateToken(1, "customer")
	assert.NoError(t, err)
	adminToken, err := utils.GenerateToken(2, "admin")
	assert.NoError(t, err)

	// Admin panel subscribes before anything happens.
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + adminToken
	observer, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err)
	defer observer.Close()

	waitForObserver(t, hub)

	post := func(url, token string, body interface{}) map[string]interface{} {
		t.Helper()
		var buf bytes.Buffer
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
		req, err := http.NewRequest("POST", srv.URL+url, &buf)
		assert.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := http.DefaultClient.Do(req)
		assert.NoError(t, err)
		defer res.Body.Close()
		var out map[string]interface{}
		assert.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		return out
	}

	session := "sess-e2e"
	post("/api/order/place", userToken, gin.H{
		"table_number": 4,
		"session_ref":  session,
		"order_kind":   "adhoc",
		"items":        []gin.H{{"item_ref": "x", "name": "Item X", "unit_price": 10, "quantity": 2}},
	})
	assert.Equal(t, events.EventOrderCreated, readEvent(t, observer).Event)

	post("/api/order/place", userToken, gin.H{
		"table_number": 4,
		"session_ref":  session,
		"order_kind":   "adhoc",
		"items": []gin.H{
			{"item_ref": "x", "name": "Item X", "unit_price": 10, "quantity": 1},
			{"item_ref": "y", "name": "Item Y", "unit_price": 4, "quantity": 3},
		},
	})
	assert.Equal(t, events.EventOrderCreated, readEvent(t, observer).Event)

	resp := post("/api/order/merge", adminToken, gin.H{"session_ref": session, "pay_all": true})
	assert.Equal(t, true, resp["status"])
	final := resp["data"].(map[string]interface{})
	assert.Equal(t, "final", final["order_kind"])
	assert.Equal(t, float64(42), final["merged_amount"])
	assert.Equal(t, "paid", final["payment_status"])
	assert.Equal(t, events.EventOrderCreated, readEvent(t, observer).Event)

	// Events are hints; the admin re-fetches the authoritative list.
	req, err := http.NewRequest("GET", srv.URL+"/api/order/list?kind=adhoc", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	res, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer res.Body.Close()
	var listResp map[string]interface{}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&listResp))

	adhocs := listResp["data"].([]interface{})
	assert.Len(t, adhocs, 2)
	for _, raw := range adhocs {
		assert.Equal(t, true, raw.(map[string]interface{})["merged"])
	}
}

func waitForObserver(t *testing.T, hub *events.Hub) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() == 0 {
		t.Fatal("observer never registered on the hub")
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var msg events.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	return msg
}
