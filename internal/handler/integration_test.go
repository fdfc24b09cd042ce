//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/savoria/api/internal/config"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/router"
	"github.com/savoria/api/internal/storage"
	"github.com/savoria/api/internal/ws"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestIntegrationFlow exercises the full API lifecycle against a real
// PostgreSQL database: registration, catalog management, checkout with a
// combo token, status updates, analytics, and the deletion cascade.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	_, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:        "8081",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
		UploadDir:   t.TempDir(),
	}
	queries := database.New(pool)
	images, err := storage.NewImageStore(cfg.UploadDir)
	if err != nil {
		t.Fatalf("create image store: %v", err)
	}
	hub := ws.NewHub()
	// NOTE: hub.Run() goroutine leaks on test exit — Hub has no shutdown
	// mechanism. Acceptable for tests.
	go hub.Run()

	r := router.New(cfg, queries, pool, hub, images)
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Register a customer and promote them to admin via SQL ---
	registerUser(t, server, "admin", "admin@test.com")
	if _, err := pool.Exec(ctx, `UPDATE users SET role = 'admin' WHERE email = $1`, "admin@test.com"); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	// Tokens carry the role claim, so log in again after promotion.
	adminToken := loginUser(t, server, "admin@test.com")

	customerToken := registerUser(t, server, "alice", "alice@test.com")

	// --- 2. Admin builds the catalog ---
	apiRequest(t, server, "POST", "/api/admin/categories", adminToken, map[string]interface{}{
		"name": "Mains",
	}, http.StatusCreated)

	pizza := apiRequest(t, server, "POST", "/api/admin/menu", adminToken, map[string]interface{}{
		"name":     "Margherita Pizza",
		"price":    13.75,
		"category": "Mains",
	}, http.StatusCreated)
	pizzaID := int64(pizza["id"].(float64))

	salmon := apiRequest(t, server, "POST", "/api/admin/menu", adminToken, map[string]interface{}{
		"name":     "Grilled Salmon",
		"price":    18.50,
		"category": "Mains",
	}, http.StatusCreated)
	salmonID := int64(salmon["id"].(float64))

	combo := apiRequest(t, server, "POST", "/api/admin/combos", adminToken, map[string]interface{}{
		"name":        "Dinner for Two",
		"combo_price": 28.00,
		"items": []map[string]interface{}{
			{"menu_item_id": pizzaID, "quantity": 1},
			{"menu_item_id": salmonID, "quantity": 1},
		},
	}, http.StatusCreated)
	comboID := int64(combo["id"].(float64))

	// Derived pricing: 13.75 + 18.50 = 32.25 a la carte, 4.25 saved.
	if combo["original_price"].(string) != "32.25" {
		t.Fatalf("combo original_price: got %v, want 32.25", combo["original_price"])
	}
	if combo["savings"].(string) != "4.25" {
		t.Fatalf("combo savings: got %v, want 4.25", combo["savings"])
	}

	// --- 3. Customer checks out with a menu line and a combo token ---
	order := apiRequest(t, server, "POST", "/api/orders", customerToken, map[string]interface{}{
		"total_amount":   41.75,
		"payment_method": "card",
		"order_type":     "delivery",
		"items": []map[string]interface{}{
			{"id": pizzaID, "name": "Margherita Pizza", "price": 13.75, "quantity": 1},
			{"id": fmt.Sprintf("combo-%d-170001", comboID), "name": "Dinner for Two", "price": 28.00, "quantity": 1},
		},
	}, http.StatusCreated)
	orderID := int64(order["id"].(float64))

	if order["status"].(string) != "pending" {
		t.Fatalf("new order status: got %v, want pending", order["status"])
	}
	if order["total_amount"].(string) != "41.75" {
		t.Fatalf("order total: got %v, want 41.75", order["total_amount"])
	}
	items := order["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("order lines: got %d, want 2", len(items))
	}
	comboLine := items[1].(map[string]interface{})
	if int64(comboLine["combo_deal_id"].(float64)) != comboID {
		t.Fatalf("combo line should reference combo %d, got %v", comboID, comboLine["combo_deal_id"])
	}

	// --- 4. Admin moves the order through the kitchen ---
	updated := apiRequest(t, server, "PATCH", fmt.Sprintf("/api/admin/orders/%d/status", orderID), adminToken, map[string]interface{}{
		"status": "preparing",
	}, http.StatusOK)
	if updated["status"].(string) != "preparing" {
		t.Fatalf("order status: got %v, want preparing", updated["status"])
	}

	// Customers cannot touch admin endpoints.
	apiRequest(t, server, "PATCH", fmt.Sprintf("/api/admin/orders/%d/status", orderID), customerToken, map[string]interface{}{
		"status": "ready",
	}, http.StatusForbidden)

	// --- 5. Analytics pick up today's order ---
	sales := apiRequest(t, server, "GET", "/api/admin/analytics/sales?period=day", adminToken, nil, http.StatusOK)
	data := sales["data"].([]interface{})
	if len(data) != 30 {
		t.Fatalf("day series: got %d buckets, want 30", len(data))
	}
	today := data[len(data)-1].(map[string]interface{})
	if today["orders"].(float64) != 1 {
		t.Fatalf("today's bucket: got %v orders, want 1", today["orders"])
	}
	if today["sales"].(string) != "41.75" {
		t.Fatalf("today's sales: got %v, want 41.75", today["sales"])
	}

	stats := apiRequest(t, server, "GET", "/api/admin/analytics/stats", adminToken, nil, http.StatusOK)
	todayWindow := stats["today"].(map[string]interface{})
	if todayWindow["orders"].(float64) != 1 {
		t.Fatalf("stats today orders: got %v, want 1", todayWindow["orders"])
	}

	// --- 6. Deleting the pizza detaches the ledger line but keeps it ---
	del := apiRequest(t, server, "DELETE", fmt.Sprintf("/api/admin/menu/%d", pizzaID), adminToken, nil, http.StatusOK)
	if del["line_items_detached"].(float64) != 1 {
		t.Fatalf("cascade detached: got %v, want 1", del["line_items_detached"])
	}
	if del["memberships_deleted"].(float64) != 1 {
		t.Fatalf("cascade memberships: got %v, want 1", del["memberships_deleted"])
	}

	after := apiRequest(t, server, "GET", fmt.Sprintf("/api/orders/%d", orderID), customerToken, nil, http.StatusOK)
	afterItems := after["items"].([]interface{})
	pizzaLine := afterItems[0].(map[string]interface{})
	if pizzaLine["menu_item_id"] != nil {
		t.Fatalf("detached line should have null menu_item_id, got %v", pizzaLine["menu_item_id"])
	}
	if pizzaLine["name"].(string) != "Margherita Pizza" {
		t.Fatalf("snapshot name lost: got %v", pizzaLine["name"])
	}
	if pizzaLine["price"].(string) != "13.75" {
		t.Fatalf("snapshot price lost: got %v", pizzaLine["price"])
	}

	// --- 7. Category delete policy: still referenced, so soft delete ---
	categories := apiListRequest(t, server, "GET", "/api/admin/categories", adminToken, http.StatusOK)
	var categoryID int64
	for _, c := range categories {
		cat := c.(map[string]interface{})
		if cat["name"].(string) == "Mains" {
			categoryID = int64(cat["id"].(float64))
		}
	}
	catDel := apiRequest(t, server, "DELETE", fmt.Sprintf("/api/admin/categories/%d", categoryID), adminToken, nil, http.StatusOK)
	if catDel["deactivated"].(bool) != true {
		t.Fatalf("expected soft delete of referenced category, got %v", catDel)
	}
	// Salmon still references Mains.
	if catDel["affected_items"].(float64) != 1 {
		t.Fatalf("affected items: got %v, want 1", catDel["affected_items"])
	}
}

// --- Infrastructure helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("savoria_test"),
		tcpostgres.WithUsername("savoria"),
		tcpostgres.WithPassword("savoria"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

// --- API helpers ---

func registerUser(t *testing.T, server *httptest.Server, username, email string) string {
	t.Helper()
	resp := apiRequest(t, server, "POST", "/api/auth/register", "", map[string]interface{}{
		"username": username,
		"email":    email,
		"password": "password123",
	}, http.StatusCreated)
	return resp["access_token"].(string)
}

func loginUser(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()
	resp := apiRequest(t, server, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "password123",
	}, http.StatusOK)
	return resp["access_token"].(string)
}

func apiRequest(t *testing.T, server *httptest.Server, method, path, token string, body interface{}, wantStatus int) map[string]interface{} {
	t.Helper()
	raw := rawAPIRequest(t, server, method, path, token, body, wantStatus)
	var resp map[string]interface{}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("%s %s: decode response: %v (%s)", method, path, err, raw)
	}
	return resp
}

func apiListRequest(t *testing.T, server *httptest.Server, method, path, token string, wantStatus int) []interface{} {
	t.Helper()
	raw := rawAPIRequest(t, server, method, path, token, nil, wantStatus)
	var resp []interface{}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("%s %s: decode list response: %v (%s)", method, path, err, raw)
	}
	return resp
}

func rawAPIRequest(t *testing.T, server *httptest.Server, method, path, token string, body interface{}, wantStatus int) []byte {
	t.Helper()

	var req *http.Request
	var err error
	if body != nil {
		b, merr := json.Marshal(body)
		if merr != nil {
			t.Fatalf("marshal request: %v", merr)
		}
		req, err = http.NewRequest(method, server.URL+path, bytes.NewReader(b))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequest(method, server.URL+path, nil)
	}
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: got status %d, want %d: %s", method, path, resp.StatusCode, wantStatus, buf.String())
	}
	return buf.Bytes()
}
