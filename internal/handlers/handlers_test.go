package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"smartshop/internal/ai"
	"smartshop/internal/auth"
	"smartshop/internal/handlers"
	"smartshop/internal/middleware"
	"smartshop/internal/models"
	"smartshop/internal/pos"
	"smartshop/internal/store/memory"
	"smartshop/internal/syncer"
)

type env struct {
	router *gin.Engine
	tokens *auth.Tokens
	pos    *pos.Controller
	store  *memory.Store
}

// newEnv wires a full router against in-memory collaborators, mirroring
// the production route table.
func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	adminHash, err := auth.HashPIN("1234")
	if err != nil {
		t.Fatalf("HashPIN: %v", err)
	}
	staffHash, err := auth.HashPIN("5678")
	if err != nil {
		t.Fatalf("HashPIN: %v", err)
	}
	gate := auth.NewGate(auth.GateConfig{AdminPINHash: adminHash, StaffPINHash: staffHash})
	tokens := auth.NewTokens(strings.Repeat("x", 32), time.Hour)

	st := memory.New()
	var committer *syncer.Syncer
	controller := pos.New(pos.Options{
		RequireCustomerName: true,
		OnChange:            func() { committer.Notify() },
	})
	committer = syncer.New(st, func() ([]models.Product, []models.Sale) {
		return controller.Products(), controller.Sales()
	}, 20*time.Millisecond)
	t.Cleanup(committer.Close)

	h := &handlers.Handler{
		POS:        controller,
		Gate:       gate,
		Tokens:     tokens,
		Recognizer: ai.NewRecognizer("", nil),
		Syncer:     committer,
		UploadDir:  t.TempDir(),
		BaseURL:    "http://localhost:8080",
	}

	r := gin.New()
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokens))
	{
		api.GET("/system/status", h.GetSystemStatus)
		api.GET("/products", h.GetProducts)
		api.GET("/products/sold", h.GetSoldProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/stats", h.GetStats)
		api.POST("/checkout", h.Checkout)
		api.POST("/scan", h.ScanProduct)

		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/products", h.AddProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.POST("/products/:id/restock", h.RestockProduct)
			admin.GET("/reports", h.GetSalesReport)
			admin.GET("/reports/valuation", h.GetStockValuation)
			admin.GET("/backup/export", h.ExportBackup)
			admin.POST("/backup/import", h.ImportBackup)
		}
	}

	return &env{router: r, tokens: tokens, pos: controller, store: st}
}

func (e *env) token(t *testing.T, role auth.Role) string {
	t.Helper()
	token, err := e.tokens.Generate(role)
	if err != nil {
		t.Fatalf("Generate(%s): %v", role, err)
	}
	return token
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func (e *env) addProduct(t *testing.T, token string, in pos.ProductInput) models.Product {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/products", token, in)
	if w.Code != http.StatusCreated {
		t.Fatalf("AddProduct status = %d, body %s", w.Code, w.Body.String())
	}
	var p models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	return p
}

func TestLogin(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/login", "", gin.H{"role": "admin", "pin": "1234"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["token"] == "" || resp["role"] != "admin" {
		t.Fatalf("unexpected login response: %v", resp)
	}

	w = e.do(t, http.MethodPost, "/login", "", gin.H{"role": "admin", "pin": "9999"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong pin status = %d, want 401", w.Code)
	}

	w = e.do(t, http.MethodPost, "/login", "", gin.H{"role": "manager", "pin": "1234"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown role status = %d, want 400", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/products", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/products", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/products", e.token(t, auth.RoleStaff), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("staff list status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestAdminOnlyRoutes(t *testing.T) {
	e := newEnv(t)
	staff := e.token(t, auth.RoleStaff)

	input := pos.ProductInput{Name: "Test", SellingPrice: 1000, ImageURL: "/img.jpg"}
	w := e.do(t, http.MethodPost, "/api/products", staff, input)
	if w.Code != http.StatusForbidden {
		t.Fatalf("staff add product status = %d, want 403", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/reports", staff, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("staff reports status = %d, want 403", w.Code)
	}

	e.addProduct(t, e.token(t, auth.RoleAdmin), input)
}

func TestProductLifecycle(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, auth.RoleAdmin)
	staff := e.token(t, auth.RoleStaff)

	p := e.addProduct(t, admin, pos.ProductInput{
		Name:          "Cà Phê Sữa",
		Brand:         "Trung Nguyên",
		PurchasePrice: 12000,
		SellingPrice:  20000,
		Stock:         10,
		ImageURL:      "/uploads/coffee.jpg",
	})

	// Diacritic-insensitive search from an unaccented query.
	w := e.do(t, http.MethodGet, "/api/products?q=ca+phe", staff, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	var found []models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &found); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(found) != 1 || found[0].ID != p.ID {
		t.Fatalf("search returned %v, want the coffee product", found)
	}

	w = e.do(t, http.MethodGet, "/api/products/"+p.ID, staff, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get by id status = %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/products/missing", staff, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing product status = %d, want 404", w.Code)
	}

	newPrice := 25000.0
	w = e.do(t, http.MethodPut, "/api/products/"+p.ID, admin, pos.ProductPatch{SellingPrice: &newPrice})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/api/products/"+p.ID+"/restock", admin, gin.H{"quantity": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("restock status = %d, body %s", w.Code, w.Body.String())
	}
	got, err := e.pos.GetProduct(p.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.Stock != 15 {
		t.Fatalf("stock after restock = %d, want 15", got.Stock)
	}
	if got.SellingPrice != 25000 {
		t.Fatalf("price after update = %v, want 25000", got.SellingPrice)
	}
}

func TestCheckout(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, auth.RoleAdmin)
	staff := e.token(t, auth.RoleStaff)

	p := e.addProduct(t, admin, pos.ProductInput{
		Name: "Nước Suối", PurchasePrice: 3000, SellingPrice: 5000, Stock: 7, ImageURL: "/w.jpg",
	})

	customer := models.CustomerInfo{FullName: "Nguyễn Văn An"}
	w := e.do(t, http.MethodPost, "/api/checkout", staff, gin.H{
		"productId": p.ID, "quantity": 3, "customer": customer,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("checkout status = %d, body %s", w.Code, w.Body.String())
	}

	got, _ := e.pos.GetProduct(p.ID)
	if got.Stock != 4 {
		t.Fatalf("stock after sale = %d, want 4", got.Stock)
	}

	// More than remains on the shelf.
	w = e.do(t, http.MethodPost, "/api/checkout", staff, gin.H{
		"productId": p.ID, "quantity": 5, "customer": customer,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("oversell status = %d, want 409", w.Code)
	}
	got, _ = e.pos.GetProduct(p.ID)
	if got.Stock != 4 {
		t.Fatalf("stock after rejected sale = %d, want 4", got.Stock)
	}

	// Customer name is mandatory under the default policy.
	w = e.do(t, http.MethodPost, "/api/checkout", staff, gin.H{
		"productId": p.ID, "quantity": 1, "customer": models.CustomerInfo{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("nameless checkout status = %d, want 400", w.Code)
	}
}

func TestSalesReportEndpoint(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, auth.RoleAdmin)
	staff := e.token(t, auth.RoleStaff)

	p := e.addProduct(t, admin, pos.ProductInput{
		Name: "Bánh Mì", PurchasePrice: 8000, SellingPrice: 15000, Stock: 20, ImageURL: "/b.jpg",
	})
	w := e.do(t, http.MethodPost, "/api/checkout", staff, gin.H{
		"productId": p.ID, "quantity": 2, "customer": models.CustomerInfo{FullName: "Trần Thị Bích"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("checkout status = %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/reports", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["revenue"].(float64) != 30000 {
		t.Fatalf("revenue = %v, want 30000", resp["revenue"])
	}
	if resp["profit"].(float64) != 14000 {
		t.Fatalf("profit = %v, want 14000", resp["profit"])
	}
	if resp["count"].(float64) != 1 {
		t.Fatalf("count = %v, want 1", resp["count"])
	}

	w = e.do(t, http.MethodGet, "/api/reports?from=not-a-date", admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", w.Code)
	}
}

func TestStockValuationEndpoint(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, auth.RoleAdmin)

	e.addProduct(t, admin, pos.ProductInput{
		Name: "Sữa Tươi", Brand: "Vinamilk", PurchasePrice: 7000, SellingPrice: 10000, Stock: 10, ImageURL: "/s.jpg",
	})
	e.addProduct(t, admin, pos.ProductInput{
		Name: "Kẹo Dừa", PurchasePrice: 2000, SellingPrice: 4000, Stock: 5, ImageURL: "/k.jpg",
	})

	w := e.do(t, http.MethodGet, "/api/reports/valuation", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("valuation status = %d", w.Code)
	}
	resp := decode(t, w)
	if resp["grandTotal"].(float64) != 80000 {
		t.Fatalf("grandTotal = %v, want 80000", resp["grandTotal"])
	}
	groups := resp["groups"].([]any)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2 (Vinamilk and Unbranded)", len(groups))
	}
}

func TestBackupRoundTrip(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, auth.RoleAdmin)
	staff := e.token(t, auth.RoleStaff)

	p := e.addProduct(t, admin, pos.ProductInput{
		Name: "Trà Xanh", PurchasePrice: 4000, SellingPrice: 8000, Stock: 12, ImageURL: "/t.jpg",
	})
	w := e.do(t, http.MethodPost, "/api/checkout", staff, gin.H{
		"productId": p.ID, "quantity": 2, "customer": models.CustomerInfo{FullName: "Lê Văn Cường"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("checkout status = %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/backup/export", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "SmartShop_Backup_") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	exported := append([]byte(nil), w.Body.Bytes()...)

	// Wipe and restore from the export.
	e.pos.ReplaceAll(nil, nil)
	if len(e.pos.Products()) != 0 {
		t.Fatal("expected empty state after wipe")
	}

	w = e.importBackup(t, admin, exported)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", w.Code, w.Body.String())
	}
	if len(e.pos.Products()) != 1 || len(e.pos.Sales()) != 1 {
		t.Fatalf("restored %d products / %d sales, want 1/1", len(e.pos.Products()), len(e.pos.Sales()))
	}
	got, err := e.pos.GetProduct(p.ID)
	if err != nil {
		t.Fatalf("GetProduct after restore: %v", err)
	}
	if got.Stock != 10 {
		t.Fatalf("restored stock = %d, want 10", got.Stock)
	}

	// The restore is flushed through to the store immediately.
	catalog, _, allSales := e.store.Counters()
	if catalog == 0 || allSales == 0 {
		t.Fatalf("expected a flush after import, counters = %d/%d", catalog, allSales)
	}
}

func TestImportRejectsPartialSnapshot(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, auth.RoleAdmin)

	e.addProduct(t, admin, pos.ProductInput{Name: "Keep Me", SellingPrice: 100, ImageURL: "/x.jpg"})

	w := e.importBackup(t, admin, []byte(`{"version":"1.0","timestamp":1,"products":[]}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("partial import status = %d, want 400", w.Code)
	}
	if len(e.pos.Products()) != 1 {
		t.Fatal("rejected import must leave running state untouched")
	}
}

func (e *env) importBackup(t *testing.T, token string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "backup.json")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/backup/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestScanWithoutAPIKey(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/scan", e.token(t, auth.RoleStaff), nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("scan status = %d, want 503", w.Code)
	}
}

func TestSystemStatus(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/system/status", e.token(t, auth.RoleStaff), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode(t, w)
	if resp["recognition"] != false {
		t.Fatalf("recognition = %v, want false", resp["recognition"])
	}
}
