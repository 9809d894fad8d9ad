package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"smartshop/internal/ai"
	"smartshop/internal/auth"
	"smartshop/internal/config"
	"smartshop/internal/handlers"
	"smartshop/internal/middleware"
	"smartshop/internal/models"
	"smartshop/internal/pos"
	"smartshop/internal/store"
	"smartshop/internal/store/gormstore"
	"smartshop/internal/store/mirror"
	"smartshop/internal/syncer"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}
	cfg := config.Load()

	// --- Persistence: local embedded store, optional remote mirror ---
	local, err := gormstore.Open(cfg.DBPath, cfg.DBDSN)
	if err != nil {
		log.Fatal("Failed to open local store: ", err)
	}
	gateway := &store.Tee{Local: local, Mirror: buildMirror(cfg)}

	// --- PIN gate + session tokens ---
	adminHash, err := auth.HashPIN(cfg.AdminPIN)
	if err != nil {
		log.Fatal("Invalid ADMIN_PIN: ", err)
	}
	staffHash, err := auth.HashPIN(cfg.StaffPIN)
	if err != nil {
		log.Fatal("Invalid STAFF_PIN: ", err)
	}
	gate := auth.NewGate(auth.GateConfig{
		AdminPINHash: adminHash,
		StaffPINHash: staffHash,
		MaxAttempts:  cfg.MaxAttempts,
		Lockout:      cfg.Lockout,
	})
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL)

	// --- Recognition gateway, with optional Redis result cache ---
	var scanCache ai.ScanCache = ai.NoopScanCache{}
	if cfg.RedisAddr != "" {
		redisCache := ai.NewRedisScanCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			log.Printf("Redis unreachable, scan cache disabled: %v", err)
		} else {
			scanCache = redisCache
			defer redisCache.Close()
		}
		cancel()
	}
	recognizer := ai.NewRecognizer(cfg.GeminiAPIKey, scanCache)

	// --- POS core, wired to the debounced committer ---
	// The committer is assigned after the controller exists; until then
	// the callbacks are no-ops, which is fine because nothing mutates
	// state before main finishes wiring.
	var committer *syncer.Syncer
	controller := pos.New(pos.Options{
		RequireCustomerName: cfg.RequireCustomerName,
		OnChange: func() {
			if committer != nil {
				committer.Notify()
			}
		},
		OnSale: func(sale models.Sale) {
			// Each completed sale is written through immediately as well;
			// the debounced flush will upsert the same row harmlessly.
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := gateway.SaveSale(ctx, sale); err != nil {
					log.Printf("local store: sale write failed: %v", err)
				}
			}()
		},
	})
	committer = syncer.New(gateway, func() ([]models.Product, []models.Sale) {
		return controller.Products(), controller.Sales()
	}, cfg.SyncDebounce)

	loadState(controller, gateway)

	h := &handlers.Handler{
		POS:        controller,
		Gate:       gate,
		Tokens:     tokens,
		Recognizer: recognizer,
		Syncer:     committer,
		UploadDir:  cfg.UploadDir,
		BaseURL:    cfg.BaseURL,
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("Failed to create upload dir: ", err)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.Static("/uploads", cfg.UploadDir)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokens))
	{
		// STAFF & ADMIN
		api.GET("/system/status", h.GetSystemStatus)
		api.GET("/products", h.GetProducts)
		api.GET("/products/sold", h.GetSoldProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/stats", h.GetStats)
		api.POST("/checkout", h.Checkout)
		api.POST("/scan", h.ScanProduct)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/products", h.AddProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.POST("/products/:id/restock", h.RestockProduct)
			admin.POST("/upload", h.UploadImage)
			admin.GET("/reports", h.GetSalesReport)
			admin.GET("/reports/valuation", h.GetStockValuation)
			admin.GET("/backup/export", h.ExportBackup)
			admin.POST("/backup/import", h.ImportBackup)
		}
	}

	srv := &http.Server{Addr: cfg.Address(), Handler: r}
	go func() {
		log.Println("Server starting on " + cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down, flushing pending writes...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := committer.Flush(shutdownCtx); err != nil {
		log.Printf("Final flush failed: %v", err)
	}
	committer.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}

// loadState seeds the controller: local store first; when it is empty and
// a mirror is reachable, the mirror seeds the first run on this device.
// Local data always wins when both exist.
func loadState(controller *pos.Controller, gateway *store.Tee) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	products, err := gateway.LoadCatalog(ctx)
	if err != nil {
		log.Fatal("Failed to load catalog: ", err)
	}
	sales, err := gateway.LoadSales(ctx)
	if err != nil {
		log.Fatal("Failed to load sales: ", err)
	}

	if len(products) == 0 && len(sales) == 0 && gateway.Mirror != nil {
		if remoteProducts, err := gateway.Mirror.LoadCatalog(ctx); err == nil && len(remoteProducts) > 0 {
			if remoteSales, err := gateway.Mirror.LoadSales(ctx); err == nil {
				products, sales = remoteProducts, remoteSales
				log.Printf("Seeded %d products and %d sales from the mirror", len(products), len(sales))
			}
		}
	}

	controller.Load(products, sales)
	log.Printf("Loaded %d products and %d sales", len(products), len(sales))
}

func buildMirror(cfg *config.Config) store.Gateway {
	if cfg.MirrorDatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		pg, err := mirror.NewPostgres(ctx, cfg.MirrorDatabaseURL)
		if err != nil {
			log.Printf("Postgres mirror unavailable, continuing local-only: %v", err)
			return nil
		}
		return pg
	}
	if cfg.MirrorURL != "" {
		return mirror.NewREST(cfg.MirrorURL, cfg.MirrorAPIKey)
	}
	return nil
}
