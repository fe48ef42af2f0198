package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/drewzeee/WealthVue-sub001/internal/aggregator"
	"github.com/drewzeee/WealthVue-sub001/internal/auth"
	database "github.com/drewzeee/WealthVue-sub001/internal/db"
	"github.com/drewzeee/WealthVue-sub001/internal/investment/holding"
	"github.com/drewzeee/WealthVue-sub001/internal/investment/marketdata"
	"github.com/drewzeee/WealthVue-sub001/internal/jobs"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/application"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/infrastructure"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/interfaces"
	"github.com/drewzeee/WealthVue-sub001/internal/networth"
	"github.com/drewzeee/WealthVue-sub001/internal/user"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errs ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}
	if len(errs) > 0 && len(errs[0]) > 0 {
		payload["errors"] = errs[0]
	}
	respondJSON(w, status, payload)
}

type Server struct {
	router             *http.ServeMux
	authService        auth.Service
	authHandler        *auth.Handler
	transactionHandler *interfaces.TransactionHandler
	categoryHandler    *interfaces.CategoryHandler
	ruleHandler        *interfaces.RuleHandler
	connectionHandler  *interfaces.ConnectionHandler
	netWorthHandler    *interfaces.NetWorthHandler
	investmentHandler  *interfaces.InvestmentHandler
	householdHandler   *interfaces.HouseholdHandler
}

func NewServer(
	authService auth.Service,
	authHandler *auth.Handler,
	transactionHandler *interfaces.TransactionHandler,
	categoryHandler *interfaces.CategoryHandler,
	ruleHandler *interfaces.RuleHandler,
	connectionHandler *interfaces.ConnectionHandler,
	netWorthHandler *interfaces.NetWorthHandler,
	investmentHandler *interfaces.InvestmentHandler,
	householdHandler *interfaces.HouseholdHandler,
) *Server {
	return &Server{
		router:             http.NewServeMux(),
		authService:        authService,
		authHandler:        authHandler,
		transactionHandler: transactionHandler,
		categoryHandler:    categoryHandler,
		ruleHandler:        ruleHandler,
		connectionHandler:  connectionHandler,
		netWorthHandler:    netWorthHandler,
		investmentHandler:  investmentHandler,
		householdHandler:   householdHandler,
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return errors.New("no JWT_SECRET Provided")
	}
	return nil
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ready",
	})
}

func (s *Server) RegisterRoutes() {
	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("POST /api/register", http.HandlerFunc(s.authHandler.HandleRegister))
	publicRoutes.Handle("POST /api/auth/login", http.HandlerFunc(s.authHandler.HandleLogin))
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))

	mw := s.authService.JWTAccessTokenMiddleware()

	// Protected routes (using JWT Access Token Middleware)
	protectedRoutes := http.NewServeMux()

	// TRANSACTIONS API
	protectedRoutes.Handle("POST /api/protected/transactions",
		mw(http.HandlerFunc(s.transactionHandler.CreateTransaction)))
	protectedRoutes.Handle("GET /api/protected/transactions",
		mw(http.HandlerFunc(s.transactionHandler.GetUserTransactions)))
	protectedRoutes.Handle("PUT /api/protected/transactions/{transactionID}",
		mw(http.HandlerFunc(s.transactionHandler.UpdateTransaction)))
	protectedRoutes.Handle("DELETE /api/protected/transactions/{transactionID}",
		mw(http.HandlerFunc(s.transactionHandler.DeleteTransaction)))
	protectedRoutes.Handle("POST /api/protected/transactions/{transactionID}/unpair",
		mw(http.HandlerFunc(s.transactionHandler.UnpairTransaction)))
	protectedRoutes.Handle("POST /api/protected/transactions/reconcile",
		mw(http.HandlerFunc(s.transactionHandler.ReconcileTransactions)))

	// CATEGORIES API
	protectedRoutes.Handle("POST /api/protected/categories",
		mw(http.HandlerFunc(s.categoryHandler.CreateCategory)))
	protectedRoutes.Handle("GET /api/protected/categories",
		mw(http.HandlerFunc(s.categoryHandler.GetCategories)))
	protectedRoutes.Handle("PUT /api/protected/categories/{categoryID}",
		mw(http.HandlerFunc(s.categoryHandler.UpdateCategory)))
	protectedRoutes.Handle("DELETE /api/protected/categories/{categoryID}",
		mw(http.HandlerFunc(s.categoryHandler.DeleteCategory)))
	protectedRoutes.Handle("PUT /api/protected/categories/{categoryID}/budget",
		mw(http.HandlerFunc(s.categoryHandler.SetBudget)))
	protectedRoutes.Handle("GET /api/protected/categories/budget-report",
		mw(http.HandlerFunc(s.categoryHandler.GetBudgetReport)))

	// RULES API
	protectedRoutes.Handle("POST /api/protected/rules",
		mw(http.HandlerFunc(s.ruleHandler.CreateRule)))
	protectedRoutes.Handle("GET /api/protected/rules",
		mw(http.HandlerFunc(s.ruleHandler.GetRules)))
	protectedRoutes.Handle("PUT /api/protected/rules/{ruleID}",
		mw(http.HandlerFunc(s.ruleHandler.UpdateRule)))
	protectedRoutes.Handle("DELETE /api/protected/rules/{ruleID}",
		mw(http.HandlerFunc(s.ruleHandler.DeleteRule)))

	// CONNECTIONS AND SYNC API
	protectedRoutes.Handle("POST /api/protected/connections/link-token",
		mw(http.HandlerFunc(s.connectionHandler.CreateLinkToken)))
	protectedRoutes.Handle("POST /api/protected/connections/exchange",
		mw(http.HandlerFunc(s.connectionHandler.ExchangePublicToken)))
	protectedRoutes.Handle("GET /api/protected/connections",
		mw(http.HandlerFunc(s.connectionHandler.GetConnections)))
	protectedRoutes.Handle("POST /api/protected/connections/{connectionID}/sync",
		mw(http.HandlerFunc(s.connectionHandler.SyncConnection)))
	protectedRoutes.Handle("POST /api/protected/connections/sync-all",
		mw(http.HandlerFunc(s.connectionHandler.SyncAllConnections)))
	protectedRoutes.Handle("POST /api/protected/connections/{connectionID}/reset-sync",
		mw(http.HandlerFunc(s.connectionHandler.ResetSync)))

	// NET WORTH API
	protectedRoutes.Handle("GET /api/protected/networth",
		mw(http.HandlerFunc(s.netWorthHandler.GetNetWorth)))
	protectedRoutes.Handle("GET /api/protected/networth/household",
		mw(http.HandlerFunc(s.netWorthHandler.GetHouseholdNetWorth)))
	protectedRoutes.Handle("GET /api/protected/networth/history",
		mw(http.HandlerFunc(s.netWorthHandler.GetHistory)))
	protectedRoutes.Handle("GET /api/protected/networth/household/history",
		mw(http.HandlerFunc(s.netWorthHandler.GetHouseholdHistory)))

	// MANUAL ASSETS AND LIABILITIES API
	protectedRoutes.Handle("POST /api/protected/assets",
		mw(http.HandlerFunc(s.netWorthHandler.CreateAsset)))
	protectedRoutes.Handle("GET /api/protected/assets",
		mw(http.HandlerFunc(s.netWorthHandler.GetAssets)))
	protectedRoutes.Handle("PUT /api/protected/assets/{assetID}",
		mw(http.HandlerFunc(s.netWorthHandler.UpdateAsset)))
	protectedRoutes.Handle("DELETE /api/protected/assets/{assetID}",
		mw(http.HandlerFunc(s.netWorthHandler.DeleteAsset)))
	protectedRoutes.Handle("POST /api/protected/liabilities",
		mw(http.HandlerFunc(s.netWorthHandler.CreateLiability)))
	protectedRoutes.Handle("GET /api/protected/liabilities",
		mw(http.HandlerFunc(s.netWorthHandler.GetLiabilities)))
	protectedRoutes.Handle("PUT /api/protected/liabilities/{liabilityID}",
		mw(http.HandlerFunc(s.netWorthHandler.UpdateLiability)))
	protectedRoutes.Handle("DELETE /api/protected/liabilities/{liabilityID}",
		mw(http.HandlerFunc(s.netWorthHandler.DeleteLiability)))

	// INVESTMENTS API
	protectedRoutes.Handle("POST /api/protected/investments/accounts",
		mw(http.HandlerFunc(s.investmentHandler.CreateAccount)))
	protectedRoutes.Handle("GET /api/protected/investments/accounts",
		mw(http.HandlerFunc(s.investmentHandler.GetAccounts)))
	protectedRoutes.Handle("DELETE /api/protected/investments/accounts/{accountID}",
		mw(http.HandlerFunc(s.investmentHandler.DeleteAccount)))
	protectedRoutes.Handle("POST /api/protected/investments/accounts/{accountID}/holdings",
		mw(http.HandlerFunc(s.investmentHandler.CreateHolding)))
	protectedRoutes.Handle("GET /api/protected/investments/accounts/{accountID}/holdings",
		mw(http.HandlerFunc(s.investmentHandler.GetHoldings)))
	protectedRoutes.Handle("PUT /api/protected/investments/holdings/{holdingID}",
		mw(http.HandlerFunc(s.investmentHandler.UpdateHolding)))
	protectedRoutes.Handle("DELETE /api/protected/investments/holdings/{holdingID}",
		mw(http.HandlerFunc(s.investmentHandler.DeleteHolding)))
	protectedRoutes.Handle("POST /api/protected/investments/refresh-prices",
		mw(http.HandlerFunc(s.investmentHandler.RefreshPrices)))

	// HOUSEHOLD API
	protectedRoutes.Handle("POST /api/protected/household/link",
		mw(http.HandlerFunc(s.householdHandler.RequestLink)))
	protectedRoutes.Handle("POST /api/protected/household/link/accept",
		mw(http.HandlerFunc(s.householdHandler.AcceptLink)))
	protectedRoutes.Handle("DELETE /api/protected/household/link",
		mw(http.HandlerFunc(s.householdHandler.Unlink)))

	// Main router
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

type connectionSyncPayload struct {
	ConnectionID uuid.UUID `json:"connection_id"`
}

type snapshotPayload struct {
	UserID string `json:"user_id"`
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server")
	}

	dbService, err := database.NewDBService()
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	if err := dbService.ApplySchema(); err != nil {
		log.Fatalf("Could not apply database schema: %v", err)
	}

	aggregatorClient := aggregator.NewHTTPClient(
		os.Getenv("AGGREGATOR_BASE_URL"),
		os.Getenv("AGGREGATOR_CLIENT_ID"),
		os.Getenv("AGGREGATOR_SECRET"),
	)

	fmpClient := marketdata.NewFMPClient(os.Getenv("MARKET_DATA_API_KEY"))
	coinGeckoClient := marketdata.NewCoinGeckoClient()
	marketDataService := marketdata.NewService(fmpClient, coinGeckoClient, nil)

	userRepo := user.NewUserRepository(dbService.DB)
	userService := user.NewUserService(userRepo)
	jwtManager := auth.NewJWTManager()
	authService := auth.NewAuthService(userService, jwtManager)
	authHandler := auth.NewHandler(authService)

	accountRepo := infrastructure.NewAccountRepository(dbService.DB)
	transactionRepo := infrastructure.NewTransactionRepository(dbService.DB)
	categoryRepo := infrastructure.NewCategoryRepository(dbService.DB)
	ruleRepo := infrastructure.NewRuleRepository(dbService.DB)
	connectionRepo := infrastructure.NewConnectionRepository(dbService.DB)

	categorizer := application.NewCategorizationService(ruleRepo)
	transactionService := application.NewTransactionService(transactionRepo, accountRepo, categoryRepo, categorizer)
	reconcileService := application.NewReconcileService(transactionRepo, categorizer, application.DefaultReconcileConfig)
	categoryService := application.NewCategoryService(categoryRepo, transactionRepo)
	ruleService := application.NewRuleService(ruleRepo, categoryRepo)
	connectionService := application.NewConnectionService(connectionRepo, aggregatorClient)
	syncService := application.NewSyncService(connectionRepo, accountRepo, transactionRepo, categorizer, aggregatorClient)

	holdingRepo := holding.NewHoldingRepository(dbService.DB)
	holdingService := holding.NewHoldingService(holdingRepo, marketDataService, nil)

	assetRepo := networth.NewAssetRepository(dbService.DB)
	liabilityRepo := networth.NewLiabilityRepository(dbService.DB)
	snapshotRepo := networth.NewSnapshotRepository(dbService.DB)
	netWorthService := networth.NewService(accountRepo, assetRepo, liabilityRepo, snapshotRepo, holdingService, userService)

	transactionHandler := interfaces.NewTransactionHandler(transactionService, reconcileService, respondJSON, respondError)
	categoryHandler := interfaces.NewCategoryHandler(categoryService, respondJSON, respondError)
	ruleHandler := interfaces.NewRuleHandler(ruleService, respondJSON, respondError)
	connectionHandler := interfaces.NewConnectionHandler(connectionService, syncService, respondJSON, respondError)
	netWorthHandler := interfaces.NewNetWorthHandler(netWorthService, respondJSON, respondError)
	investmentHandler := interfaces.NewInvestmentHandler(holdingService, respondJSON, respondError)
	householdHandler := interfaces.NewHouseholdHandler(userService, respondJSON, respondError)

	server := NewServer(
		authService,
		authHandler,
		transactionHandler,
		categoryHandler,
		ruleHandler,
		connectionHandler,
		netWorthHandler,
		investmentHandler,
		householdHandler,
	)
	server.RegisterRoutes()

	queue := jobs.NewQueue(dbService.DB)
	worker := jobs.NewWorker(queue, nil)
	worker.Register("connection_sync", func(ctx context.Context, payload json.RawMessage) error {
		var p connectionSyncPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		_, err := syncService.SyncConnection(ctx, p.ConnectionID)
		return err
	})
	worker.Register("networth_snapshot", func(ctx context.Context, payload json.RawMessage) error {
		var p snapshotPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		return netWorthService.SnapshotUser(ctx, p.UserID)
	})
	go worker.Run(context.Background())

	if err := StartSnapshotScheduler(userService, queue); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}
	if err := StartSyncScheduler(userService, connectionService, queue); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}
	if err := StartPriceRefreshScheduler(userService, holdingService); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}

	loggingMiddleware := loggingMiddleware(http.HandlerFunc(server.router.ServeHTTP))
	log.Println("Server starting on port 8080...")
	if err := http.ListenAndServe(":8080", loggingMiddleware); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// StartSnapshotScheduler enqueues one net worth snapshot job per user every
// night, so the history curve gets its daily point.
func StartSnapshotScheduler(userService user.Service, queue *jobs.Queue) error {
	c := cron.New()
	_, err := c.AddFunc("30 2 * * *", func() {
		ctx := context.Background()
		userIDs, err := userService.ListUserIDs(ctx)
		if err != nil {
			log.Printf("Error listing users for snapshots: %v", err)
			return
		}
		for _, userID := range userIDs {
			if _, err := queue.Enqueue(ctx, "networth_snapshot", snapshotPayload{UserID: userID}); err != nil {
				log.Printf("Error enqueueing snapshot for user %s: %v", userID, err)
			}
		}
		log.Printf("Enqueued net worth snapshots for %d users.", len(userIDs))
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}

// StartSyncScheduler enqueues a sync job for every known connection so
// transactions keep flowing in without anyone pressing the button.
func StartSyncScheduler(userService user.Service, connectionService *application.ConnectionService, queue *jobs.Queue) error {
	c := cron.New()
	_, err := c.AddFunc("@every 4h", func() {
		ctx := context.Background()
		userIDs, err := userService.ListUserIDs(ctx)
		if err != nil {
			log.Printf("Error listing users for sync: %v", err)
			return
		}
		enqueued := 0
		for _, userID := range userIDs {
			connections, err := connectionService.ListByUser(ctx, userID)
			if err != nil {
				log.Printf("Error listing connections for user %s: %v", userID, err)
				continue
			}
			for _, connection := range connections {
				if _, err := queue.Enqueue(ctx, "connection_sync", connectionSyncPayload{ConnectionID: connection.ID}); err != nil {
					log.Printf("Error enqueueing sync for connection %s: %v", connection.ID, err)
					continue
				}
				enqueued++
			}
		}
		log.Printf("Enqueued %d connection sync jobs.", enqueued)
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}

// StartPriceRefreshScheduler pulls fresh market prices for every user's
// automatically priced holdings.
func StartPriceRefreshScheduler(userService user.Service, holdingService holding.Service) error {
	c := cron.New()
	_, err := c.AddFunc("@every 15m", func() {
		ctx := context.Background()
		userIDs, err := userService.ListUserIDs(ctx)
		if err != nil {
			log.Printf("Error listing users for price refresh: %v", err)
			return
		}
		for _, userID := range userIDs {
			if _, err := holdingService.RefreshPrices(ctx, userID); err != nil {
				log.Printf("Error refreshing prices for user %s: %v", userID, err)
			}
		}
		log.Println("Holding prices updated successfully.")
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}
