package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bensuskins/household-hub/internal/handlers"
	"github.com/bensuskins/household-hub/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	router *chi.Mux
	port   string
}

func New(app *App) *Server {
	householdHandler := handlers.NewHouseholdHandler(app.HouseholdService)
	categoryHandler := handlers.NewCategoryHandler(app.Categories)
	tokenHandler := handlers.NewTokenHandler(app.Tokens)
	taskHandler := handlers.NewTaskHandler(app.TaskService)
	financeHandler := handlers.NewFinanceHandler(app.FinanceService, app.Locale)
	shoppingHandler := handlers.NewShoppingHandler(app.ShoppingService)
	profileHandler := handlers.NewProfileHandler(app.Users)
	icalHandler := handlers.NewICalHandler(app.HouseholdService, app.TaskService, app.FinanceService, app.Tokens, app.Config.ICalToken, app.Locale)

	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Compress(5))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Get("/ical/{householdID}.ics", icalHandler.Feed)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APITokenAuth(app.Tokens, app.Users))

		r.Get("/me", profileHandler.Get)
		r.Put("/me", profileHandler.Update)

		r.Get("/tokens", tokenHandler.List)
		r.Post("/tokens", tokenHandler.Create)
		r.Delete("/tokens/{tokenID}", tokenHandler.Delete)

		r.Get("/households", householdHandler.List)
		r.Post("/households", householdHandler.Create)

		r.Route("/households/{householdID}", func(r chi.Router) {
			r.Use(middleware.RequireMember(app.HouseholdService))

			r.Get("/members", householdHandler.Members)
			r.Post("/members", householdHandler.AddMember)

			r.Get("/categories", categoryHandler.List)
			r.Post("/categories", categoryHandler.Create)
			r.Put("/categories/{categoryID}", categoryHandler.Update)
			r.Delete("/categories/{categoryID}", categoryHandler.Delete)

			r.Get("/shopping", shoppingHandler.List)
			r.Post("/shopping", shoppingHandler.Create)
			r.Patch("/shopping/{itemID}", shoppingHandler.Update)
			r.Delete("/shopping/{itemID}", shoppingHandler.Delete)

			r.Get("/tasks", taskHandler.List)
			r.Post("/tasks", taskHandler.Create)
			r.Get("/tasks/{taskID}", taskHandler.Get)
			r.Put("/tasks/{taskID}", taskHandler.Update)
			r.Delete("/tasks/{taskID}", taskHandler.Delete)
			r.Put("/tasks/{taskID}/status", taskHandler.SetStatus)
			r.Put("/tasks/{taskID}/occurrences", taskHandler.SetOccurrenceStatus)

			r.Get("/finances", financeHandler.View)
			r.Get("/finances/months/{year}/{month}", financeHandler.Month)
			r.Put("/finances/balance", financeHandler.SetStartingBalance)
			r.Post("/finances/entries", financeHandler.CreateEntry)
			r.Put("/finances/entries/{entryID}", financeHandler.UpdateEntry)
			r.Delete("/finances/entries/{entryID}", financeHandler.DeleteEntry)
			r.Post("/finances/series", financeHandler.CreateSeries)
			r.Put("/finances/series/{seriesID}", financeHandler.UpdateSeries)
			r.Delete("/finances/series/{seriesID}", financeHandler.DeleteSeries)
			r.Put("/finances/series/{seriesID}/exceptions/{date}", financeHandler.SetException)
			r.Delete("/finances/series/{seriesID}/exceptions/{date}", financeHandler.ClearException)
		})
	})

	return &Server{router: router, port: app.Config.Port}
}

func (server *Server) Handler() http.Handler {
	return server.router
}

// Start serves until ctx is cancelled, then drains open requests.
func (server *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              ":" + server.port,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	errs := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", httpServer.Addr)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
