package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ray-remotestate/restro/handlers"
	"github.com/ray-remotestate/restro/middlewares"
)

type Server struct {
	Router *mux.Router
	server *http.Server
}

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

func SetupRoutes() *Server {
	router := mux.NewRouter()
	router.Use(middlewares.RequestLogger)

	authRoutes := router.PathPrefix("/api").Subrouter()
	authRoutes.Use(middlewares.AuthMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"alive": true}`)
	}).Methods("GET")
	router.HandleFunc("/register", handlers.Register).Methods("POST")
	router.HandleFunc("/refresh", handlers.RefreshToken).Methods("POST")
	router.HandleFunc("/login", handlers.Login).Methods("POST")
	router.HandleFunc("/menu/{slug}", handlers.GetMenu).Methods("GET")
	authRoutes.HandleFunc("/logout", handlers.Logout).Methods("POST")

	authRoutes.HandleFunc("/dashboard", handlers.Dashboard).Methods("GET")
	authRoutes.HandleFunc("/stats", handlers.Stats).Methods("GET")
	authRoutes.HandleFunc("/qr", handlers.QRCode).Methods("GET")
	authRoutes.HandleFunc("/settings", handlers.GetSettings).Methods("GET")
	authRoutes.HandleFunc("/settings", handlers.UpdateSettings).Methods("PUT")
	authRoutes.HandleFunc("/settings/password", handlers.ChangePassword).Methods("PUT")

	authRoutes.HandleFunc("/categories", handlers.ListCategories).Methods("GET")
	authRoutes.HandleFunc("/categories", handlers.CreateCategory).Methods("POST")
	authRoutes.HandleFunc("/categories/{id}", handlers.GetCategory).Methods("GET")
	authRoutes.HandleFunc("/categories/{id}", handlers.UpdateCategory).Methods("PUT")
	authRoutes.HandleFunc("/categories/{id}", handlers.DeleteCategory).Methods("DELETE")

	authRoutes.HandleFunc("/products", handlers.ListProducts).Methods("GET")
	authRoutes.HandleFunc("/products", handlers.CreateProduct).Methods("POST")
	authRoutes.HandleFunc("/products/{id}", handlers.GetProduct).Methods("GET")
	authRoutes.HandleFunc("/products/{id}", handlers.UpdateProduct).Methods("PUT")
	authRoutes.HandleFunc("/products/{id}", handlers.DeleteProduct).Methods("DELETE")
	authRoutes.HandleFunc("/products/{id}/toggle", handlers.ToggleProduct).Methods("POST")

	return &Server{
		Router: router,
	}
}

func (svr *Server) Run(port string) error {
	svr.server = &http.Server{
		Addr:              port,
		Handler:           svr.Router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	return svr.server.ListenAndServe()
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	if svr.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}
