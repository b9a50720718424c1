package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/epicurve/internal/log"
	"github.com/chrissnell/epicurve/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	serverConfig   config.ServerData
	Server         http.Server
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, logger *zap.SugaredLogger) (*Controller, error) {
	sc, err := configProvider.GetServerConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading server configuration: %v", err)
	}

	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		serverConfig:   *sc,
		logger:         logger,
	}

	// If a listen address was not provided, listen on all interfaces
	if ctrl.serverConfig.ListenAddr == "" {
		logger.Infof("server.listen-addr not provided; defaulting to %s (all interfaces)", config.DefaultListenAddr)
		ctrl.serverConfig.ListenAddr = config.DefaultListenAddr
	}

	// Set default HTTP port if not specified
	if ctrl.serverConfig.Port == 0 {
		logger.Infof("server.port not provided; defaulting to %d", config.DefaultPort)
		ctrl.serverConfig.Port = config.DefaultPort
	}

	timeout, err := ctrl.serverConfig.Timeout()
	if err != nil {
		return nil, err
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", ctrl.serverConfig.ListenAddr, ctrl.serverConfig.Port)
	ctrl.Server.Handler = ctrl.Handler(timeout)
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.serverConfig.Cert != "" && c.serverConfig.Key != "" {
			err = c.Server.ListenAndServeTLS(c.serverConfig.Cert, c.serverConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Handler returns the full middleware chain around the router. Simulation
// runs are synchronous, so the deadline is imposed here around each request.
func (c *Controller) Handler(timeout time.Duration) http.Handler {
	var h http.Handler = c.setupRouter()
	h = http.TimeoutHandler(h, timeout, `{"error":"simulation timed out"}`)

	if c.serverConfig.EnableCORS {
		h = handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
			handlers.ExposedHeaders([]string{log.RequestIDHeader}),
		)(h)
	}

	h = log.HTTPMiddleware(c.logger)(h)
	return requestIDMiddleware(h)
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", c.handlers.Health).Methods(http.MethodGet)
	router.HandleFunc("/simulate", c.handlers.Simulate).Methods(http.MethodPost)
	router.HandleFunc("/scenarios", c.handlers.ListScenarios).Methods(http.MethodGet)
	router.HandleFunc("/scenarios/{name}", c.handlers.RunScenario).Methods(http.MethodGet)

	return router
}

// requestIDMiddleware tags each request with an ID, keeping one supplied by the client
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(log.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(log.RequestIDHeader, id)
		}
		w.Header().Set(log.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
