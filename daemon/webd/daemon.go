package webd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/olahol/melody"
	"github.com/rotblauer/tempd/api"
	"github.com/rotblauer/tempd/cache"
	"github.com/rotblauer/tempd/common"
	"github.com/rotblauer/tempd/events"
	"github.com/rotblauer/tempd/geo"
	"github.com/rotblauer/tempd/params"
	"github.com/rotblauer/tempd/state"
)

var ErrAlreadyRunning = errors.New("web daemon already running")

// encodedLayers bounds the PNG cache. Layers are keyed by commit, so
// old entries fall out as new stacks are loaded.
const encodedLayers = 256

type WebDaemon struct {
	Config *params.WebDaemonConfig
	Globe  *api.Globe

	logger         *slog.Logger
	melodyInstance *melody.Melody
	history        *common.RingBuffer[events.StackCommitted]
	encoded        *cache.Encoded
	geocoder       *geo.Geocoder
	server         *http.Server
	cancel         context.CancelFunc
	unsubscribe    func()
	running        atomic.Bool
	started        time.Time
}

// NewWebDaemon wires a Globe to the HTTP API. With a DataDir, commits
// are persisted there and, if configured, the last one is restored.
func NewWebDaemon(config *params.WebDaemonConfig) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	if config.HistorySize <= 0 {
		config.HistorySize = 1
	}
	s := &WebDaemon{
		Config:  config,
		Globe:   api.NewGlobe(state.NewDisplay(&events.StackCommittedFeed)),
		logger:  slog.With("d", "web"),
		history: common.NewRingBuffer[events.StackCommitted](config.HistorySize),
		encoded: cache.NewEncoded(encodedLayers),
		started: time.Now(),
	}

	stacks, err := cache.NewStacks(params.StackCacheSize)
	if err != nil {
		return nil, err
	}
	s.Globe.Stacks = stacks

	if config.DataDir != "" {
		if err := os.MkdirAll(config.DataDir, 0770); err != nil {
			return nil, err
		}
		store, err := state.OpenStore(config.DataDir)
		if err != nil {
			return nil, err
		}
		s.Globe.Store = store
	}
	if influx := params.DefaultInfluxDBConfig(); influx.Enabled() {
		s.Globe.Influx = influx
	}
	if config.Geocode {
		g, err := geo.NewGeocoder(params.PlaceCacheTTL)
		if err != nil {
			s.logger.Warn("Reverse geocoding disabled", "error", err)
		} else {
			s.geocoder = g
		}
	}

	s.initMelody()

	if config.Restore {
		if c, err := s.Globe.Restore(context.Background()); err != nil {
			s.logger.Warn("Failed to restore last stack", "error", err)
		} else if c != nil {
			s.history.Add(c.Event())
		}
	}
	return s, nil
}

// Start listens on the configured address and serves in the background.
func (s *WebDaemon) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, s.Config.Address)
	}
	listener, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.server = &http.Server{
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting web daemon", "network", s.Config.Network, "address", listener.Addr())
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Web daemon stopped", "error", err)
		}
	}()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.Globe.Metrics.Run(ctx, time.Minute)
	return nil
}

// Stop shuts the server down, closing websockets and the store.
func (s *WebDaemon) Stop() error {
	s.logger.Info("Web daemon stopping")
	var errs []error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, s.server.Shutdown(ctx))
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.Globe.Metrics.Stop()
	if !s.melodyInstance.IsClosed() {
		errs = append(errs, s.melodyInstance.Close())
	}
	if s.Globe.Store != nil {
		errs = append(errs, s.Globe.Store.Close())
	}
	s.running.Store(false)
	return errors.Join(errs...)
}

func (s *WebDaemon) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(s.loggingMiddleware)

	// Websocket clients get a message for every committed stack.
	router.Path("/socket").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.melodyInstance.HandleRequest(w, r)
	})

	apiRoutes := router.NewRoute().Subrouter()
	apiRoutes.Use(permissiveCorsMiddleware)

	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiRoutes.Path("/stack/{t:[0-9]+}.png").HandlerFunc(s.handleLayerPNG).Methods(http.MethodGet)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/stack").HandlerFunc(s.handleStack).Methods(http.MethodGet)
	apiJSONRoutes.Path("/sample").HandlerFunc(s.handleSample).Methods(http.MethodGet)

	loadRoutes := apiJSONRoutes.NewRoute().Subrouter()
	loadRoutes.Use(tokenAuthenticationMiddleware)

	loadRoutes.Path("/load").HandlerFunc(s.handleLoad).Methods(http.MethodPost)
	loadRoutes.Path("/load/noise").HandlerFunc(s.handleLoadNoise).Methods(http.MethodPost)

	return router
}
