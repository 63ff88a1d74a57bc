package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/tailgate/server/internal/config"
	"github.com/BrandonDHaskell/tailgate/server/internal/metrics"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/service"
)

// NetBoxController is the operator surface of the NetBox listener.
// *netbox.Supervisor implements it.
type NetBoxController interface {
	Config() config.NetBox
	Current() config.NetBox
	Update(cfg config.NetBox)
	Test(ctx context.Context, cfg config.NetBox) error
}

type Dependencies struct {
	Logger        *zap.Logger
	Addr          string
	AccessService *service.AccessService
	CameraService *service.CameraService
	QueryService  *service.QueryService
	Settings      *service.Settings
	NetBox        NetBoxController // nil disables the /netbox routes
	Metrics       *metrics.Metrics
}

type Server struct {
	httpServer    *http.Server
	logger        *zap.Logger
	mux           *http.ServeMux
	accessService *service.AccessService
	cameraService *service.CameraService
	queryService  *service.QueryService
	settings      *service.Settings
	netbox        NetBoxController
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:        d.Logger.Named("http"),
		mux:           mux,
		accessService: d.AccessService,
		cameraService: d.CameraService,
		queryService:  d.QueryService,
		settings:      d.Settings,
		netbox:        d.NetBox,
	}

	mux.HandleFunc("POST /camera", s.handleCamera)
	mux.HandleFunc("POST /test_access", s.handleTestAccess)
	mux.HandleFunc("POST /set_window", s.handleSetWindow)
	mux.HandleFunc("POST /set_mode", s.handleSetMode)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	if s.netbox != nil {
		mux.HandleFunc("GET /netbox/config", s.handleGetNetBoxConfig)
		mux.HandleFunc("POST /netbox/config", s.handleSetNetBoxConfig)
		mux.HandleFunc("POST /netbox/test", s.handleTestNetBox)
	}
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	handler := loggingMiddleware(s.logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
