package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/tailgate/server/internal/config"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/service"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/types"
)

// ── Ingress ──────────────────────────────────────────────────────────────────

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	var req types.CameraRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	writeResponse(w, r, http.StatusOK, s.cameraService.Ingest(r.Context(), req))
}

func (s *Server) handleTestAccess(w http.ResponseWriter, r *http.Request) {
	var req types.AccessRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	writeResponse(w, r, http.StatusOK, s.accessService.Ingest(r.Context(), req))
}

// ── Settings ─────────────────────────────────────────────────────────────────

func (s *Server) handleSetWindow(w http.ResponseWriter, r *http.Request) {
	var req types.WindowRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	seconds := s.settings.Window()
	if req.Window != "" {
		n, err := parseWholeNumber(string(req.Window))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "window must be an integer")
			return
		}
		seconds = n
	}

	if err := s.settings.SetWindow(seconds); err != nil {
		if errors.Is(err, service.ErrWindowOutOfRange) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("set_window error", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "unexpected server error")
		return
	}
	writeResponse(w, r, http.StatusOK, types.WindowResponse{Status: "ok", Window: seconds})
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req types.ModeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	mode, err := s.settings.SetMode(req.Mode)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid mode")
		return
	}
	writeResponse(w, r, http.StatusOK, types.ModeResponse{Status: "ok", Mode: mode})
}

// ── Query ────────────────────────────────────────────────────────────────────

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, r, http.StatusOK, s.queryService.Status())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.queryService.History(r.Context())
	if err != nil {
		s.logger.Error("history read failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeResponse(w, r, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ── NetBox ───────────────────────────────────────────────────────────────────

func (s *Server) handleGetNetBoxConfig(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, r, http.StatusOK, netBoxView(s.netbox.Config()))
}

func (s *Server) handleSetNetBoxConfig(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.readNetBoxConfig(w, r)
	if !ok {
		return
	}
	s.netbox.Update(cfg)
	writeResponse(w, r, http.StatusOK, types.NetBoxConfigResponse{
		Status: "ok",
		Config: netBoxView(s.netbox.Config()),
	})
}

func (s *Server) handleTestNetBox(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.readNetBoxConfig(w, r)
	if !ok {
		return
	}
	if err := s.netbox.Test(r.Context(), cfg); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeResponse(w, r, http.StatusOK, types.NetBoxTestResponse{Status: "ok", Message: "Connection successful!"})
}

// readNetBoxConfig decodes a NetBox settings body. Fields left empty keep
// their current values.
func (s *Server) readNetBoxConfig(w http.ResponseWriter, r *http.Request) (config.NetBox, bool) {
	var req types.NetBoxConfig
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return config.NetBox{}, false
	}
	cfg := s.netbox.Current()
	if req.URL != "" {
		cfg.URL = req.URL
	}
	if req.Username != "" {
		cfg.Username = req.Username
	}
	if req.Password != "" {
		cfg.Password = req.Password
	}
	return cfg, true
}

func netBoxView(cfg config.NetBox) types.NetBoxConfig {
	return types.NetBoxConfig{URL: cfg.URL, Username: cfg.Username, Password: cfg.Password}
}

// parseWholeNumber accepts "15" and "15.0" but not "15.5".
func parseWholeNumber(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return int(f), nil
}
