package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/xavierca1/lead-capture/internal/entity"
	"github.com/xavierca1/lead-capture/internal/infra/database"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type SinkReporter interface {
	Status(ctx context.Context) database.SinkStatus
}

type HealthHandler struct {
	DB             Pinger
	Sinks          SinkReporter
	DataDir        string
	AllowedOrigins []string
	Version        string
	NotifierMode   string
	RelayReady     bool
	StartTime      time.Time
}

type NotifierStatus struct {
	Mode            string `json:"mode"`
	RelayConfigured bool   `json:"relay_configured"`
}

type HealthResponse struct {
	OK             bool           `json:"ok"`
	TS             string         `json:"ts"`
	Status         string         `json:"status"`
	Version        string         `json:"version"`
	Uptime         string         `json:"uptime"`
	DataDir        string         `json:"data_dir"`
	DBPath         string         `json:"db_path,omitempty"`
	DBExists       bool           `json:"db_exists"`
	CSVPath        string         `json:"csv_path"`
	CSVExists      bool           `json:"csv_exists"`
	Database       string         `json:"database"`
	AllowedOrigins []string       `json:"allowed_origins"`
	Notifier       NotifierStatus `json:"notifier"`
}

func NewHealthHandler(db Pinger, sinks SinkReporter, dataDir string, origins []string, version, notifierMode string, relayReady bool) *HealthHandler {
	return &HealthHandler{
		DB:             db,
		Sinks:          sinks,
		DataDir:        dataDir,
		AllowedOrigins: origins,
		Version:        version,
		NotifierMode:   notifierMode,
		RelayReady:     relayReady,
		StartTime:      time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbState := "not configured"
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			dbState = fmt.Sprintf("unhealthy: %v", err)
		} else {
			dbState = "healthy"
		}
	}

	sinks := h.Sinks.Status(ctx)

	status := "healthy"
	if dbState != "healthy" || !sinks.CSVExists {
		status = "degraded"
	}

	response := HealthResponse{
		OK:             status == "healthy",
		TS:             time.Now().UTC().Format(entity.TimeLayout),
		Status:         status,
		Version:        h.Version,
		Uptime:         time.Since(h.StartTime).Round(time.Second).String(),
		DataDir:        h.DataDir,
		DBPath:         sinks.DBPath,
		DBExists:       sinks.DBExists,
		CSVPath:        sinks.CSVPath,
		CSVExists:      sinks.CSVExists,
		Database:       dbState,
		AllowedOrigins: h.AllowedOrigins,
		Notifier: NotifierStatus{
			Mode:            h.NotifierMode,
			RelayConfigured: h.RelayReady,
		},
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}
