// AngelaMos | 2026
// handler.go

package status

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/buildmc/storefront/internal/core"
)

type minecraftRequest struct {
	ServerIP string `json:"serverIP"`
}

type discordRequest struct {
	ServerID string `json:"serverId"`
}

// Handler serves the two upstream proxies with their bare JSON shapes, and
// the monitor snapshot inside the usual envelope.
type Handler struct {
	minecraft    *MinecraftClient
	discord      *DiscordClient
	monitor      *Monitor
	logger       *slog.Logger
	snapshotWait time.Duration
}

const defaultSnapshotWait = 2 * time.Second

func NewHandler(minecraft *MinecraftClient, discord *DiscordClient, monitor *Monitor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		minecraft:    minecraft,
		discord:      discord,
		monitor:      monitor,
		logger:       logger,
		snapshotWait: defaultSnapshotWait,
	}
}

func (h *Handler) RegisterFunctionRoutes(r chi.Router) {
	r.Post("/minecraft-status", h.MinecraftStatus)
	r.Post("/discord-stats", h.DiscordStats)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.Snapshot)
}

func (h *Handler) MinecraftStatus(w http.ResponseWriter, r *http.Request) {
	var req minecraftRequest
	_ = json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck // empty body reads as a missing serverIP

	status, err := h.minecraft.Status(r.Context(), req.ServerIP)
	if err != nil {
		h.logger.Error("minecraft status failed", "server", req.ServerIP, "error", err)
		core.WriteJSON(w, http.StatusInternalServerError, ServerFailure{Error: err.Error()})
		return
	}

	core.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) DiscordStats(w http.ResponseWriter, r *http.Request) {
	var req discordRequest
	_ = json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck // empty body reads as a missing serverId

	stats, err := h.discord.Stats(r.Context(), req.ServerID)
	if err != nil {
		h.logger.Error("discord stats failed", "guild", req.ServerID, "error", err)
		core.WriteJSON(w, http.StatusInternalServerError, NewDiscordFailure(err))
		return
	}

	core.WriteJSON(w, http.StatusOK, stats)
}

// Snapshot starts a refresh when nothing has been polled yet and waits
// briefly for it. A slow upstream reads as still checking.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.monitor.Latest(r.Context()); ok {
		core.OK(w, snap)
		return
	}

	done := h.monitor.Warm()
	wait := time.NewTimer(h.snapshotWait)
	defer wait.Stop()

	pending := Snapshot{ServerStatus: displayChecking, DiscordMembers: "0"}
	select {
	case <-done:
		pending.ServerStatus = displayUnknown
	case <-wait.C:
	case <-r.Context().Done():
	}

	if snap, ok := h.monitor.Latest(r.Context()); ok {
		core.OK(w, snap)
		return
	}
	core.OK(w, pending)
}
