package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dragonlab/mimokit/pkg/broadcast"
	"github.com/dragonlab/mimokit/pkg/logger"
	"github.com/dragonlab/mimokit/pkg/realtime"
)

// pushFrame is what the trigger endpoints publish and the websocket hub
// fans out to connected sockets.
type pushFrame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// otpEnvelope mirrors the production response shape.
type otpEnvelope struct {
	Status  bool           `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

type api struct {
	cfg    appConfig
	broker broadcast.Broadcaster[pushFrame]
	log    *slog.Logger
}

func newAPI(cfg appConfig, broker broadcast.Broadcaster[pushFrame], log *slog.Logger) *api {
	return &api{cfg: cfg, broker: broker, log: log}
}

func (a *api) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws", a.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.With(a.requireBearer).Post("/broadcasting/auth", a.handleBroadcastingAuth)
		r.With(a.requireBearer).Get("/me/broadcast-channel", a.handleBroadcastChannel)
		r.Post("/trigger/transfer", a.handleTriggerTransfer)
	})

	r.Post("/client/verify-otp-bank-wallet", a.handleVerifyOTP)
	r.Post("/client/send-otp-bank-wallet", a.handleSendOTP)
	r.Post("/auth/verify-otp", a.handleVerifyOTP)
	r.Post("/auth/resend-otp", a.handleSendOTP)

	return r
}

// requireBearer rejects requests not carrying the configured dev token.
func (a *api) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token != a.cfg.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *api) channelName() string {
	return "private-notifications.token." + a.cfg.UserID
}

func (a *api) handleBroadcastingAuth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SocketID    string `json:"socket_id"`
		ChannelName string `json:"channel_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ChannelName == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "channel_name required"})
		return
	}

	a.log.Info("channel authorized",
		logger.Channel(body.ChannelName),
		"socket_id", body.SocketID,
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"auth": "dev-key:" + uuid.New().String(),
	})
}

func (a *api) handleBroadcastChannel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"channel": a.channelName()})
}

// handleTriggerTransfer publishes a transfer-completed event to every
// connected socket subscribed to the user's channel. Omitted fields keep
// their zero values so a minimal curl body works.
func (a *api) handleTriggerTransfer(w http.ResponseWriter, r *http.Request) {
	var ev realtime.TransferCompletedEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid payload"})
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "encode failed"})
		return
	}

	frame := pushFrame{
		Event:   realtime.EventTransferCompleted,
		Channel: a.channelName(),
		Data:    data,
	}
	if err := a.broker.Publish(r.Context(), frame); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "publish failed"})
		return
	}

	a.log.Info("transfer event published",
		logger.Event(frame.Event),
		logger.Channel(frame.Channel),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "queued"})
}

func (a *api) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OTP string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, otpEnvelope{Status: false, Message: "invalid payload"})
		return
	}

	if body.OTP != a.cfg.OTP {
		writeJSON(w, http.StatusOK, otpEnvelope{Status: false, Message: "Invalid OTP code"})
		return
	}

	writeJSON(w, http.StatusOK, otpEnvelope{
		Status:  true,
		Message: "Verified",
		Data:    map[string]any{"token": uuid.New().String()},
	})
}

func (a *api) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, otpEnvelope{Status: true, Message: "OTP sent"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
