package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/raushankrgupta/doctor-appointment/service"
	"github.com/raushankrgupta/doctor-appointment/utils"
)

const streamHeartbeat = 30 * time.Second

func (a *API) GetAllNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Get All Notifications API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	notifications, err := a.svc.Notifications.ListForCaller(r.Context(), caller.UserID)
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, notifications)
}

// StreamNotificationsHandler pushes the caller's new notifications as
// server-sent events until the client goes away
func (a *API) StreamNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Notification Stream API", &logMessageBuilder)

	if a.hub == nil {
		utils.RespondError(w, &logMessageBuilder, "Notification stream is disabled", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, &logMessageBuilder, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	caller, _ := GetCallerFromContext(r.Context())
	messages, unsubscribe := a.hub.Subscribe(caller.UserID)
	defer unsubscribe()
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Stream opened for %s (%d open)", caller.UserID.Hex(), a.hub.Subscribers(caller.UserID)))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", caller.UserID.Hex())
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case n, open := <-messages:
			if !open {
				return
			}
			payload, err := json.Marshal(service.NotificationItem{Notification: n, Badge: n.Badge()})
			if err != nil {
				utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Encoding notification failed: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			utils.AddToLogMessage(&logMessageBuilder, "Client disconnected")
			return
		}
	}
}
