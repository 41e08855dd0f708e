package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nkamath/calshare/internal/watch"
)

// streamSSE serves snapshots from the watch hub as server-sent events
// until the client disconnects. Snapshots must be single-line JSON.
func streamSSE(w http.ResponseWriter, r *http.Request, hub *watch.Hub, query watch.Query) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, cancel, err := hub.Subscribe(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", snapshot)
			flusher.Flush()
		}
	}
}
