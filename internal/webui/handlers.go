package webui

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/gorilla/websocket"

	"busmonitor.dev/internal/logging"
)

//go:embed index.html debug_index.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "index.html", "debug_index.html"))

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type indexData struct {
	Status
	// Key is passed along so the page's own requests are accepted.
	Key string
}

type debugData struct {
	Title string
	Pre   string
}

func (p *Preview) indexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "index.html", indexData{
		Status: p.Status(),
		Key:    r.URL.Query().Get("key"),
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (p *Preview) frameHandler(w http.ResponseWriter, r *http.Request) {
	frame := p.Frame()
	if frame == nil {
		http.Error(w, "no frame has been flushed yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(frame)
}

func (p *Preview) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p.Status()); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to encode status", err)
	}
}

func writeDebugData(w http.ResponseWriter, title string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.ExecuteTemplate(w, "debug_index.html", debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (p *Preview) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")

	if dataType == "status" {
		writeDebugData(w, "Preview - Status", p.Status())
		return
	}

	fn, names := p.debugData(dataType)
	if fn == nil {
		names = append(names, "status")
		sort.Strings(names)
		writeDebugData(w, "Choose a data type", map[string]string{
			"error": "Please use one of the following: " + strings.Join(names, ", ") + ".",
		})
		return
	}

	writeDebugData(w, "Debug - "+dataType, fn())
}

func (p *Preview) websocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logging.LogError(p.logger, "websocket upgrade failed", err)
		return
	}

	c := &client{conn: conn}
	p.hub.add(c)

	status := p.Status()
	if err := c.send(frameEvent{Type: eventHello, Frame: status.Frames, At: status.UpdatedAt}); err != nil {
		p.hub.remove(c)
		return
	}
	p.logger.Debug("preview client connected", slog.String("remote", r.RemoteAddr))

	// Incoming messages are ignored; reading detects the close.
	go func() {
		defer p.hub.remove(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
