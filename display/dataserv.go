package fallwatch

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	Fs "github.com/maroda/fallwatch/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket frame ingest, one detector per connection
// - Version for programmatic use
// - Status and reset of the View's own detector
func (v *View) SetupMux() http.Handler {
	r := mux.NewRouter()

	r.Handle("/metrics", v.Stats.Handler())
	r.HandleFunc("/ws", v.WebsocketHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(v.StatsMiddleware)
	api.HandleFunc("/version", v.VersionHandler).Methods(http.MethodGet)
	api.HandleFunc("/status", v.StatusHandler).Methods(http.MethodGet)
	api.HandleFunc("/system", v.SystemInfoHandler).Methods(http.MethodGet)
	api.HandleFunc("/reset", v.ResetHandler).Methods(http.MethodPost)

	return otelhttp.NewHandler(r, "fallwatch")
}

var Version = "dev"

func (v *View) VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": Version})
}

// StatusData is the View's detector as seen over the API
type StatusData struct {
	ID       string  `json:"id"`
	Location string  `json:"location"`
	Session  string  `json:"session"`
	Status   string  `json:"status"`
	State    string  `json:"state"`
	Velocity float64 `json:"velocity"`
	Angle    float64 `json:"angle"`
	Height   float64 `json:"height"`
	Present  bool    `json:"present"`
	History  int     `json:"history"`
}

func (v *View) StatusHandler(w http.ResponseWriter, r *http.Request) {
	reply := v.LastReply()

	data := StatusData{
		ID:       v.Config.ID,
		Location: v.Config.Location,
		Session:  reply.Session,
		Status:   reply.Status,
		State:    reply.State,
		Velocity: reply.Velocity,
		Angle:    reply.Angle,
		Present:  reply.Present,
	}
	if d, ok := v.Session.Detector.(*Fs.Detector); ok {
		data.Height = finite(d.Last().Features.BodyHeight)
		data.History = d.HistoryLen()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// ResetHandler restarts the replay when one is running, otherwise just the detector
func (v *View) ResetHandler(w http.ResponseWriter, r *http.Request) {
	var reply Reply
	if v.Supervisor != nil {
		v.Supervisor.Restart()
		reply = v.LastReply()
	} else {
		reply = v.Reset()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reply)
}

// SystemInfo describes the deployment and its alert output
type SystemInfo struct {
	ID            string `json:"id"`
	Location      string `json:"location"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	FPS           int    `json:"fps"`
	Output        string `json:"output"`
	MIDIPort      string `json:"midiPort,omitempty"`
	MIDIChannel   int    `json:"midiChannel,omitempty"`
	MIDIWarnNote  int    `json:"midiWarnNote,omitempty"`
	MIDIAlarmNote int    `json:"midiAlarmNote,omitempty"`
}

func (v *View) SystemInfoHandler(w http.ResponseWriter, r *http.Request) {
	systemInfo := SystemInfo{
		ID:       v.Config.ID,
		Location: v.Config.Location,
		Width:    v.Config.Width,
		Height:   v.Config.Height,
		FPS:      v.Config.FPS,
		Output:   "none",
	}
	if v.Output != nil {
		systemInfo.Output = v.Output.Type()
		v.getMIDISystemInfo(&systemInfo)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(systemInfo)
}
