package diagnostics

import (
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime_seconds"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: s.Uptime().Seconds(),
	})
}

type peerView struct {
	Name     string  `json:"name"`
	Host     string  `json:"host"`
	Port     int     `json:"port"`
	LastWord *string `json:"last_word,omitempty"`
}

func (s *Server) handleDebugPeers(w http.ResponseWriter, r *http.Request) {
	peers := s.table.List()
	views := make([]peerView, len(peers))
	for i, p := range peers {
		views[i] = peerView{Name: p.Name, Host: p.Host, Port: p.Port, LastWord: p.LastWord()}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDebugDB(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
