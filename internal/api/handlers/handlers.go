// Package handlers implements the HTTP surface of the control plane:
// opportunity listing, venue status, and the configured symbol list.
// Uses the same handler shape throughout the rest of this module: a
// dependency struct plus a small JSON response helper.
package handlers

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"arbitrage/internal/models"
	"arbitrage/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OpportunityProvider supplies the broker's current opportunity list for
// the plain HTTP listing endpoint.
type OpportunityProvider interface {
	Latest() []models.Opportunity
}

// Handlers holds the dependencies the control-plane HTTP endpoints need.
type Handlers struct {
	Store         *store.Store
	Opportunities OpportunityProvider
	Config        models.Config
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListOpportunities returns the most recent scan tick's opportunities
// sorted by net profit, highest first, the ordering the scanner already
// produces before publishing.
func (h *Handlers) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	opps := h.Opportunities.Latest()
	writeJSON(w, http.StatusOK, models.OpportunitiesToWire(opps))
}

// venueStatusEntry is the wire shape for one row of GetStatus.
type venueStatusEntry struct {
	Venue  string `json:"venue"`
	Status string `json:"status"`
}

// GetStatus returns every configured venue's last known connection
// status.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	statuses := h.Store.Statuses()
	out := make([]venueStatusEntry, 0, len(h.Config.Venues))
	for _, venue := range h.Config.Venues {
		status, ok := statuses[venue]
		if !ok {
			status = models.StatusDisconnected
		}
		out = append(out, venueStatusEntry{Venue: venue, Status: string(status)})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListPairs returns the symbols the scanner is configured to monitor.
func (h *Handlers) ListPairs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Config.Symbols)
}

// Health is a liveness probe: 200 means the process is up and serving.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SuccessResponse{Message: "ok"})
}
