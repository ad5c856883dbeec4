package web

import (
	"net/http"
)

type healthBody struct {
	Status         string `json:"status"`
	NodeReachable  bool   `json:"node_reachable"`
	ChainID        string `json:"chain_id,omitempty"`
	NodeLatencyMS  int64  `json:"node_latency_ms"`
	RedisReachable bool   `json:"redis_reachable"`
	RedisLatencyMS int64  `json:"redis_latency_ms"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Health(r.Context())
	body := healthBody{
		Status:         "ok",
		NodeReachable:  st.NodeReachable,
		ChainID:        st.ChainID,
		NodeLatencyMS:  st.NodeLatency.Milliseconds(),
		RedisReachable: st.RedisReachable,
		RedisLatencyMS: st.RedisLatency.Milliseconds(),
	}
	status := http.StatusOK
	if !st.Healthy() {
		body.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}
