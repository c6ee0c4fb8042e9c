package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/piwi3910/barcut/internal/jobs"
	"github.com/piwi3910/barcut/internal/model"
	"github.com/piwi3910/barcut/internal/store"
)

// maxBodyBytes bounds request bodies; configs carry solutions and can be large.
const maxBodyBytes = 16 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps lookup failures to 404 and everything else to 500.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrJobNotFound),
		errors.Is(err, store.ErrAttachmentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// decodeConfig accepts a config as a JSON object or as a JSON encoded string.
func decodeConfig(raw json.RawMessage) (model.OptimizerConfig, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = json.RawMessage(s)
	}
	return model.DecodeOptimizerConfig(raw)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type jobResponse struct {
	JobID string `json:"job_id"`
}

func (s *Server) enqueueFull(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		Config json.RawMessage `json:"config"`
	}
	// The body is optional; without one the order's stored config is used.
	if err := decodeBody(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.store.GetOrder(r.Context(), name); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	payload := model.FullOptimizationPayload{OrderName: name}
	if len(body.Config) > 0 && string(body.Config) != "null" {
		cfg, err := decodeConfig(body.Config)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		payload.Config = &cfg
	}

	id, err := s.jobs.Enqueue(r.Context(), model.JobFullOptimization, payload, r.Header.Get(UserHeader))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobResponse{JobID: id})
}

func (s *Server) enqueueSingle(w http.ResponseWriter, r *http.Request) {
	var payload model.SingleOptimizationPayload
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.DocType == "" || payload.DocName == "" {
		writeError(w, http.StatusBadRequest, "doctype and docname are required")
		return
	}
	if !json.Valid([]byte(payload.RequestDataJSON)) {
		writeError(w, http.StatusBadRequest, "request_data_json is not valid JSON")
		return
	}

	id, err := s.jobs.Enqueue(r.Context(), model.JobSingleOptimization, payload, r.Header.Get(UserHeader))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobResponse{JobID: id})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	res, err := s.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type orderResponse struct {
	model.Order
	Config model.OptimizerConfig `json:"config"`
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.store.GetOrder(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Order: order, Config: order.Config()})
}

// putOrder creates or updates an order's customer and items. A stored
// optimizer config is kept.
func (s *Server) putOrder(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		Customer string            `json:"customer"`
		Items    []model.OrderItem `json:"items"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, it := range body.Items {
		if it.ItemCode == "" || it.Qty < 0 {
			writeError(w, http.StatusBadRequest, "items need an item_code and a non-negative qty")
			return
		}
	}

	order, err := s.store.GetOrder(r.Context(), name)
	status := http.StatusOK
	if errors.Is(err, store.ErrOrderNotFound) {
		order = model.Order{Name: name}
		status = http.StatusCreated
	} else if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	order.Customer = body.Customer
	order.Items = body.Items
	if err := s.store.SaveOrder(r.Context(), &order); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, status, orderResponse{Order: order, Config: order.Config()})
}

// getConfig returns the order's config with profiles synced to its items.
// The synced config is not saved.
func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	order, err := s.store.GetOrder(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	cfg := order.Config()
	for _, sk := range cfg.SyncProfiles(order.Items, s.catalog) {
		s.log.Warnw("skipping item without catalog entry", "sales_order", order.Name, "item_code", sk.ItemCode, "error", sk.Err)
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) putConfig(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var raw json.RawMessage
	if err := decodeBody(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := decodeConfig(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SaveOrderConfig(r.Context(), name, cfg); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) listAttachments(w http.ResponseWriter, r *http.Request) {
	doctype := r.URL.Query().Get("doctype")
	if doctype == "" {
		doctype = jobs.OrderDocType
	}
	atts, err := s.store.ListAttachments(r.Context(), doctype, chi.URLParam(r, "name"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if atts == nil {
		atts = []model.Attachment{}
	}
	writeJSON(w, http.StatusOK, atts)
}

func (s *Server) downloadAttachment(w http.ResponseWriter, r *http.Request) {
	att, err := s.store.GetAttachment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(att.Content)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(att.Content)
}

func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.ListAlerts(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []model.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}
