package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/graph"
	"github.com/foldview/foldview/pkg/graphio"
)

// viewResponse is the visible projection served to layout and UI clients.
type viewResponse struct {
	Nodes      []graph.Node        `json:"nodes"`
	Containers []graph.Container   `json:"containers"`
	Edges      []graph.VisibleEdge `json:"edges"`
	Layout     graph.LayoutState   `json:"layout"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := viewResponse{
		Nodes:      s.g.VisibleNodes(),
		Containers: s.g.VisibleContainers(),
		Edges:      s.g.VisibleEdges(),
		Layout:     s.g.LayoutState(),
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc := graphio.Snapshot(s.g)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleLoadDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 32<<20))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidDocument, err, "read request body"))
		return
	}
	doc, err := graphio.ParseDocument(body)
	if err != nil {
		writeError(w, err)
		return
	}
	g, err := doc.Build()
	if err != nil {
		writeError(w, err)
		return
	}

	s.applyWarnLimit(g)
	s.mu.Lock()
	s.g = g
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"name":       doc.Name,
		"hash":       doc.Hash(),
		"nodes":      g.NodeCount(),
		"edges":      g.EdgeCount(),
		"containers": g.ContainerCount(),
	})
}

// =============================================================================
// Collapse / Expand
// =============================================================================

// mutate runs fn under the graph lock and writes the fresh visible projection
// on success.
func (s *Server) mutate(w http.ResponseWriter, fn func(g *graph.Graph) error) {
	s.mu.Lock()
	err := fn(s.g)
	var resp viewResponse
	if err == nil {
		resp = viewResponse{
			Nodes:      s.g.VisibleNodes(),
			Containers: s.g.VisibleContainers(),
			Edges:      s.g.VisibleEdges(),
			Layout:     s.g.LayoutState(),
		}
	}
	s.mu.Unlock()

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mutate(w, func(g *graph.Graph) error { return g.CollapseContainer(id) })
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mutate(w, func(g *graph.Graph) error { return g.ExpandContainer(id) })
}

func (s *Server) handleExpandForSearch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mutate(w, func(g *graph.Graph) error { return g.ExpandForSearch(id) })
}

func (s *Server) handleCollapseAll(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, func(g *graph.Graph) error { return g.CollapseAllContainers() })
}

func (s *Server) handleExpandAll(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, func(g *graph.Graph) error { return g.ExpandAllContainers() })
}

func (s *Server) handleSearchExpansions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := s.g.ExpandedForSearch()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string][]string{"expanded_for_search": ids})
}

func (s *Server) handleClearSearchExpansions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.g.ClearSearchExpansions()
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Smart Collapse
// =============================================================================

type smartCollapseRequest struct {
	Budget             float64 `json:"budget,omitempty"`
	NodeArea           float64 `json:"node_area,omitempty"`
	CollapsedFootprint float64 `json:"collapsed_footprint,omitempty"`
	Padding            float64 `json:"padding,omitempty"`
}

func (s *Server) handleSmartCollapse(w http.ResponseWriter, r *http.Request) {
	req := smartCollapseRequest{Budget: s.budget}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidOperation, err, "decode request"))
			return
		}
	}
	if req.Budget <= 0 {
		req.Budget = s.budget
	}
	model := s.model
	if req.NodeArea > 0 {
		model.NodeArea = req.NodeArea
	}
	if req.CollapsedFootprint > 0 {
		model.CollapsedFootprint = req.CollapsedFootprint
	}
	if req.Padding > 0 {
		model.Padding = req.Padding
	}

	s.mu.Lock()
	result, err := s.g.ApplySmartCollapse(req.Budget, model)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReArmSmartCollapse(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.g.ReArmSmartCollapse()
	eligible := s.g.SmartCollapseEligible()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"eligible": eligible})
}

// =============================================================================
// Layout Lifecycle
// =============================================================================

// positionUpdate is one entity's geometry written back by the layout driver.
type positionUpdate struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type layoutCompleteRequest struct {
	Positions []positionUpdate `json:"positions,omitempty"`
}

func (s *Server) handleLayoutState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := s.g.LayoutState()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleLayoutBegin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.g.BeginLayout()
	state := s.g.LayoutState()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

// handleLayoutComplete writes positions back and closes the layout pass.
// Unknown ids are skipped: the layout driver may lag behind a removal.
func (s *Server) handleLayoutComplete(w http.ResponseWriter, r *http.Request) {
	var req layoutCompleteRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidOperation, err, "decode request"))
			return
		}
	}

	s.mu.Lock()
	var err error
	for _, p := range req.Positions {
		if n, ok := s.g.Node(p.ID); ok {
			n.X, n.Y, n.Width, n.Height = p.X, p.Y, p.Width, p.Height
			err = s.g.UpdateNode(n)
		} else if c, ok := s.g.Container(p.ID); ok {
			c.X, c.Y, c.Width, c.Height = p.X, p.Y, p.Width, p.Height
			err = s.g.UpdateContainer(c)
		}
		if err != nil {
			break
		}
	}
	if err == nil {
		s.g.CompleteLayout()
	}
	state := s.g.LayoutState()
	s.mu.Unlock()

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleLayoutFail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidOperation, err, "decode request"))
			return
		}
	}
	s.mu.Lock()
	s.g.FailLayout(req.Message)
	state := s.g.LayoutState()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	history := s.g.AggregationHistory()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// =============================================================================
// Document Store
// =============================================================================

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"documents": names})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleSaveDocument persists the live graph under the given name.
func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	doc := graphio.Snapshot(s.g)
	s.mu.Unlock()
	doc.Name = name

	if err := s.store.Put(r.Context(), name, doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "hash": doc.Hash()})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOpenDocument replaces the live graph with a stored document.
func (s *Server) handleOpenDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	doc, err := s.store.Get(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	g, err := doc.Build()
	if err != nil {
		writeError(w, err)
		return
	}

	s.applyWarnLimit(g)
	s.mu.Lock()
	s.g = g
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"name":       name,
		"nodes":      g.NodeCount(),
		"edges":      g.EdgeCount(),
		"containers": g.ContainerCount(),
	})
}
