package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"utility-cloud/internal/auth"
	readingsapp "utility-cloud/internal/readings/application"
	readings "utility-cloud/internal/readings/domain"
)

// WorkflowHandler exposes the reading workflow catalog and the
// strategy active for the caller's tenant.
type WorkflowHandler struct {
	service *readingsapp.Service
}

// NewWorkflowHandler constructs a WorkflowHandler.
func NewWorkflowHandler(service *readingsapp.Service) (*WorkflowHandler, error) {
	if service == nil {
		return nil, errors.New("workflow handler: nil service")
	}
	return &WorkflowHandler{service: service}, nil
}

// ServeHTTP routes workflow requests.
func (h *WorkflowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/workflows"), "/")
	switch path {
	case "":
		h.handleCatalog(w)
	case "current":
		h.handleCurrent(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *WorkflowHandler) handleCatalog(w http.ResponseWriter) {
	var views []map[string]string
	for _, name := range []string{readings.WorkflowPermissive, readings.WorkflowTruthButVerify} {
		workflow, err := readings.WorkflowByName(name)
		if err != nil {
			continue
		}
		views = append(views, workflowView(workflow))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (h *WorkflowHandler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	workflow := h.service.WorkflowFor(tenantID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(workflowView(workflow))
}

func workflowView(workflow readings.WorkflowStrategy) map[string]string {
	return map[string]string{
		"name":        workflow.Name(),
		"description": workflow.Description(),
	}
}
