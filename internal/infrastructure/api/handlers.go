package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"topolink-agent/internal/application/usecases"
	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"
	"topolink-agent/internal/infrastructure/health"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// PortResponse describes one logical port and its interface
type PortResponse struct {
	LogicalPort string `json:"logical_port"`
	Interface   string `json:"interface"`
	Type        string `json:"type,omitempty"`
	Parent      string `json:"parent,omitempty"`
	VLANID      int    `json:"vlan_id,omitempty"`
	Owned       bool   `json:"owned"`
}

// DriftResponse is one entry of a verification report
type DriftResponse struct {
	LogicalPort string        `json:"logical_port"`
	Type        string        `json:"drift"`
	Expected    PortResponse  `json:"expected"`
	Observed    *PortResponse `json:"observed,omitempty"`
}

// VerifyResponse is the verification report of a node
type VerifyResponse struct {
	Node       string          `json:"node"`
	Checked    int             `json:"checked"`
	Consistent bool            `json:"consistent"`
	Drifts     []DriftResponse `json:"drifts"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Command    *errors.CommandFailure `json:"command,omitempty"`
	RolledBack *bool                  `json:"rolled_back,omitempty"`
}

type createPlainRequest struct {
	Interface string `json:"interface"`
}

type createVLANRequest struct {
	VLANID int `json:"vlan_id"`
}

type configureRequest struct {
	Address string `json:"address"`
	Up      *bool  `json:"up"`
}

// Handler serves the link operations
type Handler struct {
	operations *usecases.LinkOperations
	health     *health.HealthService
	logger     *logrus.Logger
}

// NewHandler creates a new Handler
func NewHandler(operations *usecases.LinkOperations, healthService *health.HealthService, logger *logrus.Logger) *Handler {
	return &Handler{
		operations: operations,
		health:     healthService,
		logger:     logger,
	}
}

// ListNodes returns the session's node names
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string][]string{"nodes": h.operations.Session().NodeNames()})
}

// ListPorts returns every mapping of a node
func (h *Handler) ListPorts(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.operations.Ports(mux.Vars(r)["node"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, lo.Map(mappings, func(m entities.PortMapping, _ int) PortResponse {
		return portResponse(m.LogicalPort, m.Link)
	}))
}

// ResolvePort returns the interface behind a logical port
func (h *Handler) ResolvePort(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	link, err := h.operations.Session().Resolve(vars["node"], vars["port"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, portResponse(vars["port"], link))
}

// CreatePlainLink creates a plain link; the body may name the interface
func (h *Handler) CreatePlainLink(w http.ResponseWriter, r *http.Request) {
	var req createPlainRequest
	if !h.decode(w, r, &req, true) {
		return
	}
	vars := mux.Vars(r)

	out, err := h.operations.CreatePlainLinkNamed(r.Context(), vars["node"], vars["port"], req.Interface)
	h.health.RecordOperation(err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, portResponse(out.LogicalPort, out.Link))
}

// CreateVLANLink creates a VLAN on top of the port in the path
func (h *Handler) CreateVLANLink(w http.ResponseWriter, r *http.Request) {
	var req createVLANRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	vars := mux.Vars(r)

	out, err := h.operations.CreateVLANLink(r.Context(), vars["node"], vars["port"], req.VLANID)
	h.health.RecordOperation(err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, portResponse(out.LogicalPort, out.Link))
}

// BindPort maps the port to an interface that already exists
func (h *Handler) BindPort(w http.ResponseWriter, r *http.Request) {
	var req createPlainRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	vars := mux.Vars(r)

	out, err := h.operations.BindPort(r.Context(), vars["node"], vars["port"], req.Interface)
	h.health.RecordOperation(err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, portResponse(out.LogicalPort, out.Link))
}

// UnbindPort detaches the port from a bound interface without deleting it
func (h *Handler) UnbindPort(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	realName, err := h.operations.UnbindPort(r.Context(), vars["node"], vars["port"])
	h.health.RecordOperation(err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, PortResponse{LogicalPort: vars["port"], Interface: realName})
}

// RemoveLink removes a port of the type given in the query
func (h *Handler) RemoveLink(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ctx := r.Context()

	var (
		realName string
		err      error
	)
	switch entities.LinkType(r.URL.Query().Get("type")) {
	case entities.LinkTypeVLAN:
		realName, err = h.operations.RemoveLinkTypeVLAN(ctx, vars["node"], vars["port"])
	case entities.LinkTypePlain:
		realName, err = h.operations.RemovePlainLink(ctx, vars["node"], vars["port"])
	default:
		h.writeError(w, errors.NewValidationError("query parameter type must be vlan or plain", nil))
		return
	}

	h.health.RecordOperation(err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, PortResponse{LogicalPort: vars["port"], Interface: realName})
}

// ConfigureInterface applies an address and/or state to the port's interface
func (h *Handler) ConfigureInterface(w http.ResponseWriter, r *http.Request) {
	var req configureRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	vars := mux.Vars(r)

	out, err := h.operations.ConfigureInterface(r.Context(), usecases.ConfigureInterfaceInput{
		NodeName:    vars["node"],
		LogicalPort: vars["port"],
		Address:     req.Address,
		Up:          req.Up,
	})
	h.health.RecordOperation(err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, PortResponse{LogicalPort: vars["port"], Interface: out.RealName})
}

// VerifyPorts reports mapped ports that disagree with the kernel
func (h *Handler) VerifyPorts(w http.ResponseWriter, r *http.Request) {
	out, err := h.operations.VerifyPorts(r.Context(), mux.Vars(r)["node"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, NewVerifyResponse(out))
}

// NewVerifyResponse converts a verification result for output
func NewVerifyResponse(out *usecases.VerifyPortsOutput) VerifyResponse {
	drifts := lo.Map(out.Drifts, func(d usecases.PortDrift, _ int) DriftResponse {
		drift := DriftResponse{
			LogicalPort: d.LogicalPort,
			Type:        string(d.Type),
			Expected:    portResponse(d.LogicalPort, d.Expected),
		}
		if d.Observed != nil {
			observed := portResponse(d.LogicalPort, *d.Observed)
			drift.Observed = &observed
		}
		return drift
	})
	return VerifyResponse{
		Node:       out.NodeName,
		Checked:    out.Checked,
		Consistent: out.Consistent(),
		Drifts:     drifts,
	}
}

func portResponse(port string, link entities.VirtualLink) PortResponse {
	return PortResponse{
		LogicalPort: port,
		Interface:   link.Name,
		Type:        string(link.Type),
		Parent:      link.Parent,
		VLANID:      link.VLANID,
		Owned:       link.Owned,
	}
}

// decode reads a JSON body; an empty body is accepted when optional
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && stderrors.Is(err, io.EOF)) {
		return true
	}
	h.writeError(w, errors.NewValidationError("invalid request body", err))
	return false
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Error("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	response := ErrorResponse{Type: "INTERNAL", Message: err.Error()}

	var domainErr *errors.DomainError
	if stderrors.As(err, &domainErr) {
		response.Type = string(domainErr.Type)
		response.Command = domainErr.Command
		if domainErr.Type == errors.ErrorTypeRegistrationFailed {
			response.RolledBack = lo.ToPtr(domainErr.RolledBack)
		}
	}

	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).Warn("Request failed")
	}
	h.writeJSON(w, status, response)
}

// StatusCode maps an error to the HTTP status returned for it
func StatusCode(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound, errors.ErrorTypeUnknownPort:
		return http.StatusNotFound
	case errors.ErrorTypePortNotMapped:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeDuplicatePort, errors.ErrorTypeDuplicateInterface, errors.ErrorTypeRegistrationFailed:
		return http.StatusConflict
	case errors.ErrorTypeCommandFailed:
		return http.StatusBadGateway
	case errors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
