package httphandler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	visitorapp "github.com/atiendo/atiendo/internal/application/visitor"
	domainvisitor "github.com/atiendo/atiendo/internal/domain/visitor"
	"github.com/atiendo/atiendo/internal/domain/uuid"
	"github.com/atiendo/atiendo/internal/infrastructure/httpserver"
	"github.com/atiendo/atiendo/internal/middleware"
)

// TrackVisitorRequest registers browser activity for a fingerprint.
type TrackVisitorRequest struct {
	Fingerprint string `json:"fingerprint" form:"fingerprint" validate:"required,max=128"`
}

// IdentifyVisitorRequest attaches contact details to a visitor.
type IdentifyVisitorRequest struct {
	Name  string `json:"name"  form:"name"  validate:"required,max=200"`
	Email string `json:"email" form:"email" validate:"required,email"`
}

// TransitionVisitorRequest moves a visitor to another lifecycle state.
type TransitionVisitorRequest struct {
	State string `json:"state" form:"state" validate:"required"`
}

// VisitorResponse represents a visitor in API responses.
type VisitorResponse struct {
	ID          uuid.UUID `json:"id"`
	SiteID      uuid.UUID `json:"site_id"`
	Fingerprint string    `json:"fingerprint"`
	State       string    `json:"state"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   string    `json:"created_at"`
	LastSeenAt  string    `json:"last_seen_at"`
}

// TrackVisitorResponse adds the created flag so the widget knows whether
// this was a first sight.
type TrackVisitorResponse struct {
	Visitor VisitorResponse `json:"visitor"`
	Created bool            `json:"created"`
}

// VisitorService defines the interface for visitor operations.
// Declared on the consumer side per project guidelines.
type VisitorService interface {
	// TrackVisitor upserts a visitor by site and fingerprint.
	TrackVisitor(ctx context.Context, cmd visitorapp.TrackVisitorCommand) (visitorapp.TrackVisitorResult, error)

	// IdentifyVisitor attaches name and email to a visitor.
	IdentifyVisitor(ctx context.Context, cmd visitorapp.IdentifyVisitorCommand) (*domainvisitor.Visitor, error)

	// TransitionState moves a visitor through its lifecycle.
	TransitionState(ctx context.Context, cmd visitorapp.TransitionStateCommand) (*domainvisitor.Visitor, error)
}

// VisitorHandler handles visitor-related HTTP requests on the widget API.
type VisitorHandler struct {
	visitorService VisitorService
}

// NewVisitorHandler creates a new VisitorHandler.
func NewVisitorHandler(visitorService VisitorService) *VisitorHandler {
	return &VisitorHandler{
		visitorService: visitorService,
	}
}

// RegisterRoutes registers visitor routes with the router.
func (h *VisitorHandler) RegisterRoutes(r *httpserver.Router) {
	// Widget routes resolve tenant and site from the X-Site-Key header.
	r.Widget().POST("/visitors/track", h.Track)
	r.Widget().POST("/visitors/:id/identify", h.Identify)
	r.Widget().POST("/visitors/:id/state", h.Transition)
}

// Track handles POST /api/v1/widget/visitors/track.
// Creates the visitor on first sight and refreshes last-seen afterwards.
func (h *VisitorHandler) Track(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	siteID := middleware.GetSiteID(c)
	if tenantID.IsZero() || siteID.IsZero() {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "SITE_KEY_REQUIRED", "site key is required")
	}

	var req TrackVisitorRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}
	if valErr := validateStruct(&req); valErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Error())
	}

	cmd := visitorapp.TrackVisitorCommand{
		TenantID:    tenantID,
		SiteID:      siteID,
		Fingerprint: req.Fingerprint,
	}

	result, err := h.visitorService.TrackVisitor(c.Request().Context(), cmd)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	resp := TrackVisitorResponse{
		Visitor: ToVisitorResponse(result.Visitor),
		Created: result.Created,
	}
	if result.Created {
		return httpserver.RespondCreated(c, resp)
	}
	return httpserver.RespondOK(c, resp)
}

// Identify handles POST /api/v1/widget/visitors/:id/identify.
func (h *VisitorHandler) Identify(c echo.Context) error {
	visitorID, parseErr := uuid.ParseUUID(c.Param("id"))
	if parseErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_VISITOR_ID", "invalid visitor ID format")
	}

	var req IdentifyVisitorRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}
	if valErr := validateStruct(&req); valErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Error())
	}

	cmd := visitorapp.IdentifyVisitorCommand{
		VisitorID: visitorID,
		Name:      req.Name,
		Email:     req.Email,
	}

	v, err := h.visitorService.IdentifyVisitor(c.Request().Context(), cmd)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ToVisitorResponse(v))
}

// Transition handles POST /api/v1/widget/visitors/:id/state.
func (h *VisitorHandler) Transition(c echo.Context) error {
	visitorID, parseErr := uuid.ParseUUID(c.Param("id"))
	if parseErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_VISITOR_ID", "invalid visitor ID format")
	}

	var req TransitionVisitorRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}
	if valErr := validateStruct(&req); valErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Error())
	}

	cmd := visitorapp.TransitionStateCommand{
		VisitorID: visitorID,
		NextState: req.State,
	}

	v, err := h.visitorService.TransitionState(c.Request().Context(), cmd)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ToVisitorResponse(v))
}

// MockVisitorService is a mock implementation of VisitorService for testing.
type MockVisitorService struct {
	visitors      map[uuid.UUID]*domainvisitor.Visitor
	byFingerprint map[string]*domainvisitor.Visitor
}

// NewMockVisitorService creates a new mock visitor service.
func NewMockVisitorService() *MockVisitorService {
	return &MockVisitorService{
		visitors:      make(map[uuid.UUID]*domainvisitor.Visitor),
		byFingerprint: make(map[string]*domainvisitor.Visitor),
	}
}

// AddVisitor adds a visitor to the mock service.
func (m *MockVisitorService) AddVisitor(v *domainvisitor.Visitor) {
	m.visitors[v.ID()] = v
	m.byFingerprint[fingerprintKey(v.SiteID(), v.Fingerprint())] = v
}

// TrackVisitor upserts a visitor in the mock service.
func (m *MockVisitorService) TrackVisitor(
	_ context.Context,
	cmd visitorapp.TrackVisitorCommand,
) (visitorapp.TrackVisitorResult, error) {
	if existing, ok := m.byFingerprint[fingerprintKey(cmd.SiteID, cmd.Fingerprint)]; ok {
		existing.Touch()
		return visitorapp.TrackVisitorResult{Visitor: existing}, nil
	}

	created, err := domainvisitor.NewVisitor(cmd.TenantID, cmd.SiteID, cmd.Fingerprint)
	if err != nil {
		return visitorapp.TrackVisitorResult{}, err
	}
	m.AddVisitor(created)
	return visitorapp.TrackVisitorResult{Visitor: created, Created: true}, nil
}

// IdentifyVisitor identifies a visitor in the mock service.
func (m *MockVisitorService) IdentifyVisitor(
	_ context.Context,
	cmd visitorapp.IdentifyVisitorCommand,
) (*domainvisitor.Visitor, error) {
	v, ok := m.visitors[cmd.VisitorID]
	if !ok {
		return nil, visitorapp.ErrVisitorNotFound
	}
	if err := v.Identify(cmd.Name, cmd.Email); err != nil {
		return nil, err
	}
	return v, nil
}

// TransitionState transitions a visitor in the mock service.
func (m *MockVisitorService) TransitionState(
	_ context.Context,
	cmd visitorapp.TransitionStateCommand,
) (*domainvisitor.Visitor, error) {
	next, err := domainvisitor.NewState(cmd.NextState)
	if err != nil {
		return nil, visitorapp.ErrUnknownState
	}
	v, ok := m.visitors[cmd.VisitorID]
	if !ok {
		return nil, visitorapp.ErrVisitorNotFound
	}
	if transitionErr := v.TransitionTo(next); transitionErr != nil {
		return nil, visitorapp.ErrInvalidTransition
	}
	return v, nil
}

func fingerprintKey(siteID uuid.UUID, fingerprint string) string {
	return siteID.String() + "/" + fingerprint
}

// ToVisitorResponse converts a domain Visitor to VisitorResponse.
func ToVisitorResponse(v *domainvisitor.Visitor) VisitorResponse {
	return VisitorResponse{
		ID:          v.ID(),
		SiteID:      v.SiteID(),
		Fingerprint: v.Fingerprint(),
		State:       v.State().String(),
		Name:        v.Name(),
		Email:       v.Email(),
		CreatedAt:   v.CreatedAt().Format(timeFormat),
		LastSeenAt:  v.LastSeenAt().Format(timeFormat),
	}
}
