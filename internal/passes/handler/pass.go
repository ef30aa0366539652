package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"visitorpass/internal/passes/service"
	apperrors "visitorpass/pkg/errors"
	httputil "visitorpass/pkg/http"
	"visitorpass/pkg/logger"
	"visitorpass/pkg/model"
	"visitorpass/pkg/qrcode"
)

const (
	RouteCreatePass = "/api/pass/create"
	RouteViewPass   = "/pass/*key"
	RouteHome       = "/"

	expiresAtLayout = "2006-01-02T15:04:05.000Z07:00"
)

type PassHandler struct {
	service       service.PassService
	qr            qrcode.Generator
	pages         *Pages
	publicBaseURL string
	log           *logger.Logger
}

// NewPassHandler serves the pass API and pages. An empty publicBaseURL means
// pass URLs are built from the incoming request.
func NewPassHandler(
	service service.PassService,
	qr qrcode.Generator,
	pages *Pages,
	publicBaseURL string,
	log *logger.Logger,
) *PassHandler {
	return &PassHandler{
		service:       service,
		qr:            qr,
		pages:         pages,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log,
	}
}

func (h *PassHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreatePassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		msg := "Invalid request body"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			msg = "Request body too large"
		}
		h.writeCreateError(w, apperrors.InvalidInput(msg))
		return
	}

	res, err := h.service.Create(r.Context(), &req, h.baseURL(r))
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, model.CreatePassResponse{
		Success:   true,
		RequestID: res.Pass.RequestID,
		PassURL:   res.PassURL,
		ExpiresAt: res.Pass.ValidTo.Format(expiresAtLayout),
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", err)
	}
}

func (h *PassHandler) View(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	// catch-all so keys containing '/' still route; the value carries the
	// leading slash
	key := strings.TrimPrefix(ps.ByName("key"), "/")

	pass, expired, err := h.service.Get(r.Context(), key)
	if err != nil {
		appErr := apperrors.AsAppError(err)
		switch appErr.Code {
		case apperrors.CodeNotFound, apperrors.CodeInvalidInput:
			h.writeErrorPage(w, http.StatusNotFound, msgPassNotFound)
		default:
			h.log.Error("Failed to load pass", "key", key, "error", err)
			h.writeErrorPage(w, http.StatusInternalServerError, msgPassLoadError)
		}
		return
	}

	// the QR encodes the store key, which is the request id unless
	// token keys are enabled
	dataURL, err := h.qr.DataURL(pass.ID)
	if err != nil {
		appErr := apperrors.RenderFailure("Failed to render QR code", err)
		h.log.Error("Failed to render pass", "key", key, "error", appErr)
		h.writeErrorPage(w, appErr.StatusCode(), msgPassLoadError)
		return
	}

	if err := httputil.WriteHTML(w, http.StatusOK, h.pages.ticket, newTicketView(pass, dataURL, expired)); err != nil {
		h.log.Error("Failed to render pass page", "key", key, "error", err)
		h.writeErrorPage(w, http.StatusInternalServerError, msgPassLoadError)
	}
}

func (h *PassHandler) Home(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteHTML(w, http.StatusOK, h.pages.home, homeView{
		CreateURL:    h.baseURL(r) + RouteCreatePass,
		ActivePasses: h.service.Count(),
	}); err != nil {
		h.log.Error("Failed to render home page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// NotFound renders the error page for unknown routes.
func (h *PassHandler) NotFound(w http.ResponseWriter, _ *http.Request) {
	h.writeErrorPage(w, http.StatusNotFound, "Page not found")
}

func (h *PassHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(RouteCreatePass, h.Create)
	router.GET(RouteViewPass, h.View)
	router.GET(RouteHome, h.Home)
	router.NotFound = http.HandlerFunc(h.NotFound)
}

func (h *PassHandler) writeCreateError(w http.ResponseWriter, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.StatusCode()

	msg := appErr.Message
	if status >= http.StatusInternalServerError {
		h.log.Error("Failed to create pass", "error", err)
		msg = "Internal server error"
	}

	if writeErr := httputil.WriteJSON(w, status, model.CreatePassErrorResponse{
		Success: false,
		Error:   msg,
	}); writeErr != nil {
		h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
	}
}

func (h *PassHandler) writeErrorPage(w http.ResponseWriter, status int, message string) {
	if err := httputil.WriteHTML(w, status, h.pages.errorPage, errorView{
		Title:   "Pass Not Available",
		Message: message,
	}); err != nil {
		h.log.Error("Failed to render error page", "error", err)
		http.Error(w, message, status)
	}
}

// baseURL prefers the configured public URL and otherwise reconstructs the
// origin the client used, honouring proxy headers.
func (h *PassHandler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := firstHeaderValue(r.Header.Get("X-Forwarded-Proto")); proto == "http" || proto == "https" {
		scheme = proto
	}

	host := r.Host
	if fwd := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); fwd != "" {
		host = fwd
	}

	return scheme + "://" + host
}

func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}
