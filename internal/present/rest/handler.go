package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/folioworks/portfolio/internal/domain"
	"github.com/folioworks/portfolio/internal/present/rest/middleware"
	"github.com/folioworks/portfolio/internal/present/rest/presenter"
	"github.com/folioworks/portfolio/internal/service"
	"github.com/folioworks/portfolio/internal/usecase"
)

type Handler struct {
	config  domain.Config
	auth    *service.AuthService
	content *usecase.ContentUsecase
	seed    usecase.ContentSource
	signal  service.Signal
}

func NewHandler(
	config domain.Config,
	auth *service.AuthService,
	content *usecase.ContentUsecase,
	seed usecase.ContentSource,
	signal service.Signal,
) *Handler {
	return &Handler{
		config:  config,
		auth:    auth,
		content: content,
		seed:    seed,
		signal:  signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, mw *middleware.AuthMiddleware) {
	e.Use(mw.SiteGate)

	e.GET("/healthz", h.handleHealthz)
	e.GET("/login", h.handleLoginPage)

	e.POST("/api/auth", h.handleSiteLogin)
	e.DELETE("/api/auth", h.handleSiteLogout)
	e.GET("/api/auth/check", h.handleSiteCheck)

	e.GET("/api/writing", h.handleWriting)

	e.POST("/api/admin/auth", h.handleAdminLogin)
	e.DELETE("/api/admin/auth", h.handleAdminLogout)
	e.GET("/api/admin/auth", h.handleAdminStatus)

	admin := e.Group("/api/admin", mw.AdminGate)
	admin.GET("/content", h.handleAdminList)
	admin.POST("/content", h.handleAdminCreate)
	admin.GET("/content/:id", h.handleAdminGet)
	admin.PUT("/content/:id", h.handleAdminUpdate)
	admin.DELETE("/content/:id", h.handleAdminDelete)
	admin.POST("/init", h.handleAdminInit)
	admin.POST("/seed", h.handleAdminSeed)
	admin.DELETE("/rate-limits/:key", h.handleResetRateLimit)
	admin.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleHealthz(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) setSession(c echo.Context, scope domain.Scope, token string) {
	c.SetCookie(&http.Cookie{
		Name:     domain.CookieName(scope),
		Value:    token,
		Path:     "/",
		MaxAge:   int(domain.SessionMaxAge(scope).Seconds()),
		HttpOnly: true,
		Secure:   h.config.Production,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSession(c echo.Context, scope domain.Scope) {
	c.SetCookie(&http.Cookie{
		Name:     domain.CookieName(scope),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.Production,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) login(c echo.Context, scope domain.Scope) error {
	ctx := c.Request().Context()

	var req loginRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid request body")
	}

	err = h.auth.Login(ctx, scope, req.Password, c.RealIP())
	if err != nil {
		return presenter.Error(c, err)
	}

	token, err := h.auth.IssueToken(scope)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	h.setSession(c, scope, token)
	return presenter.OK(c, echo.Map{"success": true})
}

func (h *Handler) handleSiteLogin(c echo.Context) error {
	return h.login(c, domain.ScopeSite)
}

func (h *Handler) handleSiteLogout(c echo.Context) error {
	h.clearSession(c, domain.ScopeSite)
	return presenter.OK(c, echo.Map{"success": true})
}

func (h *Handler) handleSiteCheck(c echo.Context) error {
	ctx := c.Request().Context()

	token := ""
	if cookie, err := c.Cookie(domain.SiteCookieName); err == nil {
		token = cookie.Value
	}

	status := h.auth.Status(ctx, token)
	if status.PasswordRequired && !status.Authenticated {
		return c.JSON(http.StatusUnauthorized, echo.Map{"authenticated": false})
	}
	return presenter.OK(c, status)
}

func (h *Handler) handleAdminLogin(c echo.Context) error {
	return h.login(c, domain.ScopeAdmin)
}

func (h *Handler) handleAdminLogout(c echo.Context) error {
	h.clearSession(c, domain.ScopeAdmin)
	return presenter.OK(c, echo.Map{"success": true})
}

func (h *Handler) handleAdminStatus(c echo.Context) error {
	ctx := c.Request().Context()

	token := ""
	if cookie, err := c.Cookie(domain.AdminCookieName); err == nil {
		token = cookie.Value
	}
	return presenter.OK(c, echo.Map{"authenticated": h.auth.Verify(ctx, domain.ScopeAdmin, token)})
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func (h *Handler) listParams(c echo.Context) (usecase.ListParams, error) {
	var filters domain.ActiveFilters
	err := (&echo.DefaultBinder{}).BindQueryParams(c, &filters)
	if err != nil {
		return usecase.ListParams{}, err
	}
	filters.Query = strings.TrimSpace(filters.Query)

	mode := usecase.FacetsIndependent
	if c.QueryParam("facets") == string(usecase.FacetsConditional) {
		mode = usecase.FacetsConditional
	}

	return usecase.ListParams{
		Filters:  filters,
		PageSize: h.config.PageSize,
		Fuzzy:    truthy(c.QueryParam("fuzzy")),
		Facets:   mode,
	}, nil
}

func (h *Handler) handleWriting(c echo.Context) error {
	ctx := c.Request().Context()

	params, err := h.listParams(c)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	params.Page = 1
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err == nil && page > 0 {
			params.Page = page
		}
	}

	result, err := h.content.List(ctx, params)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.Cached(c, result)
}

func (h *Handler) handleAdminList(c echo.Context) error {
	ctx := c.Request().Context()

	params, err := h.listParams(c)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	result, err := h.content.List(ctx, params)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{
		"content":    result.Items,
		"filters":    result.FilterOptions,
		"totalCount": result.TotalCount,
	})
}

func (h *Handler) handleAdminCreate(c echo.Context) error {
	ctx := c.Request().Context()

	var item domain.ContentItem
	err := c.Bind(&item)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid request body")
	}

	created, err := h.content.Create(ctx, item)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleAdminGet(c echo.Context) error {
	ctx := c.Request().Context()

	item, err := h.content.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, item)
}

func (h *Handler) handleAdminUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	var patch domain.ContentPatch
	err := c.Bind(&patch)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid request body")
	}

	updated, err := h.content.Update(ctx, c.Param("id"), patch)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleAdminDelete(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.content.Delete(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"success": true})
}

func (h *Handler) handleAdminInit(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.content.Init(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"success": true})
}

func (h *Handler) handleAdminSeed(c echo.Context) error {
	ctx := c.Request().Context()

	if h.seed == nil {
		return presenter.BadRequestMessage(c, "no content file configured")
	}

	n, err := h.content.Seed(ctx, h.seed)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{
		"success": true,
		"message": fmt.Sprintf("Seeded %d content items", n),
	})
}

func (h *Handler) handleResetRateLimit(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.auth.ResetAttempts(ctx, c.Param("key"))
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"success": true})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin lets browsers connect only from this host. Clients that send
// no Origin header are not browsers and carry no ambient cookies.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

type socketRequest struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "realtime is disabled"})
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// subscribe first so nothing published after the handshake is lost
	events, err := h.signal.Subscribe(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.DebugContext(
			ctx, "Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return nil
	}
	defer func() {
		ws.Close()
	}()

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req socketRequest
			err := ws.ReadJSON(&req)
			if err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.DebugContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}

			switch req.Type {
			case "h": // heartbeat
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
