package api

import (
	"errors"
	"net/http"

	"OptionPulse/internal/analytics"
	"OptionPulse/internal/domain/models"
	"OptionPulse/internal/settlement"
	"OptionPulse/internal/usecase"
	xhttp "OptionPulse/pkg/http"
	xlogger "OptionPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SessionEchoHandler exposes the trading session over Echo.
type SessionEchoHandler struct {
	logger      *xlogger.Logger
	feed        *usecase.FeedConnector
	lifecycle   *usecase.Lifecycle
	recommender *usecase.Recommender
	engine      *settlement.Engine
	vol         *analytics.Volatility
	symbol      string
}

func NewSessionEchoHandler(
	logger *xlogger.Logger,
	feed *usecase.FeedConnector,
	lifecycle *usecase.Lifecycle,
	recommender *usecase.Recommender,
	engine *settlement.Engine,
	vol *analytics.Volatility,
	symbol string,
) *SessionEchoHandler {
	return &SessionEchoHandler{
		logger:      logger,
		feed:        feed,
		lifecycle:   lifecycle,
		recommender: recommender,
		engine:      engine,
		vol:         vol,
		symbol:      symbol,
	}
}

var _ xhttp.Handler = (*SessionEchoHandler)(nil)

func (h *SessionEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/trade", h.PlaceTrade)
	g.POST("/trade/close", h.CloseEarly)
	g.GET("/trade", h.TradeState)
	g.GET("/recommendation", h.Recommendation)
	g.GET("/price", h.Price)
	g.GET("/status", h.Status)
}

// tradeStateResponse is TradeState plus the live countdown.
type tradeStateResponse struct {
	models.TradeState
	RemainingMs int64 `json:"remaining_ms"`
}

func (h *SessionEchoHandler) PlaceTrade(c echo.Context) error {
	req := &models.PlaceTradeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	state, err := h.lifecycle.Place(
		c.Request().Context(),
		models.Side(req.Side),
		req.StrikeOffset,
		models.ExpiryClass(req.Expiry),
		req.Contracts,
	)
	if err != nil {
		h.logger.Warn("place trade rejected", xlogger.Error(err))
		return h.tradeError(c, err)
	}

	return xhttp.CreatedResponse(c, tradeStateResponse{
		TradeState:  state,
		RemainingMs: h.lifecycle.Remaining().Milliseconds(),
	})
}

func (h *SessionEchoHandler) CloseEarly(c echo.Context) error {
	state, err := h.lifecycle.CloseEarly(c.Request().Context())
	if err != nil {
		return h.tradeError(c, err)
	}
	return xhttp.SuccessResponse(c, tradeStateResponse{TradeState: state})
}

func (h *SessionEchoHandler) TradeState(c echo.Context) error {
	state, ok := h.lifecycle.State()
	if !ok {
		return xhttp.NotFoundResponse(c, map[string]string{"message": "no trade in progress"})
	}
	return xhttp.SuccessResponse(c, tradeStateResponse{
		TradeState:  state,
		RemainingMs: h.lifecycle.Remaining().Milliseconds(),
	})
}

func (h *SessionEchoHandler) Recommendation(c echo.Context) error {
	rec, err := h.recommender.Recommend(c.Request().Context())
	if err != nil {
		h.logger.Error("recommendation error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *SessionEchoHandler) Price(c echo.Context) error {
	price, ok := h.feed.CurrentPrice()
	return xhttp.SuccessResponse(c, models.PriceResponse{
		Symbol:    h.symbol,
		Price:     price,
		HasPrice:  ok,
		Connected: h.feed.IsConnected(),
	})
}

func (h *SessionEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.StatusResponse{
		Connected:     h.feed.IsConnected(),
		VolatilityPct: h.vol.CurrentVolatilityPct(),
		ActiveTrade:   h.lifecycle.Active(),
		PayoutVersion: h.engine.TableVersion(),
	})
}

// tradeError maps domain sentinels onto HTTP status codes.
func (h *SessionEchoHandler) tradeError(c echo.Context, err error) error {
	msg := map[string]string{"message": err.Error()}
	switch {
	case errors.Is(err, models.ErrInvalidTradeRequest):
		return xhttp.BadRequestResponse(c, msg)
	case errors.Is(err, models.ErrDuplicatePlacement):
		return xhttp.ConflictResponse(c, msg)
	case errors.Is(err, models.ErrFeedUnavailable):
		return xhttp.ServiceUnavailableResponse(c, msg)
	case errors.Is(err, models.ErrNoActiveTrade):
		return xhttp.NotFoundResponse(c, msg)
	case errors.Is(err, models.ErrLedgerRejected):
		return xhttp.DataResponse(c, http.StatusUnprocessableEntity, msg)
	default:
		return xhttp.AppErrorResponse(c, err)
	}
}
