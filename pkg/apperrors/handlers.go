package apperrors

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const productionMessage = "Internal server error"

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// GinErrorHandler - единственное место, где ошибка превращается в HTTP ответ.
// ErrorLog получает каждую ошибку, даже если клиенту она показана урезанной.
type GinErrorHandler struct {
	Debug    bool
	ErrorLog *slog.Logger
}

var (
	defaultHandlerMu sync.RWMutex
	defaultHandler   = &GinErrorHandler{Debug: true}
)

// SetDefaultHandler настраивается один раз при старте приложения
func SetDefaultHandler(h *GinErrorHandler) {
	defaultHandlerMu.Lock()
	defer defaultHandlerMu.Unlock()
	defaultHandler = h
}

func getDefaultHandler() *GinErrorHandler {
	defaultHandlerMu.RLock()
	defer defaultHandlerMu.RUnlock()
	return defaultHandler
}

func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	h.record(c, appErr)

	response := appErr
	if !h.Debug && appErr.HTTPCode >= 500 {
		// Копия, чтобы не портить ошибку, которую еще может читать вызывающий код
		response = &AppError{
			Code:     appErr.Code,
			Domain:   appErr.Domain,
			Message:  productionMessage,
			HTTPCode: appErr.HTTPCode,
		}
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{Error: response})
}

func (h *GinErrorHandler) record(c *gin.Context, appErr *AppError) {
	if h.ErrorLog == nil {
		return
	}
	fields := []any{
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		slog.Int("status", appErr.HTTPCode),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("code", string(appErr.Code)),
		slog.String("message", appErr.Message),
	}
	if appErr.Err != nil {
		fields = append(fields, slog.String("cause", appErr.Err.Error()))
	}
	if appErr.Details != nil {
		fields = append(fields, slog.Any("details", appErr.Details))
	}
	h.ErrorLog.Error("request failed", fields...)
}

// HandleError - быстрая функция-помощник для Gin
func HandleError(c *gin.Context, err error) {
	getDefaultHandler().HandleGinError(c, err)
}
