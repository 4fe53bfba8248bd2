package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rmap/internal/codec"
	"rmap/internal/domain"
)

// Handshaker processes protocol envelopes. Implemented by handshake.Engine.
type Handshaker interface {
	ProcessMessage1(ctx context.Context, env codec.Envelope) (codec.Envelope, error)
	ProcessMessage3(ctx context.Context, env codec.Envelope) (domain.IssueResult, error)
}

// NewRouter builds the HTTP surface over the handshake engine and the
// personalization collaborator.
func NewRouter(h Handshaker, p domain.Personalizer) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/rmap-initiate", func(c *gin.Context) {
		var env codec.Envelope
		if err := c.ShouldBindJSON(&env); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed envelope"})
			return
		}
		out, err := h.ProcessMessage1(c.Request.Context(), env)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})

	r.POST("/api/rmap-get-link", func(c *gin.Context) {
		var env codec.Envelope
		if err := c.ShouldBindJSON(&env); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed envelope"})
			return
		}
		res, err := h.ProcessMessage3(c.Request.Context(), env)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": res.Handle, "identity": res.Identity})
	})

	r.GET("/api/get-version/:handle", func(c *gin.Context) {
		handle := domain.Handle(c.Param("handle"))
		artifact, err := p.Fetch(c.Request.Context(), handle)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/octet-stream", artifact)
	})

	return r
}

func writeError(c *gin.Context, err error) {
	c.JSON(httpStatus(err), gin.H{"error": err.Error()})
}

// httpStatus maps protocol errors onto transport status codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrTypeMismatch), errors.Is(err, domain.ErrDecrypt):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownIdentity), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateNonce),
		errors.Is(err, domain.ErrNonceMismatch),
		errors.Is(err, domain.ErrAlreadyConsumed),
		errors.Is(err, domain.ErrAlreadyReleased):
		return http.StatusConflict
	case errors.Is(err, domain.ErrExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
