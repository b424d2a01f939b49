package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"sessionbot/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	SignatureHeader    = "X-Razorpay-Signature"
	EventLinkPaid      = "payment_link.paid"
	maxWebhookBody     = 1 << 20
	healthCheckTimeout = 3 * time.Second
)

// RechargeConfirmer credits a paid recharge by its link id
type RechargeConfirmer interface {
	ConfirmRecharge(ctx context.Context, reference string) (*models.Payment, error)
}

// Pinger is a dependency reported by the health check
type Pinger interface {
	Ping(ctx context.Context) error
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink struct {
			Entity LinkEntity `json:"entity"`
		} `json:"payment_link"`
	} `json:"payload"`
}

// WebhookServer serves the Razorpay webhook and the health check
type WebhookServer struct {
	payments RechargeConfirmer
	secret   string
	checks   map[string]Pinger
	router   *gin.Engine
	srv      *http.Server
}

// NewWebhookServer builds the router. checks maps a dependency name to its pinger.
func NewWebhookServer(addr, secret string, payments RechargeConfirmer, checks map[string]Pinger) *WebhookServer {
	s := &WebhookServer{
		payments: payments,
		secret:   secret,
		checks:   checks,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.POST("/webhooks/razorpay", s.handleRazorpay)
	router.GET("/healthz", s.handleHealth)

	s.router = router
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router
func (s *WebhookServer) Handler() http.Handler {
	return s.router
}

// Start serves in the background until Shutdown
func (s *WebhookServer) Start() {
	go func() {
		log.WithField("addr", s.srv.Addr).Info("HTTP server starting")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *WebhookServer) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

// ValidSignature reports whether signature is the hex HMAC-SHA256 of body under secret
func ValidSignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

func (s *WebhookServer) handleRazorpay(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !ValidSignature(body, c.GetHeader(SignatureHeader), s.secret) {
		log.WithField("remoteAddr", c.ClientIP()).Warn("Rejected webhook with invalid signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if event.Event != EventLinkPaid {
		log.WithField("event", event.Event).Debug("Ignored webhook event")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	linkID := event.Payload.PaymentLink.Entity.ID
	if linkID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing payment link id"})
		return
	}

	payment, err := s.payments.ConfirmRecharge(c.Request.Context(), linkID)
	if err != nil {
		log.WithFields(log.Fields{
			"linkID": linkID,
			"error":  err,
		}).Error("Failed to confirm recharge from webhook")
		// Non-2xx makes Razorpay retry delivery
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm payment"})
		return
	}

	if payment == nil {
		c.JSON(http.StatusOK, gin.H{"status": "already_processed"})
		return
	}

	log.WithFields(log.Fields{
		"linkID": linkID,
		"userID": payment.UserID,
		"amount": payment.Amount,
	}).Info("Recharge confirmed by webhook")
	c.JSON(http.StatusOK, gin.H{"status": "credited"})
}

func (s *WebhookServer) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	report := gin.H{}
	for name, pinger := range s.checks {
		if err := pinger.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = "unhealthy"
			continue
		}
		report[name] = "healthy"
	}

	if status == http.StatusOK {
		report["status"] = "ok"
	} else {
		report["status"] = "error"
	}
	c.JSON(status, report)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("HTTP request")
	}
}
