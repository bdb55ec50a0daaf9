package http

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/azizikri/coupon-giveaway/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	CookieName = "userIdentifier"

	MessagePrompt      = "Please click the button to claim a coupon."
	MessageUnavailable = "No coupons are currently available. Please try again later."
	MessageError       = "An error occurred while processing your request. Please try again later."
	MessageTooMany     = "Too many requests. Please try again later."
)

// ClaimResponse is always sent with status 200; Success carries the outcome.
type ClaimResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Coupon        string `json:"coupon,omitempty"`
	CouponClaimed string `json:"couponClaimed,omitempty"`
	TimeRemaining int    `json:"timeRemaining,omitempty"`
}

type Handler struct {
	service      usecase.CouponClaimer
	limiter      *Limiter
	cookieMaxAge time.Duration
}

type HandlerOption func(*Handler)

func WithCookieMaxAge(d time.Duration) HandlerOption {
	return func(h *Handler) { h.cookieMaxAge = d }
}

func WithLimiter(l *Limiter) HandlerOption {
	return func(h *Handler) { h.limiter = l }
}

func NewHandler(service usecase.CouponClaimer, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:      service,
		cookieMaxAge: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Routes(r chi.Router) {
	middlewares := []func(http.Handler) http.Handler{RecoverJSON}
	if h.limiter != nil {
		middlewares = append(middlewares, h.limiter.Middleware)
	}

	claim := r.With(middlewares...)
	claim.HandleFunc("/api/coupon", h.ClaimCoupon)
	claim.HandleFunc("/.netlify/functions/coupon", h.ClaimCoupon)
}

func (h *Handler) ClaimCoupon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, ClaimResponse{Success: false, Message: MessagePrompt})
		return
	}

	setNoCacheHeaders(w)

	id := usecase.ResolveIdentity(readIdentifierCookie(r), clientIP(r), r.Header.Get("User-Agent"))
	if id.SetCookie {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    url.QueryEscape(id.CookieValue),
			Path:     "/",
			MaxAge:   int(h.cookieMaxAge.Seconds()),
			HttpOnly: true,
		})
	}

	out := h.service.Claim(r.Context(), id.Key)
	for _, reason := range out.Degraded {
		log.Printf("Claim for %s degraded: %v", id.Key, reason)
	}

	switch out.Status {
	case usecase.ClaimCooldown:
		writeJSON(w, ClaimResponse{
			Success: false,
			Message: fmt.Sprintf(
				"You've already claimed coupon %s. Please wait %d minutes before claiming another.",
				out.Cooldown.Coupon, out.Cooldown.TimeRemainingMinutes,
			),
			CouponClaimed: out.Cooldown.Coupon,
			TimeRemaining: out.Cooldown.TimeRemainingMinutes,
		})
	case usecase.ClaimGranted:
		writeJSON(w, ClaimResponse{
			Success: true,
			Message: "Successfully claimed coupon: " + out.Coupon,
			Coupon:  out.Coupon,
		})
	default:
		writeJSON(w, ClaimResponse{Success: false, Message: MessageUnavailable})
	}
}

// RecoverJSON turns a panic into the generic error body with status 200. If
// the handler already started its response, the panic is only logged.
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("Handler error: %v", rec)
				if ww.Status() != 0 {
					return
				}
				setNoCacheHeaders(ww)
				writeJSON(ww, ClaimResponse{Success: false, Message: MessageError})
			}
		}()
		next.ServeHTTP(ww, r)
	})
}

func readIdentifierCookie(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	value, err := url.QueryUnescape(c.Value)
	if err != nil {
		return c.Value
	}
	return value
}

// clientIP returns the raw X-Forwarded-For value, then Client-IP, or "".
func clientIP(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); v != "" {
		return v
	}
	return strings.TrimSpace(r.Header.Get("Client-IP"))
}

func setNoCacheHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("Surrogate-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, resp ClaimResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
