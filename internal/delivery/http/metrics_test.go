package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/azizikri/coupon-giveaway/internal/metrics"
	"github.com/azizikri/coupon-giveaway/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	NewHandler(&stubClaimer{claimFn: func(ctx context.Context, identifier string) usecase.ClaimOutcome {
		return usecase.ClaimOutcome{Status: usecase.ClaimGranted, Coupon: "A"}
	}}).Routes(r)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/api/coupon", "200")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/coupon", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("expected counter to grow by 1, got %v", got)
	}
}
