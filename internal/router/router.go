package router

import (
	"net/http"

	"github.com/senyabanana/rfq-service/internal/handlers"
	"github.com/senyabanana/rfq-service/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func InitRoutes(rfqHandler *handlers.RFQHandler, vendorHandler *handlers.VendorHandler, reportDir string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ping", handlers.PingHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /reports/", http.StripPrefix("/reports/", http.FileServer(http.Dir(reportDir))))

	mux.HandleFunc("POST /api/rfqs/new", rfqHandler.CreateRFQ)
	mux.HandleFunc("GET /api/rfqs/{rfqId}", rfqHandler.GetRFQ)
	mux.HandleFunc("POST /api/rfqs/{rfqId}/compare", rfqHandler.CompareBids)
	mux.HandleFunc("POST /api/rfqs/{rfqId}/award", rfqHandler.AwardRFQ)
	mux.HandleFunc("PUT /api/rfqs/{rfqId}/cancel", rfqHandler.CancelRFQ)

	mux.HandleFunc("POST /api/vendor/bids", vendorHandler.SubmitBid)
	mux.HandleFunc("POST /api/vendor/decline", vendorHandler.DeclineInvitation)

	return metrics.Middleware(mux)
}
