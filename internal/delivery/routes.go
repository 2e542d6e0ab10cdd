package delivery

import (
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(
	r chi.Router,
	hTurn *TurnHandler,
	hHistory *HistoryHandler,
) {
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/", func(pr chi.Router) {
		pr.Use(
			httputil.RecoverMiddleware,
			httprate.LimitByIP(60, time.Minute),
		)

		// --- turns ---
		pr.Post("/turn/mic", hTurn.ProcessMicTurn)
		pr.Post("/turn/upload", hTurn.ProcessUploadTurn)

		// --- history ---
		pr.Get("/history/{session_id}", hHistory.GetHistory)
		pr.Get("/languages", hHistory.ListLanguages)
	})
}
