package api

import (
	"encoding/json"
	"net/http"

	"github.com/sentinelsignal/sentinel/internal/fetcher"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	live := s.tracker.LiveTokens()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"live_tokens":  len(live),
		"registry_size": s.registry.Size(),
		"credits": map[string]int64{
			"total":                      s.credits.TotalCreditsUsed(),
			fetcher.ProviderDex:          s.credits.CreditsUsed(fetcher.ProviderDex),
			fetcher.ProviderOnChain:      s.credits.CreditsUsed(fetcher.ProviderOnChain),
			fetcher.ProviderMetadata:     s.credits.CreditsUsed(fetcher.ProviderMetadata),
			fetcher.ProviderHolders:      s.credits.CreditsUsed(fetcher.ProviderHolders),
			fetcher.ProviderBondingCurve: s.credits.CreditsUsed(fetcher.ProviderBondingCurve),
			fetcher.ProviderRugCheck:     s.credits.CreditsUsed(fetcher.ProviderRugCheck),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
