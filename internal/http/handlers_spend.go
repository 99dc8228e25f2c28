package http

import (
	"fmt"
	"net/http"
	"strings"

	"cloudspend/internal/aggregate"
)

// handleSpend serves the filtered aggregation view of the store. Responses
// are memoized per filter combination until the record set changes.
func (s *Server) handleSpend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	q := r.URL.Query()
	filter := aggregate.Filter{
		Provider: strings.TrimSpace(q.Get("cloud")),
		Team:     strings.TrimSpace(q.Get("team")),
		Env:      strings.TrimSpace(q.Get("env")),
		Month:    strings.TrimSpace(q.Get("month")),
	}

	key := spendCacheKey(filter)
	if res, ok := s.spendCache.Get(key); ok {
		writeJSON(w, http.StatusOK, res)
		return
	}

	res := aggregate.Query(s.store.Records(), filter)
	s.spendCache.Set(key, res)
	writeJSON(w, http.StatusOK, res)
}

func spendCacheKey(f aggregate.Filter) string {
	return fmt.Sprintf("cloud=%s&team=%s&env=%s&month=%s", f.Provider, f.Team, f.Env, f.Month)
}
