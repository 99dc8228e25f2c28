package http

import (
	"io"
	"log/slog"
	"net/http"

	"cloudspend/internal/amqp"
	"cloudspend/internal/core"
	"cloudspend/internal/ingest"
)

type uploadResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	RecordCount int    `json:"recordCount"`
	AWSCount    int    `json:"awsCount"`
	GCPCount    int    `json:"gcpCount"`
	IsUploaded  bool   `json:"isUploaded"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleUploadStatus(w, r)
	case http.MethodPost:
		s.handleUploadFile(w, r)
	case http.MethodDelete:
		s.handleUploadReset(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}

func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"isUploaded": s.store.Uploaded()})
}

// handleUploadFile ingests a spreadsheet and replaces the store with its
// valid rows. Partial failure is fine: malformed rows are logged and
// dropped, and the upload succeeds as long as one valid row remains.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		slog.ErrorContext(ctx, "Multipart parse failed", "error", err)
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	buf, err := io.ReadAll(file)
	if err != nil {
		slog.ErrorContext(ctx, "Upload read failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process file")
		return
	}

	res, err := ingest.ParseSpreadsheet(buf, header.Filename, ingest.Options{CollectRejections: true})
	if err != nil {
		slog.ErrorContext(ctx, "Upload unparseable", "file", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process file")
		return
	}

	for _, rej := range res.Rejections {
		slog.WarnContext(ctx, "Row rejected",
			"file", header.Filename,
			"sheet", rej.Sheet,
			"row", rej.Row,
			"reason", rej.Reason)
	}

	if len(res.Records) == 0 {
		writeError(w, http.StatusBadRequest, "No valid records found.")
		return
	}

	s.store.Replace(res.Records)
	s.spendCache.Purge()

	if s.mirror != nil {
		if err := s.mirror.SaveSet(ctx, res.Records); err != nil {
			// The in-memory store already holds the set; losing the mirror
			// only costs restart durability.
			slog.ErrorContext(ctx, "Failed to mirror uploaded set", "error", err)
		}
	}

	awsCount, gcpCount := providerCounts(res.Records)
	if s.events != nil {
		msg := amqp.NewBatchIngestedMessage(
			batchIDOf(res.Records), header.Filename, len(res.Records), awsCount, gcpCount)
		if err := s.events.PublishBatchIngested(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish batch event", "error", err)
		}
	}

	slog.InfoContext(ctx, "Upload accepted",
		"file", header.Filename,
		"records", len(res.Records),
		"rejected", res.Rejected)

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:     true,
		Message:     "File processed successfully.",
		RecordCount: len(res.Records),
		AWSCount:    awsCount,
		GCPCount:    gcpCount,
		IsUploaded:  true,
	})
}

// handleUploadReset discards any uploaded set and reloads the on-disk
// sources.
func (s *Server) handleUploadReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := s.loader.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Source reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to refresh data")
		return
	}

	s.store.SetInitial(records)
	s.spendCache.Purge()

	if s.mirror != nil {
		if err := s.mirror.Clear(ctx); err != nil {
			slog.ErrorContext(ctx, "Failed to clear mirrored set", "error", err)
		}
	}

	slog.InfoContext(ctx, "Store reset to sources", "records", len(records))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Data refreshed.",
	})
}

func providerCounts(records []core.SpendRecord) (aws, gcp int) {
	for _, r := range records {
		switch r.Provider {
		case core.AWS:
			aws++
		case core.GCP:
			gcp++
		}
	}
	return aws, gcp
}

// batchIDOf extracts the shared batch token from a record ID of the form
// rec-<sheet>-<row>-<token>.
func batchIDOf(records []core.SpendRecord) string {
	if len(records) == 0 {
		return ""
	}
	id := records[0].ID
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '-' {
			return id[i+1:]
		}
	}
	return id
}
