package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/akulagin/docflow/internal/core/domain"
	"github.com/akulagin/docflow/internal/core/ports"
	"github.com/akulagin/docflow/internal/observability/metrics"
)

const extractedTextPreviewLimit = 200

// Router exposes the document workflow over HTTP.
type Router struct {
	ingestor ports.DocumentIngestor
	reader   ports.DocumentReader
	reviewer ports.DocumentReviewer
	remover  ports.DocumentRemover

	logger       *slog.Logger
	metrics      *metrics.HTTPServerMetrics
	limiter      *rate.Limiter
	maxInFlight  int
	defaultLimit int
}

type RouterOptions struct {
	Logger        *slog.Logger
	Metrics       *metrics.HTTPServerMetrics
	RateLimitRPS  float64
	RateBurst     int
	MaxConcurrent int
	ListLimit     int
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	reader ports.DocumentReader,
	reviewer ports.DocumentReviewer,
	remover ports.DocumentRemover,
	opts RouterOptions,
) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	listLimit := opts.ListLimit
	if listLimit <= 0 {
		listLimit = 50
	}
	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateLimitRPS)
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}
	return &Router{
		ingestor:     ingestor,
		reader:       reader,
		reviewer:     reviewer,
		remover:      remover,
		logger:       logger,
		metrics:      opts.Metrics,
		limiter:      limiter,
		maxInFlight:  opts.MaxConcurrent,
		defaultLimit: listLimit,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/documents", rt.handleCollection)
	mux.HandleFunc("/api/v1/documents/", rt.handleSubtree)
	mux.HandleFunc("/healthz", rt.handleHealth)

	var handler http.Handler = mux
	handler = backpressureMiddleware(rt.maxInFlight, handler)
	handler = rateLimitMiddleware(rt.limiter, handler)
	handler = metricsMiddleware(rt.metrics, handler)
	handler = accessLogMiddleware(rt.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) handleCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	rt.listDocuments(w, r)
}

// handleSubtree dispatches everything under /api/v1/documents/ by hand:
// the fixed action paths first, then {id} and {id}/review.
func (rt *Router) handleSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/documents/")
	switch rest {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		rt.listDocuments(w, r)
	case "upload":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		rt.uploadText(w, r)
	case "upload-file":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		rt.uploadFile(w, r)
	case "pending-review":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		rt.listPendingReview(w, r)
	default:
		if id, ok := strings.CutSuffix(rest, "/review"); ok && !strings.Contains(id, "/") {
			if r.Method != http.MethodPost {
				writeMethodNotAllowed(w, http.MethodPost)
				return
			}
			rt.reviewDocument(w, r, id)
			return
		}
		if strings.Contains(rest, "/") {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			rt.getDocument(w, r, rest)
		case http.MethodDelete:
			rt.deleteDocument(w, r, rest)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodDelete)
		}
	}
}

type uploadTextRequest struct {
	Filename     string `json:"filename"`
	DocumentType string `json:"document_type"`
	Content      string `json:"content"`
}

func (rt *Router) uploadText(w http.ResponseWriter, r *http.Request) {
	var req uploadTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	doc, err := rt.ingestor.UploadText(r.Context(), req.Filename, req.DocumentType, req.Content)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"document_id": doc.ID,
		"filename":    doc.Filename,
		"status":      doc.Status,
		"message":     "Document uploaded successfully. Processing started.",
	})
}

type uploadFileRequest struct {
	Filename     string `json:"filename"`
	DocumentType string `json:"document_type"`
	FileData     string `json:"file_data"`
}

func (rt *Router) uploadFile(w http.ResponseWriter, r *http.Request) {
	var req uploadFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	doc, err := rt.ingestor.UploadFile(r.Context(), req.Filename, req.DocumentType, req.FileData)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"document_id": doc.ID,
		"filename":    doc.Filename,
		"file_type":   doc.FileType,
		"file_size":   doc.FileSize,
		"status":      doc.Status,
		"message":     "File uploaded and processing started.",
	})
}

type documentListItem struct {
	DocumentID   string                `json:"document_id"`
	Filename     string                `json:"filename"`
	DocumentType string                `json:"document_type"`
	Status       domain.DocumentStatus `json:"status"`
	RiskScore    *int                  `json:"risk_score,omitempty"`
	UploadedAt   time.Time             `json:"uploaded_at"`
}

func toListItems(docs []domain.Document) []documentListItem {
	items := make([]documentListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, documentListItem{
			DocumentID:   doc.ID,
			Filename:     doc.Filename,
			DocumentType: doc.DocumentType,
			Status:       doc.Status,
			RiskScore:    doc.RiskScore,
			UploadedAt:   doc.UploadedAt,
		})
	}
	return items
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	var status domain.DocumentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = domain.DocumentStatus(strings.ToUpper(raw))
	}
	limit := rt.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	docs, err := rt.reader.List(r.Context(), status, limit)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": toListItems(docs),
		"total":     len(docs),
	})
}

type pendingReviewItem struct {
	DocumentID   string     `json:"document_id"`
	Filename     string     `json:"filename"`
	DocumentType string     `json:"document_type"`
	RiskScore    *int       `json:"risk_score,omitempty"`
	AISummary    string     `json:"ai_summary,omitempty"`
	Comments     string     `json:"reviewer_comments,omitempty"`
	UploadedAt   time.Time  `json:"uploaded_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

func (rt *Router) listPendingReview(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.reader.ListPendingReview(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	items := make([]pendingReviewItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, pendingReviewItem{
			DocumentID:   doc.ID,
			Filename:     doc.Filename,
			DocumentType: doc.DocumentType,
			RiskScore:    doc.RiskScore,
			AISummary:    doc.AISummary,
			Comments:     doc.ReviewerComments,
			UploadedAt:   doc.UploadedAt,
			ProcessedAt:  doc.ProcessedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": items,
		"total":     len(items),
	})
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	projection := *doc
	if len(projection.ExtractedText) > extractedTextPreviewLimit {
		// Back off to a rune boundary so the preview stays valid UTF-8.
		cut := extractedTextPreviewLimit
		for cut > 0 && !utf8.RuneStart(projection.ExtractedText[cut]) {
			cut--
		}
		projection.ExtractedText = projection.ExtractedText[:cut] + "..."
	}
	writeJSON(w, http.StatusOK, projection)
}

type reviewRequest struct {
	Decision     string `json:"decision"`
	ReviewerName string `json:"reviewer_name"`
	Comments     string `json:"comments"`
}

func (rt *Router) reviewDocument(w http.ResponseWriter, r *http.Request, id string) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	doc, err := rt.reviewer.Review(r.Context(), id, req.Decision, req.ReviewerName, req.Comments)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	outcome := "approved"
	if doc.Status == domain.StatusRejected {
		outcome = "rejected"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": doc.ID,
		"decision":    outcome,
		"message":     "Document " + outcome + " successfully",
	})
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	if err := rt.remover.Delete(r.Context(), id); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Document deleted successfully",
		"document_id": id,
	})
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request_failed",
			slog.String("request_id", requestIDFrom(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, status, errorBody(errorMessage(err, status)))
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
