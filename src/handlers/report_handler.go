// backend/src/handlers/report_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/logger"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/services"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/utils"
)

type ReportHandler struct {
	importService services.ImportService
}

func NewReportHandler(service services.ImportService) *ReportHandler {
	return &ReportHandler{importService: service}
}

// HandleMonthlyReport returns the mese × property pivot with TOTALE margins.
func (h *ReportHandler) HandleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.importService.MonthlyReport()
	if err != nil {
		logger.FromContext(r.Context()).Error("Error building monthly report", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("error building monthly report: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSONWithETag(w, r, report)
}

// HandlePlatformReport returns the per-platform booking summary.
func (h *ReportHandler) HandlePlatformReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.importService.PlatformReport()
	if err != nil {
		logger.FromContext(r.Context()).Error("Error building platform report", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("error building platform report: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSONWithETag(w, r, report)
}

// HandleCostsReport returns the expense-row summary grouped by causale/ente.
func (h *ReportHandler) HandleCostsReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.importService.CostsReport()
	if err != nil {
		logger.FromContext(r.Context()).Error("Error building costs report", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("error building costs report: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSONWithETag(w, r, report)
}

// writeJSONWithETag sends data as JSON with an ETag, answering 304 when the
// client's If-None-Match already holds the current hash. Report payloads
// change only on ledger writes, so this keeps dashboard polling cheap.
func writeJSONWithETag(w http.ResponseWriter, r *http.Request, data any) {
	ctxLogger := logger.FromContext(r.Context())

	w.Header().Set("Cache-Control", "no-cache, private")

	currentETag, etagErr := utils.GenerateETag(data)
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("%q", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	} else {
		ctxLogger.Warn("Proceeding without ETag check", "error", etagErr)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		ctxLogger.Error("Error encoding report response", "error", err)
	}
}
