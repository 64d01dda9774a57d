// backend/src/handlers/ledger_handler.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/logger"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/services"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/utils"
)

type LedgerHandler struct {
	importService services.ImportService
}

func NewLedgerHandler(service services.ImportService) *LedgerHandler {
	return &LedgerHandler{importService: service}
}

// HandleGetLedger returns the full ledger in row-position order.
func (h *LedgerHandler) HandleGetLedger(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	rows, err := h.importService.Ledger()
	if err != nil {
		ctxLogger.Error("Error reading ledger", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("error reading ledger: %v", err), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []models.LedgerRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"rows": rows, "count": len(rows)}); err != nil {
		ctxLogger.Error("Error encoding ledger response", "error", err)
	}
}

// HandleExportLedger streams the 26-column ledger as an XLSX download. The
// workbook is built in memory first so a mid-export failure can still return
// a clean JSON error instead of a truncated file.
func (h *LedgerHandler) HandleExportLedger(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var buf bytes.Buffer
	if err := h.importService.ExportLedgerXLSX(&buf); err != nil {
		ctxLogger.Error("Error exporting ledger", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("error exporting ledger: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.xlsx"`)
	if _, err := buf.WriteTo(w); err != nil {
		ctxLogger.Error("Error writing ledger export response", "error", err)
	}
}

// HandleHealth reports liveness plus the ledger row count, so the dashboard
// can tell an empty ledger from an unreachable one.
func (h *LedgerHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.importService.LedgerRowCount()
	if err != nil {
		logger.FromContext(r.Context()).Error("Health check failed to count ledger rows", "error", err)
		utils.SendJSONError(w, "ledger unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "ledger_rows": count})
}
