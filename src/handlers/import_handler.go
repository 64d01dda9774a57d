// backend/src/handlers/import_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/config"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/logger"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/parsers"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/processors"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/security/validation"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/services"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/utils"
)

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(service services.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: service,
	}
}

// HandleImport accepts one or more platform export files in the multipart
// field "files" and runs one reconciliation pass over them in upload order.
// The optional "platform" form field applies to every file; otherwise each
// file's platform is detected from its extension. ?dry_run=true previews the
// operation list without touching the ledger.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("failed to read upload, or it exceeds %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		ctxLogger.Warn("Import request carried no files")
		utils.SendJSONError(w, "at least one file is required in the 'files' field", http.StatusBadRequest)
		return
	}
	declaredPlatform := r.FormValue("platform")
	if err := validation.ValidateStringMaxLength(declaredPlatform, validation.MaxPlatformTagLength, "platform"); err != nil {
		ctxLogger.Warn("Invalid platform tag", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var uploads []services.SourceUpload
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	for _, fileHeader := range fileHeaders {
		if err := validation.ValidateStringNotEmpty(fileHeader.Filename, "filename"); err != nil {
			ctxLogger.Warn("Invalid upload filename", "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := validation.ValidateStringMaxLength(fileHeader.Filename, validation.MaxSourceFileLength, "filename"); err != nil {
			ctxLogger.Warn("Invalid upload filename", "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
			ctxLogger.Warn("Uploaded file too large", "filename", fileHeader.Filename, "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
			utils.SendJSONError(w, fmt.Sprintf("file %q exceeds the %d MB limit", fileHeader.Filename, config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
			return
		}

		clientContentType := fileHeader.Header.Get("Content-Type")
		if err := validation.ValidateClientContentType(clientContentType); err != nil {
			ctxLogger.Warn("Invalid client-declared file type", "filename", fileHeader.Filename, "contentType", clientContentType, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		platform := declaredPlatform
		if platform == "" {
			detected, err := parsers.DetectPlatform(fileHeader.Filename)
			if err != nil {
				ctxLogger.Warn("Platform detection failed", "filename", fileHeader.Filename, "error", err)
				utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
				return
			}
			platform = detected
		}

		file, err := fileHeader.Open()
		if err != nil {
			ctxLogger.Error("Failed to open uploaded file", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("failed to read file %q", fileHeader.Filename), http.StatusBadRequest)
			return
		}
		closers = append(closers, file)

		ext := filepath.Ext(fileHeader.Filename)
		detectedContentType, err := validation.ValidateFileContentByMagicBytes(file, ext)
		if err != nil {
			ctxLogger.Warn("File content validation failed", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("%s: %s", fileHeader.Filename, err.Error()), http.StatusBadRequest)
			return
		}
		ctxLogger.Debug("File content validated", "filename", fileHeader.Filename, "platform", platform, "detectedType", detectedContentType)

		uploads = append(uploads, services.SourceUpload{
			Filename: fileHeader.Filename,
			Platform: platform,
			Reader:   file,
		})
	}

	dryRun := parseBoolParam(r, "dry_run")
	ctxLogger.Info("Processing import batch", "files", len(uploads), "dryRun", dryRun)

	result, err := h.importService.ProcessBatch(uploads, dryRun)
	if err != nil {
		h.writeBatchError(w, ctxLogger, result, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		ctxLogger.Error("Error encoding import result", "error", err)
	}
}

// HandleManualEntries accepts a JSON array of raw booking entries from the
// dashboard form and reconciles them as platform "diretto". The batch's
// source_file tag defaults to "manuale" and may be overridden with
// ?source_file=; ?dry_run=true previews without applying.
func (h *ImportHandler) HandleManualEntries(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	sourceFile := r.URL.Query().Get("source_file")
	if sourceFile == "" {
		sourceFile = "manuale"
	}
	if err := validation.ValidateStringMaxLength(sourceFile, validation.MaxSourceFileLength, "source_file"); err != nil {
		ctxLogger.Warn("Invalid source file tag", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	dryRun := parseBoolParam(r, "dry_run")

	body := http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	defer body.Close()

	ctxLogger.Info("Processing manual entries", "sourceFile", sourceFile, "dryRun", dryRun)

	result, err := h.importService.ProcessBatch([]services.SourceUpload{{
		Filename: sourceFile,
		Platform: parsers.PlatformDiretto,
		Reader:   body,
	}}, dryRun)
	if err != nil {
		h.writeBatchError(w, ctxLogger, result, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		ctxLogger.Error("Error encoding manual entry result", "error", err)
	}
}

// writeBatchError maps batch failures to HTTP statuses: unreadable input is
// the client's problem (400), an ambiguous identity match means the ledger
// itself is conflicted (409, with the partial result so a human can inspect
// the operations accumulated before the halt).
func (h *ImportHandler) writeBatchError(w http.ResponseWriter, ctxLogger *slog.Logger, result *services.ImportResult, err error) {
	switch {
	case errors.Is(err, services.ErrParsingFailed):
		ctxLogger.Warn("Import batch rejected", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, processors.ErrAmbiguousMatch):
		ctxLogger.Error("Import batch halted by ledger conflict", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		if encErr := json.NewEncoder(w).Encode(map[string]any{
			"error":  err.Error(),
			"result": result,
		}); encErr != nil {
			ctxLogger.Error("Error encoding conflict result", "error", encErr)
		}
	default:
		ctxLogger.Error("Import batch failed", "error", err)
		utils.SendJSONError(w, "import failed: "+err.Error(), http.StatusInternalServerError)
	}
}

func parseBoolParam(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
