package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Vitalii2594/zip-password-app/internal/common"
	"github.com/Vitalii2594/zip-password-app/internal/metrics"
	"github.com/Vitalii2594/zip-password-app/internal/models"
	"github.com/Vitalii2594/zip-password-app/pkg/utils"
)

const (
	msgMissingInput     = "Please upload files and provide a password"
	msgProcessingFailed = "An error occurred while processing the files"
	msgNotFound         = "File not found"
	msgDownloadFailed   = "Error while downloading the file"

	// Parts beyond this are spooled to disk by the multipart reader.
	multipartMemory = 32 << 20
)

type generateResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Files   []models.ManifestEntry `json:"files,omitempty"`
	Failed  []models.ItemFailure   `json:"failed,omitempty"`
	Notice  string                 `json:"notice,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(zap.String("request_id", requestIDFromContext(r.Context())))

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		msg := msgMissingInput
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = fmt.Sprintf("Upload exceeds the %s limit", utils.FormatBytes(tooLarge.Limit))
		}
		logger.Warn("Rejected upload", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, generateResponse{Success: false, Message: msg})
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn("Failed to remove multipart temp files", zap.Error(err))
		}
	}()

	headers := r.MultipartForm.File["files"]
	password := r.PostFormValue("password")
	if len(headers) == 0 || password == "" {
		writeJSON(w, http.StatusBadRequest, generateResponse{Success: false, Message: msgMissingInput})
		return
	}

	files := make([]models.SourceFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadedSource(fh))
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	result, err := s.orchestrator.Run(ctx, models.ArchiveRequest{Files: files, Password: password}, nil)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, generateResponse{Success: false, Message: msgMissingInput})
			return
		}
		logger.Error("Archive batch failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, generateResponse{Success: false, Message: msgProcessingFailed})
		return
	}

	if len(result.Archives) == 0 {
		writeJSON(w, http.StatusInternalServerError, generateResponse{
			Success: false,
			Message: msgProcessingFailed,
			Failed:  result.Failures,
		})
		return
	}

	manifest := make([]models.ManifestEntry, 0, len(result.Archives))
	for _, a := range result.Archives {
		manifest = append(manifest, models.ManifestEntry{
			OriginalName: a.OriginalFileName,
			ZipName:      a.Locator,
			DisplayName:  a.DisplayName,
			Size:         a.ByteSize,
		})
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Success: true,
		Files:   manifest,
		Failed:  result.Failures,
		Notice:  result.Notice,
	})
}

func uploadedSource(fh *multipart.FileHeader) models.SourceFile {
	return models.SourceFile{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// download streams one stored archive and deletes it afterwards, whether or
// not the transfer completed.
func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	logger := s.logger.With(
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.String("locator", name),
	)

	obj, err := s.store.Take(r.Context(), name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			metrics.DownloadsTotal.WithLabelValues("not_found").Inc()
			http.Error(w, msgNotFound, http.StatusNotFound)
			return
		}
		metrics.DownloadsTotal.WithLabelValues("error").Inc()
		logger.Error("Failed to open archive", zap.Error(err))
		http.Error(w, msgDownloadFailed, http.StatusInternalServerError)
		return
	}
	defer func() {
		obj.Body.Close()
		if err := obj.Discard(); err != nil {
			metrics.CleanupFailuresTotal.Inc()
			logger.Warn("Failed to delete archive after download", zap.Error(err))
		}
	}()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": obj.Name}))
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, obj.Body)
	if err != nil {
		// Headers are already on the wire; all that is left is to log.
		metrics.DownloadsTotal.WithLabelValues("interrupted").Inc()
		logger.Error("Archive transfer interrupted", zap.Int64("bytes", n), zap.Error(err))
		return
	}

	metrics.DownloadsTotal.WithLabelValues("success").Inc()
	logger.Info("Archive downloaded", zap.Int64("bytes", n))
}
