package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/PlumyCat/doctrans/internal/blobstore"
	"github.com/PlumyCat/doctrans/internal/globaltime"
	"github.com/PlumyCat/doctrans/internal/translator"
)

type startTranslationResponse struct {
	Success        bool   `json:"success"`
	TranslationID  string `json:"translation_id"`
	Message        string `json:"message"`
	Status         string `json:"status"`
	TargetLanguage string `json:"target_language"`
	EstimatedTime  string `json:"estimated_time"`
}

type checkStatusResponse struct {
	TranslationID      string `json:"translation_id"`
	Status             string `json:"status"`
	CreatedAt          string `json:"created_at,omitempty"`
	LastUpdated        string `json:"last_updated,omitempty"`
	DocumentsTotal     int    `json:"documents_total"`
	DocumentsSucceeded int    `json:"documents_succeeded"`
	DocumentsFailed    int    `json:"documents_failed"`
}

type getResultResponse struct {
	DownloadURL string `json:"download_url"`
	OneDriveURL string `json:"onedrive_url,omitempty"`
}

func (s *Server) handleStartTranslation(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "failed to read request body")
	}
	req, err := validateStartTranslationRequest(body)
	if err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	exists, err := s.blobs.SourceExists(ctx, req.BlobName)
	if err != nil {
		s.logger.Error().Err(err).Str("blob_name", req.BlobName).Msg("source existence check failed")
		return respondError(c, http.StatusInternalServerError, "failed to check source document")
	}
	if !exists {
		return respondError(c, http.StatusNotFound, fmt.Sprintf("file %q not found", req.BlobName))
	}

	sourceURL, targetURL, err := s.blobs.PrepareTranslationURLs(ctx, req.BlobName, req.TargetLanguage)
	if err != nil {
		s.logger.Error().Err(err).Str("blob_name", req.BlobName).Msg("prepare translation urls failed")
		return respondError(c, http.StatusInternalServerError, "failed to prepare document access")
	}

	translationID, err := s.engine.Start(ctx, sourceURL, targetURL, req.TargetLanguage)
	if err != nil {
		s.logger.Error().Err(err).Str("blob_name", req.BlobName).Str("target_language", req.TargetLanguage).Msg("translation submission failed")
		return respondError(c, http.StatusInternalServerError, "failed to start translation")
	}

	s.logger.Info().
		Str("translation_id", translationID).
		Str("blob_name", req.BlobName).
		Str("target_language", req.TargetLanguage).
		Msg("translation started")

	return c.JSON(http.StatusAccepted, startTranslationResponse{
		Success:        true,
		TranslationID:  translationID,
		Message:        fmt.Sprintf("translation started for %s", req.BlobName),
		Status:         "processing",
		TargetLanguage: req.TargetLanguage,
		EstimatedTime:  "2-5 minutes",
	})
}

func (s *Server) handleCheckStatus(c echo.Context) error {
	translationID := strings.TrimSpace(c.Param("translation_id"))
	if translationID == "" {
		return respondError(c, http.StatusBadRequest, "translation id is required")
	}

	status, err := s.engine.Status(c.Request().Context(), translationID)
	if err != nil {
		if errors.Is(err, translator.ErrJobNotFound) {
			return respondError(c, http.StatusNotFound, fmt.Sprintf("translation %q not found", translationID))
		}
		s.logger.Error().Err(err).Str("translation_id", translationID).Msg("status check failed")
		return respondError(c, http.StatusInternalServerError, "failed to check translation status")
	}

	return c.JSON(http.StatusOK, checkStatusResponse{
		TranslationID:      translationID,
		Status:             status.Status,
		CreatedAt:          status.CreatedAt,
		LastUpdated:        status.LastUpdated,
		DocumentsTotal:     status.Summary.Total,
		DocumentsSucceeded: status.Summary.Success,
		DocumentsFailed:    status.Summary.Failed,
	})
}

func (s *Server) handleGetResult(c echo.Context) error {
	ctx := c.Request().Context()

	blobName := strings.TrimSpace(c.QueryParam("blob_name"))
	targetLanguage := strings.TrimSpace(c.QueryParam("target_language"))
	userID := strings.TrimSpace(c.QueryParam("user_id"))
	if blobName == "" || targetLanguage == "" {
		return respondError(c, http.StatusBadRequest, "missing parameters: blob_name, target_language")
	}

	outputName := blobstore.TranslatedBlobName(blobName, targetLanguage)

	exists, err := s.blobs.TranslatedExists(ctx, outputName)
	if err != nil {
		s.logger.Error().Err(err).Str("blob_name", outputName).Msg("translated existence check failed")
		return respondError(c, http.StatusInternalServerError, "failed to check translated document")
	}
	if !exists {
		return respondError(c, http.StatusNotFound, "translated file not found")
	}

	downloadURL, err := s.blobs.TranslatedDownloadURL(ctx, outputName)
	if err != nil {
		s.logger.Error().Err(err).Str("blob_name", outputName).Msg("presign translated url failed")
		return respondError(c, http.StatusInternalServerError, "failed to generate download url")
	}

	result := getResultResponse{DownloadURL: downloadURL}

	// Best-effort drive mirror: failures are logged and the field is
	// omitted, they never fail the request.
	if userID != "" && s.mirror != nil && s.mirror.Enabled() {
		result.OneDriveURL = s.mirrorToDrive(ctx, outputName, userID)
	}

	return c.JSON(http.StatusOK, result)
}

// mirrorToDrive downloads the translated blob and re-uploads it to the
// user's drive under one combined deadline, so the two network legs
// cannot stack their individual timeouts.
func (s *Server) mirrorToDrive(ctx context.Context, outputName, userID string) string {
	mirrorCtx, cancel := context.WithTimeout(ctx, s.cfg.MirrorDeadline)
	defer cancel()

	content, err := s.blobs.DownloadTranslated(mirrorCtx, outputName)
	if err != nil {
		s.logger.Warn().Err(err).Str("blob_name", outputName).Msg("drive mirror download failed")
		return ""
	}

	uploaded, err := s.mirror.Upload(mirrorCtx, content, outputName, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("blob_name", outputName).Str("user_id", userID).Msg("drive mirror upload failed")
		return ""
	}
	if uploaded.Skipped {
		return ""
	}

	s.logger.Info().
		Str("blob_name", outputName).
		Str("file_id", uploaded.FileID).
		Str("stored_name", uploaded.FileName).
		Msg("translated document mirrored to drive")
	return uploaded.WebURL
}

func (s *Server) handleHealth(c echo.Context) error {
	missing := s.cfg.MissingRequired()
	if len(missing) > 0 {
		return respondError(c, http.StatusServiceUnavailable,
			"missing required configuration: "+strings.Join(missing, ", "))
	}

	onedrive := "not configured"
	if s.cfg.DriveEnabled() {
		onedrive = "available"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": globaltime.UTC(),
		"services": map[string]string{
			"translator":   "available",
			"blob_storage": "available",
			"onedrive":     onedrive,
		},
	})
}

func (s *Server) handleLanguages(c echo.Context) error {
	languages := translator.LanguageOptions()
	return c.JSON(http.StatusOK, map[string]any{
		"languages": languages,
		"count":     len(languages),
	})
}

func (s *Server) handleFormats(c echo.Context) error {
	formats := translator.FormatOptions()
	return c.JSON(http.StatusOK, map[string]any{
		"formats": formats,
		"count":   len(formats),
	})
}
