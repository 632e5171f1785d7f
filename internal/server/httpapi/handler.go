package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/assets"
)

type errorResponse struct {
	Error string `json:"error"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// writeError maps the common sentinels onto HTTP status codes. Anything
// unrecognized is an internal error and never leaks its text to the client.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorInvalidTransition):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		status = http.StatusConflict
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body", common.ErrorValidation)
	}
	return nil
}

func (s *HTTPServer) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "OK"})
}

func (s *HTTPServer) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Error(r.Context(), "registration failed", "email", req.Email, "error", err)
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "email", user.Email)
	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID, "email": user.Email})
}

func (s *HTTPServer) Login(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *HTTPServer) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	pair, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Upload ingests one file from a multipart form under the "file" field. The
// authenticated account becomes the asset owner.
func (s *HTTPServer) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: multipart field %q is required", common.ErrorValidation, "file"))
		return
	}
	defer file.Close()

	asset, err := s.assets.Ingest(r.Context(), claims.Email, header.Filename,
		header.Header.Get("Content-Type"), file)
	if err != nil {
		s.logger.Error(r.Context(), "upload failed", "file", header.Filename, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, asset)
}

func (s *HTTPServer) ListAssets(w http.ResponseWriter, r *http.Request) {
	list, err := s.assets.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*models.Asset{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) SearchAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := assets.Filter{
		NameContains:       q.Get("filename"),
		HashContains:       q.Get("hash"),
		UploadedAtContains: q.Get("uploadedAt"),
	}

	list, err := s.assets.Search(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*models.Asset{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Download stages the asset and streams the staged copy back.
func (s *HTTPServer) Download(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	if hash == "" {
		writeError(w, fmt.Errorf("%w: query parameter %q is required", common.ErrorValidation, "hash"))
		return
	}

	asset, staged, err := s.assets.Retrieve(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", asset.OriginalName))
	if asset.MimeType != "" {
		w.Header().Set("Content-Type", asset.MimeType)
	}
	http.ServeFile(w, r, staged)
}

func (s *HTTPServer) Delete(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	if hash == "" {
		writeError(w, fmt.Errorf("%w: query parameter %q is required", common.ErrorValidation, "hash"))
		return
	}

	asset, err := s.assets.Delete(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("File %q moved to bin", asset.OriginalName),
	})
}
