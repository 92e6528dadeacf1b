package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/randalmurphal/reviewdesk/audit"
	"github.com/randalmurphal/reviewdesk/auth"
	"github.com/randalmurphal/reviewdesk/content"
	"github.com/randalmurphal/reviewdesk/session"
)

type userKey struct{}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type meResponse struct {
	Role  session.Role `json:"role"`
	Email string       `json:"email"`
}

type inboxResponse struct {
	Items []content.Item `json:"items"`
}

type transitionRequest struct {
	Comment string `json:"comment"`
}

type ingestRequest struct {
	BrandID    string       `json:"brand_id"`
	Type       content.Type `json:"type"`
	InputBrief string       `json:"input_brief"`
	OutputText string       `json:"output_text"`
}

type auditResponse struct {
	Verdict  content.Verdict `json:"verdict"`
	Report   auditReport     `json:"report"`
	ImageURL string          `json:"image_url"`
}

type auditReport struct {
	Violations []content.Violation `json:"violations"`
	Notes      []string            `json:"notes"`
}

// handleToken implements the password and refresh_token grants. Errors use
// the OAuth2 JSON error shape so token clients can parse them.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeTokenError(w, "invalid_request")
		return
	}

	grant := r.PostForm.Get("grant_type")
	var (
		u   User
		err error
	)
	switch grant {
	case "password":
		u, err = s.store.Authenticate(r.PostForm.Get("username"), r.PostForm.Get("password"))
	case "refresh_token":
		u, err = s.store.redeemRefresh(auth.HashToken(r.PostForm.Get("refresh_token")))
	default:
		writeTokenError(w, "unsupported_grant_type")
		return
	}
	if err != nil {
		s.logger.Info("token grant refused", "grant_type", grant, "error", err)
		writeTokenError(w, "invalid_grant")
		return
	}

	pair, refreshHash, err := auth.IssueTokenPair(s.jwt, u.ID)
	if err != nil {
		s.logger.Error("issue token", "user", u.Email, "error", err)
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}
	s.store.grantRefresh(refreshHash, u.ID, s.jwt.RefreshTTL())

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := auth.ValidateAccessToken(s.jwt, raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		u, ok := s.store.User(claims.Subject)
		if !ok {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	})
}

func userFrom(ctx context.Context) User {
	u, _ := ctx.Value(userKey{}).(User)
	return u
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	writeJSON(w, http.StatusOK, meResponse{Role: u.Role, Email: u.Email})
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, inboxResponse{Items: s.store.Inbox(userFrom(r.Context()))})
}

func (s *Server) handleTransition(to content.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := userFrom(r.Context())
		if !u.Role.Approver() {
			http.Error(w, fmt.Sprintf("forbidden: role %s cannot review content", u.Role), http.StatusForbidden)
			return
		}

		var req transitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid body: {\"comment\":\"...\"}", http.StatusBadRequest)
			return
		}

		id := chi.URLParam(r, "id")
		it, err := s.store.Transition(id, to, req.Comment)
		var conflict *ConflictError
		switch {
		case errors.Is(err, errNotFound):
			http.Error(w, fmt.Sprintf("content %s not found", id), http.StatusNotFound)
			return
		case errors.As(err, &conflict):
			http.Error(w, conflict.Error(), http.StatusConflict)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		s.logger.Info("content reviewed", "item_id", id, "status", to, "reviewer", u.Email)
		writeJSON(w, http.StatusOK, it)
	}
}

func (s *Server) handleAuditItem(w http.ResponseWriter, r *http.Request) {
	if !s.allowAudit(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	it, ok := s.store.Item(id)
	if !ok {
		http.Error(w, fmt.Sprintf("content %s not found", id), http.StatusNotFound)
		return
	}
	b, ok := s.store.Brand(it.BrandID)
	if !ok {
		http.Error(w, fmt.Sprintf("brand %s not found", it.BrandID), http.StatusNotFound)
		return
	}
	s.runAudit(w, r, b, "item_id", id)
}

func (s *Server) handleAuditBrand(w http.ResponseWriter, r *http.Request) {
	if !s.allowAudit(w, r) {
		return
	}
	id := chi.URLParam(r, "brandID")
	b, ok := s.store.Brand(id)
	if !ok {
		http.Error(w, fmt.Sprintf("brand %s not found", id), http.StatusNotFound)
		return
	}
	s.runAudit(w, r, b, "brand_id", id)
}

func (s *Server) allowAudit(w http.ResponseWriter, r *http.Request) bool {
	u := userFrom(r.Context())
	if u.Role != session.RoleApproverB {
		http.Error(w, fmt.Sprintf("forbidden: role %s cannot audit images", u.Role), http.StatusForbidden)
		return false
	}
	return true
}

func (s *Server) runAudit(w http.ResponseWriter, r *http.Request, b Brand, targetKey, target string) {
	up, err := readUpload(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ev, err := s.eval.Evaluate(r.Context(), b.Manual, up)
	if err != nil {
		s.logger.Error("evaluate image", targetKey, target, "error", err)
		http.Error(w, "could not evaluate image", http.StatusInternalServerError)
		return
	}

	var token string
	key, err := auth.NewObjectKey()
	if err == nil {
		s.store.putImage(key, up.ContentType, up.Data)
		token, err = auth.IssueEvidenceToken(s.jwt, key)
	}
	if err != nil {
		s.logger.Error("store evidence", targetKey, target, "error", err)
		http.Error(w, "could not store image", http.StatusInternalServerError)
		return
	}

	s.logger.Info("image audited", targetKey, target, "brand", b.Name, "verdict", ev.Verdict, "violations", len(ev.Violations))
	writeJSON(w, http.StatusOK, auditResponse{
		Verdict:  ev.Verdict,
		Report:   auditReport{Violations: ev.Violations, Notes: ev.Notes},
		ImageURL: evidenceURL(r, token),
	})
}

func readUpload(w http.ResponseWriter, r *http.Request) (Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, audit.MaxImageBytes+1<<20)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return Upload{}, errors.New("missing file: send the image as multipart field \"file\"")
		}
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, audit.MaxImageBytes+1))
	if err != nil {
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Upload{}, errors.New("missing file: upload is empty")
	}
	if len(data) > audit.MaxImageBytes {
		return Upload{}, fmt.Errorf("upload exceeds %d bytes", audit.MaxImageBytes)
	}
	ct := hdr.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return Upload{Filename: hdr.Filename, ContentType: ct, Data: data}, nil
}

func evidenceURL(r *http.Request, token string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/evidence/%s", scheme, r.Host, token)
}

func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	key, err := auth.ParseEvidenceToken(s.jwt, chi.URLParam(r, "token"))
	if errors.Is(err, auth.ErrTokenExpired) {
		http.Error(w, "evidence link expired", http.StatusGone)
		return
	}
	if err != nil {
		http.Error(w, "evidence not found", http.StatusNotFound)
		return
	}
	img, ok := s.store.image(key)
	if !ok {
		http.Error(w, "evidence not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", img.contentType)
	w.Header().Set("Cache-Control", "private, no-store")
	_, _ = w.Write(img.data)
}

// handleIngest lets the generation pipeline submit new PENDING items.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get(IngestKeyHeader)
	if err := auth.CheckIngestKeyFormat(key); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	owner, ok := s.store.ingestOwner(auth.HashToken(key))
	if !ok {
		http.Error(w, "unknown ingest key", http.StatusUnauthorized)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: {\"brand_id\":\"...\",\"type\":\"...\",\"input_brief\":\"...\",\"output_text\":\"...\"}", http.StatusBadRequest)
		return
	}
	it, err := s.store.AddItem(owner.ID, content.Item{
		BrandID:    req.BrandID,
		Type:       req.Type,
		InputBrief: req.InputBrief,
		OutputText: req.OutputText,
	})
	if errors.Is(err, errNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Info("content ingested", "item_id", it.ID, "type", it.Type, "creator", owner.Email, "key", auth.DisplayIngestKey(key))
	writeJSON(w, http.StatusCreated, it)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeTokenError(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": code})
}
