package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"poster-gateway/gallery"
	"poster-gateway/middleware/admission"
	"poster-gateway/middleware/admission/application"
	"poster-gateway/middleware/admission/domain"
	"poster-gateway/pipeline"
	"poster-gateway/poster"
)

const sessionCookieName = "pro_session"

// server agrupa os serviços por trás das rotas HTTP. Os campos são
// interfaces/structs já prontos; os handlers só traduzem HTTP <-> domínio.
type server struct {
	gate     application.Service
	sessions domain.SessionStore
	verifier domain.LicenseVerifier
	pipe     *pipeline.Pipeline
	gal      *gallery.Service

	trustXFF      bool
	secureCookies bool
}

func (s *server) routes(compose admission.ConcurrencyOptions) http.Handler {
	mux := http.NewServeMux()

	// geração é CPU-bound; o pool limita composições simultâneas
	generate := admission.ConcurrencyMiddleware(compose)(http.HandlerFunc(s.handleGenerate))
	mux.Handle("POST /api/generate", generate)

	mux.HandleFunc("POST /api/license/validate", s.handleLicenseValidate)
	mux.HandleFunc("GET /api/pro/status", s.handleProStatus)
	mux.HandleFunc("POST /api/gallery/publish", s.handleGalleryPublish)
	mux.HandleFunc("GET /api/gallery/list", s.handleGalleryList)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	stylePreset := strings.TrimSpace(r.FormValue("stylePreset"))
	customStyle := strings.TrimSpace(r.FormValue("customStyle"))
	printSize := strings.TrimSpace(r.FormValue("printSize"))
	deviceID := strings.TrimSpace(r.FormValue("clientDeviceId"))
	captchaToken := strings.TrimSpace(r.FormValue("turnstileToken"))

	if prompt == "" {
		jsonError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if stylePreset == "" {
		jsonError(w, http.StatusBadRequest, "stylePreset is required")
		return
	}
	if deviceID == "" {
		jsonError(w, http.StatusBadRequest, "clientDeviceId is required")
		return
	}
	if _, ok := poster.SpecFor(poster.PrintSize(printSize)); !ok {
		jsonError(w, http.StatusBadRequest, "invalid print size")
		return
	}

	dec, err := s.gate.CheckAdmission(r.Context(), application.Request{
		IP:           admission.ClientIP(r, s.trustXFF),
		DeviceID:     deviceID,
		SessionToken: sessionToken(r),
		CaptchaToken: captchaToken,
	}, now)
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) {
			jsonError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
			return
		}
		log.Printf("admission error: %v", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !dec.Allowed {
		if dec.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(dec.RetryAfter.Seconds())))
		}
		jsonError(w, admission.StatusForReason(dec.Reason), string(dec.Reason))
		return
	}

	res, err := s.pipe.Generate(r.Context(), pipeline.Request{
		Prompt:      prompt,
		StylePreset: stylePreset,
		CustomStyle: customStyle,
		PrintSize:   poster.PrintSize(printSize),
	}, now)
	if err != nil {
		var verr *poster.ValidationError
		if errors.As(err, &verr) {
			jsonError(w, http.StatusBadRequest, verr.Error())
			return
		}
		log.Printf("generate error: %v", err)
		jsonError(w, http.StatusBadGateway, "poster generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posterId":     res.PosterID,
		"posterPngUrl": res.PosterPNGURL,
		"posterPdfUrl": res.PosterPDFURL,
		"thumbnailUrl": res.ThumbnailURL,
		"isPro":        dec.Pro,
	})
}

func (s *server) handleLicenseValidate(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	var body struct {
		LicenseKey string `json:"licenseKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	licenseKey := strings.TrimSpace(body.LicenseKey)
	if licenseKey == "" {
		jsonError(w, http.StatusBadRequest, "licenseKey is required")
		return
	}

	valid, err := s.verifier.Validate(r.Context(), licenseKey)
	if err != nil {
		jsonError(w, http.StatusServiceUnavailable, "license service unavailable")
		return
	}
	if !valid {
		jsonError(w, http.StatusUnauthorized, "invalid license key")
		return
	}

	token, err := s.sessions.Create(r.Context(), licenseKey, now)
	if err != nil {
		log.Printf("session create error: %v", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *server) handleProStatus(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]any{"isPro": false})
		return
	}
	_, ok, err := s.gate.ResolvePro(r.Context(), token, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) {
			jsonError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
			return
		}
		log.Printf("pro status error: %v", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"isPro": ok})
}

func (s *server) handleGalleryPublish(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PosterID      string `json:"posterId"`
		IncludePrompt *bool  `json:"includePromptPublicly"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(body.PosterID) == "" {
		jsonError(w, http.StatusBadRequest, "posterId is required")
		return
	}
	// ausente = publica o prompt; só a recusa explícita o omite
	includePrompt := body.IncludePrompt == nil || *body.IncludePrompt

	id, err := s.gal.Publish(r.Context(), body.PosterID, includePrompt, time.Now())
	if err != nil {
		if errors.Is(err, gallery.ErrPosterNotFound) {
			jsonError(w, http.StatusNotFound, "poster not found")
			return
		}
		log.Printf("gallery publish error: %v", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"galleryId": id})
}

func (s *server) handleGalleryList(w http.ResponseWriter, r *http.Request) {
	q := gallery.Query{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 0),
		Text:     strings.TrimSpace(r.URL.Query().Get("q")),
		Style:    strings.TrimSpace(r.URL.Query().Get("style")),
	}
	items, nextPage, err := s.gal.List(r.Context(), q)
	if err != nil {
		log.Printf("gallery list error: %v", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	resp := map[string]any{"items": items}
	if nextPage > 0 {
		resp["nextPage"] = nextPage
	} else {
		resp["nextPage"] = nil
	}
	writeJSON(w, http.StatusOK, resp)
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response error: %v", err)
	}
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
