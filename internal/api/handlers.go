package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	imagepkg "github.com/youruser/posterapp/internal/image"
	"github.com/youruser/posterapp/internal/publish"
)

// ErrValidation marks uploads the client can fix: no file, an empty file or
// a non-image content type.
var ErrValidation = errors.New("invalid upload")

// Client-facing messages. Failure details are only logged.
const (
	msgNoFile          = "No file uploaded"
	msgTooLarge        = "File too large"
	msgProcessingError = "Image processing failed"
)

// Compositor renders a poster from an uploaded photo and an optional name.
type Compositor interface {
	Compose(photo []byte, name string) ([]byte, error)
}

type Options struct {
	// RequireImageType rejects file parts whose Content-Type is not image/*.
	RequireImageType bool
	// MaxUploadBytes caps the request body; 0 leaves it unbounded.
	MaxUploadBytes int64
	// SessionCookies are forwarded to the publisher with each upload.
	SessionCookies []string
}

type Handler struct {
	compositor Compositor
	publisher  publish.Publisher
	opts       Options
	now        func() time.Time
}

func NewHandler(c Compositor, p publish.Publisher, opts Options) *Handler {
	return &Handler{compositor: c, publisher: p, opts: opts, now: time.Now}
}

type uploadRequest struct {
	Photo []byte
	Name  string
}

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// upload composites the posted photo onto the poster template and publishes
// the result. Every step runs once; the first failure ends the request.
func (h *Handler) upload(c *gin.Context) {
	ctx := c.Request.Context()
	logger := log.Ctx(ctx)

	if h.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	}

	req, err := h.readUpload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn().Int64("limit", tooLarge.Limit).Msg("upload too large")
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgTooLarge})
			return
		}
		logger.Warn().Err(err).Msg("upload rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNoFile})
		return
	}

	poster, err := h.compositor.Compose(req.Photo, req.Name)
	if err != nil {
		h.fail(c, "compose", err)
		return
	}

	name := publish.NewFilename(h.now())
	pctx := publish.WithSessionCookies(ctx, publish.SelectCookies(c.Request, h.opts.SessionCookies))
	url, err := h.publisher.Publish(pctx, name, poster)
	if err != nil {
		h.fail(c, "publish", err)
		return
	}

	logger.Info().Str("file", name).Str("url", url).Msg("poster generated")
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) readUpload(c *gin.Context) (uploadRequest, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return uploadRequest{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if fh.Size == 0 {
		return uploadRequest{}, fmt.Errorf("%w: empty file %q", ErrValidation, fh.Filename)
	}
	if ct := fh.Header.Get("Content-Type"); h.opts.RequireImageType && !strings.HasPrefix(ct, "image/") {
		return uploadRequest{}, fmt.Errorf("%w: content type %q", ErrValidation, ct)
	}

	f, err := fh.Open()
	if err != nil {
		return uploadRequest{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return uploadRequest{}, fmt.Errorf("read upload: %w", err)
	}
	return uploadRequest{Photo: data, Name: c.PostForm("name")}, nil
}

func (h *Handler) fail(c *gin.Context, stage string, err error) {
	kind := "unknown"
	switch {
	case errors.Is(err, imagepkg.ErrImageProcessing):
		kind = "image"
	case errors.Is(err, publish.ErrStorage):
		kind = "storage"
	}
	log.Ctx(c.Request.Context()).Error().Err(err).Str("stage", stage).Str("kind", kind).Msg("upload failed")
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgProcessingError})
}

// qr endpoint returns a PNG share code for the "text" query param
func qrHandler(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	size := imagepkg.DefaultQRSize
	if v, err := strconv.Atoi(c.Query("size")); err == nil {
		size = v
	}
	b, err := imagepkg.GenerateQRPNG(text, size)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("qr generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "QR generation failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}
