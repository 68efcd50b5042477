package detect

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/soocke/reel-bot-go/config"
	"github.com/soocke/reel-bot-go/domain/fishing"
)

// Banner keywords the game renders during the reeling and catch phases.
// Matching is case-insensitive over the recognized words.
var (
	pullRightWords = []string{"RIGHT"}
	pullLeftWords  = []string{"LEFT"}
	successWords   = []string{"CAUGHT", "SUCCESS", "PERFECT"}
)

// TesseractReader maps on-screen banner text to the text labels. The
// underlying client is not safe for concurrent use, so Read serializes.
type TesseractReader struct {
	tessdata string
	logger   *slog.Logger

	mu     sync.Mutex
	client *gosseract.Client
	ready  bool
}

// NewTesseractReader returns an unopened reader.
func NewTesseractReader(cfg *config.Config, logger *slog.Logger) *TesseractReader {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &TesseractReader{tessdata: cfg.TessdataPrefix, logger: logger}
}

// Warmup opens the tesseract client. Idempotent.
func (r *TesseractReader) Warmup() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}
	client := gosseract.NewClient()
	if r.tessdata != "" {
		if err := client.SetTessdataPrefix(r.tessdata); err != nil {
			client.Close()
			return fmt.Errorf("tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return fmt.Errorf("ocr language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		client.Close()
		return fmt.Errorf("ocr segmentation mode: %w", err)
	}
	r.client = client
	r.ready = true
	return nil
}

// Read recognizes words on the frame and returns the first matching banner
// label with the mean word confidence normalized to [0,1].
func (r *TesseractReader) Read(frame *image.RGBA) (fishing.Label, float64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return 0, 0, false, ErrNotReady
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(&buf, frame); err != nil {
		return 0, 0, false, fmt.Errorf("ocr frame encode: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return 0, 0, false, fmt.Errorf("ocr set image: %w", err)
	}
	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return 0, 0, false, fmt.Errorf("ocr recognize: %w", err)
	}
	if len(boxes) == 0 {
		return 0, 0, false, nil
	}
	var sb strings.Builder
	var confSum float64
	for _, b := range boxes {
		sb.WriteString(strings.ToUpper(b.Word))
		sb.WriteByte(' ')
		confSum += b.Confidence
	}
	text := sb.String()
	conf := confSum / float64(len(boxes)) / 100
	if label, ok := matchBanner(text); ok {
		return label, conf, true, nil
	}
	return 0, 0, false, nil
}

// Close releases the tesseract client.
func (r *TesseractReader) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return
	}
	_ = r.client.Close()
	r.ready = false
}

func matchBanner(text string) (fishing.Label, bool) {
	for _, w := range successWords {
		if strings.Contains(text, w) {
			return fishing.LabelSuccess, true
		}
	}
	for _, w := range pullRightWords {
		if strings.Contains(text, w) {
			return fishing.LabelPullRight, true
		}
	}
	for _, w := range pullLeftWords {
		if strings.Contains(text, w) {
			return fishing.LabelPullLeft, true
		}
	}
	return 0, false
}
