package detect

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/soocke/reel-bot-go/config"
	"github.com/soocke/reel-bot-go/domain/fishing"
)

// Classifier model input geometry (NCHW).
const (
	clsInputW = 224
	clsInputH = 224
)

// clsLabels maps the model's output index to a perception label. The model is
// a 5-way softmax over the classifier-visible game states.
var clsLabels = [...]fishing.Label{
	fishing.LabelWaiting,
	fishing.LabelHooked,
	fishing.LabelReelLow,
	fishing.LabelReelHigh,
	fishing.LabelSuccess,
}

// ONNXClassifier runs the trained fishing-state model through ONNX Runtime.
// Construction is cheap; Warmup loads the runtime, the model and the reusable
// input/output tensors. Classify serializes inference with a mutex because
// the session's bound tensors are mutated in place.
type ONNXClassifier struct {
	modelPath string
	libPath   string
	logger    *slog.Logger

	mu    sync.Mutex
	sess  *ort.AdvancedSession
	in    *ort.Tensor[float32]
	out   *ort.Tensor[float32]
	ready bool
}

// NewONNXClassifier returns an unloaded classifier for the configured model.
func NewONNXClassifier(cfg *config.Config, logger *slog.Logger) *ONNXClassifier {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &ONNXClassifier{modelPath: cfg.ClassifierModel, libPath: cfg.OnnxRuntimeLib, logger: logger}
}

// Warmup initializes the ONNX Runtime environment and builds the session.
// Idempotent; a failure leaves the classifier unloaded.
func (c *ONNXClassifier) Warmup() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}
	if c.libPath != "" {
		ort.SetSharedLibraryPath(c.libPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("onnx runtime init: %w", err)
		}
	}
	in, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, clsInputH, clsInputW))
	if err != nil {
		return fmt.Errorf("classifier input tensor: %w", err)
	}
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(clsLabels))))
	if err != nil {
		in.Destroy()
		return fmt.Errorf("classifier output tensor: %w", err)
	}
	inInfo, outInfo, err := ort.GetInputOutputInfo(c.modelPath)
	if err != nil {
		in.Destroy()
		out.Destroy()
		return fmt.Errorf("classifier model info: %w", err)
	}
	sess, err := ort.NewAdvancedSession(
		c.modelPath,
		[]string{inInfo[0].Name}, []string{outInfo[0].Name},
		[]ort.Value{in}, []ort.Value{out},
		nil,
	)
	if err != nil {
		in.Destroy()
		out.Destroy()
		return fmt.Errorf("classifier session: %w", err)
	}
	c.in, c.out, c.sess = in, out, sess
	c.ready = true
	if c.logger != nil {
		c.logger.Info("classifier loaded", "model", c.modelPath)
	}
	return nil
}

// Classify resizes the frame to the model input, runs inference and returns
// the argmax label with its softmax confidence.
func (c *ONNXClassifier) Classify(frame *image.RGBA) (fishing.Label, float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return 0, 0, false, ErrNotReady
	}
	resized := imaging.Resize(frame, clsInputW, clsInputH, imaging.Lanczos)
	fillCHW(c.in.GetData(), resized)
	if err := c.sess.Run(); err != nil {
		return 0, 0, false, fmt.Errorf("classifier run: %w", err)
	}
	scores := c.out.GetData()
	best, conf := softmaxArgmax(scores)
	if best < 0 || best >= len(clsLabels) {
		return 0, 0, false, nil
	}
	return clsLabels[best], conf, true, nil
}

// Close releases the session and tensors.
func (c *ONNXClassifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return
	}
	c.sess.Destroy()
	c.in.Destroy()
	c.out.Destroy()
	c.ready = false
}

// fillCHW writes the image into dst as planar CHW float32 scaled to [0,1].
func fillCHW(dst []float32, img *image.NRGBA) {
	plane := clsInputW * clsInputH
	for y := 0; y < clsInputH; y++ {
		for x := 0; x < clsInputW; x++ {
			px := img.NRGBAAt(x, y)
			i := y*clsInputW + x
			dst[i] = float32(px.R) / 255
			dst[plane+i] = float32(px.G) / 255
			dst[2*plane+i] = float32(px.B) / 255
		}
	}
}

// softmaxArgmax returns the index of the highest score and its softmax mass.
func softmaxArgmax(scores []float32) (int, float64) {
	if len(scores) == 0 {
		return -1, 0
	}
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	var sum float64
	for _, s := range scores {
		sum += math.Exp(float64(s - scores[best]))
	}
	if sum == 0 {
		return best, 0
	}
	return best, 1 / sum
}
