package detect

import (
	"errors"
	"image"

	"github.com/soocke/reel-bot-go/domain/fishing"
)

// ErrNotReady is returned by perception engines used before Warmup.
var ErrNotReady = errors.New("detect: engine not warmed up")

// Classifier is the trained image model over full frames. It returns at most
// one of the classifier labels {0,1,2,3,6} with a confidence in [0,1]; ok is
// false when the model has no usable answer for the frame.
type Classifier interface {
	Warmup() error
	Classify(frame *image.RGBA) (label fishing.Label, conf float64, ok bool, err error)
}

// TextReader recognizes overlay text on a frame and maps it to one of the
// text labels {4,5,6} with a normalized confidence in [0,1].
type TextReader interface {
	Warmup() error
	Read(frame *image.RGBA) (label fishing.Label, conf float64, ok bool, err error)
}

// FrameGrabber delivers a current frame on demand. Release returns the frame
// to its owner once perception is done with it.
type FrameGrabber interface {
	Grab() (*image.RGBA, error)
	Release(*image.RGBA)
}

// classifierLabels and textLabels partition the label space by source.
var (
	classifierLabels = fishing.NewLabelSet(fishing.LabelWaiting, fishing.LabelHooked, fishing.LabelReelLow, fishing.LabelReelHigh, fishing.LabelSuccess)
	textLabels       = fishing.NewLabelSet(fishing.LabelPullRight, fishing.LabelPullLeft, fishing.LabelSuccess)
)
