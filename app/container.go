package app

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/reel-bot-go/config"
	"github.com/soocke/reel-bot-go/domain/action"
	"github.com/soocke/reel-bot-go/domain/capture"
	"github.com/soocke/reel-bot-go/domain/detect"
	"github.com/soocke/reel-bot-go/domain/fishing"
	"github.com/soocke/reel-bot-go/ui/model"
	"github.com/soocke/reel-bot-go/ui/presenter"
	"github.com/soocke/reel-bot-go/ui/view"
)

// Container assembles perception, actuation, the controller and the UI.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Capture    *capture.Source
	Classifier *detect.ONNXClassifier
	Reader     *detect.TesseractReader
	Facade     *detect.Facade
	Actuator   *action.Actuator
	Status     *fishing.StatusChannel
	Controller *fishing.Controller

	StatusModel  *model.StatusModel
	SessionModel *model.SessionModel
	RootView     *view.RootView

	SessionPresenter *presenter.SessionPresenter
	StatusPresenter  *presenter.StatusPresenter
	Loop             *presenter.Loop
}

// BuildContainer constructs all components. Perception engines stay unloaded
// until the controller's first Start triggers the facade warmup.
func BuildContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	dev, err := action.NewDevice()
	if err != nil {
		return nil, fmt.Errorf("input device: %w", err)
	}

	var region image.Rectangle
	if cfg.CaptureW > 0 && cfg.CaptureH > 0 {
		region = image.Rect(cfg.CaptureX, cfg.CaptureY, cfg.CaptureX+cfg.CaptureW, cfg.CaptureY+cfg.CaptureH)
	}
	c.Capture = capture.NewSource(logger, region)
	c.Classifier = detect.NewONNXClassifier(cfg, logger)
	c.Reader = detect.NewTesseractReader(cfg, logger)
	c.Facade = detect.NewFacade(cfg, logger, c.Capture, c.Classifier, c.Reader)

	c.Actuator = action.NewActuator(cfg, logger, dev)
	c.Status = fishing.NewStatusChannel()
	c.Controller = fishing.NewController(cfg, logger, c.Facade, c.Actuator, c.Status, c.Facade.Warmup)

	c.StatusModel = model.NewStatusModel()
	c.SessionModel = model.NewSessionModel()
	c.RootView = view.NewRootView(logger)
	return c, nil
}

// WirePresenters attaches presenters once the view has been built.
func (c *Container) WirePresenters(schedule func()) {
	c.StatusPresenter = presenter.NewStatusPresenter(c.Status, c.StatusModel, c.RootView)
	c.SessionPresenter = presenter.NewSessionPresenter(c.SessionModel, c.Controller, c.RootView)
	c.Loop = presenter.NewLoop(c.SessionPresenter, c.StatusPresenter, schedule)
}

// Close releases long-lived resources.
func (c *Container) Close() {
	c.Controller.Stop()
	if c.StatusPresenter != nil {
		c.StatusPresenter.Unsubscribe(c.Status)
	}
	c.Status.Close()
	c.Classifier.Close()
	c.Reader.Close()
}
