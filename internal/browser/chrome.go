package browser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
)

var ErrSessionClosed = errors.New("browser session closed")

// ChromeFactory launches a fresh Chrome process per session through
// chromedp's exec allocator.
type ChromeFactory struct {
	cfg    Config
	logger logging.Logger
}

func NewChromeFactory(cfg Config, logger logging.Logger) *ChromeFactory {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ChromeFactory{cfg: cfg, logger: logger.With(logging.Component("browser"))}
}

func (f *ChromeFactory) allocatorOptions(port int) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !f.cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if f.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.cfg.ExecPath))
	}
	if f.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if f.cfg.DisableSetuidSandbox {
		opts = append(opts, chromedp.Flag("disable-setuid-sandbox", true))
	}
	if f.cfg.DisableDevShmUsage {
		opts = append(opts, chromedp.Flag("disable-dev-shm-usage", true))
	}
	if f.cfg.DisableGPU {
		opts = append(opts, chromedp.DisableGPU)
	}
	if f.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.cfg.UserAgent))
	}
	if f.cfg.WindowWidth > 0 && f.cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(f.cfg.WindowWidth, f.cfg.WindowHeight))
	}
	for _, raw := range f.cfg.ExtraFlags {
		name, value, hasValue := strings.Cut(strings.TrimLeft(raw, "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}
	if port > 0 {
		opts = append(opts, chromedp.Flag("remote-debugging-port", strconv.Itoa(port)))
	}
	return opts
}

// Acquire starts Chrome and opens a blank tab. The browser lives until
// Close; ctx only bounds the launch.
func (f *ChromeFactory) Acquire(ctx context.Context, opts AcquireOptions) (Session, error) {
	port := 0
	if opts.RemoteDebugging {
		p, err := freePort()
		if err != nil {
			return nil, fmt.Errorf("reserve debugging port: %w", err)
		}
		port = p
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), f.allocatorOptions(port)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		id:          uuid.New().String(),
		cfg:         f.cfg,
		port:        port,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}
	s.logger = f.logger.With(logging.Field{Key: "session", Value: s.id})

	chromedp.ListenTarget(tabCtx, s.onEvent)

	launchTimeout := f.cfg.LaunchTimeout
	if launchTimeout <= 0 {
		launchTimeout = 30 * time.Second
	}
	launchCtx, cancel := context.WithTimeout(ctx, launchTimeout)
	defer cancel()

	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()

	select {
	case err := <-started:
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("launch browser: %w", err)
		}
	case <-launchCtx.Done():
		_ = s.Close()
		return nil, fmt.Errorf("launch browser: %w", launchCtx.Err())
	}

	s.logger.Debug("browser session started", logging.Field{Key: "debug_port", Value: port})
	return s, nil
}

type chromeSession struct {
	id     string
	cfg    Config
	port   int
	logger logging.Logger

	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc

	mu         sync.Mutex
	runtimeErr []model.RuntimeError
	closeOnce  sync.Once
	closed     bool
}

func (s *chromeSession) ID() string     { return s.id }
func (s *chromeSession) DebugPort() int { return s.port }

func (s *chromeSession) onEvent(ev any) {
	e, ok := ev.(*runtime.EventExceptionThrown)
	if !ok || e.ExceptionDetails == nil {
		return
	}
	d := e.ExceptionDetails
	msg := d.Text
	if d.Exception != nil && d.Exception.Description != "" {
		msg = d.Exception.Description
	}
	s.mu.Lock()
	s.runtimeErr = append(s.runtimeErr, model.RuntimeError{
		Message: msg,
		Source:  d.URL,
		Line:    int(d.LineNumber),
		Column:  int(d.ColumnNumber),
	})
	s.mu.Unlock()
}

func (s *chromeSession) RuntimeErrors() []model.RuntimeError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RuntimeError(nil), s.runtimeErr...)
}

// opCtx derives a context from the tab that is cancelled by either the
// caller's ctx or the timeout.
func (s *chromeSession) opCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, nil, ErrSessionClosed
	}
	opCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() { stop(); cancel() }, nil
}

func (s *chromeSession) Navigate(ctx context.Context, url string, opts NavigateOptions) error {
	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	navCtx, cancel, err := s.opCtx(ctx, timeout)
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	defer cancel()

	wait := opts.Wait
	if wait == "" {
		wait = WaitNetworkIdle
	}

	var watcher *idleWatcher
	if wait == WaitNetworkIdle {
		if err := chromedp.Run(navCtx, network.Enable()); err != nil {
			return &NavigationError{URL: url, Err: fmt.Errorf("enable network events: %w", err)}
		}
		quiet := s.cfg.IdleQuietPeriod
		if quiet <= 0 {
			quiet = 500 * time.Millisecond
		}
		watcher = watchNetworkIdle(navCtx, quiet)
		defer watcher.stop()
	}

	s.logger.Debug("navigating", logging.Field{Key: "url", Value: url}, logging.Field{Key: "wait", Value: string(wait)})
	if err := chromedp.Run(navCtx, navigateAction(url, wait)); err != nil {
		return &NavigationError{URL: url, Err: err}
	}

	if watcher != nil {
		// Requests may all have finished before the load event fired.
		watcher.arm()
		select {
		case <-watcher.Idle():
		case <-navCtx.Done():
			return &NavigationError{URL: url, Err: fmt.Errorf("waiting for network idle: %w", navCtx.Err())}
		}
	}
	return nil
}

func navigateAction(url string, wait WaitCondition) chromedp.Action {
	if wait != WaitDOMContentLoaded {
		return chromedp.Navigate(url)
	}
	return chromedp.Tasks{
		chromedp.ActionFunc(func(ctx context.Context) error {
			var res page.NavigateReturns
			if err := cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res); err != nil {
				return err
			}
			if res.ErrorText != "" {
				return fmt.Errorf("page load error %s", res.ErrorText)
			}
			return nil
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
}

func (s *chromeSession) Evaluate(ctx context.Context, script string, out any) error {
	timeout := s.cfg.EvaluateTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	evalCtx, cancel, err := s.opCtx(ctx, timeout)
	if err != nil {
		return err
	}
	defer cancel()

	awaitPromise := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(script, out, awaitPromise)); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

func (s *chromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	timeout := s.cfg.EvaluateTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	shotCtx, cancel, err := s.opCtx(ctx, timeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	quality := s.cfg.ScreenshotQuality
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	var buf []byte
	if err := chromedp.Run(shotCtx, chromedp.FullScreenshot(&buf, quality)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// Close shuts the browser down. Safe to call more than once.
func (s *chromeSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		err = chromedp.Cancel(s.tabCtx)
		s.tabCancel()
		s.allocCancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("closing browser session", logging.Err(err))
		} else {
			err = nil
		}
		s.logger.Debug("browser session closed")
	})
	return err
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
