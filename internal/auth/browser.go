package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/JosephStocks/roberthalf-scraper/internal/config"
	"github.com/JosephStocks/roberthalf-scraper/internal/model"
	"github.com/JosephStocks/roberthalf-scraper/internal/session"
)

// Ensure BrowserAuthenticator implements session.Authenticator.
var _ session.Authenticator = (*BrowserAuthenticator)(nil)

// Login page selectors. The login form is rendered by the rhcl component
// library, so the inputs sit inside data-id wrappers.
const (
	usernameSelector = `[data-id="username"] input`
	passwordSelector = `[data-id="password"] input`
	signInSelector   = `rhcl-button[data-id="signIn"]`
	alertSelector    = `div[role="alert"]`
)

// BrowserAuthenticator drives a headless Chromium through the interactive
// login form and harvests the resulting cookies into a session record.
type BrowserAuthenticator struct {
	browser   config.BrowserConfig
	proxy     config.ProxyConfig
	userAgent func() string
	now       func() time.Time
	logger    *slog.Logger
}

// NewBrowserAuthenticator wires a login driver. userAgent supplies the UA for
// the browser context; the same string is recorded on the session so API
// requests present a matching fingerprint.
func NewBrowserAuthenticator(browser config.BrowserConfig, proxy config.ProxyConfig, userAgent func() string, logger *slog.Logger) *BrowserAuthenticator {
	return &BrowserAuthenticator{
		browser:   browser,
		proxy:     proxy,
		userAgent: userAgent,
		now:       time.Now,
		logger:    logger,
	}
}

// Login performs the full interactive login and returns a fresh session. It
// is slow (page loads plus human-like pauses) and should only run when no
// persisted session is usable.
func (a *BrowserAuthenticator) Login(ctx context.Context) (*model.Session, error) {
	if a.browser.Username == "" || a.browser.Password == "" {
		return nil, fmt.Errorf("login credentials not configured")
	}

	ua := a.userAgent()
	a.logger.Info("launching browser for login", "headless", a.browser.Headless)

	l := launcher.New().Headless(a.browser.Headless)
	if a.proxy.Enabled {
		l = l.Proxy(a.proxy.Server)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			a.logger.Warn("failed to close browser", "error", err)
		}
	}()

	if user, pass, ok := a.proxy.Credentials(); a.proxy.Enabled && ok {
		go browser.HandleAuth(user, pass)()
	}

	cookies, err := a.login(ctx, browser, ua)
	if err != nil {
		return nil, err
	}

	sess := &model.Session{
		Cookies:    cookies,
		UserAgent:  ua,
		AcquiredAt: a.now(),
	}
	a.logger.Info("login succeeded", "cookies", len(cookies))
	return sess, nil
}

func (a *BrowserAuthenticator) login(ctx context.Context, browser *rod.Browser, ua string) ([]model.Cookie, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	page = page.Context(ctx).Timeout(a.browser.Timeout)

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
		return nil, fmt.Errorf("setting user agent: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: 1920, Height: 1080}); err != nil {
		return nil, fmt.Errorf("setting viewport: %w", err)
	}

	a.logger.Debug("navigating to login page", "url", a.browser.LoginURL)
	if err := page.Navigate(a.browser.LoginURL); err != nil {
		return nil, fmt.Errorf("navigating to login page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for login page: %w", err)
	}
	humanPause(ctx, 2*time.Second, 4*time.Second)

	if err := a.fill(page, usernameSelector, a.browser.Username); err != nil {
		return nil, fmt.Errorf("filling username: %w", err)
	}
	humanPause(ctx, 500*time.Millisecond, 1500*time.Millisecond)

	if err := a.fill(page, passwordSelector, a.browser.Password); err != nil {
		return nil, fmt.Errorf("filling password: %w", err)
	}
	humanPause(ctx, 500*time.Millisecond, 1500*time.Millisecond)

	button, err := page.Element(signInSelector)
	if err != nil {
		return nil, fmt.Errorf("finding sign-in button: %w", err)
	}
	wait := page.WaitRequestIdle(3*time.Second, nil, nil, nil)
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("clicking sign-in: %w", err)
	}

	if msg := a.loginError(page); msg != "" {
		return nil, fmt.Errorf("login rejected: %s", msg)
	}
	wait()

	raw, err := browser.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}
	cookies := convertCookies(raw)
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies after login")
	}
	return cookies, nil
}

func (a *BrowserAuthenticator) fill(page *rod.Page, selector, value string) error {
	el, err := page.Element(selector)
	if err != nil {
		return err
	}
	return el.Input(value)
}

// loginError checks briefly for a visible alert after submitting the form.
// Absence of an alert within the window is treated as success.
func (a *BrowserAuthenticator) loginError(page *rod.Page) string {
	el, err := page.Timeout(5 * time.Second).Element(alertSelector)
	if err != nil {
		return ""
	}
	if visible, err := el.Visible(); err != nil || !visible {
		return ""
	}
	text, err := el.Text()
	if err != nil || strings.TrimSpace(text) == "" {
		return "unknown error"
	}
	return strings.TrimSpace(text)
}

func convertCookies(raw []*proto.NetworkCookie) []model.Cookie {
	cookies := make([]model.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, model.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return cookies
}

func humanPause(ctx context.Context, min, max time.Duration) {
	d := min
	if max > min {
		d += randomDuration(max - min)
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
