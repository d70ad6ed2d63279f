// Package browser sends messages by driving WhatsApp Web in a persistent
// Chromium profile. The profile keeps the WhatsApp Web login between runs.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"
	"wa-scheduler/internal/model"
	"wa-scheduler/internal/service"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

const (
	baseURL = "https://web.whatsapp.com/"

	defaultReadyTimeout = 60 * time.Second
	// Time given to WhatsApp Web to push the message out before the tab closes.
	closeDelay = 3 * time.Second
)

// WhatsApp Web selectors. These change with WhatsApp Web releases.
var (
	selectorSearchBox  = `div[contenteditable="true"][data-tab="3"]`
	selectorComposeBox = `footer div[contenteditable="true"]`
	selectorAttach     = `span[data-icon="plus-rounded"], span[data-icon="plus"], span[data-icon="attach-menu-plus"]`
	selectorImageInput = `input[type="file"][accept*="image"]`
	selectorCaptionBox = `div[role="dialog"] div[contenteditable="true"], div[aria-label="Add a caption"]`
	selectorSendButton = `span[data-icon="send"], span[data-icon="wds-ic-send-filled"]`
)

var ErrChatNotOpened = errors.New("browser: chat did not open")

type Options struct {
	ProfileDir string
	Headless   bool
	Log        zerolog.Logger
}

// Driver implements service.Sender on top of playwright.
type Driver struct {
	opts Options

	mu   sync.Mutex
	pw   *playwright.Playwright
	bctx playwright.BrowserContext
}

var _ service.Sender = (*Driver)(nil)

func New(opts Options) *Driver {
	if opts.ProfileDir == "" {
		opts.ProfileDir = "browser-profile"
	}
	return &Driver{opts: opts}
}

// Install downloads the Chromium build playwright drives.
func Install() error {
	return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
}

func (d *Driver) start() (playwright.BrowserContext, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bctx != nil {
		return d.bctx, nil
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("browser: start playwright: %w", err)
	}
	bctx, err := pw.Chromium.LaunchPersistentContext(d.opts.ProfileDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(d.opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("browser: launch chromium: %w", err)
	}
	d.pw = pw
	d.bctx = bctx
	d.opts.Log.Info().Str("profile", d.opts.ProfileDir).Bool("headless", d.opts.Headless).Msg("browser started")
	return bctx, nil
}

// Close shuts the browser down. The driver can be started again afterwards.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.bctx != nil {
		errs = append(errs, d.bctx.Close())
		d.bctx = nil
	}
	if d.pw != nil {
		errs = append(errs, d.pw.Stop())
		d.pw = nil
	}
	return errors.Join(errs...)
}

// Login opens WhatsApp Web so the QR code can be scanned in the window.
func (d *Driver) Login(ctx context.Context, timeout time.Duration) error {
	bctx, err := d.start()
	if err != nil {
		return err
	}
	page, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("browser: new page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto(baseURL); err != nil {
		return fmt.Errorf("browser: open whatsapp web: %w", err)
	}
	return waitVisible(page.Locator(selectorSearchBox), timeout)
}

func (d *Driver) SendText(ctx context.Context, req service.TextRequest) error {
	page, err := d.openChat(ctx, req.To, req.Text, req.Wait)
	if err != nil {
		return err
	}
	defer d.finish(page, req.CloseTab)

	compose := page.Locator(selectorComposeBox).First()
	if req.To.IsGroup() {
		if err := compose.Fill(req.Text); err != nil {
			return fmt.Errorf("browser: type message: %w", err)
		}
	}
	if err := compose.Press("Enter"); err != nil {
		return fmt.Errorf("browser: send message: %w", err)
	}
	return nil
}

func (d *Driver) SendImage(ctx context.Context, req service.ImageRequest) error {
	page, err := d.openChat(ctx, req.To, "", req.Wait)
	if err != nil {
		return err
	}
	defer d.finish(page, req.CloseTab)

	if err := page.Locator(selectorAttach).First().Click(); err != nil {
		return fmt.Errorf("browser: open attach menu: %w", err)
	}
	if err := page.Locator(selectorImageInput).First().SetInputFiles(req.Path); err != nil {
		return fmt.Errorf("browser: attach image: %w", err)
	}

	caption := page.Locator(selectorCaptionBox).First()
	if err := waitVisible(caption, readyTimeout(req.Wait)); err != nil {
		return fmt.Errorf("browser: image preview: %w", err)
	}
	if req.Caption != "" {
		if err := caption.Fill(req.Caption); err != nil {
			return fmt.Errorf("browser: type caption: %w", err)
		}
	}
	if err := page.Locator(selectorSendButton).First().Click(); err != nil {
		return fmt.Errorf("browser: send image: %w", err)
	}
	return nil
}

// openChat opens the chat of a contact through the send URL, or of a group
// through the search box, and waits for the compose box.
func (d *Driver) openChat(ctx context.Context, to model.Recipient, text string, wait time.Duration) (playwright.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bctx, err := d.start()
	if err != nil {
		return nil, err
	}
	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("browser: new page: %w", err)
	}
	timeout := readyTimeout(wait)

	if to.IsGroup() {
		err = openGroup(page, to.Name, timeout)
	} else {
		err = openContact(page, to.Address, text, timeout)
	}
	if err != nil {
		_ = page.Close()
		return nil, err
	}
	d.opts.Log.Debug().Str("recipient", to.String()).Msg("chat opened")
	return page, nil
}

func openContact(page playwright.Page, phone, text string, timeout time.Duration) error {
	target, err := sendURL(phone, text)
	if err != nil {
		return err
	}
	if _, err := page.Goto(target); err != nil {
		return fmt.Errorf("browser: open chat: %w", err)
	}
	if err := waitVisible(page.Locator(selectorComposeBox).First(), timeout); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrChatNotOpened, phone, err)
	}
	return nil
}

func openGroup(page playwright.Page, name string, timeout time.Duration) error {
	if _, err := page.Goto(baseURL); err != nil {
		return fmt.Errorf("browser: open whatsapp web: %w", err)
	}
	search := page.Locator(selectorSearchBox)
	if err := waitVisible(search, timeout); err != nil {
		return fmt.Errorf("browser: whatsapp web not ready: %w", err)
	}
	if err := search.Fill(name); err != nil {
		return fmt.Errorf("browser: search group: %w", err)
	}
	result := page.Locator(titleSelector(name)).First()
	if err := waitVisible(result, timeout); err != nil {
		return fmt.Errorf("%w: group %q not found: %v", ErrChatNotOpened, name, err)
	}
	if err := result.Click(); err != nil {
		return fmt.Errorf("browser: open group: %w", err)
	}
	if err := waitVisible(page.Locator(selectorComposeBox).First(), timeout); err != nil {
		return fmt.Errorf("%w: group %q: %v", ErrChatNotOpened, name, err)
	}
	return nil
}

func (d *Driver) finish(page playwright.Page, closeTab bool) {
	if !closeTab {
		return
	}
	time.Sleep(closeDelay)
	if err := page.Close(); err != nil {
		d.opts.Log.Warn().Err(err).Msg("failed to close tab")
	}
}

// sendURL builds the WhatsApp Web deep link that opens a chat with the text prefilled.
func sendURL(phone, text string) (string, error) {
	digits := model.PhoneDigits(phone)
	if _, err := strconv.ParseUint(digits, 10, 64); err != nil {
		return "", fmt.Errorf("browser: invalid phone number %q", phone)
	}
	q := url.Values{}
	q.Set("phone", digits)
	if text != "" {
		q.Set("text", text)
	}
	return baseURL + "send?" + q.Encode(), nil
}

// titleSelector matches a chat list entry by its exact title.
func titleSelector(name string) string {
	return "span[title=" + strconv.Quote(name) + "]"
}

func readyTimeout(wait time.Duration) time.Duration {
	if wait <= 0 {
		return defaultReadyTimeout
	}
	return wait
}

func waitVisible(loc playwright.Locator, timeout time.Duration) error {
	return loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}
