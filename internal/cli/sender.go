package cli

import (
	"context"
	"fmt"
	"wa-scheduler/internal/browser"
	"wa-scheduler/internal/database"
	"wa-scheduler/internal/model"
	"wa-scheduler/internal/service"
	"wa-scheduler/internal/whatsapp"
)

// senderHandle bundles the configured send primitive with its lifecycle.
type senderHandle struct {
	service.Sender
	wa      *whatsapp.Client
	browser *browser.Driver
}

func (h *senderHandle) Close() {
	if h.wa != nil {
		h.wa.Close()
	}
	if h.browser != nil {
		h.browser.Close()
	}
}

// connection is nil for the browser driver, which keeps no connection.
func (h *senderHandle) connection() interface{ IsConnected() bool } {
	if h.wa != nil {
		return h.wa
	}
	return nil
}

func (a *app) openWhatsApp(ctx context.Context, publisher whatsapp.Publisher) (*whatsapp.Client, error) {
	dsn, err := database.ParseDSN(a.env.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return whatsapp.Open(ctx, whatsapp.Options{
		Dialect:   dsn.Dialect,
		Address:   dsn.Address,
		Log:       a.log.Component("whatsapp"),
		ClientLog: a.log.WhatsApp("Client"),
		StoreLog:  a.log.WhatsApp("Database"),
		Events:    publisher,
	})
}

func (a *app) openBrowser() *browser.Driver {
	return browser.New(browser.Options{
		ProfileDir: a.env.BrowserProfileDir,
		Headless:   a.env.BrowserHeadless,
		Log:        a.log.Component("browser"),
	})
}

func (a *app) openSender(ctx context.Context, settings model.Settings, publisher whatsapp.Publisher) (*senderHandle, error) {
	switch settings.Driver {
	case model.DriverBrowser:
		d := a.openBrowser()
		return &senderHandle{Sender: d, browser: d}, nil
	case model.DriverWhatsmeow, "":
		c, err := a.openWhatsApp(ctx, publisher)
		if err != nil {
			return nil, err
		}
		if !c.Paired() {
			c.Close()
			return nil, whatsapp.ErrNotPaired
		}
		return &senderHandle{Sender: c, wa: c}, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", settings.Driver)
	}
}
