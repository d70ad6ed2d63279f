package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"wa-scheduler/internal/model"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
)

var (
	ErrNotPaired    = errors.New("whatsapp: device is not paired, run the login command first")
	ErrNotConnected = errors.New("whatsapp: not connected")
)

const defaultConnectTimeout = 30 * time.Second

// Publisher receives connection events (websocket hub).
type Publisher interface {
	Publish(msgType string, data interface{})
}

type Options struct {
	// Dialect is "sqlite3" or "postgres", Address the driver specific DSN.
	Dialect string
	Address string

	Log       zerolog.Logger
	ClientLog waLog.Logger
	StoreLog  waLog.Logger
	Events    Publisher
}

// Client is the linked-device send primitive.
type Client struct {
	wm     *whatsmeow.Client
	log    zerolog.Logger
	events Publisher

	mu     sync.Mutex
	groups map[string]types.JID
}

// Open loads (or creates) the device from the session store.
func Open(ctx context.Context, opts Options) (*Client, error) {
	if opts.StoreLog == nil {
		opts.StoreLog = waLog.Noop
	}
	if opts.ClientLog == nil {
		opts.ClientLog = waLog.Noop
	}
	container, err := sqlstore.New(ctx, opts.Dialect, opts.Address, opts.StoreLog)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: open session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: load device: %w", err)
	}

	c := &Client{
		wm:     whatsmeow.NewClient(device, opts.ClientLog),
		log:    opts.Log,
		events: opts.Events,
	}
	c.wm.AddEventHandler(c.handleEvent)
	return c, nil
}

func (c *Client) Paired() bool {
	return c.wm.Store.ID != nil
}

func (c *Client) IsConnected() bool {
	return c.wm.IsConnected()
}

// Account is the JID of the paired device, empty when not paired.
func (c *Client) Account() string {
	if c.wm.Store.ID == nil {
		return ""
	}
	return c.wm.Store.ID.String()
}

// Connect connects a paired device and waits up to timeout for the session.
func (c *Client) Connect(ctx context.Context, timeout time.Duration) error {
	if !c.Paired() {
		return ErrNotPaired
	}
	if c.wm.IsConnected() && c.wm.IsLoggedIn() {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	if !c.wm.IsConnected() {
		if err := c.wm.Connect(); err != nil {
			return fmt.Errorf("whatsapp: connect: %w", err)
		}
	}
	if !c.wm.WaitForConnection(timeout) {
		return fmt.Errorf("%w after %s", ErrNotConnected, timeout)
	}
	return ctx.Err()
}

// Login pairs a new device. onQR is called with every QR code to display.
func (c *Client) Login(ctx context.Context, onQR func(code string)) error {
	if c.Paired() {
		return c.Connect(ctx, 0)
	}
	qrChan, err := c.wm.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("whatsapp: qr channel: %w", err)
	}
	if err := c.wm.Connect(); err != nil {
		return fmt.Errorf("whatsapp: connect: %w", err)
	}

	for evt := range qrChan {
		switch evt.Event {
		case "code":
			c.publish("qr_update", map[string]interface{}{
				"qr_code":    evt.Code,
				"expires_in": int(evt.Timeout.Seconds()),
			})
			if onQR != nil {
				onQR(evt.Code)
			}
		case "success":
			c.log.Info().Str("account", c.Account()).Msg("device paired")
			return nil
		case "timeout":
			return errors.New("whatsapp: pairing timed out")
		default:
			if evt.Error != nil {
				return fmt.Errorf("whatsapp: pairing failed: %w", evt.Error)
			}
			return fmt.Errorf("whatsapp: pairing failed: %s", evt.Event)
		}
	}
	return ctx.Err()
}

func (c *Client) Close() {
	c.wm.Disconnect()
}

// GroupLister is the part of whatsmeow used to resolve group names.
type GroupLister interface {
	GetJoinedGroups(ctx context.Context) ([]*types.GroupInfo, error)
}

func (c *Client) JoinedGroups(ctx context.Context) ([]*types.GroupInfo, error) {
	groups, err := c.wm.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: list groups: %w", err)
	}
	return groups, nil
}

// resolve turns a recipient into a chat JID. Group names are looked up
// against the joined groups once and cached.
func (c *Client) resolve(ctx context.Context, to model.Recipient) (types.JID, error) {
	if !to.IsGroup() {
		return parseJID(to.Address)
	}
	if strings.HasSuffix(to.Address, "@"+types.GroupServer) {
		return parseJID(to.Address)
	}

	c.mu.Lock()
	jid, ok := c.groups[to.Name]
	c.mu.Unlock()
	if ok {
		return jid, nil
	}

	jid, err := findGroup(ctx, c.wm, to.Name)
	if err != nil {
		return types.JID{}, err
	}
	c.mu.Lock()
	if c.groups == nil {
		c.groups = make(map[string]types.JID)
	}
	c.groups[to.Name] = jid
	c.mu.Unlock()
	return jid, nil
}

// findGroup matches the exact group subject.
func findGroup(ctx context.Context, lister GroupLister, name string) (types.JID, error) {
	groups, err := lister.GetJoinedGroups(ctx)
	if err != nil {
		return types.JID{}, fmt.Errorf("whatsapp: list groups: %w", err)
	}
	var matches []types.JID
	for _, g := range groups {
		if g != nil && g.Name == name {
			matches = append(matches, g.JID)
		}
	}
	switch len(matches) {
	case 0:
		return types.JID{}, fmt.Errorf("whatsapp: group %q not found among %d joined groups", name, len(groups))
	case 1:
		return matches[0], nil
	default:
		return types.JID{}, fmt.Errorf("whatsapp: group name %q is ambiguous (%d matches)", name, len(matches))
	}
}

// parseJID accepts a phone number (with or without "+") or a full JID.
// types.ParseJID doesn't error on plain numbers, so the user part is checked too.
func parseJID(raw string) (types.JID, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return types.JID{}, fmt.Errorf("whatsapp: empty address")
	}

	if !strings.Contains(cleaned, "@") {
		digits := model.PhoneDigits(cleaned)
		if digits == "" || strings.Trim(digits, "0123456789") != "" {
			return types.JID{}, fmt.Errorf("whatsapp: invalid phone number %q", raw)
		}
		return types.NewJID(digits, types.DefaultUserServer), nil
	}

	jid, err := types.ParseJID(cleaned)
	if err != nil {
		return types.JID{}, fmt.Errorf("whatsapp: invalid address %q: %w", raw, err)
	}
	if jid.User == "" {
		return types.JID{}, fmt.Errorf("whatsapp: failed to parse user part from %q", raw)
	}
	if jid.Server == "" {
		jid.Server = types.DefaultUserServer
	}
	return jid, nil
}
