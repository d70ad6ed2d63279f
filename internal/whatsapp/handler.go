package whatsapp

import (
	"go.mau.fi/whatsmeow/types/events"
)

func (c *Client) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.PairSuccess:
		c.log.Info().Str("jid", v.ID.String()).Str("platform", v.Platform).Msg("pair success")
		c.publish("status_update", map[string]interface{}{
			"status":       "paired",
			"phone_number": v.ID.String(),
			"platform":     v.Platform,
		})

	case *events.Connected:
		c.log.Info().Str("account", c.Account()).Msg("connected")
		c.publish("status_update", map[string]interface{}{
			"status":       "connected",
			"phone_number": c.Account(),
		})

	case *events.Disconnected:
		c.log.Warn().Msg("disconnected")
		c.publish("status_update", map[string]interface{}{
			"status": "disconnected",
		})

	case *events.StreamReplaced:
		c.log.Warn().Msg("session replaced by another connection")

	case *events.LoggedOut:
		c.log.Error().Str("reason", v.Reason.String()).Bool("on_connect", v.OnConnect).Msg("logged out, pair the device again")
		c.publish("status_update", map[string]interface{}{
			"status": "logged_out",
		})

		// Cached group JIDs belong to the old session.
		c.mu.Lock()
		c.groups = nil
		c.mu.Unlock()
	}
}

func (c *Client) publish(msgType string, data interface{}) {
	if c.events != nil {
		c.events.Publish(msgType, data)
	}
}
