package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"wa-scheduler/internal/service"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"google.golang.org/protobuf/proto"
)

var _ service.Sender = (*Client)(nil)

// SendText connects if needed (bounded by req.Wait) and sends right away.
func (c *Client) SendText(ctx context.Context, req service.TextRequest) error {
	if err := c.Connect(ctx, req.Wait); err != nil {
		return err
	}
	jid, err := c.resolve(ctx, req.To)
	if err != nil {
		return err
	}

	resp, err := c.wm.SendMessage(ctx, jid, textMessage(req.Text))
	if err != nil {
		return fmt.Errorf("whatsapp: send text to %s: %w", jid, err)
	}
	c.log.Debug().Str("to", jid.String()).Str("id", resp.ID).Msg("text sent")
	return nil
}

func (c *Client) SendImage(ctx context.Context, req service.ImageRequest) error {
	if err := c.Connect(ctx, req.Wait); err != nil {
		return err
	}
	jid, err := c.resolve(ctx, req.To)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(req.Path)
	if err != nil {
		return fmt.Errorf("whatsapp: read image: %w", err)
	}
	uploaded, err := c.wm.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return fmt.Errorf("whatsapp: upload image: %w", err)
	}

	msg := imageMessage(uploaded, http.DetectContentType(data), req.Caption)
	resp, err := c.wm.SendMessage(ctx, jid, msg)
	if err != nil {
		return fmt.Errorf("whatsapp: send image to %s: %w", jid, err)
	}
	c.log.Debug().Str("to", jid.String()).Str("id", resp.ID).Str("path", req.Path).Msg("image sent")
	return nil
}

func textMessage(text string) *waProto.Message {
	return &waProto.Message{
		Conversation: proto.String(text),
	}
}

func imageMessage(up whatsmeow.UploadResponse, mimetype, caption string) *waProto.Message {
	img := &waProto.ImageMessage{
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		Mimetype:      proto.String(mimetype),
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(up.FileLength),
	}
	if caption != "" {
		img.Caption = proto.String(caption)
	}
	return &waProto.Message{ImageMessage: img}
}
