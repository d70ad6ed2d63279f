package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"wa-scheduler/internal/model"
	"wa-scheduler/internal/service"
	"wa-scheduler/internal/utils"
)

type AdhocSender interface {
	SendNow(ctx context.Context, to model.Recipient, msg model.Message) service.Result
}

type SendHandler struct {
	Dispatcher AdhocSender
	// ImageDir is the only directory image_path may point into. Empty
	// disables image sends through the API.
	ImageDir string
}

func NewSendHandler(d AdhocSender, imageDir string) *SendHandler {
	return &SendHandler{Dispatcher: d, ImageDir: imageDir}
}


type sendRequest struct {
	Phone     string `json:"phone"`
	Group     string `json:"group"`
	Message   string `json:"message"`
	ImagePath string `json:"image_path"`
	Caption   string `json:"caption"`
}

type sendResponse struct {
	Recipient model.Recipient   `json:"recipient"`
	Kind      model.MessageKind `json:"kind"`
	Attempts  int               `json:"attempts"`
	Delivered bool              `json:"delivered"`
	Error     string            `json:"error,omitempty"`
}

// Send dispatches one message right away. The request blocks until the
// dispatch, retries included, is over.
func (h *SendHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	to, msg, problem := req.build()
	if problem != "" {
		utils.ErrorResponse(w, http.StatusBadRequest, problem)
		return
	}
	if msg.Kind() == model.MessageImage {
		path, problem := h.imagePath(msg.ImagePath)
		if problem != "" {
			utils.ErrorResponse(w, http.StatusBadRequest, problem)
			return
		}
		msg.ImagePath = path
	}

	res := h.Dispatcher.SendNow(r.Context(), to, msg)
	resp := sendResponse{
		Recipient: res.Recipient,
		Kind:      res.Kind,
		Attempts:  res.Attempts,
		Delivered: res.Delivered,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
		utils.JSONResponse(w, http.StatusBadGateway, false, resp, "Message not delivered")
		return
	}
	utils.SuccessResponse(w, http.StatusOK, resp, "Message sent")
}

func (req sendRequest) build() (model.Recipient, model.Message, string) {
	phone := strings.TrimSpace(req.Phone)
	group := strings.TrimSpace(req.Group)

	var to model.Recipient
	switch {
	case phone != "" && group != "":
		return to, model.Message{}, "Specify either phone or group, not both"
	case phone != "":
		to = model.PhoneRecipient(phone)
		if len(model.PhoneDigits(to.Address)) < 7 {
			return to, model.Message{}, "Invalid phone number"
		}
	case group != "":
		to = model.Group{Name: group}.Recipient()
	default:
		return to, model.Message{}, "Phone or group is required"
	}

	if req.ImagePath != "" {
		return to, model.Message{Type: model.MessageImage, ImagePath: req.ImagePath, Caption: req.Caption}, ""
	}
	if strings.TrimSpace(req.Message) == "" {
		return to, model.Message{}, "Message is required"
	}
	return to, model.Message{Type: model.MessageText, Content: req.Message}, ""
}

// imagePath resolves a request path relative to ImageDir. Absolute paths,
// ".." and symlinks leading out of the directory are rejected.
func (h *SendHandler) imagePath(raw string) (string, string) {
	const outside = "image_path must name a file inside the images directory"
	if h.ImageDir == "" {
		return "", "Image sending is disabled"
	}
	raw = filepath.FromSlash(strings.TrimSpace(raw))
	if filepath.IsAbs(raw) || !filepath.IsLocal(raw) {
		return "", outside
	}
	root, err := filepath.Abs(h.ImageDir)
	if err == nil {
		root, err = filepath.EvalSymlinks(root)
	}
	if err != nil {
		return "", "Images directory is not available"
	}
	resolved, err := filepath.EvalSymlinks(filepath.Join(root, raw))
	if err != nil {
		return "", "Image not found"
	}
	if rel, err := filepath.Rel(root, resolved); err != nil || !filepath.IsLocal(rel) {
		return "", outside
	}
	return resolved, ""
}
