package whatsapp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
)

func TestParseJIDFromPhone(t *testing.T) {
	jid, err := parseJID("+1 (555) 000-1111")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if jid.User != "15550001111" || jid.Server != types.DefaultUserServer {
		t.Fatalf("unexpected jid %s", jid)
	}
}

func TestParseJIDKeepsFullJID(t *testing.T) {
	jid, err := parseJID("120363025246125486@g.us")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if jid.Server != types.GroupServer || jid.User != "120363025246125486" {
		t.Fatalf("unexpected jid %s", jid)
	}
}

func TestParseJIDRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "+", "12ab34"} {
		if _, err := parseJID(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

type stubLister struct {
	groups []*types.GroupInfo
	err    error
	calls  int
}

func (s *stubLister) GetJoinedGroups(ctx context.Context) ([]*types.GroupInfo, error) {
	s.calls++
	return s.groups, s.err
}

func group(name, user string) *types.GroupInfo {
	return &types.GroupInfo{
		JID:       types.NewJID(user, types.GroupServer),
		GroupName: types.GroupName{Name: name},
	}
}

func TestFindGroupExactMatch(t *testing.T) {
	lister := &stubLister{groups: []*types.GroupInfo{group("Family", "1"), group("Family Chat", "2"), nil}}

	jid, err := findGroup(context.Background(), lister, "Family Chat")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if jid.User != "2" {
		t.Fatalf("expected group 2, got %s", jid)
	}
	if _, err := findGroup(context.Background(), lister, "family chat"); err == nil {
		t.Fatalf("group names are matched verbatim")
	}
}

func TestFindGroupAmbiguousAndErrors(t *testing.T) {
	lister := &stubLister{groups: []*types.GroupInfo{group("Team", "1"), group("Team", "2")}}
	if _, err := findGroup(context.Background(), lister, "Team"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("expected ambiguous error, got %v", err)
	}

	boom := errors.New("offline")
	if _, err := findGroup(context.Background(), &stubLister{err: boom}, "Team"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped lister error, got %v", err)
	}
}

func TestImageMessageCarriesUpload(t *testing.T) {
	up := whatsmeow.UploadResponse{
		URL:        "https://mmg.whatsapp.net/x",
		DirectPath: "/v/x",
		MediaKey:   []byte{1},
		FileLength: 42,
	}
	msg := imageMessage(up, "image/png", "hello")
	img := msg.GetImageMessage()
	if img == nil {
		t.Fatalf("expected image message")
	}
	if img.GetURL() != up.URL || img.GetFileLength() != 42 || img.GetMimetype() != "image/png" || img.GetCaption() != "hello" {
		t.Fatalf("unexpected image message %+v", img)
	}
	if imageMessage(up, "image/png", "").ImageMessage.Caption != nil {
		t.Fatalf("empty caption must be omitted")
	}
	if textMessage("hi").GetConversation() != "hi" {
		t.Fatalf("unexpected text message")
	}
}
