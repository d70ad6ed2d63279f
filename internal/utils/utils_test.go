package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("ops", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sub, err := ParseSubject(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub != "ops" {
		t.Fatalf("expected subject ops, got %q", sub)
	}
	if _, err := ParseSubject(token, "other"); err == nil {
		t.Fatalf("expected wrong secret to fail")
	}
}

func TestNegativeTTLMeansNoExpiry(t *testing.T) {
	token, err := IssueToken("ops", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseSubject(token, "secret"); err != nil {
		t.Fatalf("expected token without expiry to parse, got %v", err)
	}
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	if _, err := IssueToken("ops", "", 0); err == nil {
		t.Fatalf("expected error without secret")
	}
	if _, err := ParseSubject("abc", ""); err == nil {
		t.Fatalf("expected error without secret")
	}
}

func TestResponseEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	SuccessResponse(rec, http.StatusCreated, map[string]int{"n": 1}, "ok")
	if rec.Code != http.StatusCreated || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Message != "ok" {
		t.Fatalf("unexpected envelope %+v", resp)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Phone string `json:"phone"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"phone":"+1555"}`))
	if err := DecodeJSON(req, &v); err != nil || v.Phone != "+1555" {
		t.Fatalf("decode: %v %+v", err, v)
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"unknown":1}`))
	if err := DecodeJSON(req, &v); err == nil {
		t.Fatalf("expected unknown field error")
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	if err := DecodeJSON(req, &v); err == nil {
		t.Fatalf("expected empty body error")
	}
}
