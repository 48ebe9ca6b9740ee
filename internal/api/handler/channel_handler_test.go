package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
	"github.com/hits/carschool/internal/core/security"
)

type stubChannelService struct {
	ports.ChannelService
	createFn func(ctx context.Context, creatorID int64, in ports.CreateChannelInput) (*domain.Channel, error)
	listFn   func(ctx context.Context, userID int64) ([]*domain.Channel, error)
	updateFn func(ctx context.Context, id string, in ports.UpdateChannelInput) (*domain.Channel, error)
}

func (s *stubChannelService) CreateChannel(ctx context.Context, creatorID int64, in ports.CreateChannelInput) (*domain.Channel, error) {
	return s.createFn(ctx, creatorID, in)
}

func (s *stubChannelService) ListUserChannels(ctx context.Context, userID int64) ([]*domain.Channel, error) {
	return s.listFn(ctx, userID)
}

func (s *stubChannelService) UpdateChannel(ctx context.Context, id string, in ports.UpdateChannelInput) (*domain.Channel, error) {
	return s.updateFn(ctx, id, in)
}

func TestChannelHandler_Create(t *testing.T) {
	e := newTestEcho()
	stub := &stubChannelService{
		createFn: func(ctx context.Context, creatorID int64, in ports.CreateChannelInput) (*domain.Channel, error) {
			if creatorID != 1 || in.Name != "Group A" || len(in.MemberIDs) != 2 {
				t.Fatalf("unexpected args: %d %+v", creatorID, in)
			}
			return &domain.Channel{ID: testChannelID, Name: in.Name, MemberIDs: in.MemberIDs, CreatorID: creatorID}, nil
		},
	}
	req := withCaller(jsonRequest(http.MethodPost, "/channel/create", `{"name":"Group A","member_ids":[2,3]}`), &security.Principal{ID: 1})
	rec := httptest.NewRecorder()

	if err := NewChannelHandler(stub).Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestChannelHandler_Create_ShortName(t *testing.T) {
	e := newTestEcho()
	req := withCaller(jsonRequest(http.MethodPost, "/channel/create", `{"name":"abc"}`), &security.Principal{ID: 1})

	err := NewChannelHandler(&stubChannelService{}).Create(e.NewContext(req, httptest.NewRecorder()))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestChannelHandler_Mine_UsesCaller(t *testing.T) {
	e := newTestEcho()
	stub := &stubChannelService{
		listFn: func(ctx context.Context, userID int64) ([]*domain.Channel, error) {
			if userID != 6 {
				t.Fatalf("expected caller 6, got %d", userID)
			}
			return []*domain.Channel{{ID: testChannelID}}, nil
		},
	}
	req := withCaller(httptest.NewRequest(http.MethodGet, "/channel", nil), &security.Principal{ID: 6})
	rec := httptest.NewRecorder()

	if err := NewChannelHandler(stub).Mine(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestChannelHandler_Update_PartialFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubChannelService{
		updateFn: func(ctx context.Context, id string, in ports.UpdateChannelInput) (*domain.Channel, error) {
			if in.Name != nil || in.Description == nil || *in.Description != "evening" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Channel{ID: id, Name: "Group A", Description: *in.Description}, nil
		},
	}
	c := e.NewContext(jsonRequest(http.MethodPatch, "/", `{"description":"evening"}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(testChannelID)

	if err := NewChannelHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}
