package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
)

func TestChannelService_CreateChannel(t *testing.T) {
	store := newStubIdentityStore()
	manager := seedIdentity(store, "boss@example.com", "secret1", domain.RoleManager)
	student := seedIdentity(store, "anna@example.com", "secret1", domain.RoleStudent)
	svc := NewChannelService(newStubChannelRepo(), store, discardLogger)

	ch, err := svc.CreateChannel(context.Background(), manager.ID, ports.CreateChannelInput{
		Name:      "  Group A-12  ",
		MemberIDs: []int64{student.ID, student.ID},
	})
	if err != nil {
		t.Fatalf("CreateChannel returned error: %v", err)
	}
	if ch.Name != "Group A-12" {
		t.Fatalf("expected trimmed name, got %q", ch.Name)
	}
	if len(ch.MemberIDs) != 1 {
		t.Fatalf("expected duplicate members to collapse, got %v", ch.MemberIDs)
	}

	channels, err := svc.ListUserChannels(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("ListUserChannels returned error: %v", err)
	}
	if len(channels) != 1 || channels[0].ID != ch.ID {
		t.Fatalf("expected the member to see the channel, got %d channels", len(channels))
	}
}

func TestChannelService_CreateChannel_Rejections(t *testing.T) {
	store := newStubIdentityStore()
	svc := NewChannelService(newStubChannelRepo(), store, discardLogger)

	if _, err := svc.CreateChannel(context.Background(), 1, ports.CreateChannelInput{Name: "abcd"}); !errors.Is(err, domain.ErrInvalidChannelName) {
		t.Fatalf("expected ErrInvalidChannelName, got %v", err)
	}
	_, err := svc.CreateChannel(context.Background(), 1, ports.CreateChannelInput{Name: "Group B", MemberIDs: []int64{42}})
	if err != domain.ErrIdentityNotFound {
		t.Fatalf("expected ErrIdentityNotFound for unknown member, got %v", err)
	}
}

func TestChannelService_UpdateAndDelete(t *testing.T) {
	store := newStubIdentityStore()
	svc := NewChannelService(newStubChannelRepo(), store, discardLogger)
	ch, err := svc.CreateChannel(context.Background(), 1, ports.CreateChannelInput{Name: "Group C"})
	if err != nil {
		t.Fatalf("CreateChannel returned error: %v", err)
	}

	desc := "evening lessons"
	got, err := svc.UpdateChannel(context.Background(), ch.ID, ports.UpdateChannelInput{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateChannel returned error: %v", err)
	}
	if got.Name != "Group C" || got.Description != desc {
		t.Fatalf("unexpected channel after update: %+v", got)
	}

	short := "ab"
	if _, err := svc.UpdateChannel(context.Background(), ch.ID, ports.UpdateChannelInput{Name: &short}); !errors.Is(err, domain.ErrInvalidChannelName) {
		t.Fatalf("expected ErrInvalidChannelName, got %v", err)
	}

	if err := svc.DeleteChannel(context.Background(), ch.ID); err != nil {
		t.Fatalf("DeleteChannel returned error: %v", err)
	}
	if _, err := svc.GetChannel(context.Background(), ch.ID); err != domain.ErrChannelNotFound {
		t.Fatalf("expected ErrChannelNotFound, got %v", err)
	}
	if _, err := svc.GetChannel(context.Background(), "not-a-uuid"); err != domain.ErrChannelNotFound {
		t.Fatalf("expected ErrChannelNotFound for malformed id, got %v", err)
	}
}
