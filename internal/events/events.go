// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package events

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/campus-relay/internal/rooms"
)

var (
	// ErrUnknownType is returned for an event type outside the registry.
	ErrUnknownType = errors.New("unknown event type")

	// ErrMissingID is returned when the identifier field the type declares is absent or empty.
	ErrMissingID = errors.New("missing event target id")

	// ErrMalformedEvent is returned for payloads that are not a JSON object with a string type.
	ErrMalformedEvent = errors.New("malformed event")
)

// Event is one routable application event. The set of implementations is closed:
// every variant is built by a constructor in this package, and every constructor
// resolves the target room up front, so an Event without a room cannot exist
// outside of a zero value.
type Event interface {
	// Type is the wire tag.
	Type() Type
	// Room is the canonical room the event is broadcast to.
	Room() rooms.Name
	// TargetID is the entity identifier the room was built from.
	TargetID() string
	// Payload is the opaque data delivered to subscribers.
	Payload() json.RawMessage

	sealed()
}

type base struct {
	typ     Type
	target  string
	room    rooms.Name
	payload json.RawMessage
}

func (b base) Type() Type               { return b.typ }
func (b base) Room() rooms.Name         { return b.room }
func (b base) TargetID() string         { return b.target }
func (b base) Payload() json.RawMessage { return b.payload }
func (base) sealed()                    {}

// Notification targets a single user's personal room.
type Notification struct {
	base
	UserID string
}

// GroupMessage is a chat message in a group or interest group.
type GroupMessage struct {
	base
	GroupID       string
	InterestGroup bool
}

// RSVPUpdate reports RSVP changes for an event.
type RSVPUpdate struct {
	base
	EventID string
}

// CampaignActivity covers campaign_created and donation_received.
type CampaignActivity struct {
	base
	CampaignID string
}

// GroupRequest covers group_join_request and group_request_approved.
type GroupRequest struct {
	base
	GroupID string
}

// MentorshipMessage is a chat message inside a mentorship.
type MentorshipMessage struct {
	base
	MentorshipID string
}

// ForumActivity covers newPost, newComment and postReaction.
type ForumActivity struct {
	base
	ForumID string
}

func newBase(t Type, category rooms.Category, id string, payload any) (base, error) {
	if id == "" {
		return base{}, fmt.Errorf("%w: %s requires a non-empty id", ErrMissingID, t)
	}
	room, err := rooms.New(category, id)
	if err != nil {
		if errors.Is(err, rooms.ErrEmptyID) {
			return base{}, fmt.Errorf("%w: %s: %v", ErrMissingID, t, err)
		}
		return base{}, fmt.Errorf("%s: %w", t, err)
	}
	raw, err := rawPayload(payload)
	if err != nil {
		return base{}, fmt.Errorf("%w: %s payload: %v", ErrMalformedEvent, t, err)
	}
	return base{typ: t, target: id, room: room, payload: raw}, nil
}

// rawPayload keeps pre-encoded JSON verbatim and marshals everything else.
func rawPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if !json.Valid(p) {
			return nil, errors.New("invalid raw JSON")
		}
		return p, nil
	default:
		return json.Marshal(p)
	}
}

// NewNotification builds a notification for userID.
func NewNotification(userID string, payload any) (*Notification, error) {
	b, err := newBase(TypeNotification, rooms.CategoryUser, userID, payload)
	if err != nil {
		return nil, err
	}
	return &Notification{base: b, UserID: userID}, nil
}

// NewGroupMessage builds a groupMessage routed to the group room.
func NewGroupMessage(groupID string, payload any) (*GroupMessage, error) {
	b, err := newBase(TypeGroupMessage, rooms.CategoryGroup, groupID, payload)
	if err != nil {
		return nil, err
	}
	return &GroupMessage{base: b, GroupID: groupID}, nil
}

// NewInterestGroupMessage builds a groupMessage routed to the interestGroup room.
func NewInterestGroupMessage(groupID string, payload any) (*GroupMessage, error) {
	b, err := newBase(TypeGroupMessage, rooms.CategoryInterestGroup, groupID, payload)
	if err != nil {
		return nil, err
	}
	return &GroupMessage{base: b, GroupID: groupID, InterestGroup: true}, nil
}

// NewRSVPUpdate builds an event_rsvp_update for eventID.
func NewRSVPUpdate(eventID string, payload any) (*RSVPUpdate, error) {
	b, err := newBase(TypeEventRSVPUpdate, rooms.CategoryEvent, eventID, payload)
	if err != nil {
		return nil, err
	}
	return &RSVPUpdate{base: b, EventID: eventID}, nil
}

// NewCampaignCreated builds a campaign_created event.
func NewCampaignCreated(campaignID string, payload any) (*CampaignActivity, error) {
	return newCampaignActivity(TypeCampaignCreated, campaignID, payload)
}

// NewDonationReceived builds a donation_received event.
func NewDonationReceived(campaignID string, payload any) (*CampaignActivity, error) {
	return newCampaignActivity(TypeDonationReceived, campaignID, payload)
}

func newCampaignActivity(t Type, campaignID string, payload any) (*CampaignActivity, error) {
	b, err := newBase(t, rooms.CategoryCampaign, campaignID, payload)
	if err != nil {
		return nil, err
	}
	return &CampaignActivity{base: b, CampaignID: campaignID}, nil
}

// NewGroupJoinRequest builds a group_join_request event.
func NewGroupJoinRequest(groupID string, payload any) (*GroupRequest, error) {
	return newGroupRequest(TypeGroupJoinRequest, groupID, payload)
}

// NewGroupRequestApproved builds a group_request_approved event.
func NewGroupRequestApproved(groupID string, payload any) (*GroupRequest, error) {
	return newGroupRequest(TypeGroupRequestApproved, groupID, payload)
}

func newGroupRequest(t Type, groupID string, payload any) (*GroupRequest, error) {
	b, err := newBase(t, rooms.CategoryGroup, groupID, payload)
	if err != nil {
		return nil, err
	}
	return &GroupRequest{base: b, GroupID: groupID}, nil
}

// NewMentorshipMessage builds a mentorshipMessage event.
func NewMentorshipMessage(mentorshipID string, payload any) (*MentorshipMessage, error) {
	b, err := newBase(TypeMentorshipMessage, rooms.CategoryMentorship, mentorshipID, payload)
	if err != nil {
		return nil, err
	}
	return &MentorshipMessage{base: b, MentorshipID: mentorshipID}, nil
}

// NewPost builds a newPost event.
func NewPost(forumID string, payload any) (*ForumActivity, error) {
	return newForumActivity(TypeNewPost, forumID, payload)
}

// NewComment builds a newComment event.
func NewComment(forumID string, payload any) (*ForumActivity, error) {
	return newForumActivity(TypeNewComment, forumID, payload)
}

// NewPostReaction builds a postReaction event.
func NewPostReaction(forumID string, payload any) (*ForumActivity, error) {
	return newForumActivity(TypePostReaction, forumID, payload)
}

func newForumActivity(t Type, forumID string, payload any) (*ForumActivity, error) {
	b, err := newBase(t, rooms.CategoryForum, forumID, payload)
	if err != nil {
		return nil, err
	}
	return &ForumActivity{base: b, ForumID: forumID}, nil
}
