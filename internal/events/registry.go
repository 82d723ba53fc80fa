// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package events

import (
	"sort"

	"github.com/tomtom215/campus-relay/internal/rooms"
)

// Type is the tag an event carries on the wire.
type Type string

// Recognized event types. Anything else is rejected by Decode and never broadcast.
const (
	TypeNotification         Type = "notification"
	TypeGroupMessage         Type = "groupMessage"
	TypeEventRSVPUpdate      Type = "event_rsvp_update"
	TypeCampaignCreated      Type = "campaign_created"
	TypeDonationReceived     Type = "donation_received"
	TypeGroupJoinRequest     Type = "group_join_request"
	TypeGroupRequestApproved Type = "group_request_approved"
	TypeMentorshipMessage    Type = "mentorshipMessage"
	TypeNewPost              Type = "newPost"
	TypeNewComment           Type = "newComment"
	TypePostReaction         Type = "postReaction"
)

// Identifier field names, as they appear in producer payloads.
const (
	FieldUserID       = "userId"
	FieldGroupID      = "groupId"
	FieldEventID      = "eventId"
	FieldCampaignID   = "campaignId"
	FieldMentorshipID = "mentorshipId"
	FieldForumID      = "forumId"

	// FieldScope selects the interestGroup room for groupMessage events.
	FieldScope = "scope"
)

// Spec declares where an event type is routed.
type Spec struct {
	Type     Type
	IDField  string
	Category rooms.Category
}

var registry = map[Type]Spec{
	TypeNotification:         {TypeNotification, FieldUserID, rooms.CategoryUser},
	TypeGroupMessage:         {TypeGroupMessage, FieldGroupID, rooms.CategoryGroup},
	TypeEventRSVPUpdate:      {TypeEventRSVPUpdate, FieldEventID, rooms.CategoryEvent},
	TypeCampaignCreated:      {TypeCampaignCreated, FieldCampaignID, rooms.CategoryCampaign},
	TypeDonationReceived:     {TypeDonationReceived, FieldCampaignID, rooms.CategoryCampaign},
	TypeGroupJoinRequest:     {TypeGroupJoinRequest, FieldGroupID, rooms.CategoryGroup},
	TypeGroupRequestApproved: {TypeGroupRequestApproved, FieldGroupID, rooms.CategoryGroup},
	TypeMentorshipMessage:    {TypeMentorshipMessage, FieldMentorshipID, rooms.CategoryMentorship},
	TypeNewPost:              {TypeNewPost, FieldForumID, rooms.CategoryForum},
	TypeNewComment:           {TypeNewComment, FieldForumID, rooms.CategoryForum},
	TypePostReaction:         {TypePostReaction, FieldForumID, rooms.CategoryForum},
}

// Lookup returns the routing spec for t.
func Lookup(t Type) (Spec, bool) {
	s, ok := registry[t]
	return s, ok
}

// Known reports whether t is in the registry.
func (t Type) Known() bool {
	_, ok := registry[t]
	return ok
}

// Types lists every recognized type in lexical order.
func Types() []Type {
	out := make([]Type, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
