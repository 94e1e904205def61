// Package admin answers whether a chat user holds administrative capability.
package admin

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"
)

// Checker resolves administrative capability for an actor.
type Checker interface {
	IsAdministrator(ctx context.Context, userID string) (bool, error)
}

type userInfoClient interface {
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

// groupMembersFunc lists the members of a Slack user group.
type groupMembersFunc func(ctx context.Context, groupID string) ([]string, error)

// SlackChecker grants capability to members of a configured user group or,
// when no group is configured, to workspace admins and owners.
type SlackChecker struct {
	users        userInfoClient
	groupMembers groupMembersFunc
	groupID      string
}

var _ Checker = &SlackChecker{}

// NewSlackChecker creates a checker backed by the Slack API.
func NewSlackChecker(token, groupID string) *SlackChecker {
	api := slack.New(token)
	return &SlackChecker{
		users: api,
		groupMembers: func(ctx context.Context, groupID string) ([]string, error) {
			return api.GetUserGroupMembersContext(ctx, groupID)
		},
		groupID: groupID,
	}
}

func newSlackCheckerWithAPI(users userInfoClient, groupMembers groupMembersFunc, groupID string) *SlackChecker {
	return &SlackChecker{users: users, groupMembers: groupMembers, groupID: groupID}
}

func (c *SlackChecker) IsAdministrator(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if c.groupID != "" {
		members, err := c.groupMembers(ctx, c.groupID)
		if err != nil {
			return false, fmt.Errorf("failed to list admin group members: %w", err)
		}
		ok := slices.Contains(members, userID)
		log.Debug("Checked admin group membership", "user", userID, "group", c.groupID, "admin", ok)
		return ok, nil
	}

	user, err := c.users.GetUserInfoContext(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get user info for %s: %w", userID, err)
	}
	return user.IsAdmin || user.IsOwner || user.IsPrimaryOwner, nil
}
