package client

import (
	"context"

	"github.com/example/club-scheduler/internal/participation"
)

// ToggleParticipation applies the toggle rule to the caller's row: requesting
// the stored status clears it, anything else sets it. selfID identifies the
// caller among the participants. The returned detail is re-read after the change.
func (c *Client) ToggleParticipation(ctx context.Context, scheduleID, selfID int64, requested participation.Status) (ScheduleDetail, participation.Action, error) {
	return c.toggle(ctx, scheduleID, selfID, requested,
		func(ctx context.Context) error { return c.SetParticipation(ctx, scheduleID, requested) },
		func(ctx context.Context) error { return c.RemoveMyParticipation(ctx, scheduleID) },
	)
}

// ToggleUserParticipation applies the toggle rule to another member's row.
// Administrators only.
func (c *Client) ToggleUserParticipation(ctx context.Context, scheduleID, userID int64, requested participation.Status) (ScheduleDetail, participation.Action, error) {
	return c.toggle(ctx, scheduleID, userID, requested,
		func(ctx context.Context) error { return c.SetUserParticipation(ctx, scheduleID, userID, requested) },
		func(ctx context.Context) error { return c.RemoveParticipant(ctx, scheduleID, userID) },
	)
}

// AddParticipant gives a member without a row the undecided status. Members
// who already hold a row are left unchanged.
func (c *Client) AddParticipant(ctx context.Context, scheduleID, userID int64) (ScheduleDetail, bool, error) {
	detail, err := c.GetSchedule(ctx, scheduleID)
	if err != nil {
		return ScheduleDetail{}, false, err
	}
	if !detail.PresenceOf(userID).IsAbsent() {
		return detail, false, nil
	}
	if err := c.SetUserParticipation(ctx, scheduleID, userID, participation.StatusUndecided); err != nil {
		return ScheduleDetail{}, false, err
	}
	detail, err = c.GetSchedule(ctx, scheduleID)
	return detail, true, err
}

func (c *Client) toggle(ctx context.Context, scheduleID, userID int64, requested participation.Status, set, remove func(context.Context) error) (ScheduleDetail, participation.Action, error) {
	if !requested.Valid() {
		return ScheduleDetail{}, 0, &ValidationError{Fields: map[string]string{"status": "참여 상태는 참여, 불참, 미정 중 하나여야 합니다."}}
	}

	detail, err := c.GetSchedule(ctx, scheduleID)
	if err != nil {
		return ScheduleDetail{}, 0, err
	}

	action := participation.Decide(detail.PresenceOf(userID), requested)
	switch action {
	case participation.ActionRemove:
		err = remove(ctx)
	default:
		err = set(ctx)
	}
	if err != nil {
		return ScheduleDetail{}, action, err
	}

	detail, err = c.GetSchedule(ctx, scheduleID)
	return detail, action, err
}
