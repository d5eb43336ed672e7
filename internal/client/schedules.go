package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/club-scheduler/internal/participation"
)

// ListSchedules returns one calendar month. Zero values let the backend pick
// the current month.
func (c *Client) ListSchedules(ctx context.Context, year, month int) ([]Schedule, error) {
	query := url.Values{}
	if year != 0 {
		query.Set("year", strconv.Itoa(year))
	}
	if month != 0 {
		query.Set("month", strconv.Itoa(month))
	}

	schedules := []Schedule{}
	if err := c.call(ctx, http.MethodGet, "/api/schedules", query, nil, &schedules, "일정 조회 중 오류가 발생했습니다."); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (c *Client) GetSchedule(ctx context.Context, scheduleID int64) (ScheduleDetail, error) {
	var detail ScheduleDetail
	if err := c.call(ctx, http.MethodGet, schedulePath(scheduleID), nil, nil, &detail, "일정 상세 조회 중 오류가 발생했습니다."); err != nil {
		return ScheduleDetail{}, err
	}
	return detail, nil
}

// CreateSchedule validates input locally before sending it.
func (c *Client) CreateSchedule(ctx context.Context, input ScheduleInput) (Schedule, error) {
	if err := input.Validate(); err != nil {
		return Schedule{}, err
	}
	var schedule Schedule
	if err := c.call(ctx, http.MethodPost, "/api/schedules", nil, input, &schedule, "일정 생성 중 오류가 발생했습니다."); err != nil {
		return Schedule{}, err
	}
	return schedule, nil
}

// UpdateSchedule validates input locally before sending it.
func (c *Client) UpdateSchedule(ctx context.Context, scheduleID int64, input ScheduleInput) (Schedule, error) {
	if err := input.Validate(); err != nil {
		return Schedule{}, err
	}
	var schedule Schedule
	if err := c.call(ctx, http.MethodPut, schedulePath(scheduleID), nil, input, &schedule, "일정 수정 중 오류가 발생했습니다."); err != nil {
		return Schedule{}, err
	}
	return schedule, nil
}

func (c *Client) DeleteSchedule(ctx context.Context, scheduleID int64) error {
	return c.call(ctx, http.MethodDelete, schedulePath(scheduleID), nil, nil, nil, "일정 삭제 중 오류가 발생했습니다.")
}

// SetParticipation creates or overwrites the caller's row.
func (c *Client) SetParticipation(ctx context.Context, scheduleID int64, status participation.Status) error {
	return c.call(ctx, http.MethodPost, participatePath(scheduleID), nil,
		map[string]string{"status": string(status)}, nil,
		"참여 상태 설정 중 오류가 발생했습니다.")
}

// RemoveMyParticipation deletes the caller's row.
func (c *Client) RemoveMyParticipation(ctx context.Context, scheduleID int64) error {
	return c.call(ctx, http.MethodDelete, participatePath(scheduleID), nil, nil, nil, "참여 상태 제거 중 오류가 발생했습니다.")
}

func (c *Client) MyParticipations(ctx context.Context) ([]MyParticipation, error) {
	rows := []MyParticipation{}
	if err := c.call(ctx, http.MethodGet, "/api/schedules/my-participations", nil, nil, &rows, "참여 일정 조회 중 오류가 발생했습니다."); err != nil {
		return nil, err
	}
	return rows, nil
}

// SetUserParticipation creates or overwrites another member's row. Administrators only.
func (c *Client) SetUserParticipation(ctx context.Context, scheduleID, userID int64, status participation.Status) error {
	return c.call(ctx, http.MethodPost, participateUserPath(scheduleID, userID), nil,
		map[string]string{"status": string(status)}, nil,
		"사용자 참여 상태 설정 중 오류가 발생했습니다.")
}

// RemoveParticipant deletes another member's row. Administrators only.
func (c *Client) RemoveParticipant(ctx context.Context, scheduleID, userID int64) error {
	return c.call(ctx, http.MethodDelete, participateUserPath(scheduleID, userID), nil, nil, nil, "참여자 제거 중 오류가 발생했습니다.")
}

func schedulePath(scheduleID int64) string {
	return fmt.Sprintf("/api/schedules/%d", scheduleID)
}

func participatePath(scheduleID int64) string {
	return fmt.Sprintf("/api/schedules/%d/participate", scheduleID)
}

func participateUserPath(scheduleID, userID int64) string {
	return fmt.Sprintf("/api/schedules/%d/participate/%d", scheduleID, userID)
}
