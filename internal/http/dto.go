package http

import (
	"time"

	"github.com/example/club-scheduler/internal/application"
)

const timestampLayout = time.RFC3339

type credentialsRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// identityDTO is the camelCase member shape returned by the auth endpoints.
type identityDTO struct {
	UserID     int64  `json:"userId"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	IsApproved bool   `json:"isApproved"`
	IsAdmin    bool   `json:"isAdmin"`
	Token      string `json:"token,omitempty"`
	ExpiresAt  string `json:"expiresAt,omitempty"`
}

func toIdentityDTO(user application.User) identityDTO {
	return identityDTO{
		UserID:     user.ID,
		Name:       user.Name,
		Phone:      user.Phone,
		IsApproved: user.IsApproved,
		IsAdmin:    user.IsAdmin,
	}
}

func toAuthDTO(result application.AuthResult) identityDTO {
	dto := toIdentityDTO(result.User)
	if result.Token != "" {
		dto.Token = result.Token
		dto.ExpiresAt = result.ExpiresAt.UTC().Format(timestampLayout)
	}
	return dto
}

type userDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	IsApproved bool   `json:"is_approved"`
	IsAdmin    bool   `json:"is_admin"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:         user.ID,
		Name:       user.Name,
		Phone:      user.Phone,
		IsApproved: user.IsApproved,
		IsAdmin:    user.IsAdmin,
		CreatedAt:  formatTimestamp(user.CreatedAt),
		UpdatedAt:  formatTimestamp(user.UpdatedAt),
	}
}

func toUserDTOs(users []application.User) []userDTO {
	dtos := make([]userDTO, 0, len(users))
	for _, user := range users {
		dtos = append(dtos, toUserDTO(user))
	}
	return dtos
}

type userUpdateRequest struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	IsAdmin    *bool   `json:"is_admin"`
	IsApproved *bool   `json:"is_approved"`
}

func (r userUpdateRequest) toPatch() application.UserPatch {
	return application.UserPatch{
		Name:       r.Name,
		Phone:      r.Phone,
		IsAdmin:    r.IsAdmin,
		IsApproved: r.IsApproved,
	}
}

type scheduleRequest struct {
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Location       *string `json:"location"`
	LocationDetail *string `json:"location_detail"`
}

func (r scheduleRequest) toInput() application.ScheduleInput {
	return application.ScheduleInput{
		Title:          r.Title,
		Description:    r.Description,
		Date:           r.Date,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Location:       r.Location,
		LocationDetail: r.LocationDetail,
	}
}

type scheduleDTO struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Description      *string `json:"description,omitempty"`
	Date             string  `json:"date"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	Location         *string `json:"location,omitempty"`
	LocationDetail   *string `json:"location_detail,omitempty"`
	CreatedBy        *int64  `json:"created_by"`
	CreatedByName    string  `json:"created_by_name,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
	ParticipantCount int     `json:"participant_count"`
	ConfirmedCount   int     `json:"confirmed_count"`
}

func toScheduleDTO(schedule application.Schedule) scheduleDTO {
	dto := scheduleDTO{
		ID:               schedule.ID,
		Title:            schedule.Title,
		Description:      schedule.Description,
		Date:             schedule.Date,
		StartTime:        schedule.StartTime,
		EndTime:          schedule.EndTime,
		Location:         schedule.Location,
		LocationDetail:   schedule.LocationDetail,
		CreatedByName:    schedule.CreatedByName,
		CreatedAt:        formatTimestamp(schedule.CreatedAt),
		UpdatedAt:        formatTimestamp(schedule.UpdatedAt),
		ParticipantCount: schedule.ParticipantCount,
		ConfirmedCount:   schedule.ConfirmedCount,
	}
	// Schedules outlive their creator's account.
	if schedule.CreatedBy > 0 {
		createdBy := schedule.CreatedBy
		dto.CreatedBy = &createdBy
	}
	return dto
}

func toScheduleDTOs(schedules []application.Schedule) []scheduleDTO {
	dtos := make([]scheduleDTO, 0, len(schedules))
	for _, schedule := range schedules {
		dtos = append(dtos, toScheduleDTO(schedule))
	}
	return dtos
}

type participantDTO struct {
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	UserPhone string `json:"user_phone"`
	Status    string `json:"status"`
}

type scheduleDetailDTO struct {
	scheduleDTO
	DescriptionHTML string           `json:"description_html,omitempty"`
	Participants    []participantDTO `json:"participants"`
}

func toScheduleDetailDTO(detail application.ScheduleDetail) scheduleDetailDTO {
	participants := make([]participantDTO, 0, len(detail.Participants))
	for _, p := range detail.Participants {
		participants = append(participants, participantDTO{
			UserID:    p.UserID,
			UserName:  p.UserName,
			UserPhone: p.UserPhone,
			Status:    string(p.Status),
		})
	}
	return scheduleDetailDTO{
		scheduleDTO:     toScheduleDTO(detail.Schedule),
		DescriptionHTML: detail.DescriptionHTML,
		Participants:    participants,
	}
}

type myParticipationDTO struct {
	scheduleDTO
	MyStatus string `json:"my_status"`
}

func toMyParticipationDTOs(rows []application.MyParticipation) []myParticipationDTO {
	dtos := make([]myParticipationDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, myParticipationDTO{
			scheduleDTO: toScheduleDTO(row.Schedule),
			MyStatus:    string(row.Status),
		})
	}
	return dtos
}

type participationRequest struct {
	Status string `json:"status"`
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}
