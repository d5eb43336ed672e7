package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/example/club-scheduler/internal/client"
	"github.com/example/club-scheduler/internal/participation"
)

var weekdayLabels = [...]string{"일", "월", "화", "수", "목", "금", "토"}

func renderProfile(w io.Writer, user client.User) {
	fmt.Fprintf(w, "%s (#%d)\n", user.Name, user.ID)
	fmt.Fprintf(w, "  전화번호: %s\n", user.Phone)
	fmt.Fprintf(w, "  권한: %s\n", roleLabel(user))
}

// renderMonth prints the month grouped by date, each day in start time order.
func renderMonth(w io.Writer, year, month int, schedules []client.Schedule) {
	fmt.Fprintf(w, "%d년 %d월 일정\n", year, month)
	if len(schedules) == 0 {
		fmt.Fprintln(w, "등록된 일정이 없습니다.")
		return
	}

	byDate := make(map[string][]client.Schedule)
	dates := make([]string, 0)
	for _, schedule := range schedules {
		if _, seen := byDate[schedule.Date]; !seen {
			dates = append(dates, schedule.Date)
		}
		byDate[schedule.Date] = append(byDate[schedule.Date], schedule)
	}
	sort.Strings(dates)

	for _, date := range dates {
		day := byDate[date]
		sort.SliceStable(day, func(i, j int) bool {
			return clock(day[i].StartTime) < clock(day[j].StartTime)
		})

		fmt.Fprintf(w, "\n%s\n", dateHeading(date))
		for _, schedule := range day {
			line := fmt.Sprintf("  #%d %s-%s %s", schedule.ID, clock(schedule.StartTime), clock(schedule.EndTime), schedule.Title)
			if schedule.Location != "" {
				line += " @" + schedule.Location
			}
			fmt.Fprintf(w, "%s [참여 %d/%d]\n", line, schedule.ConfirmedCount, schedule.ParticipantCount)
		}
	}
}

// renderDetail prints one schedule and its participants in arrival order.
func renderDetail(w io.Writer, detail client.ScheduleDetail, selfID int64) {
	fmt.Fprintf(w, "#%d %s\n", detail.ID, detail.Title)
	fmt.Fprintf(w, "  일시: %s %s-%s\n", dateHeading(detail.Date), clock(detail.StartTime), clock(detail.EndTime))
	if detail.Location != "" {
		location := detail.Location
		if detail.LocationDetail != "" {
			location += " (" + detail.LocationDetail + ")"
		}
		fmt.Fprintf(w, "  장소: %s\n", location)
	}
	if detail.CreatedByName != "" {
		fmt.Fprintf(w, "  작성자: %s\n", detail.CreatedByName)
	}
	if description := strings.TrimSpace(detail.Description); description != "" {
		fmt.Fprintln(w, "  설명:")
		for _, line := range strings.Split(description, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}

	counts := make(map[participation.Status]int)
	for _, p := range detail.Participants {
		counts[p.Status]++
	}
	summary := make([]string, 0, len(participation.Statuses()))
	for _, status := range participation.Statuses() {
		summary = append(summary, fmt.Sprintf("%s %d", status.Label(), counts[status]))
	}
	fmt.Fprintf(w, "  참여자 (%d): %s\n", len(detail.Participants), strings.Join(summary, ", "))
	for _, p := range detail.Participants {
		marker := ""
		if p.UserID == selfID {
			marker = " (나)"
		}
		fmt.Fprintf(w, "    - %s%s %s [%s]\n", p.UserName, marker, p.UserPhone, p.Status.Label())
	}

	if selfID > 0 {
		fmt.Fprintf(w, "  내 상태: %s\n", presenceLabel(detail.PresenceOf(selfID)))
	}
}

func renderMine(w io.Writer, items []client.MyParticipation) {
	if len(items) == 0 {
		fmt.Fprintln(w, "참여 중인 일정이 없습니다.")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "#%d %s %s-%s %s [%s]\n",
			item.ID, item.Date, clock(item.StartTime), clock(item.EndTime), item.Title, item.MyStatus.Label())
	}
}

func renderUsers(w io.Writer, users []client.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "회원이 없습니다.")
		return
	}
	for _, user := range users {
		fmt.Fprintf(w, "#%d %s %s %s\n", user.ID, user.Name, user.Phone, roleLabel(user))
	}
}

func roleLabel(user client.User) string {
	switch {
	case !user.IsApproved:
		return "승인 대기"
	case user.IsAdmin:
		return "관리자"
	default:
		return "회원"
	}
}

func presenceLabel(presence participation.Presence) string {
	status, ok := presence.Status()
	if !ok {
		return "미응답"
	}
	return status.Label()
}

// dateHeading renders YYYY-MM-DD with its weekday, or the input unchanged
// when it does not parse.
func dateHeading(date string) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s (%s)", date, weekdayLabels[parsed.Weekday()])
}

// clock trims HH:MM:SS values to HH:MM.
func clock(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 5 && value[2] == ':' {
		return value[:5]
	}
	return value
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
