package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/club-scheduler/internal/client"
	"github.com/example/club-scheduler/internal/clientstore"
	"github.com/example/club-scheduler/internal/config"
	"github.com/example/club-scheduler/internal/logging"
	"github.com/example/club-scheduler/internal/participation"
)

func TestRunUsage(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), nil, &stdout, &stderr); code != exitUsage {
		t.Fatalf("expected usage exit code, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Available Commands:") {
		t.Fatalf("expected command listing, got %q", stderr.String())
	}
}

func TestParseIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		n       int
		want    []int64
		wantErr bool
	}{
		{name: "single", args: []string{"7"}, n: 1, want: []int64{7}},
		{name: "hash prefix", args: []string{"#7", "3"}, n: 2, want: []int64{7, 3}},
		{name: "wrong arity", args: []string{"7"}, n: 2, wantErr: true},
		{name: "not a number", args: []string{"seven"}, n: 1, wantErr: true},
		{name: "non positive", args: []string{"0"}, n: 1, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseIDs(tt.args, "usage", tt.n)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestRenderMonth(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	renderMonth(&out, 2024, 5, []client.Schedule{
		{ID: 3, Title: "Evening", Date: "2024-05-10", StartTime: "19:00:00", EndTime: "21:00:00", ParticipantCount: 3, ConfirmedCount: 2},
		{ID: 1, Title: "Morning", Date: "2024-05-10", StartTime: "07:00", EndTime: "09:00", Location: "Court 2"},
		{ID: 2, Title: "Earlier day", Date: "2024-05-03", StartTime: "10:00", EndTime: "12:00"},
	})

	got := out.String()
	want := strings.Join([]string{
		"2024년 5월 일정",
		"",
		"2024-05-03 (금)",
		"  #2 10:00-12:00 Earlier day [참여 0/0]",
		"",
		"2024-05-10 (금)",
		"  #1 07:00-09:00 Morning @Court 2 [참여 0/0]",
		"  #3 19:00-21:00 Evening [참여 2/3]",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected month rendering:\n%s\nwant:\n%s", got, want)
	}

	out.Reset()
	renderMonth(&out, 2024, 6, nil)
	if !strings.Contains(out.String(), "등록된 일정이 없습니다.") {
		t.Fatalf("expected empty month notice, got %q", out.String())
	}
}

func TestRenderDetail(t *testing.T) {
	t.Parallel()

	detail := client.ScheduleDetail{
		Schedule: client.Schedule{ID: 9, Title: "Doubles", Date: "2024-05-10", StartTime: "19:00", EndTime: "21:00", Location: "Court 1", LocationDetail: "north side"},
		Participants: []client.Participant{
			{UserID: 2, UserName: "Lee", UserPhone: "010-2222-3333", Status: participation.StatusAttending},
			{UserID: 1, UserName: "Kim", UserPhone: "010-1234-5678", Status: participation.StatusUndecided},
		},
	}

	var out bytes.Buffer
	renderDetail(&out, detail, 1)
	got := out.String()
	for _, fragment := range []string{
		"장소: Court 1 (north side)",
		"참여자 (2): 참여 1, 불참 0, 미정 1",
		"- Kim (나) 010-1234-5678 [미정]",
		"내 상태: 미정",
	} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("expected %q in:\n%s", fragment, got)
		}
	}
	if strings.Index(got, "Lee") > strings.Index(got, "Kim (나)") {
		t.Fatalf("expected arrival order to be kept:\n%s", got)
	}

	out.Reset()
	renderDetail(&out, detail, 5)
	if !strings.Contains(out.String(), "내 상태: 미응답") {
		t.Fatalf("expected absent member to be reported as unanswered:\n%s", out.String())
	}
}

func TestCommands(t *testing.T) {
	t.Parallel()

	t.Run("member commands require a session", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		server := httptest.NewServer(backend)
		defer server.Close()

		out, code := invoke(t, newTestApp(t, server.URL, t.TempDir()), "month")
		if code != exitError || !strings.Contains(out, "로그인이 필요합니다.") {
			t.Fatalf("expected sign-in prompt, got code=%d out=%q", code, out)
		}
	})

	t.Run("login persists the session for later invocations", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		server := httptest.NewServer(backend)
		defer server.Close()
		state := t.TempDir()

		out, code := invoke(t, newTestApp(t, server.URL, state), "login", "Kim", "010-1234-5678")
		if code != exitOK || !strings.Contains(out, "Kim님, 로그인되었습니다.") {
			t.Fatalf("login: code=%d out=%q", code, out)
		}

		out, code = invoke(t, newTestApp(t, server.URL, state), "me")
		if code != exitOK || !strings.Contains(out, "권한: 관리자") {
			t.Fatalf("me: code=%d out=%q", code, out)
		}
	})

	t.Run("failed login shows the server message", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		server := httptest.NewServer(backend)
		defer server.Close()

		out, code := invoke(t, newTestApp(t, server.URL, t.TempDir()), "login", "Nobody", "010-0000-0000")
		if code != exitError || !strings.Contains(out, "이름 또는 전화번호가 올바르지 않습니다.") {
			t.Fatalf("expected credential error, got code=%d out=%q", code, out)
		}
	})

	t.Run("malformed phone fails before any request", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		server := httptest.NewServer(backend)
		defer server.Close()

		out, code := invoke(t, newTestApp(t, server.URL, t.TempDir()), "login", "Kim", "not-a-phone")
		if code != exitError || !strings.Contains(out, "010-xxxx-xxxx 형식으로 입력해주세요.") {
			t.Fatalf("expected phone format message, got code=%d out=%q", code, out)
		}
		if got := backend.loginAttempts(); got != 0 {
			t.Fatalf("expected no login request, got %d", got)
		}
	})

	t.Run("default month follows the club timezone", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		server := httptest.NewServer(backend)
		defer server.Close()
		state := t.TempDir()

		if _, code := invoke(t, newTestApp(t, server.URL, state), "login", "Park", "010-5555-6666"); code != exitOK {
			t.Fatalf("login failed with code %d", code)
		}

		a := newTestApp(t, server.URL, state)
		a.calendar = time.FixedZone("KST", 9*60*60)
		a.now = func() time.Time { return time.Date(2024, time.May, 31, 20, 0, 0, 0, time.UTC) }
		out, code := invoke(t, a, "month")
		if code != exitOK || !strings.Contains(out, "2024년 6월 일정") {
			t.Fatalf("month: code=%d out=%q", code, out)
		}
		if got := backend.lastListQuery(); got != "month=6&year=2024" {
			t.Fatalf("unexpected listing query %q", got)
		}
	})

	t.Run("toggle sets and then withdraws", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		server := httptest.NewServer(backend)
		defer server.Close()
		state := t.TempDir()

		if _, code := invoke(t, newTestApp(t, server.URL, state), "login", "Park", "010-5555-6666"); code != exitOK {
			t.Fatalf("login failed with code %d", code)
		}

		out, code := invoke(t, newTestApp(t, server.URL, state), "toggle", "1", "참여")
		if code != exitOK || !strings.Contains(out, "참여 상태가 '참여'(으)로 변경되었습니다.") {
			t.Fatalf("toggle: code=%d out=%q", code, out)
		}
		if got := backend.status(1, parkID); got != participation.StatusAttending {
			t.Fatalf("expected attending row, got %q", got)
		}

		out, code = invoke(t, newTestApp(t, server.URL, state), "toggle", "1", "attending")
		if code != exitOK || !strings.Contains(out, "참여 상태가 취소되었습니다.") {
			t.Fatalf("second toggle: code=%d out=%q", code, out)
		}
		if got := backend.status(1, parkID); got != "" {
			t.Fatalf("expected row removed, got %q", got)
		}
	})

	t.Run("admin commands are refused for members", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		server := httptest.NewServer(backend)
		defer server.Close()
		state := t.TempDir()

		if _, code := invoke(t, newTestApp(t, server.URL, state), "login", "Park", "010-5555-6666"); code != exitOK {
			t.Fatalf("login failed with code %d", code)
		}
		out, code := invoke(t, newTestApp(t, server.URL, state), "admin", "users")
		if code != exitError || !strings.Contains(out, "관리자 권한이 필요합니다.") {
			t.Fatalf("expected refusal, got code=%d out=%q", code, out)
		}
	})

	t.Run("revoked token signs the member out", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		server := httptest.NewServer(backend)
		defer server.Close()
		state := t.TempDir()

		if _, code := invoke(t, newTestApp(t, server.URL, state), "login", "Kim", "010-1234-5678"); code != exitOK {
			t.Fatalf("login failed with code %d", code)
		}
		backend.revokeTokens()

		out, code := invoke(t, newTestApp(t, server.URL, state), "me")
		if code != exitError || !strings.Contains(out, "로그인이 필요합니다.") {
			t.Fatalf("expected sign-in prompt, got code=%d out=%q", code, out)
		}

		store, err := clientstore.NewFileStore(state, nil)
		if err != nil {
			t.Fatalf("NewFileStore: %v", err)
		}
		if _, ok, _ := store.Token(); ok {
			t.Fatal("expected stored token removed")
		}
		if _, ok, _ := store.Profile(); ok {
			t.Fatal("expected cached profile removed")
		}
	})

	t.Run("unknown flags print usage", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		server := httptest.NewServer(backend)
		defer server.Close()

		out, code := invoke(t, newTestApp(t, server.URL, t.TempDir()), "month", "--week", "3")
		if code != exitUsage || !strings.Contains(out, "사용법: clubctl month") {
			t.Fatalf("expected usage, got code=%d out=%q", code, out)
		}
	})

	t.Run("invalid arguments print usage", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		server := httptest.NewServer(backend)
		defer server.Close()

		out, code := invoke(t, newTestApp(t, server.URL, t.TempDir()), "login", "Kim")
		if code != exitUsage || !strings.Contains(out, "사용법:") {
			t.Fatalf("expected usage, got code=%d out=%q", code, out)
		}
	})
}

type testApp struct {
	*app
	out *bytes.Buffer
}

func newTestApp(t *testing.T, baseURL, stateDir string) testApp {
	t.Helper()

	out := &bytes.Buffer{}
	cfg := config.ClientConfig{APIURL: baseURL, StateDir: stateDir, HTTPTimeout: 5 * time.Second}
	a, err := newApp(cfg, out, zerolog.New(io.Discard), logging.Discard())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	a.now = func() time.Time { return time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC) }
	return testApp{app: a, out: out}
}

func invoke(t *testing.T, a testApp, args ...string) (string, int) {
	t.Helper()

	code := exitOK
	if err := a.execute(context.Background(), args); err != nil {
		code = a.report(err)
	}
	return a.out.String(), code
}

const (
	kimID  int64 = 1
	parkID int64 = 2
)

// fakeBackend serves the subset of the API the commands above touch.
type fakeBackend struct {
	mu      sync.Mutex
	tokens  map[string]int64
	members map[int64]map[string]any
	rows    map[int64]map[int64]participation.Status
	order   map[int64][]int64
	logins  int
	listed  string
	mux     *http.ServeMux
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		tokens: make(map[string]int64),
		members: map[int64]map[string]any{
			kimID:  {"userId": kimID, "name": "Kim", "phone": "010-1234-5678", "isApproved": true, "isAdmin": true},
			parkID: {"userId": parkID, "name": "Park", "phone": "010-5555-6666", "isApproved": true, "isAdmin": false},
		},
		rows:  map[int64]map[int64]participation.Status{1: {}},
		order: map[int64][]int64{},
		mux:   http.NewServeMux(),
	}
	b.mux.HandleFunc("POST /api/auth/login", b.login)
	b.mux.HandleFunc("GET /api/auth/me", b.me)
	b.mux.HandleFunc("GET /api/schedules", b.list)
	b.mux.HandleFunc("GET /api/schedules/{id}", b.schedule)
	b.mux.HandleFunc("POST /api/schedules/{id}/participate", b.participate)
	b.mux.HandleFunc("DELETE /api/schedules/{id}/participate", b.withdraw)
	return b
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

func (b *fakeBackend) status(scheduleID, userID int64) participation.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rows[scheduleID][userID]
}

func (b *fakeBackend) loginAttempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logins
}

func (b *fakeBackend) lastListQuery() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listed
}

func (b *fakeBackend) revokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]int64)
}

func (b *fakeBackend) caller(r *http.Request) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
	return id, ok
}

func (b *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.logins++
	for id, member := range b.members {
		if member["name"] == body.Name {
			token := "token-" + strconv.FormatInt(id, 10)
			b.tokens[token] = id
			data := map[string]any{"token": token}
			for k, v := range member {
				data[k] = v
			}
			writeTestEnvelope(w, http.StatusOK, "로그인되었습니다.", data)
			return
		}
	}
	writeTestEnvelope(w, http.StatusBadRequest, "이름 또는 전화번호가 올바르지 않습니다.", nil)
}

func (b *fakeBackend) me(w http.ResponseWriter, r *http.Request) {
	id, ok := b.caller(r)
	if !ok {
		writeTestEnvelope(w, http.StatusUnauthorized, "인증이 만료되었습니다. 다시 로그인해주세요.", nil)
		return
	}
	b.mu.Lock()
	member := b.members[id]
	b.mu.Unlock()
	writeTestEnvelope(w, http.StatusOK, "ok", member)
}

func (b *fakeBackend) list(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.caller(r); !ok {
		writeTestEnvelope(w, http.StatusUnauthorized, "인증이 만료되었습니다. 다시 로그인해주세요.", nil)
		return
	}
	b.mu.Lock()
	b.listed = r.URL.RawQuery
	b.mu.Unlock()
	writeTestEnvelope(w, http.StatusOK, "ok", []map[string]any{})
}

func (b *fakeBackend) schedule(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.caller(r); !ok {
		writeTestEnvelope(w, http.StatusUnauthorized, "인증이 만료되었습니다. 다시 로그인해주세요.", nil)
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()
	participants := make([]map[string]any, 0)
	for _, userID := range b.order[id] {
		status, ok := b.rows[id][userID]
		if !ok {
			continue
		}
		participants = append(participants, map[string]any{
			"user_id":    userID,
			"user_name":  b.members[userID]["name"],
			"user_phone": b.members[userID]["phone"],
			"status":     status,
		})
	}
	writeTestEnvelope(w, http.StatusOK, "ok", map[string]any{
		"id": id, "title": "Doubles", "date": "2024-05-10", "start_time": "19:00", "end_time": "21:00",
		"created_by": kimID, "participants": participants,
	})
}

func (b *fakeBackend) participate(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.caller(r)
	if !ok {
		writeTestEnvelope(w, http.StatusUnauthorized, "인증이 만료되었습니다. 다시 로그인해주세요.", nil)
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	var body struct {
		Status participation.Status `json:"status"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.rows[id][userID]; !exists {
		b.order[id] = append(b.order[id], userID)
	}
	b.rows[id][userID] = body.Status
	writeTestEnvelope(w, http.StatusOK, "참여 상태가 변경되었습니다.", nil)
}

func (b *fakeBackend) withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.caller(r)
	if !ok {
		writeTestEnvelope(w, http.StatusUnauthorized, "인증이 만료되었습니다. 다시 로그인해주세요.", nil)
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rows[id], userID)
	order := b.order[id][:0]
	for _, existing := range b.order[id] {
		if existing != userID {
			order = append(order, existing)
		}
	}
	b.order[id] = order
	writeTestEnvelope(w, http.StatusOK, "참여가 취소되었습니다.", nil)
}

func writeTestEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": status < 400,
		"message": message,
		"data":    data,
	})
}
