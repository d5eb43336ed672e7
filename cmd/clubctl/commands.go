package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/club-scheduler/internal/client"
	"github.com/example/club-scheduler/internal/participation"
)

var (
	errNotSignedIn = errors.New("clubctl: not signed in")
	errAdminOnly   = errors.New("clubctl: administrator only")
)

type usageError struct {
	usage string
}

func (e *usageError) Error() string {
	return "usage: " + e.usage
}

const accessKey = "access"

// Access levels stored in a command's annotations. Commands without one
// run without touching the session.
const (
	accessPublic = "public"
	accessMember = "member"
	accessAdmin  = "admin"
)

type globalOptions struct {
	verbose  bool
	apiURL   string
	stateDir string
}

type handler func(a *app, cmd *cobra.Command, args []string) error

// commandTree builds the cobra tree and holds the app once a command that
// needs it starts.
type commandTree struct {
	app *app
}

func (t *commandTree) leaf(use, short, level string, run handler) *cobra.Command {
	return &cobra.Command{
		Use:         use,
		Short:       short,
		Annotations: map[string]string{accessKey: level},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(t.app, cmd, args)
		},
	}
}

// newRootCommand wires every clubctl command. connect is called once the
// selected command is known and must return the app it runs against.
func newRootCommand(stdout, stderr io.Writer, connect func(globalOptions) (*app, error)) *cobra.Command {
	var opts globalOptions
	tree := &commandTree{}

	root := &cobra.Command{
		Use:           "clubctl",
		Short:         "동호회 일정 관리",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, ok := cmd.Annotations[accessKey]
			if !ok {
				return nil
			}
			a, err := connect(opts)
			if err != nil {
				return err
			}
			tree.app = a
			return a.authorize(cmd.Context(), level, cmd.CommandPath())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
			return &usageError{usage: "clubctl <command> [args] (clubctl help)"}
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, _ error) error {
		return &usageError{usage: cmd.UseLine()}
	})
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVar(&opts.apiURL, "api", "", "API base URL (overrides CLUB_API_URL)")
	root.PersistentFlags().StringVar(&opts.stateDir, "state", "", "directory holding the session (overrides CLUB_STATE_DIR)")

	month := tree.leaf("month", "월간 일정", accessMember, (*app).month)
	month.Flags().Int("year", 0, "year (defaults to the current year)")
	month.Flags().Int("month", 0, "month 1-12 (defaults to the current month)")

	create := tree.leaf("create", "일정 생성", accessMember, (*app).create)
	addScheduleFlags(create)

	edit := tree.leaf("edit <일정ID>", "일정 수정", accessMember, (*app).edit)
	addScheduleFlags(edit)

	root.AddCommand(
		tree.leaf("register <이름> <전화번호>", "회원가입", accessPublic, (*app).register),
		tree.leaf("login <이름> <전화번호>", "로그인", accessPublic, (*app).login),
		tree.leaf("logout", "로그아웃", accessPublic, (*app).logout),
		tree.leaf("me", "내 정보", accessMember, (*app).me),
		month,
		tree.leaf("show <일정ID>", "일정 상세", accessMember, (*app).show),
		create,
		edit,
		tree.leaf("delete <일정ID>", "일정 삭제", accessMember, (*app).deleteSchedule),
		tree.leaf("toggle <일정ID> <참여|불참|미정>", "참여 상태 변경", accessMember, (*app).toggle),
		tree.leaf("my", "내 참여 일정", accessMember, (*app).mine),
		tree.adminCommand(),
	)
	return root
}

func (t *commandTree) adminCommand() *cobra.Command {
	admin := &cobra.Command{Use: "admin", Short: "관리자 기능"}

	update := t.leaf("update <회원ID>", "회원 정보 수정", accessAdmin, (*app).adminUpdate)
	update.Flags().String("name", "", "name")
	update.Flags().String("phone", "", "phone number")
	update.Flags().Bool("admin", false, "administrator")
	update.Flags().Bool("approved", false, "approved")

	admin.AddCommand(
		t.leaf("users", "회원 목록", accessAdmin, (*app).adminUsers),
		t.leaf("pending", "승인 대기 회원", accessAdmin, (*app).adminPending),
		t.leaf("approve <회원ID>", "회원 승인", accessAdmin, (*app).adminApprove),
		t.leaf("revoke <회원ID>", "승인 취소", accessAdmin, (*app).adminRevoke),
		update,
		t.leaf("delete <회원ID>", "회원 삭제", accessAdmin, (*app).adminDelete),
		t.leaf("set <일정ID> <회원ID> <참여|불참|미정>", "회원 참여 상태 변경", accessAdmin, (*app).adminSet),
		t.leaf("remove <일정ID> <회원ID>", "회원 참여 삭제", accessAdmin, (*app).adminRemove),
		t.leaf("add-participant <일정ID> <회원ID>", "참여자 추가(미정)", accessAdmin, (*app).adminAddParticipant),
	)
	return admin
}

// execute runs one command line against a.
func (a *app) execute(ctx context.Context, args []string) error {
	root := newRootCommand(a.out, a.out, func(globalOptions) (*app, error) { return a, nil })
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// authorize restores the persisted session and checks it against level.
func (a *app) authorize(ctx context.Context, level, path string) error {
	if err := a.sessions.Initialize(ctx); err != nil {
		a.log.Debug().Err(err).Msg("stored session could not be restored")
	}
	// Each invocation is short lived, so act on the refreshed profile
	// rather than the cached one.
	a.sessions.Wait()

	if level != accessPublic && !a.sessions.IsAuthenticated() {
		return errNotSignedIn
	}
	if level == accessAdmin {
		if user := a.sessions.Current(); user == nil || !user.IsAdmin {
			return errAdminOnly
		}
	}

	a.log.Debug().Str("command", path).Msg("running command")
	return nil
}

func (a *app) self() client.User {
	if user := a.sessions.Current(); user != nil {
		return *user
	}
	return client.User{}
}

func (a *app) register(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if len(args) != 2 {
		return &usageError{usage: "clubctl register <이름> <전화번호>"}
	}
	result, err := a.sessions.Register(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if result.Pending {
		fmt.Fprintln(a.out, "회원가입이 완료되었습니다. 관리자 승인 후 로그인할 수 있습니다.")
		return nil
	}
	fmt.Fprintf(a.out, "회원가입이 완료되었습니다. %s님 환영합니다.\n", result.User.Name)
	return nil
}

func (a *app) login(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if len(args) != 2 {
		return &usageError{usage: "clubctl login <이름> <전화번호>"}
	}
	user, err := a.sessions.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s님, 로그인되었습니다.\n", user.Name)
	return nil
}

func (a *app) logout(_ *cobra.Command, _ []string) error {
	a.sessions.Logout()
	fmt.Fprintln(a.out, "로그아웃되었습니다.")
	return nil
}

func (a *app) me(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	user, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	renderProfile(a.out, user)
	return nil
}

func (a *app) month(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	// The server's CLUB_TIMEZONE decides which month is current.
	now := a.now().In(a.calendar)
	year, month := now.Year(), int(now.Month())
	if cmd.Flags().Changed("year") {
		year, _ = cmd.Flags().GetInt("year")
	}
	if cmd.Flags().Changed("month") {
		month, _ = cmd.Flags().GetInt("month")
	}
	if len(args) != 0 || month < 1 || month > 12 {
		return &usageError{usage: "clubctl month [--year N] [--month 1-12]"}
	}

	schedules, err := a.api.ListSchedules(ctx, year, month)
	if err != nil {
		return err
	}
	renderMonth(a.out, year, month, schedules)
	return nil
}

func (a *app) show(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ids, err := parseIDs(args, "clubctl show <일정ID>", 1)
	if err != nil {
		return err
	}
	detail, err := a.api.GetSchedule(ctx, ids[0])
	if err != nil {
		return err
	}
	renderDetail(a.out, detail, a.self().ID)
	return nil
}

var scheduleFields = []struct {
	name  string
	usage string
	field func(*client.ScheduleInput) *string
}{
	{"title", "title", func(in *client.ScheduleInput) *string { return &in.Title }},
	{"date", "date (YYYY-MM-DD)", func(in *client.ScheduleInput) *string { return &in.Date }},
	{"start", "start time (HH:MM)", func(in *client.ScheduleInput) *string { return &in.StartTime }},
	{"end", "end time (HH:MM)", func(in *client.ScheduleInput) *string { return &in.EndTime }},
	{"location", "location", func(in *client.ScheduleInput) *string { return &in.Location }},
	{"detail", "location detail", func(in *client.ScheduleInput) *string { return &in.LocationDetail }},
	{"description", "description (markdown)", func(in *client.ScheduleInput) *string { return &in.Description }},
}

func addScheduleFlags(cmd *cobra.Command) {
	for _, f := range scheduleFields {
		cmd.Flags().String(f.name, "", f.usage)
	}
}

// applyScheduleFlags overwrites the fields whose flag was given.
func applyScheduleFlags(cmd *cobra.Command, input *client.ScheduleInput) {
	for _, f := range scheduleFields {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		value, _ := cmd.Flags().GetString(f.name)
		*f.field(input) = value
	}
}

func (a *app) create(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if len(args) != 0 {
		return &usageError{usage: "clubctl create --title T --date YYYY-MM-DD --start HH:MM --end HH:MM [--location L] [--detail D] [--description MD]"}
	}
	var input client.ScheduleInput
	applyScheduleFlags(cmd, &input)

	schedule, err := a.api.CreateSchedule(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "일정이 생성되었습니다. (#%d)\n", schedule.ID)
	return nil
}

func (a *app) edit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ids, err := parseIDs(args, "clubctl edit <일정ID> [--title T] [--date YYYY-MM-DD] [--start HH:MM] [--end HH:MM] [--location L] [--detail D] [--description MD]", 1)
	if err != nil {
		return err
	}

	current, err := a.api.GetSchedule(ctx, ids[0])
	if err != nil {
		return err
	}
	input := client.ScheduleInput{
		Title:          current.Title,
		Description:    current.Description,
		Date:           current.Date,
		StartTime:      clock(current.StartTime),
		EndTime:        clock(current.EndTime),
		Location:       current.Location,
		LocationDetail: current.LocationDetail,
	}
	applyScheduleFlags(cmd, &input)

	if _, err := a.api.UpdateSchedule(ctx, ids[0], input); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "일정이 수정되었습니다.")
	return nil
}

func (a *app) deleteSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ids, err := parseIDs(args, "clubctl delete <일정ID>", 1)
	if err != nil {
		return err
	}
	if err := a.api.DeleteSchedule(ctx, ids[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "일정이 삭제되었습니다.")
	return nil
}

func (a *app) toggle(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	const usage = "clubctl toggle <일정ID> <참여|불참|미정>"
	if len(args) != 2 {
		return &usageError{usage: usage}
	}
	ids, err := parseIDs(args[:1], usage, 1)
	if err != nil {
		return err
	}
	status, err := participation.ParseStatus(args[1])
	if err != nil {
		return &usageError{usage: usage}
	}

	self := a.self()
	detail, action, err := a.api.ToggleParticipation(ctx, ids[0], self.ID, status)
	if err != nil {
		return err
	}
	printToggleOutcome(a.out, action, status)
	renderDetail(a.out, detail, self.ID)
	return nil
}

func (a *app) mine(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	items, err := a.api.MyParticipations(ctx)
	if err != nil {
		return err
	}
	renderMine(a.out, items)
	return nil
}

func (a *app) adminUsers(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return err
	}
	renderUsers(a.out, users)
	return nil
}

func (a *app) adminPending(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	users, err := a.api.ListPendingUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "승인 대기 중인 회원이 없습니다.")
		return nil
	}
	renderUsers(a.out, users)
	return nil
}

func (a *app) adminApprove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ids, err := parseIDs(args, "clubctl admin approve <회원ID>", 1)
	if err != nil {
		return err
	}
	if err := a.api.ApproveUser(ctx, ids[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "회원이 승인되었습니다.")
	return nil
}

func (a *app) adminRevoke(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ids, err := parseIDs(args, "clubctl admin revoke <회원ID>", 1)
	if err != nil {
		return err
	}
	if err := a.api.RevokeUser(ctx, ids[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "회원 승인이 취소되었습니다.")
	return nil
}

func (a *app) adminUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	const usage = "clubctl admin update <회원ID> [--name N] [--phone P] [--admin=true|false] [--approved=true|false]"
	ids, err := parseIDs(args, usage, 1)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var update client.UserUpdate
	if flags.Changed("name") {
		name, _ := flags.GetString("name")
		update.Name = &name
	}
	if flags.Changed("phone") {
		phone, _ := flags.GetString("phone")
		update.Phone = &phone
	}
	if flags.Changed("admin") {
		isAdmin, _ := flags.GetBool("admin")
		update.IsAdmin = &isAdmin
	}
	if flags.Changed("approved") {
		isApproved, _ := flags.GetBool("approved")
		update.IsApproved = &isApproved
	}
	if update == (client.UserUpdate{}) {
		return &usageError{usage: usage}
	}

	user, err := a.api.UpdateUser(ctx, ids[0], update)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "회원 정보가 수정되었습니다.")
	renderUsers(a.out, []client.User{user})
	return nil
}

func (a *app) adminDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ids, err := parseIDs(args, "clubctl admin delete <회원ID>", 1)
	if err != nil {
		return err
	}
	if err := a.api.DeleteUser(ctx, ids[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "회원이 삭제되었습니다.")
	return nil
}

func (a *app) adminSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	const usage = "clubctl admin set <일정ID> <회원ID> <참여|불참|미정>"
	if len(args) != 3 {
		return &usageError{usage: usage}
	}
	ids, err := parseIDs(args[:2], usage, 2)
	if err != nil {
		return err
	}
	status, err := participation.ParseStatus(args[2])
	if err != nil {
		return &usageError{usage: usage}
	}

	detail, action, err := a.api.ToggleUserParticipation(ctx, ids[0], ids[1], status)
	if err != nil {
		return err
	}
	printToggleOutcome(a.out, action, status)
	renderDetail(a.out, detail, a.self().ID)
	return nil
}

func (a *app) adminRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ids, err := parseIDs(args, "clubctl admin remove <일정ID> <회원ID>", 2)
	if err != nil {
		return err
	}
	if err := a.api.RemoveParticipant(ctx, ids[0], ids[1]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "참여 정보가 삭제되었습니다.")
	return nil
}

func (a *app) adminAddParticipant(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ids, err := parseIDs(args, "clubctl admin add-participant <일정ID> <회원ID>", 2)
	if err != nil {
		return err
	}
	detail, added, err := a.api.AddParticipant(ctx, ids[0], ids[1])
	if err != nil {
		return err
	}
	if !added {
		fmt.Fprintln(a.out, "이미 참여 정보가 있는 회원입니다.")
	} else {
		fmt.Fprintln(a.out, "참여자가 추가되었습니다.")
	}
	renderDetail(a.out, detail, a.self().ID)
	return nil
}

func printToggleOutcome(w io.Writer, action participation.Action, status participation.Status) {
	if action == participation.ActionRemove {
		fmt.Fprintln(w, "참여 상태가 취소되었습니다.")
		return
	}
	fmt.Fprintf(w, "참여 상태가 '%s'(으)로 변경되었습니다.\n", status.Label())
}

// parseIDs converts exactly n positive integer arguments.
func parseIDs(args []string, usage string, n int) ([]int64, error) {
	if len(args) != n {
		return nil, &usageError{usage: usage}
	}
	ids := make([]int64, 0, n)
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(arg), "#"), 10, 64)
		if err != nil || id <= 0 {
			return nil, &usageError{usage: usage}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
