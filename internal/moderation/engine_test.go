package moderation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/scamwatch/internal/db"
	"github.com/sujalbistaa/scamwatch/internal/models"
	"github.com/sujalbistaa/scamwatch/internal/store"
)

type fixture struct {
	engine   *Engine
	comments *Comments
	metrics  *Metrics
	warnings *store.WarningStore
	author   Caller
	other    Caller
	admin    Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	database, err := db.Init(ctx, "sqlite://:memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, db.Migrate(database))
	require.NoError(t, db.Bootstrap(ctx, database, db.BootstrapOptions{}))

	users := store.NewUserStore(database)
	mk := func(name string, admin bool) Caller {
		u := models.User{Username: name, Email: name + "@example.com", PasswordHash: "x", IsAdmin: admin}
		require.NoError(t, users.Create(ctx, &u))
		return Caller{UserID: u.ID, IsAdmin: admin}
	}

	warnings := store.NewWarningStore(database)
	metrics := NewMetrics(prometheus.NewRegistry())

	f := &fixture{
		engine:   NewEngine(users, store.NewCategoryStore(database), warnings, metrics),
		comments: NewComments(warnings, store.NewCommentStore(database)),
		metrics:  metrics,
		warnings: warnings,
		author:   mk("u1", false),
		other:    mk("u2", false),
		admin:    mk("root", true),
	}

	// strictly increasing timestamps keep ordering assertions deterministic
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	f.engine.now = tick
	f.comments.now = tick
	return f
}

func input(title string, category uint) WarningInput {
	return WarningInput{
		Title:        title,
		Description:  "A detailed description of how the scam works.",
		WarningSigns: "Urgency, unknown sender",
		CategoryID:   category,
	}
}

func (f *fixture) create(t *testing.T, title string) models.WarningView {
	t.Helper()
	w, err := f.engine.Create(context.Background(), f.author, input(title, 1))
	require.NoError(t, err)
	return w
}

func (f *fixture) status(t *testing.T, id uint) models.Status {
	t.Helper()
	w, err := f.warnings.Get(context.Background(), id)
	require.NoError(t, err)
	return w.Status
}

func ids(views []models.WarningView) []uint {
	out := make([]uint, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestCreateStartsPendingAndIsJoined(t *testing.T) {
	f := newFixture(t)

	w := f.create(t, "Fake Bank Email")

	assert.NotZero(t, w.ID)
	assert.Equal(t, models.StatusPending, w.Status)
	assert.Equal(t, "u1", w.AuthorUsername)
	assert.Equal(t, "Phishing", w.CategoryName)
	assert.Equal(t, "🎣", w.CategoryEmoji)
	assert.False(t, w.CreatedAt.IsZero())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.statusChanges.WithLabelValues(string(models.StatusPending))))
}

func TestCreateWithUnknownCategoryPersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Create(ctx, f.author, input("Fake Bank Email", 99))
	require.ErrorIs(t, err, models.ErrInvalidCategory)

	all, err := f.engine.ListAll(ctx, f.admin)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateRequiresIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Create(context.Background(), Caller{}, input("Fake Bank Email", 1))
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("x", TitleMax+1)

	tests := []struct {
		name   string
		mutate func(*WarningInput)
	}{
		{name: "long title", mutate: func(in *WarningInput) { in.Title = long }},
		{name: "blank title", mutate: func(in *WarningInput) { in.Title = "        " }},
		{name: "empty description", mutate: func(in *WarningInput) { in.Description = "" }},
		{name: "long description", mutate: func(in *WarningInput) { in.Description = strings.Repeat("d", DescriptionMax+1) }},
		{name: "empty warning signs", mutate: func(in *WarningInput) { in.WarningSigns = " " }},
		{name: "relative image url", mutate: func(in *WarningInput) { in.ImageURL = "/img.png" }},
		{name: "non-http image url", mutate: func(in *WarningInput) { in.ImageURL = "javascript:alert(1)" }},
		{name: "zero category", mutate: func(in *WarningInput) { in.CategoryID = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input("Fake Bank Email", 1)
			tt.mutate(&in)
			_, err := f.engine.Create(context.Background(), f.author, in)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestApproveScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w1 := f.create(t, "Fake Bank Email")

	_, err := f.engine.Approve(ctx, f.other, w1.ID)
	require.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Equal(t, models.StatusPending, f.status(t, w1.ID))

	approved, err := f.engine.Approve(ctx, f.admin, w1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, "Phishing", approved.CategoryName)

	list, err := f.engine.ListApproved(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{w1.ID}, ids(list))

	_, err = f.engine.Reject(ctx, f.other, w1.ID)
	require.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Equal(t, models.StatusApproved, f.status(t, w1.ID))
}

func TestTransitionsOverrideEachOther(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.create(t, "Fake Bank Email")

	_, err := f.engine.Approve(ctx, f.admin, w.ID)
	require.NoError(t, err)
	_, err = f.engine.Reject(ctx, f.admin, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, f.status(t, w.ID))

	// rejected warnings can be approved again
	_, err = f.engine.Approve(ctx, f.admin, w.ID)
	require.NoError(t, err)
	_, err = f.engine.Approve(ctx, f.admin, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, f.status(t, w.ID))

	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.statusChanges.WithLabelValues(string(models.StatusApproved))))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.statusChanges.WithLabelValues(string(models.StatusRejected))))
}

func TestTransitionOnMissingWarning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Approve(ctx, f.admin, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.engine.Reject(ctx, f.admin, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAnonymousTransitionIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	w := f.create(t, "Fake Bank Email")

	_, err := f.engine.Approve(context.Background(), Caller{}, w.ID)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestUpdateOverwritesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.create(t, "Fake Bank Email")

	in := UpdateInput{
		WarningInput: WarningInput{
			Title:        "IRS Phone Call Scam",
			Description:  "Caller threatens arrest unless paid in gift cards.",
			WarningSigns: "Threats, gift cards",
			ImageURL:     "https://example.org/irs.png",
			CategoryID:   2,
		},
		Status: models.StatusRejected,
	}
	got, err := f.engine.Update(ctx, f.admin, w.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "IRS Phone Call Scam", got.Title)
	assert.Equal(t, "https://example.org/irs.png", got.ImageURL)
	assert.Equal(t, uint(2), got.CategoryID)
	assert.Equal(t, "Phone Scam", got.CategoryName)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Equal(t, w.CreatedAt.Unix(), got.CreatedAt.Unix())
	assert.Equal(t, models.StatusRejected, f.status(t, w.ID))
}

func TestCreateAcceptsShortReports(t *testing.T) {
	f := newFixture(t)

	w, err := f.engine.Create(context.Background(), f.author, WarningInput{
		Title:        "Scam",
		Description:  "Fake SMS link",
		WarningSigns: "link",
		CategoryID:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Scam", w.Title)
	assert.Equal(t, models.StatusPending, w.Status)
}

func TestCreateTrimsStoredFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.engine.Create(ctx, f.author, WarningInput{
		Title:        "  Fake Bank Email \n",
		Description:  "\tA message asking you to confirm your card.  ",
		WarningSigns: " urgency ",
		ImageURL:     "  https://example.com/a.png  ",
		CategoryID:   1,
	})
	require.NoError(t, err)

	stored, err := f.warnings.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fake Bank Email", stored.Title)
	assert.Equal(t, "A message asking you to confirm your card.", stored.Description)
	assert.Equal(t, "urgency", stored.WarningSigns)
	assert.Equal(t, "https://example.com/a.png", stored.ImageURL)
}

func TestUpdateFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.create(t, "Fake Bank Email")

	valid := UpdateInput{WarningInput: input("Fake Bank Email", 1), Status: models.StatusApproved}

	_, err := f.engine.Update(ctx, f.author, w.ID, valid)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = f.engine.Update(ctx, f.admin, 9999, valid)
	assert.ErrorIs(t, err, models.ErrNotFound)

	badCategory := valid
	badCategory.CategoryID = 42
	_, err = f.engine.Update(ctx, f.admin, w.ID, badCategory)
	assert.ErrorIs(t, err, models.ErrInvalidCategory)

	shortTitle := valid
	shortTitle.Title = "Scam"
	_, err = f.engine.Update(ctx, f.admin, w.ID, shortTitle)
	assert.ErrorIs(t, err, models.ErrValidation)

	shortDescription := valid
	shortDescription.Description = "Fake SMS link"
	_, err = f.engine.Update(ctx, f.admin, w.ID, shortDescription)
	assert.ErrorIs(t, err, models.ErrValidation)

	badStatus := valid
	badStatus.Status = "Archived"
	_, err = f.engine.Update(ctx, f.admin, w.ID, badStatus)
	assert.ErrorIs(t, err, models.ErrValidation)

	assert.Equal(t, models.StatusPending, f.status(t, w.ID))
}

func TestDeleteCascadesComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.create(t, "Fake Bank Email")

	for i := 0; i < 3; i++ {
		_, err := f.comments.Add(ctx, f.author, w.ID, fmt.Sprintf("comment %d", i))
		require.NoError(t, err)
	}

	require.ErrorIs(t, f.engine.Delete(ctx, f.author, w.ID), models.ErrUnauthorized)
	require.NoError(t, f.engine.Delete(ctx, f.admin, w.ID))

	_, err := f.engine.Get(ctx, f.admin, w.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	comments, err := f.comments.List(ctx, f.admin, w.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	assert.ErrorIs(t, f.engine.Delete(ctx, f.admin, w.ID), models.ErrNotFound)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.create(t, "Pending report")
	approved := f.create(t, "Approved report")
	_, err := f.engine.Approve(ctx, f.admin, approved.ID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		caller  Caller
		id      uint
		visible bool
	}{
		{name: "anonymous sees approved", caller: Caller{}, id: approved.ID, visible: true},
		{name: "anonymous cannot see pending", caller: Caller{}, id: pending.ID, visible: false},
		{name: "other user cannot see pending", caller: f.other, id: pending.ID, visible: false},
		{name: "author sees own pending", caller: f.author, id: pending.ID, visible: true},
		{name: "admin sees pending", caller: f.admin, id: pending.ID, visible: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Get(ctx, tt.caller, tt.id)
			if tt.visible {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, models.ErrNotFound)
			}
		})
	}
}

func TestListsRespectStatusAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, "First report")
	b := f.create(t, "Second report")
	c := f.create(t, "Third report")
	d := f.create(t, "Fourth report")
	_, err := f.engine.Approve(ctx, f.admin, a.ID)
	require.NoError(t, err)
	_, err = f.engine.Approve(ctx, f.admin, c.ID)
	require.NoError(t, err)
	_, err = f.engine.Reject(ctx, f.admin, d.ID)
	require.NoError(t, err)

	approved, err := f.engine.ListApproved(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID, a.ID}, ids(approved))
	for _, w := range approved {
		assert.Equal(t, models.StatusApproved, w.Status)
	}

	pending, err := f.engine.ListPending(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, ids(pending))

	all, err := f.engine.ListAll(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, []uint{d.ID, c.ID, b.ID, a.ID}, ids(all))
}

func TestAdminListsAreGated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, caller := range []Caller{{}, f.author} {
		_, err := f.engine.ListPending(ctx, caller)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
		_, err = f.engine.ListAll(ctx, caller)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	}
}

func TestSearchOnlyCoversApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fake := f.create(t, "Fake Bank Email")
	f.create(t, "Bank Phishing")
	_, err := f.engine.Approve(ctx, f.admin, fake.ID)
	require.NoError(t, err)

	got, err := f.engine.Search(ctx, "bank", 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{fake.ID}, ids(got))
}

func TestSearchFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mk := func(title, desc string, category uint) uint {
		in := input(title, category)
		in.Description = desc
		w, err := f.engine.Create(ctx, f.author, in)
		require.NoError(t, err)
		_, err = f.engine.Approve(ctx, f.admin, w.ID)
		require.NoError(t, err)
		return w.ID
	}
	email := mk("Fake Bank Email", "Asks you to confirm your login details.", 1)
	call := mk("IRS Phone Call", "Caller claims to be from your BANK fraud team.", 2)
	romance := mk("Sweetheart scam", "Match asks for money to travel to you.", 4)
	rejected := f.create(t, "Bank refund trick")
	_, err := f.engine.Reject(ctx, f.admin, rejected.ID)
	require.NoError(t, err)

	tests := []struct {
		name     string
		term     string
		category uint
		want     []uint
	}{
		{name: "no filters equals approved list", want: []uint{romance, call, email}},
		{name: "blank term", term: "  ", want: []uint{romance, call, email}},
		{name: "title or description, case-insensitive", term: "BaNk", want: []uint{call, email}},
		{name: "category only", category: 4, want: []uint{romance}},
		{name: "term and category", term: "bank", category: 2, want: []uint{call}},
		{name: "no match", term: "lottery", want: []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.engine.Search(ctx, tt.term, tt.category)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	approved, err := f.engine.ListApproved(ctx)
	require.NoError(t, err)
	got, err := f.engine.Search(ctx, "scam", 0)
	require.NoError(t, err)
	assert.Subset(t, ids(approved), ids(got))

	ecole := mk("École de fraude", "Fake tuition refund from a cloned school site.", 5)
	for _, term := range []string{"école", "ÉCOLE"} {
		got, err := f.engine.Search(ctx, term, 0)
		require.NoError(t, err)
		assert.Equal(t, []uint{ecole}, ids(got), term)
	}
}

func TestIsAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.engine.IsAdmin(ctx, f.admin.UserID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.engine.IsAdmin(ctx, f.author.UserID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.engine.IsAdmin(ctx, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCategories(t *testing.T) {
	f := newFixture(t)

	got, err := f.engine.Categories(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, len(db.DefaultCategories))
}
