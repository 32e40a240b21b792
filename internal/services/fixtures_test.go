package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/school-service/internal/auth"
	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/cache"
	"github.com/SAP-F-2025/school-service/internal/config"
	"github.com/SAP-F-2025/school-service/internal/events"
	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/validator"
)

var today = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

const testPassword = "s3cret-pass"

var testAuthConfig = config.AuthConfig{
	JWTSecret:       "test-secret",
	AccessTokenTTL:  5 * time.Minute,
	RefreshTokenTTL: time.Hour,
	ActivationTTL:   72 * time.Hour,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	store     *memStore
	repo      *memRepo
	publisher *events.MockEventPublisher
	sm        ServiceManager

	admin, teacher, otherTeacher, lateTeacher *models.User
	student, otherStudent                     *models.User
	open, inactive, started                   *models.Course
}

func newTestEnv(t *testing.T, policy authz.Policy) *testEnv {
	t.Helper()

	logger := discardLogger()
	store := newMemStore()
	env := &testEnv{
		store:     store,
		repo:      &memRepo{s: store},
		publisher: events.NewMockEventPublisher(logger),
	}

	env.sm = NewServiceManager(Dependencies{
		Repo:       env.repo,
		Logger:     logger,
		Validator:  validator.New(),
		Publisher:  env.publisher,
		Tokens:     auth.NewManager(testAuthConfig),
		Activation: auth.NewActivationTokens(testAuthConfig, cache.NewCacheManager(nil).Token),
		Clock:      FixedClock(today),
	}, ServiceManagerConfig{Policy: policy, BaseURL: "http://school.test/api/"})
	require.NoError(t, env.sm.Initialize(context.Background()))

	env.admin = env.addUser(t, "admin", models.RoleAdmin)
	env.teacher = env.addUser(t, "tina", models.RoleTeacher)
	env.otherTeacher = env.addUser(t, "oscar", models.RoleTeacher)
	env.lateTeacher = env.addUser(t, "lars", models.RoleTeacher)
	env.student = env.addUser(t, "sam", models.RoleStudent)
	env.otherStudent = env.addUser(t, "sue", models.RoleStudent)

	env.open = env.addCourse(t, "Algebra", env.teacher, today.AddDate(0, 0, 10), true)
	env.inactive = env.addCourse(t, "Biology", env.otherTeacher, today.AddDate(0, 0, 10), false)
	env.started = env.addCourse(t, "Chemistry", env.lateTeacher, today, true)
	return env
}

func (e *testEnv) addUser(t *testing.T, username string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		Email:        username + "@school.test",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, e.repo.User().Create(context.Background(), u))
	return u
}

func (e *testEnv) addCourse(t *testing.T, name string, teacher *models.User, start time.Time, active bool) *models.Course {
	t.Helper()
	c := &models.Course{
		Name:      name,
		StartDate: datatypes.Date(models.DayOf(start)),
		EndDate:   datatypes.Date(models.DayOf(start.AddDate(0, 3, 0))),
		Active:    active,
		TeacherID: teacher.ID,
	}
	require.NoError(t, e.repo.Course().Create(context.Background(), c))
	return c
}

func (e *testEnv) enroll(t *testing.T, student *models.User, course *models.Course) *models.Enrollment {
	t.Helper()
	en := &models.Enrollment{UserID: student.ID, CourseID: course.ID, EnrolledAt: today.AddDate(0, 0, -1)}
	require.NoError(t, e.repo.Enrollment().Create(context.Background(), en))
	return en
}

func actorOf(t *testing.T, u *models.User) authz.Actor {
	t.Helper()
	a, err := authz.ActorFromUser(u)
	require.NoError(t, err)
	return a
}

// activationLinkParts splits ".../activate/{uid}/{token}/" into uid and token
func activationLinkParts(t *testing.T, link string) (string, string) {
	t.Helper()
	parts := strings.Split(strings.TrimSuffix(link, "/"), "/")
	require.GreaterOrEqual(t, len(parts), 3)
	require.Equal(t, "activate", parts[len(parts)-3])
	return parts[len(parts)-2], parts[len(parts)-1]
}
