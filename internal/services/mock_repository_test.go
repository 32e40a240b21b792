package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/repositories"
)

// memStore is an in-memory stand-in for the gorm repositories
type memStore struct {
	mu          sync.Mutex
	nextID      uint
	users       map[uint]*models.User
	courses     map[uint]*models.Course
	enrollments map[uint]*models.Enrollment
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[uint]*models.User{},
		courses:     map[uint]*models.Course{},
		enrollments: map[uint]*models.Enrollment{},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

type memRepo struct{ s *memStore }

func (r *memRepo) User() repositories.UserRepository             { return &memUserRepo{r.s} }
func (r *memRepo) Course() repositories.CourseRepository         { return &memCourseRepo{r.s} }
func (r *memRepo) Enrollment() repositories.EnrollmentRepository { return &memEnrollmentRepo{r.s} }
func (r *memRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}
func (r *memRepo) Ping(ctx context.Context) error { return nil }
func (r *memRepo) Close() error                   { return nil }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ===== USERS =====

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return repositories.ErrDuplicate
		}
	}
	user.ID = r.s.id()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *memUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.User
	for _, u := range r.s.users {
		if !r.inScope(u, filters.Scope) {
			continue
		}
		if filters.Query != "" && !containsFold(u.Username, filters.Query) && !containsFold(u.Email, filters.Query) {
			continue
		}
		if filters.Role != "" && string(u.Role) != filters.Role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (r *memUserRepo) inScope(u *models.User, scope authz.Scope) bool {
	switch scope.Kind {
	case authz.ScopeAll:
		return true
	case authz.ScopeSelf:
		return u.ID == scope.UserID
	case authz.ScopeStudentsOf:
		for _, e := range r.s.enrollments {
			if c, ok := r.s.courses[e.CourseID]; ok && e.UserID == u.ID && c.TeacherID == scope.UserID {
				return true
			}
		}
	}
	return false
}

func (r *memUserRepo) SetActive(ctx context.Context, id uint, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (r *memUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

// ===== COURSES =====

type memCourseRepo struct{ s *memStore }

func (r *memCourseRepo) Create(ctx context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.courses {
		if c.TeacherID == course.TeacherID {
			return repositories.ErrDuplicate
		}
	}
	course.ID = r.s.id()
	cp := *course
	cp.Teacher = nil
	r.s.courses[course.ID] = &cp
	return nil
}

func (r *memCourseRepo) Update(ctx context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[course.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *course
	cp.Teacher = nil
	r.s.courses[course.ID] = &cp
	return nil
}

func (r *memCourseRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.courses, id)
	for eid, e := range r.s.enrollments {
		if e.CourseID == id {
			delete(r.s.enrollments, eid)
		}
	}
	return nil
}

func (r *memCourseRepo) withTeacher(c *models.Course) *models.Course {
	cp := *c
	if t, ok := r.s.users[c.TeacherID]; ok {
		tc := *t
		cp.Teacher = &tc
	}
	return &cp
}

func (r *memCourseRepo) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return r.withTeacher(c), nil
}

func (r *memCourseRepo) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.Course
	for _, c := range r.s.courses {
		full := r.withTeacher(c)
		if filters.Name != "" && !containsFold(c.Name, filters.Name) {
			continue
		}
		if filters.TeacherName != "" && (full.Teacher == nil || !containsFold(full.Teacher.Username, filters.TeacherName)) {
			continue
		}
		if !r.inScope(c, filters.Scope) {
			continue
		}
		out = append(out, full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (r *memCourseRepo) inScope(c *models.Course, scope authz.Scope) bool {
	switch scope.Kind {
	case authz.ScopeAll:
		return true
	case authz.ScopeOwnedBy:
		return c.TeacherID == scope.UserID
	case authz.ScopeEnrolledBy:
		for _, e := range r.s.enrollments {
			if e.CourseID == c.ID && e.UserID == scope.UserID {
				return true
			}
		}
	}
	return false
}

func (r *memCourseRepo) ExistsByTeacher(ctx context.Context, teacherID uint, excludeID *uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.courses {
		if c.TeacherID == teacherID && (excludeID == nil || c.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

// ===== ENROLLMENTS =====

type memEnrollmentRepo struct{ s *memStore }

func (r *memEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.enrollments {
		if e.UserID == enrollment.UserID && e.CourseID == enrollment.CourseID {
			return repositories.ErrDuplicate
		}
	}
	enrollment.ID = r.s.id()
	cp := *enrollment
	r.s.enrollments[enrollment.ID] = &cp
	return nil
}

func (r *memEnrollmentRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.enrollments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.enrollments, id)
	return nil
}

func (r *memEnrollmentRepo) GetByID(ctx context.Context, id uint) (*models.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.enrollments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *e
	if c, ok := r.s.courses[e.CourseID]; ok {
		cc := *c
		cp.Course = &cc
	}
	return &cp, nil
}

func (r *memEnrollmentRepo) List(ctx context.Context, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.Enrollment
	for _, e := range r.s.enrollments {
		if filters.CourseID != nil && e.CourseID != *filters.CourseID {
			continue
		}
		if filters.UserID != nil && e.UserID != *filters.UserID {
			continue
		}
		switch filters.Scope.Kind {
		case authz.ScopeAll:
		case authz.ScopeSelf:
			if e.UserID != filters.Scope.UserID {
				continue
			}
		case authz.ScopeOwnedBy:
			c, ok := r.s.courses[e.CourseID]
			if !ok || c.TeacherID != filters.Scope.UserID {
				continue
			}
		default:
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (r *memEnrollmentRepo) Exists(ctx context.Context, userID, courseID uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memEnrollmentRepo) Roster(ctx context.Context, courseID uint) ([]repositories.RosterEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []repositories.RosterEntry
	for _, e := range r.s.enrollments {
		if e.CourseID != courseID {
			continue
		}
		u := r.s.users[e.UserID]
		out = append(out, repositories.RosterEntry{
			EnrollmentID: e.ID,
			UserID:       u.ID,
			Username:     u.Username,
			Email:        u.Email,
			EnrolledAt:   e.EnrolledAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func listAll() repositories.EnrollmentFilters {
	return repositories.EnrollmentFilters{Scope: authz.Scope{Kind: authz.ScopeAll}}
}
