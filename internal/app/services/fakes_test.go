package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tustunkok/pc-link/internal/app/auth"
	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/report"
	"github.com/tustunkok/pc-link/internal/app/repositories"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

// In-memory stand-ins for the repositories. They model only what the
// services rely on.

type fakeUsers struct {
	byID      map[int64]*models.User
	lastLogin map[int64]bool
	nextID    int64
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[int64]*models.User{}, lastLogin: map[int64]bool{}, nextID: 100}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) (int64, error) {
	for _, u := range f.byID {
		if u.Username == user.Username {
			return 0, apperrors.ErrUsernameExists
		}
	}
	f.nextID++
	cp := *user
	cp.ID = f.nextID
	f.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, id int64) error {
	f.lastLogin[id] = true
	return nil
}

func (f *fakeUsers) SetPassword(_ context.Context, id int64, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

type fakeStudents struct {
	byNo     map[string]models.Student
	upserted []models.Student
}

func newFakeStudents(students ...models.Student) *fakeStudents {
	f := &fakeStudents{byNo: map[string]models.Student{}}
	for _, s := range students {
		f.byNo[s.No] = s
	}
	return f
}

func (f *fakeStudents) IDsByNo(_ context.Context, nos []string) (map[string]int64, error) {
	ids := map[string]int64{}
	for _, no := range nos {
		if s, ok := f.byNo[no]; ok {
			ids[no] = s.ID
		}
	}
	return ids, nil
}

func (f *fakeStudents) GetByNo(_ context.Context, no string) (*models.Student, error) {
	s, ok := f.byNo[no]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return &s, nil
}

func (f *fakeStudents) List(_ context.Context, activeOnly bool, offset, limit uint64) ([]models.Student, int64, error) {
	var all []models.Student
	for _, s := range f.byNo {
		if activeOnly && s.GraduatedOn != nil {
			continue
		}
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].No < all[j].No })
	total := int64(len(all))
	if offset >= uint64(len(all)) {
		return nil, total, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], total, nil
}

func (f *fakeStudents) UpsertMany(_ context.Context, students []models.Student) (int, int, error) {
	created, updated := 0, 0
	for _, s := range students {
		if old, ok := f.byNo[s.No]; ok {
			s.ID = old.ID
			updated++
		} else {
			s.ID = int64(len(f.byNo) + 1)
			created++
		}
		f.byNo[s.No] = s
		f.upserted = append(f.upserted, s)
	}
	return created, updated, nil
}

func (f *fakeStudents) AssignCurriculum(_ context.Context, curriculumID int64) (int64, error) {
	var n int64
	for no, s := range f.byNo {
		if s.CurriculumID == nil {
			id := curriculumID
			s.CurriculumID = &id
			f.byNo[no] = s
			n++
		}
	}
	return n, nil
}

type fakeCourses struct {
	byCode   map[string]*models.Course
	offered  map[int64][]int64
	imported *repositories.CatalogImport
}

func newFakeCourses(courses ...*models.Course) *fakeCourses {
	f := &fakeCourses{byCode: map[string]*models.Course{}, offered: map[int64][]int64{}}
	for _, c := range courses {
		f.byCode[c.Code] = c
	}
	return f
}

func (f *fakeCourses) GetByCode(_ context.Context, code string) (*models.Course, error) {
	c, ok := f.byCode[code]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return c, nil
}

func (f *fakeCourses) GetByID(_ context.Context, id int64) (*models.Course, error) {
	for _, c := range f.byCode {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.ErrCourseNotFound
}

func (f *fakeCourses) List(_ context.Context) ([]models.Course, error) {
	var out []models.Course
	for _, c := range f.byCode {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeCourses) OfferedIn(ctx context.Context, semesterID int64) ([]models.Course, error) {
	var out []models.Course
	for _, id := range f.offered[semesterID] {
		c, err := f.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCourses) ImportCatalog(_ context.Context, in repositories.CatalogImport) (repositories.CatalogSummary, error) {
	f.imported = &in
	links := 0
	for _, codes := range in.CourseOutcomes {
		links += len(codes)
	}
	return repositories.CatalogSummary{Outcomes: len(in.Outcomes), Courses: len(in.Courses), CourseOutcomes: links}, nil
}

func (f *fakeCourses) SetOffered(_ context.Context, semesterID int64, courseIDs []int64) error {
	f.offered[semesterID] = courseIDs
	return nil
}

type fakeOutcomes struct {
	byCode map[string]int64
}

func (f *fakeOutcomes) List(_ context.Context) ([]models.ProgramOutcome, error) {
	var out []models.ProgramOutcome
	for code, id := range f.byCode {
		out = append(out, models.ProgramOutcome{ID: id, Code: code})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeOutcomes) IDsByCode(_ context.Context, codes []string) (map[string]int64, error) {
	ids := map[string]int64{}
	for _, c := range codes {
		if id, ok := f.byCode[c]; ok {
			ids[c] = id
		}
	}
	return ids, nil
}

type fakeSemesters struct {
	byID   map[int64]*models.Semester
	nextID int64
}

func newFakeSemesters(semesters ...*models.Semester) *fakeSemesters {
	f := &fakeSemesters{byID: map[int64]*models.Semester{}, nextID: 100}
	for _, s := range semesters {
		f.byID[s.ID] = s
	}
	return f
}

func (f *fakeSemesters) Create(_ context.Context, s *models.Semester) (int64, error) {
	for _, old := range f.byID {
		if old.Label() == s.Label() {
			return 0, apperrors.NewConflictError("semester exists")
		}
	}
	f.nextID++
	cp := *s
	cp.ID = f.nextID
	f.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeSemesters) GetByID(_ context.Context, id int64) (*models.Semester, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrSemesterNotFound
	}
	return s, nil
}

func (f *fakeSemesters) GetByLabel(_ context.Context, yearInterval, periodName string) (*models.Semester, error) {
	for _, s := range f.byID {
		if s.YearInterval == yearInterval && s.PeriodName == periodName {
			return s, nil
		}
	}
	return nil, apperrors.ErrSemesterNotFound
}

func (f *fakeSemesters) List(_ context.Context, activeOnly bool) ([]models.Semester, error) {
	var out []models.Semester
	for _, s := range f.byID {
		if !activeOnly || s.Active {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodOrderValue > out[j].PeriodOrderValue })
	return out, nil
}

func (f *fakeSemesters) ListByIDs(_ context.Context, ids []int64) ([]models.Semester, error) {
	var out []models.Semester
	seen := map[int64]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		s, ok := f.byID[id]
		if !ok {
			return nil, apperrors.ErrSemesterNotFound
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodOrderValue < out[j].PeriodOrderValue })
	return out, nil
}

func (f *fakeSemesters) SetActive(_ context.Context, id int64, active bool) error {
	s, ok := f.byID[id]
	if !ok {
		return apperrors.ErrSemesterNotFound
	}
	s.Active = active
	return nil
}

type fakeCurricula struct {
	byID map[int64]*models.Curriculum
}

func (f *fakeCurricula) GetByID(_ context.Context, id int64) (*models.Curriculum, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrCurriculumNotFound
	}
	return c, nil
}

func (f *fakeCurricula) GetByName(_ context.Context, name string) (*models.Curriculum, error) {
	for _, c := range f.byID {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, apperrors.ErrCurriculumNotFound
}

func (f *fakeCurricula) List(_ context.Context) ([]models.Curriculum, error) {
	var out []models.Curriculum
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCurricula) EnsureWithAllCourses(_ context.Context, name string) (int64, error) {
	for id, c := range f.byID {
		if c.Name == name {
			return id, nil
		}
	}
	id := int64(len(f.byID) + 1)
	f.byID[id] = &models.Curriculum{ID: id, Name: name}
	return id, nil
}

type fakeFiles struct {
	byID   map[int64]*models.ProgramOutcomeFile
	nextID int64
	// resultsRemoved is what DeleteWithResults reports
	resultsRemoved int64
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{byID: map[int64]*models.ProgramOutcomeFile{}}
}

func (f *fakeFiles) Create(_ context.Context, file *models.ProgramOutcomeFile) (int64, error) {
	f.nextID++
	cp := *file
	cp.ID = f.nextID
	cp.UploadedAt = time.Now()
	f.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeFiles) GetByID(_ context.Context, id int64) (*models.ProgramOutcomeFile, error) {
	file, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrOutcomeFileNotFound
	}
	cp := *file
	return &cp, nil
}

func (f *fakeFiles) FindByOwner(_ context.Context, userID, semesterID, courseID int64) (*models.ProgramOutcomeFile, error) {
	for _, file := range f.byID {
		if file.UserID == userID && file.SemesterID == semesterID && file.CourseID == courseID {
			cp := *file
			return &cp, nil
		}
	}
	return nil, apperrors.ErrOutcomeFileNotFound
}

func (f *fakeFiles) sorted() []models.ProgramOutcomeFile {
	var out []models.ProgramOutcomeFile
	for _, file := range f.byID {
		out = append(out, *file)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeFiles) List(_ context.Context, userID *int64, offset, limit uint64) ([]models.ProgramOutcomeFile, int64, error) {
	var out []models.ProgramOutcomeFile
	all := f.sorted()
	for i := len(all) - 1; i >= 0; i-- {
		if userID == nil || all[i].UserID == *userID {
			out = append(out, all[i])
		}
	}
	total := int64(len(out))
	if offset >= uint64(len(out)) {
		return nil, total, nil
	}
	end := offset + limit
	if end > uint64(len(out)) {
		end = uint64(len(out))
	}
	return out[offset:end], total, nil
}

func (f *fakeFiles) ListForReplay(_ context.Context) ([]models.ProgramOutcomeFile, error) {
	return f.sorted(), nil
}

func (f *fakeFiles) UpdatePath(_ context.Context, id int64, filePath, originalName string) error {
	file, ok := f.byID[id]
	if !ok {
		return apperrors.ErrOutcomeFileNotFound
	}
	file.FilePath = filePath
	file.OriginalName = originalName
	return nil
}

func (f *fakeFiles) Delete(_ context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return apperrors.ErrOutcomeFileNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeFiles) DeleteWithResults(ctx context.Context, file *models.ProgramOutcomeFile) (int64, error) {
	if err := f.Delete(ctx, file.ID); err != nil {
		return 0, err
	}
	return f.resultsRemoved, nil
}

func (f *fakeFiles) UploadedCourseIDs(_ context.Context, semesterID int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, file := range f.byID {
		if file.SemesterID == semesterID {
			out[file.CourseID] = true
		}
	}
	return out, nil
}

type resultKey struct {
	student, course, outcome, semester int64
}

type fakeResults struct {
	mu       sync.Mutex
	values   map[resultKey]int
	policies []models.SemesterPolicy
	failWith error
}

func newFakeResults() *fakeResults {
	return &fakeResults{values: map[resultKey]int{}}
}

// UpsertBatch applies the writes all or nothing
func (f *fakeResults) UpsertBatch(_ context.Context, writes []models.ResultWrite, policy models.SemesterPolicy) (models.UpsertSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.policies = append(f.policies, policy)
	if f.failWith != nil {
		return models.UpsertSummary{}, f.failWith
	}

	var sum models.UpsertSummary
	for _, w := range writes {
		if policy == models.PolicyRecencyWins {
			for k := range f.values {
				if k.student == w.StudentID && k.course == w.CourseID && k.outcome == w.ProgramOutcomeID && k.semester != w.SemesterID {
					delete(f.values, k)
					sum.Superseded++
				}
			}
		}
		k := resultKey{w.StudentID, w.CourseID, w.ProgramOutcomeID, w.SemesterID}
		if _, ok := f.values[k]; ok {
			sum.Updated++
		} else {
			sum.Created++
		}
		f.values[k] = w.Satisfaction
	}
	return sum, nil
}

func (f *fakeResults) List(_ context.Context, _ models.ResultFilter, _, _ uint64) ([]models.ProgramOutcomeResult, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ProgramOutcomeResult
	for k, v := range f.values {
		out = append(out, models.ProgramOutcomeResult{
			StudentID: k.student, CourseID: k.course, ProgramOutcomeID: k.outcome, SemesterID: k.semester, Satisfaction: v,
		})
	}
	return out, int64(len(out)), nil
}

func (f *fakeResults) DeleteAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.values))
	f.values = map[resultKey]int{}
	return n, nil
}

func (f *fakeResults) get(student, course, outcome, semester int64) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[resultKey{student, course, outcome, semester}]
	return v, ok
}

type fakeReports struct {
	inputs map[string]report.Input
	calls  [][]int64
}

func (f *fakeReports) LoadInput(_ context.Context, semesterIDs []int64, _ *int64) (report.Input, error) {
	f.calls = append(f.calls, semesterIDs)
	key, _ := json.Marshal(semesterIDs)
	return f.inputs[string(key)], nil
}

type fakeTasks struct {
	byID map[uuid.UUID]*models.ReportTask
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{byID: map[uuid.UUID]*models.ReportTask{}}
}

func (f *fakeTasks) Create(_ context.Context, task *models.ReportTask) (uuid.UUID, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	task.Status = models.TaskPending
	cp := *task
	f.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeTasks) GetByID(_ context.Context, id uuid.UUID) (*models.ReportTask, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

type fakeSettings struct {
	values map[string]*models.SiteSetting
}

func (f *fakeSettings) Get(_ context.Context, key string) (*models.SiteSetting, error) {
	s, ok := f.values[key]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("setting " + key)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSettings) CompareAndSwap(ctx context.Context, key, value string, expectedVersion int64, updatedBy *int64) (*models.SiteSetting, error) {
	s, err := f.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if s.Version != expectedVersion {
		return nil, apperrors.ErrStaleSetting
	}
	s.Value = value
	s.Version++
	s.UpdatedBy = updatedBy
	f.values[key] = s
	return s, nil
}

// withUser returns a context authenticated as u
func withUser(u *models.User) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{
		UserID:      u.ID,
		Username:    u.Username,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	})
}

// storedFiles lists the regular files below root
func storedFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return files
}
