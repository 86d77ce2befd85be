package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

func newCatalogFixture() (CatalogService, *fakeSemesters, *fakeCourses) {
	semesters := newFakeSemesters(
		&models.Semester{ID: fall, YearInterval: "2020-2021", PeriodName: "Fall", PeriodOrderValue: 1, Active: true},
		&models.Semester{ID: spring, YearInterval: "2020-2021", PeriodName: "Spring", PeriodOrderValue: 2},
	)
	courses := newFakeCourses(&models.Course{ID: ce101, Code: "CE101", Name: "Programming"})
	svc := NewCatalogService(
		newFakeStudents(),
		&fakeOutcomes{byCode: map[string]int64{}},
		newFakeResults(),
		semesters,
		courses,
		&fakeCurricula{byID: map[int64]*models.Curriculum{}},
	)
	return svc, semesters, courses
}

func TestListingsAreNeverNil(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	ctx := context.Background()

	outcomes, err := svc.ListProgramOutcomes(ctx)
	require.NoError(t, err)
	assert.NotNil(t, outcomes)

	curricula, err := svc.ListCurricula(ctx)
	require.NoError(t, err)
	assert.NotNil(t, curricula)

	page, err := svc.ListStudents(ctx, true, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []models.Student{}, page.Items)
	assert.Equal(t, 1, page.Pagination.TotalPages)
}

func TestListSemestersActiveOnly(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	all, err := svc.ListSemesters(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, spring, all[0].ID, "newest first")

	active, err := svc.ListSemesters(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fall, active[0].ID)
}

func TestCreateSemester(t *testing.T) {
	svc, semesters, courses := newCatalogFixture()

	s, err := svc.CreateSemester(context.Background(), NewSemester{
		YearInterval:     "2021-2022",
		PeriodName:       "Fall",
		PeriodOrderValue: 3,
		Active:           true,
		OfferedCourses:   []string{"CE101"},
	})
	require.NoError(t, err)

	assert.Equal(t, "2021-2022 Fall", s.Label())
	assert.Contains(t, semesters.byID, s.ID)
	assert.Equal(t, []int64{ce101}, courses.offered[s.ID])
}

func TestCreateSemesterValidation(t *testing.T) {
	tests := []struct {
		name string
		in   NewSemester
		want error
	}{
		{"year interval", NewSemester{YearInterval: "2021-2023", PeriodName: "Fall"}, apperrors.ErrBadRequest},
		{"period name", NewSemester{YearInterval: "2021-2022", PeriodName: strings.Repeat("x", 51)}, apperrors.ErrBadRequest},
		{"unknown course", NewSemester{YearInterval: "2021-2022", PeriodName: "Fall", OfferedCourses: []string{"CE999"}}, apperrors.ErrResourceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, semesters, _ := newCatalogFixture()

			_, err := svc.CreateSemester(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Len(t, semesters.byID, 2)
		})
	}
}

func TestSetSemesterActive(t *testing.T) {
	svc, semesters, _ := newCatalogFixture()

	require.NoError(t, svc.SetSemesterActive(context.Background(), spring, true))
	assert.True(t, semesters.byID[spring].Active)

	err := svc.SetSemesterActive(context.Background(), 404, true)
	assert.ErrorIs(t, err, apperrors.ErrSemesterNotFound)
}
