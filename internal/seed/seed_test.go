package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tustunkok/pc-link/internal/app/models"
)

type fakeCurricula struct {
	names []string
	err   error
}

func (f *fakeCurricula) EnsureWithAllCourses(_ context.Context, name string) (int64, error) {
	f.names = append(f.names, name)
	return 4, f.err
}

type fakeStudents struct {
	assigned []int64
}

func (f *fakeStudents) AssignCurriculum(_ context.Context, id int64) (int64, error) {
	f.assigned = append(f.assigned, id)
	return 12, nil
}

func TestCreateDefaultData(t *testing.T) {
	curricula := &fakeCurricula{}
	students := &fakeStudents{}

	require.NoError(t, CreateDefaultData(context.Background(), curricula, students, zerolog.Nop()))

	assert.Equal(t, []string{models.DefaultCurriculumName}, curricula.names)
	assert.Equal(t, []int64{4}, students.assigned)
}

func TestCreateDefaultDataStopsOnCurriculumError(t *testing.T) {
	boom := errors.New("boom")
	students := &fakeStudents{}

	err := CreateDefaultData(context.Background(), &fakeCurricula{err: boom}, students, zerolog.Nop())

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, students.assigned)
}
