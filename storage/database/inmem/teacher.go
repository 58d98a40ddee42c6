package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/teacher"
)

type teacherRepository struct {
	db *teacherTable
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *DB) *teacherRepository {
	return &teacherRepository{db: db.teacher}
}

func (repo *teacherRepository) CheckEmailUniqueness(_ context.Context, email string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, tchr := range repo.db.table {
		if tchr.Email == email {
			return teacher.ErrEmailExists
		}
	}
	return nil
}

func (repo *teacherRepository) CreateTeacher(_ context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tchr.ID = uuid.New().String()
	repo.db.table[tchr.ID] = &tchr
	return tchr, nil
}

func (repo *teacherRepository) GetTeacherByID(_ context.Context, id string) (teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tchr, ok := repo.db.table[id]; ok {
		return *tchr, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) GetTeacherByEmail(_ context.Context, email string) (teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, tchr := range repo.db.table {
		if tchr.Email == email {
			return *tchr, nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}
