package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	asg.ID = uuid.New().String()
	repo.db.table[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, ownerID string, filter *assignment.QueryFilter) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	asgs := make([]assignment.Assignment, 0, len(repo.db.table))
	for _, asg := range repo.db.table {
		if asg.CreatedBy != ownerID {
			continue
		}
		if filter != nil && !matches(asg, filter) {
			continue
		}
		asgs = append(asgs, *asg)
	}

	// newest first
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].CreatedAt.After(asgs[j].CreatedAt) })
	return asgs, nil
}

func (repo *assignmentRepository) GetAssignment(_ context.Context, ownerID, id string) (assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if asg, ok := repo.db.table[id]; ok && asg.CreatedBy == ownerID {
		return *asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) GetAssignmentByFilePath(_ context.Context, ownerID, filePath string) (assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filePath != "" {
		for _, asg := range repo.db.table {
			if asg.FilePath == filePath && asg.CreatedBy == ownerID {
				return *asg, nil
			}
		}
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) UpdateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if curr, ok := repo.db.table[asg.ID]; ok && curr.CreatedBy == asg.CreatedBy {
		repo.db.table[asg.ID] = &asg
		return asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) DeleteAssignment(_ context.Context, ownerID, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if asg, ok := repo.db.table[id]; ok && asg.CreatedBy == ownerID {
		delete(repo.db.table, id)
		return nil
	}
	return assignment.ErrNotFound
}

func matches(asg *assignment.Assignment, filter *assignment.QueryFilter) bool {
	if filter.Search != "" && !strings.Contains(strings.ToLower(asg.Title), strings.ToLower(filter.Search)) {
		return false
	}
	if !filter.StartDate.IsZero() && asg.Deadline.Before(filter.StartDate) {
		return false
	}
	if !filter.EndDate.IsZero() && asg.Deadline.After(filter.EndDate) {
		return false
	}
	return true
}
