package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/teacher"
)

// DB is a mutex-guarded in-memory database; it backs tests and local
// hacking without a postgres instance.
type DB struct {
	teacher    *teacherTable
	assignment *assignmentTable
}

type teacherTable struct {
	mutex sync.RWMutex
	table map[string]*teacher.Teacher
}

type assignmentTable struct {
	mutex sync.RWMutex
	table map[string]*assignment.Assignment
}

func Open() *DB {
	return &DB{
		teacher:    &teacherTable{table: make(map[string]*teacher.Teacher)},
		assignment: &assignmentTable{table: make(map[string]*assignment.Assignment)},
	}
}
