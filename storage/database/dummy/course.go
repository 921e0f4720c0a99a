package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CheckSlugUniqueness(ctx context.Context, slug string, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, crs := range repo.db.courses {
		if crs.Slug == slug {
			return course.ErrSlugExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs.ID = uuid.New().String()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if filter != nil {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(crs.Title), search) &&
					!strings.Contains(strings.ToLower(crs.Description), search) {
					continue
				}
			}
			if filter.Category != "" && crs.Category != filter.Category {
				continue
			}
			if filter.Status != "" && crs.Status != filter.Status {
				continue
			}
		}
		courses = append(courses, *crs)
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) GetCourseBySlug(ctx context.Context, slug string, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, crs := range repo.db.courses {
		if crs.Slug == slug {
			return *crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	if crs.Title != "" {
		orig.Title = crs.Title
	}
	if crs.Slug != "" {
		orig.Slug = crs.Slug
	}
	if crs.Description != "" {
		orig.Description = crs.Description
	}
	if crs.Category != "" {
		orig.Category = crs.Category
	}
	if crs.Difficulty != "" {
		orig.Difficulty = crs.Difficulty
	}
	if crs.Duration != 0 {
		orig.Duration = crs.Duration
	}
	if crs.VideoKey != "" {
		orig.VideoKey = crs.VideoKey
	}
	if crs.ThumbnailKey != "" {
		orig.ThumbnailKey = crs.ThumbnailKey
	}
	if crs.Status != "" {
		orig.Status = crs.Status
	}
	orig.UpdatedAt = crs.UpdatedAt

	return *orig, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.courses[id]; ok {
			delete(repo.db.courses, id)
			n++
		}
	}
	return n, nil
}

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson, exec ...core.DBExecutor) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lsn.ID = uuid.New().String()
	repo.db.lessons[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *courseRepository) QueryLessons(ctx context.Context, courseID string, requiredOnly bool, exec ...core.DBExecutor) ([]course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var lessons []course.Lesson
	for _, lsn := range repo.db.lessons {
		if lsn.CourseID != courseID {
			continue
		}
		if requiredOnly && !lsn.Required {
			continue
		}
		lessons = append(lessons, *lsn)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].Position < lessons[j].Position })
	return lessons, nil
}

func (repo *courseRepository) GetLessonByID(ctx context.Context, id string, exec ...core.DBExecutor) (course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lsn, ok := repo.db.lessons[id]; ok {
		return *lsn, nil
	}
	return course.Lesson{}, course.ErrLessonNotFound
}

func (repo *courseRepository) UpdateLesson(ctx context.Context, lsn course.Lesson, exec ...core.DBExecutor) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.lessons[lsn.ID]
	if !ok {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	if lsn.Title != "" {
		orig.Title = lsn.Title
	}
	orig.Position = lsn.Position
	if lsn.Duration != 0 {
		orig.Duration = lsn.Duration
	}
	orig.Required = lsn.Required
	if lsn.VideoKey != "" {
		orig.VideoKey = lsn.VideoKey
	}
	if lsn.Content != "" {
		orig.Content = lsn.Content
	}
	orig.UpdatedAt = lsn.UpdatedAt

	return *orig, nil
}

func (repo *courseRepository) DeleteLesson(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.lessons, id)
	return nil
}
