// Package dummydb provides in-memory repositories for tests and local
// development. Tables are plain maps guarded by RWMutexes; IDs are uuids so
// the behavior matches the PostgreSQL repositories.
package dummydb

import (
	"sync"

	"github.com/Reema362/avocop/core/campaign"
	"github.com/Reema362/avocop/core/chat"
	"github.com/Reema362/avocop/core/course"
	"github.com/Reema362/avocop/core/enrollment"
	"github.com/Reema362/avocop/core/notification"
	"github.com/Reema362/avocop/core/quiz"
	"github.com/Reema362/avocop/core/user"
)

type (
	DB struct {
		user         *userTable
		course       *courseTable
		enrollment   *enrollmentTable
		campaign     *campaignTable
		quiz         *quizTable
		chat         *chatTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		courses map[string]*course.Course
		lessons map[string]*course.Lesson
	}

	enrollmentTable struct {
		sync.RWMutex
		enrollments map[string]*enrollment.Enrollment     // keyed courseID|userID
		progress    map[string]*enrollment.LessonProgress // keyed userID|lessonID
	}

	campaignTable struct {
		sync.RWMutex
		campaigns   map[string]*campaign.Campaign
		escalations map[string]*campaign.Escalation
	}

	quizTable struct {
		sync.RWMutex
		quizzes     map[string]*quiz.Quiz
		questions   map[string]*quiz.Question
		submissions map[string]*quiz.Submission
	}

	chatTable struct {
		sync.RWMutex
		sessions map[string]*chat.Session
		messages map[string]*chat.Message
		rules    map[string]*chat.Rule
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		course: &courseTable{courses: make(map[string]*course.Course), lessons: make(map[string]*course.Lesson)},
		enrollment: &enrollmentTable{
			enrollments: make(map[string]*enrollment.Enrollment),
			progress:    make(map[string]*enrollment.LessonProgress),
		},
		campaign: &campaignTable{campaigns: make(map[string]*campaign.Campaign), escalations: make(map[string]*campaign.Escalation)},
		quiz: &quizTable{
			quizzes:     make(map[string]*quiz.Quiz),
			questions:   make(map[string]*quiz.Question),
			submissions: make(map[string]*quiz.Submission),
		},
		chat: &chatTable{
			sessions: make(map[string]*chat.Session),
			messages: make(map[string]*chat.Message),
			rules:    make(map[string]*chat.Rule),
		},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
	}
	return db, nil
}
