package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/Reema362/avocop/apps/api/echo"
	"github.com/Reema362/avocop/core/campaign"
	"github.com/Reema362/avocop/core/chat"
	"github.com/Reema362/avocop/core/course"
	"github.com/Reema362/avocop/core/enrollment"
	"github.com/Reema362/avocop/core/notification"
	"github.com/Reema362/avocop/core/quiz"
	"github.com/Reema362/avocop/core/user"
	dummymail "github.com/Reema362/avocop/services/email/dummy"
	"github.com/Reema362/avocop/services/filestore"
	logsvc "github.com/Reema362/avocop/services/logger"
	"github.com/Reema362/avocop/storage/cache"
	dummydb "github.com/Reema362/avocop/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app Server
	db  *dummydb.DB

	usrSvc      *user.Service
	courseSvc   *course.Service
	enrollSvc   *enrollment.Service
	quizSvc     *quiz.Service
	chatSvc     *chat.Service
	campaignSvc *campaign.Service
	notifSvc    *notification.Service
}

func setup(t *testing.T) *testEnv {
	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}

	// set up services
	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	mailSvc := dummymail.NewService()
	files, err := filestore.NewLocalStore(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("filestore.NewLocalStore(): %v", err)
	}

	usrSvc := user.NewService(dummydb.NewUserRepository(db), mailSvc, logger)
	courseSvc := course.NewService(dummydb.NewCourseRepository(db), files, logger)
	enrollSvc := enrollment.NewService(dummydb.NewEnrollmentRepository(db), courseSvc, logger)
	quizSvc := quiz.NewService(dummydb.NewQuizRepository(db), cache.NewDummyLeaderboard(), logger)
	chatSvc := chat.NewService(dummydb.NewChatRepository(db), logger)
	notifSvc := notification.NewService(dummydb.NewNotificationRepository(db), usrSvc, mailSvc, nil, logger)
	campaignSvc := campaign.NewService(dummydb.NewCampaignRepository(db), notifSvc, logger)

	// set up server
	app := NewServer(
		&Options{
			DisableReqLogs: true,
			Deps: &Deps{
				Logger:          logger,
				UserSvc:         usrSvc,
				CourseSvc:       courseSvc,
				EnrollmentSvc:   enrollSvc,
				CampaignSvc:     campaignSvc,
				QuizSvc:         quizSvc,
				ChatSvc:         chatSvc,
				NotificationSvc: notifSvc,
			},
		},
	)

	return &testEnv{
		app:         app,
		db:          db,
		usrSvc:      usrSvc,
		courseSvc:   courseSvc,
		enrollSvc:   enrollSvc,
		quizSvc:     quizSvc,
		chatSvc:     chatSvc,
		campaignSvc: campaignSvc,
		notifSvc:    notifSvc,
	}
}

func (env *testEnv) createUser(t *testing.T, name, uname, email string, roles []string) user.User {
	usr, err := env.usrSvc.Create(context.Background(), user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        "v3ryS3cretPwd!",
		PasswordConfirm: "v3ryS3cretPwd!",
		Roles:           roles,
	})
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	return usr
}

func (env *testEnv) createPublishedCourse(t *testing.T, title, createdBy string) course.Course {
	ctx := context.Background()
	crs, err := env.courseSvc.Create(ctx, course.NewCourse{Title: title}, createdBy)
	if err != nil {
		t.Fatalf("createPublishedCourse(): %v", err)
	}
	crs, err = env.courseSvc.Publish(ctx, crs.ID)
	if err != nil {
		t.Fatalf("createPublishedCourse(): %v", err)
	}
	return crs
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
