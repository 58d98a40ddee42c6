package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/teacher"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	filestore "github.com/trezcool/darasa/storage/files"
)

var (
	conf     *core.Config
	app      *echoapi.Server
	tchrRepo teacher.Repository
	asgRepo  assignment.Repository
	files    core.FileStorage

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errNotFound     = httpErr{Error: "not found"}
)

func TestMain(m *testing.M) {
	_ = os.Setenv("ENV", "TEST")
	_ = os.Setenv("TEST_DEBUG", "false")
	conf = core.NewConfig()

	uploadsDir, err := os.MkdirTemp("", "uploads")
	if err != nil {
		fmt.Printf("os.MkdirTemp(): %v", err)
		os.Exit(1)
	}
	conf.Uploads.Dir = uploadsDir
	conf.Uploads.MaxFileSize = 1 << 10 // keep test uploads small

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	// set up DB & repos
	db := inmemdb.Open()
	tchrRepo = inmemdb.NewTeacherRepository(db)
	asgRepo = inmemdb.NewAssignmentRepository(db)

	files, err = filestore.New(conf.Uploads.Dir)
	if err != nil {
		fmt.Printf("filestore.New(): %v", err)
		os.Exit(1)
	}

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	tchrSvc := teacher.NewService(tchrRepo, mailSvc, conf)
	asgSvc := assignment.NewService(asgRepo, files, logger, conf)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	teacher.InitValidators(validate, translator)

	// set up server
	app = echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			TeacherSvc:    tchrSvc,
			AssignmentSvc: asgSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	// run tests
	code := m.Run()

	// clean up
	_ = os.RemoveAll(uploadsDir)

	os.Exit(code)
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

type formFile struct {
	fieldName   string
	fileName    string
	contentType string
	content     []byte
}

// newFormRequest builds a multipart/form-data request the way browsers submit
// the assignment form.
func newFormRequest(t *testing.T, method, path, token string, fields map[string]string, file *formFile) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, file.fieldName, file.fileName))
		h.Set("Content-Type", file.contentType)
		fw, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart(): %v", err)
		}
		if _, err = fw.Write(file.content); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, tchr teacher.Teacher) string {
	t.Helper()

	claims := echoapi.GetTeacherClaims(conf, tchr)
	token, err := echoapi.GenerateToken(conf, claims)
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
	t.Helper()

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

func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("io.ReadAll(): %v", err)
	}
	return data
}
