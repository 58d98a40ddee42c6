package tests

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"testing"

	"github.com/google/uuid"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/teacher"
	emailsvc "github.com/trezcool/darasa/services/email"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_authApi_signup(t *testing.T) {
	existing := testutil.CreateTeacher(t, tchrRepo, "Imani", "Kabeya", "imani@test.cd", "")

	reqMsg := "this field is required"
	type fieldErrs map[string]string

	type extraTest struct {
		emailSentTo *mail.Address
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest, body: []byte("{}"),
			wantData: marchallObj(t, fieldErrs{"email": reqMsg, "password": reqMsg, "first_name": reqMsg, "last_name": reqMsg}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, teacher.NewTeacher{Email: "lol", Password: "s3kr3tw0rd", FirstName: "Lol", LastName: "Mdr"}),
			wantData: marchallObj(t, fieldErrs{"email": "email must be a valid email address"}),
		},
		{
			name: "invalid pwd: min len", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, teacher.NewTeacher{Email: "lol@test.cd", Password: "lol", FirstName: "Lol", LastName: "Mdr"}),
			wantData: marchallObj(t, fieldErrs{"password": "password must contain at least 8 characters"}),
		},
		{
			name: "invalid pwd: whitespace", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, teacher.NewTeacher{Email: "lol@test.cd", Password: "s3kr3t w0rd", FirstName: "Lol", LastName: "Mdr"}),
			wantData: marchallObj(t, fieldErrs{"password": "password must not contain whitespace"}),
		},
		{
			name: "invalid pwd: all numeric", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, teacher.NewTeacher{Email: "lol@test.cd", Password: "36525414786", FirstName: "Lol", LastName: "Mdr"}),
			wantData: marchallObj(t, fieldErrs{"password": "password cannot be entirely numeric"}),
		},
		{
			name: "invalid pwd: similar to attributes", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, teacher.NewTeacher{Email: "jacques@test.cd", Password: "jacques123", FirstName: "Jacques", LastName: "Mdr"}),
			wantData: marchallObj(t, fieldErrs{"password": "password cannot be similar to account attributes"}),
		},
		{
			name: "email taken", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, teacher.NewTeacher{Email: existing.Email, Password: "s3kr3tw0rd", FirstName: "Imani", LastName: "Kabeya"}),
			wantData: marchallObj(t, fieldErrs{"email": "a teacher with this email already exists"}),
		},
		{
			name: "signup succeeds", wantCode: http.StatusCreated,
			body:  marchallObj(t, teacher.NewTeacher{Email: "chipo@test.cd", Password: "s3kr3tw0rd", FirstName: "Chipo", LastName: "Bahati"}),
			extra: extraTest{emailSentTo: &mail.Address{Name: "Chipo Bahati", Address: "chipo@test.cd"}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/signup"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData echoapi.AuthResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				if respData.Teacher.ID == "" {
					t.Error("failed! empty teacher ID")
				}
				if respData.Teacher.Email != "chipo@test.cd" {
					t.Errorf("failed! email = %s", respData.Teacher.Email)
				}
				checkAuthCookie(t, rec, respData.Token)

				extra := tt.extra.(extraTest)
				if len(emailsvc.SentMessages) != 1 {
					t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
				}
				msg := emailsvc.SentMessages[0]
				if msg.To[0] != *extra.emailSentTo {
					t.Errorf("failed! To = %v; want %v", msg.To[0], *extra.emailSentTo)
				}
				if !strings.Contains(msg.TextContent, "Chipo") {
					t.Error("failed! welcome email does not greet the teacher")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_login(t *testing.T) {
	tchr := testutil.CreateTeacher(t, tchrRepo, "Zawadi", "Mutombo", "zawadi@test.cd", "s3kr3tw0rd")

	invalidCreds := marchallObj(t, httpErr{Error: "invalid credentials"})
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest, body: []byte("{}"),
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "lol@test.cd", Password: "s3kr3tw0rd"}),
			wantData: invalidCreds,
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: tchr.Email, Password: "lolmdrlol"}),
			wantData: invalidCreds,
		},
		{
			name: "login succeeds", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Email: tchr.Email, Password: "s3kr3tw0rd"}),
		},
		{
			name: "email is case-insensitive", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Email: "  ZaWaDi@Test.CD ", Password: "s3kr3tw0rd"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData echoapi.AuthResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				if respData.Teacher.ID != tchr.ID {
					t.Errorf("failed! teacher ID = %s; want %s", respData.Teacher.ID, tchr.ID)
				}
				checkAuthCookie(t, rec, respData.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_logout(t *testing.T) {
	req, rec := newRequest(http.MethodPost, "/v1/auth/logout")
	app.ServeHTTP(rec, req)

	tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Logged out."})}
	checkCodeAndData(t, tt, rec)

	var cleared bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "token" {
			cleared = cookie.Value == "" && cookie.MaxAge < 0
		}
	}
	if !cleared {
		t.Error("failed! auth cookie was not cleared")
	}
}

func Test_authApi_me(t *testing.T) {
	tchr := testutil.CreateTeacher(t, tchrRepo, "Amani", "Tshisekedi", "amani@test.cd", "s3kr3tw0rd")

	// a valid token whose account no longer exists
	goneToken := getToken(t, teacher.Teacher{ID: uuid.New().String(), Email: "ghost@test.cd"})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Account gone", token: goneToken, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "not authenticated"}),
		},
		{name: "Get own account", token: getToken(t, tchr), wantCode: http.StatusOK, wantData: marchallObj(t, tchr)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/auth/me"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the cookie works as well as the Authorization header
	t.Run("Cookie auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/auth/me")
		req.AddCookie(&http.Cookie{Name: "token", Value: getToken(t, tchr)})
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, tchr)}, rec)
	})
}

func checkAuthCookie(t *testing.T, rec interface{ Result() *http.Response }, token string) {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "token" {
			if cookie.Value != token {
				t.Error("failed! auth cookie does not carry the token")
			}
			if !cookie.HttpOnly {
				t.Error("failed! auth cookie is not HttpOnly")
			}
			if cookie.SameSite != http.SameSiteStrictMode {
				t.Error("failed! auth cookie is not SameSite=Strict")
			}
			return
		}
	}
	t.Error("failed! auth cookie not set")
}
