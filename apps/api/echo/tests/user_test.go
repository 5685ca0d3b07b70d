package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	. "github.com/shiksha/lms/apps/api/echo"
	"github.com/shiksha/lms/core/user"
)

func TestUserApi_register(t *testing.T) {
	env := setup(t)

	body := func(m map[string]interface{}) []byte { return marchallObj(t, m) }

	tests := []httpTest{
		{
			name: "student registration", method: http.MethodPost, path: "/v1/users/register",
			body: body(map[string]interface{}{
				"name": "Amina Okoye", "email": "amina@test.cd",
				"password": "Str0ngPwd!", "password_confirm": "Str0ngPwd!",
				"roles": []string{user.RoleStudent}, "grade_level": 10, "subject_ids": []int{1, 2},
			}),
			wantCode: http.StatusCreated,
		},
		{
			name: "roles default to student", method: http.MethodPost, path: "/v1/users/register",
			body: body(map[string]interface{}{
				"name": "Baraka Field", "email": "baraka@test.cd",
				"password": "Str0ngPwd!", "password_confirm": "Str0ngPwd!",
				"grade_level": 9,
			}),
			wantCode: http.StatusCreated,
		},
		{
			name: "missing required fields", method: http.MethodPost, path: "/v1/users/register",
			body:     body(map[string]interface{}{"email": "x@test.cd"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "password mismatch", method: http.MethodPost, path: "/v1/users/register",
			body: body(map[string]interface{}{
				"name": "Chipo Ncube", "email": "chipo@test.cd",
				"password": "Str0ngPwd!", "password_confirm": "different",
				"grade_level": 9,
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "grade level out of range", method: http.MethodPost, path: "/v1/users/register",
			body: body(map[string]interface{}{
				"name": "Chipo Ncube", "email": "chipo@test.cd",
				"password": "Str0ngPwd!", "password_confirm": "Str0ngPwd!",
				"grade_level": 7,
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate email", method: http.MethodPost, path: "/v1/users/register",
			body: body(map[string]interface{}{
				"name": "Amina Again", "email": "amina@test.cd",
				"password": "Str0ngPwd!", "password_confirm": "Str0ngPwd!",
				"grade_level": 10,
			}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusCreated {
				var usr user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if usr.ID == 0 {
					t.Error("created user has no ID")
				}
				if !usr.IsActive {
					t.Error("created user should be active")
				}
			}
		})
	}
}

func TestUserApi_login(t *testing.T) {
	env := setup(t)

	user.CreateUser(t, env.usrRepo, "Amina Okoye", "amina.okoye", "amina@test.cd", "Str0ngPwd!",
		[]string{user.RoleStudent}, 10, true)
	user.CreateUser(t, env.usrRepo, "Gone Guy", "gone.guy", "gone@test.cd", "Str0ngPwd!",
		[]string{user.RoleStudent}, 10, false /* inactive */)

	tests := []httpTest{
		{
			name: "login with username", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "amina.okoye", Password: "Str0ngPwd!"}),
			wantCode: http.StatusOK,
		},
		{
			name: "login with email", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "amina@test.cd", Password: "Str0ngPwd!"}),
			wantCode: http.StatusOK,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "amina.okoye", Password: "nope"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "who.dis", Password: "Str0ngPwd!"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "deactivated account", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "gone.guy", Password: "Str0ngPwd!"}),
			wantCode: http.StatusForbidden,
		},
		{
			name: "missing credentials", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if resp.Token == "" {
					t.Error("login returned an empty token")
				}
			}
		})
	}
}

func TestUserApi_retrieveSelf(t *testing.T) {
	env := setup(t)

	usr := user.CreateUser(t, env.usrRepo, "Amina Okoye", "amina.okoye", "amina@test.cd", "Str0ngPwd!",
		[]string{user.RoleStudent}, 10, true)

	t.Run("requires auth", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/users/me")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("returns the authenticated user", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", getToken(t, usr))
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body %s", rec.Code, rec.Body.String())
		}
		var got user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got.ID != usr.ID || got.Email != usr.Email {
			t.Errorf("got user %+v; want %+v", got, usr)
		}
	})
}

func TestUserApi_updateProfile(t *testing.T) {
	env := setup(t)

	usr := user.CreateUser(t, env.usrRepo, "Amina Okoye", "amina.okoye", "amina@test.cd", "Str0ngPwd!",
		[]string{user.RoleStudent}, 10, true)
	user.CreateUser(t, env.usrRepo, "Mr. Banda", "mr.banda", "banda@test.cd", "Str0ngPwd!",
		[]string{user.RoleTeacher}, 0, true)
	token := getToken(t, usr)

	t.Run("requires auth", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodPut, "/v1/users/me", marchallObj(t, map[string]string{"name": "X"}))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("edits the profile", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"name": "Amina O. Okoye", "email": "amina.new@test.cd"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/me", token, body)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got.Name != "Amina O. Okoye" || got.Email != "amina.new@test.cd" {
			t.Errorf("profile = %q %q; want the edited values", got.Name, got.Email)
		}
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": "banda@test.cd"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/me", token, body)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})
}

func TestUserApi_adminUserManagement(t *testing.T) {
	env := setup(t)

	admin := user.CreateUser(t, env.usrRepo, "The Principal", "principal", "principal@test.cd", "Str0ngPwd!",
		[]string{user.RoleAdminPrincipal}, 0, true)
	student := user.CreateUser(t, env.usrRepo, "Amina Okoye", "amina.okoye", "amina@test.cd", "Str0ngPwd!",
		[]string{user.RoleStudent}, 10, true)
	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)

	t.Run("listing is admin-only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users", studentToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusForbidden, rec.Body.String())
		}
	})

	t.Run("lists active users", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users", adminToken)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var users []user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("listed %d users; want 2", len(users))
		}
	})

	t.Run("deactivation is admin-only", func(t *testing.T) {
		path := fmt.Sprintf("/v1/users/%d/deactivate", admin.ID)
		req, rec := newAuthRequest(http.MethodPost, path, studentToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusForbidden, rec.Body.String())
		}
	})

	t.Run("deactivates and reactivates an account", func(t *testing.T) {
		path := fmt.Sprintf("/v1/users/%d/deactivate", student.ID)
		req, rec := newAuthRequest(http.MethodPost, path, adminToken)
		env.app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, SuccessResponse{Success: "user deactivated"})}
		checkCodeAndData(t, tt, rec)

		// a deactivated account can no longer log in
		body := marchallObj(t, LoginRequest{Username: "amina.okoye", Password: "Str0ngPwd!"})
		req, rec = newRequest(http.MethodPost, "/v1/users/login", body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("login code = %v; want %v; body %s", rec.Code, http.StatusForbidden, rec.Body.String())
		}

		path = fmt.Sprintf("/v1/users/%d/activate", student.ID)
		req, rec = newAuthRequest(http.MethodPost, path, adminToken)
		env.app.ServeHTTP(rec, req)
		tt = httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, SuccessResponse{Success: "user activated"})}
		checkCodeAndData(t, tt, rec)

		req, rec = newRequest(http.MethodPost, "/v1/users/login", body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("login code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/999/deactivate", adminToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusNotFound, rec.Body.String())
		}
	})
}
