package controllers

import (
	"net/http"
	"testing"

	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupBody() map[string]interface{} {
	return map[string]interface{}{
		"cedula":           "1712345678",
		"first_name":       "María",
		"middle_name":      "José",
		"last_name":        "Andrango",
		"second_last_name": "Mendoza",
		"email":            "maria@example.com",
		"password":         "secret123",
		"birth_date":       "2000-01-09",
	}
}

func TestSignupVerifyLogin(t *testing.T) {
	app := newTestApp(t)
	router := app.client()

	w := performRequest(router, http.MethodPost, "/api/v1/users", signupBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := dataOf(t, w)
	assert.Equal(t, "mjandrangom9", user["nickname"])
	assert.Equal(t, "Andrango Mendoza María José", user["full_name"])
	assert.Equal(t, false, user["verified"])
	assert.NotContains(t, user, "password_hash")

	login := map[string]interface{}{"nickname": "mjandrangom9", "password": "secret123"}
	w = performRequest(router, http.MethodPost, "/api/v1/auth/login", login)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "NOT_VERIFIED", errorCodeOf(t, w))

	code, sent := app.notifier.LastVerificationCode("maria@example.com")
	require.True(t, sent)

	verify := map[string]interface{}{"email": "maria@example.com", "code": code}
	w = performRequest(router, http.MethodPost, "/api/v1/users/verify", verify)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, dataOf(t, w)["verified"])

	// the code is single use
	w = performRequest(router, http.MethodPost, "/api/v1/users/verify", verify)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INCORRECT_CODE", errorCodeOf(t, w))

	w = performRequest(router, http.MethodPost, "/api/v1/auth/login", login)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := dataOf(t, w)
	assert.NotEmpty(t, result["token"])
	assert.NotEmpty(t, result["expires_at"])

	w = performRequest(router, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{"nickname": "mjandrangom9", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTHENTICATION_FAILED", errorCodeOf(t, w))
}

func TestCreateUser_Validation(t *testing.T) {
	app := newTestApp(t)
	router := app.client()

	tests := []struct {
		name           string
		mutate         func(map[string]interface{})
		expectedStatus int
		expectedError  string
	}{
		{name: "missing email", mutate: func(b map[string]interface{}) { delete(b, "email") }, expectedStatus: http.StatusBadRequest, expectedError: "VALIDATION_ERROR"},
		{name: "bad birth date", mutate: func(b map[string]interface{}) { b["birth_date"] = "09/01/2000" }, expectedStatus: http.StatusBadRequest, expectedError: "VALIDATION_ERROR"},
		{name: "short cedula", mutate: func(b map[string]interface{}) { b["cedula"] = "12345" }, expectedStatus: http.StatusBadRequest, expectedError: "VALIDATION_ERROR"},
		{name: "weak password", mutate: func(b map[string]interface{}) { b["password"] = "abc" }, expectedStatus: http.StatusBadRequest, expectedError: "WEAK_PASSWORD"},
		{name: "duplicate cedula", mutate: func(b map[string]interface{}) { b["cedula"] = clientCedula }, expectedStatus: http.StatusConflict, expectedError: "USER_EXISTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := signupBody()
			tt.mutate(body)
			w := performRequest(router, http.MethodPost, "/api/v1/users", body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedError, errorCodeOf(t, w))
		})
	}
}

func TestGetUser_Ownership(t *testing.T) {
	app := newTestApp(t)

	w := performRequest(app.client(), http.MethodGet, "/api/v1/users/"+clientCedula, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, clientCedula, dataOf(t, w)["cedula"])

	w = performRequest(app.client(), http.MethodGet, "/api/v1/users/"+otherCedula, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCodeOf(t, w))

	w = performRequest(app.admin(), http.MethodGet, "/api/v1/users/"+otherCedula, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(app.admin(), http.MethodGet, "/api/v1/users/0999999999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", errorCodeOf(t, w))
}

func TestUpdateUser(t *testing.T) {
	app := newTestApp(t)
	path := "/api/v1/users/" + clientCedula

	w := performRequest(app.client(), http.MethodPut, path, map[string]interface{}{"last_name": "Guerrero", "birth_date": "1995-04-20"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.Equal(t, "Guerrero Vera Ana Lucia", data["full_name"])
	assert.Equal(t, "alguerrerov20", data["nickname"])

	w = performRequest(app.client(), http.MethodPut, path, map[string]interface{}{"role": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(app.admin(), http.MethodPut, path, map[string]interface{}{"role": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(models.RoleLibrarian), dataOf(t, w)["role"])

	w = performRequest(app.admin(), http.MethodPut, path, map[string]interface{}{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCodeOf(t, w))
}

func TestDeleteUser(t *testing.T) {
	app := newTestApp(t)

	w := performRequest(app.client(), http.MethodDelete, "/api/v1/users/"+otherCedula, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(app.admin(), http.MethodDelete, "/api/v1/users/"+otherCedula, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "D", dataOf(t, w)["status"])

	var stored models.User
	require.NoError(t, app.db.First(&stored, "usr_cedula = ?", otherCedula).Error)
	assert.Equal(t, models.UserStatusDisabled, stored.Status)
}

func TestListAndFilterUsers(t *testing.T) {
	app := newTestApp(t)
	router := app.admin()

	w := performRequest(router, http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, listOf(t, w), 4)

	w = performRequest(router, http.MethodGet, "/api/v1/users/filter?role=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, listOf(t, w), 2)

	w = performRequest(router, http.MethodGet, "/api/v1/users/filter", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ROLE_REQUIRED", errorCodeOf(t, w))

	w = performRequest(router, http.MethodGet, "/api/v1/users/filter?role=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ROLE", errorCodeOf(t, w))

	app.db.Where("usr_rol = ?", models.RoleLibrarian).Delete(&models.User{})
	w = performRequest(router, http.MethodGet, "/api/v1/users/filter?role=3", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(app.client(), http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
