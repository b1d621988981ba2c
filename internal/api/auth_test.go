package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Login_Me_RoundTrip(t *testing.T) {
	gdb := setupDB(t)
	r := testRouter(gdb)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"username":   "Sarah",
		"email":      "Sarah@Example.com",
		"password":   "password123",
		"first_name": "Sarah",
		"last_name":  "Johnson",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	require.NotEmpty(t, body["token"])

	// Username and email are normalized to lowercase
	user := body["user"].(map[string]any)
	assert.Equal(t, "sarah", user["username"])
	assert.Equal(t, "sarah@example.com", user["email"])
	// The password hash never leaves the server
	assert.NotContains(t, user, "PasswordHash")
	assert.NotContains(t, user, "password_hash")

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "sarah@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := decodeBody(t, w)["token"].(string)

	w = doJSON(t, r, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_DuplicateEmail_Fails(t *testing.T) {
	gdb := setupDB(t)
	r := testRouter(gdb)

	payload := gin.H{
		"username":   "sarah",
		"email":      "sarah@example.com",
		"password":   "password123",
		"first_name": "Sarah",
		"last_name":  "Johnson",
	}
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", payload, "")
	require.Equal(t, http.StatusCreated, w.Code)

	payload["username"] = "sarah2"
	w = doJSON(t, r, http.MethodPost, "/api/auth/register", payload, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_WrongPassword_Unauthorized(t *testing.T) {
	gdb := setupDB(t)
	r := testRouter(gdb)
	seedUser(t, gdb, "sarah")

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "sarah@example.com",
		"password": "wrong-password",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	gdb := setupDB(t)
	r := testRouter(gdb)
	user, token := seedUser(t, gdb, "sarah")

	w := doJSON(t, r, http.MethodPut, "/api/auth/profile", gin.H{
		"bio":      "Thrift shop regular",
		"location": "Portland, OR",
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	got := decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, "Thrift shop regular", got["bio"])
	assert.Equal(t, "Portland, OR", got["location"])
	// Untouched fields survive
	assert.Equal(t, user.FirstName, got["first_name"])
}
