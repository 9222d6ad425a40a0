package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sorelly/internal/models"
	"github.com/example/sorelly/internal/services"
)

func verifyDirectory(id int, name string) *stubDirectory {
	return &stubDirectory{profile: &services.ResellerProfile{ID: id, Name: name}}
}

func TestVerify_IssuesCodeAndCreatesUser(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, verifyDirectory(10, "Loja da Ana"))

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{
		"email": "ana@example.com",
	}, "")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Código enviado para o email informado.", body["message"])

	debug, ok := body["debug"].(map[string]any)
	require.True(t, ok, "debug block expected outside production")
	code, _ := debug["code"].(string)
	assert.Regexp(t, `^[0-9]{6}$`, code)

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "ana@example.com").Error)
	assert.Equal(t, 10, user.ID)
	assert.Equal(t, "Loja da Ana", user.Name)
	assert.False(t, user.IsVerified)

	var count int64
	require.NoError(t, db.Model(&models.Verification{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVerify_UnknownResellerReturns404(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, &stubDirectory{})

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{
		"email": "ninguem@example.com",
	}, "")

	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Nenhuma revendedora encontrada para o email informado.", body["error"])
}

func TestVerify_ReissueInvalidatesPreviousCode(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, verifyDirectory(11, "Loja"))

	_, first := doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{
		"email": "x@example.com",
	}, "")
	firstCode := first["debug"].(map[string]any)["code"].(string)

	_, second := doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{
		"email": "x@example.com",
	}, "")
	secondCode := second["debug"].(map[string]any)["code"].(string)

	var count int64
	require.NoError(t, db.Model(&models.Verification{}).Where("user_id = ?", 11).Count(&count).Error)
	assert.EqualValues(t, 1, count, "at most one verification row per user")

	if firstCode != secondCode {
		status, body := doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{
			"email": "x@example.com",
			"code":  firstCode,
		}, "")
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Código inválido ou inexistente para este usuário.", body["error"])
	}
}

func TestVerify_CodeFormatIsGated(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, verifyDirectory(12, "Loja"))

	doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{"email": "y@example.com"}, "")

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{
		"email": "y@example.com",
		"code":  "12ab56",
	}, "")

	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "O código informado é inválido. Utilize 6 dígitos numéricos.", body["error"])
}

func TestVerify_SuccessRotatesSessions(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, verifyDirectory(13, "Loja"))

	_, issued := doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{
		"email": "z@example.com",
	}, "")
	code := issued["debug"].(map[string]any)["code"].(string)

	// Stale sessions that must be swept by the verification.
	seedSession(t, db, 13)
	seedSession(t, db, 13)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{
		"email": "z@example.com",
		"code":  code,
	}, "")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Conta verificada e sessão iniciada com sucesso.", body["message"])

	session, ok := body["session"].(map[string]any)
	require.True(t, ok)
	token, _ := session["token"].(string)
	assert.NotEmpty(t, token)
	assert.Nil(t, session["expiresAt"])

	var sessions []models.Session
	require.NoError(t, db.Where("user_id = ?", 13).Find(&sessions).Error)
	require.Len(t, sessions, 1, "exactly one live session after verification")
	assert.Equal(t, token, sessions[0].SessionToken)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", 13).Error)
	assert.True(t, user.IsVerified)

	var verifications int64
	require.NoError(t, db.Model(&models.Verification{}).Where("user_id = ?", 13).Count(&verifications).Error)
	assert.EqualValues(t, 0, verifications, "consumed code must be deleted")

	// Replays of the consumed code fail.
	status, body = doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{
		"email": "z@example.com",
		"code":  code,
	}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Código inválido ou inexistente para este usuário.", body["error"])
}

func TestVerify_ExpiredCodeIsDeleted(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, verifyDirectory(14, "Loja"))

	user := seedUser(t, db, 14, "w@example.com")
	verification := models.Verification{
		UserID:    user.ID,
		Token:     "123456",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&verification).Error)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{
		"email": "w@example.com",
		"code":  "123456",
	}, "")

	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Código expirado. Solicite um novo código.", body["error"])

	// The expired row is gone, so retrying now reports it as unknown.
	status, body = doJSON(t, app, http.MethodPost, "/api/auth/verify", map[string]any{
		"email": "w@example.com",
		"code":  "123456",
	}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Código inválido ou inexistente para este usuário.", body["error"])
}

func TestSession_TokenResolution(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, nil)

	user := seedUser(t, db, 20, "sess@example.com")
	token := seedSession(t, db, user.ID)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/session", map[string]any{
		"sessionToken": token,
	}, "")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Sessão válida.", body["message"])
	resolved := body["user"].(map[string]any)
	assert.EqualValues(t, 20, resolved["id"])
}

func TestSession_ExpiredTokenRejected(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, nil)

	user := seedUser(t, db, 21, "old@example.com")
	expired := time.Now().Add(-time.Hour)
	session := models.Session{UserID: user.ID, SessionToken: "expired-token", ExpiresAt: &expired}
	require.NoError(t, db.Create(&session).Error)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/session", map[string]any{
		"sessionToken": "expired-token",
	}, "")

	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Sessão expirada. Faça login novamente.", body["error"])
}

func TestSession_EmailOnlyIsForbidden(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, nil)

	seedUser(t, db, 22, "known@example.com")

	status, _ := doJSON(t, app, http.MethodPost, "/api/auth/session", map[string]any{
		"email": "known@example.com",
	}, "")
	require.Equal(t, http.StatusForbidden, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/session", map[string]any{
		"email": "unknown@example.com",
	}, "")
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Usuário não encontrado para o email informado.", body["error"])
}
