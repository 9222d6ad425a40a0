package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sorelly/internal/models"
)

func TestFavoriteAdd_Idempotent(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, nil)

	user := seedUser(t, db, 70, "fav70@example.com")
	token := seedSession(t, db, user.ID)

	status, body := doJSON(t, app, http.MethodPost, "/api/favorites", map[string]any{
		"productId": 42,
	}, token)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Produto adicionado aos favoritos com sucesso.", body["message"])

	status, body = doJSON(t, app, http.MethodPost, "/api/favorites", map[string]any{
		"productId": 42,
	}, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Produto já está favoritado.", body["message"])

	var count int64
	require.NoError(t, db.Model(&models.Favorite{}).
		Where("user_id = ? AND product_id = ?", user.ID, "42").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFavoriteAdd_IdentifierAliases(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, nil)

	user := seedUser(t, db, 71, "fav71@example.com")
	token := seedSession(t, db, user.ID)

	for _, payload := range []map[string]any{
		{"produtoId": 1},
		{"id": "2"},
		{"productId": " 3 "},
	} {
		status, _ := doJSON(t, app, http.MethodPost, "/api/favorites", payload, token)
		require.Equal(t, http.StatusCreated, status)
	}

	var favorites []models.Favorite
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&favorites).Error)
	ids := make([]string, 0, len(favorites))
	for _, favorite := range favorites {
		ids = append(ids, favorite.ProductID)
	}
	assert.ElementsMatch(t, []string{"1", "2", "3"}, ids)

	status, body := doJSON(t, app, http.MethodPost, "/api/favorites", map[string]any{}, token)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Informe um identificador válido para o produto.", body["error"])
}

func TestFavoriteList_NewestFirstCommaJoined(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, nil)

	user := seedUser(t, db, 72, "fav72@example.com")
	token := seedSession(t, db, user.ID)

	doJSON(t, app, http.MethodPost, "/api/favorites", map[string]any{"productId": 1}, token)
	time.Sleep(5 * time.Millisecond)
	doJSON(t, app, http.MethodPost, "/api/favorites", map[string]any{"productId": 2}, token)

	status, body := doJSON(t, app, http.MethodGet, "/api/favorites", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2,1", body["favoritos"])
}

func TestFavoriteList_EmptyIsEmptyString(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, nil)

	user := seedUser(t, db, 73, "fav73@example.com")
	token := seedSession(t, db, user.ID)

	status, body := doJSON(t, app, http.MethodGet, "/api/favorites", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", body["favoritos"])
}

func TestFavoriteRemove_NoOpTolerant(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, nil)

	user := seedUser(t, db, 74, "fav74@example.com")
	token := seedSession(t, db, user.ID)

	doJSON(t, app, http.MethodPost, "/api/favorites", map[string]any{"productId": 9}, token)

	status, body := doJSON(t, app, http.MethodDelete, "/api/favorites", map[string]any{"productId": 9}, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Produto removido dos favoritos com sucesso.", body["message"])

	status, body = doJSON(t, app, http.MethodDelete, "/api/favorites", map[string]any{"productId": 9}, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Produto não estava na lista de favoritos.", body["message"])
}

func TestFavorites_ScopedToUser(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db, nil)

	first := seedUser(t, db, 75, "fav75@example.com")
	second := seedUser(t, db, 76, "fav76@example.com")
	firstToken := seedSession(t, db, first.ID)
	secondToken := seedSession(t, db, second.ID)

	doJSON(t, app, http.MethodPost, "/api/favorites", map[string]any{"productId": 5}, firstToken)

	// Same product id favorited by both users stays two distinct rows.
	status, _ := doJSON(t, app, http.MethodPost, "/api/favorites", map[string]any{"productId": 5}, secondToken)
	require.Equal(t, http.StatusCreated, status)

	_, body := doJSON(t, app, http.MethodGet, "/api/favorites", nil, secondToken)
	assert.Equal(t, "5", body["favoritos"])
}
