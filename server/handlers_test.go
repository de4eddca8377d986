package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ajnadfm/config"
	"ajnadfm/core/auth"
	"ajnadfm/core/catalog"
	"ajnadfm/core/favorites"
	"ajnadfm/core/playback"
	"ajnadfm/model"
)

// fakeNasheedRepo is an in-memory NasheedRepository.
type fakeNasheedRepo struct {
	rows []model.Nasheed
	err  error
}

func (f *fakeNasheedRepo) Create(_ context.Context, n *model.Nasheed) error {
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeNasheedRepo) GetByID(_ context.Context, id string) (*model.Nasheed, error) {
	for _, row := range f.rows {
		if row.ID == id {
			r := row
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeNasheedRepo) Search(_ context.Context, _ string, limit int) ([]model.Nasheed, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeNasheedRepo) SearchPage(_ context.Context, _ string, offset, limit int) ([]model.Nasheed, error) {
	if f.err != nil {
		return nil, f.err
	}
	if offset >= len(f.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return f.rows[offset:end], nil
}

func (f *fakeNasheedRepo) Delete(_ context.Context, _ string) error { return nil }

// fakeFavRepo is an in-memory favorites.Repo.
type fakeFavRepo struct {
	rows map[string]model.Favorite
}

func newFakeFavRepo() *fakeFavRepo {
	return &fakeFavRepo{rows: make(map[string]model.Favorite)}
}

func (f *fakeFavRepo) ListByUser(_ context.Context, userID int64) ([]model.Favorite, error) {
	var out []model.Favorite
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeFavRepo) Find(_ context.Context, userID int64, nasheedID string) (*model.Favorite, error) {
	for _, row := range f.rows {
		if row.UserID == userID && row.NasheedID == nasheedID {
			r := row
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeFavRepo) Create(_ context.Context, fav *model.Favorite) error {
	f.rows[fav.ID] = *fav
	return nil
}

func (f *fakeFavRepo) Delete(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func newTestHandler(nasheedRepo *fakeNasheedRepo) *APIHandler {
	favService := favorites.NewService(newFakeFavRepo(), nil)
	cfg := &config.Config{CatalogLimit: 200}
	return NewAPIHandler(nasheedRepo, nil, favService, nil, nil, nil, cfg)
}

func TestCatalogFnDefaults(t *testing.T) {
	repo := &fakeNasheedRepo{rows: []model.Nasheed{
		{ID: "1", Title: "Dawn", Artist: "Fursan"},
		{ID: "2", Title: "Night", Artist: "Ensemble"},
	}}
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodPost, "/functions/nasheeds", nil)
	rec := httptest.NewRecorder()
	h.CatalogFnHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []model.Nasheed `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
}

func TestCatalogFnPaging(t *testing.T) {
	repo := &fakeNasheedRepo{rows: []model.Nasheed{
		{ID: "1"}, {ID: "2"}, {ID: "3"},
	}}
	h := newTestHandler(repo)

	payload, _ := json.Marshal(CatalogFnRequest{Page: 2, Limit: 2})
	req := httptest.NewRequest(http.MethodPost, "/functions/nasheeds", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.CatalogFnHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []model.Nasheed `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "3", body.Data[0].ID)
}

func TestCatalogFnQueryError(t *testing.T) {
	h := newTestHandler(&fakeNasheedRepo{err: assert.AnError})

	req := httptest.NewRequest(http.MethodPost, "/functions/nasheeds", nil)
	rec := httptest.NewRecorder()
	h.CatalogFnHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestFavoritesToggleWithoutSession(t *testing.T) {
	h := newTestHandler(&fakeNasheedRepo{})

	payload, _ := json.Marshal(FavoritesFnRequest{Action: "toggle", NasheedID: "n1"})
	req := httptest.NewRequest(http.MethodPost, "/functions/favorites", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.FavoritesFnHandler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_REQUIRED")
}

func TestFavoritesToggleWithSession(t *testing.T) {
	auth.InitJWT("test-secret")
	h := newTestHandler(&fakeNasheedRepo{})

	token, err := auth.GenerateToken(7, "ali", "ali@example.com")
	require.NoError(t, err)

	do := func() *httptest.ResponseRecorder {
		payload, _ := json.Marshal(FavoritesFnRequest{Action: "toggle", NasheedID: "n1"})
		req := httptest.NewRequest(http.MethodPost, "/functions/favorites", bytes.NewReader(payload))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.OptionalAuthMiddleware(h.FavoritesFnHandler)(rec, req)
		return rec
	}

	rec := do()
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body["favored"])

	rec = do()
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body["favored"], "a second toggle removes the mark")
}

func TestFavoritesListAnonymousIsEmpty(t *testing.T) {
	h := newTestHandler(&fakeNasheedRepo{})

	req := httptest.NewRequest(http.MethodGet, "/functions/favorites", nil)
	rec := httptest.NewRecorder()
	h.FavoritesFnHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []struct {
			ID        string `json:"id"`
			NasheedID string `json:"nasheed_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Data)
}

func TestFavoritesUnknownAction(t *testing.T) {
	h := newTestHandler(&fakeNasheedRepo{})

	payload, _ := json.Marshal(FavoritesFnRequest{Action: "purge"})
	req := httptest.NewRequest(http.MethodPost, "/functions/favorites", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.FavoritesFnHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetNasheedsIncludesDurationText(t *testing.T) {
	d := 247
	repo := &fakeNasheedRepo{rows: []model.Nasheed{
		{ID: "1", Title: "Dawn", Duration: &d},
		{ID: "2", Title: "Night"},
	}}
	h := newTestHandler(repo)
	h.resolver = catalog.NewResolver(catalog.DBSource(repo))

	req := httptest.NewRequest(http.MethodGet, "/api/nasheeds", nil)
	rec := httptest.NewRecorder()
	h.GetNasheedsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []struct {
			ID           string `json:"id"`
			DurationText string `json:"duration_text"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "4:07", body.Data[0].DurationText)
	assert.Equal(t, "0:00", body.Data[1].DurationText)
}

func TestFavoriteCheckerAnonymousUsesLocalStore(t *testing.T) {
	store, err := favorites.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	_, err = store.Toggle("n1")
	require.NoError(t, err)

	h := newTestHandler(&fakeNasheedRepo{})
	h.localFavs = store

	isFav := h.favoriteChecker(context.Background(), 0)
	assert.True(t, isFav("n1"))
	assert.False(t, isFav("n2"))
}

func TestFavoriteCheckerSignedInUsesBackend(t *testing.T) {
	favRepo := newFakeFavRepo()
	require.NoError(t, favRepo.Create(context.Background(), &model.Favorite{ID: "f1", UserID: 7, NasheedID: "n1"}))

	h := newTestHandler(&fakeNasheedRepo{})
	h.favService = favorites.NewService(favRepo, nil)

	isFav := h.favoriteChecker(context.Background(), 7)
	assert.True(t, isFav("n1"))
	assert.False(t, isFav("n2"))
}

func TestFavoriteCheckerWithoutLocalStore(t *testing.T) {
	h := newTestHandler(&fakeNasheedRepo{})

	isFav := h.favoriteChecker(context.Background(), 0)
	assert.False(t, isFav("n1"))
}

func TestToggleFavoriteAnonymousWritesLocalStore(t *testing.T) {
	store, err := favorites.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	h := newTestHandler(&fakeNasheedRepo{})
	h.localFavs = store

	favored, err := h.toggleFavorite(context.Background(), 0, "n1")
	require.NoError(t, err)
	assert.True(t, favored)
	assert.True(t, store.Has("n1"))

	favored, err = h.toggleFavorite(context.Background(), 0, "n1")
	require.NoError(t, err)
	assert.False(t, favored)
	assert.False(t, store.Has("n1"))
}

func TestToggleFavoriteSignedInUsesBackend(t *testing.T) {
	favRepo := newFakeFavRepo()
	h := newTestHandler(&fakeNasheedRepo{})
	h.favService = favorites.NewService(favRepo, nil)

	favored, err := h.toggleFavorite(context.Background(), 7, "n1")
	require.NoError(t, err)
	assert.True(t, favored)
	assert.Len(t, favRepo.rows, 1)
}

func TestVisibleSelection(t *testing.T) {
	session := playback.NewSession(nil)
	defer session.Close()

	tracks := []model.Nasheed{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	isFav := func(id string) bool { return id == "b" || id == "c" }

	// Filter off: rows and index pass through untouched.
	visible, index := visibleSelection(session, tracks, 2, isFav)
	assert.Len(t, visible, 3)
	assert.Equal(t, 2, index)

	session.ToggleFavoritesOnly()

	// The selected track keeps its position in the filtered view.
	visible, index = visibleSelection(session, tracks, 2, isFav)
	require.Len(t, visible, 2)
	assert.Equal(t, 1, index)
	assert.Equal(t, "c", visible[index].ID)

	// A selection filtered out falls back to the front.
	visible, index = visibleSelection(session, tracks, 0, isFav)
	require.Len(t, visible, 2)
	assert.Equal(t, 0, index)
	assert.Equal(t, "b", visible[index].ID)

	// Out-of-range indexes pass through for the queue to reject.
	visible, index = visibleSelection(session, tracks, 9, isFav)
	assert.Len(t, visible, 3)
	assert.Equal(t, 9, index)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	auth.InitJWT("test-secret")
	h := newTestHandler(&fakeNasheedRepo{})

	protected := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	protected(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	protected(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.GenerateToken(7, "ali", "ali@example.com")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	protected(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
