package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ajnadfm/model"
)

// fakeRepo is an in-memory Repo.
type fakeRepo struct {
	rows    map[string]model.Favorite // keyed by favorite id
	findErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]model.Favorite)}
}

func (f *fakeRepo) ListByUser(_ context.Context, userID int64) ([]model.Favorite, error) {
	var out []model.Favorite
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeRepo) Find(_ context.Context, userID int64, nasheedID string) (*model.Favorite, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, row := range f.rows {
		if row.UserID == userID && row.NasheedID == nasheedID {
			r := row
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) Create(_ context.Context, fav *model.Favorite) error {
	f.rows[fav.ID] = *fav
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

// fakeFn is a scriptable peer function.
type fakeFn struct {
	listRows   []model.Favorite
	listErr    error
	toggleFav  bool
	toggleErr  error
	toggleSeen int
}

func (f *fakeFn) List(_ context.Context, _ string) ([]model.Favorite, error) {
	return f.listRows, f.listErr
}

func (f *fakeFn) Toggle(_ context.Context, _, _ string) (bool, error) {
	f.toggleSeen++
	return f.toggleFav, f.toggleErr
}

func TestToggleRequiresAuth(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.Toggle(context.Background(), 0, "", "n1")
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestListMapEmptyWithoutSession(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	m, err := svc.ListMap(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestToggleDoubleReturnsToOriginal(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	fav, err := svc.Toggle(ctx, 7, "", "n1")
	require.NoError(t, err)
	assert.True(t, fav)

	m, err := svc.ListMap(ctx, 7, "")
	require.NoError(t, err)
	assert.Contains(t, m, "n1")

	fav, err = svc.Toggle(ctx, 7, "", "n1")
	require.NoError(t, err)
	assert.False(t, fav)

	m, err = svc.ListMap(ctx, 7, "")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestTogglePrefersFn(t *testing.T) {
	repo := newFakeRepo()
	fn := &fakeFn{toggleFav: true}
	svc := NewService(repo, fn)

	fav, err := svc.Toggle(context.Background(), 7, "token", "n1")
	require.NoError(t, err)
	assert.True(t, fav)
	assert.Equal(t, 1, fn.toggleSeen)
	assert.Empty(t, repo.rows, "a successful function toggle skips the table")
}

func TestToggleFallsBackWhenFnFails(t *testing.T) {
	repo := newFakeRepo()
	fn := &fakeFn{toggleErr: errors.New("function down")}
	svc := NewService(repo, fn)

	fav, err := svc.Toggle(context.Background(), 7, "token", "n1")
	require.NoError(t, err)
	assert.True(t, fav)
	assert.Len(t, repo.rows, 1)
}

func TestToggleSkipsFnWithoutToken(t *testing.T) {
	repo := newFakeRepo()
	fn := &fakeFn{toggleFav: true}
	svc := NewService(repo, fn)

	_, err := svc.Toggle(context.Background(), 7, "", "n1")
	require.NoError(t, err)
	assert.Zero(t, fn.toggleSeen)
	assert.Len(t, repo.rows, 1)
}

func TestListMapPrefersFn(t *testing.T) {
	repo := newFakeRepo()
	fn := &fakeFn{listRows: []model.Favorite{{ID: "f1", UserID: 7, NasheedID: "n1"}}}
	svc := NewService(repo, fn)

	m, err := svc.ListMap(context.Background(), 7, "token")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"n1": "f1"}, m)
}

func TestListMapFallsBackWhenFnFails(t *testing.T) {
	repo := newFakeRepo()
	require.NoError(t, repo.Create(context.Background(), &model.Favorite{ID: "f2", UserID: 7, NasheedID: "n2"}))
	fn := &fakeFn{listErr: errors.New("function down")}
	svc := NewService(repo, fn)

	m, err := svc.ListMap(context.Background(), 7, "token")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"n2": "f2"}, m)
}

func TestTogglePropagatesRepoErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = errors.New("table gone")
	svc := NewService(repo, nil)

	_, err := svc.Toggle(context.Background(), 7, "", "n1")
	assert.Error(t, err)
}
