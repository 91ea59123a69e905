package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/userhub/internal/config"
	"github.com/dtroode/userhub/internal/idgen"
	"github.com/dtroode/userhub/internal/mocks"
	"github.com/dtroode/userhub/internal/model"
	"github.com/dtroode/userhub/internal/testutil"
)

const testBaseURL = "http://localhost:8000"

type pictureFixture struct {
	svc   *Picture
	store *testutil.MemoryStore
	users *mocks.UserStore
}

func newPictureFixture(t *testing.T) pictureFixture {
	store := testutil.NewMemoryStore()
	users := mocks.NewUserStore(t)
	validator := NewImageValidator(config.Upload{
		MaxSize:      5 * 1024 * 1024,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif"},
	})
	svc := NewPicture(store, users, validator, idgen.New(), testBaseURL+"/", testutil.MakeNoopLogger())
	return pictureFixture{svc: svc, store: store, users: users}
}

func (f pictureFixture) expectSuccessfulPersist(userID uuid.UUID) {
	f.users.On("GetByID", mock.Anything, userID).Return(model.User{ID: userID}, nil)
	f.users.On("UpdateProfilePicture", mock.Anything, userID, mock.AnythingOfType("string")).
		Return(func(_ context.Context, id uuid.UUID, url string) (model.User, error) {
			return model.User{ID: id, ProfilePictureURL: &url, Role: model.RoleAuthenticated}, nil
		})
}

func archiveKeys(keys []string) []string {
	var out []string
	for _, k := range keys {
		if strings.Contains(k, "/archive/") {
			out = append(out, k)
		}
	}
	return out
}

func TestPicture_Upload_SelfSuccess(t *testing.T) {
	f := newPictureFixture(t)
	u1 := uuid.New()
	f.expectSuccessfulPersist(u1)

	data := testutil.MakeJPEG(96, 96)
	user, err := f.svc.Upload(context.Background(),
		model.Principal{UserID: u1, Role: model.RoleAuthenticated},
		model.UploadRequest{UserID: u1, Filename: "me.jpg", ContentType: "image/jpeg", Data: data})
	require.NoError(t, err)

	require.NotNil(t, user.ProfilePictureURL)
	assert.Equal(t, testBaseURL+"/profiles/"+u1.String()+"/picture", *user.ProfilePictureURL)

	keys := f.store.Keys()
	require.Len(t, keys, 2)
	active := ActiveKey(u1, ".jpg")
	assert.Contains(t, keys, active)
	archived := archiveKeys(keys)
	require.Len(t, archived, 1)
	assert.True(t, strings.HasPrefix(archived[0], u1.String()+"/archive/profile_"))
	assert.True(t, strings.HasSuffix(archived[0], ".jpg"))

	stored, _ := f.store.Data(active)
	assert.Equal(t, data, stored)
	// Archive is written before the active slot.
	assert.Equal(t, []string{archived[0], active}, f.store.Puts)
}

func TestPicture_Upload_OtherUserForbidden(t *testing.T) {
	f := newPictureFixture(t)
	u1, u2 := uuid.New(), uuid.New()

	_, err := f.svc.Upload(context.Background(),
		model.Principal{UserID: u2, Role: model.RoleAuthenticated},
		model.UploadRequest{UserID: u1, Filename: "me.jpg", ContentType: "image/jpeg", Data: testutil.MakeJPEG(32, 32)})

	var authErr *model.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, f.store.Keys())
	assert.Zero(t, f.store.EnsureCalled)
}

func TestPicture_Upload_OversizeRejectedBeforeStorage(t *testing.T) {
	f := newPictureFixture(t)
	admin, target := uuid.New(), uuid.New()

	_, err := f.svc.Upload(context.Background(),
		model.Principal{UserID: admin, Role: model.RoleAdmin},
		model.UploadRequest{UserID: target, Filename: "big.jpg", ContentType: "image/jpeg", Data: bytes.Repeat([]byte{1}, 10*1024*1024)})

	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, model.ConstraintOversize, vErr.Constraint)
	assert.Empty(t, f.store.Keys())
	assert.Zero(t, f.store.EnsureCalled)
}

func TestPicture_Upload_StaffOnOtherUser(t *testing.T) {
	for _, role := range []model.Role{model.RoleManager, model.RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			f := newPictureFixture(t)
			target := uuid.New()
			f.expectSuccessfulPersist(target)

			_, err := f.svc.Upload(context.Background(),
				model.Principal{UserID: uuid.New(), Role: role},
				model.UploadRequest{UserID: target, Filename: "p.png", ContentType: "image/png", Data: testutil.MakePNG(20, 20)})
			require.NoError(t, err)
			assert.Len(t, f.store.Keys(), 2)
		})
	}
}

func TestPicture_Upload_RepeatedUploadsAccumulateArchive(t *testing.T) {
	f := newPictureFixture(t)
	u1 := uuid.New()
	f.expectSuccessfulPersist(u1)
	actor := model.Principal{UserID: u1, Role: model.RoleAuthenticated}
	data := testutil.MakePNG(24, 24)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Upload(context.Background(), actor,
			model.UploadRequest{UserID: u1, Filename: "p.png", ContentType: "image/png", Data: data})
		require.NoError(t, err)
	}

	keys := f.store.Keys()
	archived := archiveKeys(keys)
	assert.Len(t, archived, 3)
	assert.Len(t, keys, 4)
	seen := map[string]bool{}
	for _, k := range archived {
		assert.False(t, seen[k])
		seen[k] = true
	}
}

func TestPicture_Upload_ExtensionChangeKeepsSingleActive(t *testing.T) {
	f := newPictureFixture(t)
	u1 := uuid.New()
	f.expectSuccessfulPersist(u1)
	actor := model.Principal{UserID: u1, Role: model.RoleAuthenticated}

	_, err := f.svc.Upload(context.Background(), actor,
		model.UploadRequest{UserID: u1, Filename: "a.png", ContentType: "image/png", Data: testutil.MakePNG(16, 16)})
	require.NoError(t, err)
	latest := testutil.MakeGIF(16, 16)
	_, err = f.svc.Upload(context.Background(), actor,
		model.UploadRequest{UserID: u1, Filename: "b.gif", ContentType: "image/gif", Data: latest})
	require.NoError(t, err)

	var active []string
	for _, k := range f.store.Keys() {
		if strings.HasPrefix(k, u1.String()+"/profile.") {
			active = append(active, k)
		}
	}
	assert.Equal(t, []string{ActiveKey(u1, ".gif")}, active)
	assert.Len(t, archiveKeys(f.store.Keys()), 2)

	obj, err := f.svc.Open(context.Background(), u1)
	require.NoError(t, err)
	defer obj.Body.Close()
	got, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, latest, got)
	assert.Equal(t, "image/gif", obj.ContentType)
}

// rendezvousStore holds the first `parties` callers listing active pictures until
// all of them have arrived, so concurrent uploads clean up against each other's
// freshly written active keys.
type rendezvousStore struct {
	*testutil.MemoryStore
	parties int32
	arrived atomic.Int32
	all     chan struct{}
}

func newRendezvousStore(parties int32) *rendezvousStore {
	return &rendezvousStore{MemoryStore: testutil.NewMemoryStore(), parties: parties, all: make(chan struct{})}
}

func (r *rendezvousStore) List(ctx context.Context, prefix string) ([]model.ObjectInfo, error) {
	if strings.Contains(prefix, "/profile.") {
		n := r.arrived.Add(1)
		if n == r.parties {
			close(r.all)
		}
		if n <= r.parties {
			select {
			case <-r.all:
			case <-time.After(2 * time.Second):
			}
		}
	}
	return r.MemoryStore.List(ctx, prefix)
}

func TestPicture_Upload_ConcurrentUploadsKeepOneActive(t *testing.T) {
	tests := []struct {
		name  string
		first model.UploadRequest
		other model.UploadRequest
	}{
		{
			name:  "same extension",
			first: model.UploadRequest{Filename: "a.png", ContentType: "image/png", Data: testutil.MakePNG(16, 16)},
			other: model.UploadRequest{Filename: "b.png", ContentType: "image/png", Data: testutil.MakePNG(24, 24)},
		},
		{
			name:  "different extensions",
			first: model.UploadRequest{Filename: "a.jpg", ContentType: "image/jpeg", Data: testutil.MakeJPEG(16, 16)},
			other: model.UploadRequest{Filename: "b.png", ContentType: "image/png", Data: testutil.MakePNG(24, 24)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u1 := uuid.New()
			store := newRendezvousStore(2)
			users := mocks.NewUserStore(t)
			validator := NewImageValidator(config.Upload{
				MaxSize:      5 * 1024 * 1024,
				AllowedTypes: []string{"image/jpeg", "image/png", "image/gif"},
			})
			svc := NewPicture(store, users, validator, idgen.New(), testBaseURL, testutil.MakeNoopLogger())
			pictureFixture{users: users}.expectSuccessfulPersist(u1)
			actor := model.Principal{UserID: u1, Role: model.RoleAuthenticated}

			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i, req := range []model.UploadRequest{tt.first, tt.other} {
				req.UserID = u1
				wg.Add(1)
				go func(i int, req model.UploadRequest) {
					defer wg.Done()
					_, errs[i] = svc.Upload(context.Background(), actor, req)
				}(i, req)
			}
			wg.Wait()
			require.NoError(t, errs[0])
			require.NoError(t, errs[1])

			keys := store.Keys()
			assert.Len(t, archiveKeys(keys), 2, "both archive entries survive")

			var active []string
			for _, k := range keys {
				if strings.HasPrefix(k, u1.String()+"/profile.") {
					active = append(active, k)
				}
			}
			require.Len(t, active, 1, "exactly one active key, got %v", keys)

			// The last active write wins.
			var lastActive string
			for _, k := range store.Puts {
				if strings.HasPrefix(k, u1.String()+"/profile.") {
					lastActive = k
				}
			}
			assert.Equal(t, lastActive, active[0])

			obj, err := svc.Open(context.Background(), u1)
			require.NoError(t, err)
			defer obj.Body.Close()
			got, err := io.ReadAll(obj.Body)
			require.NoError(t, err)
			want, _ := store.Data(active[0])
			assert.Equal(t, want, got)
		})
	}
}

func TestPicture_Upload_UserNotFound(t *testing.T) {
	f := newPictureFixture(t)
	u1 := uuid.New()
	f.users.On("GetByID", mock.Anything, u1).Return(model.User{}, model.ErrNotFound)

	_, err := f.svc.Upload(context.Background(),
		model.Principal{UserID: uuid.New(), Role: model.RoleAdmin},
		model.UploadRequest{UserID: u1, Filename: "p.png", ContentType: "image/png", Data: testutil.MakePNG(16, 16)})
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, f.store.Keys())
}

func TestPicture_Upload_StorageFailures(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*testutil.MemoryStore)
		wantOp    string
		wantKeys  int
	}{
		{
			name:      "bucket unavailable",
			configure: func(s *testutil.MemoryStore) { s.EnsureErr = errors.New("dial tcp: connection refused") },
			wantOp:    "ensure_bucket",
		},
		{
			name: "archive write fails",
			configure: func(s *testutil.MemoryStore) {
				s.PutErr = func(string) error { return errors.New("boom") }
			},
			wantOp: "put_archive",
		},
		{
			name: "active write fails after archive",
			configure: func(s *testutil.MemoryStore) {
				s.PutErr = func(key string) error {
					if strings.Contains(key, "/archive/") {
						return nil
					}
					return errors.New("boom")
				}
			},
			wantOp:   "put_active",
			wantKeys: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPictureFixture(t)
			u1 := uuid.New()
			f.users.On("GetByID", mock.Anything, u1).Return(model.User{ID: u1}, nil)
			tt.configure(f.store)

			_, err := f.svc.Upload(context.Background(),
				model.Principal{UserID: u1, Role: model.RoleAuthenticated},
				model.UploadRequest{UserID: u1, Filename: "p.png", ContentType: "image/png", Data: testutil.MakePNG(16, 16)})

			var sErr *model.StorageError
			require.ErrorAs(t, err, &sErr)
			assert.Equal(t, tt.wantOp, sErr.Op)
			assert.Len(t, f.store.Keys(), tt.wantKeys)
			f.users.AssertNotCalled(t, "UpdateProfilePicture", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPicture_Upload_PersistenceFailureLogsOrphans(t *testing.T) {
	store := testutil.NewMemoryStore()
	users := mocks.NewUserStore(t)
	log, buf := testutil.MakeCapturingLogger()
	svc := NewPicture(store, users, newTestValidator(), idgen.New(), testBaseURL, log)
	u1 := uuid.New()

	users.On("GetByID", mock.Anything, u1).Return(model.User{ID: u1}, nil)
	users.On("UpdateProfilePicture", mock.Anything, u1, mock.Anything).Return(model.User{}, errors.New("connection reset"))

	_, err := svc.Upload(context.Background(),
		model.Principal{UserID: u1, Role: model.RoleAuthenticated},
		model.UploadRequest{UserID: u1, Filename: "p.png", ContentType: "image/png", Data: testutil.MakePNG(16, 16)})

	var pErr *model.PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, u1, pErr.UserID)
	assert.Len(t, store.Keys(), 2)
	assert.Contains(t, buf.String(), "orphaned profile picture objects")
	assert.Contains(t, buf.String(), u1.String())
}

func TestPicture_Upload_PersistenceNotFound(t *testing.T) {
	f := newPictureFixture(t)
	u1 := uuid.New()
	f.users.On("GetByID", mock.Anything, u1).Return(model.User{ID: u1}, nil)
	f.users.On("UpdateProfilePicture", mock.Anything, u1, mock.Anything).Return(model.User{}, model.ErrNotFound)

	_, err := f.svc.Upload(context.Background(),
		model.Principal{UserID: u1, Role: model.RoleAuthenticated},
		model.UploadRequest{UserID: u1, Filename: "p.png", ContentType: "image/png", Data: testutil.MakePNG(16, 16)})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestPicture_History(t *testing.T) {
	f := newPictureFixture(t)
	u1 := uuid.New()
	f.expectSuccessfulPersist(u1)
	actor := model.Principal{UserID: u1, Role: model.RoleAuthenticated}

	for i := 0; i < 2; i++ {
		_, err := f.svc.Upload(context.Background(), actor,
			model.UploadRequest{UserID: u1, Filename: "p.png", ContentType: "image/png", Data: testutil.MakePNG(16, 16)})
		require.NoError(t, err)
	}

	history, err := f.svc.History(context.Background(), actor, u1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Greater(t, history[0].Key, history[1].Key)
	assert.False(t, history[0].UploadedAt.IsZero())

	_, err = f.svc.History(context.Background(), model.Principal{UserID: uuid.New(), Role: model.RoleAuthenticated}, u1)
	var authErr *model.AuthorizationError
	assert.ErrorAs(t, err, &authErr)
}

func TestPicture_Open_NoPicture(t *testing.T) {
	f := newPictureFixture(t)
	_, err := f.svc.Open(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestKeys(t *testing.T) {
	id := uuid.MustParse("6f1c2a52-4b8e-4d8e-9b1e-0c2d3e4f5a6b")
	assert.Equal(t, "6f1c2a52-4b8e-4d8e-9b1e-0c2d3e4f5a6b/profile.jpg", ActiveKey(id, ".jpg"))
	assert.Equal(t, "6f1c2a52-4b8e-4d8e-9b1e-0c2d3e4f5a6b/archive/profile_01HX.png", ArchiveKey(id, "01HX", ".png"))
	assert.Equal(t, "01HX", archiveStamp(ArchiveKey(id, "01HX", ".png")))
}
