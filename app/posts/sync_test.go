package posts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"blog/app/models"
	"blog/app/search"
	"blog/core/emitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type fakeIndex struct {
	upserted  []uint
	deleted   []uint
	upsertErr error
	deleteErr error
}

func (f *fakeIndex) Upsert(post *models.Post) error {
	f.upserted = append(f.upserted, post.Id)
	return f.upsertErr
}

func (f *fakeIndex) Delete(postId uint) error {
	f.deleted = append(f.deleted, postId)
	return f.deleteErr
}

func TestIndexSyncHandlesEvents(t *testing.T) {
	log, logs := newObservedLogger()
	index := &fakeIndex{}
	e := emitter.New()
	NewIndexSync(index, nil, log).Register(e)

	e.Emit(SavePostEvent, &models.Post{Id: 7})
	e.Emit(DeletePostEvent, &models.Post{Id: 7})

	assert.Equal(t, []uint{7}, index.upserted)
	assert.Equal(t, []uint{7}, index.deleted)
	assert.Len(t, logs.FilterLevelExact(zapcore.DebugLevel).All(), 2)
}

func TestIndexSyncLogsFailures(t *testing.T) {
	log, logs := newObservedLogger()
	index := &fakeIndex{
		upsertErr: errors.New("index is read only"),
		deleteErr: errors.New("index closed"),
	}
	sync := NewIndexSync(index, nil, log)

	assert.NotPanics(t, func() {
		sync.OnSave(&models.Post{Id: 3})
		sync.OnDelete(&models.Post{Id: 3})
	})

	errorsLogged := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errorsLogged, 2)
	assert.Equal(t, "Error updating search document", errorsLogged[0].Message)
	assert.Equal(t, "Error deleting search document", errorsLogged[1].Message)
}

func TestIndexSyncMissingDocumentIsAWarning(t *testing.T) {
	log, logs := newObservedLogger()
	index := &fakeIndex{deleteErr: fmt.Errorf("delete 9: %w", search.ErrDocumentNotFound)}

	NewIndexSync(index, nil, log).OnDelete(&models.Post{Id: 9})

	warnings := logs.FilterMessageSnippet("may have already been deleted").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
	assert.Empty(t, logs.FilterLevelExact(zapcore.ErrorLevel).All())
}

func TestIndexSyncIgnoresUnexpectedPayload(t *testing.T) {
	log, logs := newObservedLogger()
	index := &fakeIndex{}
	sync := NewIndexSync(index, nil, log)

	sync.OnSave("not a post")
	sync.OnDelete(nil)

	assert.Empty(t, index.upserted)
	assert.Empty(t, index.deleted)
	assert.Len(t, logs.FilterLevelExact(zapcore.WarnLevel).All(), 2)
}

func TestDeleteSucceedsWhenDocumentAlreadyGone(t *testing.T) {
	env := newTestEnv(t)
	post := env.createPost(t, "Already gone", models.StatusPublished, time.Time{})
	require.NoError(t, env.index.Delete(post.Id))

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/admin/posts/%d", post.Id), nil)
	requireStatus(t, w, http.StatusOK)

	assert.Len(t, env.logs.FilterMessageSnippet("may have already been deleted").All(), 1)

	_, err := env.module.Service.GetById(context.Background(), post.Id)
	assert.Error(t, err)
}
