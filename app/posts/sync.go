package posts

import (
	"errors"

	"blog/app/models"
	"blog/app/search"
	"blog/core/emitter"
	"blog/core/logger"
	"blog/core/websocket"
)

// DocumentIndex is the part of the search index kept in step with posts
type DocumentIndex interface {
	Upsert(post *models.Post) error
	Delete(postId uint) error
}

// IndexSync mirrors post writes into the search index and pushes them to
// the admin live feed. Failures are logged and never reach the writer.
type IndexSync struct {
	Index  DocumentIndex
	Hub    *websocket.Hub
	Logger logger.Logger
}

func NewIndexSync(index DocumentIndex, hub *websocket.Hub, log logger.Logger) *IndexSync {
	return &IndexSync{Index: index, Hub: hub, Logger: log}
}

// Register subscribes the handlers to the post events
func (s *IndexSync) Register(e *emitter.Emitter) {
	e.On(SavePostEvent, s.OnSave)
	e.On(DeletePostEvent, s.OnDelete)
}

// OnSave upserts the search document of the saved post
func (s *IndexSync) OnSave(data any) {
	post, ok := data.(*models.Post)
	if !ok {
		s.Logger.Warn("unexpected payload for post save event")
		return
	}

	if s.Index != nil {
		if err := s.Index.Upsert(post); err != nil {
			s.Logger.Error("Error updating search document",
				logger.Uint("id", post.Id), logger.Err(err))
		} else {
			s.Logger.Debug("Search document updated", logger.Uint("id", post.Id))
		}
	}

	s.Hub.Broadcast(SavePostEvent, post.ToListResponse())
}

// OnDelete removes the search document of the deleted post. A document
// that is already gone is not an error.
func (s *IndexSync) OnDelete(data any) {
	post, ok := data.(*models.Post)
	if !ok {
		s.Logger.Warn("unexpected payload for post delete event")
		return
	}

	if s.Index != nil {
		err := s.Index.Delete(post.Id)
		switch {
		case err == nil:
			s.Logger.Debug("Search document deleted", logger.Uint("id", post.Id))
		case errors.Is(err, search.ErrDocumentNotFound):
			s.Logger.Warn("Search document not found, may have already been deleted",
				logger.Uint("id", post.Id))
		default:
			s.Logger.Error("Error deleting search document",
				logger.Uint("id", post.Id), logger.Err(err))
		}
	}

	s.Hub.Broadcast(DeletePostEvent, map[string]any{"id": post.Id, "title": post.Title})
}
