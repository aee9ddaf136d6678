package realtime

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Fasilurahman/TeamVerse-sub001/apiclient"
	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

// MessageCreator persists a message through the REST backend.
type MessageCreator interface {
	CreateMessage(ctx context.Context, chatID, content string, file *apiclient.File) (*models.Message, error)
}

// Draft is what the user composed. Submit never modifies it, so a failed
// send can be retried with the same value. An attachment counts when it
// has data; a nameless one is uploaded under a default name.
type Draft struct {
	ChannelID  string
	Text       string
	Attachment *apiclient.File
}

func (d Draft) hasAttachment() bool {
	return d.Attachment != nil && len(d.Attachment.Data) > 0
}

// Submitter sends drafts: one REST create, then the confirmed message is
// mirrored onto the push channel so every subscriber converges on it.
type Submitter struct {
	api     MessageCreator
	emitter Emitter

	// local receives the confirmed message when the push channel is down.
	local func(ws.Event) bool
}

// NewSubmitter creates a submitter. local may be nil.
func NewSubmitter(api MessageCreator, emitter Emitter, local func(ws.Event) bool) *Submitter {
	return &Submitter{api: api, emitter: emitter, local: local}
}

// Submit validates d, creates the message and mirrors it. Nothing is
// added to local state before the server confirms.
func (s *Submitter) Submit(ctx context.Context, d Draft) (*models.Message, error) {
	channel := strings.TrimSpace(d.ChannelID)
	if channel == "" {
		return nil, ErrChannelRequired
	}
	text := strings.TrimSpace(d.Text)
	if text == "" && !d.hasAttachment() {
		return nil, ErrEmptyMessage
	}

	var file *apiclient.File
	if d.hasAttachment() {
		file = d.Attachment
	}

	msg, err := s.api.CreateMessage(ctx, channel, text, file)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	ev := ws.Event{Op: ws.OpMessage, Data: ws.MessageData{ChannelID: channel, Message: *msg}}
	if err := s.emitter.Emit(ev.Op, ev.Data); err != nil {
		log.Printf("[realtime] message %s saved but not mirrored: %v", msg.ID, err)
		if s.local != nil {
			s.local(ev)
		}
	}
	return msg, nil
}
