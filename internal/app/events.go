package app

import "github.com/dkeye/auxroom/internal/domain"

// Outbound event envelopes. Every frame carries a "type" discriminator;
// clients switch on it.

type UserJoinedEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

func userJoined(username string) UserJoinedEvent {
	return UserJoinedEvent{Type: "user_joined", Username: username}
}

type UserLeftEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

func userLeft(username string) UserLeftEvent {
	return UserLeftEvent{Type: "user_left", Username: username}
}

type QueueUpdatedEvent struct {
	Type  string         `json:"type"`
	Queue []domain.Track `json:"queue"`
}

func queueUpdated(queue []domain.Track) QueueUpdatedEvent {
	if queue == nil {
		queue = []domain.Track{}
	}
	return QueueUpdatedEvent{Type: "queue_updated", Queue: queue}
}

type ReceiveMessageEvent struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}
