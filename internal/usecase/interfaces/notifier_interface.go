package interfaces

import "associacao_pagamentos/internal/domain/entities"

// INotifier hands notifications to a background dispatcher. Enqueue must not
// block; it reports false when the notification was dropped.
type INotifier interface {
	Enqueue(n entities.Notification) bool
}
