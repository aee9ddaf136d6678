// Package main: repository layer setup.
package main

import (
	"github.com/Fasilurahman/TeamVerse-sub001/database"
	"github.com/Fasilurahman/TeamVerse-sub001/repository"
)

// Repositories holds every repository instance.
type Repositories struct {
	User         repository.UserRepository
	Chat         repository.ChatRepository
	Message      repository.MessageRepository
	Notification repository.NotificationRepository
}

// initRepositories builds the sqlite repositories on one shared pool.
func initRepositories(db *database.DB) *Repositories {
	return &Repositories{
		User:         repository.NewSQLiteUserRepo(db.Conn),
		Chat:         repository.NewSQLiteChatRepo(db.Conn),
		Message:      repository.NewSQLiteMessageRepo(db.Conn),
		Notification: repository.NewSQLiteNotificationRepo(db.Conn),
	}
}
