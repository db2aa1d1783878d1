package core

import (
	"time"
)

// EntryType distinguishes the two kinds of journal check-in.
type EntryType string

const (
	EntryQuickThought    EntryType = "quick_thought"
	EntryDailyReflection EntryType = "daily_reflection"
)

// Points awarded per check-in kind.
const (
	QuickThoughtPoints = 1
	ReflectionPoints   = 2
)

// MeditationContext records which guided meditation preceded a reflection.
type MeditationContext struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration"`
}

// TriageAnswers holds the answers given before a meditation is suggested.
type TriageAnswers struct {
	ThoughtCategories []string `json:"thoughtCategories,omitempty"`
	Thought           string   `json:"thought,omitempty"`
	BodyLocations     []string `json:"bodyLocations,omitempty"`
}

// Entry is a journal entry owned by one author.
type Entry struct {
	ID          string
	AuthorID    string
	Text        string
	Moods       []string
	Categories  []string
	Type        EntryType
	CreatedAt   time.Time
	CreatedDate string
	Meditation  *MeditationContext
	Triage      *TriageAnswers
	Tags        []string
	PhotoURL    string
}

// CapsuleStatus represents the lifecycle state of a time capsule.
type CapsuleStatus string

const (
	CapsuleSealed CapsuleStatus = "sealed"
	CapsuleOpened CapsuleStatus = "opened"
)

// Capsule is a message to the author's future self.
type Capsule struct {
	ID                string
	AuthorID          string
	Text              string
	Moods             []string
	Categories        []string
	IncludeReply      bool
	ReplyText         string
	Status            CapsuleStatus
	CreatedAt         time.Time
	OpenDate          time.Time
	OpenedAt          *time.Time
	RepliedAt         *time.Time
	OpenedPrematurely bool
}

// PlantType is a catalog entry describing a plant that can be grown.
type PlantType struct {
	ID            string `toml:"id"`
	Name          string `toml:"name"`
	Description   string `toml:"description"`
	PointsToBloom int    `toml:"points_to_bloom"`
	Difficulty    string `toml:"difficulty,omitempty"`
	Rarity        string `toml:"rarity,omitempty"`
	StorageFolder string `toml:"storage_folder,omitempty"`
	IsActive      bool   `toml:"is_active"`
}

// CurrentPlant is the plant a user is growing right now.
// Revision increases on every save and guards compare-and-swap updates.
type CurrentPlant struct {
	UserID        string
	PlantID       string
	CurrentPoints int
	MaxPoints     int
	StartedAt     time.Time
	Revision      int64
}

// CompletedPlant is an immutable record of a bloom.
type CompletedPlant struct {
	ID          string
	UserID      string
	PlantID     string
	PlantType   string
	FinalPoints int
	MaxPoints   int
	StartedAt   time.Time
	CompletedAt time.Time
}

// PlantSnapshot is one observation of a user's current plant.
type PlantSnapshot struct {
	UserID string
	Plant  CurrentPlant
	Exists bool
	At     time.Time
}
