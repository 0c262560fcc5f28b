package services

import (
	"context"

	"github.com/Dosada05/dart-tournament/models"
)

// EventPublisher pushes live events to the display screens of a tournament.
type EventPublisher interface {
	Publish(ctx context.Context, tournamentID int, eventType string, payload interface{})
}

// BracketCache keeps assembled brackets between writes.
type BracketCache interface {
	Get(ctx context.Context, tournamentID int) (*models.Bracket, bool, error)
	Set(ctx context.Context, tournamentID int, bracket *models.Bracket) error
	Invalidate(ctx context.Context, tournamentID int) error
}

// BracketArchiver stores the final bracket of a finished tournament and returns its location.
type BracketArchiver interface {
	Archive(ctx context.Context, bracket *models.Bracket) (string, error)
	Remove(ctx context.Context, tournamentID int) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, int, string, interface{}) {}

type noopCache struct{}

func (noopCache) Get(context.Context, int) (*models.Bracket, bool, error) { return nil, false, nil }
func (noopCache) Set(context.Context, int, *models.Bracket) error         { return nil }
func (noopCache) Invalidate(context.Context, int) error                   { return nil }

type noopArchiver struct{}

func (noopArchiver) Archive(context.Context, *models.Bracket) (string, error) { return "", nil }
func (noopArchiver) Remove(context.Context, int) error                        { return nil }

func NoopPublisher() EventPublisher { return noopPublisher{} }
func NoopCache() BracketCache       { return noopCache{} }
func NoopArchiver() BracketArchiver { return noopArchiver{} }
